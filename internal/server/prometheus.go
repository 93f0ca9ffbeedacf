package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/modelplane/modelplane/internal/promproxy"
)

type promQueryRequest struct {
	Query string `json:"query" validate:"required"`
	Time  string `json:"time"`
}

type promRangeRequest struct {
	Query string `json:"query" validate:"required"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
	Step  string `json:"step" validate:"required"`
}

type promSeriesRequest struct {
	Match []string `json:"match" validate:"required,min=1,dive,required"`
	Start string   `json:"start"`
	End   string   `json:"end"`
}

type promLabelValuesRequest struct {
	Label string `json:"label" validate:"required"`
}

// writePromResult emits either the verbatim upstream body or the uniform
// error envelope. The envelope shape never varies across operations.
func (s *Server) writePromResult(w http.ResponseWriter, raw json.RawMessage, err error) {
	if err != nil {
		writeJSON(w, s.logger, http.StatusBadGateway, promproxy.Envelope(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// handlePrometheusPost serves the parameterized query family.
func (s *Server) handlePrometheusPost(w http.ResponseWriter, r *http.Request) {
	op := mux.Vars(r)["op"]
	switch op {
	case "query":
		var req promQueryRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		raw, err := s.prom.Query(r.Context(), req.Query, req.Time)
		s.writePromResult(w, raw, err)
	case "query_range":
		var req promRangeRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		raw, err := s.prom.QueryRange(r.Context(), req.Query, req.Start, req.End, req.Step)
		s.writePromResult(w, raw, err)
	case "series":
		var req promSeriesRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		raw, err := s.prom.Series(r.Context(), req.Match, req.Start, req.End)
		s.writePromResult(w, raw, err)
	case "label_values":
		var req promLabelValuesRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		raw, err := s.prom.LabelValues(r.Context(), req.Label)
		s.writePromResult(w, raw, err)
	default:
		s.writeError(w, r, errNotFound("unknown prometheus operation %q", op))
	}
}

// handlePrometheusGet serves the parameterless read operations.
func (s *Server) handlePrometheusGet(w http.ResponseWriter, r *http.Request) {
	op := mux.Vars(r)["op"]
	var (
		raw json.RawMessage
		err error
	)
	switch op {
	case "labels":
		raw, err = s.prom.Labels(r.Context())
	case "targets":
		raw, err = s.prom.Targets(r.Context())
	case "rules":
		raw, err = s.prom.Rules(r.Context())
	case "alerts":
		raw, err = s.prom.Alerts(r.Context())
	default:
		s.writeError(w, r, errNotFound("unknown prometheus operation %q", op))
		return
	}
	s.writePromResult(w, raw, err)
}
