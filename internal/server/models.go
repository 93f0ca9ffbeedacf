package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]interface{}{
		"models": s.registry.List(),
	})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	model, found := s.registry.Get(id)
	if !found {
		s.writeError(w, r, errNotFound("unknown model %q", id))
		return
	}
	writeJSON(w, s.logger, http.StatusOK, model)
}
