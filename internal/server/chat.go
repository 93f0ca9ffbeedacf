package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/modelplane/modelplane/internal/llm"
	"github.com/modelplane/modelplane/internal/registry"
)

type chatMessage struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages" validate:"required,min=1,dive"`
	MaxTokens   *int          `json:"max_tokens" validate:"omitempty,gt=0"`
	Temperature *float64      `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

type completionRequest struct {
	Prompt      string   `json:"prompt" validate:"required"`
	MaxTokens   *int     `json:"max_tokens" validate:"omitempty,gt=0"`
	Temperature *float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// forwardModel resolves {id} and checks the capability tag. Both failure
// modes are a 404: the pair (id, op) does not exist.
func (s *Server) forwardModel(r *http.Request, capability registry.Capability) (registry.Model, error) {
	id := mux.Vars(r)["id"]
	model, found := s.registry.Get(id)
	if !found {
		return registry.Model{}, errNotFound("unknown model %q", id)
	}
	if !model.Has(capability) {
		return registry.Model{}, errNotFound("model %q does not support %s", id, capability)
	}
	return model, nil
}

// writeUpstream passes the provider body through verbatim, preserving the
// upstream status where the body is JSON.
func (s *Server) writeUpstream(w http.ResponseWriter, r *http.Request, resp *llm.Response, err error) {
	if err != nil {
		var upstream *llm.UpstreamError
		if errors.As(err, &upstream) {
			if body := upstream.JSONBody(); body != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(upstream.StatusCode)
				w.Write(body)
				return
			}
			writeDetail(w, s.logger, http.StatusBadGateway, upstream.Error())
			return
		}
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(resp.Raw)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	model, err := s.forwardModel(r, registry.CapChat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req chatRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	messages := make([]llm.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	resp, err := s.llm.Chat(r.Context(), llm.ChatRequest{
		Model:       model.ID,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	s.writeUpstream(w, r, resp, err)
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	model, err := s.forwardModel(r, registry.CapCompletion)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req completionRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.llm.Complete(r.Context(), llm.CompletionRequest{
		Model:       model.ID,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	s.writeUpstream(w, r, resp, err)
}
