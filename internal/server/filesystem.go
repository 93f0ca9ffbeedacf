package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/modelplane/modelplane/internal/sandbox"
)

type pathRequest struct {
	Path string `json:"path" validate:"required"`
}

type readMultipleRequest struct {
	Paths []string `json:"paths" validate:"required,min=1,dive,required"`
}

type writeRequest struct {
	Path    string `json:"path" validate:"required"`
	Content string `json:"content"`
}

type editRequest struct {
	Path   string                  `json:"path" validate:"required"`
	Edits  []sandbox.EditOperation `json:"edits" validate:"required,min=1"`
	DryRun bool                    `json:"dry_run"`
}

type moveRequest struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

type searchRequest struct {
	Path            string   `json:"path" validate:"required"`
	Pattern         string   `json:"pattern" validate:"required"`
	ExcludePatterns []string `json:"exclude_patterns"`
}

// handleFilesystem dispatches the nine gateway operations by the {op}
// path segment.
func (s *Server) handleFilesystem(w http.ResponseWriter, r *http.Request) {
	op := mux.Vars(r)["op"]
	var (
		payload interface{}
		err     error
	)
	switch op {
	case "list":
		var req pathRequest
		if err = s.decodeAndValidate(r, &req); err == nil {
			var entries []sandbox.Entry
			if entries, err = s.sandbox.List(req.Path); err == nil {
				payload = map[string]interface{}{"entries": entries}
			}
		}
	case "read":
		var req pathRequest
		if err = s.decodeAndValidate(r, &req); err == nil {
			var content string
			if content, err = s.sandbox.Read(req.Path); err == nil {
				payload = map[string]string{"path": req.Path, "content": content}
			}
		}
	case "read-multiple":
		var req readMultipleRequest
		if err = s.decodeAndValidate(r, &req); err == nil {
			payload = map[string]interface{}{
				"results": s.sandbox.ReadMany(r.Context(), req.Paths),
			}
		}
	case "write":
		var req writeRequest
		if err = s.decodeAndValidate(r, &req); err == nil {
			payload, err = s.sandbox.Write(req.Path, req.Content)
		}
	case "edit":
		var req editRequest
		if err = s.decodeAndValidate(r, &req); err == nil {
			payload, err = s.sandbox.Edit(req.Path, req.Edits, req.DryRun)
		}
	case "mkdir":
		var req pathRequest
		if err = s.decodeAndValidate(r, &req); err == nil {
			var created string
			if created, err = s.sandbox.Mkdir(req.Path); err == nil {
				payload = map[string]interface{}{"path": created, "ok": true}
			}
		}
	case "move":
		var req moveRequest
		if err = s.decodeAndValidate(r, &req); err == nil {
			if err = s.sandbox.Move(req.Source, req.Destination); err == nil {
				payload = map[string]interface{}{
					"source":      req.Source,
					"destination": req.Destination,
					"ok":          true,
				}
			}
		}
	case "search":
		var req searchRequest
		if err = s.decodeAndValidate(r, &req); err == nil {
			var matches []string
			if matches, err = s.sandbox.Search(req.Path, req.Pattern, req.ExcludePatterns); err == nil {
				payload = map[string]interface{}{"matches": matches}
			}
		}
	case "info":
		var req pathRequest
		if err = s.decodeAndValidate(r, &req); err == nil {
			payload, err = s.sandbox.Info(req.Path)
		}
	default:
		err = errNotFound("unknown filesystem operation %q", op)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, payload)
}
