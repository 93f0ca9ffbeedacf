package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/modelplane/modelplane/internal/sandbox"
	"github.com/modelplane/modelplane/internal/workspace"
)

// apiError pins an HTTP status to an error before it reaches the boundary.
// Everything without a tag falls through the sentinel mapping in statusOf.
type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string {
	return e.detail
}

func errBadRequest(format string, args ...interface{}) error {
	return &apiError{status: http.StatusBadRequest, detail: errors.Errorf(format, args...).Error()}
}

func errNotFound(format string, args ...interface{}) error {
	return &apiError{status: http.StatusNotFound, detail: errors.Errorf(format, args...).Error()}
}

func errCloneFailed(err error, repoURL string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return &apiError{
		status: http.StatusBadGateway,
		detail: errors.Wrapf(err, "cloning %s failed", repoURL).Error(),
	}
}

// statusOf maps an error to its HTTP status. Tagged errors win; the rest
// is classified by the sentinel the leaf packages signal.
func statusOf(err error) int {
	var api *apiError
	if errors.As(err, &api) {
		return api.status
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, sandbox.ErrDenied):
		return http.StatusForbidden
	case errors.Is(err, workspace.ErrUnknownRevision),
		errors.Is(err, workspace.ErrNotExist),
		os.IsNotExist(errors.Cause(err)):
		return http.StatusNotFound
	case errors.Is(err, sandbox.ErrNotDirectory),
		errors.Is(err, sandbox.ErrIsDirectory),
		errors.Is(err, sandbox.ErrNotUTF8),
		errors.Is(err, sandbox.ErrExists):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// detailOf returns the client-facing message. Internal errors stay opaque;
// the full text goes to the log only.
func detailOf(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, logger log.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	encoded, err := json.Marshal(payload)
	if err != nil {
		level.Error(logger).Log("msg", "encoding response failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"internal server error"}`))
		return
	}
	w.WriteHeader(status)
	w.Write(encoded)
}

// writeDetail emits the {"detail": ...} error envelope every non-proxy
// failure uses.
func writeDetail(w http.ResponseWriter, logger log.Logger, status int, detail string) {
	writeJSON(w, logger, status, map[string]string{"detail": detail})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		level.Error(s.logger).Log("msg", "handler failed", "path", r.URL.Path, "err", err)
	}
	writeDetail(w, s.logger, status, detailOf(err, status))
}

// decodeAndValidate fills request from the body and runs the validator.
// Any failure comes back as a 400-tagged error naming the offending field.
func (s *Server) decodeAndValidate(r *http.Request, request interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		return errBadRequest("invalid JSON body: %s", err)
	}
	if err := s.validate.Struct(request); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return errBadRequest("field %s: failed %s validation", fields[0].Field(), fields[0].Tag())
		}
		return errBadRequest("invalid request: %s", err)
	}
	return nil
}
