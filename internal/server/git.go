package server

import (
	"context"
	"net/http"
	"time"

	"github.com/modelplane/modelplane/internal/analysis"
	"github.com/modelplane/modelplane/internal/workspace"
)

// analyzeRequest is the body shared by the two-revision git endpoints.
// TargetCommit defaults to HEAD.
type analyzeRequest struct {
	RepoURL      string `json:"repo_url" validate:"required"`
	CommitSHA    string `json:"commit_sha" validate:"required"`
	TargetCommit string `json:"target_commit"`
}

func (req *analyzeRequest) target() string {
	if req.TargetCommit == "" {
		return "HEAD"
	}
	return req.TargetCommit
}

// lastDiffRequest asks for HEAD against its parent; only the repository is
// needed.
type lastDiffRequest struct {
	RepoURL string `json:"repo_url" validate:"required"`
}

// runAnalysis queues job on the bounded analysis pool and waits for it,
// honoring the request context and the configured git timeout. Workspaces
// opened inside the job are released before the job returns.
func (s *Server) runAnalysis(ctx context.Context, job func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gitTimeout)
	defer cancel()
	type outcome struct {
		value interface{}
		err   error
	}
	result, err := s.pool.ProcessCtx(ctx, func() interface{} {
		value, err := job(ctx)
		return outcome{value: value, err: err}
	})
	if err != nil {
		// The pool only errors on cancellation before a worker picked
		// the job up, or on shutdown.
		return nil, err
	}
	out := result.(outcome)
	return out.value, out.err
}

// openWorkspace clones repoURL and returns a release func that also feeds
// the leak-guard metrics. The caller must defer release on every path.
func (s *Server) openWorkspace(ctx context.Context, repoURL string, depth int) (*workspace.Workspace, func(), error) {
	opts := s.wsOpts
	if depth > opts.Depth {
		opts.Depth = depth
	}
	ws, err := workspace.Open(ctx, repoURL, opts)
	if err != nil {
		s.metrics.workspaceFailures.Inc()
		return nil, nil, errCloneFailed(err, repoURL)
	}
	s.metrics.workspaceOpens.Inc()
	opened := time.Now()
	release := func() {
		ws.Release()
		s.metrics.workspaceReleases.Inc()
		s.metrics.workspaceLifetimes.Observe(time.Since(opened).Seconds())
	}
	return ws, release, nil
}

func (s *Server) handleAnalyzeDiff(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.runAnalysis(r.Context(), func(ctx context.Context) (interface{}, error) {
		ws, release, err := s.openWorkspace(ctx, req.RepoURL, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		return analysis.AnalyzeDiff(ctx, ws, req.CommitSHA, req.target())
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, report)
}

func (s *Server) handleAnalyzeRequirements(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.runAnalysis(r.Context(), func(ctx context.Context) (interface{}, error) {
		ws, release, err := s.openWorkspace(ctx, req.RepoURL, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		return analysis.AnalyzeRequirements(ctx, ws, req.CommitSHA, req.target())
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, report)
}

func (s *Server) handleLastCommitDiff(w http.ResponseWriter, r *http.Request) {
	var req lastDiffRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.runAnalysis(r.Context(), func(ctx context.Context) (interface{}, error) {
		// Depth 2 so HEAD's parent is present in the shallow clone.
		ws, release, err := s.openWorkspace(ctx, req.RepoURL, 2)
		if err != nil {
			return nil, err
		}
		defer release()
		return analysis.LastCommitDiff(ctx, ws)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, report)
}

func (s *Server) handleComprehensive(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.runAnalysis(r.Context(), func(ctx context.Context) (interface{}, error) {
		ws, release, err := s.openWorkspace(ctx, req.RepoURL, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		return analysis.Comprehensive(ctx, ws, req.RepoURL, req.CommitSHA, req.target()), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, report)
}
