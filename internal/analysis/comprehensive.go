package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelplane/modelplane/internal/workspace"
)

// DiffSection wraps the diff half of a comprehensive report with its own
// status so a failure here never hides the requirements half.
type DiffSection struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	*DiffAnalysis
}

// RequirementsSection is the requirements half, same envelope rules.
type RequirementsSection struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	*RequirementsReport
}

// ComprehensiveReport combines the diff and requirements analyses for one
// revision pair plus merged guidance for reviewers.
type ComprehensiveReport struct {
	Repository      string               `json:"repository"`
	BaseCommit      string               `json:"base_commit"`
	TargetCommit    string               `json:"target_commit"`
	Diff            *DiffSection         `json:"diff_analysis"`
	Requirements    *RequirementsSection `json:"requirements_analysis"`
	Summary         string               `json:"summary"`
	Recommendations []string             `json:"recommendations"`
	NextSteps       []string             `json:"next_steps"`
}

// Comprehensive runs the diff and requirements analyses over one workspace
// and merges their findings. The two run independently: an error in either
// is recorded in its section and the other still completes. They share a
// single clone, so they run one after the other rather than in parallel.
func Comprehensive(ctx context.Context, ws *workspace.Workspace, repoURL, baseRev, targetRev string) *ComprehensiveReport {
	report := &ComprehensiveReport{
		Repository:      repoURL,
		BaseCommit:      baseRev,
		TargetCommit:    targetRev,
		Recommendations: []string{},
		NextSteps:       []string{},
	}

	diffAnalysis, diffErr := AnalyzeDiff(ctx, ws, baseRev, targetRev)
	if diffErr != nil {
		report.Diff = &DiffSection{Status: "error", Error: diffErr.Error()}
	} else {
		report.Diff = &DiffSection{Status: "success", DiffAnalysis: diffAnalysis}
	}

	reqReport, reqErr := AnalyzeRequirements(ctx, ws, baseRev, targetRev)
	if reqErr != nil {
		report.Requirements = &RequirementsSection{Status: "error", Error: reqErr.Error()}
	} else {
		report.Requirements = &RequirementsSection{Status: reqReport.Status, RequirementsReport: reqReport}
	}

	report.Summary = comprehensiveSummary(diffAnalysis, diffErr, reqReport, reqErr)
	if diffErr == nil {
		report.Recommendations = mergeUnique(report.Recommendations, diffAnalysis.Recommendations)
	}
	if reqErr == nil {
		report.Recommendations = mergeUnique(report.Recommendations, reqReport.Recommendations)
	}
	report.Recommendations = mergeUnique(report.Recommendations,
		[]string{"have a maintainer review the combined changes before merging"})

	if diffErr == nil && diffAnalysis.TotalAdditions+diffAnalysis.TotalDeletions > 20 {
		report.NextSteps = append(report.NextSteps,
			"run a comprehensive test pass before merging")
	}
	if reqErr == nil && reqReport.AIAnalysis != nil {
		if names := packageNames(reqReport.AIAnalysis.HighRisk); len(names) > 0 {
			report.NextSteps = append(report.NextSteps,
				"manually verify high-risk packages: "+strings.Join(names, ", "))
		}
	}
	return report
}

func comprehensiveSummary(diff *DiffAnalysis, diffErr error, req *RequirementsReport, reqErr error) string {
	var parts []string
	if diffErr != nil {
		parts = append(parts, "diff analysis failed")
	} else {
		parts = append(parts, fmt.Sprintf("%d files changed (+%d/-%d)",
			diff.TotalFiles, diff.TotalAdditions, diff.TotalDeletions))
	}
	switch {
	case reqErr != nil:
		parts = append(parts, "requirements analysis failed")
	case req.Status == StatusSuccess:
		changes := len(req.AddedPackages) + len(req.RemovedPackages) + len(req.ChangedPackages)
		parts = append(parts, fmt.Sprintf("%d dependency changes", changes))
	default:
		parts = append(parts, "requirements: "+req.Status)
	}
	return strings.Join(parts, "; ")
}

func mergeUnique(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	return dst
}
