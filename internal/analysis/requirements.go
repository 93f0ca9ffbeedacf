package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/modelplane/modelplane/internal/requirements"
	"github.com/modelplane/modelplane/internal/workspace"
)

// manifestPaths is the fixed probe list for dependency manifests, tried in
// order; the first path present at a revision wins.
var manifestPaths = []string{
	"requirements.txt",
	"requirements/base.txt",
	"requirements/prod.txt",
	"requirements/production.txt",
}

func isManifestPath(path string) bool {
	for _, candidate := range manifestPaths {
		if path == candidate {
			return true
		}
	}
	return false
}

// Requirements analysis statuses.
const (
	StatusSuccess        = "success"
	StatusNoRequirements = "no_requirements"
	StatusNewFile        = "new_requirements"
	StatusDeletedFile    = "deleted_requirements"
)

// ConstraintChange is the before/after pair for one changed package,
// rendered in manifest notation.
type ConstraintChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// IssueCounts tallies analyses per risk level. Its sum always equals the
// number of potential_issues lines.
type IssueCounts struct {
	High    int `json:"high"`
	Medium  int `json:"medium"`
	Low     int `json:"low"`
	Unknown int `json:"unknown"`
}

func (c IssueCounts) total() int {
	return c.High + c.Medium + c.Low + c.Unknown
}

// RiskAssessment groups per-package analyses into risk buckets. Unknown
// risk lands in the high bucket; it still counts as unknown in IssueCounts.
type RiskAssessment struct {
	HighRisk               []requirements.PackageAnalysis `json:"high_risk"`
	MediumRisk             []requirements.PackageAnalysis `json:"medium_risk"`
	LowRisk                []requirements.PackageAnalysis `json:"low_risk"`
	OverallRecommendations []string                       `json:"overall_recommendations"`
	TotalAnalyzed          int                            `json:"total_analyzed"`
}

// RequirementsReport is the full requirements-change analysis for one pair
// of revisions.
type RequirementsReport struct {
	Status          string                      `json:"status"`
	ManifestPath    string                      `json:"manifest_path,omitempty"`
	AddedPackages   map[string]string           `json:"added_packages"`
	RemovedPackages map[string]string           `json:"removed_packages"`
	ChangedPackages map[string]ConstraintChange `json:"changed_packages"`
	PotentialIssues []string                    `json:"potential_issues"`
	Recommendations []string                    `json:"recommendations"`
	IssueCounts     IssueCounts                 `json:"issue_counts"`
	AIAnalysis      *RiskAssessment             `json:"ai_analysis,omitempty"`
}

func emptyReport(status string) *RequirementsReport {
	return &RequirementsReport{
		Status:          status,
		AddedPackages:   map[string]string{},
		RemovedPackages: map[string]string{},
		ChangedPackages: map[string]ConstraintChange{},
		PotentialIssues: []string{},
		Recommendations: []string{},
	}
}

// readManifest probes the fixed path list at one revision. A nil content
// with nil error means no manifest exists there.
func readManifest(ctx context.Context, ws *workspace.Workspace, rev string) ([]byte, string, error) {
	for _, path := range manifestPaths {
		content, err := ws.FileContentAt(ctx, rev, path)
		if err == nil {
			return content, path, nil
		}
		if errors.Is(err, workspace.ErrNotExist) {
			continue
		}
		return nil, "", err
	}
	return nil, "", nil
}

// AnalyzeRequirements reads the dependency manifest at both revisions,
// computes the delta and grades every entry.
func AnalyzeRequirements(ctx context.Context, ws *workspace.Workspace, baseRev, targetRev string) (*RequirementsReport, error) {
	baseText, basePath, err := readManifest(ctx, ws, baseRev)
	if err != nil {
		return nil, err
	}
	targetText, targetPath, err := readManifest(ctx, ws, targetRev)
	if err != nil {
		return nil, err
	}

	switch {
	case baseText == nil && targetText == nil:
		report := emptyReport(StatusNoRequirements)
		report.Recommendations = append(report.Recommendations,
			"no dependency manifest found at either revision")
		return report, nil
	case baseText == nil:
		report := emptyReport(StatusNewFile)
		report.ManifestPath = targetPath
		for name, constraint := range requirements.Parse(string(targetText)) {
			report.AddedPackages[name] = constraint.String()
		}
		report.Recommendations = append(report.Recommendations,
			"dependency manifest introduced; review the full dependency set")
		return report, nil
	case targetText == nil:
		report := emptyReport(StatusDeletedFile)
		report.ManifestPath = basePath
		for name, constraint := range requirements.Parse(string(baseText)) {
			report.RemovedPackages[name] = constraint.String()
		}
		report.Recommendations = append(report.Recommendations,
			"dependency manifest deleted; confirm dependencies are managed elsewhere")
		return report, nil
	}

	before := requirements.Parse(string(baseText))
	after := requirements.Parse(string(targetText))
	delta := requirements.Diff(before, after)

	report := emptyReport(StatusSuccess)
	report.ManifestPath = targetPath
	for name, constraint := range delta.Added {
		report.AddedPackages[name] = constraint.String()
	}
	for name, constraint := range delta.Removed {
		report.RemovedPackages[name] = constraint.String()
	}
	for name, change := range delta.Changed {
		report.ChangedPackages[name] = ConstraintChange{
			Old: change.Old.String(),
			New: change.New.String(),
		}
	}
	if delta.Empty() {
		report.Recommendations = append(report.Recommendations,
			"no dependency changes detected")
		return report, nil
	}

	assessment := assess(delta)
	for _, analysis := range assessment.all() {
		report.PotentialIssues = append(report.PotentialIssues,
			fmt.Sprintf("%s: %s - %s", analysis.Risk, analysis.Package, analysis.Analysis))
		switch analysis.Risk {
		case requirements.RiskHigh:
			report.IssueCounts.High++
		case requirements.RiskMedium:
			report.IssueCounts.Medium++
		case requirements.RiskLow:
			report.IssueCounts.Low++
		default:
			report.IssueCounts.Unknown++
		}
	}
	report.AIAnalysis = assessment.grouped(delta)
	report.Recommendations = report.AIAnalysis.OverallRecommendations
	return report, nil
}

// assessment keeps the per-package analyses in a deterministic order:
// added, removed, changed, each sorted by name.
type assessment struct {
	analyses []requirements.PackageAnalysis
}

func assess(delta requirements.Delta) *assessment {
	result := &assessment{}
	for _, name := range sortedNames(delta.Added) {
		result.analyses = append(result.analyses, requirements.AnalyzeAdded(name, delta.Added[name]))
	}
	for _, name := range sortedNames(delta.Removed) {
		result.analyses = append(result.analyses,
			requirements.AnalyzeRemoved(name, delta.Removed[name], delta.Added))
	}
	changed := make([]string, 0, len(delta.Changed))
	for name := range delta.Changed {
		changed = append(changed, name)
	}
	sort.Strings(changed)
	for _, name := range changed {
		change := delta.Changed[name]
		result.analyses = append(result.analyses,
			requirements.AnalyzeChange(name, change.Old, change.New))
	}
	return result
}

func (a *assessment) all() []requirements.PackageAnalysis {
	return a.analyses
}

func (a *assessment) grouped(delta requirements.Delta) *RiskAssessment {
	grouped := &RiskAssessment{
		HighRisk:      []requirements.PackageAnalysis{},
		MediumRisk:    []requirements.PackageAnalysis{},
		LowRisk:       []requirements.PackageAnalysis{},
		TotalAnalyzed: len(a.analyses),
	}
	for _, analysis := range a.analyses {
		switch {
		case analysis.Risk.Rank() >= requirements.RiskHigh.Rank():
			grouped.HighRisk = append(grouped.HighRisk, analysis)
		case analysis.Risk == requirements.RiskMedium:
			grouped.MediumRisk = append(grouped.MediumRisk, analysis)
		default:
			grouped.LowRisk = append(grouped.LowRisk, analysis)
		}
	}
	grouped.OverallRecommendations = overallRecommendations(grouped, delta)
	return grouped
}

func overallRecommendations(grouped *RiskAssessment, delta requirements.Delta) []string {
	var recs []string
	if names := packageNames(grouped.HighRisk); len(names) > 0 {
		recs = append(recs, "high-risk packages: "+strings.Join(names, ", "))
	}
	if names := packageNames(grouped.MediumRisk); len(names) > 0 {
		recs = append(recs, "medium-risk packages: "+strings.Join(names, ", "))
	}
	if names := packageNames(grouped.LowRisk); len(names) > 0 {
		recs = append(recs, "low-risk packages: "+strings.Join(names, ", "))
	}
	if delta.Total() > 3 {
		recs = append(recs, "more than three packages changed; consider a staged rollout")
	}
	if critical := criticalNames(delta); len(critical) > 0 {
		recs = append(recs, fmt.Sprintf(
			"critical dependencies affected (%s); many application areas may be impacted",
			strings.Join(critical, ", ")))
	}
	return recs
}

func packageNames(analyses []requirements.PackageAnalysis) []string {
	names := make([]string, 0, len(analyses))
	for _, analysis := range analyses {
		names = append(names, analysis.Package)
	}
	return names
}

func criticalNames(delta requirements.Delta) []string {
	var names []string
	for _, name := range sortedNames(delta.Added) {
		if requirements.IsCritical(name) {
			names = append(names, name)
		}
	}
	for _, name := range sortedNames(delta.Removed) {
		if requirements.IsCritical(name) {
			names = append(names, name)
		}
	}
	changed := make([]string, 0, len(delta.Changed))
	for name := range delta.Changed {
		changed = append(changed, name)
	}
	sort.Strings(changed)
	for _, name := range changed {
		if requirements.IsCritical(name) {
			names = append(names, name)
		}
	}
	return names
}

func sortedNames(set map[string]requirements.Constraint) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
