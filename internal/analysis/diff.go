// Package analysis turns repository history into structured reports: the
// per-file diff between two revisions, the dependency-manifest delta with
// risk grading, and the comprehensive report combining both.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/pkg/errors"

	"github.com/modelplane/modelplane/internal/workspace"
)

// maxDiffBytes is the hard cap on per-file diff text. Longer diffs are cut
// and marked; addition/deletion counts always reflect the full text.
const maxDiffBytes = 5000

// truncationMarker is appended to diff text cut at maxDiffBytes.
const truncationMarker = "... [truncated]"

// binaryNotice replaces diff text for binary file changes.
const binaryNotice = "<binary diff>"

// ChangeType labels what happened to a file between two revisions.
type ChangeType string

// The change type vocabulary. Copied is part of the wire contract even
// though tree diffs here produce only the first four.
const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
	ChangeRenamed  ChangeType = "renamed"
	ChangeCopied   ChangeType = "copied"
)

// FileChange is one file's entry in a DiffReport.
type FileChange struct {
	Path       string     `json:"path"`
	ChangeType ChangeType `json:"change_type"`
	Additions  int        `json:"additions"`
	Deletions  int        `json:"deletions"`
	DiffText   string     `json:"diff_text"`
}

// DiffReport lists every file change between two resolved commits.
type DiffReport struct {
	BaseCommit     workspace.Commit `json:"base_commit"`
	TargetCommit   workspace.Commit `json:"target_commit"`
	Files          []FileChange     `json:"files"`
	TotalFiles     int              `json:"total_files"`
	TotalAdditions int              `json:"total_additions"`
	TotalDeletions int              `json:"total_deletions"`
}

// DiffAnalysis is a DiffReport plus the reviewer-facing summary line and
// recommendations the analyze endpoint returns.
type DiffAnalysis struct {
	DiffReport
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// ExtractDiff compares two revisions of the workspace and reports every
// changed file. Revisions missing from the shallow clone are fetched on
// demand by the workspace.
func ExtractDiff(ctx context.Context, ws *workspace.Workspace, baseRev, targetRev string) (*DiffReport, error) {
	baseCommit, err := ws.CommitAt(ctx, baseRev)
	if err != nil {
		return nil, err
	}
	targetCommit, err := ws.CommitAt(ctx, targetRev)
	if err != nil {
		return nil, err
	}
	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, errors.Wrap(err, "reading base tree")
	}
	targetTree, err := targetCommit.Tree()
	if err != nil {
		return nil, errors.Wrap(err, "reading target tree")
	}
	changes, err := object.DiffTreeWithOptions(ctx, baseTree, targetTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, errors.Wrap(err, "diffing trees")
	}

	report := &DiffReport{
		BaseCommit:   workspace.Describe(baseCommit),
		TargetCommit: workspace.Describe(targetCommit),
		Files:        []FileChange{},
	}
	for _, change := range changes {
		fileChange, err := describeChange(ctx, change)
		if err != nil {
			return nil, err
		}
		report.Files = append(report.Files, fileChange)
		report.TotalAdditions += fileChange.Additions
		report.TotalDeletions += fileChange.Deletions
	}
	report.TotalFiles = len(report.Files)
	return report, nil
}

func describeChange(ctx context.Context, change *object.Change) (FileChange, error) {
	action, err := change.Action()
	if err != nil {
		return FileChange{}, errors.Wrap(err, "classifying change")
	}
	fileChange := FileChange{Path: change.To.Name}
	switch action {
	case merkletrie.Insert:
		fileChange.ChangeType = ChangeAdded
	case merkletrie.Delete:
		fileChange.ChangeType = ChangeDeleted
		fileChange.Path = change.From.Name
	default:
		fileChange.ChangeType = ChangeModified
		if change.From.Name != change.To.Name {
			fileChange.ChangeType = ChangeRenamed
		}
	}

	patch, err := change.PatchContext(ctx)
	if err != nil {
		return FileChange{}, errors.Wrapf(err, "building patch for %s", fileChange.Path)
	}
	for _, filePatch := range patch.FilePatches() {
		if filePatch.IsBinary() {
			fileChange.DiffText = binaryNotice
			return fileChange, nil
		}
	}
	text := patch.String()
	fileChange.Additions, fileChange.Deletions = countDiffLines(text)
	fileChange.DiffText = truncateDiff(text)
	return fileChange, nil
}

// countDiffLines counts additions and deletions in unified diff text.
// Header lines (+++/---) do not count.
func countDiffLines(text string) (additions, deletions int) {
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}

func truncateDiff(text string) string {
	if len(text) <= maxDiffBytes {
		return text
	}
	return text[:maxDiffBytes] + truncationMarker
}

// AnalyzeDiff runs ExtractDiff and attaches the summary line and
// recommendations for reviewers.
func AnalyzeDiff(ctx context.Context, ws *workspace.Workspace, baseRev, targetRev string) (*DiffAnalysis, error) {
	report, err := ExtractDiff(ctx, ws, baseRev, targetRev)
	if err != nil {
		return nil, err
	}
	analysis := &DiffAnalysis{DiffReport: *report}
	analysis.Summary = fmt.Sprintf("%d files changed between %s and %s: +%d/-%d lines",
		report.TotalFiles, shortSHA(report.BaseCommit.ID), shortSHA(report.TargetCommit.ID),
		report.TotalAdditions, report.TotalDeletions)
	analysis.Recommendations = diffRecommendations(report)
	return analysis, nil
}

// LastCommitDiff reports HEAD against its first parent. The workspace must
// have been opened with depth 2 or more for the parent to be present.
func LastCommitDiff(ctx context.Context, ws *workspace.Workspace) (*DiffAnalysis, error) {
	head, err := ws.CommitAt(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	parent, err := head.Parent(0)
	if err != nil {
		return nil, errors.Wrap(err, "HEAD has no parent commit")
	}
	return AnalyzeDiff(ctx, ws, parent.Hash.String(), head.Hash.String())
}

func diffRecommendations(report *DiffReport) []string {
	var recs []string
	if report.TotalFiles == 0 {
		return []string{"no changes detected between the selected revisions"}
	}
	if report.TotalFiles > 10 {
		recs = append(recs, "large change set; consider splitting the review into logical chunks")
	}
	if report.TotalAdditions+report.TotalDeletions > 500 {
		recs = append(recs, "over 500 changed lines; review the largest files first")
	}
	for _, file := range report.Files {
		if isManifestPath(file.Path) {
			recs = append(recs, "dependency manifest changed; run the requirements analysis")
			break
		}
	}
	recs = append(recs, "run the test suite against the target revision")
	return recs
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
