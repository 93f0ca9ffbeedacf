package sandbox

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// EditOperation replaces the first occurrence of OldText with NewText.
type EditOperation struct {
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
}

// FailedEdit records an operation that did not apply and why.
type FailedEdit struct {
	Operation EditOperation `json:"operation"`
	Reason    string        `json:"reason"`
}

// EditResult reports which operations applied, which failed, and the
// line-level diff between the original and final text.
type EditResult struct {
	Applied      []EditOperation `json:"applied"`
	Failed       []FailedEdit    `json:"failed"`
	Diff         string          `json:"diff"`
	OriginalSize int             `json:"original_size"`
	NewSize      int             `json:"new_size"`
	DryRun       bool            `json:"dry_run"`
}

// failedEditReason is the fixed reason string for a no-match operation.
const failedEditReason = "text not found in file"

// Edit applies the operations in order against the current working text:
// each old_text is searched in the result of the previous edits, plain
// substring match, first occurrence. Operations that do not match are
// recorded and skipped. With dryRun the file is never touched; otherwise
// it is rewritten iff at least one operation applied.
func (s *Sandbox) Edit(path string, ops []EditOperation, dryRun bool) (*EditResult, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	original, err := readFileText(resolved, path)
	if err != nil {
		return nil, err
	}

	result := &EditResult{
		Applied:      []EditOperation{},
		Failed:       []FailedEdit{},
		OriginalSize: len(original),
		DryRun:       dryRun,
	}
	working := original
	for _, op := range ops {
		index := strings.Index(working, op.OldText)
		if index < 0 {
			result.Failed = append(result.Failed, FailedEdit{Operation: op, Reason: failedEditReason})
			continue
		}
		working = working[:index] + op.NewText + working[index+len(op.OldText):]
		result.Applied = append(result.Applied, op)
	}
	result.NewSize = len(working)
	result.Diff = renderDiff(original, working)

	if !dryRun && len(result.Applied) > 0 {
		if err := os.WriteFile(resolved, []byte(working), 0o644); err != nil {
			return nil, errors.Wrap(err, "writing edited file")
		}
	}
	return result, nil
}

// renderDiff produces the compact line diff: each run of changed lines is
// prefixed with its 1-based line number in the original text, deletions
// before insertions, unchanged lines omitted.
func renderDiff(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lineArray)

	var blocks []string
	var current []string
	blockStart := 1
	oldLine := 1
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, fmt.Sprintf("Line %d:\n%s", blockStart, strings.Join(current, "\n")))
			current = nil
		}
	}
	for _, diff := range diffs {
		lines := splitLines(diff.Text)
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			oldLine += len(lines)
		case diffmatchpatch.DiffDelete:
			if len(current) == 0 {
				blockStart = oldLine
			}
			for _, line := range lines {
				current = append(current, "- "+line)
			}
			oldLine += len(lines)
		case diffmatchpatch.DiffInsert:
			if len(current) == 0 {
				blockStart = oldLine
			}
			for _, line := range lines {
				current = append(current, "+ "+line)
			}
		}
	}
	flush()
	return strings.Join(blocks, "\n\n")
}

func splitLines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
