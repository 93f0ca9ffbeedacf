package requirements

import (
	"sort"
	"strings"
)

// RiskLevel grades the expected impact of a dependency change.
type RiskLevel string

// Risk levels in ascending severity. Unknown outranks High because an
// unassessable change deserves at least as much attention as a known
// breaking one.
const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskUnknown RiskLevel = "unknown"
)

// Rank maps the level onto the Low < Medium < High < Unknown order.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	}
	return 3
}

// PackageAnalysis is the per-package verdict for one delta entry.
type PackageAnalysis struct {
	Package         string    `json:"package"`
	OldConstraint   string    `json:"old_constraint,omitempty"`
	NewConstraint   string    `json:"new_constraint,omitempty"`
	Analysis        string    `json:"analysis"`
	Risk            RiskLevel `json:"risk_level"`
	Recommendations []string  `json:"recommendations,omitempty"`
}

var devTools = map[string]bool{
	"pytest":   true,
	"coverage": true,
	"flake8":   true,
	"mypy":     true,
	"black":    true,
	"isort":    true,
}

var securityPackages = map[string]bool{
	"cryptography": true,
	"pyjwt":        true,
	"bcrypt":       true,
	"passlib":      true,
}

var criticalPackages = map[string]bool{
	"django":     true,
	"flask":      true,
	"fastapi":    true,
	"requests":   true,
	"numpy":      true,
	"pandas":     true,
	"scipy":      true,
	"sqlalchemy": true,
}

// IsCritical reports whether the package belongs to the fixed list of
// widely-depended-on frameworks and numerical libraries.
func IsCritical(name string) bool {
	return criticalPackages[BaseName(name)]
}

func securitySensitive(name string) bool {
	return securityPackages[BaseName(name)] || strings.Contains(strings.ToLower(name), "security")
}

// AnalyzeChange classifies a constraint change for one package. Exact pins
// on both sides are judged by how far the version moved; switching between
// constraint kinds is judged as tightening or relaxation; anything the
// version parser cannot read comes back as Unknown.
func AnalyzeChange(name string, old, new Constraint) PackageAnalysis {
	analysis := PackageAnalysis{
		Package:       name,
		OldConstraint: old.String(),
		NewConstraint: new.String(),
	}
	oldV, oldOK := ParseVersion(old.Version)
	newV, newOK := ParseVersion(new.Version)
	switch {
	case old == new:
		analysis.Risk = RiskLow
		analysis.Analysis = "no effective version change detected"
	case old.IsExact() && new.IsExact() && oldOK && newOK:
		analysis.Risk, analysis.Analysis, analysis.Recommendations = classifyMovement(oldV, newV)
	case new.IsExact() && !old.IsExact():
		analysis.Risk = RiskLow
		analysis.Analysis = "constraint tightened; improves reproducibility"
	case old.IsExact() && !new.IsExact():
		analysis.Risk = RiskMedium
		analysis.Analysis = "constraint relaxed; future installs may pick different versions"
		analysis.Recommendations = []string{"consider pinning to an exact version"}
	case old.Op == new.Op && oldOK && newOK:
		analysis.Risk, analysis.Analysis, analysis.Recommendations = classifyMovement(oldV, newV)
	default:
		analysis.Risk = RiskUnknown
		analysis.Analysis = "unable to determine version impact"
		analysis.Recommendations = []string{"review the package changelog manually"}
	}
	return analysis
}

// classifyMovement grades a version transition component by component.
// Components absent on either side do not participate, matching Compare.
func classifyMovement(old, new Version) (RiskLevel, string, []string) {
	downgrade := func(risk RiskLevel) (RiskLevel, string, []string) {
		return risk, "downgrade may cause regressions", []string{
			"verify the rationale for downgrading",
			"run regression tests",
		}
	}
	switch {
	case new.Major > old.Major:
		return RiskHigh, "major version upgrade may introduce breaking changes", []string{
			"review changelog for breaking changes",
			"run full test suite before deploying",
		}
	case new.Major < old.Major:
		return downgrade(RiskHigh)
	}
	if old.HasMinor && new.HasMinor {
		switch {
		case new.Minor > old.Minor:
			return RiskMedium, "minor version upgrade may add features", []string{
				"review changelog for new features",
			}
		case new.Minor < old.Minor:
			return downgrade(RiskMedium)
		}
	}
	if old.HasPatch && new.HasPatch {
		switch {
		case new.Patch > old.Patch:
			return RiskLow, "patch upgrade; likely bug fixes only", nil
		case new.Patch < old.Patch:
			return downgrade(RiskMedium)
		}
	}
	return RiskLow, "no effective version change detected", nil
}

// AnalyzeAdded grades a newly introduced dependency. Development and test
// tools rate Low; security-sensitive names keep the default Medium but get
// an advisory-review recommendation; unpinned constraints get a pinning
// recommendation on top of whatever else applied.
func AnalyzeAdded(name string, c Constraint) PackageAnalysis {
	analysis := PackageAnalysis{
		Package:       name,
		NewConstraint: c.String(),
		Risk:          RiskMedium,
		Analysis:      "new dependency added",
	}
	base := BaseName(name)
	switch {
	case devTools[base]:
		analysis.Risk = RiskLow
		analysis.Analysis = "development/test dependency added"
	case securitySensitive(name):
		analysis.Analysis = "security-sensitive dependency added"
		analysis.Recommendations = append(analysis.Recommendations,
			"review security advisories for "+base)
	}
	if !c.IsExact() {
		analysis.Recommendations = append(analysis.Recommendations,
			"pin to an exact version for reproducible builds")
	}
	return analysis
}

// AnalyzeRemoved grades a dropped dependency. When an added package shares
// a normalized substring with the removed name it is reported as a likely
// replacement and the verification recommendation targets it instead.
func AnalyzeRemoved(name string, c Constraint, added map[string]Constraint) PackageAnalysis {
	analysis := PackageAnalysis{
		Package:       name,
		OldConstraint: c.String(),
		Risk:          RiskMedium,
		Analysis:      "dependency removed",
	}
	if replacement, found := replacementFor(name, added); found {
		analysis.Analysis = "dependency removed; possibly replaced by " + replacement
		analysis.Recommendations = []string{
			"verify " + replacement + " covers the removed functionality",
		}
		return analysis
	}
	analysis.Recommendations = []string{
		"verify functionality has been replaced or is no longer needed",
	}
	return analysis
}

var nameSquasher = strings.NewReplacer("-", "", "_", "")

func squashName(name string) string {
	return nameSquasher.Replace(BaseName(name))
}

func replacementFor(removed string, added map[string]Constraint) (string, bool) {
	target := squashName(removed)
	if target == "" {
		return "", false
	}
	names := make([]string, 0, len(added))
	for name := range added {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		candidate := squashName(name)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, target) || strings.Contains(target, candidate) {
			return name, true
		}
	}
	return "", false
}
