package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func exact(v string) Constraint   { return Constraint{Op: OpExact, Version: v} }
func atLeast(v string) Constraint { return Constraint{Op: OpAtLeast, Version: v} }

func TestAnalyzeChangePatchBump(t *testing.T) {
	analysis := AnalyzeChange("requests", exact("2.26.0"), exact("2.26.1"))
	assert.Equal(t, RiskLow, analysis.Risk)
	assert.Contains(t, analysis.Analysis, "patch upgrade")
	assert.Equal(t, "==2.26.0", analysis.OldConstraint)
	assert.Equal(t, "==2.26.1", analysis.NewConstraint)
}

func TestAnalyzeChangeMajorBump(t *testing.T) {
	analysis := AnalyzeChange("django", exact("3.2.0"), exact("4.0.0"))
	assert.Equal(t, RiskHigh, analysis.Risk)
	assert.Contains(t, analysis.Analysis, "breaking changes")
	assert.Contains(t, analysis.Recommendations, "review changelog for breaking changes")
	assert.Contains(t, analysis.Recommendations, "run full test suite before deploying")
}

func TestAnalyzeChangeMinorBump(t *testing.T) {
	analysis := AnalyzeChange("celery", exact("5.2.0"), exact("5.3.0"))
	assert.Equal(t, RiskMedium, analysis.Risk)
	assert.Contains(t, analysis.Recommendations, "review changelog for new features")
}

func TestAnalyzeChangeDowngrades(t *testing.T) {
	major := AnalyzeChange("numpy", exact("2.0.0"), exact("1.26.4"))
	assert.Equal(t, RiskHigh, major.Risk)
	assert.Contains(t, major.Analysis, "downgrade")

	patch := AnalyzeChange("numpy", exact("1.26.4"), exact("1.26.3"))
	assert.Equal(t, RiskMedium, patch.Risk)
	assert.Contains(t, patch.Recommendations, "run regression tests")
}

func TestAnalyzeChangeRelaxation(t *testing.T) {
	analysis := AnalyzeChange("flask", exact("2.0.0"), atLeast("2.0.0"))
	assert.Equal(t, RiskMedium, analysis.Risk)
	assert.Contains(t, analysis.Analysis, "relaxed")
	assert.Contains(t, analysis.Recommendations, "consider pinning to an exact version")
}

func TestAnalyzeChangeTightening(t *testing.T) {
	analysis := AnalyzeChange("flask", atLeast("2.0.0"), exact("2.0.3"))
	assert.Equal(t, RiskLow, analysis.Risk)
	assert.Contains(t, analysis.Analysis, "tightened")

	fromAny := AnalyzeChange("uvicorn", AnyVersion, exact("0.17.0"))
	assert.Equal(t, RiskLow, fromAny.Risk)
}

func TestAnalyzeChangeSameOperatorMovement(t *testing.T) {
	analysis := AnalyzeChange("scipy", atLeast("1.0.0"), atLeast("2.0.0"))
	assert.Equal(t, RiskHigh, analysis.Risk)
}

func TestAnalyzeChangeUnparseable(t *testing.T) {
	analysis := AnalyzeChange("weird", exact("oldest"), exact("newest"))
	assert.Equal(t, RiskUnknown, analysis.Risk)
	assert.Equal(t, "unable to determine version impact", analysis.Analysis)
	assert.Contains(t, analysis.Recommendations, "review the package changelog manually")

	// A pin staying a pin is not a tightening, even when only one side
	// fails to parse.
	oneSide := AnalyzeChange("weird", exact("1.0.0"), exact("newest"))
	assert.Equal(t, RiskUnknown, oneSide.Risk)
	assert.NotContains(t, oneSide.Analysis, "tightened")
}

func TestAnalyzeAdded(t *testing.T) {
	plain := AnalyzeAdded("httpx", exact("0.23.0"))
	assert.Equal(t, RiskMedium, plain.Risk)
	assert.Empty(t, plain.Recommendations)

	dev := AnalyzeAdded("pytest", atLeast("7.0"))
	assert.Equal(t, RiskLow, dev.Risk)
	assert.Contains(t, dev.Analysis, "development/test")
	assert.Contains(t, dev.Recommendations, "pin to an exact version for reproducible builds")

	sec := AnalyzeAdded("cryptography", exact("41.0.0"))
	assert.Equal(t, RiskMedium, sec.Risk)
	assert.Contains(t, sec.Recommendations, "review security advisories for cryptography")

	named := AnalyzeAdded("django-security-headers", exact("1.0.0"))
	assert.Contains(t, named.Analysis, "security-sensitive")
}

func TestAnalyzeRemoved(t *testing.T) {
	plain := AnalyzeRemoved("fabric", exact("2.7.0"), nil)
	assert.Equal(t, RiskMedium, plain.Risk)
	assert.Contains(t, plain.Recommendations,
		"verify functionality has been replaced or is no longer needed")

	replaced := AnalyzeRemoved("pycrypto", exact("2.6.1"), map[string]Constraint{
		"pycryptodome": exact("3.19.0"),
	})
	assert.Contains(t, replaced.Analysis, "possibly replaced by pycryptodome")
	assert.Contains(t, replaced.Recommendations,
		"verify pycryptodome covers the removed functionality")
}

func TestIsCritical(t *testing.T) {
	assert.True(t, IsCritical("django"))
	assert.True(t, IsCritical("Django[argon2]"))
	assert.False(t, IsCritical("left-pad"))
}

func TestRiskRank(t *testing.T) {
	assert.Less(t, RiskLow.Rank(), RiskMedium.Rank())
	assert.Less(t, RiskMedium.Rank(), RiskHigh.Rank())
	assert.Less(t, RiskHigh.Rank(), RiskUnknown.Rank())
}
