package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelplane/modelplane/internal/gittest"
	"github.com/modelplane/modelplane/internal/workspace"
)

func manifestFixture(t *testing.T, base, target string) (*workspace.Workspace, *gittest.Repo) {
	fixture := gittest.New(t,
		gittest.CommitSpec{Write: gittest.FileMap{"requirements.txt": base}},
		gittest.CommitSpec{Write: gittest.FileMap{"requirements.txt": target}},
	)
	return workspace.Attach(fixture.Repo, ""), fixture
}

func analyzeManifests(t *testing.T, base, target string) *RequirementsReport {
	t.Helper()
	ws, fixture := manifestFixture(t, base, target)
	report, err := AnalyzeRequirements(context.Background(), ws, fixture.Rev(0), fixture.Rev(1))
	require.NoError(t, err)
	return report
}

func assertCountsMatchIssues(t *testing.T, report *RequirementsReport) {
	t.Helper()
	assert.Equal(t, len(report.PotentialIssues), report.IssueCounts.total())
}

func TestAnalyzeRequirementsPatchBump(t *testing.T) {
	report := analyzeManifests(t, "requests==2.26.0\n", "requests==2.26.1\n")

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, map[string]ConstraintChange{
		"requests": {Old: "==2.26.0", New: "==2.26.1"},
	}, report.ChangedPackages)
	assert.Empty(t, report.AddedPackages)
	assert.Empty(t, report.RemovedPackages)
	assert.GreaterOrEqual(t, report.IssueCounts.Low, 1)
	assert.Zero(t, report.IssueCounts.High)
	require.NotNil(t, report.AIAnalysis)
	assert.Empty(t, report.AIAnalysis.HighRisk)
	assertCountsMatchIssues(t, report)
}

func TestAnalyzeRequirementsMajorBump(t *testing.T) {
	report := analyzeManifests(t, "django==3.2.0\n", "django==4.0.0\n")

	assert.GreaterOrEqual(t, report.IssueCounts.High, 1)
	require.NotNil(t, report.AIAnalysis)
	require.Len(t, report.AIAnalysis.HighRisk, 1)
	assert.Contains(t, report.AIAnalysis.HighRisk[0].Recommendations,
		"review changelog for breaking changes")

	joined := strings.Join(report.Recommendations, "\n")
	assert.Contains(t, joined, "high-risk packages: django")
	assert.Contains(t, joined, "critical dependencies affected (django)")
	assertCountsMatchIssues(t, report)
}

func TestAnalyzeRequirementsRelaxation(t *testing.T) {
	report := analyzeManifests(t, "flask==2.0.0\n", "flask>=2.0.0\n")

	assert.GreaterOrEqual(t, report.IssueCounts.Medium, 1)
	require.NotNil(t, report.AIAnalysis)
	require.Len(t, report.AIAnalysis.MediumRisk, 1)
	assert.Contains(t, report.AIAnalysis.MediumRisk[0].Recommendations,
		"consider pinning to an exact version")
	assertCountsMatchIssues(t, report)
}

func TestAnalyzeRequirementsMixedDelta(t *testing.T) {
	report := analyzeManifests(t,
		"requests==2.26.0\nfabric==2.7.0\nflask==2.0.0\n",
		"requests==2.26.1\nflask==2.0.0\npytest>=7.0\ncryptography==41.0.0\nhttpx==0.23.0\n")

	assert.Len(t, report.AddedPackages, 3)
	assert.Len(t, report.RemovedPackages, 1)
	assert.Len(t, report.ChangedPackages, 1)
	assertCountsMatchIssues(t, report)
	assert.Equal(t, 5, report.AIAnalysis.TotalAnalyzed)

	joined := strings.Join(report.Recommendations, "\n")
	assert.Contains(t, joined, "more than three packages changed; consider a staged rollout")
	assert.Contains(t, joined, "critical dependencies affected (requests)")
}

func TestAnalyzeRequirementsUnknownBucketsAsHigh(t *testing.T) {
	report := analyzeManifests(t, "weird==oldest\n", "weird==newest\n")

	assert.Equal(t, 1, report.IssueCounts.Unknown)
	require.NotNil(t, report.AIAnalysis)
	assert.Len(t, report.AIAnalysis.HighRisk, 1)
	assertCountsMatchIssues(t, report)
}

func TestAnalyzeRequirementsNoChanges(t *testing.T) {
	report := analyzeManifests(t, "requests==2.26.0\n", "requests==2.26.0\n")

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Empty(t, report.PotentialIssues)
	assert.Contains(t, report.Recommendations, "no dependency changes detected")
	assert.Nil(t, report.AIAnalysis)
	assertCountsMatchIssues(t, report)
}

func TestAnalyzeRequirementsNoManifest(t *testing.T) {
	fixture := gittest.New(t,
		gittest.CommitSpec{Write: gittest.FileMap{"main.py": "print('hi')\n"}},
		gittest.CommitSpec{Write: gittest.FileMap{"main.py": "print('bye')\n"}},
	)
	ws := workspace.Attach(fixture.Repo, "")
	report, err := AnalyzeRequirements(context.Background(), ws, fixture.Rev(0), fixture.Rev(1))
	require.NoError(t, err)

	assert.Equal(t, StatusNoRequirements, report.Status)
	assert.Empty(t, report.AddedPackages)
}

func TestAnalyzeRequirementsNewManifest(t *testing.T) {
	fixture := gittest.New(t,
		gittest.CommitSpec{Write: gittest.FileMap{"main.py": "pass\n"}},
		gittest.CommitSpec{Write: gittest.FileMap{"requirements.txt": "requests==2.26.0\nflask>=2.0\n"}},
	)
	ws := workspace.Attach(fixture.Repo, "")
	report, err := AnalyzeRequirements(context.Background(), ws, fixture.Rev(0), fixture.Rev(1))
	require.NoError(t, err)

	assert.Equal(t, StatusNewFile, report.Status)
	assert.Equal(t, map[string]string{
		"requests": "==2.26.0",
		"flask":    ">=2.0",
	}, report.AddedPackages)
}

func TestAnalyzeRequirementsDeletedManifest(t *testing.T) {
	fixture := gittest.New(t,
		gittest.CommitSpec{Write: gittest.FileMap{
			"requirements.txt": "requests==2.26.0\n",
			"main.py":          "pass\n",
		}},
		gittest.CommitSpec{Delete: []string{"requirements.txt"}},
	)
	ws := workspace.Attach(fixture.Repo, "")
	report, err := AnalyzeRequirements(context.Background(), ws, fixture.Rev(0), fixture.Rev(1))
	require.NoError(t, err)

	assert.Equal(t, StatusDeletedFile, report.Status)
	assert.Equal(t, map[string]string{"requests": "==2.26.0"}, report.RemovedPackages)
}

func TestManifestProbeOrder(t *testing.T) {
	fixture := gittest.New(t,
		gittest.CommitSpec{Write: gittest.FileMap{"requirements/base.txt": "requests==2.26.0\n"}},
		gittest.CommitSpec{Write: gittest.FileMap{"requirements/base.txt": "requests==2.27.0\n"}},
	)
	ws := workspace.Attach(fixture.Repo, "")
	report, err := AnalyzeRequirements(context.Background(), ws, fixture.Rev(0), fixture.Rev(1))
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, "requirements/base.txt", report.ManifestPath)
	assert.Len(t, report.ChangedPackages, 1)
}
