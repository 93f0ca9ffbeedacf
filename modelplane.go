package modelplane

import (
	"github.com/modelplane/modelplane/internal/analysis"
	"github.com/modelplane/modelplane/internal/llm"
	"github.com/modelplane/modelplane/internal/promproxy"
	"github.com/modelplane/modelplane/internal/registry"
	"github.com/modelplane/modelplane/internal/requirements"
	"github.com/modelplane/modelplane/internal/sandbox"
	"github.com/modelplane/modelplane/internal/server"
	"github.com/modelplane/modelplane/internal/workspace"
)

// Model catalog.
type (
	// Registry is the startup-seeded model catalog.
	Registry = registry.Registry
	// Model is one dispatchable catalog entry.
	Model = registry.Model
	// Capability tags a class of operation a model supports.
	Capability = registry.Capability
)

// The closed capability set.
const (
	CapChat            = registry.CapChat
	CapCompletion      = registry.CapCompletion
	CapEmbeddings      = registry.CapEmbeddings
	CapImageGeneration = registry.CapImageGeneration
	CapGit             = registry.CapGit
	CapFilesystem      = registry.CapFilesystem
	CapPrometheus      = registry.CapPrometheus
)

// NewRegistry returns an empty catalog; SeedRegistry builds the standard
// startup catalog from a provider model list.
var (
	NewRegistry  = registry.New
	SeedRegistry = registry.Seed
)

// Repository analysis.
type (
	// Workspace is a scoped clone of a remote repository.
	Workspace = workspace.Workspace
	// Commit is the resolved identity of one revision.
	Commit = workspace.Commit
	// DiffReport lists every file change between two commits.
	DiffReport = analysis.DiffReport
	// FileChange is one file's entry in a DiffReport.
	FileChange = analysis.FileChange
	// RequirementsReport is the dependency-manifest change analysis.
	RequirementsReport = analysis.RequirementsReport
	// ComprehensiveReport combines the diff and requirements analyses.
	ComprehensiveReport = analysis.ComprehensiveReport
	// Manifest maps package names to version constraints.
	Manifest = requirements.Manifest
	// PackageAnalysis is the per-package risk verdict.
	PackageAnalysis = requirements.PackageAnalysis
)

// OpenWorkspace clones a repository into a fresh temporary directory.
var OpenWorkspace = workspace.Open

// ParseRequirements parses dependency manifest text; it never fails.
var ParseRequirements = requirements.Parse

// Filesystem gateway.
type (
	// Sandbox confines filesystem operations to its allowed roots.
	Sandbox = sandbox.Sandbox
	// EditOperation is one substring replacement in a file edit.
	EditOperation = sandbox.EditOperation
	// EditResult reports which edit operations applied and the diff.
	EditResult = sandbox.EditResult
)

// NewSandbox canonicalizes the allowed roots and builds the gateway.
var NewSandbox = sandbox.New

// HTTP surface and upstream clients.
type (
	// Server is the dispatch surface.
	Server = server.Server
	// ServerConfig carries everything the server needs at startup.
	ServerConfig = server.Config
	// LLMClient forwards chat and completion requests to a provider.
	LLMClient = llm.Client
	// PrometheusClient proxies the Prometheus query family.
	PrometheusClient = promproxy.Client
)

// NewServer builds the dispatch surface from its config.
var NewServer = server.New
