package registry

import "strings"

// defaultContextLength is assumed for provider models we have no better
// figure for.
const defaultContextLength = 4096

// knownContextLengths covers the common OpenAI-compatible model names.
var knownContextLengths = map[string]int{
	"gpt-3.5-turbo": 16385,
	"gpt-4":         8192,
	"gpt-4-turbo":   128000,
	"gpt-4o":        128000,
	"gpt-4o-mini":   128000,
}

// Seed builds the startup catalog: one chat+completion descriptor per
// provider model name plus the four built-in tool models. Empty names in
// the provider list are skipped.
func Seed(providerModels []string) (*Registry, error) {
	registry := New()
	for _, name := range providerModels {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		contextLength := knownContextLengths[name]
		if contextLength == 0 {
			contextLength = defaultContextLength
		}
		err := registry.Register(Model{
			ID:            name,
			Name:          name,
			Description:   "chat and completion model served by the configured provider",
			Capabilities:  []Capability{CapChat, CapCompletion},
			ContextLength: contextLength,
			Metadata:      map[string]string{"backend": "llm-provider"},
		})
		if err != nil {
			return nil, err
		}
	}
	tools := []Model{
		{
			ID:           "git-analyzer",
			Name:         "Git Analyzer",
			Description:  "reports the diff of a repository's last commit against its parent",
			Capabilities: []Capability{CapGit},
		},
		{
			ID:           "git-diff-analyzer",
			Name:         "Git Diff Analyzer",
			Description:  "analyzes diffs and dependency manifest changes between two revisions",
			Capabilities: []Capability{CapGit},
		},
		{
			ID:           "filesystem",
			Name:         "Filesystem Gateway",
			Description:  "sandboxed file and directory operations within the allowed roots",
			Capabilities: []Capability{CapFilesystem},
		},
		{
			ID:           "prometheus",
			Name:         "Prometheus Proxy",
			Description:  "forwards query operations to the configured Prometheus server",
			Capabilities: []Capability{CapPrometheus},
		},
	}
	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
