package registry

import (
	"sync"

	"github.com/pkg/errors"
)

// Capability names one of the closed set of things a model can do.
// Dispatch refuses operations a model is not tagged with.
type Capability string

// The full capability set. Provider models carry CapChat and CapCompletion;
// the built-in tool models carry exactly one of the remaining tags.
const (
	CapChat            Capability = "chat"
	CapCompletion      Capability = "completion"
	CapEmbeddings      Capability = "embeddings"
	CapImageGeneration Capability = "image_generation"
	CapGit             Capability = "git"
	CapFilesystem      Capability = "filesystem"
	CapPrometheus      Capability = "prometheus"
)

var knownCapabilities = map[Capability]bool{
	CapChat:            true,
	CapCompletion:      true,
	CapEmbeddings:      true,
	CapImageGeneration: true,
	CapGit:             true,
	CapFilesystem:      true,
	CapPrometheus:      true,
}

// Valid reports whether the capability belongs to the closed set.
func (c Capability) Valid() bool {
	return knownCapabilities[c]
}

// Model describes a single dispatchable model in the catalog.
type Model struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Capabilities  []Capability       `json:"capabilities"`
	ContextLength int                `json:"context_length"`
	Pricing       map[string]float64 `json:"pricing,omitempty"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
}

// Has reports whether the model is tagged with the capability.
func (m Model) Has(c Capability) bool {
	for _, mc := range m.Capabilities {
		if mc == c {
			return true
		}
	}
	return false
}

// ErrDuplicateID is returned by Register when the id is already taken.
var ErrDuplicateID = errors.New("model id already registered")

// Registry contains all the known Model-s. It is seeded once at startup
// and read-only afterwards; List preserves registration order.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
	order  []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{models: map[string]Model{}}
}

// Register adds another Model to the registry. The id must be unused,
// and the descriptor must carry at least one known capability.
func (registry *Registry) Register(model Model) error {
	if model.ID == "" {
		return errors.New("model id must not be empty")
	}
	if model.Name == "" {
		return errors.Errorf("model %s: name must not be empty", model.ID)
	}
	if len(model.Capabilities) == 0 {
		return errors.Errorf("model %s: at least one capability required", model.ID)
	}
	for _, c := range model.Capabilities {
		if !c.Valid() {
			return errors.Errorf("model %s: unknown capability %q", model.ID, c)
		}
	}
	if model.ContextLength < 0 {
		return errors.Errorf("model %s: negative context length", model.ID)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.models[model.ID]; exists {
		return errors.Wrap(ErrDuplicateID, model.ID)
	}
	registry.models[model.ID] = model
	registry.order = append(registry.order, model.ID)
	return nil
}

// Get looks up a model by exact id.
func (registry *Registry) Get(id string) (Model, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	model, exists := registry.models[id]
	return model, exists
}

// List returns every registered model in registration order.
func (registry *Registry) List() []Model {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	models := make([]Model, 0, len(registry.order))
	for _, id := range registry.order {
		models = append(models, registry.models[id])
	}
	return models
}

// Unregister removes a model and reports whether it was present.
func (registry *Registry) Unregister(id string) bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.models[id]; !exists {
		return false
	}
	delete(registry.models, id)
	for i, known := range registry.order {
		if known == id {
			registry.order = append(registry.order[:i], registry.order[i+1:]...)
			break
		}
	}
	return true
}
