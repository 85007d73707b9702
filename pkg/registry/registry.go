package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Handler is the function signature every tool normalizes to at
// registration, whether the underlying capability is synchronous or not.
type Handler func(ctx context.Context, query string, params map[string]interface{}) (interface{}, error)

// Tool describes a registered capability: its handler plus the static
// metadata the scorer and planner consume.
type Tool struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	Keywords     []string      `json:"keywords"`
	Dependencies []string      `json:"dependencies"`
	Fallbacks    []string      `json:"fallbacks"`
	BaseScore    float64       `json:"base_score"`
	Timeout      time.Duration `json:"timeout"`
	Handler      Handler       `json:"-"`
}

// Metadata is the reloadable, data-only part of a tool definition. It is
// what the config file carries; handlers are code and never reload.
type Metadata struct {
	Category       string   `json:"category" mapstructure:"category"`
	Keywords       []string `json:"keywords" mapstructure:"keywords"`
	Dependencies   []string `json:"dependencies" mapstructure:"dependencies"`
	Fallbacks      []string `json:"fallbacks" mapstructure:"fallbacks"`
	BaseScore      float64  `json:"base_score" mapstructure:"base_score"`
	TimeoutSeconds int      `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	Description    string   `json:"description" mapstructure:"description"`
}

// Registry holds the static tool set. It is mutated only at registration
// time and by metadata reloads; execution never modifies it.
type Registry struct {
	tools map[string]*Tool
	mu    sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool. The handler may be nil for metadata-only entries
// (selection and planning work without one; execution will fail the tool).
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.BaseScore < 0 || tool.BaseScore > 1 {
		return fmt.Errorf("tool %s: base_score must be in [0,1], got %v", tool.Name, tool.BaseScore)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool already registered: %s", tool.Name)
	}
	t := tool
	r.tools[tool.Name] = &t

	log.Info().Str("tool", tool.Name).Str("category", tool.Category).Msg("Tool registered")

	return nil
}

// Unregister removes a tool.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tools, name)

	log.Info().Str("tool", name).Msg("Tool unregistered")
}

// Get returns a copy of the tool definition, or false if unknown.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return Tool{}, false
	}
	return *t, true
}

// List returns all registered tool names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

// Dependencies returns the declared prerequisite tools for name. Unknown
// tools have no dependencies.
func (r *Registry) Dependencies(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil
	}
	deps := make([]string, len(t.Dependencies))
	copy(deps, t.Dependencies)
	return deps
}

// Fallbacks returns the static substitute chain for name, in order.
func (r *Registry) Fallbacks(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil
	}
	fb := make([]string, len(t.Fallbacks))
	copy(fb, t.Fallbacks)
	return fb
}

// ApplyMetadata replaces the data-only fields of already-registered tools
// and registers metadata-only entries for names without a handler. Used at
// load time and by the config watcher on reload.
func (r *Registry) ApplyMetadata(meta map[string]Metadata) error {
	if err := ValidateMetadata(meta); err != nil {
		return fmt.Errorf("invalid tool metadata: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, m := range meta {
		timeout := time.Duration(m.TimeoutSeconds) * time.Second

		if t, exists := r.tools[name]; exists {
			t.Category = m.Category
			t.Keywords = m.Keywords
			t.Dependencies = m.Dependencies
			t.Fallbacks = m.Fallbacks
			t.BaseScore = m.BaseScore
			t.Timeout = timeout
			t.Description = m.Description
			continue
		}

		r.tools[name] = &Tool{
			Name:         name,
			Description:  m.Description,
			Category:     m.Category,
			Keywords:     m.Keywords,
			Dependencies: m.Dependencies,
			Fallbacks:    m.Fallbacks,
			BaseScore:    m.BaseScore,
			Timeout:      timeout,
		}
	}

	log.Info().Int("tools", len(meta)).Msg("Tool metadata applied")

	return nil
}

// Bind attaches a handler to an existing metadata-only entry.
func (r *Registry) Bind(name string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tools[name]
	if !ok {
		return fmt.Errorf("tool not found: %s", name)
	}
	t.Handler = handler
	return nil
}
