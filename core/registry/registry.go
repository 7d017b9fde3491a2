// Package registry manages named schema registration and conflict
// detection. It holds a reference on every registered schema and provides
// lookup for runtimes that route messages by schema and message name.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/wireschema/core/schema"
)

// Registry manages registered schemas.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*schema.Schema
}

// New creates a new registry.
func New() *Registry {
	return &Registry{
		schemas: make(map[string]*schema.Schema),
	}
}

// Register registers a fixed schema under a name and takes a reference on
// it. Returns an error if the name is taken or the schema carries
// conflicting message ids.
func (r *Registry) Register(name string, s *schema.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[name]; exists {
		return fmt.Errorf("schema %q already registered", name)
	}

	if conflicts := detectIDConflicts(s); len(conflicts) > 0 {
		return &ConflictError{Schema: name, Conflicts: conflicts}
	}

	r.schemas[name] = s.Ref()
	return nil
}

// Unregister removes a schema and drops the registry's reference.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.schemas[name]
	if !exists {
		return fmt.Errorf("schema %q not registered", name)
	}
	delete(r.schemas, name)
	s.Unref()
	return nil
}

// Get returns a registered schema. The registry keeps its own reference;
// callers that retain the schema past the registry's lifetime must Ref it.
func (r *Registry) Get(name string) (*schema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	return s, ok
}

// List returns the registered schema names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupMessage finds a message by name inside a registered schema.
func (r *Registry) LookupMessage(schemaName, message string) (*schema.Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[schemaName]
	if !ok {
		return nil, false
	}
	m := s.LookupName(message)
	return m, m != nil
}

// LookupID finds a message by id inside a registered schema. Id zero is
// not addressable through the registry.
func (r *Registry) LookupID(schemaName string, id int32) (*schema.Message, bool) {
	if id == 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[schemaName]
	if !ok {
		return nil, false
	}
	m := s.LookupID(id)
	return m, m != nil
}

// Close unregisters every schema and drops the registry's references.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, s := range r.schemas {
		delete(r.schemas, name)
		s.Unref()
	}
}

// IDConflict records two messages claiming the same non-zero id.
type IDConflict struct {
	ID       int32
	Messages [2]string
}

// ConflictError reports message-id conflicts found during registration.
type ConflictError struct {
	Schema    string
	Conflicts []IDConflict
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 1 {
		c := e.Conflicts[0]
		return fmt.Sprintf("schema %q: messages %q and %q both claim id %d", e.Schema, c.Messages[0], c.Messages[1], c.ID)
	}
	return fmt.Sprintf("schema %q: %d message id conflicts", e.Schema, len(e.Conflicts))
}

// detectIDConflicts finds non-zero message ids claimed more than once.
// Id zero means "unassigned" and never conflicts.
func detectIDConflicts(s *schema.Schema) []IDConflict {
	var conflicts []IDConflict
	seen := make(map[int32]string, len(s.Messages))
	for _, m := range s.Messages {
		if m.ID == 0 {
			continue
		}
		if prev, ok := seen[m.ID]; ok {
			conflicts = append(conflicts, IDConflict{ID: m.ID, Messages: [2]string{prev, m.Name}})
			continue
		}
		seen[m.ID] = m.Name
	}
	return conflicts
}
