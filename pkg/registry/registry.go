package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

type key struct {
	kind Kind
	name string
}

type entry struct {
	descriptor Descriptor
	validator  *validator
}

// Registry maps (kind, name) to operations.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]*entry
	sealed  bool
}

// New creates an empty, unsealed registry.
func New() *Registry {
	return &Registry{
		entries: make(map[key]*entry),
	}
}

// Register adds a descriptor. It fails with *DuplicateNameError if (kind, name) is
// already taken and with ErrSealed once Seal has been called.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%s name cannot be empty", d.Kind)
	}
	if d.Handler == nil {
		return fmt.Errorf("%s %q has no handler", d.Kind, d.Name)
	}
	if d.schemaErr != nil {
		return fmt.Errorf("%s %q: failed to derive input schema: %w", d.Kind, d.Name, d.schemaErr)
	}

	v, err := newValidator(d.InputSchema)
	if err != nil {
		return fmt.Errorf("%s %q: %w", d.Kind, d.Name, err)
	}
	d.InputSchema = v.schema

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}

	k := key{kind: d.Kind, name: d.Name}
	if _, exists := r.entries[k]; exists {
		return &DuplicateNameError{Kind: d.Kind, Name: d.Name}
	}

	r.entries[k] = &entry{descriptor: d, validator: v}
	return nil
}

// Seal makes the registry read-only. Further Register calls fail with ErrSealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

func (r *Registry) lookup(kind Kind, name string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key{kind: kind, name: name}]
	return e, ok
}

// Lookup returns the descriptor registered under (kind, name).
func (r *Registry) Lookup(kind Kind, name string) (Descriptor, bool) {
	e, ok := r.lookup(kind, name)
	if !ok {
		return Descriptor{}, false
	}
	return e.descriptor, true
}

// List returns the descriptors of one kind sorted by name.
func (r *Registry) List(kind Kind) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Descriptor, 0, len(r.entries))
	for k, e := range r.entries {
		if k.kind == kind {
			result = append(result, e.descriptor)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Dispatch validates args against the operation's schema and runs its handler.
func (r *Registry) Dispatch(ctx context.Context, kind Kind, name string, args json.RawMessage) (*Result, error) {
	e, ok := r.lookup(kind, name)
	if !ok {
		return nil, &UnknownOperationError{Kind: kind, Name: name}
	}

	args = normalize(args)
	if err := e.validator.validate(args); err != nil {
		return nil, err
	}

	result, err := e.descriptor.Handler(ctx, args)
	if err != nil {
		return nil, newHandlerError(kind, name, err)
	}
	if result == nil {
		result = &Result{}
	}
	if result.MIMEType == "" {
		result.MIMEType = e.descriptor.MIMEType
	}
	return result, nil
}
