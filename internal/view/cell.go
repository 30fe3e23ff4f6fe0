// Package view keeps filtered collections and chart series consistent with the
// raw data and the current filter selection.
//
// Values form a small acyclic graph. Setting a Source marks every downstream
// Computed dirty right away; a dirty Computed recomputes on its next Get and
// never before. Several filter changes in a row therefore cost one
// recomputation per value actually read.
//
// A Store is not safe for concurrent use. Reads mutate memoized state.
package view

type invalidator interface {
	invalidate()
}

type dependency interface {
	subscribe(invalidator)
}

// Source is an upstream value set by explicit actions.
type Source[T any] struct {
	value      T
	equal      func(a, b T) bool
	dependents []invalidator
}

// NewSource creates a source. When equal is nil every Set counts as a change.
func NewSource[T any](v T, equal func(a, b T) bool) *Source[T] {
	return &Source[T]{value: v, equal: equal}
}

// Get returns the current value.
func (s *Source[T]) Get() T {
	return s.value
}

// Set stores v and invalidates dependents. Setting an equal value is a no-op.
func (s *Source[T]) Set(v T) bool {
	if s.equal != nil && s.equal(s.value, v) {
		return false
	}
	s.value = v
	for _, d := range s.dependents {
		d.invalidate()
	}
	return true
}

func (s *Source[T]) subscribe(d invalidator) {
	s.dependents = append(s.dependents, d)
}

// Computed is a memoized derivation over sources and other computed values.
type Computed[T any] struct {
	name        string
	compute     func() T
	value       T
	dirty       bool
	dependents  []invalidator
	onRecompute func(name string)
}

func newComputed[T any](name string, hook func(string), compute func() T, deps ...dependency) *Computed[T] {
	c := &Computed[T]{
		name:        name,
		compute:     compute,
		dirty:       true,
		onRecompute: hook,
	}
	for _, d := range deps {
		d.subscribe(c)
	}
	return c
}

// Get returns the memoized value, recomputing it first if it is dirty.
func (c *Computed[T]) Get() T {
	if c.dirty {
		c.value = c.compute()
		c.dirty = false
		if c.onRecompute != nil {
			c.onRecompute(c.name)
		}
	}
	return c.value
}

// Dirty reports whether the next Get will recompute.
func (c *Computed[T]) Dirty() bool {
	return c.dirty
}

// Name identifies the value in metrics and logs.
func (c *Computed[T]) Name() string {
	return c.name
}

// Dependents of a dirty cell are already dirty: none of them can become
// clean without reading this cell first.
func (c *Computed[T]) invalidate() {
	if c.dirty {
		return
	}
	c.dirty = true
	for _, d := range c.dependents {
		d.invalidate()
	}
}

func (c *Computed[T]) subscribe(d invalidator) {
	c.dependents = append(c.dependents, d)
}
