// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fluffy manages the holes of a region.
//
// A region creates its holes in a [Table]. Each hole is bound at most
// once. When the region pass ends, its terms are finalised: holes are
// replaced by their bindings and the result is an ethereal term, or
// an error if a hole has been left unresolved.
package fluffy

import (
	"fmt"

	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/term"
	"github.com/pkg/errors"
)

type (
	// AnnotationNeededError is returned when a hole cannot be resolved.
	AnnotationNeededError struct {
		Hole *term.Hole
	}

	// OccursError is returned when a hole would be bound to a term containing it.
	OccursError struct {
		Hole *term.Hole
		Term term.Term
	}
)

func (err *AnnotationNeededError) Error() string {
	return fmt.Sprintf("type annotation needed: cannot infer %s", holeDescription(err.Hole))
}

func (err *OccursError) Error() string {
	return fmt.Sprintf("cannot bind %s to %s: infinite type", holeDescription(err.Hole), err.Term)
}

func holeDescription(h *term.Hole) string {
	switch h.Kind {
	case term.UnspecifiedIntegerType:
		return "the type of an integer literal"
	case term.UnspecifiedFloatType:
		return "the type of a float literal"
	case term.ImplicitType:
		if h.Source.Symbol != nil {
			return fmt.Sprintf("template argument %s", h.Source.Symbol.Name)
		}
		return "a template argument"
	}
	return "a type"
}

// Describe returns a description of a term for diagnostics.
// An unbound hole is described by the kind of type it stands for.
func Describe(t term.Term) string {
	h, ok := term.HoleOf(t)
	if !ok {
		return fmt.Sprint(t)
	}
	switch h.Kind {
	case term.UnspecifiedIntegerType:
		return "an integer type"
	case term.UnspecifiedFloatType:
		return "a float type"
	case term.ImplicitType:
		if h.Source.Symbol != nil {
			return fmt.Sprintf("the type of template argument %s", h.Source.Symbol.Name)
		}
	}
	return "an inferred type"
}

// Defaults are the types given to numeric literals left unconstrained.
type Defaults struct {
	Int   term.Path
	Float term.Path
}

// DefaultDefaults returns i32 for integers and f64 for floats.
func DefaultDefaults() Defaults {
	return Defaults{Int: term.I32Path, Float: term.F64Path}
}

// Table is the unresolved-term table of one region.
// It is owned by a single goroutine.
type Table struct {
	store    *term.Store
	holes    []*term.Hole
	bindings map[*term.Hole]term.Term
	// implicit records the holes standing for implicit template arguments.
	implicit map[*term.Hole]*term.Curry
}

// NewTable returns a table creating its terms in a new local store.
func NewTable(program *term.Store) *Table {
	return &Table{
		store:    program.Local(),
		bindings: make(map[*term.Hole]term.Term),
		implicit: make(map[*term.Hole]*term.Curry),
	}
}

// Store returns the local store of the region.
func (t *Table) Store() *term.Store {
	return t.store
}

// NewHole creates a new unbound hole.
func (t *Table) NewHole(kind term.HoleKind, src term.Provenance) *term.Hole {
	h := t.store.NewHole(kind, src)
	t.holes = append(t.holes, h)
	return h
}

// Holes returns all the holes created by the table.
func (t *Table) Holes() []*term.Hole {
	return t.holes
}

// Lookup returns the term bound to a hole.
func (t *Table) Lookup(h *term.Hole) (term.Term, bool) {
	b, ok := t.bindings[h]
	return b, ok
}

// Resolve replaces the bound holes of a term by their bindings, recursively.
func (t *Table) Resolve(x term.Term) term.Term {
	if x == nil || term.IsResolved(x) {
		return x
	}
	return t.store.Rewrite(x, func(sub term.Term, _ int) term.Term {
		h, ok := sub.(*term.Hole)
		if !ok {
			return nil
		}
		b, ok := t.bindings[h]
		if !ok {
			return sub
		}
		return t.Resolve(b)
	})
}

// Compatible returns true if a hole can stand for a term.
// Literal holes only stand for types of their numeric class.
func Compatible(h *term.Hole, x term.Term) bool {
	if other, ok := x.(*term.Hole); ok {
		return h.Kind != term.UnspecifiedIntegerType && h.Kind != term.UnspecifiedFloatType ||
			other.Kind == h.Kind
	}
	switch h.Kind {
	case term.UnspecifiedIntegerType:
		return term.PathOf(x).IsInteger()
	case term.UnspecifiedFloatType:
		return term.PathOf(x).IsFloat()
	}
	return true
}

// Bind a hole to a term.
//
// Binding a hole again to the same term is a no-op. Binding it to a
// different term is a violation of the engine invariants and returns an
// internal error. Binding a hole to a term containing it returns an
// OccursError.
func (t *Table) Bind(h *term.Hole, x term.Term) error {
	x = t.Resolve(x)
	if prev, ok := t.bindings[h]; ok {
		if t.Resolve(prev) == x {
			return nil
		}
		return fmterr.Internal(errors.Errorf("hole %s already bound to %s: cannot rebind it to %s", h, t.Resolve(prev), x))
	}
	if x == term.Term(h) {
		return nil
	}
	if term.Contains(x, h) {
		return &OccursError{Hole: h, Term: x}
	}
	t.bindings[h] = x
	return nil
}

// RecordImplicit records that a hole stands for the bound variable of an implicit curry.
func (t *Table) RecordImplicit(h *term.Hole, c *term.Curry) {
	t.implicit[h] = c
}

// Implicit returns the implicit curry a hole has been created for.
func (t *Table) Implicit(h *term.Hole) (*term.Curry, bool) {
	c, ok := t.implicit[h]
	return c, ok
}

// ApplyDefaults binds the unbound numeric literal holes to their default type.
// A default of the wrong numeric class is an internal error.
func (t *Table) ApplyDefaults(defaults Defaults) error {
	for _, h := range t.holes {
		if _, bound := t.bindings[h]; bound {
			continue
		}
		var path term.Path
		switch h.Kind {
		case term.UnspecifiedIntegerType:
			path = defaults.Int
		case term.UnspecifiedFloatType:
			path = defaults.Float
		default:
			continue
		}
		def := t.store.NewTypeOntology(term.Ethereal, path)
		if !Compatible(h, def) {
			return fmterr.Internal(errors.Errorf("default type %s cannot stand for %s", path, holeDescription(h)))
		}
		if err := t.Bind(h, def); err != nil {
			return err
		}
	}
	return nil
}

// Finalise returns the ethereal form of a term. The first hole left
// unresolved is reported with an AnnotationNeededError.
func (t *Table) Finalise(x term.Term) (term.Term, error) {
	x = t.Resolve(x)
	if x == nil || term.IsResolved(x) {
		return x, nil
	}
	return nil, &AnnotationNeededError{Hole: term.Holes(x)[0]}
}
