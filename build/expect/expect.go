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

// Package expect resolves the expectations attached to expressions.
//
// An expectation states what the parent of an expression expects from
// its type. Resolving an expectation against the type inferred for the
// expression (the candidate) yields an implicit conversion and a list of
// actions binding holes of the region. Expectations involving unresolved
// holes are resolved in two sweeps: a weak sweep which only defers, and
// a strong sweep which commits bindings.
package expect

import (
	"fmt"
	"strings"

	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/term"
)

type (
	// Expectation of the parent of an expression.
	Expectation interface {
		fmt.Stringer
		expectation()
	}

	// AnyOriginal accepts any type. The expression is not the
	// operand of another one.
	AnyOriginal struct{}

	// AnyDerived accepts any type. The expression is an operand whose
	// type the parent derives its own type from.
	AnyDerived struct{}

	// ImplicitlyConvertible expects a type implicitly convertible to Dst.
	ImplicitlyConvertible struct {
		Dst      term.Term
		Contract term.Contract
	}

	// EqsCategory expects a type of types.
	EqsCategory struct {
		Universe int
	}

	// EqsRitchie expects a callable of one of the given kinds.
	EqsRitchie struct {
		Kinds []term.RitchieKind
	}
)

func (AnyOriginal) expectation()           {}
func (AnyDerived) expectation()            {}
func (ImplicitlyConvertible) expectation() {}
func (EqsCategory) expectation()           {}
func (EqsRitchie) expectation()            {}

func (AnyOriginal) String() string { return "any" }
func (AnyDerived) String() string  { return "any derived" }

func (e ImplicitlyConvertible) String() string {
	return fmt.Sprintf("convertible to %s", e.Dst)
}

func (e EqsCategory) String() string {
	return fmt.Sprintf("category of universe %d", e.Universe)
}

func (e EqsRitchie) String() string {
	kinds := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		kinds[i] = k.String()
	}
	return "callable (" + strings.Join(kinds, "|") + ")"
}

// Callable expects any kind of callable.
func Callable() EqsRitchie {
	return EqsRitchie{Kinds: []term.RitchieKind{term.FnRitchie, term.GnRitchie, term.ClosureRitchie}}
}

// Level of a resolution sweep.
type Level uint8

const (
	// Weak resolutions defer whenever a hole needs to be bound.
	Weak Level = iota
	// Strong resolutions bind holes.
	Strong
)

func (l Level) String() string {
	if l == Weak {
		return "weak"
	}
	return "strong"
}

// ImplicitConversion applied to an expression to meet its expectation.
type ImplicitConversion uint8

const (
	// None is the identity.
	None ImplicitConversion = iota
	// Never converts the bottom type to any type.
	Never
)

func (c ImplicitConversion) String() string {
	switch c {
	case None:
		return "none"
	case Never:
		return "never"
	}
	return fmt.Sprintf("ImplicitConversion(%d)", int(c))
}

type (
	// Action is a side effect of a resolution on the region table.
	Action interface {
		fmt.Stringer
		Apply(*fluffy.Table) error
	}

	// BindHole binds a hole to a term.
	BindHole struct {
		Hole *term.Hole
		Term term.Term
	}

	// BindImplicitSymbol records that a hole stands for the bound
	// variable of an implicit curry.
	BindImplicitSymbol struct {
		Hole  *term.Hole
		Curry *term.Curry
	}

	// Substitution of the bound variable of an implicit curry by a hole.
	Substitution struct {
		Curry *term.Curry
		Hole  *term.Hole
	}
)

// Apply the action.
func (a BindHole) Apply(t *fluffy.Table) error {
	return t.Bind(a.Hole, a.Term)
}

func (a BindHole) String() string {
	return fmt.Sprintf("bind %s := %s", a.Hole, a.Term)
}

// Apply the action.
func (a BindImplicitSymbol) Apply(t *fluffy.Table) error {
	t.RecordImplicit(a.Hole, a.Curry)
	return nil
}

func (a BindImplicitSymbol) String() string {
	return fmt.Sprintf("implicit %s for %s", a.Hole, a.Curry)
}

// Apply a list of actions in order.
func Apply(t *fluffy.Table, actions []Action) error {
	for _, action := range actions {
		if err := action.Apply(t); err != nil {
			return err
		}
	}
	return nil
}
