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

package term

// Expansion is a term reduced to a base applied to a flat list of arguments.
type Expansion struct {
	// Function is the base of the application: a TypeOntology without
	// arguments or any other term that is not an application.
	Function Term
	// Path of the base if the base is a TypeOntology, empty otherwise.
	Path Path
	// Args are the arguments, outermost application last.
	Args []Term
}

// ApplicationExpansion peels the application layers of a term while
// accumulating the arguments.
func ApplicationExpansion(t Term) Expansion {
	var rev []Term
	for {
		app, ok := t.(*Application)
		if !ok {
			break
		}
		rev = append(rev, app.Argument)
		t = app.Function
	}
	exp := Expansion{Function: t}
	if to, ok := t.(*TypeOntology); ok {
		exp.Path = to.Path
		exp.Args = append(exp.Args, to.Args...)
	}
	for i := len(rev) - 1; i >= 0; i-- {
		exp.Args = append(exp.Args, rev[i])
	}
	return exp
}

// IsType returns true if the expansion has a type constructor as its base.
func (exp Expansion) IsType() bool {
	return exp.Path != ""
}

type (
	// PatternKind is the shape of a term.
	PatternKind uint8

	// Pattern is a term reduced to a shape on which the engine can match.
	Pattern struct {
		Kind PatternKind
		Term Term
		// Path and Args are set for TypeOntologyPattern.
		Path Path
		Args []Term
		// Expansion of the term.
		Expansion Expansion
	}
)

const (
	// LiteralPattern is a literal.
	LiteralPattern PatternKind = iota
	// TypeOntologyPattern is a type constructor applied to arguments.
	TypeOntologyPattern
	// CurryPattern is a curry.
	CurryPattern
	// SymbolPattern is a symbol, possibly applied to arguments.
	SymbolPattern
	// RunePattern is a rune, possibly applied to arguments.
	RunePattern
	// CategoryPattern is a category.
	CategoryPattern
	// RitchiePattern is a callable.
	RitchiePattern
	// HolePattern is a hole, possibly applied to arguments.
	HolePattern
	// TraitConstraintPattern is a trait constraint.
	TraitConstraintPattern
)

// PatternOf returns the shape of a term after application expansion.
func PatternOf(t Term) Pattern {
	exp := ApplicationExpansion(t)
	p := Pattern{Term: t, Expansion: exp}
	switch base := exp.Function.(type) {
	case *Literal:
		p.Kind = LiteralPattern
	case *TypeOntology:
		p.Kind = TypeOntologyPattern
		p.Path = base.Path
		p.Args = exp.Args
	case *Curry:
		p.Kind = CurryPattern
	case *Symbol:
		p.Kind = SymbolPattern
	case *Rune:
		p.Kind = RunePattern
	case *Category:
		p.Kind = CategoryPattern
	case *Ritchie:
		p.Kind = RitchiePattern
	case *Hole:
		p.Kind = HolePattern
	case *TraitConstraint:
		p.Kind = TraitConstraintPattern
	}
	return p
}

// HoleOf returns the hole of a term whose pattern is a bare hole.
func HoleOf(t Term) (*Hole, bool) {
	h, ok := t.(*Hole)
	return h, ok
}

// IsResolved returns true if the term contains no hole.
func IsResolved(t Term) bool {
	return t.Tier() != Fluffy
}
