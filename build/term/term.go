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

// Package term implements the term algebra shared by all resolution tiers.
//
// A term is a node of a closed union (see the variants below). Terms are
// built and interned by a [Store]: two terms built from structurally
// identical parts are the same pointer, whatever the order in which
// they have been built. Comparing terms is therefore comparing
// identities with ==.
//
// Every term belongs to a tier:
//   - declarative terms are built from declarations, close to the syntax,
//   - ethereal terms are canonical and path-resolved; they are the keys
//     used across the whole program,
//   - fluffy terms exist only while one expression region is resolved.
//     They may contain holes and are interned in a region-local store.
package term

import "fmt"

// Tier of a term.
type Tier uint8

const (
	// Declarative terms are built once per declaration.
	Declarative Tier = iota
	// Ethereal terms are canonical and interned for the program lifetime.
	Ethereal
	// Fluffy terms contain holes and live for one region pass.
	Fluffy
)

func (t Tier) String() string {
	switch t {
	case Declarative:
		return "declarative"
	case Ethereal:
		return "ethereal"
	case Fluffy:
		return "fluffy"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

type (
	// Term is a node of the term union.
	Term interface {
		fmt.Stringer
		// Tier of the term.
		Tier() Tier
		base() *node
	}

	node struct {
		tier Tier
		id   uint64
	}
)

func (n *node) Tier() Tier {
	return n.tier
}

func (n *node) base() *node {
	return n
}

// ID returns the identifier assigned to a term when it was interned.
// The identifier is only stable within one store.
func ID(t Term) uint64 {
	return t.base().id
}

type (
	// LiteralKind is the kind of a literal value.
	LiteralKind uint8

	// Literal is a constant value used as a term, for example as a
	// constant template argument.
	Literal struct {
		node
		Kind LiteralKind
		Text string
	}
)

const (
	// IntLiteral is an integer literal.
	IntLiteral LiteralKind = iota
	// FloatLiteral is a floating point literal.
	FloatLiteral
	// BoolLiteral is true or false.
	BoolLiteral
	// StringLiteral is a string literal.
	StringLiteral
)

// TypeOntology is a type constructor, identified by its path, applied to
// a (possibly empty) list of arguments.
type TypeOntology struct {
	node
	Path Path
	Args []Term
}

// Application applies a term to an argument. It is the curried form of a
// generic application. When the function is a TypeOntology, the store
// normalises the application into the TypeOntology arguments.
type Application struct {
	node
	Function Term
	Argument Term
}

type (
	// CurryKind is the kind of a curry.
	CurryKind uint8

	// Variance of a curry parameter.
	Variance uint8

	// Curry is the arrow type X -> Y. A dependent curry binds a rune
	// in its return type: (a: X) -> Y(a).
	Curry struct {
		node
		Kind     CurryKind
		Variance Variance
		// Rune is the bound variable of a dependent curry, nil otherwise.
		Rune     *Rune
		ParamTy  Term
		ReturnTy Term
	}
)

const (
	// Explicit curries take an argument given by the user.
	Explicit CurryKind = iota
	// Implicit curries take an argument inferred by the engine.
	Implicit
)

const (
	// Covariant parameter.
	Covariant Variance = iota
	// Contravariant parameter.
	Contravariant
	// Invariant parameter.
	Invariant
	// Independent parameter.
	Independent
)

type (
	// RitchieKind is the kind of a callable.
	RitchieKind uint8

	// Contract is the ownership contract of a parameter.
	Contract uint8

	// Param of a callable.
	Param struct {
		Contract Contract
		Ty       Term
	}

	// Ritchie is a concrete flattened callable signature.
	Ritchie struct {
		node
		Kind   RitchieKind
		Params []Param
		Return Term
	}
)

const (
	// FnRitchie is a function.
	FnRitchie RitchieKind = iota
	// GnRitchie is a generator.
	GnRitchie
	// ClosureRitchie is a closure.
	ClosureRitchie
)

const (
	// Pure parameters are read only.
	Pure Contract = iota
	// Move parameters take ownership.
	Move
	// Borrow parameters are referenced.
	Borrow
	// BorrowMut parameters are mutably referenced.
	BorrowMut
	// Leash parameters are boxed.
	Leash
)

// Category is the type of types, indexed by a universe.
type Category struct {
	node
	Universe int
}

type (
	// SymbolKind is the kind of a template parameter.
	SymbolKind uint8

	// Symbol is an unbound template parameter of a declaration.
	Symbol struct {
		node
		Kind  SymbolKind
		Owner Path
		Index int
		Name  string
		Ty    Term
	}
)

const (
	// TypeSymbol stands for a type.
	TypeSymbol SymbolKind = iota
	// LifetimeSymbol stands for a lifetime.
	LifetimeSymbol
	// PlaceSymbol stands for the place of a value.
	PlaceSymbol
)

// Rune is a bound variable. Its index is the number of dependent
// curries between the occurrence and the curry binding it.
type Rune struct {
	node
	Index int
}

type (
	// HoleKind is the kind of a hole.
	HoleKind uint8

	// Provenance records where a hole was created.
	Provenance struct {
		// Expr is the index of the expression creating the hole.
		Expr int
		// Symbol is the template parameter the hole stands for, if any.
		Symbol *Symbol
	}

	// Hole is an unresolved placeholder. Holes only exist in the fluffy tier.
	Hole struct {
		node
		Kind   HoleKind
		Index  int
		Source Provenance
	}
)

const (
	// UnspecifiedIntegerType is the type of an integer literal not yet constrained.
	UnspecifiedIntegerType HoleKind = iota
	// UnspecifiedFloatType is the type of a float literal not yet constrained.
	UnspecifiedFloatType
	// ImplicitType is an inferred template argument.
	ImplicitType
	// AnyType is any other unknown.
	AnyType
)

// TraitConstraint constrains a type to implement a trait.
type TraitConstraint struct {
	node
	Ty    Term
	Trait Term
}

var (
	_ Term = (*Literal)(nil)
	_ Term = (*TypeOntology)(nil)
	_ Term = (*Application)(nil)
	_ Term = (*Curry)(nil)
	_ Term = (*Ritchie)(nil)
	_ Term = (*Category)(nil)
	_ Term = (*Symbol)(nil)
	_ Term = (*Rune)(nil)
	_ Term = (*Hole)(nil)
	_ Term = (*TraitConstraint)(nil)
)
