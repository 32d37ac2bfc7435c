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

// Package decl models the declarations the resolution engine queries:
// types with their fields, functions, traits and impl blocks.
//
// Declarations hold terms of any tier. A [Registry] stores them as they
// are declared and returns their ethereal form, computed once when the
// declaration is first queried.
package decl

import (
	"fmt"
	"strings"

	"github.com/husky-lang/termres/build/term"
)

type (
	// Field of a type.
	Field struct {
		Name string
		Ty   term.Term
	}

	// TypeDecl declares a type constructor.
	TypeDecl struct {
		Path   term.Path
		Params []*term.Symbol
		Fields []Field
	}

	// FnDecl declares a function.
	FnDecl struct {
		Path   term.Path
		Params []*term.Symbol
		Sig    *term.Ritchie
	}

	// MethodDecl declares a method of an impl block or of a trait.
	MethodDecl struct {
		Ident string
		// SelfContract is the contract of the receiver.
		SelfContract term.Contract
		// TemplateParams are the template parameters of the method itself.
		TemplateParams []*term.Symbol
		Params         []term.Param
		Return         term.Term
	}

	// TraitDecl declares a trait.
	TraitDecl struct {
		Path    term.Path
		Methods []*MethodDecl
	}

	// ImplBlock is a set of methods implemented for the types matching SelfTy.
	// An impl block without a trait declares intrinsic methods.
	ImplBlock struct {
		// Path of the block, owner of its template parameters.
		Path   term.Path
		Params []*term.Symbol
		Trait  term.Path
		SelfTy term.Term
		// Methods defined by the block.
		Methods []*MethodDecl
	}
)

// Resolver provides the declarations of a program.
// Queried paths are canonical paths, as returned by ResolvePath.
// A missing declaration is reported with a *term.UnresolvedPathError.
type Resolver interface {
	term.PathResolver

	// Type returns the declaration of a type.
	Type(term.Path) (*TypeDecl, error)
	// Fn returns the declaration of a function.
	Fn(term.Path) (*FnDecl, error)
	// Trait returns the declaration of a trait.
	Trait(term.Path) (*TraitDecl, error)
	// TypeImpls returns the intrinsic impl blocks of a type.
	TypeImpls(typePath term.Path) ([]*ImplBlock, error)
	// TraitImpls returns the impl blocks of the traits in scope for a type.
	TraitImpls(typePath term.Path, inScope []term.Path) ([]*ImplBlock, error)
}

// Field returns the field of a type given its name.
func (t *TypeDecl) Field(name string) (Field, bool) {
	for _, field := range t.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Term returns the type applied to its own template parameters.
func (t *TypeDecl) Term(s *term.Store) term.Term {
	args := make([]term.Term, len(t.Params))
	for i, param := range t.Params {
		args[i] = param
	}
	return s.NewTypeOntology(term.Ethereal, t.Path, args...)
}

// Type returns the type of a reference to the function: its signature
// behind one implicit dependent curry per template parameter.
func (f *FnDecl) Type(s *term.Store) term.Term {
	return term.NewGenericType(s, term.Implicit, f.Params, f.Sig)
}

// Method returns the method of a block given its identifier.
func (b *ImplBlock) Method(ident string) (*MethodDecl, bool) {
	for _, m := range b.Methods {
		if m.Ident == ident {
			return m, true
		}
	}
	return nil, false
}

// Method returns the method of a trait given its identifier.
func (t *TraitDecl) Method(ident string) (*MethodDecl, bool) {
	for _, m := range t.Methods {
		if m.Ident == ident {
			return m, true
		}
	}
	return nil, false
}

// Signature returns the signature of the method without its receiver.
func (m *MethodDecl) Signature(s *term.Store) *term.Ritchie {
	return s.NewRitchie(term.FnRitchie, m.Params, m.Return)
}

func (b *ImplBlock) String() string {
	var sb strings.Builder
	sb.WriteString("impl")
	if len(b.Params) > 0 {
		names := make([]string, len(b.Params))
		for i, p := range b.Params {
			names[i] = p.Name
		}
		fmt.Fprintf(&sb, "<%s>", strings.Join(names, ", "))
	}
	if b.Trait != "" {
		fmt.Fprintf(&sb, " %s for", b.Trait.Ident())
	}
	fmt.Fprintf(&sb, " %s", b.SelfTy)
	return sb.String()
}
