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

// Package dispatch resolves the members of a receiver: its methods and fields.
//
// A method is looked up in the intrinsic impl blocks of the receiver
// type first, then in the impl blocks of the traits in scope. If neither
// defines the member, the resolver sees through Ref, RefMut and Leash
// wrappers and tries again with the wrapped type, recording one
// indirection per unwrapped layer.
package dispatch

import (
	"fmt"
	"slices"
	"strings"

	"github.com/husky-lang/termres/base/iter"
	"github.com/husky-lang/termres/build/decl"
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/term"
	"github.com/pkg/errors"
)

type (
	// Indirection records the unwrapping of one wrapper layer.
	Indirection struct {
		Wrapper term.Path
		// Quary of the value reached through the wrapper.
		Quary term.Quary
	}

	// Request is a member access.
	Request struct {
		Receiver term.Term
		Ident    string
		Quary    term.Quary
		// InScope are the traits in scope at the access.
		InScope []term.Path
		// Trait restricts the lookup of a method to the impl blocks of
		// one trait. Intrinsic methods and InScope are then ignored.
		Trait term.Path
	}

	// Candidate is a resolved method.
	Candidate struct {
		Ident string
		// Receiver is the type defining the method, after indirections.
		Receiver term.Term
		// Quary of the receiver after indirections.
		Quary        term.Quary
		Indirections []Indirection
		Impl         *decl.ImplBlock
		Method       *decl.MethodDecl
		// Instantiation of the template parameters of the impl block.
		Instantiation *term.Instantiation
		// Signature of the method without its receiver, behind one
		// implicit curry per template parameter of the method.
		Signature term.Term
	}

	// FieldCandidate is a resolved field.
	FieldCandidate struct {
		Ident        string
		Receiver     term.Term
		Quary        term.Quary
		Indirections []Indirection
		Decl         *decl.TypeDecl
		// Ty is the type of the field instantiated for the receiver.
		Ty term.Term
	}

	// AmbiguousDispatchError is returned when more than one trait in
	// scope implements a method for a receiver, or when more than one
	// impl block of the receiver type declares it.
	AmbiguousDispatchError struct {
		Ident    string
		Receiver term.Term
		// Traits implementing the method. Empty for intrinsic methods.
		Traits []term.Path
		// Impls are the paths of the matching impl blocks.
		Impls []term.Path
	}
)

func pathsString(paths []term.Path) string {
	strs := iter.Map(slices.Values(paths), func(path term.Path) string {
		return string(path)
	})
	return strings.Join(slices.Collect(strs), ", ")
}

func (err *AmbiguousDispatchError) Error() string {
	if len(err.Traits) == 0 {
		return fmt.Sprintf("ambiguous method %s for %s: declared by impl blocks %s", err.Ident, err.Receiver, pathsString(err.Impls))
	}
	return fmt.Sprintf("ambiguous method %s for %s: implemented by traits %s", err.Ident, err.Receiver, pathsString(err.Traits))
}

func ambiguity(ident string, recv term.Term, matches []match) *AmbiguousDispatchError {
	err := &AmbiguousDispatchError{Ident: ident, Receiver: recv}
	for _, m := range matches {
		if m.impl.Trait != "" {
			err.Traits = append(err.Traits, m.impl.Trait)
		}
		err.Impls = append(err.Impls, m.impl.Path)
	}
	return err
}

func indirectionsString(inds []Indirection) string {
	if len(inds) == 0 {
		return ""
	}
	wrappers := iter.Map(slices.Values(inds), func(ind Indirection) string {
		return ind.Wrapper.Ident()
	})
	return " via " + strings.Join(slices.Collect(wrappers), ", ")
}

func (c *Candidate) String() string {
	owner := term.PathOf(c.Receiver).Ident()
	if c.Impl.Trait != "" {
		owner = c.Impl.Trait.Ident()
	}
	return fmt.Sprintf("%s::%s: %s%s", owner, c.Ident, c.Signature, indirectionsString(c.Indirections))
}

func (c *FieldCandidate) String() string {
	return fmt.Sprintf("%s.%s: %s%s", term.PathOf(c.Receiver).Ident(), c.Ident, c.Ty, indirectionsString(c.Indirections))
}

// DefaultMaxIndirections is the default maximum number of wrappers
// a member access sees through.
const DefaultMaxIndirections = 64

// Resolver resolves member accesses against declarations.
type Resolver struct {
	decls           decl.Resolver
	maxIndirections int
}

// NewResolver returns a resolver. A non-positive maxIndirections is
// replaced by DefaultMaxIndirections.
func NewResolver(decls decl.Resolver, maxIndirections int) *Resolver {
	if maxIndirections <= 0 {
		maxIndirections = DefaultMaxIndirections
	}
	return &Resolver{decls: decls, maxIndirections: maxIndirections}
}

// lookupFunc looks a member up at one receiver. It returns true if the
// member has been found.
type lookupFunc func(recv term.Term, path term.Path, q term.Quary) (bool, error)

// walk calls lookup on the receiver and on each type reached by unwrapping it.
// It returns the indirections followed to find the member.
func (r *Resolver) walk(req Request, lookup lookupFunc) ([]Indirection, bool, error) {
	var inds []Indirection
	seen := make(map[term.Term]bool)
	recv, q := req.Receiver, req.Quary
	for {
		if seen[recv] {
			return nil, false, fmterr.Internal(errors.Errorf("dispatch of %s on %s visits %s twice", req.Ident, req.Receiver, recv))
		}
		seen[recv] = true
		exp := term.ApplicationExpansion(recv)
		if !exp.IsType() {
			return nil, false, nil
		}
		found, err := lookup(recv, exp.Path, q)
		if err != nil || found {
			return inds, found, err
		}
		wrapper, ok := recv.(*term.TypeOntology)
		if !ok || !wrapper.Path.IsIndirection() || len(wrapper.Args) != 1 {
			return nil, false, nil
		}
		if len(inds) == r.maxIndirections {
			return nil, false, fmterr.Internal(errors.Errorf("dispatch of %s on %s: more than %d indirections", req.Ident, req.Receiver, r.maxIndirections))
		}
		q = q.Deref(wrapper.Path)
		inds = append(inds, Indirection{Wrapper: wrapper.Path, Quary: q})
		recv = wrapper.Args[0]
	}
}

func (r *Resolver) candidate(s *term.Store, req Request, recv term.Term, q term.Quary, impl *decl.ImplBlock, method *decl.MethodDecl, inst *term.Instantiation) (*Candidate, error) {
	sig, err := term.Instantiate(s, method.Signature(s), inst)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s of %s", req.Ident, impl)
	}
	methodPath := impl.Path.Join(method.Ident)
	switch method.SelfContract {
	case term.Borrow, term.BorrowMut:
		self := s.NewSymbol(term.Ethereal, term.PlaceSymbol, methodPath, -1, "self", nil)
		inst.Set(self, term.Resolution{Kind: term.SelfPlace, Quary: q})
	case term.Leash:
		self := s.NewSymbol(term.Ethereal, term.LifetimeSymbol, methodPath, -1, "'self", nil)
		inst.Set(self, term.Resolution{Kind: term.SelfLifetime})
	}
	return &Candidate{
		Ident:         req.Ident,
		Receiver:      recv,
		Quary:         q,
		Impl:          impl,
		Method:        method,
		Instantiation: inst,
		Signature:     term.NewGenericType(s, term.Implicit, method.TemplateParams, sig),
	}, nil
}

type match struct {
	impl   *decl.ImplBlock
	method *decl.MethodDecl
	inst   *term.Instantiation
}

// matching returns the impl blocks covering a receiver and defining a method.
func matching(impls []*decl.ImplBlock, recv term.Term, ident string) []match {
	var matches []match
	for _, impl := range impls {
		method, ok := impl.Method(ident)
		if !ok {
			continue
		}
		inst := term.NewInstantiation(impl.Path)
		if !term.Match(impl.SelfTy, recv, inst) {
			continue
		}
		matches = append(matches, match{impl: impl, method: method, inst: inst})
	}
	return matches
}

// ResolveMethod resolves a method call. It returns nil without error if
// no method matches.
func (r *Resolver) ResolveMethod(s *term.Store, req Request) (*Candidate, error) {
	var found *Candidate
	inds, ok, err := r.walk(req, func(recv term.Term, path term.Path, q term.Quary) (bool, error) {
		var matches []match
		inScope := req.InScope
		if req.Trait == "" {
			intrinsics, err := r.decls.TypeImpls(path)
			if err != nil {
				return false, err
			}
			matches = matching(intrinsics, recv, req.Ident)
			if len(matches) > 1 {
				return false, ambiguity(req.Ident, recv, matches)
			}
		} else {
			inScope = []term.Path{req.Trait}
		}
		if len(matches) == 0 {
			traitImpls, err := r.decls.TraitImpls(path, inScope)
			if err != nil {
				return false, err
			}
			matches = matching(traitImpls, recv, req.Ident)
			if len(matches) > 1 {
				return false, ambiguity(req.Ident, recv, matches)
			}
		}
		if len(matches) == 0 {
			return false, nil
		}
		m := matches[0]
		var err error
		found, err = r.candidate(s, req, recv, q, m.impl, m.method, m.inst)
		return err == nil, err
	})
	if err != nil || !ok {
		return nil, err
	}
	found.Indirections = inds
	return found, nil
}

// ResolveField resolves a field access. It returns nil without error if
// no field matches.
func (r *Resolver) ResolveField(s *term.Store, req Request) (*FieldCandidate, error) {
	var found *FieldCandidate
	inds, ok, err := r.walk(req, func(recv term.Term, path term.Path, q term.Quary) (bool, error) {
		typ, err := r.decls.Type(path)
		if err != nil {
			return false, err
		}
		field, ok := typ.Field(req.Ident)
		if !ok {
			return false, nil
		}
		args := term.ApplicationExpansion(recv).Args
		inst, err := term.NewExplicitInstantiation(typ.Path, typ.Params, args)
		if err != nil {
			return false, err
		}
		ty, err := term.Instantiate(s, field.Ty, inst)
		if err != nil {
			return false, err
		}
		found = &FieldCandidate{
			Ident:    req.Ident,
			Receiver: recv,
			Quary:    q,
			Decl:     typ,
			Ty:       ty,
		}
		return true, nil
	})
	if err != nil || !ok {
		return nil, err
	}
	found.Indirections = inds
	return found, nil
}
