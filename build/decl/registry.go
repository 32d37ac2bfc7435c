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

package decl

import (
	"slices"
	"strings"

	tsync "github.com/husky-lang/termres/base/sync"
	"github.com/husky-lang/termres/build/term"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// Registry is an in-memory Resolver.
//
// Declarations are added before the registry is queried. Queries are
// safe for concurrent use.
type Registry struct {
	store  *term.Store
	types  map[term.Path]*TypeDecl
	fns    map[term.Path]*FnDecl
	traits map[term.Path]*TraitDecl
	impls  []*ImplBlock

	// resolved maps a declaration as declared to its ethereal form.
	resolved tsync.Map[any, any]
	// shortPaths caches the resolution of paths.
	shortPaths tsync.Map[term.Path, term.Path]
}

var _ Resolver = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry(store *term.Store) *Registry {
	return &Registry{
		store:  store.Program(),
		types:  make(map[term.Path]*TypeDecl),
		fns:    make(map[term.Path]*FnDecl),
		traits: make(map[term.Path]*TraitDecl),
	}
}

// Store returns the store in which the registry terms are interned.
func (r *Registry) Store() *term.Store {
	return r.store
}

func (r *Registry) declared(path term.Path) bool {
	_, isType := r.types[path]
	_, isFn := r.fns[path]
	_, isTrait := r.traits[path]
	return isType || isFn || isTrait
}

func (r *Registry) checkNew(path term.Path) error {
	if path == "" {
		return errors.Errorf("declaration without a path")
	}
	if r.declared(path) {
		return errors.Errorf("%s already declared", path)
	}
	return nil
}

// AddType declares a type.
func (r *Registry) AddType(t *TypeDecl) error {
	if err := r.checkNew(t.Path); err != nil {
		return err
	}
	r.types[t.Path] = t
	return nil
}

// AddFn declares a function.
func (r *Registry) AddFn(f *FnDecl) error {
	if err := r.checkNew(f.Path); err != nil {
		return err
	}
	r.fns[f.Path] = f
	return nil
}

// AddTrait declares a trait.
func (r *Registry) AddTrait(t *TraitDecl) error {
	if err := r.checkNew(t.Path); err != nil {
		return err
	}
	r.traits[t.Path] = t
	return nil
}

// AddImpl declares an impl block.
func (r *Registry) AddImpl(b *ImplBlock) error {
	if b.SelfTy == nil {
		return errors.Errorf("impl block %s has no self type", b.Path)
	}
	for _, other := range r.impls {
		if other.Path == b.Path {
			return errors.Errorf("impl block %s already declared", b.Path)
		}
	}
	r.impls = append(r.impls, b)
	return nil
}

// Paths returns the paths of all the declarations, sorted.
func (r *Registry) Paths() []term.Path {
	var all []term.Path
	all = append(all, maps.Keys(r.types)...)
	all = append(all, maps.Keys(r.fns)...)
	all = append(all, maps.Keys(r.traits)...)
	slices.Sort(all)
	return all
}

// ResolvePath returns the canonical path of a declaration.
// A path can be abbreviated to its trailing segments as long as
// only one declaration matches.
func (r *Registry) ResolvePath(path term.Path) (term.Path, bool) {
	if r.declared(path) {
		return path, true
	}
	if got, ok := r.shortPaths.Load(path); ok {
		return got, got != ""
	}
	var found term.Path
	suffix := "::" + string(path)
	for _, candidate := range r.Paths() {
		if !strings.HasSuffix(string(candidate), suffix) {
			continue
		}
		if found != "" {
			found = ""
			break
		}
		found = candidate
	}
	found, _ = r.shortPaths.LoadOrStore(path, found)
	return found, found != ""
}

func (r *Registry) ethereal(t term.Term) (term.Term, error) {
	if t == nil {
		return nil, nil
	}
	return r.store.Ethereal(r, t)
}

func (r *Registry) etherealSymbols(syms []*term.Symbol) ([]*term.Symbol, error) {
	out := make([]*term.Symbol, len(syms))
	for i, sym := range syms {
		t, err := r.ethereal(sym)
		if err != nil {
			return nil, err
		}
		out[i] = t.(*term.Symbol)
	}
	return out, nil
}

func (r *Registry) etherealParams(params []term.Param) ([]term.Param, error) {
	out := make([]term.Param, len(params))
	for i, param := range params {
		ty, err := r.ethereal(param.Ty)
		if err != nil {
			return nil, err
		}
		out[i] = term.Param{Contract: param.Contract, Ty: ty}
	}
	return out, nil
}

// cached returns the ethereal form of a declaration, computing it once.
func cached[T any](r *Registry, declared *T, conv func(*T) (*T, error)) (*T, error) {
	if got, ok := r.resolved.Load(declared); ok {
		return got.(*T), nil
	}
	got, err := conv(declared)
	if err != nil {
		return nil, err
	}
	actual, _ := r.resolved.LoadOrStore(declared, got)
	return actual.(*T), nil
}

// Type returns the ethereal declaration of a type.
func (r *Registry) Type(path term.Path) (*TypeDecl, error) {
	t, ok := r.types[path]
	if !ok {
		return nil, &term.UnresolvedPathError{Path: path}
	}
	return cached(r, t, func(t *TypeDecl) (*TypeDecl, error) {
		params, err := r.etherealSymbols(t.Params)
		if err != nil {
			return nil, errors.Wrapf(err, "type %s", t.Path)
		}
		fields := make([]Field, len(t.Fields))
		for i, field := range t.Fields {
			ty, err := r.ethereal(field.Ty)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s.%s", t.Path, field.Name)
			}
			fields[i] = Field{Name: field.Name, Ty: ty}
		}
		return &TypeDecl{Path: t.Path, Params: params, Fields: fields}, nil
	})
}

// Fn returns the ethereal declaration of a function.
func (r *Registry) Fn(path term.Path) (*FnDecl, error) {
	f, ok := r.fns[path]
	if !ok {
		return nil, &term.UnresolvedPathError{Path: path}
	}
	return cached(r, f, func(f *FnDecl) (*FnDecl, error) {
		params, err := r.etherealSymbols(f.Params)
		if err != nil {
			return nil, errors.Wrapf(err, "function %s", f.Path)
		}
		sig, err := r.ethereal(f.Sig)
		if err != nil {
			return nil, errors.Wrapf(err, "function %s", f.Path)
		}
		return &FnDecl{Path: f.Path, Params: params, Sig: sig.(*term.Ritchie)}, nil
	})
}

func (r *Registry) method(m *MethodDecl) (*MethodDecl, error) {
	tmpl, err := r.etherealSymbols(m.TemplateParams)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s", m.Ident)
	}
	params, err := r.etherealParams(m.Params)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s", m.Ident)
	}
	ret, err := r.ethereal(m.Return)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s", m.Ident)
	}
	return &MethodDecl{
		Ident:          m.Ident,
		SelfContract:   m.SelfContract,
		TemplateParams: tmpl,
		Params:         params,
		Return:         ret,
	}, nil
}

func (r *Registry) methods(ms []*MethodDecl) ([]*MethodDecl, error) {
	out := make([]*MethodDecl, len(ms))
	for i, m := range ms {
		var err error
		if out[i], err = r.method(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Trait returns the ethereal declaration of a trait.
func (r *Registry) Trait(path term.Path) (*TraitDecl, error) {
	t, ok := r.traits[path]
	if !ok {
		return nil, &term.UnresolvedPathError{Path: path}
	}
	return cached(r, t, func(t *TraitDecl) (*TraitDecl, error) {
		methods, err := r.methods(t.Methods)
		if err != nil {
			return nil, errors.Wrapf(err, "trait %s", t.Path)
		}
		return &TraitDecl{Path: t.Path, Methods: methods}, nil
	})
}

func (r *Registry) impl(b *ImplBlock) (*ImplBlock, error) {
	return cached(r, b, func(b *ImplBlock) (*ImplBlock, error) {
		var trait term.Path
		if b.Trait != "" {
			var ok bool
			if trait, ok = r.ResolvePath(b.Trait); !ok {
				return nil, errors.Wrapf(&term.UnresolvedPathError{Path: b.Trait}, "impl block %s", b.Path)
			}
			traitDecl, err := r.Trait(trait)
			if err != nil {
				return nil, err
			}
			for _, m := range b.Methods {
				if _, ok := traitDecl.Method(m.Ident); !ok {
					return nil, errors.Errorf("impl block %s: method %s is not a member of trait %s", b.Path, m.Ident, trait)
				}
			}
		}
		params, err := r.etherealSymbols(b.Params)
		if err != nil {
			return nil, errors.Wrapf(err, "impl block %s", b.Path)
		}
		selfTy, err := r.ethereal(b.SelfTy)
		if err != nil {
			return nil, errors.Wrapf(err, "impl block %s", b.Path)
		}
		methods, err := r.methods(b.Methods)
		if err != nil {
			return nil, errors.Wrapf(err, "impl block %s", b.Path)
		}
		return &ImplBlock{Path: b.Path, Params: params, Trait: trait, SelfTy: selfTy, Methods: methods}, nil
	})
}

// selfPath returns the path of the self type of a declared impl block.
func (r *Registry) selfPath(b *ImplBlock) term.Path {
	path := term.ApplicationExpansion(b.SelfTy).Path
	if canonical, ok := r.ResolvePath(path); ok {
		return canonical
	}
	return path
}

// implsFor returns the impl blocks of a type kept by a filter.
// Only the blocks of the type are checked: an error in the block of
// another type does not fail the query.
func (r *Registry) implsFor(typePath term.Path, keep func(*ImplBlock) bool) ([]*ImplBlock, error) {
	var out []*ImplBlock
	for _, declared := range r.impls {
		if r.selfPath(declared) != typePath {
			continue
		}
		b, err := r.impl(declared)
		if err != nil {
			return nil, err
		}
		if !keep(b) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// TypeImpls returns the intrinsic impl blocks of a type, in declaration order.
func (r *Registry) TypeImpls(typePath term.Path) ([]*ImplBlock, error) {
	return r.implsFor(typePath, func(b *ImplBlock) bool {
		return b.Trait == ""
	})
}

// TraitImpls returns the impl blocks for a type of the traits in scope,
// in declaration order.
func (r *Registry) TraitImpls(typePath term.Path, inScope []term.Path) ([]*ImplBlock, error) {
	traits := make(map[term.Path]bool, len(inScope))
	for _, trait := range inScope {
		if canonical, ok := r.ResolvePath(trait); ok {
			traits[canonical] = true
		}
	}
	return r.implsFor(typePath, func(b *ImplBlock) bool {
		return b.Trait != "" && traits[b.Trait]
	})
}
