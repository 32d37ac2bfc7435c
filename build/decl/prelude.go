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
	"go.uber.org/multierr"

	"github.com/husky-lang/termres/build/term"
)

// OperatorMethods maps operator traits to the identifier of their method.
var OperatorMethods = map[term.Path]string{
	term.NegTrait:   "neg",
	term.NotTrait:   "not",
	term.AddTrait:   "add",
	term.SubTrait:   "sub",
	term.MulTrait:   "mul",
	term.DivTrait:   "div",
	term.IndexTrait: "index",
}

// OperatorTraits lists the operator traits, always in scope for operators.
var OperatorTraits = []term.Path{
	term.NegTrait,
	term.NotTrait,
	term.AddTrait,
	term.SubTrait,
	term.MulTrait,
	term.DivTrait,
	term.IndexTrait,
}

type preludeBuilder struct {
	r   *Registry
	s   *term.Store
	err error
}

func (b *preludeBuilder) param(owner term.Path, index int, name string) *term.Symbol {
	return b.s.NewSymbol(term.Ethereal, term.TypeSymbol, owner, index, name, b.s.NewCategory(term.Ethereal, 0))
}

func (b *preludeBuilder) typ(path term.Path, params ...string) *TypeDecl {
	t := &TypeDecl{Path: path}
	for i, name := range params {
		t.Params = append(t.Params, b.param(path, i, name))
	}
	b.err = multierr.Append(b.err, b.r.AddType(t))
	return t
}

func (b *preludeBuilder) operatorTrait(path term.Path, contract term.Contract, arity int) {
	self := b.param(path, 0, "Self")
	params := make([]term.Param, arity)
	for i := range params {
		params[i] = term.Param{Ty: self}
	}
	b.err = multierr.Append(b.err, b.r.AddTrait(&TraitDecl{
		Path: path,
		Methods: []*MethodDecl{{
			Ident:        OperatorMethods[path],
			SelfContract: contract,
			Params:       params,
			Return:       self,
		}},
	}))
}

func (b *preludeBuilder) option() {
	opt := b.typ(term.OptionPath, "T")
	implPath := term.OptionPath.Join("impl")
	t := b.param(implPath, 0, "T")
	boolT := b.s.NewTypeOntology(term.Ethereal, term.BoolPath)
	b.err = multierr.Append(b.err, b.r.AddImpl(&ImplBlock{
		Path:   implPath,
		Params: []*term.Symbol{t},
		SelfTy: b.s.NewTypeOntology(term.Ethereal, opt.Path, t),
		Methods: []*MethodDecl{
			{Ident: "unwrap", SelfContract: term.Move, Return: t},
			{Ident: "unwrap_or", SelfContract: term.Move, Params: []term.Param{{Contract: term.Move, Ty: t}}, Return: t},
			{Ident: "is_some", SelfContract: term.Borrow, Return: boolT},
			{Ident: "is_none", SelfContract: term.Borrow, Return: boolT},
		},
	}))
}

// AddPrelude declares the core types and the operator traits.
func (r *Registry) AddPrelude() error {
	b := &preludeBuilder{r: r, s: r.store}
	for _, path := range []term.Path{term.NeverPath, term.UnitPath, term.BoolPath, term.StrPath} {
		b.typ(path)
	}
	for _, path := range term.IntegerPaths {
		b.typ(path)
	}
	for _, path := range term.FloatPaths {
		b.typ(path)
	}
	for _, path := range []term.Path{term.RefPath, term.RefMutPath, term.LeashPath} {
		b.typ(path, "T")
	}
	b.option()
	b.operatorTrait(term.NegTrait, term.Move, 0)
	b.operatorTrait(term.NotTrait, term.Move, 0)
	for _, path := range []term.Path{term.AddTrait, term.SubTrait, term.MulTrait, term.DivTrait} {
		b.operatorTrait(path, term.Move, 1)
	}
	b.operatorTrait(term.IndexTrait, term.Borrow, 1)
	return b.err
}

// NewPrelude returns a registry containing the prelude.
func NewPrelude(store *term.Store) (*Registry, error) {
	r := NewRegistry(store)
	if err := r.AddPrelude(); err != nil {
		return nil, err
	}
	return r, nil
}
