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
	"bytes"
	"fmt"
	"go/token"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/husky-lang/termres/internal/base/scope"
)

type (
	yamlField struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}

	yamlType struct {
		Path   string      `yaml:"path"`
		Params []string    `yaml:"params"`
		Fields []yamlField `yaml:"fields"`
	}

	yamlMethod struct {
		Name     string   `yaml:"name"`
		Self     string   `yaml:"self"`
		Template []string `yaml:"template"`
		Params   []string `yaml:"params"`
		Return   string   `yaml:"return"`
	}

	yamlTrait struct {
		Path    string       `yaml:"path"`
		Methods []yamlMethod `yaml:"methods"`
	}

	yamlImpl struct {
		Params  []string     `yaml:"params"`
		For     string       `yaml:"for"`
		Trait   string       `yaml:"trait"`
		Methods []yamlMethod `yaml:"methods"`
	}

	yamlFn struct {
		Path   string   `yaml:"path"`
		Params []string `yaml:"params"`
		Sig    string   `yaml:"sig"`
	}

	yamlWorld struct {
		Types  []yamlType  `yaml:"types"`
		Traits []yamlTrait `yaml:"traits"`
		Impls  []yamlImpl  `yaml:"impls"`
		Fns    []yamlFn    `yaml:"fns"`
	}
)

// SelfContracts maps the receiver notations to their contract.
var SelfContracts = map[string]term.Contract{
	"":     term.Pure,
	"move": term.Move,
	"&":    term.Borrow,
	"&mut": term.BorrowMut,
	"~":    term.Leash,
}

type loader struct {
	r    *Registry
	fset *token.FileSet
	errs *fmterr.Errors
	err  *fmterr.Appender
}

// LoadYAML reads declarations from a YAML document and adds them to a registry.
//
// The document lists types, traits, impl blocks and functions:
//
//	types:
//	  - path: geo::Pair
//	    params: [A, B]
//	    fields:
//	      - {name: first, type: A}
//	impls:
//	  - params: [A, B]
//	    for: Pair[A, B]
//	    methods:
//	      - {name: first, self: "&", return: A}
//	fns:
//	  - {path: geo::id, params: [T], sig: "func(T) T"}
//
// Types are parsed by [syn.ParseType]. In an impl block, Self stands for
// the type the block is implemented for.
func LoadYAML(r *Registry, src io.Reader) error {
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	var world yamlWorld
	if err := dec.Decode(&world); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(err, "cannot decode declarations")
	}
	l := &loader{r: r, fset: token.NewFileSet(), errs: &fmterr.Errors{}}
	l.err = l.errs.NewAppender(l.fset)
	for _, t := range world.Types {
		l.typ(t)
	}
	for _, t := range world.Traits {
		l.trait(t)
	}
	for i, b := range world.Impls {
		l.impl(i, b)
	}
	for _, f := range world.Fns {
		l.fn(f)
	}
	return l.errs.ToError()
}

// LoadYAMLBytes is LoadYAML reading from a byte slice.
func LoadYAMLBytes(r *Registry, data []byte) error {
	return LoadYAML(r, bytes.NewReader(data))
}

func (l *loader) append(err error, format string, a ...any) bool {
	if err == nil {
		return true
	}
	return l.err.Append(errors.Wrapf(err, format, a...))
}

func (l *loader) params(owner term.Path, idents []string, parent syn.TypeScope) ([]*term.Symbol, *scope.RWScope[term.Term]) {
	s := l.r.store
	names := scope.NewScope(parent)
	syms := make([]*term.Symbol, len(idents))
	for i, ident := range idents {
		syms[i] = s.NewSymbol(term.Declarative, term.TypeSymbol, owner, i, ident, s.NewCategory(term.Declarative, 0))
		names.Define(ident, syms[i])
	}
	return syms, names
}

func (l *loader) typeExpr(src string, names syn.TypeScope) (term.Term, error) {
	return syn.ParseType(l.r.store, l.fset, src, names)
}

func (l *loader) returnType(src string, names syn.TypeScope) (term.Term, error) {
	if src == "" {
		return l.r.store.NewTypeOntology(term.Declarative, term.UnitPath), nil
	}
	return l.typeExpr(src, names)
}

func (l *loader) typ(t yamlType) bool {
	path := term.Path(t.Path)
	params, names := l.params(path, t.Params, nil)
	decl := &TypeDecl{Path: path, Params: params}
	ok := true
	for _, field := range t.Fields {
		ty, err := l.typeExpr(field.Type, names)
		if err != nil {
			ok = l.append(err, "field %s.%s", path, field.Name)
			continue
		}
		decl.Fields = append(decl.Fields, Field{Name: field.Name, Ty: ty})
	}
	if !ok {
		return false
	}
	return l.append(l.r.AddType(decl), "type %s", path)
}

func (l *loader) method(owner term.Path, m yamlMethod, parent syn.TypeScope) (*MethodDecl, bool) {
	contract, known := SelfContracts[m.Self]
	if !known {
		return nil, l.append(errors.Errorf("unknown receiver %q", m.Self), "method %s", m.Name)
	}
	tmpl, names := l.params(owner.Join(m.Name), m.Template, parent)
	decl := &MethodDecl{
		Ident:          m.Name,
		SelfContract:   contract,
		TemplateParams: tmpl,
	}
	ok := true
	for i, param := range m.Params {
		ty, err := l.typeExpr(param, names)
		if err != nil {
			ok = l.append(err, "parameter %d of method %s", i, m.Name)
			continue
		}
		decl.Params = append(decl.Params, term.Param{Ty: ty})
	}
	ret, err := l.returnType(m.Return, names)
	if err != nil {
		return nil, l.append(err, "return type of method %s", m.Name)
	}
	decl.Return = ret
	return decl, ok
}

func (l *loader) methods(owner term.Path, ms []yamlMethod, names syn.TypeScope) ([]*MethodDecl, bool) {
	var out []*MethodDecl
	ok := true
	for _, m := range ms {
		decl, methodOk := l.method(owner, m, names)
		if !methodOk {
			ok = false
			continue
		}
		out = append(out, decl)
	}
	return out, ok
}

func (l *loader) trait(t yamlTrait) bool {
	path := term.Path(t.Path)
	_, names := l.params(path, []string{"Self"}, nil)
	l.err.Push(fmterr.PrefixWith("trait %s:", path))
	defer l.err.Pop()
	methods, ok := l.methods(path, t.Methods, names)
	if !ok {
		return false
	}
	return l.append(l.r.AddTrait(&TraitDecl{Path: path, Methods: methods}), "trait %s", path)
}

func (l *loader) impl(i int, b yamlImpl) bool {
	path := term.Path(fmt.Sprintf("impl#%d", len(l.r.impls)))
	l.err.Push(fmterr.PrefixWith("impl block %d for %s:", i, b.For))
	defer l.err.Pop()
	params, names := l.params(path, b.Params, nil)
	selfTy, err := l.typeExpr(b.For, names)
	if err != nil {
		return l.append(err, "self type")
	}
	names.Define("Self", selfTy)
	methods, ok := l.methods(path, b.Methods, names)
	if !ok {
		return false
	}
	return l.append(l.r.AddImpl(&ImplBlock{
		Path:    path,
		Params:  params,
		Trait:   term.Path(b.Trait),
		SelfTy:  selfTy,
		Methods: methods,
	}), "declaration")
}

func (l *loader) fn(f yamlFn) bool {
	path := term.Path(f.Path)
	params, names := l.params(path, f.Params, nil)
	sig, err := l.typeExpr(f.Sig, names)
	if err != nil {
		return l.append(err, "function %s", path)
	}
	ritchie, isRitchie := sig.(*term.Ritchie)
	if !isRitchie {
		return l.append(errors.Errorf("signature %s is not a callable", sig), "function %s", path)
	}
	return l.append(l.r.AddFn(&FnDecl{Path: path, Params: params, Sig: ritchie}), "function %s", path)
}
