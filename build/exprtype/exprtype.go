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

// Package exprtype infers the type of every expression of a region.
//
// The engine walks the expressions of a region children first, passing
// down to each expression what its parent expects from it. The type of
// each expression is added to an expectation list which is swept at
// the end of the walk, first weakly then strongly, to bind the holes
// left in the types. Method calls, field accesses and operators on
// non-builtin types go through the dispatch resolver.
package exprtype

import (
	"slices"

	"github.com/husky-lang/termres/base/iter"
	"github.com/husky-lang/termres/build/decl"
	"github.com/husky-lang/termres/build/dispatch"
	"github.com/husky-lang/termres/build/expect"
	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/pkg/errors"
)

// Options of the engine.
type Options struct {
	// Defaults are the types given to numeric literals left unconstrained.
	Defaults fluffy.Defaults
	// Traits in scope in every region. Operator traits are always in scope.
	Traits []term.Path
	// MaxIndirections is the maximum number of wrappers a member
	// access sees through.
	MaxIndirections int
}

// DefaultOptions returns the default options of the engine.
func DefaultOptions() Options {
	return Options{
		Defaults:        fluffy.DefaultDefaults(),
		MaxIndirections: dispatch.DefaultMaxIndirections,
	}
}

// Engine infers the types of the expressions of regions.
// An engine can be shared by concurrent calls to Infer.
type Engine struct {
	store    *term.Store
	decls    decl.Resolver
	dispatch *dispatch.Resolver
	opts     Options
	traits   []term.Path
}

// New returns an engine resolving declarations with decls.
// It returns an error if a default numeric type is not a builtin type
// of its numeric class.
func New(store *term.Store, decls decl.Resolver, opts Options) (*Engine, error) {
	defaults := fluffy.DefaultDefaults()
	var err error
	if opts.Defaults.Int, err = numericDefault(decls, opts.Defaults.Int, defaults.Int, term.Path.IsInteger, "an integer type"); err != nil {
		return nil, errors.WithMessage(err, "default integer")
	}
	if opts.Defaults.Float, err = numericDefault(decls, opts.Defaults.Float, defaults.Float, term.Path.IsFloat, "a float type"); err != nil {
		return nil, errors.WithMessage(err, "default float")
	}
	traits := slices.Collect(iter.All(decl.OperatorTraits, opts.Traits))
	return &Engine{
		store:    store.Program(),
		decls:    decls,
		dispatch: dispatch.NewResolver(decls, opts.MaxIndirections),
		opts:     opts,
		traits:   traits,
	}, nil
}

func numericDefault(decls decl.Resolver, path, fallback term.Path, class func(term.Path) bool, what string) (term.Path, error) {
	if path == "" {
		return fallback, nil
	}
	canonical, ok := decls.ResolvePath(path)
	if !ok {
		return "", &term.UnresolvedPathError{Path: path}
	}
	if !class(canonical) {
		return "", errors.Errorf("%s is not %s", canonical, what)
	}
	return canonical, nil
}

// Store returns the program store of the engine.
func (e *Engine) Store() *term.Store {
	return e.store
}

type (
	// Outcome of the inference of one expression.
	Outcome struct {
		// Visited is false for expressions that are part of a path,
		// such as geo in geo.id(x).
		Visited bool
		// Term is the ethereal type of the expression, nil on error.
		Term  term.Term
		Quary term.Quary
		// Expectation of the parent of the expression.
		Expectation expect.Expectation
		// Conversion applied to meet the expectation.
		Conversion expect.ImplicitConversion
		// Method resolved for a method call, an operator or an index.
		Method *dispatch.Candidate
		// Field resolved for a field access.
		Field *dispatch.FieldCandidate
		Err   error
	}

	// Local is a local variable of a region.
	Local struct {
		Name    string
		Index   int
		Mutable bool
		// Ty is the type of the variable, nil if it could not be inferred.
		Ty term.Term
	}

	// Result of the inference of a region.
	Result struct {
		Region   *syn.Region
		Outcomes []Outcome
		Locals   []*Local
		// ReturnTy is the declared or inferred return type of the region.
		ReturnTy term.Term
		Errs     *fmterr.Errors
	}
)

// Outcome returns the outcome of an expression.
func (r *Result) Outcome(idx syn.ExprIdx) *Outcome {
	return &r.Outcomes[idx]
}

// Err returns the errors of the region or nil.
func (r *Result) Err() error {
	return r.Errs.ToError()
}

// Infer the type of the expressions of a region.
//
// Errors in the region are reported in the result. The returned error
// is only set when the engine hits an internal error, in which case
// the resolution of the region is aborted.
func (e *Engine) Infer(region *syn.Region) (res *Result, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		rErr, ok := r.(error)
		if !ok || !fmterr.IsInternal(rErr) {
			panic(r)
		}
		res, err = nil, errors.WithMessagef(rErr, "region %s", region.Path)
	}()
	if region.Root == syn.NoExpr {
		return nil, errors.Errorf("region %s has no root expression", region.Path)
	}
	w := newWalker(e, region)
	w.params()
	w.infer(region.Root, expect.ImplicitlyConvertible{Dst: w.returnTy, Contract: term.Move})
	if w.abort == nil {
		w.sweep()
	}
	if w.abort != nil {
		return nil, errors.WithMessagef(w.abort, "region %s", region.Path)
	}
	return w.result(), nil
}
