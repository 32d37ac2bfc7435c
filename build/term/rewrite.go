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

import (
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/pkg/errors"
)

// RewriteFunc is called on every subterm before its children.
// depth is the number of dependent curries enclosing the subterm.
// Returning nil descends into the children; returning a term replaces
// the subterm.
type RewriteFunc func(t Term, depth int) Term

// Rewrite rebuilds a term bottom-up.
// Subterms that f does not change are returned as is: the result is
// the same term (and not only an equal one) when nothing changed.
func (s *Store) Rewrite(t Term, f RewriteFunc) Term {
	return s.rewrite(t, 0, f)
}

func (s *Store) rewriteAll(ts []Term, depth int, f RewriteFunc) ([]Term, bool) {
	var out []Term
	for i, t := range ts {
		r := s.rewrite(t, depth, f)
		if r != t && out == nil {
			out = append(make([]Term, 0, len(ts)), ts[:i]...)
		}
		if out != nil {
			out = append(out, r)
		}
	}
	if out == nil {
		return ts, false
	}
	return out, true
}

func (s *Store) rewrite(t Term, depth int, f RewriteFunc) Term {
	if t == nil {
		return nil
	}
	if r := f(t, depth); r != nil {
		return r
	}
	switch tT := t.(type) {
	case *Literal, *Category, *Symbol, *Rune, *Hole:
		return t
	case *TypeOntology:
		args, changed := s.rewriteAll(tT.Args, depth, f)
		if !changed {
			return t
		}
		return s.NewTypeOntology(tT.tier, tT.Path, args...)
	case *Application:
		fn := s.rewrite(tT.Function, depth, f)
		arg := s.rewrite(tT.Argument, depth, f)
		if fn == tT.Function && arg == tT.Argument {
			return t
		}
		return s.NewApplication(fn, arg)
	case *Curry:
		paramTy := s.rewrite(tT.ParamTy, depth, f)
		retDepth := depth
		if tT.Rune != nil {
			retDepth++
		}
		returnTy := s.rewrite(tT.ReturnTy, retDepth, f)
		if paramTy == tT.ParamTy && returnTy == tT.ReturnTy {
			return t
		}
		// The variance is carried over, never recomputed.
		return s.curry(tT.Kind, tT.Variance, tT.Rune != nil, paramTy, returnTy)
	case *Ritchie:
		changed := false
		params := make([]Param, len(tT.Params))
		for i, param := range tT.Params {
			params[i] = Param{Contract: param.Contract, Ty: s.rewrite(param.Ty, depth, f)}
			changed = changed || params[i].Ty != param.Ty
		}
		ret := s.rewrite(tT.Return, depth, f)
		if !changed && ret == tT.Return {
			return t
		}
		return s.NewRitchie(tT.Kind, params, ret)
	case *TraitConstraint:
		ty := s.rewrite(tT.Ty, depth, f)
		trait := s.rewrite(tT.Trait, depth, f)
		if ty == tT.Ty && trait == tT.Trait {
			return t
		}
		return s.NewTraitConstraint(ty, trait)
	default:
		panic(fmterr.Internal(errors.Errorf("cannot rewrite term %s of type %T", t, t)))
	}
}

// Walk calls f on every subterm of t, parents first.
// The walk stops descending into a subterm when f returns false.
func Walk(t Term, f func(t Term) bool) {
	if t == nil || !f(t) {
		return
	}
	switch tT := t.(type) {
	case *TypeOntology:
		for _, arg := range tT.Args {
			Walk(arg, f)
		}
	case *Application:
		Walk(tT.Function, f)
		Walk(tT.Argument, f)
	case *Curry:
		Walk(tT.ParamTy, f)
		Walk(tT.ReturnTy, f)
	case *Ritchie:
		for _, param := range tT.Params {
			Walk(param.Ty, f)
		}
		Walk(tT.Return, f)
	case *TraitConstraint:
		Walk(tT.Ty, f)
		Walk(tT.Trait, f)
	}
}

// Contains returns true if sub is a subterm of t.
func Contains(t, sub Term) bool {
	found := false
	Walk(t, func(x Term) bool {
		if x == sub {
			found = true
		}
		return !found
	})
	return found
}

// FreeSymbols returns the symbols occurring in a term, in order of first occurrence.
func FreeSymbols(t Term) []*Symbol {
	var syms []*Symbol
	seen := make(map[*Symbol]bool)
	Walk(t, func(x Term) bool {
		if sym, ok := x.(*Symbol); ok && !seen[sym] {
			seen[sym] = true
			syms = append(syms, sym)
		}
		return true
	})
	return syms
}

// Holes returns the holes occurring in a term, in order of first occurrence.
func Holes(t Term) []*Hole {
	var holes []*Hole
	seen := make(map[*Hole]bool)
	Walk(t, func(x Term) bool {
		if h, ok := x.(*Hole); ok && !seen[h] {
			seen[h] = true
			holes = append(holes, h)
		}
		return true
	})
	return holes
}
