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

package expect

import (
	"slices"

	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/term"
)

// Outcome of the resolution of an expectation.
type Outcome struct {
	// Term is the candidate once the bound variables of its leading
	// implicit curries have been substituted.
	Term       term.Term
	Conversion ImplicitConversion
	// Substitutions of the bound variables of implicit curries, in order.
	Substitutions []Substitution
	// Actions to apply to the region table.
	Actions []Action
	// Deferred is true if the resolution needs a strong sweep.
	Deferred bool
	Err      error
}

func (o Outcome) fail(err error) Outcome {
	o.Err = err
	return o
}

func (o Outcome) convert(c ImplicitConversion, binds []BindHole) Outcome {
	o.Conversion = c
	for _, b := range binds {
		o.Actions = append(o.Actions, b)
	}
	return o
}

func (o Outcome) deferred() Outcome {
	o.Deferred = true
	return o
}

// instantiateImplicits substitutes the bound variables of the leading
// implicit curries of a candidate by fresh holes.
func instantiateImplicits(out *Outcome, table *fluffy.Table, src term.Provenance) {
	for {
		c, ok := out.Term.(*term.Curry)
		if !ok || c.Kind != term.Implicit {
			return
		}
		h := table.NewHole(term.ImplicitType, src)
		out.Substitutions = append(out.Substitutions, Substitution{Curry: c, Hole: h})
		out.Actions = append(out.Actions, BindImplicitSymbol{Hole: h, Curry: c})
		out.Term = term.ApplyCurry(table.Store(), c, h)
	}
}

// InstantiateImplicits substitutes the bound variables of the leading
// implicit curries of t by fresh holes recorded in the table.
func InstantiateImplicits(table *fluffy.Table, t term.Term, src term.Provenance) (term.Term, []Substitution) {
	out := Outcome{Term: table.Resolve(t)}
	instantiateImplicits(&out, table, src)
	for _, sub := range out.Substitutions {
		table.RecordImplicit(sub.Hole, sub.Curry)
	}
	return out.Term, out.Substitutions
}

// Resolve an expectation against a candidate type.
//
// The candidate is first reduced by substituting the bound variables of
// its leading implicit curries with fresh holes, unless the expectation
// is a conversion to a curry. Resolve does not apply the actions of the
// outcome.
func Resolve(exp Expectation, cand term.Term, level Level, table *fluffy.Table, src term.Provenance) Outcome {
	out := Outcome{Term: table.Resolve(cand)}
	conv, isConv := exp.(ImplicitlyConvertible)
	var dst term.Term
	if isConv {
		dst = table.Resolve(conv.Dst)
		if out.Term == dst {
			return out
		}
	}
	if _, dstIsCurry := dst.(*term.Curry); !dstIsCurry {
		instantiateImplicits(&out, table, src)
	}
	if term.IsNever(out.Term) {
		return out.convert(Never, nil)
	}
	switch expT := exp.(type) {
	case AnyOriginal, AnyDerived:
		return out
	case ImplicitlyConvertible:
		return resolveConversion(out, dst, level, table)
	case EqsCategory:
		want := table.Store().NewCategory(term.Ethereal, expT.Universe)
		return resolveShape(out, expT, level, table, func(got term.Term) (bool, term.Term) {
			return got == term.Term(want), want
		})
	case EqsRitchie:
		return resolveShape(out, expT, level, table, func(got term.Term) (bool, term.Term) {
			r, ok := got.(*term.Ritchie)
			return ok && slices.Contains(expT.Kinds, r.Kind), nil
		})
	}
	return out.fail(&UnexpectedError{Expectation: exp, Got: out.Term})
}

// resolveShape checks a candidate against an expectation on its shape.
// A hole candidate is bound to the term returned by match if any.
func resolveShape(out Outcome, exp Expectation, level Level, table *fluffy.Table, match func(term.Term) (bool, term.Term)) Outcome {
	if h, isHole := term.HoleOf(out.Term); isHole {
		_, bindTo := match(h)
		if level == Weak {
			return out.deferred()
		}
		if bindTo == nil {
			return out.fail(&fluffy.AnnotationNeededError{Hole: h})
		}
		return out.convert(None, []BindHole{{Hole: h, Term: bindTo}})
	}
	if ok, _ := match(out.Term); !ok {
		return out.fail(&UnexpectedError{Expectation: exp, Got: out.Term})
	}
	return out
}

func resolveConversion(out Outcome, dst term.Term, level Level, table *fluffy.Table) Outcome {
	got := out.Term
	if got == dst {
		return out
	}
	gotPath, dstPath := term.PathOf(got), term.PathOf(dst)
	if gotPath != "" && dstPath != "" && gotPath != dstPath {
		// References are not read implicitly: *r reads the value.
		return out.fail(&TypeMismatchError{Want: dst, Got: got})
	}
	u := newUnifier(table, level)
	if !u.unify(got, dst) {
		return out.fail(&TypeMismatchError{Want: dst, Got: got})
	}
	if u.deferred {
		return out.deferred()
	}
	return out.convert(None, u.binds)
}

// unifier compares two terms structurally and collects the bindings of
// the holes they contain.
type unifier struct {
	table    *fluffy.Table
	level    Level
	pending  map[*term.Hole]term.Term
	binds    []BindHole
	deferred bool
}

func newUnifier(table *fluffy.Table, level Level) *unifier {
	return &unifier{
		table:   table,
		level:   level,
		pending: make(map[*term.Hole]term.Term),
	}
}

// IsGeneric returns true for holes that can stand for any type.
func IsGeneric(h *term.Hole) bool {
	return h.Kind == term.ImplicitType || h.Kind == term.AnyType
}

func (u *unifier) bindHole(h *term.Hole, x term.Term) bool {
	if prev, ok := u.pending[h]; ok {
		return u.unify(prev, x)
	}
	if !fluffy.Compatible(h, x) || term.Contains(x, h) {
		return false
	}
	if u.level == Weak {
		u.deferred = true
		return true
	}
	u.pending[h] = x
	u.binds = append(u.binds, BindHole{Hole: h, Term: x})
	return true
}

func (u *unifier) unifyAll(got, want []term.Term) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !u.unify(got[i], want[i]) {
			return false
		}
	}
	return true
}

func (u *unifier) unify(got, want term.Term) bool {
	if got == want {
		return true
	}
	gotHole, gotIsHole := term.HoleOf(got)
	wantHole, wantIsHole := term.HoleOf(want)
	switch {
	case gotIsHole && wantIsHole:
		if IsGeneric(gotHole) || !IsGeneric(wantHole) {
			return u.bindHole(gotHole, want)
		}
		return u.bindHole(wantHole, got)
	case gotIsHole:
		return u.bindHole(gotHole, want)
	case wantIsHole:
		return u.bindHole(wantHole, got)
	}
	switch gotT := got.(type) {
	case *term.TypeOntology:
		wantT, ok := want.(*term.TypeOntology)
		return ok && gotT.Path == wantT.Path && u.unifyAll(gotT.Args, wantT.Args)
	case *term.Application:
		wantT, ok := want.(*term.Application)
		return ok && u.unify(gotT.Function, wantT.Function) && u.unify(gotT.Argument, wantT.Argument)
	case *term.Ritchie:
		wantT, ok := want.(*term.Ritchie)
		if !ok || gotT.Kind != wantT.Kind || len(gotT.Params) != len(wantT.Params) {
			return false
		}
		for i, param := range gotT.Params {
			if param.Contract != wantT.Params[i].Contract || !u.unify(param.Ty, wantT.Params[i].Ty) {
				return false
			}
		}
		return u.unify(gotT.Return, wantT.Return)
	case *term.Curry:
		wantT, ok := want.(*term.Curry)
		if !ok || gotT.Kind != wantT.Kind || gotT.Variance != wantT.Variance || (gotT.Rune == nil) != (wantT.Rune == nil) {
			return false
		}
		return u.unify(gotT.ParamTy, wantT.ParamTy) && u.unify(gotT.ReturnTy, wantT.ReturnTy)
	case *term.TraitConstraint:
		wantT, ok := want.(*term.TraitConstraint)
		return ok && u.unify(gotT.Ty, wantT.Ty) && u.unify(gotT.Trait, wantT.Trait)
	}
	return false
}
