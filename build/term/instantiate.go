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
	"fmt"
	"strings"

	"github.com/husky-lang/termres/base/ordered"
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/pkg/errors"
)

type (
	// ResolutionKind is the kind of resolution of a template parameter.
	ResolutionKind uint8

	// Resolution of a template parameter.
	Resolution struct {
		Kind ResolutionKind
		// Term is the argument of an explicit resolution.
		Term Term
		// Quary is the place of the receiver for self places.
		Quary Quary
	}

	// Instantiation maps template parameters to their resolutions.
	// Parameters are kept in the order in which they have been set.
	Instantiation struct {
		// Owner is the path of the entity being instantiated.
		Owner   Path
		symbols *ordered.Map[*Symbol, Resolution]
	}
)

const (
	// ExplicitResolution substitutes a parameter with a term.
	ExplicitResolution ResolutionKind = iota
	// SelfLifetime binds a lifetime parameter to the lifetime of the receiver.
	SelfLifetime
	// SelfPlace binds a place parameter to the place of the receiver.
	SelfPlace
)

// NewInstantiation returns an empty instantiation of an entity.
func NewInstantiation(owner Path) *Instantiation {
	return &Instantiation{Owner: owner, symbols: ordered.NewMap[*Symbol, Resolution]()}
}

// NewExplicitInstantiation maps each parameter to its argument.
func NewExplicitInstantiation(owner Path, params []*Symbol, args []Term) (*Instantiation, error) {
	if len(params) != len(args) {
		return nil, &ArityMismatchError{What: string(owner), Want: len(params), Got: len(args)}
	}
	inst := NewInstantiation(owner)
	for i, param := range params {
		inst.Set(param, Resolution{Kind: ExplicitResolution, Term: args[i]})
	}
	return inst, nil
}

// Set the resolution of a parameter.
func (inst *Instantiation) Set(sym *Symbol, res Resolution) {
	inst.symbols.Store(sym, res)
}

// Lookup returns the resolution of a parameter.
func (inst *Instantiation) Lookup(sym *Symbol) (Resolution, bool) {
	if inst == nil {
		return Resolution{}, false
	}
	return inst.symbols.Load(sym)
}

// Size returns the number of parameters of the instantiation.
func (inst *Instantiation) Size() int {
	if inst == nil {
		return 0
	}
	return inst.symbols.Size()
}

// Iter iterates over the parameters and their resolutions in order.
func (inst *Instantiation) Iter() func(func(*Symbol, Resolution) bool) {
	if inst == nil {
		return func(func(*Symbol, Resolution) bool) {}
	}
	return inst.symbols.Iter()
}

// SelfPlace returns the place bound to the receiver, if any.
func (inst *Instantiation) SelfPlace() (Quary, bool) {
	for _, res := range inst.Iter() {
		if res.Kind == SelfPlace {
			return res.Quary, true
		}
	}
	return Quary{}, false
}

func (res Resolution) String() string {
	switch res.Kind {
	case ExplicitResolution:
		return res.Term.String()
	case SelfLifetime:
		return "'self"
	case SelfPlace:
		return "~" + res.Quary.String()
	}
	return fmt.Sprintf("Resolution(%d)", int(res.Kind))
}

func (inst *Instantiation) String() string {
	var ss []string
	for sym, res := range inst.Iter() {
		ss = append(ss, sym.Name+" := "+res.String())
	}
	return "[" + strings.Join(ss, ", ") + "]"
}

// Instantiate substitutes the parameters of an instantiation in a term.
//
// Every symbol owned by the instantiated entity must be covered by the
// instantiation. Symbols owned by other entities are kept. Subterms
// without any substituted symbol are returned unchanged. Lifetime and
// place parameters are recorded by the instantiation but stay symbolic
// in the term.
func Instantiate(s *Store, t Term, inst *Instantiation) (Term, error) {
	if inst.Size() == 0 {
		return t, nil
	}
	for _, sym := range FreeSymbols(t) {
		if sym.Owner != inst.Owner {
			continue
		}
		if _, ok := inst.Lookup(sym); !ok {
			return nil, &UncoveredSymbolError{Symbol: sym}
		}
	}
	return s.Rewrite(t, func(x Term, _ int) Term {
		sym, ok := x.(*Symbol)
		if !ok {
			return nil
		}
		res, ok := inst.Lookup(sym)
		if !ok || res.Kind != ExplicitResolution {
			return x
		}
		return res.Term
	}), nil
}

// ApplyCurry substitutes the bound variable of a curry with an argument
// and returns the resulting return type.
// The argument of a non-dependent curry is ignored.
func ApplyCurry(s *Store, c *Curry, arg Term) Term {
	if c.Rune == nil {
		return c.ReturnTy
	}
	return s.Rewrite(c.ReturnTy, func(x Term, depth int) Term {
		r, ok := x.(*Rune)
		if !ok || r.Index != depth {
			return nil
		}
		return arg
	})
}

// InstantiateCurries applies the leading dependent curries of a term to
// a list of arguments.
func InstantiateCurries(s *Store, t Term, args []Term) (Term, error) {
	for i, arg := range args {
		c, ok := t.(*Curry)
		if !ok || c.Rune == nil {
			return nil, &ArityMismatchError{What: t.String(), Want: i, Got: len(args)}
		}
		t = ApplyCurry(s, c, arg)
	}
	return t, nil
}

// CountDependentCurries returns the number of leading dependent curries of a term.
func CountDependentCurries(t Term) int {
	n := 0
	for {
		c, ok := t.(*Curry)
		if !ok || c.Rune == nil {
			return n
		}
		n++
		t = c.ReturnTy
	}
}

// NewGenericType wraps a type in one dependent curry per template parameter,
// outermost parameter first.
func NewGenericType(s *Store, kind CurryKind, params []*Symbol, t Term) Term {
	for i := len(params) - 1; i >= 0; i-- {
		param := params[i]
		ty := param.Ty
		if ty == nil {
			panic(fmterr.Internal(errors.Errorf("template parameter %s has no type", param.Name)))
		}
		t = s.NewCurryDependent(kind, Invariant, param, ty, t)
	}
	return t
}

// InstantiateCurry applies a curry to an argument. A nil argument
// applies a non-dependent curry. The presence of the argument must
// agree with the presence of a bound variable.
func InstantiateCurry(s *Store, c *Curry, arg Term) (Term, error) {
	want, got := 0, 0
	if c.Rune != nil {
		want = 1
	}
	if arg != nil {
		got = 1
	}
	if want != got {
		return nil, &ArityMismatchError{What: c.String(), Want: want, Got: got}
	}
	return ApplyCurry(s, c, arg), nil
}
