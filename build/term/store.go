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
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	tsync "github.com/husky-lang/termres/base/sync"
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/pkg/errors"
)

// Store interns terms.
//
// The program store is shared by all the regions resolved concurrently.
// It is append-only: lookups do not lock, insertions are serialised.
// A region creates a local store with [Store.Local] to build terms
// containing holes. A local store forwards hole-free terms to its parent
// and is owned by a single goroutine.
type Store struct {
	parent *Store
	ids    *atomic.Uint64

	mu    sync.Mutex
	terms tsync.Map[string, Term]

	// ethereal caches the conversion of declarative terms.
	ethereal tsync.Map[Term, Term]

	holes int
}

// NewStore returns a new program store.
func NewStore() *Store {
	return &Store{ids: &atomic.Uint64{}}
}

// Local returns a store for terms of one region.
func (s *Store) Local() *Store {
	return &Store{parent: s, ids: s.ids}
}

// Program returns the program store: s itself or the parent of a local store.
func (s *Store) Program() *Store {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

// IsLocal returns true if the store is a region store.
func (s *Store) IsLocal() bool {
	return s.parent != nil
}

// Size returns the number of terms interned by the store.
func (s *Store) Size() int {
	return s.terms.Size()
}

func (s *Store) intern(key string, t Term) Term {
	n := t.base()
	if n.tier == Fluffy && s.parent == nil {
		panic(fmterr.Internal(errors.Errorf("term %s contains holes and cannot escape its region", t)))
	}
	if n.tier != Fluffy && s.parent != nil {
		return s.parent.intern(key, t)
	}
	if got, ok := s.terms.Load(key); ok {
		return got
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if got, ok := s.terms.Load(key); ok {
		return got
	}
	n.id = s.ids.Add(1)
	s.terms.Store(key, t)
	return t
}

type keyBuilder struct {
	strings.Builder
}

func newKey(tag byte, tier Tier) *keyBuilder {
	k := &keyBuilder{}
	k.WriteByte(tag)
	k.WriteByte('0' + byte(tier))
	return k
}

func (k *keyBuilder) str(s string) *keyBuilder {
	k.WriteByte('|')
	k.WriteString(strconv.Quote(s))
	return k
}

func (k *keyBuilder) num(n int) *keyBuilder {
	k.WriteByte('|')
	k.WriteString(strconv.Itoa(n))
	return k
}

func (k *keyBuilder) term(t Term) *keyBuilder {
	k.WriteByte('|')
	if t == nil {
		k.WriteByte('-')
		return k
	}
	k.WriteString(strconv.FormatUint(ID(t), 10))
	return k
}

func leafTier(tier Tier) Tier {
	if tier == Fluffy {
		return Ethereal
	}
	return tier
}

// joinTier computes the tier of a term from the tiers of its parts.
// Declarative and ethereal parts cannot be mixed.
func joinTier(tier Tier, parts ...Term) Tier {
	tier = leafTier(tier)
	for _, part := range parts {
		if part == nil {
			continue
		}
		pt := part.Tier()
		if (pt == Declarative) != (tier == Declarative) {
			panic(fmterr.Internal(errors.Errorf("cannot mix %s term %s with %s terms", pt, part, tier)))
		}
		if pt > tier {
			tier = pt
		}
	}
	return tier
}

// NewLiteral returns a literal term.
func (s *Store) NewLiteral(tier Tier, kind LiteralKind, text string) *Literal {
	tier = leafTier(tier)
	key := newKey('L', tier).num(int(kind)).str(text)
	return s.intern(key.String(), &Literal{
		node: node{tier: tier},
		Kind: kind,
		Text: text,
	}).(*Literal)
}

// NewTypeOntology returns a type constructor applied to some arguments.
func (s *Store) NewTypeOntology(tier Tier, path Path, args ...Term) *TypeOntology {
	tier = joinTier(tier, args...)
	key := newKey('O', tier).str(string(path))
	for _, arg := range args {
		key.term(arg)
	}
	if len(args) == 0 {
		args = nil
	}
	return s.intern(key.String(), &TypeOntology{
		node: node{tier: tier},
		Path: path,
		Args: append([]Term(nil), args...),
	}).(*TypeOntology)
}

// NewApplication applies a function term to an argument.
// Applying a type constructor returns the normalised type constructor
// with one more argument.
func (s *Store) NewApplication(fn, arg Term) Term {
	if to, ok := fn.(*TypeOntology); ok {
		args := append(append([]Term{}, to.Args...), arg)
		return s.NewTypeOntology(to.tier, to.Path, args...)
	}
	tier := joinTier(fn.Tier(), fn, arg)
	key := newKey('A', tier).term(fn).term(arg)
	return s.intern(key.String(), &Application{
		node:     node{tier: tier},
		Function: fn,
		Argument: arg,
	})
}

// NewCategory returns the category of the given universe.
func (s *Store) NewCategory(tier Tier, universe int) *Category {
	tier = leafTier(tier)
	key := newKey('C', tier).num(universe)
	return s.intern(key.String(), &Category{
		node:     node{tier: tier},
		Universe: universe,
	}).(*Category)
}

// NewSymbol returns the template parameter of a declaration.
// A symbol is identified by its owner, its index and its type.
func (s *Store) NewSymbol(tier Tier, kind SymbolKind, owner Path, index int, name string, ty Term) *Symbol {
	tier = joinTier(tier, ty)
	key := newKey('S', tier).num(int(kind)).str(string(owner)).num(index).str(name).term(ty)
	return s.intern(key.String(), &Symbol{
		node:  node{tier: tier},
		Kind:  kind,
		Owner: owner,
		Index: index,
		Name:  name,
		Ty:    ty,
	}).(*Symbol)
}

func (s *Store) newRune(tier Tier, index int) *Rune {
	tier = leafTier(tier)
	key := newKey('R', tier).num(index)
	return s.intern(key.String(), &Rune{
		node:  node{tier: tier},
		Index: index,
	}).(*Rune)
}

func (s *Store) curry(kind CurryKind, variance Variance, dependent bool, paramTy, returnTy Term) *Curry {
	tier := joinTier(paramTy.Tier(), paramTy, returnTy)
	var rune *Rune
	var runeT Term
	if dependent {
		rune = s.newRune(tier, 0)
		runeT = rune
	}
	key := newKey('F', tier).num(int(kind)).num(int(variance)).term(runeT).term(paramTy).term(returnTy)
	return s.intern(key.String(), &Curry{
		node:     node{tier: tier},
		Kind:     kind,
		Variance: variance,
		Rune:     rune,
		ParamTy:  paramTy,
		ReturnTy: returnTy,
	}).(*Curry)
}

// NewCurry returns a non-dependent arrow paramTy -> returnTy.
func (s *Store) NewCurry(kind CurryKind, variance Variance, paramTy, returnTy Term) *Curry {
	return s.curry(kind, variance, false, paramTy, returnTy)
}

// NewCurryDependent returns the arrow (sym: paramTy) -> returnTy.
// All the occurrences of sym in returnTy are replaced by runes so that
// two curries differing only by the choice of their symbol are the same term.
func (s *Store) NewCurryDependent(kind CurryKind, variance Variance, sym *Symbol, paramTy, returnTy Term) *Curry {
	bound := s.rewrite(returnTy, 0, func(t Term, depth int) Term {
		if t == Term(sym) {
			return s.newRune(t.Tier(), depth)
		}
		return nil
	})
	return s.curry(kind, variance, true, paramTy, bound)
}

// NewRitchie returns a callable signature.
func (s *Store) NewRitchie(kind RitchieKind, params []Param, ret Term) *Ritchie {
	parts := make([]Term, 0, len(params)+1)
	for _, param := range params {
		parts = append(parts, param.Ty)
	}
	parts = append(parts, ret)
	tier := joinTier(ret.Tier(), parts...)
	key := newKey('Y', tier).num(int(kind))
	for _, param := range params {
		key.num(int(param.Contract)).term(param.Ty)
	}
	key.term(ret)
	if len(params) == 0 {
		params = nil
	}
	return s.intern(key.String(), &Ritchie{
		node:   node{tier: tier},
		Kind:   kind,
		Params: append([]Param(nil), params...),
		Return: ret,
	}).(*Ritchie)
}

// NewTraitConstraint returns the constraint ty: trait.
func (s *Store) NewTraitConstraint(ty, trait Term) *TraitConstraint {
	tier := joinTier(ty.Tier(), ty, trait)
	key := newKey('T', tier).term(ty).term(trait)
	return s.intern(key.String(), &TraitConstraint{
		node:  node{tier: tier},
		Ty:    ty,
		Trait: trait,
	}).(*TraitConstraint)
}

// NewHole returns a new hole. Holes are never shared: every call returns
// a different term. Only region stores can create holes.
func (s *Store) NewHole(kind HoleKind, src Provenance) *Hole {
	if s.parent == nil {
		panic(fmterr.Internal(errors.Errorf("cannot create a hole in the program store")))
	}
	h := &Hole{
		node:   node{tier: Fluffy, id: s.ids.Add(1)},
		Kind:   kind,
		Index:  s.holes,
		Source: src,
	}
	s.holes++
	return h
}
