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

package dispatch_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/husky-lang/termres/build/decl"
	"github.com/husky-lang/termres/build/dispatch"
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/term"
)

const world = `
types:
  - path: geo::Pair
    params: [A, B]
    fields:
      - {name: first, type: A}
      - {name: second, type: B}
  - path: geo::Point
    fields:
      - {name: x, type: f32}
traits:
  - path: geo::Norm
    methods:
      - {name: norm, self: "&", return: f32}
  - path: geo::Walk
    methods:
      - {name: go, self: "&"}
  - path: geo::Run
    methods:
      - {name: go, self: "&"}
impls:
  - params: [A, B]
    for: Pair[A, B]
    methods:
      - {name: first, self: "&", return: A}
      - {name: swap, self: move, return: "Pair[B, A]"}
      - {name: with, self: move, template: [C], params: [C], return: "Pair[A, C]"}
      - {name: tie, self: "~", return: "~A"}
      - {name: left, self: "&", return: A}
  - for: Point
    methods:
      - {name: norm, self: "&", return: f64}
  - for: Point
    trait: Norm
    methods:
      - {name: norm, self: "&", return: f32}
  - for: Point
    trait: Walk
    methods:
      - {name: go, self: "&"}
  - for: Point
    trait: Run
    methods:
      - {name: go, self: "&"}
  - params: [B]
    for: Pair[i32, B]
    methods:
      - {name: left, self: "&", return: i32}
`

type fixture struct {
	store *term.Store
	decls *decl.Registry
	res   *dispatch.Resolver
}

func newFixture(t *testing.T, maxIndirections int) *fixture {
	t.Helper()
	store := term.NewStore()
	r, err := decl.NewPrelude(store)
	if err != nil {
		t.Fatal(err)
	}
	if err := decl.LoadYAMLBytes(r, []byte(world)); err != nil {
		t.Fatalf("cannot load world:\n%+v", err)
	}
	return &fixture{store: store, decls: r, res: dispatch.NewResolver(r, maxIndirections)}
}

func (f *fixture) typ(path term.Path, args ...term.Term) term.Term {
	return f.store.NewTypeOntology(term.Ethereal, path, args...)
}

func (f *fixture) pair() term.Term {
	return f.typ("geo::Pair", f.typ(term.I32Path), f.typ(term.BoolPath))
}

func (f *fixture) method(t *testing.T, recv term.Term, ident string, inScope ...term.Path) *dispatch.Candidate {
	t.Helper()
	c, err := f.res.ResolveMethod(f.store, dispatch.Request{
		Receiver: recv,
		Ident:    ident,
		Quary:    term.StackQuary(0, false),
		InScope:  inScope,
	})
	if err != nil {
		t.Fatalf("cannot resolve %s on %s:\n%+v", ident, recv, err)
	}
	if c == nil {
		t.Fatalf("method %s not found on %s", ident, recv)
	}
	return c
}

func TestIntrinsicMethod(t *testing.T) {
	f := newFixture(t, 0)
	tests := []struct {
		ident string
		want  string
	}{
		{ident: "first", want: "Pair::first: fn() -> i32"},
		{ident: "swap", want: "Pair::swap: fn() -> Pair<bool, i32>"},
		{ident: "with", want: "Pair::with: {r0: Type} -> fn(r0) -> Pair<i32, r0>"},
		{ident: "tie", want: "Pair::tie: fn() -> Leash<i32>"},
	}
	for _, test := range tests {
		got := f.method(t, f.pair(), test.ident).String()
		if got != test.want {
			t.Errorf("incorrect candidate for %s: got %q but want %q", test.ident, got, test.want)
		}
	}
}

func TestSelfPlace(t *testing.T) {
	f := newFixture(t, 0)
	first := f.method(t, f.pair(), "first")
	q, ok := first.Instantiation.SelfPlace()
	if !ok {
		t.Fatalf("no self place in %s", first.Instantiation)
	}
	if want := term.StackQuary(0, false); q != want {
		t.Errorf("got self place %s but want %s", q, want)
	}
	swap := f.method(t, f.pair(), "swap")
	if _, ok := swap.Instantiation.SelfPlace(); ok {
		t.Errorf("moved receiver has a self place: %s", swap.Instantiation)
	}
}

func TestIndirections(t *testing.T) {
	f := newFixture(t, 0)
	recv := f.typ(term.RefPath, f.pair())
	c := f.method(t, recv, "first")
	if got, want := c.String(), "Pair::first: fn() -> i32 via Ref"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	want := []dispatch.Indirection{{Wrapper: term.RefPath, Quary: term.Quary{Kind: term.RefQuary, Local: 0}}}
	if !cmp.Equal(c.Indirections, want) {
		t.Errorf("incorrect indirections:\n%s", cmp.Diff(c.Indirections, want))
	}
	if c.Quary != want[0].Quary {
		t.Errorf("got receiver quary %s but want %s", c.Quary, want[0].Quary)
	}
}

func TestNestedIndirections(t *testing.T) {
	f := newFixture(t, 0)
	recv := f.typ(term.LeashPath, f.typ(term.RefMutPath, f.typ(term.RefPath, f.pair())))
	c := f.method(t, recv, "first")
	var got []term.Path
	for _, ind := range c.Indirections {
		got = append(got, ind.Wrapper)
	}
	want := []term.Path{term.LeashPath, term.RefMutPath, term.RefPath}
	if !cmp.Equal(got, want) {
		t.Errorf("got wrappers %v but want %v", got, want)
	}
	if c.Quary.Local != term.NoLocal {
		t.Errorf("place behind a leash refers to local %d", c.Quary.Local)
	}
}

func TestMaxIndirections(t *testing.T) {
	f := newFixture(t, 2)
	recv := f.typ(term.LeashPath, f.typ(term.RefMutPath, f.typ(term.RefPath, f.pair())))
	_, err := f.res.ResolveMethod(f.store, dispatch.Request{Receiver: recv, Ident: "first"})
	if !fmterr.IsInternal(err) {
		t.Errorf("got error %v but want an internal error", err)
	}
}

func TestIntrinsicFirst(t *testing.T) {
	f := newFixture(t, 0)
	point := f.typ("geo::Point")
	c := f.method(t, point, "norm", "geo::Norm")
	if c.Impl.Trait != "" {
		t.Errorf("trait method %s chosen over intrinsic method", c)
	}
	if got, want := c.String(), "Point::norm: fn() -> f64"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}

func TestTraitMethod(t *testing.T) {
	f := newFixture(t, 0)
	point := f.typ("geo::Point")
	c := f.method(t, f.typ(term.RefPath, point), "go", "Walk")
	if got, want := c.String(), "Walk::go: fn() -> unit via Ref"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	missing, err := f.res.ResolveMethod(f.store, dispatch.Request{Receiver: point, Ident: "go"})
	if err != nil || missing != nil {
		t.Errorf("trait method resolved without its trait in scope: %v, %v", missing, err)
	}
}

func TestAmbiguous(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.res.ResolveMethod(f.store, dispatch.Request{
		Receiver: f.typ("geo::Point"),
		Ident:    "go",
		InScope:  []term.Path{"geo::Walk", "geo::Run"},
	})
	var ambiguous *dispatch.AmbiguousDispatchError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("got error %v but want an ambiguous dispatch error", err)
	}
	want := []term.Path{"geo::Walk", "geo::Run"}
	if !cmp.Equal(ambiguous.Traits, want) {
		t.Errorf("got traits %v but want %v", ambiguous.Traits, want)
	}
}

func TestAmbiguousIntrinsic(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.res.ResolveMethod(f.store, dispatch.Request{
		Receiver: f.pair(),
		Ident:    "left",
	})
	var ambiguous *dispatch.AmbiguousDispatchError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("got error %v but want an ambiguous dispatch error", err)
	}
	if len(ambiguous.Traits) != 0 || len(ambiguous.Impls) != 2 {
		t.Errorf("got traits %v and impls %v but want two intrinsic impls", ambiguous.Traits, ambiguous.Impls)
	}
	// Only the generic block applies to Pair<u8, bool>.
	c := f.method(t, f.typ("geo::Pair", f.typ(term.U8Path), f.typ(term.BoolPath)), "left")
	if got, want := c.String(), "Pair::left: fn() -> u8"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, 0)
	tests := []term.Term{
		f.pair(),
		f.typ(term.RefPath, f.pair()),
		f.store.Local().NewHole(term.AnyType, term.Provenance{}),
	}
	for _, recv := range tests {
		c, err := f.res.ResolveMethod(f.store, dispatch.Request{Receiver: recv, Ident: "missing"})
		if err != nil || c != nil {
			t.Errorf("ResolveMethod(%s, missing) = %v, %v: want nil, nil", recv, c, err)
		}
	}
}

func TestField(t *testing.T) {
	f := newFixture(t, 0)
	tests := []struct {
		recv  term.Term
		ident string
		want  string
	}{
		{recv: f.pair(), ident: "first", want: "Pair.first: i32"},
		{recv: f.pair(), ident: "second", want: "Pair.second: bool"},
		{recv: f.typ(term.RefMutPath, f.pair()), ident: "second", want: "Pair.second: bool via RefMut"},
	}
	for _, test := range tests {
		c, err := f.res.ResolveField(f.store, dispatch.Request{Receiver: test.recv, Ident: test.ident})
		if err != nil {
			t.Fatal(err)
		}
		if c == nil {
			t.Fatalf("field %s not found on %s", test.ident, test.recv)
		}
		if got := c.String(); got != test.want {
			t.Errorf("got %q but want %q", got, test.want)
		}
	}
	c, err := f.res.ResolveField(f.store, dispatch.Request{Receiver: f.pair(), Ident: "third"})
	if err != nil || c != nil {
		t.Errorf("unknown field resolved: %v, %v", c, err)
	}
}

func TestRestrictToTrait(t *testing.T) {
	f := newFixture(t, 0)
	c, err := f.res.ResolveMethod(f.store, dispatch.Request{
		Receiver: f.typ("geo::Point"),
		Ident:    "norm",
		Trait:    "geo::Norm",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.String(), "Norm::norm: fn() -> f32"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}
