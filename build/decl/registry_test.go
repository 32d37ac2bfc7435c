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

package decl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/husky-lang/termres/build/decl"
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
      - {name: y, type: f32}
traits:
  - path: geo::Norm
    methods:
      - {name: norm, self: "&", return: f32}
  - path: geo::Walk
    methods:
      - {name: go, self: "&"}
impls:
  - params: [A, B]
    for: Pair[A, B]
    methods:
      - {name: first, self: "&", return: A}
      - name: swap
        self: move
        return: Pair[B, A]
  - for: Point
    trait: geo::Norm
    methods:
      - {name: norm, self: "&", return: f32}
  - for: Point
    trait: Walk
    methods:
      - {name: go, self: "&"}
fns:
  - {path: geo::id, params: [T], sig: "func(T) T"}
`

func newWorld(t *testing.T) (*term.Store, *decl.Registry) {
	t.Helper()
	store := term.NewStore()
	r, err := decl.NewPrelude(store)
	if err != nil {
		t.Fatal(err)
	}
	if err := decl.LoadYAMLBytes(r, []byte(world)); err != nil {
		t.Fatalf("cannot load world:\n%+v", err)
	}
	return store, r
}

func TestResolvePath(t *testing.T) {
	_, r := newWorld(t)
	tests := []struct {
		path term.Path
		want term.Path
	}{
		{path: "geo::Pair", want: "geo::Pair"},
		{path: "Pair", want: "geo::Pair"},
		{path: "i32", want: term.I32Path},
		{path: "num::i32", want: term.I32Path},
		{path: "Ref", want: term.RefPath},
		{path: "id", want: "geo::id"},
		{path: "Missing"},
		{path: "air"},
	}
	for _, test := range tests {
		got, ok := r.ResolvePath(test.path)
		if ok != (test.want != "") || got != test.want {
			t.Errorf("ResolvePath(%q) = %q, %v: want %q", test.path, got, ok, test.want)
		}
	}
}

func TestType(t *testing.T) {
	store, r := newWorld(t)
	pair, err := r.Type("geo::Pair")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, field := range pair.Fields {
		if field.Ty.Tier() != term.Ethereal {
			t.Errorf("field %s has tier %s", field.Name, field.Ty.Tier())
		}
		got = append(got, field.Name+": "+field.Ty.String())
	}
	want := []string{"first: A", "second: B"}
	if !cmp.Equal(got, want) {
		t.Errorf("got fields %v but want %v\ndiff:\n%s", got, want, cmp.Diff(got, want))
	}
	if pair.Fields[0].Ty != term.Term(pair.Params[0]) {
		t.Errorf("field type is not the template parameter of the type")
	}
	again, _ := r.Type("geo::Pair")
	if again != pair {
		t.Errorf("ethereal declaration is computed twice")
	}
	point, err := r.Type("geo::Point")
	if err != nil {
		t.Fatal(err)
	}
	if f32 := store.NewTypeOntology(term.Ethereal, term.F32Path); point.Fields[0].Ty != term.Term(f32) {
		t.Errorf("got field type %s but want %s", point.Fields[0].Ty, f32)
	}
	_, err = r.Type("geo::Missing")
	var unresolved *term.UnresolvedPathError
	if !errors.As(err, &unresolved) {
		t.Errorf("got error %v but want an unresolved path", err)
	}
}

func TestFn(t *testing.T) {
	store, r := newWorld(t)
	id, err := r.Fn("geo::id")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := id.Type(store).String(), "{r0: Type} -> fn(r0) -> r0"; got != want {
		t.Errorf("got %s but want %s", got, want)
	}
}

func TestImpls(t *testing.T) {
	_, r := newWorld(t)
	intrinsic, err := r.TypeImpls("geo::Pair")
	if err != nil {
		t.Fatal(err)
	}
	if len(intrinsic) != 1 {
		t.Fatalf("got %d intrinsic impl blocks but want 1", len(intrinsic))
	}
	if got, want := intrinsic[0].String(), "impl<A, B> Pair<A, B>"; got != want {
		t.Errorf("got %s but want %s", got, want)
	}
	swap, ok := intrinsic[0].Method("swap")
	if !ok {
		t.Fatalf("method swap not found")
	}
	if got, want := swap.Return.String(), "Pair<B, A>"; got != want {
		t.Errorf("got %s but want %s", got, want)
	}
	tests := []struct {
		inScope []term.Path
		want    []term.Path
	}{
		{},
		{inScope: []term.Path{"Norm"}, want: []term.Path{"geo::Norm"}},
		{inScope: []term.Path{"geo::Norm", "geo::Walk"}, want: []term.Path{"geo::Norm", "geo::Walk"}},
	}
	for _, test := range tests {
		impls, err := r.TraitImpls("geo::Point", test.inScope)
		if err != nil {
			t.Fatal(err)
		}
		var got []term.Path
		for _, impl := range impls {
			got = append(got, impl.Trait)
		}
		if !cmp.Equal(got, test.want) {
			t.Errorf("traits in scope %v: got %v but want %v", test.inScope, got, test.want)
		}
	}
}

func TestPreludeOption(t *testing.T) {
	_, r := newWorld(t)
	impls, err := r.TypeImpls(term.OptionPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(impls) != 1 {
		t.Fatalf("got %d impl blocks for Option but want 1", len(impls))
	}
	unwrap, ok := impls[0].Method("unwrap")
	if !ok || unwrap.SelfContract != term.Move {
		t.Errorf("unexpected unwrap method %+v", unwrap)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "types:\n  - path: a::T\n  - path: a::T\n",
			want: "a::T already declared",
		},
		{
			src:  "types:\n  - path: a::T\n    fields:\n      - {name: x, type: \"[]i32\"}\n",
			want: "field a::T.x",
		},
		{
			src:  "fns:\n  - {path: a::f, sig: i32}\n",
			want: "is not a callable",
		},
		{
			src:  "impls:\n  - for: i32\n    methods:\n      - {name: f, self: \"&&\"}\n",
			want: "unknown receiver",
		},
		{
			src:  "impls:\n  - for: i32\n    methods:\n      - {name: f, self: \"&&\"}\n",
			want: "impl block 0 for i32:",
		},
		{
			src:  "traits:\n  - path: a::Tr\n    methods:\n      - {name: f, return: \"[]i32\"}\n",
			want: "trait a::Tr:",
		},
		{
			src:  "typs: []\n",
			want: "cannot decode declarations",
		},
	}
	for _, test := range tests {
		r, err := decl.NewPrelude(term.NewStore())
		if err != nil {
			t.Fatal(err)
		}
		err = decl.LoadYAMLBytes(r, []byte(test.src))
		if err == nil {
			t.Errorf("%q: expected an error", test.src)
			continue
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("%q: got error %q but want an error containing %q", test.src, err.Error(), test.want)
		}
	}
}

func TestUnknownTraitMember(t *testing.T) {
	r, err := decl.NewPrelude(term.NewStore())
	if err != nil {
		t.Fatal(err)
	}
	src := `
impls:
  - for: i32
    trait: Neg
    methods:
      - {name: negate, self: move, return: i32}
  - for: i64
    trait: Neg
    methods:
      - {name: neg, self: move, return: i64}
`
	if err := decl.LoadYAMLBytes(r, []byte(src)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.TraitImpls(term.I32Path, []term.Path{term.NegTrait}); err == nil || !strings.Contains(err.Error(), "not a member of trait") {
		t.Errorf("got error %v but want a non-member error", err)
	}
	// The malformed block only fails the queries on its own type.
	impls, err := r.TraitImpls(term.I64Path, []term.Path{term.NegTrait})
	if err != nil || len(impls) != 1 {
		t.Errorf("got impls %v and error %v but want one impl for i64", impls, err)
	}
	if _, err := r.TypeImpls(term.OptionPath); err != nil {
		t.Errorf("unexpected error on the impls of Option: %v", err)
	}
}
