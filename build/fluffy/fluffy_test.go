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

package fluffy_test

import (
	"errors"
	"testing"

	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/term"
)

func named(s *term.Store, path term.Path, args ...term.Term) term.Term {
	return s.NewTypeOntology(term.Ethereal, path, args...)
}

func TestBind(t *testing.T) {
	prog := term.NewStore()
	table := fluffy.NewTable(prog)
	h := table.NewHole(term.ImplicitType, term.Provenance{})
	i32 := named(prog, term.I32Path)
	if err := table.Bind(h, i32); err != nil {
		t.Fatal(err)
	}
	if err := table.Bind(h, i32); err != nil {
		t.Errorf("binding a hole again to the same term: %v", err)
	}
	err := table.Bind(h, named(prog, term.BoolPath))
	if !fmterr.IsInternal(err) {
		t.Errorf("got error %v but want an internal error", err)
	}
	if got, _ := table.Lookup(h); got != i32 {
		t.Errorf("got binding %s but want %s", got, i32)
	}
}

func TestResolveChain(t *testing.T) {
	prog := term.NewStore()
	table := fluffy.NewTable(prog)
	local := table.Store()
	h1 := table.NewHole(term.ImplicitType, term.Provenance{})
	h2 := table.NewHole(term.UnspecifiedIntegerType, term.Provenance{})
	opt := named(local, term.OptionPath, h1)
	if err := table.Bind(h1, h2); err != nil {
		t.Fatal(err)
	}
	if got := table.Resolve(opt); got != named(local, term.OptionPath, h2) {
		t.Errorf("got %s but want Option<%s>", got, h2)
	}
	if err := table.Bind(h2, named(prog, term.I64Path)); err != nil {
		t.Fatal(err)
	}
	got, err := table.Finalise(opt)
	if err != nil {
		t.Fatal(err)
	}
	if want := named(prog, term.OptionPath, named(prog, term.I64Path)); got != want {
		t.Errorf("got %p:%s but want the program term %p:%s", got, got, want, want)
	}
}

func TestOccursCheck(t *testing.T) {
	prog := term.NewStore()
	table := fluffy.NewTable(prog)
	h := table.NewHole(term.AnyType, term.Provenance{})
	err := table.Bind(h, named(table.Store(), term.RefPath, h))
	var occurs *fluffy.OccursError
	if !errors.As(err, &occurs) {
		t.Errorf("got error %v but want an occurs error", err)
	}
	if err := table.Bind(h, h); err != nil {
		t.Errorf("binding a hole to itself: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	prog := term.NewStore()
	table := fluffy.NewTable(prog)
	hInt := table.NewHole(term.UnspecifiedIntegerType, term.Provenance{Expr: 0})
	hFloat := table.NewHole(term.UnspecifiedFloatType, term.Provenance{Expr: 1})
	hBound := table.NewHole(term.UnspecifiedIntegerType, term.Provenance{Expr: 2})
	hImplicit := table.NewHole(term.ImplicitType, term.Provenance{Expr: 3})
	if err := table.Bind(hBound, named(prog, term.U8Path)); err != nil {
		t.Fatal(err)
	}
	if err := table.ApplyDefaults(fluffy.DefaultDefaults()); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		hole *term.Hole
		want term.Path
	}{
		{hole: hInt, want: term.I32Path},
		{hole: hFloat, want: term.F64Path},
		{hole: hBound, want: term.U8Path},
	}
	for _, test := range tests {
		got, err := table.Finalise(test.hole)
		if err != nil {
			t.Errorf("hole %s: %v", test.hole, err)
			continue
		}
		if term.PathOf(got) != test.want {
			t.Errorf("hole %s: got %s but want %s", test.hole, got, test.want)
		}
	}
	_, err := table.Finalise(hImplicit)
	var annotation *fluffy.AnnotationNeededError
	if !errors.As(err, &annotation) || annotation.Hole != hImplicit {
		t.Errorf("got error %v but want annotation needed for %s", err, hImplicit)
	}
}

func TestDefaultsOfWrongClass(t *testing.T) {
	table := fluffy.NewTable(term.NewStore())
	h := table.NewHole(term.UnspecifiedIntegerType, term.Provenance{})
	err := table.ApplyDefaults(fluffy.Defaults{Int: term.BoolPath, Float: term.F64Path})
	if !fmterr.IsInternal(err) {
		t.Errorf("got error %v but want an internal error", err)
	}
	if _, bound := table.Lookup(h); bound {
		t.Errorf("hole %s bound to a default of the wrong class", h)
	}
}

func TestCompatible(t *testing.T) {
	prog := term.NewStore()
	table := fluffy.NewTable(prog)
	hInt := table.NewHole(term.UnspecifiedIntegerType, term.Provenance{})
	hFloat := table.NewHole(term.UnspecifiedFloatType, term.Provenance{})
	hAny := table.NewHole(term.ImplicitType, term.Provenance{})
	tests := []struct {
		hole *term.Hole
		x    term.Term
		want bool
	}{
		{hole: hInt, x: named(prog, term.U16Path), want: true},
		{hole: hInt, x: named(prog, term.F32Path), want: false},
		{hole: hInt, x: named(prog, term.BoolPath), want: false},
		{hole: hFloat, x: named(prog, term.F32Path), want: true},
		{hole: hInt, x: hFloat, want: false},
		{hole: hInt, x: hAny, want: false},
		{hole: hAny, x: hInt, want: true},
		{hole: hAny, x: named(prog, term.BoolPath), want: true},
	}
	for i, test := range tests {
		if got := fluffy.Compatible(test.hole, test.x); got != test.want {
			t.Errorf("test %d: Compatible(%s, %s) = %v but want %v", i, test.hole, test.x, got, test.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	prog := term.NewStore()
	table := fluffy.NewTable(prog)
	param := prog.NewSymbol(term.Declarative, term.TypeSymbol, "geo::id", 0, "T", prog.NewCategory(term.Declarative, 0))
	tests := []struct {
		x    term.Term
		want string
	}{
		{x: table.NewHole(term.UnspecifiedIntegerType, term.Provenance{}), want: "an integer type"},
		{x: table.NewHole(term.UnspecifiedFloatType, term.Provenance{}), want: "a float type"},
		{x: table.NewHole(term.ImplicitType, term.Provenance{Symbol: param}), want: "the type of template argument T"},
		{x: table.NewHole(term.AnyType, term.Provenance{}), want: "an inferred type"},
		{x: named(prog, term.BoolPath), want: "bool"},
	}
	for _, test := range tests {
		if got := fluffy.Describe(test.x); got != test.want {
			t.Errorf("Describe(%s) = %q but want %q", test.x, got, test.want)
		}
	}
}
