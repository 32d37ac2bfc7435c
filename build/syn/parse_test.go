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

package syn_test

import (
	"go/token"
	"strings"
	"testing"

	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/husky-lang/termres/internal/base/scope"
)

func TestParseExpr(t *testing.T) {
	tests := []struct {
		src  string
		kind syn.Kind
		want string
	}{
		{src: "-x", kind: syn.PrefixExpr, want: "-x"},
		{src: "!b", kind: syn.PrefixExpr, want: "!b"},
		{src: "&x", kind: syn.PrefixExpr, want: "&x"},
		{src: "*x", kind: syn.PrefixExpr, want: "*x"},
		{src: "(p.first)", kind: syn.FieldExpr, want: "p.first"},
		{src: "p.first()", kind: syn.MethodCallExpr, want: "p.first()"},
		{src: "a + b*2", kind: syn.BinaryExpr, want: "a + b * 2"},
		{src: "a < b && c", kind: syn.BinaryExpr, want: "a < b && c"},
		{src: "id[i32](1)", kind: syn.CallExpr, want: "id[i32](1)"},
		{src: "f(1.5, true)", kind: syn.CallExpr, want: "f(1.5, true)"},
		{src: "v[3]", kind: syn.IndexExpr, want: "v[3]"},
		{src: "Pair{1, true}", kind: syn.AggregateExpr, want: "Pair{1, true}"},
		{src: "Pair[i32, bool]{first: 1, second: true}", kind: syn.AggregateExpr, want: "Pair[i32, bool]{first: 1, second: true}"},
		{src: `"hello"`, kind: syn.LiteralExpr, want: `"hello"`},
	}
	store := term.NewStore()
	for _, test := range tests {
		r := syn.NewRegion("test::f")
		idx, err := syn.ParseExpr(store, r, test.src)
		if err != nil {
			t.Errorf("%q: %v", test.src, err)
			continue
		}
		if got := r.Expr(idx).Kind; got != test.kind {
			t.Errorf("%q: got kind %s but want %s", test.src, got, test.kind)
		}
		if got := r.Source(idx); got != test.want {
			t.Errorf("%q: got %q but want %q", test.src, got, test.want)
		}
		if r.Expr(idx).Node == nil {
			t.Errorf("%q: expression has no source node", test.src)
		}
	}
}

func TestParseExprErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "func() {}", want: "not supported"},
		{src: "Pair{first: 1, 2}", want: "mixture"},
		{src: "a << 2", want: "binary operator << not supported"},
		{src: "x +", want: "expected operand"},
	}
	store := term.NewStore()
	for _, test := range tests {
		_, err := syn.ParseExpr(store, syn.NewRegion("test::f"), test.src)
		if err == nil {
			t.Errorf("%q: expected an error", test.src)
			continue
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("%q: got error %q but want an error containing %q", test.src, err.Error(), test.want)
		}
	}
}

func TestParseBody(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "x := 1\nvar y i32 = 2\nreturn x",
			want: "{ let x = 1; let mut y: i32 = 2; return x; }",
		},
		{
			src:  "var x u8 = 1\nx++\nx",
			want: "{ let mut x: u8 = 1; x++; x }",
		},
		{
			src:  "{\nx := p.first\n}\n",
			want: "{ { let x = p.first; }; }",
		},
	}
	store := term.NewStore()
	for _, test := range tests {
		r := syn.NewRegion("test::f")
		root, err := syn.ParseBody(store, r, test.src)
		if err != nil {
			t.Errorf("%q: %v", test.src, err)
			continue
		}
		if r.Root != root {
			t.Errorf("%q: root not set", test.src)
		}
		if got := r.Source(root); got != test.want {
			t.Errorf("%q: got %q but want %q", test.src, got, test.want)
		}
	}
}

func TestParseBodyPositions(t *testing.T) {
	r := syn.NewRegion("test::f")
	root, err := syn.ParseBody(term.NewStore(), r, "x := 1\nx.first")
	if err != nil {
		t.Fatal(err)
	}
	tail := r.Expr(root).Tail
	pos := r.FSet.Position(r.Expr(tail).Node.Pos())
	if pos.Line != 2 || pos.Filename != "test::f" {
		t.Errorf("got position %s but want test::f:2", pos)
	}
}

func TestParseType(t *testing.T) {
	store := term.NewStore()
	a := store.NewSymbol(term.Declarative, term.TypeSymbol, "test::Pair", 0, "A", store.NewCategory(term.Declarative, 0))
	params := scope.NewScope[term.Term](nil)
	params.Define("A", a)
	tests := []struct {
		src  string
		want string
	}{
		{src: "i32", want: "i32"},
		{src: "Type", want: "Type"},
		{src: "Pair[A, i32]", want: "Pair<A, i32>"},
		{src: "core.num.i32", want: "i32"},
		{src: "&A", want: "Ref<A>"},
		{src: "*Pair[i32, A]", want: "RefMut<Pair<i32, A>>"},
		{src: "~A", want: "Leash<A>"},
		{src: "func(A, bool) i32", want: "fn(A, bool) -> i32"},
		{src: "func()", want: "fn() -> unit"},
		{src: "Array[f32, 3]", want: "Array<f32, 3>"},
	}
	for _, test := range tests {
		got, err := syn.ParseType(store, token.NewFileSet(), test.src, params)
		if err != nil {
			t.Errorf("%q: %v", test.src, err)
			continue
		}
		if got.Tier() != term.Declarative {
			t.Errorf("%q: got tier %s", test.src, got.Tier())
		}
		if got.String() != test.want {
			t.Errorf("%q: got %s but want %s", test.src, got, test.want)
		}
	}
	got, _ := syn.ParseType(store, token.NewFileSet(), "A", params)
	if got != term.Term(a) {
		t.Errorf("got %s but want the template parameter A", got)
	}
	if _, err := syn.ParseType(store, token.NewFileSet(), "[]i32", nil); err == nil {
		t.Errorf("expected an error for a slice type")
	}
}
