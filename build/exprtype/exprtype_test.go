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

package exprtype_test

import (
	"errors"
	"go/token"
	"strings"
	"testing"

	"github.com/eaburns/pretty"
	"github.com/husky-lang/termres/build/decl"
	"github.com/husky-lang/termres/build/dispatch"
	"github.com/husky-lang/termres/build/expect"
	"github.com/husky-lang/termres/build/exprtype"
	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/syn"
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
  - path: geo::Vec
    fields:
      - {name: x, type: f32}
traits:
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
  - for: Point
    trait: Walk
    methods:
      - {name: go, self: "&"}
  - for: Point
    trait: Run
    methods:
      - {name: go, self: "&"}
  - for: Vec
    trait: Add
    methods:
      - {name: add, self: move, params: [Vec], return: Vec}
  - for: Vec
    trait: Index
    methods:
      - {name: index, self: "&", params: [u32], return: f32}
fns:
  - {path: geo::id, params: [T], sig: "func(T) T"}
  - {path: geo::norm, sig: "func(Ref[Vec]) f32"}
`

type param struct {
	name    string
	ty      string
	mutable bool
}

type fixture struct {
	store *term.Store
	eng   *exprtype.Engine
}

func newFixture(t *testing.T, traits ...term.Path) *fixture {
	t.Helper()
	store := term.NewStore()
	r, err := decl.NewPrelude(store)
	if err != nil {
		t.Fatal(err)
	}
	if err := decl.LoadYAMLBytes(r, []byte(world)); err != nil {
		t.Fatalf("cannot load world:\n%+v", err)
	}
	opts := exprtype.DefaultOptions()
	opts.Traits = traits
	eng, err := exprtype.New(store, r, opts)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{store: store, eng: eng}
}

func TestNumericDefaults(t *testing.T) {
	store := term.NewStore()
	r, err := decl.NewPrelude(store)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		defaults fluffy.Defaults
		err      string
	}{
		{defaults: fluffy.Defaults{Int: "u8", Float: "f32"}},
		{defaults: fluffy.Defaults{Int: "bool"}, err: "default integer: core::basic::bool is not an integer type"},
		{defaults: fluffy.Defaults{Float: "i32"}, err: "default float: core::num::i32 is not a float type"},
		{defaults: fluffy.Defaults{Int: "nowhere::i32"}, err: "default integer"},
	}
	for _, test := range tests {
		opts := exprtype.DefaultOptions()
		opts.Defaults = test.defaults
		_, err := exprtype.New(store, r, opts)
		switch {
		case test.err == "" && err != nil:
			t.Errorf("%v: unexpected error: %v", test.defaults, err)
		case test.err != "" && (err == nil || !strings.HasPrefix(err.Error(), test.err)):
			t.Errorf("%v: got error %v but want %q", test.defaults, err, test.err)
		}
	}
}

func (f *fixture) parseType(t *testing.T, region *syn.Region, src string) term.Term {
	t.Helper()
	ty, err := syn.ParseType(f.store, region.FSet, src, nil)
	if err != nil {
		t.Fatalf("cannot parse type %q: %v", src, err)
	}
	return ty
}

func (f *fixture) infer(t *testing.T, ret, body string, params ...param) *exprtype.Result {
	t.Helper()
	region := syn.NewRegion("test")
	for _, p := range params {
		region.AddParam(p.name, p.mutable, f.parseType(t, region, p.ty))
	}
	if ret != "" {
		region.ReturnTy = f.parseType(t, region, ret)
	}
	if _, err := syn.ParseBody(f.store, region, body); err != nil {
		t.Fatalf("cannot parse %q: %v", body, err)
	}
	return f.run(t, region)
}

func (f *fixture) run(t *testing.T, region *syn.Region) *exprtype.Result {
	t.Helper()
	res, err := f.eng.Infer(region)
	if err != nil {
		t.Fatalf("internal error:\n%+v", err)
	}
	return res
}

// find returns the outcome of the expression rendered as src.
func find(t *testing.T, res *exprtype.Result, src string) *exprtype.Outcome {
	t.Helper()
	for i := range res.Outcomes {
		idx := syn.ExprIdx(i)
		if res.Outcome(idx).Visited && res.Region.Source(idx) == src {
			return res.Outcome(idx)
		}
	}
	t.Fatalf("no expression %q in region:\n%s", src, res.Report())
	return nil
}

func checkNoError(t *testing.T, res *exprtype.Result) {
	t.Helper()
	if err := res.Err(); err != nil {
		t.Fatalf("unexpected error:\n%+v\nreport:\n%s", err, res.Report())
	}
}

type typeTest struct {
	ret    string
	body   string
	params []param
	// want maps the source of expressions to their type.
	want map[string]string
}

func runTypeTests(t *testing.T, f *fixture, tests []typeTest) {
	t.Helper()
	for i, test := range tests {
		res := f.infer(t, test.ret, test.body, test.params...)
		if err := res.Err(); err != nil {
			t.Errorf("test %d: unexpected error:\n%+v\nreport:\n%s", i, err, res.Report())
			continue
		}
		for src, want := range test.want {
			got := find(t, res, src).Term
			if got == nil || got.String() != want {
				t.Errorf("test %d: %s has type %v but want %s\nreport:\n%s", i, src, got, want, res.Report())
			}
		}
	}
}

func TestLiterals(t *testing.T) {
	runTypeTests(t, newFixture(t), []typeTest{
		{body: "1", want: map[string]string{"1": "i32"}},
		{body: "1.5", want: map[string]string{"1.5": "f64"}},
		{body: "true", want: map[string]string{"true": "bool"}},
		{body: `"abc"`, want: map[string]string{`"abc"`: "str"}},
		{ret: "u8", body: "1", want: map[string]string{"1": "u8"}},
		{ret: "f32", body: "1.5", want: map[string]string{"1.5": "f32"}},
	})
}

func TestNegateLiteral(t *testing.T) {
	f := newFixture(t)
	runTypeTests(t, f, []typeTest{
		{body: "-1", want: map[string]string{"-1": "i32", "1": "i32"}},
		{ret: "i64", body: "-1", want: map[string]string{"-1": "i64", "1": "i64"}},
		{body: "-x", params: []param{{name: "x", ty: "f32"}}, want: map[string]string{"-x": "f32"}},
	})
	res := f.infer(t, "", "-x", param{name: "x", ty: "u32"})
	var opErr *exprtype.OperatorError
	if !errors.As(res.Err(), &opErr) {
		t.Errorf("negating an unsigned integer: got %v but want an operator error", res.Err())
	}
}

func TestNegateLiteralKeepsHole(t *testing.T) {
	f := newFixture(t)
	region := syn.NewRegion("test")
	lit := region.Literal(term.IntLiteral, "1")
	neg := region.Prefix(token.SUB, lit)
	region.Root = region.Block([]syn.Stmt{syn.LetStmt("y", false, f.parseType(t, region, "i16"), neg)}, syn.NoExpr)
	res := f.run(t, region)
	checkNoError(t, res)
	for _, idx := range []syn.ExprIdx{lit, neg} {
		if got := res.Outcome(idx).Term.String(); got != "i16" {
			t.Errorf("%s has type %s but want i16", region.Source(idx), got)
		}
	}
}

func TestBinary(t *testing.T) {
	f := newFixture(t)
	x := param{name: "x", ty: "i32"}
	b := param{name: "b", ty: "bool"}
	runTypeTests(t, f, []typeTest{
		{body: "x + 1", params: []param{x}, want: map[string]string{"x + 1": "i32", "1": "i32"}},
		{body: "1 + x", params: []param{x}, want: map[string]string{"1 + x": "i32", "1": "i32"}},
		{body: "x % 3", params: []param{x}, want: map[string]string{"x % 3": "i32"}},
		{body: "x < 2", params: []param{x}, want: map[string]string{"x < 2": "bool", "2": "i32"}},
		{body: "b && x == 2", params: []param{x, b}, want: map[string]string{"b && x == 2": "bool"}},
		{body: "1.5 * 2.0", want: map[string]string{"1.5 * 2.0": "f64", "2.0": "f64"}},
	})
	res := f.infer(t, "", "x + 1.5", x)
	var mismatch *expect.TypeMismatchError
	if !errors.As(res.Err(), &mismatch) {
		t.Errorf("adding a float to an integer: got %v but want a type mismatch", res.Err())
	}
	if got := find(t, res, "x + 1.5").Err; got == nil {
		t.Errorf("binary expression with an operand error has no error")
	}
}

func TestOperatorTraits(t *testing.T) {
	f := newFixture(t)
	v := param{name: "v", ty: "Vec"}
	w := param{name: "w", ty: "Vec"}
	res := f.infer(t, "", "v + w", v, w)
	checkNoError(t, res)
	out := find(t, res, "v + w")
	if got, want := out.Term.String(), "Vec"; got != want {
		t.Errorf("got type %s but want %s", got, want)
	}
	if got, want := out.Method.String(), "Add::add: fn(Vec) -> Vec"; got != want {
		t.Errorf("got method %q but want %q", got, want)
	}
	res = f.infer(t, "", "v[1]", v)
	checkNoError(t, res)
	if got, want := find(t, res, "v[1]").Term.String(), "f32"; got != want {
		t.Errorf("got type %s but want %s", got, want)
	}
	if got, want := find(t, res, "1").Term.String(), "u32"; got != want {
		t.Errorf("got index type %s but want %s", got, want)
	}
	res = f.infer(t, "", "v - w", v, w)
	var opErr *exprtype.OperatorError
	if !errors.As(res.Err(), &opErr) {
		t.Errorf("got error %v but want an operator error", res.Err())
	}
}

func TestMembers(t *testing.T) {
	f := newFixture(t)
	p := param{name: "p", ty: "Pair[i32, bool]"}
	r := param{name: "r", ty: "&Pair[i32, bool]"}
	runTypeTests(t, f, []typeTest{
		{body: "p.first", params: []param{p}, want: map[string]string{"p.first": "i32"}},
		{body: "p.second", params: []param{p}, want: map[string]string{"p.second": "bool"}},
		{body: "p.first()", params: []param{p}, want: map[string]string{"p.first()": "i32"}},
		{body: "p.swap()", params: []param{p}, want: map[string]string{"p.swap()": "Pair<bool, i32>"}},
		{body: "p.swap().first()", params: []param{p}, want: map[string]string{"p.swap().first()": "bool"}},
		{body: "r.first()", params: []param{r}, want: map[string]string{"r.first()": "i32"}},
		{body: "r.second", params: []param{r}, want: map[string]string{"r.second": "bool"}},
	})
	res := f.infer(t, "", "r.first()", r)
	out := find(t, res, "r.first()")
	if got, want := out.Method.String(), "Pair::first: fn() -> i32 via Ref"; got != want {
		t.Errorf("got method %q but want %q", got, want)
	}
	if q, ok := out.Method.Instantiation.SelfPlace(); !ok || q.Kind != term.RefQuary {
		t.Errorf("got self place %v, %v but want a reference", q, ok)
	}
	res = f.infer(t, "", "p.third", p)
	var noMember *exprtype.NoSuchMemberError
	if !errors.As(res.Err(), &noMember) || !noMember.Field {
		t.Errorf("got error %v but want a missing field error", res.Err())
	}
}

func TestAmbiguousMethod(t *testing.T) {
	f := newFixture(t, "geo::Walk", "geo::Run")
	res := f.infer(t, "", "pt.go()", param{name: "pt", ty: "Point"})
	var ambiguous *dispatch.AmbiguousDispatchError
	if !errors.As(res.Err(), &ambiguous) {
		t.Fatalf("got error %v but want an ambiguous dispatch error", res.Err())
	}
	if out := find(t, res, "pt.go()"); out.Method != nil || out.Term != nil {
		t.Errorf("ambiguous call resolved to %v: %v", out.Method, out.Term)
	}
}

func TestGenericCalls(t *testing.T) {
	f := newFixture(t)
	p := param{name: "p", ty: "Pair[i32, bool]"}
	runTypeTests(t, f, []typeTest{
		{body: "id(true)", want: map[string]string{"id(true)": "bool"}},
		{body: "id[u8](1)", want: map[string]string{"id[u8](1)": "u8", "1": "u8"}},
		{body: "geo.id(2.5)", want: map[string]string{"geo.id(2.5)": "f64"}},
		{body: "norm(v)", params: []param{{name: "v", ty: "&Vec"}}, want: map[string]string{"norm(v)": "f32"}},
		{body: "id(p).first()", params: []param{p}, want: map[string]string{"id(p).first()": "i32", "id(p)": "Pair<i32, bool>"}},
		{body: "id(p).first", params: []param{p}, want: map[string]string{"id(p).first": "i32"}},
		{body: "q := id(p)\nq.first()", params: []param{p}, want: map[string]string{"q.first()": "i32"}},
		{body: "id(p).swap().first()", params: []param{p}, want: map[string]string{"id(p).swap().first()": "bool"}},
		{body: "x := id(1)\nx + 2", want: map[string]string{"x + 2": "i32", "2": "i32"}},
		{body: "x := id(true)\n!x", want: map[string]string{"!x": "bool"}},
		{body: "v := id(w)\nv[1]", params: []param{{name: "w", ty: "Vec"}}, want: map[string]string{"v[1]": "f32"}},
	})
	res := f.infer(t, "", "id(1, 2)")
	var arity *term.ArityMismatchError
	if !errors.As(res.Err(), &arity) {
		t.Errorf("got error %v but want an arity mismatch", res.Err())
	}
	res = f.infer(t, "", "g := id\ng")
	var annotation *fluffy.AnnotationNeededError
	if !errors.As(res.Err(), &annotation) {
		t.Fatalf("got error %v but want an annotation needed error", res.Err())
	}
	if n := res.Errs.Len(); n != 1 {
		t.Errorf("got %d errors but want 1:\n%v", n, res.Errs)
	}
}

func TestLateMismatchMarksParents(t *testing.T) {
	f := newFixture(t)
	res := f.infer(t, "", "g := id\ng(1)\ng(true)")
	var mismatch *expect.TypeMismatchError
	if !errors.As(res.Err(), &mismatch) {
		t.Fatalf("got error %v but want a type mismatch", res.Err())
	}
	if n := res.Errs.Len(); n != 1 {
		t.Errorf("got %d errors but want 1:\n%v", n, res.Errs)
	}
	if got, want := find(t, res, "true").Err.Error(), "cannot use a value of type bool as an integer type"; got != want {
		t.Errorf("got error %q but want %q", got, want)
	}
	if got := find(t, res, "g(1)").Term; got == nil || got.String() != "i32" {
		t.Errorf("g(1) has type %v but want i32", got)
	}
	var dep *exprtype.DependencyError
	for name, out := range map[string]*exprtype.Outcome{
		"g(true)": find(t, res, "g(true)"),
		"root":    res.Outcome(res.Region.Root),
	} {
		if !errors.As(out.Err, &dep) || out.Term != nil {
			t.Errorf("%s: got %v, %v but want a dependency error", name, out.Term, out.Err)
		}
	}
}

func TestAggregates(t *testing.T) {
	f := newFixture(t)
	runTypeTests(t, f, []typeTest{
		{body: "Pair{first: 1, second: true}", want: map[string]string{"Pair{first: 1, second: true}": "Pair<i32, bool>"}},
		{body: "Pair[u8, bool]{1, true}", want: map[string]string{"Pair[u8, bool]{1, true}": "Pair<u8, bool>", "1": "u8"}},
		{ret: "Pair[i64, f32]", body: "Pair{second: 2.0, first: 1}", want: map[string]string{"1": "i64", "2.0": "f32"}},
	})
	for _, body := range []string{
		"Pair{first: 1}",
		"Pair{first: 1, second: 2, third: 3}",
		"Pair{first: 1, first: 2}",
		"Pair[u8]{1, 2}",
		"Missing{}",
	} {
		if res := f.infer(t, "", body); res.Err() == nil {
			t.Errorf("%s: no error", body)
		}
	}
}

func TestBlocks(t *testing.T) {
	f := newFixture(t)
	runTypeTests(t, f, []typeTest{
		{body: "x := 1\nvar y u8 = x\ny", want: map[string]string{"x": "u8", "y": "u8"}},
		{body: "var x = 1\nx++", want: map[string]string{"x++": "unit"}},
		{ret: "i64", body: "return 1", want: map[string]string{"1": "i64", "return 1": "Never"}},
		{body: "{ 2 }", want: map[string]string{"{ 2 }": "i32"}},
	})
	res := f.infer(t, "", "x := 1\nvar y u8 = x\ny")
	for _, local := range res.Locals {
		if local.Ty.String() != "u8" {
			t.Errorf("local %s has type %s but want u8", local.Name, local.Ty)
		}
	}
	if got := res.ReturnTy.String(); got != "u8" {
		t.Errorf("got return type %s but want u8", got)
	}
	res = f.infer(t, "", "x := 1\nx++")
	var immutable *exprtype.ImmutableError
	if !errors.As(res.Err(), &immutable) {
		t.Errorf("got error %v but want an immutable error", res.Err())
	}
	res = f.infer(t, "bool", "return 1")
	var mismatch *expect.TypeMismatchError
	if !errors.As(res.Err(), &mismatch) {
		t.Errorf("got error %v but want a type mismatch", res.Err())
	}
}

func TestIndirections(t *testing.T) {
	f := newFixture(t)
	r := param{name: "r", ty: "&i32"}
	runTypeTests(t, f, []typeTest{
		{body: "*r", params: []param{r}, want: map[string]string{"*r": "i32"}},
		{body: "&r", params: []param{r}, want: map[string]string{"&r": "Ref<Ref<i32>>"}},
		{body: "r + 1", params: []param{r}, want: map[string]string{"r + 1": "i32", "1": "i32"}},
		{body: "m++", params: []param{{name: "m", ty: "*i32"}}, want: map[string]string{"m++": "unit"}},
	})
	res := f.infer(t, "", "var y i32 = *r\ny", r)
	checkNoError(t, res)
	if got := find(t, res, "*r").Conversion; got != expect.None {
		t.Errorf("got conversion %s but want %s", got, expect.None)
	}
	res = f.infer(t, "", "var y i32 = r\ny", r)
	var mismatch *expect.TypeMismatchError
	if !errors.As(res.Err(), &mismatch) {
		t.Errorf("got error %v but want a type mismatch: a reference is not read implicitly", res.Err())
	}
	res = f.infer(t, "", "r++", r)
	var immutable *exprtype.ImmutableError
	if !errors.As(res.Err(), &immutable) {
		t.Errorf("got error %v but want an immutable error", res.Err())
	}
}

func TestOption(t *testing.T) {
	f := newFixture(t)
	o := param{name: "o", ty: "Option[i32]"}
	runTypeTests(t, f, []typeTest{
		{body: "o.unwrap()", params: []param{o}, want: map[string]string{"o.unwrap()": "i32"}},
		{body: "o.unwrap_or(2)", params: []param{o}, want: map[string]string{"2": "i32"}},
		{body: "o.is_some()", params: []param{o}, want: map[string]string{"o.is_some()": "bool"}},
	})
	region := syn.NewRegion("test")
	region.AddParam("o", false, f.parseType(t, region, "Option[f32]"))
	region.Root = region.SuffixOp(syn.Unveil, region.PathRef("o"))
	res := f.run(t, region)
	checkNoError(t, res)
	if got := res.Outcome(region.Root).Term.String(); got != "f32" {
		t.Errorf("got type %s but want f32", got)
	}
}

func TestErrorsContinue(t *testing.T) {
	f := newFixture(t)
	res := f.infer(t, "", "a := z + 1\nb := true + 2\nc := p.first\na", param{name: "p", ty: "Pair[i32, bool]"})
	if res.Errs.Len() != 2 {
		t.Fatalf("got %d errors but want 2:\n%v", res.Errs.Len(), res.Errs)
	}
	first := res.Errs.Errors()[0].Error()
	if !strings.HasPrefix(first, "test:1:") {
		t.Errorf("error %q has no position", first)
	}
	var unresolved *term.UnresolvedPathError
	if !errors.As(res.Errs.Errors()[0], &unresolved) || unresolved.Path != "z" {
		t.Errorf("got error %v but want an unresolved path error for z", first)
	}
	if out := find(t, res, "p.first"); out.Err != nil || out.Term.String() != "i32" {
		t.Errorf("sibling of a failed expression not inferred: %s", pretty.String(out))
	}
	var dep *exprtype.DependencyError
	if out := find(t, res, "z + 1"); !errors.As(out.Err, &dep) {
		t.Errorf("got error %v but want a dependency error", out.Err)
	}
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	res := f.infer(t, "", "r.first()", param{name: "r", ty: "&Pair[i32, bool]"})
	report := res.Report()
	for _, want := range []string{
		"r.first(): i32 [Pair::first: fn() -> i32 via Ref]",
		"r: Ref<Pair<i32, bool>>",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report does not contain %q:\n%s", want, report)
		}
	}
}

func TestConcurrentRegions(t *testing.T) {
	f := newFixture(t)
	done := make(chan *exprtype.Result)
	regions := make([]*syn.Region, 8)
	for i := range regions {
		regions[i] = syn.NewRegion("test")
		if _, err := syn.ParseBody(f.store, regions[i], "Pair{first: id(1), second: 2.5}"); err != nil {
			t.Fatal(err)
		}
	}
	for _, region := range regions {
		go func() {
			res, err := f.eng.Infer(region)
			if err != nil {
				t.Error(err)
			}
			done <- res
		}()
	}
	var want term.Term
	for range regions {
		res := <-done
		if res == nil {
			continue
		}
		got := res.Outcome(res.Region.Root).Term
		if want == nil {
			want = got
		}
		if got != want {
			t.Errorf("got %s but want %s: terms are not interned", got, want)
		}
	}
	if want == nil || want.String() != "Pair<i32, f64>" {
		t.Errorf("got %v but want Pair<i32, f64>", want)
	}
}
