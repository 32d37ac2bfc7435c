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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
)

func TestParents(t *testing.T) {
	r := syn.NewRegion("test::f")
	unused := r.Literal(term.IntLiteral, "0")
	one := r.Literal(term.IntLiteral, "1")
	x := r.PathRef("x")
	two := r.Literal(term.IntLiteral, "2")
	sum := r.Binary(token.ADD, x, two)
	r.Root = r.Block([]syn.Stmt{syn.LetStmt("x", false, nil, one)}, sum)
	want := []syn.ExprIdx{syn.NoExpr, r.Root, sum, sum, r.Root, syn.NoExpr}
	if diff := cmp.Diff(want, r.Parents()); diff != "" {
		t.Errorf("unexpected parents (-want +got):\n%s", diff)
	}
	if got := r.Children(r.Root); !cmp.Equal(got, []syn.ExprIdx{one, sum}) {
		t.Errorf("got children %v of the root but want [%d %d]", got, one, sum)
	}
	if got := r.Children(unused); len(got) != 0 {
		t.Errorf("literal has children %v", got)
	}
}
