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

package exprtype

import (
	"fmt"
	"strings"

	"github.com/husky-lang/termres/build/dispatch"
	"github.com/husky-lang/termres/build/expect"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/pkg/errors"
)

// sweep resolves the deferred expectations and binds the remaining
// numeric literal holes to their default type.
func (w *walker) sweep() {
	for _, level := range []expect.Level{expect.Weak, expect.Strong} {
		if err := w.list.Sweep(level); err != nil {
			w.abort = err
			return
		}
	}
	var failed []syn.ExprIdx
	for _, entry := range w.list.Entries() {
		idx := syn.ExprIdx(entry.Expr)
		if entry.Outcome.Err != nil && w.nodes[idx].err == nil {
			w.fail(idx, entry.Outcome.Err)
			failed = append(failed, idx)
		}
	}
	w.propagate(failed)
	if err := w.table.ApplyDefaults(w.eng.opts.Defaults); err != nil {
		w.abort = err
	}
}

// propagate sets a dependency error on the ancestors of expressions
// that failed after the walk, up to the first ancestor already in error.
func (w *walker) propagate(failed []syn.ExprIdx) {
	if len(failed) == 0 {
		return
	}
	parents := w.region.Parents()
	for _, idx := range failed {
		for p := parents[idx]; p != syn.NoExpr; p = parents[p] {
			if !w.nodes[p].visited || w.nodes[p].err != nil {
				break
			}
			w.derive(p)
		}
	}
}

// finalise returns the ethereal form of a term or nil if it still has holes.
func (w *walker) finalise(t term.Term) term.Term {
	if t == nil {
		return nil
	}
	final, err := w.table.Finalise(t)
	if err != nil {
		return nil
	}
	return final
}

func (w *walker) finaliseMethod(c *dispatch.Candidate) *dispatch.Candidate {
	if c == nil {
		return nil
	}
	final := *c
	final.Receiver = w.finalise(c.Receiver)
	final.Signature = w.finalise(c.Signature)
	final.Instantiation = term.NewInstantiation(c.Instantiation.Owner)
	for sym, res := range c.Instantiation.Iter() {
		if res.Kind == term.ExplicitResolution {
			res.Term = w.finalise(res.Term)
		}
		final.Instantiation.Set(sym, res)
	}
	return &final
}

func (w *walker) finaliseField(c *dispatch.FieldCandidate) *dispatch.FieldCandidate {
	if c == nil {
		return nil
	}
	final := *c
	final.Receiver = w.finalise(c.Receiver)
	final.Ty = w.finalise(c.Ty)
	return &final
}

func (w *walker) result() *Result {
	res := &Result{
		Region:   w.region,
		Outcomes: make([]Outcome, len(w.nodes)),
		Locals:   w.locals,
	}
	for i := range w.nodes {
		n := &w.nodes[i]
		if !n.visited {
			continue
		}
		if n.err == nil && n.term != nil {
			final, err := w.table.Finalise(n.term)
			if err != nil {
				w.fail(syn.ExprIdx(i), err)
			}
			res.Outcomes[i].Term = final
		}
		out := &res.Outcomes[i]
		out.Visited = true
		out.Quary = n.quary
		out.Expectation = n.expectation
		out.Method = w.finaliseMethod(n.method)
		out.Field = w.finaliseField(n.field)
		out.Err = n.err
		if n.entry != nil {
			out.Conversion = n.entry.Outcome.Conversion
		}
	}
	for _, local := range w.locals {
		local.Ty = w.finalise(local.Ty)
	}
	res.ReturnTy = w.finalise(w.returnTy)
	if !w.errs.Empty() {
		res.Errs = w.errs
	}
	return res
}

// Report returns a human readable description of the type of each
// expression of the region, one expression per line.
func (r *Result) Report() string {
	var sb strings.Builder
	for i, out := range r.Outcomes {
		if !out.Visited {
			continue
		}
		idx := syn.ExprIdx(i)
		fmt.Fprintf(&sb, "%3d %-11s %s", i, r.Region.Expr(idx).Kind, r.Region.Source(idx))
		var dep *DependencyError
		switch {
		case errors.As(out.Err, &dep):
			sb.WriteString(": ?")
		case out.Err != nil:
			fmt.Fprintf(&sb, ": error: %v", out.Err)
		default:
			fmt.Fprintf(&sb, ": %s", out.Term)
		}
		if out.Conversion != expect.None {
			fmt.Fprintf(&sb, " (%s)", out.Conversion)
		}
		if out.Method != nil {
			fmt.Fprintf(&sb, " [%s]", out.Method)
		}
		if out.Field != nil {
			fmt.Fprintf(&sb, " [%s]", out.Field)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
