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
	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/term"
)

// Entry is an expectation attached to an expression.
type Entry struct {
	Expr        int
	Expectation Expectation
	Candidate   term.Term
	Outcome     Outcome
}

// Pending returns true if the expectation has been deferred.
func (e *Entry) Pending() bool {
	return e.Outcome.Deferred
}

// List is the list of expectations of a region.
type List struct {
	table   *fluffy.Table
	entries []*Entry
}

// NewList returns an empty list resolving expectations with a table.
func NewList(table *fluffy.Table) *List {
	return &List{table: table}
}

// Entries returns all the entries of the list in the order they were added.
func (l *List) Entries() []*Entry {
	return l.entries
}

// Add an expectation and resolve it weakly.
// The returned error is an internal error aborting the region.
func (l *List) Add(expr int, exp Expectation, cand term.Term) (*Entry, error) {
	e := &Entry{Expr: expr, Expectation: exp, Candidate: cand}
	l.entries = append(l.entries, e)
	return e, l.resolve(e, Weak)
}

func (l *List) resolve(e *Entry, level Level) error {
	prev := e.Outcome.Substitutions
	out := Resolve(e.Expectation, e.Candidate, level, l.table, term.Provenance{Expr: e.Expr})
	out.Substitutions = append(append([]Substitution{}, prev...), out.Substitutions...)
	if err := Apply(l.table, out.Actions); err != nil {
		if fmterr.IsInternal(err) {
			return err
		}
		out.Err = err
	}
	// Implicit curries are instantiated once: later sweeps start from
	// the instantiated candidate.
	e.Candidate = out.Term
	e.Outcome = out
	return nil
}

// Sweep resolves all the pending expectations at a given level.
func (l *List) Sweep(level Level) error {
	for _, e := range l.entries {
		if !e.Pending() {
			continue
		}
		if err := l.resolve(e, level); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the entries still deferred.
func (l *List) Pending() []*Entry {
	var pending []*Entry
	for _, e := range l.entries {
		if e.Pending() {
			pending = append(pending, e)
		}
	}
	return pending
}
