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

package fmterr

import (
	"go/ast"

	"github.com/pkg/errors"
)

// Appender appends errors to a set within the context of a FileSet.
type Appender struct {
	stack  []contextError
	errors *Errors
	fset   FileSet
}

// Push a context. Errors appended until the matching Pop are
// transformed by f and appended as a single error.
func (app *Appender) Push(f func(error) error) {
	app.stack = append(app.stack, contextError{f: f})
}

// Pop the last context pushed.
func (app *Appender) Pop() {
	last := app.stack[len(app.stack)-1]
	app.stack = app.stack[:len(app.stack)-1]
	if last.errors.Empty() {
		return
	}
	app.Append(last.f(&last.errors))
}

// Append an error. Always returns false.
func (app *Appender) Append(err error) bool {
	if len(app.stack) == 0 {
		app.errors.Append(err)
	} else {
		app.stack[len(app.stack)-1].errors.Append(err)
	}
	return false
}

// AppendAt appends an error at a given node.
func (app *Appender) AppendAt(node ast.Node, err error) bool {
	return app.Append(app.fset.Position(node, err))
}

// Appendf formats and appends an error at a given node.
func (app *Appender) Appendf(node ast.Node, format string, a ...any) bool {
	return app.Append(app.fset.Errorf(node, format, a...))
}

// Errors returns the errors appended so far or nil.
func (app *Appender) Errors() *Errors {
	if len(app.stack) > 0 {
		var errs Errors
		errs.Append(Internal(errors.New("cannot fetch errors while the context stack is non-empty")))
		return &errs
	}
	if app.errors.Empty() {
		return nil
	}
	return app.errors
}

// Empty returns true if no error has been appended.
func (app *Appender) Empty() bool {
	if !app.errors.Empty() {
		return false
	}
	for _, ctx := range app.stack {
		if !ctx.errors.Empty() {
			return false
		}
	}
	return true
}
