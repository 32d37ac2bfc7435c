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
	"fmt"
	"go/ast"
	"go/token"
	"runtime/debug"

	"github.com/pkg/errors"
)

type (
	// ErrorWithPos is an error attached to a range of source code.
	ErrorWithPos interface {
		error
		FSet() *token.FileSet
		Src() ast.Node
		Err() error
		// Range returns the first and last positions of the source the error refers to.
		Range() (token.Position, token.Position)
	}

	errorWithPos struct {
		fset     *token.FileSet
		src      ast.Node
		pos, end token.Pos
		err      error
	}
)

// Position attaches a source node to an error.
// The node can be nil when the expression has been synthesized.
func Position(fset *token.FileSet, src ast.Node, err error) ErrorWithPos {
	ewp := errorWithPos{
		fset: fset,
		src:  src,
		err:  err,
	}
	if src != nil {
		// Cache the positions to make sure src is valid.
		ewp.pos, ewp.end = src.Pos(), src.End()
	}
	return ewp
}

// Errorf formats an error at a given source node.
func Errorf(fset *token.FileSet, src ast.Node, format string, a ...any) error {
	return Position(fset, src, errors.Errorf(format, a...))
}

type internalError struct {
	err error
}

// Internal marks an error as a violation of an engine invariant.
// Such errors abort the resolution of the current region.
func Internal(err error) error {
	return internalError{err: errors.WithStack(err)}
}

// IsInternal returns true if the error, or any error it wraps, is an internal error.
func IsInternal(err error) bool {
	var iErr internalError
	return errors.As(err, &iErr)
}

func (err internalError) Error() string {
	return fmt.Sprintf("termres internal error. This is a bug in the resolution engine. Please report it. Error:\n%v", err.err)
}

func (err internalError) Unwrap() error {
	return err.err
}

func (err internalError) Format(s fmt.State, verb rune) {
	formatError(err, s, verb)
}

func (err errorWithPos) Error() (s string) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s = fmt.Sprintf("recovered from panic when building error message: %T:\n%v", err.err, string(debug.Stack()))
	}()
	if err.fset == nil || !err.pos.IsValid() {
		return err.err.Error()
	}
	return PosString(err.fset, err.pos) + " " + err.err.Error()
}

func (err errorWithPos) Unwrap() error {
	return err.err
}

func (err errorWithPos) Format(s fmt.State, verb rune) {
	formatError(err, s, verb)
}

func (err errorWithPos) FSet() *token.FileSet {
	return err.fset
}

func (err errorWithPos) Src() ast.Node {
	return err.src
}

func (err errorWithPos) Err() error {
	return err.err
}

func (err errorWithPos) Range() (token.Position, token.Position) {
	if err.fset == nil {
		return token.Position{}, token.Position{}
	}
	return err.fset.Position(err.pos), err.fset.Position(err.end)
}

// PosString returns the string representation of a position followed by a colon.
func PosString(fset *token.FileSet, pos token.Pos) string {
	return fset.Position(pos).String() + ":"
}
