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

	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
)

type (
	// DependencyError is set on an expression when the type of one of
	// its operands could not be inferred. It is never reported: the
	// operand carries the original error.
	DependencyError struct {
		Kind syn.Kind
	}

	// NoSuchMemberError is returned when a receiver has no member
	// with the requested name.
	NoSuchMemberError struct {
		Receiver term.Term
		Ident    string
		Field    bool
	}

	// NotCallableError is returned when a value which is not a
	// callable is called.
	NotCallableError struct {
		Got term.Term
	}

	// OperatorError is returned when an operator is not defined on a type.
	OperatorError struct {
		Op string
		Ty term.Term
	}

	// ImmutableError is returned when an immutable value is modified.
	ImmutableError struct {
		Src string
	}
)

func (err *DependencyError) Error() string {
	return fmt.Sprintf("type of %s expression not inferred: an operand has an error", err.Kind)
}

func (err *NoSuchMemberError) Error() string {
	what := "method"
	if err.Field {
		what = "field"
	}
	return fmt.Sprintf("%s has no %s %s", err.Receiver, what, err.Ident)
}

func (err *NotCallableError) Error() string {
	return fmt.Sprintf("cannot call a value of type %s", err.Got)
}

func (err *OperatorError) Error() string {
	return fmt.Sprintf("operator %s not defined on %s", err.Op, err.Ty)
}

func (err *ImmutableError) Error() string {
	return fmt.Sprintf("cannot modify immutable value %s", err.Src)
}
