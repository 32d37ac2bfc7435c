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
	"fmt"

	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/term"
)

type (
	// TypeMismatchError is returned when a type cannot be converted to the expected one.
	TypeMismatchError struct {
		Want, Got term.Term
	}

	// UnexpectedError is returned when a type does not meet an expectation
	// other than a conversion.
	UnexpectedError struct {
		Expectation Expectation
		Got         term.Term
	}
)

func (err *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot use a value of type %s as %s", fluffy.Describe(err.Got), fluffy.Describe(err.Want))
}

func (err *UnexpectedError) Error() string {
	return fmt.Sprintf("expected a %s but got %s", err.Expectation, fluffy.Describe(err.Got))
}
