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

package term

import "fmt"

type (
	// UnresolvedPathError is returned when a path does not name a declaration.
	UnresolvedPathError struct {
		Path Path
	}

	// ArityMismatchError is returned when the number of template arguments,
	// or the presence of a bound parameter, disagrees with what is instantiated.
	ArityMismatchError struct {
		What      string
		Want, Got int
	}

	// UncoveredSymbolError is returned when an instantiation does not
	// cover a template parameter of the entity it instantiates.
	UncoveredSymbolError struct {
		Symbol *Symbol
	}
)

func (err *UnresolvedPathError) Error() string {
	return fmt.Sprintf("unresolved path %s", err.Path)
}

func (err *ArityMismatchError) Error() string {
	return fmt.Sprintf("instantiation arity mismatch for %s: want %d argument(s) but got %d", err.What, err.Want, err.Got)
}

func (err *UncoveredSymbolError) Error() string {
	return fmt.Sprintf("template parameter %s of %s is not instantiated", err.Symbol.Name, err.Symbol.Owner)
}
