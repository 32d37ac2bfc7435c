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
	"io"

	"github.com/pkg/errors"
)

// formatError implements fmt.Formatter for the internal and positioned
// errors. %+v appends the stack recorded by Internal, or by the errors
// package for a positioned error built with errors.Errorf.
func formatError(err error, s fmt.State, verb rune) {
	switch verb {
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
		return
	case 's', 'v':
		io.WriteString(s, err.Error())
	default:
		fmt.Fprintf(s, "%%!%c(%s)", verb, err.Error())
		return
	}
	if verb != 'v' || !s.Flag('+') {
		return
	}
	var traced interface {
		StackTrace() errors.StackTrace
	}
	if errors.As(err, &traced) {
		fmt.Fprintf(s, "\nstack:%+v\n", traced.StackTrace())
	}
}
