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

package term_test

import (
	"errors"
	"testing"

	"github.com/husky-lang/termres/build/term"
)

type paths map[term.Path]term.Path

func (p paths) ResolvePath(path term.Path) (term.Path, bool) {
	got, ok := p[path]
	return got, ok
}

func TestEthereal(t *testing.T) {
	s := term.NewStore()
	r := paths{"Pair": pairPath, "i32": i32Path, "bool": term.BoolPath}
	decl := s.NewApplication(
		s.NewApplication(s.NewTypeOntology(term.Declarative, "Pair"), s.NewTypeOntology(term.Declarative, "i32")),
		s.NewTypeOntology(term.Declarative, "bool"),
	)
	got, err := s.Ethereal(r, decl)
	if err != nil {
		t.Fatal(err)
	}
	if want := pair(s, i32(s), boolT(s)); got != want {
		t.Errorf("got %s but want %s", got, want)
	}
	again, err := s.Local().Ethereal(r, decl)
	if err != nil {
		t.Fatal(err)
	}
	if again != got {
		t.Errorf("conversion is not cached")
	}
	_, err = s.Ethereal(r, s.NewTypeOntology(term.Declarative, "Missing"))
	var unresolved *term.UnresolvedPathError
	if !errors.As(err, &unresolved) || unresolved.Path != "Missing" {
		t.Errorf("got error %v but want an unresolved path error", err)
	}
}
