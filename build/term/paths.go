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

import (
	"slices"
	"strings"
)

// Path identifies a declaration, for example "core::num::i32".
type Path string

// Paths of the declarations the engine needs to know about.
const (
	NeverPath  Path = "core::never::Never"
	UnitPath   Path = "core::basic::unit"
	BoolPath   Path = "core::basic::bool"
	StrPath    Path = "core::str::str"
	RefPath    Path = "core::mem::Ref"
	RefMutPath Path = "core::mem::RefMut"
	LeashPath  Path = "core::mem::Leash"
	OptionPath Path = "core::option::Option"

	I8Path  Path = "core::num::i8"
	I16Path Path = "core::num::i16"
	I32Path Path = "core::num::i32"
	I64Path Path = "core::num::i64"
	U8Path  Path = "core::num::u8"
	U16Path Path = "core::num::u16"
	U32Path Path = "core::num::u32"
	U64Path Path = "core::num::u64"
	F32Path Path = "core::num::f32"
	F64Path Path = "core::num::f64"
)

// Paths of the operator traits.
const (
	NegTrait   Path = "core::ops::Neg"
	NotTrait   Path = "core::ops::Not"
	AddTrait   Path = "core::ops::Add"
	SubTrait   Path = "core::ops::Sub"
	MulTrait   Path = "core::ops::Mul"
	DivTrait   Path = "core::ops::Div"
	IndexTrait Path = "core::ops::Index"
)

// IntegerPaths lists the integer types.
var IntegerPaths = []Path{I8Path, I16Path, I32Path, I64Path, U8Path, U16Path, U32Path, U64Path}

// FloatPaths lists the floating point types.
var FloatPaths = []Path{F32Path, F64Path}

// Ident returns the last segment of the path.
func (p Path) Ident() string {
	s := string(p)
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[i+2:]
	}
	return s
}

// Join appends an identifier to a path.
func (p Path) Join(ident string) Path {
	if p == "" {
		return Path(ident)
	}
	return Path(string(p) + "::" + ident)
}

// IsIndirection returns true if the path is a wrapper that dispatch can see through.
func (p Path) IsIndirection() bool {
	switch p {
	case RefPath, RefMutPath, LeashPath:
		return true
	}
	return false
}

// IsInteger returns true if the path is an integer type.
func (p Path) IsInteger() bool {
	return slices.Contains(IntegerPaths, p)
}

// IsSigned returns true if the path is a signed numeric type.
func (p Path) IsSigned() bool {
	switch p {
	case I8Path, I16Path, I32Path, I64Path, F32Path, F64Path:
		return true
	}
	return false
}

// IsFloat returns true if the path is a floating point type.
func (p Path) IsFloat() bool {
	return slices.Contains(FloatPaths, p)
}

// IsNumeric returns true if the path is an integer or a floating point type.
func (p Path) IsNumeric() bool {
	return p.IsInteger() || p.IsFloat()
}

// PathOf returns the path of a type constructor or an empty path.
func PathOf(t Term) Path {
	to, ok := t.(*TypeOntology)
	if !ok {
		return ""
	}
	return to.Path
}

// IsNever returns true if the term is the bottom type.
func IsNever(t Term) bool {
	to, ok := t.(*TypeOntology)
	return ok && to.Path == NeverPath
}
