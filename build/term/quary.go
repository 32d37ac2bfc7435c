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
	// QuaryKind is the storage qualifier of a value.
	QuaryKind uint8

	// Quary describes where a value lives: on the stack, behind a
	// reference, in a box, or nowhere (a transient value).
	Quary struct {
		Kind QuaryKind
		// Local is the index of the local variable the place refers to,
		// or NoLocal.
		Local int
	}
)

// NoLocal is used when a quary does not refer to a local variable.
const NoLocal = -1

const (
	// Transient values are temporaries.
	Transient QuaryKind = iota
	// StackPure values are owned on the stack and cannot be modified.
	StackPure
	// ImmutableOnStack values are owned on the stack.
	ImmutableOnStack
	// MutableOnStack values are owned on the stack and can be modified.
	MutableOnStack
	// RefQuary values are referenced.
	RefQuary
	// RefMutQuary values are mutably referenced.
	RefMutQuary
	// Leashed values are boxed.
	Leashed
)

// TransientQuary returns the quary of a temporary.
func TransientQuary() Quary {
	return Quary{Kind: Transient, Local: NoLocal}
}

// StackQuary returns the quary of a local variable.
func StackQuary(local int, mutable bool) Quary {
	if mutable {
		return Quary{Kind: MutableOnStack, Local: local}
	}
	return Quary{Kind: ImmutableOnStack, Local: local}
}

// Deref returns the quary of the value reached by going through an indirection.
func (q Quary) Deref(wrapper Path) Quary {
	switch wrapper {
	case RefPath:
		return Quary{Kind: RefQuary, Local: q.Local}
	case RefMutPath:
		return Quary{Kind: RefMutQuary, Local: q.Local}
	case LeashPath:
		return Quary{Kind: Leashed, Local: NoLocal}
	}
	return q
}

// Mutable returns true if a value with that quary can be modified.
func (q Quary) Mutable() bool {
	return q.Kind == MutableOnStack || q.Kind == RefMutQuary
}

func (k QuaryKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case StackPure:
		return "stack-pure"
	case ImmutableOnStack:
		return "stack"
	case MutableOnStack:
		return "stack-mut"
	case RefQuary:
		return "ref"
	case RefMutQuary:
		return "ref-mut"
	case Leashed:
		return "leashed"
	}
	return fmt.Sprintf("QuaryKind(%d)", int(k))
}

func (q Quary) String() string {
	if q.Local == NoLocal {
		return q.Kind.String()
	}
	return fmt.Sprintf("%s@%d", q.Kind, q.Local)
}
