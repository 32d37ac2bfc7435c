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
	"fmt"
	"strings"
)

type printer struct {
	strings.Builder
}

func (p *printer) list(ts []Term, depth int) {
	for i, t := range ts {
		if i > 0 {
			p.WriteString(", ")
		}
		p.term(t, depth)
	}
}

func binderName(depth int) string {
	return fmt.Sprintf("r%d", depth)
}

func (p *printer) term(t Term, depth int) {
	switch tT := t.(type) {
	case nil:
		p.WriteString("<nil>")
	case *Literal:
		if tT.Kind == StringLiteral {
			fmt.Fprintf(p, "%q", tT.Text)
			return
		}
		p.WriteString(tT.Text)
	case *TypeOntology:
		p.WriteString(tT.Path.Ident())
		if len(tT.Args) == 0 {
			return
		}
		p.WriteString("<")
		p.list(tT.Args, depth)
		p.WriteString(">")
	case *Application:
		exp := ApplicationExpansion(t)
		p.term(exp.Function, depth)
		p.WriteString("<")
		p.list(exp.Args, depth)
		p.WriteString(">")
	case *Curry:
		openB, closeB := "(", ")"
		if tT.Kind == Implicit {
			openB, closeB = "{", "}"
		}
		p.WriteString(openB)
		retDepth := depth
		if tT.Rune != nil {
			p.WriteString(binderName(depth) + ": ")
			retDepth++
		}
		p.term(tT.ParamTy, depth)
		p.WriteString(closeB + " -> ")
		p.term(tT.ReturnTy, retDepth)
	case *Ritchie:
		p.WriteString(tT.Kind.String() + "(")
		for i, param := range tT.Params {
			if i > 0 {
				p.WriteString(", ")
			}
			p.WriteString(param.Contract.prefix())
			p.term(param.Ty, depth)
		}
		p.WriteString(") -> ")
		p.term(tT.Return, depth)
	case *Category:
		if tT.Universe == 0 {
			p.WriteString("Type")
			return
		}
		fmt.Fprintf(p, "Type%d", tT.Universe)
	case *Symbol:
		p.WriteString(tT.Name)
	case *Rune:
		if bound := depth - 1 - tT.Index; bound >= 0 {
			p.WriteString(binderName(bound))
			return
		}
		fmt.Fprintf(p, "#%d", tT.Index)
	case *Hole:
		fmt.Fprintf(p, "?%d:%s", tT.Index, tT.Kind)
	case *TraitConstraint:
		p.term(tT.Ty, depth)
		p.WriteString(": ")
		p.term(tT.Trait, depth)
	default:
		fmt.Fprintf(p, "%T", t)
	}
}

func termString(t Term) string {
	p := &printer{}
	p.term(t, 0)
	return p.String()
}

func (t *Literal) String() string         { return termString(t) }
func (t *TypeOntology) String() string    { return termString(t) }
func (t *Application) String() string     { return termString(t) }
func (t *Curry) String() string           { return termString(t) }
func (t *Ritchie) String() string         { return termString(t) }
func (t *Category) String() string        { return termString(t) }
func (t *Symbol) String() string          { return termString(t) }
func (t *Rune) String() string            { return termString(t) }
func (t *Hole) String() string            { return termString(t) }
func (t *TraitConstraint) String() string { return termString(t) }

func (k RitchieKind) String() string {
	switch k {
	case FnRitchie:
		return "fn"
	case GnRitchie:
		return "gn"
	case ClosureRitchie:
		return "closure"
	}
	return fmt.Sprintf("RitchieKind(%d)", int(k))
}

func (c Contract) prefix() string {
	switch c {
	case Move:
		return "move "
	case Borrow:
		return "&"
	case BorrowMut:
		return "&mut "
	case Leash:
		return "~"
	}
	return ""
}

func (k HoleKind) String() string {
	switch k {
	case UnspecifiedIntegerType:
		return "int"
	case UnspecifiedFloatType:
		return "float"
	case ImplicitType:
		return "implicit"
	case AnyType:
		return "any"
	}
	return fmt.Sprintf("HoleKind(%d)", int(k))
}
