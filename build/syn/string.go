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

package syn

import (
	"strconv"
	"strings"

	"github.com/husky-lang/termres/build/term"
)

type printer struct {
	strings.Builder
	r *Region
}

func (p *printer) list(idxs []ExprIdx) {
	for i, idx := range idxs {
		if i > 0 {
			p.WriteString(", ")
		}
		p.expr(idx)
	}
}

func (p *printer) templateArgs(args []term.Term) {
	if len(args) == 0 {
		return
	}
	p.WriteString("[")
	for i, arg := range args {
		if i > 0 {
			p.WriteString(", ")
		}
		p.WriteString(arg.String())
	}
	p.WriteString("]")
}

func (p *printer) expr(idx ExprIdx) {
	if idx == NoExpr {
		return
	}
	x := p.r.Expr(idx)
	switch x.Kind {
	case LiteralExpr:
		if x.LitKind == term.StringLiteral {
			p.WriteString(strconv.Quote(x.Text))
			return
		}
		p.WriteString(x.Text)
	case PathExpr:
		p.WriteString(string(x.Path))
		p.templateArgs(x.TemplateArgs)
	case BinaryExpr:
		p.expr(x.Operands[0])
		p.WriteString(" " + x.Op.String() + " ")
		p.expr(x.Operands[1])
	case PrefixExpr:
		p.WriteString(x.Op.String())
		p.expr(x.Operands[0])
	case SuffixExpr:
		p.expr(x.Operands[0])
		p.WriteString(x.Suffix.String())
	case FieldExpr:
		p.expr(x.Operands[0])
		p.WriteString("." + x.Ident)
	case MethodCallExpr:
		p.expr(x.Operands[0])
		p.WriteString("." + x.Ident + "(")
		p.list(x.Operands[1:])
		p.WriteString(")")
	case CallExpr:
		p.expr(x.Operands[0])
		p.WriteString("(")
		p.list(x.Operands[1:])
		p.WriteString(")")
	case AggregateExpr:
		p.WriteString(string(x.Path))
		p.templateArgs(x.TemplateArgs)
		p.WriteString("{")
		for i, val := range x.Operands {
			if i > 0 {
				p.WriteString(", ")
			}
			if len(x.Names) > 0 {
				p.WriteString(x.Names[i] + ": ")
			}
			p.expr(val)
		}
		p.WriteString("}")
	case IndexExpr:
		p.expr(x.Operands[0])
		p.WriteString("[")
		p.expr(x.Operands[1])
		p.WriteString("]")
	case BlockExpr:
		p.WriteString("{")
		for _, stmt := range x.Stmts {
			p.WriteString(" ")
			if stmt.Let != nil {
				p.WriteString("let ")
				if stmt.Let.Mutable {
					p.WriteString("mut ")
				}
				p.WriteString(stmt.Let.Name)
				if stmt.Let.Ty != nil {
					p.WriteString(": " + stmt.Let.Ty.String())
				}
				p.WriteString(" = ")
				p.expr(stmt.Let.Init)
			} else {
				p.expr(stmt.Expr)
			}
			p.WriteString(";")
		}
		if x.Tail != NoExpr {
			p.WriteString(" ")
			p.expr(x.Tail)
		}
		p.WriteString(" }")
	case ReturnExpr:
		p.WriteString("return")
		if len(x.Operands) > 0 {
			p.WriteString(" ")
			p.expr(x.Operands[0])
		}
	}
}

// Source returns a human-readable rendering of an expression.
func (r *Region) Source(idx ExprIdx) string {
	p := &printer{r: r}
	p.expr(idx)
	return p.String()
}
