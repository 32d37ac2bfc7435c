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

// Package syn is the expression arena consumed by the type engine.
//
// A region is the body of one function or constant. Its expressions are
// stored in a flat arena and referred to by their index. Regions are
// either built programmatically with the methods of [Region] or parsed
// from source with [ParseExpr] and [ParseBody].
package syn

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/husky-lang/termres/build/term"
)

type (
	// ExprIdx is the index of an expression in its region arena.
	ExprIdx int

	// Kind of an expression.
	Kind uint8

	// SuffixOp is a suffix operator.
	SuffixOp uint8

	// Expr is one node of the arena.
	Expr struct {
		Kind Kind
		// Node is the source of the expression. It is nil for
		// expressions built programmatically.
		Node ast.Node

		// LitKind and Text describe a literal.
		LitKind term.LiteralKind
		Text    string

		// Path of a path reference or an aggregate.
		Path term.Path
		// TemplateArgs are the explicit template arguments of a path
		// reference or an aggregate, as declarative terms.
		TemplateArgs []term.Term

		// Op is the operator of binary and prefix expressions.
		Op token.Token
		// Suffix is the operator of a suffix expression.
		Suffix SuffixOp

		// Ident is the member of a field access or method call.
		Ident string

		// Operands of the expression. For a method call, the receiver is
		// the first operand. For a call, the callee is.
		Operands []ExprIdx
		// Names of the fields of an aggregate. Empty for positional fields.
		Names []string

		// Stmts and Tail of a block. Tail is NoExpr if the block has no value.
		Stmts []Stmt
		Tail  ExprIdx
	}

	// Stmt is a statement of a block.
	Stmt struct {
		// Let is set for a let statement. Expr is set otherwise.
		Let  *Let
		Expr ExprIdx
	}

	// Let declares a local variable.
	Let struct {
		Node    ast.Node
		Name    string
		Mutable bool
		// Ty is the declared type, a declarative term, or nil.
		Ty   term.Term
		Init ExprIdx
	}

	// Param is a parameter of a region.
	Param struct {
		Name    string
		Mutable bool
		Ty      term.Term
	}

	// Region is the arena of expressions of one body.
	Region struct {
		Path     term.Path
		FSet     *token.FileSet
		Params   []Param
		ReturnTy term.Term
		Root     ExprIdx

		exprs []Expr
	}
)

// NoExpr is the index of a missing expression.
const NoExpr ExprIdx = -1

// Kinds of expressions.
const (
	LiteralExpr Kind = iota
	PathExpr
	BinaryExpr
	PrefixExpr
	SuffixExpr
	FieldExpr
	MethodCallExpr
	CallExpr
	AggregateExpr
	IndexExpr
	BlockExpr
	ReturnExpr
)

const (
	// Incr is x++.
	Incr SuffixOp = iota
	// Decr is x--.
	Decr
	// Unveil is x? on an Option.
	Unveil
)

// NewRegion returns an empty region.
func NewRegion(path term.Path) *Region {
	return &Region{Path: path, Root: NoExpr, FSet: token.NewFileSet()}
}

// Len returns the number of expressions in the arena.
func (r *Region) Len() int {
	return len(r.exprs)
}

// Expr returns an expression given its index.
func (r *Region) Expr(idx ExprIdx) *Expr {
	return &r.exprs[idx]
}

// AddParam appends a parameter to the region.
func (r *Region) AddParam(name string, mutable bool, ty term.Term) {
	r.Params = append(r.Params, Param{Name: name, Mutable: mutable, Ty: ty})
}

func (r *Region) add(expr Expr) ExprIdx {
	r.exprs = append(r.exprs, expr)
	return ExprIdx(len(r.exprs) - 1)
}

// Literal appends a literal.
func (r *Region) Literal(kind term.LiteralKind, text string) ExprIdx {
	return r.add(Expr{Kind: LiteralExpr, LitKind: kind, Text: text})
}

// PathRef appends a reference to a local variable or to an entity.
func (r *Region) PathRef(path term.Path, templateArgs ...term.Term) ExprIdx {
	return r.add(Expr{Kind: PathExpr, Path: path, TemplateArgs: templateArgs})
}

// Binary appends a binary operation.
func (r *Region) Binary(op token.Token, x, y ExprIdx) ExprIdx {
	return r.add(Expr{Kind: BinaryExpr, Op: op, Operands: []ExprIdx{x, y}})
}

// Prefix appends a prefix operation: -x, !x, &x or *x.
func (r *Region) Prefix(op token.Token, x ExprIdx) ExprIdx {
	return r.add(Expr{Kind: PrefixExpr, Op: op, Operands: []ExprIdx{x}})
}

// SuffixOp appends a suffix operation.
func (r *Region) SuffixOp(op SuffixOp, x ExprIdx) ExprIdx {
	return r.add(Expr{Kind: SuffixExpr, Suffix: op, Operands: []ExprIdx{x}})
}

// Field appends a field access.
func (r *Region) Field(x ExprIdx, ident string) ExprIdx {
	return r.add(Expr{Kind: FieldExpr, Ident: ident, Operands: []ExprIdx{x}})
}

// MethodCall appends a method call.
func (r *Region) MethodCall(recv ExprIdx, ident string, args ...ExprIdx) ExprIdx {
	return r.add(Expr{Kind: MethodCallExpr, Ident: ident, Operands: append([]ExprIdx{recv}, args...)})
}

// Call appends a call.
func (r *Region) Call(fn ExprIdx, args ...ExprIdx) ExprIdx {
	return r.add(Expr{Kind: CallExpr, Operands: append([]ExprIdx{fn}, args...)})
}

// Aggregate appends the construction of a value of a type.
// names is either empty, for positional fields, or has the length of vals.
func (r *Region) Aggregate(path term.Path, templateArgs []term.Term, names []string, vals ...ExprIdx) ExprIdx {
	return r.add(Expr{Kind: AggregateExpr, Path: path, TemplateArgs: templateArgs, Names: names, Operands: vals})
}

// Index appends an index expression x[i].
func (r *Region) Index(x, i ExprIdx) ExprIdx {
	return r.add(Expr{Kind: IndexExpr, Operands: []ExprIdx{x, i}})
}

// Block appends a block. tail is NoExpr if the block has no value.
func (r *Region) Block(stmts []Stmt, tail ExprIdx) ExprIdx {
	return r.add(Expr{Kind: BlockExpr, Stmts: stmts, Tail: tail})
}

// Return appends a return expression. x is NoExpr for a bare return.
func (r *Region) Return(x ExprIdx) ExprIdx {
	var operands []ExprIdx
	if x != NoExpr {
		operands = []ExprIdx{x}
	}
	return r.add(Expr{Kind: ReturnExpr, Operands: operands})
}

// Children returns the direct subexpressions of an expression in
// evaluation order.
func (r *Region) Children(idx ExprIdx) []ExprIdx {
	expr := r.Expr(idx)
	children := append([]ExprIdx{}, expr.Operands...)
	for _, stmt := range expr.Stmts {
		if stmt.Let != nil {
			children = append(children, stmt.Let.Init)
			continue
		}
		children = append(children, stmt.Expr)
	}
	if expr.Kind == BlockExpr && expr.Tail != NoExpr {
		children = append(children, expr.Tail)
	}
	return children
}

// Parents returns the parent of each expression reachable from the root.
// The root and the expressions not reachable from it have no parent.
func (r *Region) Parents() []ExprIdx {
	parents := make([]ExprIdx, len(r.exprs))
	for i := range parents {
		parents[i] = NoExpr
	}
	if r.Root == NoExpr {
		return parents
	}
	stack := []ExprIdx{r.Root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range r.Children(idx) {
			parents[child] = idx
			stack = append(stack, child)
		}
	}
	return parents
}

// LetStmt returns a let statement.
func LetStmt(name string, mutable bool, ty term.Term, init ExprIdx) Stmt {
	return Stmt{Let: &Let{Name: name, Mutable: mutable, Ty: ty, Init: init}, Expr: NoExpr}
}

// ExprStmt returns an expression statement.
func ExprStmt(x ExprIdx) Stmt {
	return Stmt{Expr: x}
}

func (k Kind) String() string {
	switch k {
	case LiteralExpr:
		return "literal"
	case PathExpr:
		return "path"
	case BinaryExpr:
		return "binary"
	case PrefixExpr:
		return "prefix"
	case SuffixExpr:
		return "suffix"
	case FieldExpr:
		return "field"
	case MethodCallExpr:
		return "method call"
	case CallExpr:
		return "call"
	case AggregateExpr:
		return "aggregate"
	case IndexExpr:
		return "index"
	case BlockExpr:
		return "block"
	case ReturnExpr:
		return "return"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (op SuffixOp) String() string {
	switch op {
	case Incr:
		return "++"
	case Decr:
		return "--"
	case Unveil:
		return "?"
	}
	return fmt.Sprintf("SuffixOp(%d)", int(op))
}
