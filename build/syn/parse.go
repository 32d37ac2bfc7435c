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
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/term"
)

type exprParser struct {
	r     *Region
	types *typeParser
	err   *fmterr.Appender
}

func newExprParser(store *term.Store, r *Region, errs *fmterr.Errors) *exprParser {
	app := errs.NewAppender(r.FSet)
	return &exprParser{
		r:     r,
		types: &typeParser{store: store, err: app},
		err:   app,
	}
}

// ParseExpr parses an expression and appends it to the region arena.
func ParseExpr(store *term.Store, r *Region, src string) (ExprIdx, error) {
	expr, err := parser.ParseExprFrom(r.FSet, string(r.Path), src, 0)
	if err != nil {
		return NoExpr, err
	}
	errs := &fmterr.Errors{}
	p := newExprParser(store, r, errs)
	idx, ok := p.expr(expr)
	if !ok {
		return NoExpr, errs.ToError()
	}
	return idx, nil
}

const bodyPrefix = "package body; func _() {"

// ParseBody parses a list of statements as a block and sets it as the
// root of the region. The value of the block is the last statement if
// it is an expression.
func ParseBody(store *term.Store, r *Region, src string) (ExprIdx, error) {
	file, err := parser.ParseFile(r.FSet, string(r.Path), bodyPrefix+src+"\n}", parser.SkipObjectResolution)
	if err != nil {
		return NoExpr, err
	}
	errs := &fmterr.Errors{}
	p := newExprParser(store, r, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	idx, ok := p.block(fn.Body)
	if !ok {
		return NoExpr, errs.ToError()
	}
	r.Root = idx
	return idx, nil
}

func (p *exprParser) at(node ast.Node, idx ExprIdx) (ExprIdx, bool) {
	p.r.exprs[idx].Node = node
	return idx, true
}

func (p *exprParser) exprs(exprs []ast.Expr) ([]ExprIdx, bool) {
	idxs := make([]ExprIdx, len(exprs))
	ok := true
	for i, expr := range exprs {
		var exprOk bool
		idxs[i], exprOk = p.expr(expr)
		ok = ok && exprOk
	}
	return idxs, ok
}

func (p *exprParser) expr(expr ast.Expr) (ExprIdx, bool) {
	switch exprT := expr.(type) {
	case *ast.BasicLit:
		return p.basicLit(exprT)
	case *ast.Ident:
		if exprT.Name == "true" || exprT.Name == "false" {
			return p.at(exprT, p.r.Literal(term.BoolLiteral, exprT.Name))
		}
		return p.at(exprT, p.r.PathRef(term.Path(exprT.Name)))
	case *ast.ParenExpr:
		return p.expr(exprT.X)
	case *ast.SelectorExpr:
		x, ok := p.expr(exprT.X)
		if !ok {
			return NoExpr, false
		}
		return p.at(exprT, p.r.Field(x, exprT.Sel.Name))
	case *ast.CallExpr:
		return p.call(exprT)
	case *ast.UnaryExpr:
		switch exprT.Op {
		case token.SUB, token.NOT, token.AND:
		default:
			return NoExpr, p.err.Appendf(exprT, "unary operator %s not supported", exprT.Op)
		}
		x, ok := p.expr(exprT.X)
		if !ok {
			return NoExpr, false
		}
		return p.at(exprT, p.r.Prefix(exprT.Op, x))
	case *ast.StarExpr:
		x, ok := p.expr(exprT.X)
		if !ok {
			return NoExpr, false
		}
		return p.at(exprT, p.r.Prefix(token.MUL, x))
	case *ast.BinaryExpr:
		return p.binary(exprT)
	case *ast.IndexExpr:
		x, xOk := p.expr(exprT.X)
		i, iOk := p.expr(exprT.Index)
		if !xOk || !iOk {
			return NoExpr, false
		}
		return p.at(exprT, p.r.Index(x, i))
	case *ast.CompositeLit:
		return p.compositeLit(exprT)
	}
	return NoExpr, p.err.Appendf(expr, "expression of type %T not supported", expr)
}

func (p *exprParser) basicLit(lit *ast.BasicLit) (ExprIdx, bool) {
	switch lit.Kind {
	case token.INT:
		return p.at(lit, p.r.Literal(term.IntLiteral, lit.Value))
	case token.FLOAT:
		return p.at(lit, p.r.Literal(term.FloatLiteral, lit.Value))
	case token.STRING:
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			return NoExpr, p.err.AppendAt(lit, err)
		}
		return p.at(lit, p.r.Literal(term.StringLiteral, s))
	}
	return NoExpr, p.err.Appendf(lit, "literal %s not supported", lit.Kind)
}

func (p *exprParser) binary(expr *ast.BinaryExpr) (ExprIdx, bool) {
	switch expr.Op {
	case token.ADD, token.SUB, token.MUL, token.QUO, token.REM,
		token.EQL, token.NEQ, token.LSS, token.GTR, token.LEQ, token.GEQ,
		token.LAND, token.LOR:
	default:
		return NoExpr, p.err.Appendf(expr, "binary operator %s not supported", expr.Op)
	}
	x, xOk := p.expr(expr.X)
	y, yOk := p.expr(expr.Y)
	if !xOk || !yOk {
		return NoExpr, false
	}
	return p.at(expr, p.r.Binary(expr.Op, x, y))
}

// templatePath returns the path and template arguments of f[T1, T2].
func (p *exprParser) templatePath(expr ast.Expr) (term.Path, []term.Term, bool, bool) {
	var x ast.Expr
	var indices []ast.Expr
	switch exprT := expr.(type) {
	case *ast.IndexExpr:
		x, indices = exprT.X, []ast.Expr{exprT.Index}
	case *ast.IndexListExpr:
		x, indices = exprT.X, exprT.Indices
	default:
		path, isPath := pathOf(expr)
		return path, nil, isPath, true
	}
	path, isPath := pathOf(x)
	if !isPath {
		return "", nil, false, true
	}
	args, ok := p.types.typeExprs(indices)
	return path, args, true, ok
}

func (p *exprParser) call(expr *ast.CallExpr) (ExprIdx, bool) {
	args, argsOk := p.exprs(expr.Args)
	if sel, isSel := expr.Fun.(*ast.SelectorExpr); isSel {
		recv, recvOk := p.expr(sel.X)
		if !recvOk || !argsOk {
			return NoExpr, false
		}
		return p.at(expr, p.r.MethodCall(recv, sel.Sel.Name, args...))
	}
	var fn ExprIdx
	path, tmplArgs, isPath, ok := p.templatePath(expr.Fun)
	if !ok {
		return NoExpr, false
	}
	if isPath {
		fn, _ = p.at(expr.Fun, p.r.PathRef(path, tmplArgs...))
	} else {
		var fnOk bool
		if fn, fnOk = p.expr(expr.Fun); !fnOk {
			return NoExpr, false
		}
	}
	if !argsOk {
		return NoExpr, false
	}
	return p.at(expr, p.r.Call(fn, args...))
}

func (p *exprParser) compositeLit(expr *ast.CompositeLit) (ExprIdx, bool) {
	path, tmplArgs, isPath, ok := p.templatePath(expr.Type)
	if !ok {
		return NoExpr, false
	}
	if !isPath {
		return NoExpr, p.err.Appendf(expr.Type, "invalid aggregate type")
	}
	var names []string
	vals := make([]ExprIdx, len(expr.Elts))
	named := false
	if len(expr.Elts) > 0 {
		_, named = expr.Elts[0].(*ast.KeyValueExpr)
	}
	for i, elt := range expr.Elts {
		kv, isKV := elt.(*ast.KeyValueExpr)
		if isKV != named {
			return NoExpr, p.err.Appendf(elt, "mixture of field:value and value elements in aggregate")
		}
		if !isKV {
			var valOk bool
			vals[i], valOk = p.expr(elt)
			ok = ok && valOk
			continue
		}
		key, isIdent := kv.Key.(*ast.Ident)
		if !isIdent {
			return NoExpr, p.err.Appendf(kv.Key, "invalid field name")
		}
		names = append(names, key.Name)
		var valOk bool
		vals[i], valOk = p.expr(kv.Value)
		ok = ok && valOk
	}
	if !ok {
		return NoExpr, false
	}
	return p.at(expr, p.r.Aggregate(path, tmplArgs, names, vals...))
}

func (p *exprParser) block(block *ast.BlockStmt) (ExprIdx, bool) {
	var stmts []Stmt
	tail := NoExpr
	ok := true
	for i, stmt := range block.List {
		if exprStmt, isExpr := stmt.(*ast.ExprStmt); isExpr && i == len(block.List)-1 {
			var tailOk bool
			tail, tailOk = p.expr(exprStmt.X)
			ok = ok && tailOk
			continue
		}
		s, stmtOk := p.stmt(stmt)
		if !stmtOk {
			ok = false
			continue
		}
		stmts = append(stmts, s)
	}
	if !ok {
		return NoExpr, false
	}
	return p.at(block, p.r.Block(stmts, tail))
}

func (p *exprParser) let(node ast.Node, name *ast.Ident, mutable bool, tyExpr ast.Expr, value ast.Expr) (Stmt, bool) {
	var ty term.Term
	if tyExpr != nil {
		var tyOk bool
		if ty, tyOk = p.types.typeExpr(tyExpr); !tyOk {
			return Stmt{}, false
		}
	}
	init, ok := p.expr(value)
	if !ok {
		return Stmt{}, false
	}
	s := LetStmt(name.Name, mutable, ty, init)
	s.Let.Node = node
	return s, true
}

func (p *exprParser) stmt(stmt ast.Stmt) (Stmt, bool) {
	switch stmtT := stmt.(type) {
	case *ast.ExprStmt:
		x, ok := p.expr(stmtT.X)
		return ExprStmt(x), ok
	case *ast.AssignStmt:
		if stmtT.Tok != token.DEFINE {
			return Stmt{}, p.err.Appendf(stmtT, "assignment %s not supported", stmtT.Tok)
		}
		if len(stmtT.Lhs) != 1 || len(stmtT.Rhs) != 1 {
			return Stmt{}, p.err.Appendf(stmtT, "a let statement defines a single variable")
		}
		name, ok := stmtT.Lhs[0].(*ast.Ident)
		if !ok {
			return Stmt{}, p.err.Appendf(stmtT.Lhs[0], "invalid variable name")
		}
		return p.let(stmtT, name, false, nil, stmtT.Rhs[0])
	case *ast.DeclStmt:
		gen, ok := stmtT.Decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR || len(gen.Specs) != 1 {
			return Stmt{}, p.err.Appendf(stmtT, "declaration not supported")
		}
		spec := gen.Specs[0].(*ast.ValueSpec)
		if len(spec.Names) != 1 || len(spec.Values) != 1 {
			return Stmt{}, p.err.Appendf(stmtT, "a variable declaration defines a single initialised variable")
		}
		return p.let(stmtT, spec.Names[0], true, spec.Type, spec.Values[0])
	case *ast.ReturnStmt:
		if len(stmtT.Results) > 1 {
			return Stmt{}, p.err.Appendf(stmtT, "cannot return more than one value")
		}
		x := NoExpr
		if len(stmtT.Results) == 1 {
			var ok bool
			if x, ok = p.expr(stmtT.Results[0]); !ok {
				return Stmt{}, false
			}
		}
		idx, _ := p.at(stmtT, p.r.Return(x))
		return ExprStmt(idx), true
	case *ast.IncDecStmt:
		x, ok := p.expr(stmtT.X)
		if !ok {
			return Stmt{}, false
		}
		op := Incr
		if stmtT.Tok == token.DEC {
			op = Decr
		}
		idx, _ := p.at(stmtT, p.r.SuffixOp(op, x))
		return ExprStmt(idx), true
	case *ast.BlockStmt:
		idx, ok := p.block(stmtT)
		return ExprStmt(idx), ok
	}
	return Stmt{}, p.err.Appendf(stmt, "statement of type %T not supported", stmt)
}
