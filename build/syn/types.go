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
	"github.com/husky-lang/termres/internal/base/scope"
)

// TypeScope maps the names of template parameters to their symbols.
type TypeScope = scope.Scope[term.Term]

// CategoryIdent is the name of the type of types.
const CategoryIdent = "Type"

type typeParser struct {
	store *term.Store
	names TypeScope
	err   *fmterr.Appender
}

// ParseType parses a type expression into a declarative term.
//
// Types are written with the Go expression syntax: a path is a chain of
// identifiers separated by dots, template arguments are given between
// brackets, &T, *T and ~T are respectively Ref[T], RefMut[T] and
// Leash[T], and func(A, B) R is a callable. Names found in params are
// template parameters.
func ParseType(store *term.Store, fset *token.FileSet, src string, params TypeScope) (term.Term, error) {
	expr, err := parser.ParseExprFrom(fset, "", src, 0)
	if err != nil {
		return nil, err
	}
	errs := &fmterr.Errors{}
	p := &typeParser{store: store, names: params, err: errs.NewAppender(fset)}
	ty, ok := p.typeExpr(expr)
	if !ok {
		return nil, errs.ToError()
	}
	return ty, nil
}

// pathOf returns the path of a chain of identifiers.
func pathOf(expr ast.Expr) (term.Path, bool) {
	switch exprT := expr.(type) {
	case *ast.Ident:
		return term.Path(exprT.Name), true
	case *ast.SelectorExpr:
		x, ok := pathOf(exprT.X)
		if !ok {
			return "", false
		}
		return x.Join(exprT.Sel.Name), true
	}
	return "", false
}

func (p *typeParser) typeExprs(exprs []ast.Expr) ([]term.Term, bool) {
	ts := make([]term.Term, len(exprs))
	ok := true
	for i, expr := range exprs {
		var exprOk bool
		ts[i], exprOk = p.typeExpr(expr)
		ok = ok && exprOk
	}
	return ts, ok
}

func (p *typeParser) wrap(path term.Path, expr ast.Expr) (term.Term, bool) {
	x, ok := p.typeExpr(expr)
	if !ok {
		return nil, false
	}
	return p.store.NewTypeOntology(term.Declarative, path, x), true
}

func (p *typeParser) generic(x ast.Expr, indices []ast.Expr) (term.Term, bool) {
	fn, fnOk := p.typeExpr(x)
	args, argsOk := p.typeExprs(indices)
	if !fnOk || !argsOk {
		return nil, false
	}
	for _, arg := range args {
		fn = p.store.NewApplication(fn, arg)
	}
	return fn, true
}

func (p *typeParser) funcType(expr *ast.FuncType) (term.Term, bool) {
	var params []term.Param
	ok := true
	for _, field := range expr.Params.List {
		ty, tyOk := p.typeExpr(field.Type)
		ok = ok && tyOk
		for range max(len(field.Names), 1) {
			params = append(params, term.Param{Ty: ty})
		}
	}
	var ret term.Term = p.store.NewTypeOntology(term.Declarative, term.UnitPath)
	if expr.Results != nil {
		if len(expr.Results.List) != 1 || len(expr.Results.List[0].Names) > 1 {
			return nil, p.err.Appendf(expr.Results, "a callable returns at most one value")
		}
		var retOk bool
		ret, retOk = p.typeExpr(expr.Results.List[0].Type)
		ok = ok && retOk
	}
	if !ok {
		return nil, false
	}
	return p.store.NewRitchie(term.FnRitchie, params, ret), true
}

func (p *typeParser) typeExpr(expr ast.Expr) (term.Term, bool) {
	switch exprT := expr.(type) {
	case *ast.Ident:
		if exprT.Name == CategoryIdent {
			return p.store.NewCategory(term.Declarative, 0), true
		}
		if p.names != nil {
			if sym, ok := p.names.Find(exprT.Name); ok {
				return sym, true
			}
		}
		return p.store.NewTypeOntology(term.Declarative, term.Path(exprT.Name)), true
	case *ast.SelectorExpr:
		path, ok := pathOf(exprT)
		if !ok {
			return nil, p.err.Appendf(exprT, "invalid type path")
		}
		return p.store.NewTypeOntology(term.Declarative, path), true
	case *ast.IndexExpr:
		return p.generic(exprT.X, []ast.Expr{exprT.Index})
	case *ast.IndexListExpr:
		return p.generic(exprT.X, exprT.Indices)
	case *ast.UnaryExpr:
		switch exprT.Op {
		case token.AND:
			return p.wrap(term.RefPath, exprT.X)
		case token.TILDE:
			return p.wrap(term.LeashPath, exprT.X)
		}
		return nil, p.err.Appendf(exprT, "type operator %s not supported", exprT.Op)
	case *ast.StarExpr:
		return p.wrap(term.RefMutPath, exprT.X)
	case *ast.ParenExpr:
		return p.typeExpr(exprT.X)
	case *ast.FuncType:
		return p.funcType(exprT)
	case *ast.BasicLit:
		switch exprT.Kind {
		case token.INT:
			return p.store.NewLiteral(term.Declarative, term.IntLiteral, exprT.Value), true
		case token.STRING:
			s, err := strconv.Unquote(exprT.Value)
			if err != nil {
				return nil, p.err.AppendAt(exprT, err)
			}
			return p.store.NewLiteral(term.Declarative, term.StringLiteral, s), true
		}
	}
	return nil, p.err.Appendf(expr, "type expression %T not supported", expr)
}
