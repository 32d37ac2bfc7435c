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

package exprtype

import (
	"go/ast"

	"github.com/husky-lang/termres/build/dispatch"
	"github.com/husky-lang/termres/build/expect"
	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/husky-lang/termres/internal/base/scope"
	"github.com/pkg/errors"
)

type node struct {
	visited     bool
	term        term.Term
	quary       term.Quary
	expectation expect.Expectation
	entry       *expect.Entry
	method      *dispatch.Candidate
	field       *dispatch.FieldCandidate
	err         error
}

// walker infers the types of one region.
type walker struct {
	eng    *Engine
	region *syn.Region
	// store is the local store of the region.
	store *term.Store
	table *fluffy.Table
	list  *expect.List

	errs *fmterr.Errors
	err  *fmterr.Appender

	nodes    []node
	locals   []*Local
	scope    *scope.RWScope[*Local]
	returnTy term.Term

	// reported are the holes for which an annotation needed error has been reported.
	reported map[*term.Hole]bool
	// abort is set by an internal error.
	abort error
}

func newWalker(eng *Engine, region *syn.Region) *walker {
	table := fluffy.NewTable(eng.store)
	errs := &fmterr.Errors{}
	return &walker{
		eng:      eng,
		region:   region,
		store:    table.Store(),
		table:    table,
		list:     expect.NewList(table),
		errs:     errs,
		err:      errs.NewAppender(region.FSet),
		nodes:    make([]node, region.Len()),
		scope:    scope.NewScope[*Local](nil),
		reported: make(map[*term.Hole]bool),
	}
}

func (w *walker) provenance(idx syn.ExprIdx) term.Provenance {
	return term.Provenance{Expr: int(idx)}
}

func (w *walker) typ(path term.Path, args ...term.Term) term.Term {
	return w.store.NewTypeOntology(term.Ethereal, path, args...)
}

func (w *walker) ethereal(t term.Term) (term.Term, error) {
	return w.eng.store.Ethereal(w.eng.decls, t)
}

func convertibleTo(dst term.Term, contract term.Contract) expect.Expectation {
	return expect.ImplicitlyConvertible{Dst: dst, Contract: contract}
}

// appendErr reports an error at a source node.
func (w *walker) appendErr(src ast.Node, err error) bool {
	if fmterr.IsInternal(err) {
		if w.abort == nil {
			w.abort = err
		}
		return false
	}
	var annotation *fluffy.AnnotationNeededError
	if errors.As(err, &annotation) {
		if w.reported[annotation.Hole] {
			return false
		}
		w.reported[annotation.Hole] = true
	}
	if src == nil {
		return w.err.Append(err)
	}
	return w.err.AppendAt(src, err)
}

// fail sets an original error on an expression and reports it.
func (w *walker) fail(idx syn.ExprIdx, err error) bool {
	w.nodes[idx].err = err
	return w.appendErr(w.region.Expr(idx).Node, err)
}

// derive sets a dependency error on an expression.
func (w *walker) derive(idx syn.ExprIdx) bool {
	w.nodes[idx].err = &DependencyError{Kind: w.region.Expr(idx).Kind}
	return false
}

func (w *walker) define(name string, mutable bool, ty term.Term) *Local {
	local := &Local{Name: name, Index: len(w.locals), Mutable: mutable, Ty: ty}
	w.locals = append(w.locals, local)
	w.scope.Define(name, local)
	return local
}

// params defines the parameters of the region and its return type.
func (w *walker) params() {
	for _, param := range w.region.Params {
		ty, err := w.ethereal(param.Ty)
		if err != nil {
			w.appendErr(nil, errors.WithMessagef(err, "parameter %s", param.Name))
			ty = nil
		}
		w.define(param.Name, param.Mutable, ty)
	}
	if w.region.ReturnTy == nil {
		w.returnTy = w.table.NewHole(term.AnyType, w.provenance(w.region.Root))
		return
	}
	ty, err := w.ethereal(w.region.ReturnTy)
	if err != nil {
		w.appendErr(nil, errors.WithMessage(err, "return type"))
		ty = w.table.NewHole(term.AnyType, w.provenance(w.region.Root))
	}
	w.returnTy = ty
}

// infer the type of an expression given the expectation of its parent.
// The returned term is the type of the expression once the leading
// implicit curries have been instantiated.
func (w *walker) infer(idx syn.ExprIdx, exp expect.Expectation) (term.Term, bool) {
	if w.abort != nil {
		return nil, false
	}
	n := &w.nodes[idx]
	if n.visited {
		w.abort = fmterr.Internal(errors.Errorf("expression %d visited twice", idx))
		return nil, false
	}
	n.visited = true
	n.expectation = exp
	n.quary = term.TransientQuary()
	cand, ok := w.candidate(idx)
	if !ok {
		return nil, false
	}
	n.term = cand
	entry, err := w.list.Add(int(idx), exp, cand)
	if err != nil {
		return nil, w.fail(idx, err)
	}
	n.entry = entry
	n.term = entry.Candidate
	if entry.Outcome.Err != nil {
		return nil, w.fail(idx, entry.Outcome.Err)
	}
	return w.table.Resolve(entry.Candidate), true
}

// settle returns the type of an operand an operator or a member access
// looks into. When the type is still a generic hole, the pending
// expectations are resolved strongly first so that the result of a
// generic call can be dispatched on.
func (w *walker) settle(t term.Term) term.Term {
	h, isHole := term.HoleOf(deref(t))
	if !isHole || !expect.IsGeneric(h) {
		return t
	}
	if err := w.list.Sweep(expect.Strong); err != nil {
		w.abort = err
		return t
	}
	return w.table.Resolve(t)
}

// skip infers the types of expressions whose parent already failed.
func (w *walker) skip(idxs []syn.ExprIdx) {
	for _, idx := range idxs {
		w.infer(idx, expect.AnyOriginal{})
	}
}

func (w *walker) candidate(idx syn.ExprIdx) (term.Term, bool) {
	expr := w.region.Expr(idx)
	switch expr.Kind {
	case syn.LiteralExpr:
		return w.literal(idx, expr)
	case syn.PathExpr:
		return w.path(idx, expr)
	case syn.BinaryExpr:
		return w.binary(idx, expr)
	case syn.PrefixExpr:
		return w.prefix(idx, expr)
	case syn.SuffixExpr:
		return w.suffix(idx, expr)
	case syn.FieldExpr:
		return w.fieldAccess(idx, expr)
	case syn.MethodCallExpr:
		return w.methodCall(idx, expr)
	case syn.CallExpr:
		return w.call(idx, expr)
	case syn.AggregateExpr:
		return w.aggregate(idx, expr)
	case syn.IndexExpr:
		return w.index(idx, expr)
	case syn.BlockExpr:
		return w.block(idx, expr)
	case syn.ReturnExpr:
		return w.ret(idx, expr)
	}
	return nil, w.fail(idx, fmterr.Internal(errors.Errorf("expression kind %s not supported", expr.Kind)))
}

func (w *walker) literal(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	switch expr.LitKind {
	case term.IntLiteral:
		return w.table.NewHole(term.UnspecifiedIntegerType, w.provenance(idx)), true
	case term.FloatLiteral:
		return w.table.NewHole(term.UnspecifiedFloatType, w.provenance(idx)), true
	case term.BoolLiteral:
		return w.typ(term.BoolPath), true
	case term.StringLiteral:
		return w.typ(term.StrPath), true
	}
	return nil, w.fail(idx, fmterr.Internal(errors.Errorf("literal kind %d not supported", expr.LitKind)))
}

// path infers the type of a reference to a local variable or to an entity.
func (w *walker) path(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	local, isLocal := w.scope.Find(string(expr.Path))
	if !isLocal {
		return w.entity(idx, expr.Path, expr.TemplateArgs)
	}
	if len(expr.TemplateArgs) > 0 {
		return nil, w.fail(idx, errors.Errorf("local variable %s cannot take template arguments", expr.Path))
	}
	if local.Ty == nil {
		return nil, w.derive(idx)
	}
	w.nodes[idx].quary = term.StackQuary(local.Index, local.Mutable)
	return local.Ty, true
}

func isUnresolved(err error) bool {
	_, ok := err.(*term.UnresolvedPathError)
	return ok
}

func (w *walker) templateArgs(idx syn.ExprIdx, args []term.Term) ([]term.Term, bool) {
	out := make([]term.Term, len(args))
	for i, arg := range args {
		var err error
		if out[i], err = w.ethereal(arg); err != nil {
			return nil, w.fail(idx, errors.WithMessagef(err, "template argument %d", i))
		}
	}
	return out, true
}

// entity infers the type of a reference to a declaration. Functions are
// typed by their signature behind one implicit curry per template
// parameter. Explicit template arguments instantiate the leading curries.
func (w *walker) entity(idx syn.ExprIdx, path term.Path, tmplArgs []term.Term) (term.Term, bool) {
	canonical, ok := w.eng.decls.ResolvePath(path)
	if !ok {
		return nil, w.fail(idx, &term.UnresolvedPathError{Path: path})
	}
	args, ok := w.templateArgs(idx, tmplArgs)
	if !ok {
		return nil, false
	}
	fn, err := w.eng.decls.Fn(canonical)
	if err == nil {
		ty, err := term.InstantiateCurries(w.store, fn.Type(w.eng.store), args)
		if err != nil {
			return nil, w.fail(idx, err)
		}
		return ty, true
	}
	if !isUnresolved(err) {
		return nil, w.fail(idx, err)
	}
	if _, err := w.eng.decls.Type(canonical); !isUnresolved(err) {
		if err != nil {
			return nil, w.fail(idx, err)
		}
		return w.store.NewCategory(term.Ethereal, 0), true
	}
	return nil, w.fail(idx, errors.Errorf("%s is not a value", canonical))
}

// entityPath returns the path of an entity written as a chain of field
// accesses such as geo.id. A chain starting with a local variable is not a path.
func (w *walker) entityPath(idx syn.ExprIdx) (term.Path, bool) {
	expr := w.region.Expr(idx)
	switch expr.Kind {
	case syn.PathExpr:
		if len(expr.TemplateArgs) > 0 {
			return "", false
		}
		if _, isLocal := w.scope.Find(string(expr.Path)); isLocal {
			return "", false
		}
		return expr.Path, true
	case syn.FieldExpr:
		base, ok := w.entityPath(expr.Operands[0])
		return base.Join(expr.Ident), ok
	}
	return "", false
}

func (w *walker) block(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	parent := w.scope
	w.scope = scope.NewScope[*Local](parent)
	defer func() { w.scope = parent }()
	ok := true
	never := false
	for _, stmt := range expr.Stmts {
		if stmt.Let != nil {
			ok = w.let(stmt.Let) && ok
			continue
		}
		ty, stmtOk := w.infer(stmt.Expr, expect.AnyOriginal{})
		if stmtOk && term.IsNever(ty) {
			never = true
		}
		ok = stmtOk && ok
	}
	var ty term.Term
	switch {
	case expr.Tail != syn.NoExpr:
		var tailOk bool
		ty, tailOk = w.infer(expr.Tail, expect.AnyDerived{})
		ok = tailOk && ok
	case never:
		ty = w.typ(term.NeverPath)
	default:
		ty = w.typ(term.UnitPath)
	}
	if !ok {
		return nil, w.derive(idx)
	}
	return ty, true
}

func (w *walker) let(let *syn.Let) bool {
	var declared term.Term
	if let.Ty != nil {
		var err error
		if declared, err = w.ethereal(let.Ty); err != nil {
			w.appendErr(let.Node, errors.WithMessagef(err, "type of %s", let.Name))
		}
	}
	var exp expect.Expectation = expect.AnyOriginal{}
	if declared != nil {
		exp = convertibleTo(declared, term.Move)
	}
	ty, ok := w.infer(let.Init, exp)
	if declared != nil {
		ty = declared
	}
	w.define(let.Name, let.Mutable, ty)
	return ok && (let.Ty == nil || declared != nil)
}

func (w *walker) ret(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	never := w.typ(term.NeverPath)
	if len(expr.Operands) == 1 {
		if _, ok := w.infer(expr.Operands[0], convertibleTo(w.returnTy, term.Move)); !ok {
			return nil, w.derive(idx)
		}
		return never, true
	}
	unit := w.typ(term.UnitPath)
	want := w.table.Resolve(w.returnTy)
	if h, isHole := term.HoleOf(want); isHole {
		if err := w.table.Bind(h, unit); err != nil {
			return nil, w.fail(idx, err)
		}
		return never, true
	}
	if want != unit {
		return nil, w.fail(idx, &expect.TypeMismatchError{Want: want, Got: unit})
	}
	return never, true
}
