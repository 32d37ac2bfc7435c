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
	"go/token"

	"github.com/husky-lang/termres/build/decl"
	"github.com/husky-lang/termres/build/expect"
	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/pkg/errors"
)

var binaryTraits = map[token.Token]term.Path{
	token.ADD: term.AddTrait,
	token.SUB: term.SubTrait,
	token.MUL: term.MulTrait,
	token.QUO: term.DivTrait,
}

func isComparison(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.GTR, token.LEQ, token.GEQ:
		return true
	}
	return false
}

// deref removes the indirections of a type.
func deref(t term.Term) term.Term {
	for {
		to, ok := t.(*term.TypeOntology)
		if !ok || !to.Path.IsIndirection() || len(to.Args) != 1 {
			return t
		}
		t = to.Args[0]
	}
}

// numeric returns the builtin numeric type behind a type, or nil.
// Unspecified numeric literal types are numeric.
func numeric(t term.Term) term.Term {
	t = deref(t)
	if h, ok := term.HoleOf(t); ok {
		if h.Kind == term.UnspecifiedIntegerType || h.Kind == term.UnspecifiedFloatType {
			return h
		}
		return nil
	}
	if term.PathOf(t).IsNumeric() {
		return t
	}
	return nil
}

// derefQuary returns the quary of the value behind the indirections of a type.
func derefQuary(t term.Term, q term.Quary) term.Quary {
	for {
		to, ok := t.(*term.TypeOntology)
		if !ok || !to.Path.IsIndirection() || len(to.Args) != 1 {
			return q
		}
		q = q.Deref(to.Path)
		t = to.Args[0]
	}
}

func isInteger(t term.Term) bool {
	if h, ok := term.HoleOf(t); ok {
		return h.Kind == term.UnspecifiedIntegerType
	}
	return term.PathOf(t).IsInteger()
}

// unknown returns an annotation needed error if a type is an unbound
// hole that cannot be dispatched on.
func unknown(t term.Term) error {
	h, ok := term.HoleOf(deref(t))
	if !ok {
		return nil
	}
	return &fluffy.AnnotationNeededError{Hole: h}
}

func (w *walker) binary(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	x, y := expr.Operands[0], expr.Operands[1]
	boolT := w.typ(term.BoolPath)
	if expr.Op == token.LAND || expr.Op == token.LOR {
		_, xOk := w.infer(x, convertibleTo(boolT, term.Pure))
		_, yOk := w.infer(y, convertibleTo(boolT, term.Pure))
		if !xOk || !yOk {
			return nil, w.derive(idx)
		}
		return boolT, true
	}
	tx, ok := w.infer(x, expect.AnyDerived{})
	if !ok {
		w.skip([]syn.ExprIdx{y})
		return nil, w.derive(idx)
	}
	tx = w.settle(tx)
	if num := numeric(tx); num != nil {
		if expr.Op == token.REM && !isInteger(num) {
			w.skip([]syn.ExprIdx{y})
			return nil, w.fail(idx, &OperatorError{Op: expr.Op.String(), Ty: num})
		}
		if _, ok := w.infer(y, convertibleTo(num, term.Pure)); !ok {
			return nil, w.derive(idx)
		}
		if isComparison(expr.Op) {
			return boolT, true
		}
		return num, true
	}
	if expr.Op == token.EQL || expr.Op == token.NEQ {
		if _, ok := w.infer(y, convertibleTo(tx, term.Pure)); !ok {
			return nil, w.derive(idx)
		}
		return boolT, true
	}
	trait, ok := binaryTraits[expr.Op]
	if !ok {
		w.skip([]syn.ExprIdx{y})
		return nil, w.fail(idx, &OperatorError{Op: expr.Op.String(), Ty: tx})
	}
	return w.operator(idx, trait, x, tx, []syn.ExprIdx{y})
}

func (w *walker) prefix(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	x := expr.Operands[0]
	tx, ok := w.infer(x, expect.AnyDerived{})
	if !ok {
		return nil, w.derive(idx)
	}
	tx = w.settle(tx)
	switch expr.Op {
	case token.SUB:
		num := numeric(tx)
		if num == nil {
			return w.operator(idx, term.NegTrait, x, tx, nil)
		}
		if path := term.PathOf(num); path.IsInteger() && !path.IsSigned() {
			return nil, w.fail(idx, &OperatorError{Op: expr.Op.String(), Ty: num})
		}
		return num, true
	case token.NOT:
		under := deref(tx)
		if term.PathOf(under) == term.BoolPath || isInteger(under) {
			return under, true
		}
		return w.operator(idx, term.NotTrait, x, tx, nil)
	case token.AND:
		return w.typ(term.RefPath, tx), true
	case token.MUL:
		if h, isHole := term.HoleOf(tx); isHole {
			return nil, w.fail(idx, &fluffy.AnnotationNeededError{Hole: h})
		}
		to, ok := tx.(*term.TypeOntology)
		if !ok || !to.Path.IsIndirection() {
			return nil, w.fail(idx, errors.Errorf("cannot dereference a value of type %s", tx))
		}
		w.nodes[idx].quary = w.nodes[x].quary.Deref(to.Path)
		return to.Args[0], true
	}
	return nil, w.fail(idx, errors.Errorf("prefix operator %s not supported", expr.Op))
}

func (w *walker) suffix(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	x := expr.Operands[0]
	tx, ok := w.infer(x, expect.AnyDerived{})
	if !ok {
		return nil, w.derive(idx)
	}
	tx = w.settle(tx)
	switch expr.Suffix {
	case syn.Incr, syn.Decr:
		if !isInteger(deref(tx)) {
			return nil, w.fail(idx, &OperatorError{Op: expr.Suffix.String(), Ty: tx})
		}
		if !derefQuary(tx, w.nodes[x].quary).Mutable() {
			return nil, w.fail(idx, &ImmutableError{Src: w.region.Source(x)})
		}
		return w.typ(term.UnitPath), true
	case syn.Unveil:
		if err := unknown(tx); err != nil {
			return nil, w.fail(idx, err)
		}
		exp := term.ApplicationExpansion(tx)
		if exp.Path != term.OptionPath || len(exp.Args) != 1 {
			return nil, w.fail(idx, &OperatorError{Op: expr.Suffix.String(), Ty: tx})
		}
		return exp.Args[0], true
	}
	return nil, w.fail(idx, errors.Errorf("suffix operator %s not supported", expr.Suffix))
}

// operator dispatches an operator to the method of its trait.
func (w *walker) operator(idx syn.ExprIdx, trait term.Path, recv syn.ExprIdx, recvTy term.Term, args []syn.ExprIdx) (term.Term, bool) {
	c, ok := w.dispatchMethod(idx, recv, recvTy, methodRequest{ident: decl.OperatorMethods[trait], trait: trait})
	if !ok {
		w.skip(args)
		return nil, false
	}
	if c == nil {
		w.skip(args)
		return nil, w.fail(idx, &OperatorError{Op: w.operatorString(idx), Ty: recvTy})
	}
	return w.applyMethod(idx, c.Signature, args)
}

func (w *walker) operatorString(idx syn.ExprIdx) string {
	expr := w.region.Expr(idx)
	if expr.Kind == syn.IndexExpr {
		return "[]"
	}
	return expr.Op.String()
}
