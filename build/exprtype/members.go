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
	"github.com/husky-lang/termres/build/dispatch"
	"github.com/husky-lang/termres/build/expect"
	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/pkg/errors"
)

type methodRequest struct {
	ident string
	// trait restricts the lookup to the impl blocks of a trait.
	trait term.Path
}

// dispatchMethod resolves a method on the type of a receiver.
// It returns nil if the receiver has no such method.
func (w *walker) dispatchMethod(idx, recv syn.ExprIdx, recvTy term.Term, req methodRequest) (*dispatch.Candidate, bool) {
	if err := unknown(recvTy); err != nil {
		return nil, w.fail(idx, err)
	}
	c, err := w.eng.dispatch.ResolveMethod(w.store, dispatch.Request{
		Receiver: recvTy,
		Ident:    req.ident,
		Quary:    w.nodes[recv].quary,
		InScope:  w.eng.traits,
		Trait:    req.trait,
	})
	if err != nil {
		return nil, w.fail(idx, err)
	}
	w.nodes[idx].method = c
	return c, true
}

// apply checks the arguments of a call against the signature of the callee.
func (w *walker) apply(idx syn.ExprIdx, fnTy term.Term, args []syn.ExprIdx) (term.Term, bool) {
	sig, ok := fnTy.(*term.Ritchie)
	if !ok {
		w.skip(args)
		if h, isHole := term.HoleOf(fnTy); isHole {
			return nil, w.fail(idx, &fluffy.AnnotationNeededError{Hole: h})
		}
		return nil, w.fail(idx, &NotCallableError{Got: fnTy})
	}
	if len(sig.Params) != len(args) {
		w.skip(args)
		return nil, w.fail(idx, &term.ArityMismatchError{What: w.region.Source(idx), Want: len(sig.Params), Got: len(args)})
	}
	ok = true
	for i, arg := range args {
		param := sig.Params[i]
		_, argOk := w.infer(arg, convertibleTo(param.Ty, param.Contract))
		ok = argOk && ok
	}
	if !ok {
		return nil, w.derive(idx)
	}
	return sig.Return, true
}

// applyMethod instantiates the template parameters of a method with
// holes and applies its signature to the arguments.
func (w *walker) applyMethod(idx syn.ExprIdx, sig term.Term, args []syn.ExprIdx) (term.Term, bool) {
	sig, _ = expect.InstantiateImplicits(w.table, sig, w.provenance(idx))
	return w.apply(idx, sig, args)
}

func (w *walker) fieldAccess(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	if path, ok := w.entityPath(idx); ok {
		return w.entity(idx, path, nil)
	}
	recv := expr.Operands[0]
	recvTy, ok := w.infer(recv, expect.AnyDerived{})
	if !ok {
		return nil, w.derive(idx)
	}
	recvTy = w.settle(recvTy)
	if err := unknown(recvTy); err != nil {
		return nil, w.fail(idx, err)
	}
	c, err := w.eng.dispatch.ResolveField(w.store, dispatch.Request{
		Receiver: recvTy,
		Ident:    expr.Ident,
		Quary:    w.nodes[recv].quary,
	})
	if err != nil {
		return nil, w.fail(idx, err)
	}
	if c == nil {
		return nil, w.fail(idx, &NoSuchMemberError{Receiver: recvTy, Ident: expr.Ident, Field: true})
	}
	n := &w.nodes[idx]
	n.field = c
	n.quary = c.Quary
	return c.Ty, true
}

func (w *walker) methodCall(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	recv, args := expr.Operands[0], expr.Operands[1:]
	if path, ok := w.entityPath(recv); ok {
		fnTy, ok := w.entity(idx, path.Join(expr.Ident), nil)
		if !ok {
			w.skip(args)
			return nil, false
		}
		return w.applyMethod(idx, fnTy, args)
	}
	recvTy, ok := w.infer(recv, expect.AnyDerived{})
	if !ok {
		w.skip(args)
		return nil, w.derive(idx)
	}
	recvTy = w.settle(recvTy)
	c, ok := w.dispatchMethod(idx, recv, recvTy, methodRequest{ident: expr.Ident})
	if !ok {
		w.skip(args)
		return nil, false
	}
	if c == nil {
		w.skip(args)
		return nil, w.fail(idx, &NoSuchMemberError{Receiver: recvTy, Ident: expr.Ident})
	}
	return w.applyMethod(idx, c.Signature, args)
}

func (w *walker) call(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	callee, args := expr.Operands[0], expr.Operands[1:]
	fnTy, ok := w.infer(callee, expect.Callable())
	if !ok {
		w.skip(args)
		return nil, w.derive(idx)
	}
	if w.nodes[callee].entry.Pending() {
		// The strong sweep reports the callee.
		w.skip(args)
		return nil, w.derive(idx)
	}
	return w.apply(idx, fnTy, args)
}

func (w *walker) index(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	x, i := expr.Operands[0], expr.Operands[1]
	tx, ok := w.infer(x, expect.AnyDerived{})
	if !ok {
		w.skip([]syn.ExprIdx{i})
		return nil, w.derive(idx)
	}
	tx = w.settle(tx)
	return w.operator(idx, term.IndexTrait, x, tx, []syn.ExprIdx{i})
}

// aggregate infers the type of the construction of a value. Template
// arguments not given explicitly are inferred from the fields.
func (w *walker) aggregate(idx syn.ExprIdx, expr *syn.Expr) (term.Term, bool) {
	path, ok := w.eng.decls.ResolvePath(expr.Path)
	if !ok {
		w.skip(expr.Operands)
		return nil, w.fail(idx, &term.UnresolvedPathError{Path: expr.Path})
	}
	typ, err := w.eng.decls.Type(path)
	if err != nil {
		w.skip(expr.Operands)
		return nil, w.fail(idx, err)
	}
	args, ok := w.templateArgs(idx, expr.TemplateArgs)
	if !ok {
		w.skip(expr.Operands)
		return nil, false
	}
	if len(args) == 0 {
		for _, param := range typ.Params {
			args = append(args, w.table.NewHole(term.ImplicitType, term.Provenance{Expr: int(idx), Symbol: param}))
		}
	}
	inst, err := term.NewExplicitInstantiation(typ.Path, typ.Params, args)
	if err != nil {
		w.skip(expr.Operands)
		return nil, w.fail(idx, err)
	}
	fieldTy := func(field string) (term.Term, error) {
		f, ok := typ.Field(field)
		if !ok {
			return nil, &NoSuchMemberError{Receiver: typ.Term(w.eng.store), Ident: field, Field: true}
		}
		return term.Instantiate(w.store, f.Ty, inst)
	}
	ok = true
	if len(expr.Names) == 0 {
		if len(expr.Operands) != len(typ.Fields) {
			w.skip(expr.Operands)
			return nil, w.fail(idx, &term.ArityMismatchError{What: "fields of " + string(typ.Path), Want: len(typ.Fields), Got: len(expr.Operands)})
		}
		for i, val := range expr.Operands {
			ty, err := fieldTy(typ.Fields[i].Name)
			if err != nil {
				return nil, w.fail(idx, err)
			}
			_, valOk := w.infer(val, convertibleTo(ty, term.Move))
			ok = valOk && ok
		}
	} else {
		set := make(map[string]bool)
		for i, val := range expr.Operands {
			name := expr.Names[i]
			ty, err := fieldTy(name)
			if err == nil && set[name] {
				err = errors.Errorf("field %s set twice", name)
			}
			if err != nil {
				w.infer(val, expect.AnyOriginal{})
				ok = w.fail(idx, err)
				continue
			}
			set[name] = true
			_, valOk := w.infer(val, convertibleTo(ty, term.Move))
			ok = valOk && ok
		}
		for _, field := range typ.Fields {
			if !set[field.Name] && w.nodes[idx].err == nil {
				ok = w.fail(idx, errors.Errorf("missing field %s in %s", field.Name, typ.Path))
			}
		}
	}
	if !ok {
		if w.nodes[idx].err == nil {
			w.derive(idx)
		}
		return nil, false
	}
	return w.typ(typ.Path, args...), true
}
