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
	"github.com/husky-lang/termres/build/fmterr"
	"github.com/pkg/errors"
)

// PathResolver resolves the paths written in declarative terms.
type PathResolver interface {
	// ResolvePath returns the canonical path of a declaration.
	ResolvePath(Path) (Path, bool)
}

// Ethereal returns the ethereal term of a declarative term.
// Paths are resolved to their canonical form and applications are
// normalised. Conversions are cached by the program store.
// Ethereal terms are returned as is.
func (s *Store) Ethereal(r PathResolver, t Term) (Term, error) {
	if t.Tier() != Declarative {
		return t, nil
	}
	prog := s.Program()
	if got, ok := prog.ethereal.Load(t); ok {
		return got, nil
	}
	got, err := prog.toEthereal(r, t)
	if err != nil {
		return nil, err
	}
	got, _ = prog.ethereal.LoadOrStore(t, got)
	return got, nil
}

func (s *Store) etherealAll(r PathResolver, ts []Term) ([]Term, error) {
	out := make([]Term, len(ts))
	for i, t := range ts {
		var err error
		if out[i], err = s.Ethereal(r, t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) toEthereal(r PathResolver, t Term) (Term, error) {
	switch tT := t.(type) {
	case *Literal:
		return s.NewLiteral(Ethereal, tT.Kind, tT.Text), nil
	case *Category:
		return s.NewCategory(Ethereal, tT.Universe), nil
	case *Rune:
		return s.newRune(Ethereal, tT.Index), nil
	case *Symbol:
		var ty Term
		if tT.Ty != nil {
			var err error
			if ty, err = s.Ethereal(r, tT.Ty); err != nil {
				return nil, err
			}
		}
		return s.NewSymbol(Ethereal, tT.Kind, tT.Owner, tT.Index, tT.Name, ty), nil
	case *TypeOntology:
		path, ok := r.ResolvePath(tT.Path)
		if !ok {
			return nil, &UnresolvedPathError{Path: tT.Path}
		}
		args, err := s.etherealAll(r, tT.Args)
		if err != nil {
			return nil, err
		}
		return s.NewTypeOntology(Ethereal, path, args...), nil
	case *Application:
		fn, err := s.Ethereal(r, tT.Function)
		if err != nil {
			return nil, err
		}
		arg, err := s.Ethereal(r, tT.Argument)
		if err != nil {
			return nil, err
		}
		return s.NewApplication(fn, arg), nil
	case *Curry:
		paramTy, err := s.Ethereal(r, tT.ParamTy)
		if err != nil {
			return nil, err
		}
		returnTy, err := s.Ethereal(r, tT.ReturnTy)
		if err != nil {
			return nil, err
		}
		return s.curry(tT.Kind, tT.Variance, tT.Rune != nil, paramTy, returnTy), nil
	case *Ritchie:
		params := make([]Param, len(tT.Params))
		for i, param := range tT.Params {
			ty, err := s.Ethereal(r, param.Ty)
			if err != nil {
				return nil, err
			}
			params[i] = Param{Contract: param.Contract, Ty: ty}
		}
		ret, err := s.Ethereal(r, tT.Return)
		if err != nil {
			return nil, err
		}
		return s.NewRitchie(tT.Kind, params, ret), nil
	case *TraitConstraint:
		ty, err := s.Ethereal(r, tT.Ty)
		if err != nil {
			return nil, err
		}
		trait, err := s.Ethereal(r, tT.Trait)
		if err != nil {
			return nil, err
		}
		return s.NewTraitConstraint(ty, trait), nil
	default:
		return nil, fmterr.Internal(errors.Errorf("term %s of type %T has no ethereal form", t, t))
	}
}
