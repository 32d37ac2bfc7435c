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

// Match matches a pattern containing free template parameters against a
// target term. Parameters owned by inst.Owner are bound in inst; they
// must be bound consistently across all their occurrences.
// Match returns false if the target does not have the shape of the pattern.
func Match(pattern, target Term, inst *Instantiation) bool {
	if pattern == target {
		return true
	}
	if sym, ok := pattern.(*Symbol); ok && sym.Owner == inst.Owner {
		if res, bound := inst.Lookup(sym); bound {
			return res.Kind == ExplicitResolution && res.Term == target
		}
		inst.Set(sym, Resolution{Kind: ExplicitResolution, Term: target})
		return true
	}
	switch pT := pattern.(type) {
	case *TypeOntology:
		exp := ApplicationExpansion(target)
		if exp.Path != pT.Path || len(exp.Args) != len(pT.Args) {
			return false
		}
		for i, arg := range pT.Args {
			if !Match(arg, exp.Args[i], inst) {
				return false
			}
		}
		return true
	case *Application:
		tT, ok := target.(*Application)
		return ok && Match(pT.Function, tT.Function, inst) && Match(pT.Argument, tT.Argument, inst)
	case *Curry:
		tT, ok := target.(*Curry)
		if !ok || tT.Kind != pT.Kind || tT.Variance != pT.Variance || (tT.Rune == nil) != (pT.Rune == nil) {
			return false
		}
		return Match(pT.ParamTy, tT.ParamTy, inst) && Match(pT.ReturnTy, tT.ReturnTy, inst)
	case *Ritchie:
		tT, ok := target.(*Ritchie)
		if !ok || tT.Kind != pT.Kind || len(tT.Params) != len(pT.Params) {
			return false
		}
		for i, param := range pT.Params {
			if param.Contract != tT.Params[i].Contract || !Match(param.Ty, tT.Params[i].Ty, inst) {
				return false
			}
		}
		return Match(pT.Return, tT.Return, inst)
	case *TraitConstraint:
		tT, ok := target.(*TraitConstraint)
		return ok && Match(pT.Ty, tT.Ty, inst) && Match(pT.Trait, tT.Trait, inst)
	}
	return false
}
