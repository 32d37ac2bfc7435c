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

// Package scope provides lexical scopes mapping names to values.
package scope

import (
	"fmt"
	"iter"
	"strings"

	"github.com/husky-lang/termres/base/ordered"
	"github.com/pkg/errors"
)

type (
	// Scope is a set of values that can be found given their name.
	Scope[V any] interface {
		Find(string) (V, bool)
		Items() *ordered.Map[string, V]
	}

	roScope[V any] struct {
		parent Scope[V]
		local  *ordered.Map[string, V]
	}
)

func find[V any](key string, local *ordered.Map[string, V], parent Scope[V]) (value V, ok bool) {
	value, ok = local.Load(key)
	if ok || parent == nil {
		return
	}
	return parent.Find(key)
}

func mergeItems[V any](parent Scope[V], local *ordered.Map[string, V]) *ordered.Map[string, V] {
	all := ordered.NewMap[string, V]()
	if parent != nil {
		for k, v := range parent.Items().Iter() {
			all.Store(k, v)
		}
	}
	for k, v := range local.Iter() {
		all.Store(k, v)
	}
	return all
}

// NewScopeWithValues returns a read-only scope with predefined values.
// Values are defined in the order of their keys.
func NewScopeWithValues[V any](keys []string, vals map[string]V) Scope[V] {
	data := ordered.NewMap[string, V]()
	for _, k := range keys {
		data.Store(k, vals[k])
	}
	return &roScope[V]{local: data}
}

func (s *roScope[V]) Find(key string) (V, bool) {
	return find(key, s.local, s.parent)
}

func (s *roScope[V]) Items() *ordered.Map[string, V] {
	return mergeItems(s.parent, s.local)
}

// RWScope is a scope in which values can be defined.
// A value is looked up in the scope first and then in its parents.
type RWScope[V any] struct {
	parent Scope[V]
	local  *ordered.Map[string, V]
}

var _ Scope[any] = (*RWScope[any])(nil)

// NewScope returns a new scope given a parent, which can be nil.
func NewScope[V any](parent Scope[V]) *RWScope[V] {
	return &RWScope[V]{
		parent: parent,
		local:  ordered.NewMap[string, V](),
	}
}

// Define maps key to value in the local scope, shadowing any
// definition of the parents.
func (s *RWScope[V]) Define(k string, v V) {
	s.local.Store(k, v)
}

// IsLocal returns true if the key is defined in the local scope.
func (s *RWScope[V]) IsLocal(key string) bool {
	_, ok := s.local.Load(key)
	return ok
}

// LocalKeys returns the keys of the local scope without the parent.
func (s *RWScope[V]) LocalKeys() iter.Seq[string] {
	return s.local.Keys()
}

// Find a key in the scope and its parent.
func (s *RWScope[V]) Find(key string) (V, bool) {
	return find(key, s.local, s.parent)
}

// Assign maps an existing key to a new value in the innermost scope
// defining it.
func (s *RWScope[V]) Assign(key string, value V) error {
	if s.IsLocal(key) {
		s.Define(key, value)
		return nil
	}
	if s.parent == nil {
		return errors.Errorf("cannot assign %s: not defined in scope", key)
	}
	rwParent, ok := s.parent.(*RWScope[V])
	if !ok {
		return errors.Errorf("cannot assign %s: scope parent of type %T does not support assignment", key, s.parent)
	}
	return rwParent.Assign(key, value)
}

// Items returns all the items visible from the scope.
func (s *RWScope[V]) Items() *ordered.Map[string, V] {
	return mergeItems(s.parent, s.local)
}

// ReadOnly returns a view of the scope in which nothing can be defined.
func (s *RWScope[V]) ReadOnly() Scope[V] {
	return &roScope[V]{parent: s.parent, local: s.local}
}

// String representation of the scope.
func (s *RWScope[V]) String() string {
	if s.local.Size() == 0 {
		return "{}"
	}
	var kvs []string
	for k, v := range s.local.Iter() {
		kvs = append(kvs, fmt.Sprintf("%s: %v", k, v))
	}
	return "{" + strings.Join(kvs, ", ") + "}"
}
