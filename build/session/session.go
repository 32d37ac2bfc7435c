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

// Package session infers the types of many regions concurrently.
package session

import (
	"context"
	"runtime"
	"sync"

	"github.com/husky-lang/termres/build/exprtype"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

type asyncErrors struct {
	locker sync.Mutex
	errs   error
}

func (ae *asyncErrors) add(err error) {
	ae.locker.Lock()
	defer ae.locker.Unlock()

	ae.errs = multierr.Append(ae.errs, err)
}

func (ae *asyncErrors) errors() error {
	ae.locker.Lock()
	defer ae.locker.Unlock()

	return ae.errs
}

// Session schedules the inference of regions on a bounded pool of workers.
// All the regions of a session share the declarations and the program
// store of its engine.
type Session struct {
	eng     *exprtype.Engine
	workers int

	mu      sync.Mutex
	running map[*syn.Region]bool
}

// New returns a session running at most workers inferences at once.
// A non-positive number of workers uses one worker per CPU.
func New(eng *exprtype.Engine, workers int) *Session {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Session{
		eng:     eng,
		workers: workers,
		running: make(map[*syn.Region]bool),
	}
}

// Engine returns the engine of the session.
func (s *Session) Engine() *exprtype.Engine {
	return s.eng
}

func (s *Session) acquire(regions []*syn.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make(map[term.Path]bool, len(regions))
	for _, region := range regions {
		if paths[region.Path] {
			return errors.Errorf("region %s is defined more than once", region.Path)
		}
		paths[region.Path] = true
		if s.running[region] {
			return errors.Errorf("region %s is already being resolved", region.Path)
		}
	}
	for _, region := range regions {
		s.running[region] = true
	}
	return nil
}

func (s *Session) release(regions []*syn.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, region := range regions {
		delete(s.running, region)
	}
}

// Infer the types of a set of regions. The results are returned in the
// order of the regions.
//
// Errors in a region are reported in its result. Internal errors of
// all the regions are aggregated in the returned error, along with the
// results of the other regions. If the context is cancelled, no result
// is returned.
func (s *Session) Infer(ctx context.Context, regions []*syn.Region) ([]*exprtype.Result, error) {
	if err := s.acquire(regions); err != nil {
		return nil, err
	}
	defer s.release(regions)
	results := make([]*exprtype.Result, len(regions))
	var fatal asyncErrors
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, region := range regions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.eng.Infer(region)
			if err != nil {
				fatal.add(err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, fatal.errors()
}
