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

package session

import (
	"io"

	"github.com/husky-lang/termres/build/fmterr"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	yamlParam struct {
		Name    string `yaml:"name"`
		Type    string `yaml:"type"`
		Mutable bool   `yaml:"mut"`
	}

	yamlRegion struct {
		Name   string      `yaml:"name"`
		Params []yamlParam `yaml:"params"`
		Return string      `yaml:"return"`
		Body   string      `yaml:"body"`
	}

	yamlRegions struct {
		Regions []yamlRegion `yaml:"regions"`
	}
)

// LoadRegions reads regions from a YAML document:
//
//	regions:
//	  - name: geo::double
//	    params:
//	      - {name: x, type: i32}
//	    return: i32
//	    body: |
//	      y := x + x
//	      y
//
// Types are parsed by [syn.ParseType] and bodies by [syn.ParseBody].
// Without a return type, the return type of a region is inferred.
func LoadRegions(store *term.Store, src io.Reader) ([]*syn.Region, error) {
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	var doc yamlRegions
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "cannot decode regions")
	}
	errs := &fmterr.Errors{}
	var regions []*syn.Region
	for _, y := range doc.Regions {
		region, err := loadRegion(store, y)
		if err != nil {
			errs.Append(errors.WithMessagef(err, "region %s", y.Name))
			continue
		}
		regions = append(regions, region)
	}
	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return regions, nil
}

func loadRegion(store *term.Store, y yamlRegion) (*syn.Region, error) {
	if y.Name == "" {
		return nil, errors.New("missing region name")
	}
	region := syn.NewRegion(term.Path(y.Name))
	for _, p := range y.Params {
		ty, err := syn.ParseType(store, region.FSet, p.Type, nil)
		if err != nil {
			return nil, errors.WithMessagef(err, "parameter %s", p.Name)
		}
		region.AddParam(p.Name, p.Mutable, ty)
	}
	if y.Return != "" {
		ty, err := syn.ParseType(store, region.FSet, y.Return, nil)
		if err != nil {
			return nil, errors.WithMessage(err, "return type")
		}
		region.ReturnTy = ty
	}
	if _, err := syn.ParseBody(store, region, y.Body); err != nil {
		return nil, err
	}
	return region, nil
}
