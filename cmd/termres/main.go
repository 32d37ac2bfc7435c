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


// Command termres infers the types of the expressions of regions.
//
// Declarations and regions are read from YAML files:
//
//	termres -decls world.yaml -regions regions.yaml -traits geo::Walk
//
// The command prints the return type of every region and exits with
// a non-zero status if a region fails to type-check.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/eaburns/pretty"
	"github.com/husky-lang/termres/build/decl"
	"github.com/husky-lang/termres/build/dispatch"
	"github.com/husky-lang/termres/build/exprtype"
	"github.com/husky-lang/termres/build/fluffy"
	"github.com/husky-lang/termres/build/session"
	"github.com/husky-lang/termres/build/syn"
	"github.com/husky-lang/termres/build/term"
	"github.com/husky-lang/termres/tools/termflag"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

type options struct {
	decls           string
	regions         string
	workers         int
	verbose         bool
	dump            bool
	traits          *[]string
	maxIndirections int
	defaultInt      string
	defaultFloat    string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("termres", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := &options{}
	fs.StringVar(&opts.decls, "decls", "", "YAML file declaring types, traits, impl blocks and functions")
	fs.StringVar(&opts.regions, "regions", "", "YAML file listing the regions to resolve (stdin if empty)")
	fs.IntVar(&opts.workers, "j", 0, "maximum number of regions resolved concurrently (0 for one per CPU)")
	fs.BoolVar(&opts.verbose, "v", false, "print the type of every expression")
	fs.BoolVar(&opts.dump, "dump", false, "dump the outcome of every expression")
	opts.traits = termflag.StringListVar(fs, "traits", "comma-separated list of traits in scope")
	fs.IntVar(&opts.maxIndirections, "max_indirections", dispatch.DefaultMaxIndirections, "maximum number of wrappers seen through by a member access")
	fs.StringVar(&opts.defaultInt, "default_int", string(term.I32Path), "type of unconstrained integer literals")
	fs.StringVar(&opts.defaultFloat, "default_float", string(term.F64Path), "type of unconstrained float literals")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func loadDecls(store *term.Store, path string) (*decl.Registry, error) {
	reg, err := decl.NewPrelude(store)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return reg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := decl.LoadYAML(reg, f); err != nil {
		return nil, errors.WithMessagef(err, "cannot load declarations from %s", path)
	}
	return reg, nil
}

func loadRegions(store *term.Store, path string, stdin io.Reader) ([]*syn.Region, error) {
	src := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		src = f
	}
	regions, err := session.LoadRegions(store, src)
	if err != nil {
		return nil, errors.WithMessagef(err, "cannot load regions from %s", path)
	}
	return regions, nil
}

func resolveTraits(reg *decl.Registry, names []string) ([]term.Path, error) {
	traits := termflag.Paths(names)
	for i, trait := range traits {
		path, ok := reg.ResolvePath(trait)
		if !ok {
			return nil, errors.Errorf("unknown trait %s", trait)
		}
		if _, err := reg.Trait(path); err != nil {
			return nil, err
		}
		traits[i] = path
	}
	return traits, nil
}

type printer struct {
	stdout, stderr io.Writer
	color          bool
}

func (p *printer) errorf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if p.color {
		msg = "\x1b[31m" + msg + "\x1b[0m"
	}
	fmt.Fprintln(p.stderr, msg)
}

// outcome is the printable summary of the outcome of an expression.
type outcome struct {
	Index      int
	Source     string
	Type       string
	Quary      string
	Conversion string
	Method     string
	Field      string
	Err        string
}

func summary(res *exprtype.Result) []outcome {
	var outs []outcome
	for i, out := range res.Outcomes {
		if !out.Visited {
			continue
		}
		o := outcome{
			Index:      i,
			Source:     res.Region.Source(syn.ExprIdx(i)),
			Conversion: out.Conversion.String(),
		}
		if out.Term != nil {
			o.Type = out.Term.String()
			o.Quary = out.Quary.String()
		}
		if out.Method != nil {
			o.Method = out.Method.String()
		}
		if out.Field != nil {
			o.Field = out.Field.String()
		}
		if out.Err != nil {
			o.Err = out.Err.Error()
		}
		outs = append(outs, o)
	}
	return outs
}

func (p *printer) result(opts *options, res *exprtype.Result) bool {
	ret := "?"
	if res.ReturnTy != nil {
		ret = res.ReturnTy.String()
	}
	fmt.Fprintf(p.stdout, "%s: %s\n", res.Region.Path, ret)
	if opts.verbose {
		fmt.Fprint(p.stdout, res.Report())
	}
	if opts.dump {
		fmt.Fprintln(p.stdout, pretty.String(summary(res)))
	}
	if res.Errs.Empty() {
		return true
	}
	for _, err := range res.Errs.Errors() {
		p.errorf("%s: %v", res.Region.Path, err)
	}
	return false
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, color bool) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	p := &printer{stdout: stdout, stderr: stderr, color: color}
	store := term.NewStore()
	reg, err := loadDecls(store, opts.decls)
	if err != nil {
		p.errorf("%v", err)
		return 1
	}
	traits, err := resolveTraits(reg, *opts.traits)
	if err != nil {
		p.errorf("%v", err)
		return 1
	}
	regions, err := loadRegions(store, opts.regions, stdin)
	if err != nil {
		p.errorf("%v", err)
		return 1
	}
	eng, err := exprtype.New(store, reg, exprtype.Options{
		Defaults: fluffy.Defaults{
			Int:   term.Path(opts.defaultInt),
			Float: term.Path(opts.defaultFloat),
		},
		Traits:          traits,
		MaxIndirections: opts.maxIndirections,
	})
	if err != nil {
		p.errorf("%v", err)
		return 1
	}
	results, err := session.New(eng, opts.workers).Infer(ctx, regions)
	status := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		if !p.result(opts, res) {
			status = 1
		}
	}
	if err != nil {
		p.errorf("%+v", err)
		status = 1
	}
	return status
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	status := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, color)
	stop()
	os.Exit(status)
}
