// Copyright (c) 2014, Kevin Walsh.  All rights reserved.
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

// Package config parses the analyze command's flags into a Config, kept
// separate from cmd/polonius so tests can exercise flag parsing without
// going through a cli.Command.
package config

import (
	"flag"
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/borrowck/polonius/loans"
)

// Compare is a CLI-only mode (run Naive and DatafrogOpt, diff the
// results) rather than a loans.Variant; it has no solver-side meaning,
// which is why it is modeled here and not added to loans.Variant.
const Compare loans.Variant = -1

// Config holds one invocation's parsed flags.
type Config struct {
	Variant      loans.Variant
	Compare      bool
	ShowTuples   bool
	Verbose      bool
	GraphvizFile string
	Dirs         []string
}

// Parse parses args (excluding the command name itself) into a Config.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	variantFlag := fs.String("a", "Hybrid", "variant: Naive, LocationInsensitive, DatafrogOpt, Hybrid, or Compare")
	showTuples := fs.Bool("show-tuples", false, "print the error relations to stdout")
	verbose := fs.Bool("v", false, "dump intermediate relations")
	graphvizFile := fs.String("graphviz_file", "", "emit a GraphViz rendering of the CFG to this path")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		ShowTuples:   *showTuples,
		Verbose:      *verbose,
		GraphvizFile: *graphvizFile,
		Dirs:         dedupeDirs(fs.Args()),
	}

	if *variantFlag == "Compare" {
		cfg.Compare = true
		cfg.Variant = Compare
	} else {
		v, err := loans.ParseVariant(*variantFlag)
		if err != nil {
			return nil, err
		}
		cfg.Variant = v
	}

	if len(cfg.Dirs) == 0 {
		return nil, fmt.Errorf("polonius: at least one fact directory is required")
	}
	return cfg, nil
}

// dedupeDirs drops repeated positional directory arguments (a user
// passing the same fact directory twice, e.g. via shell glob expansion,
// should not pay for analyzing it twice), preserving the order dirs were
// given in.
func dedupeDirs(dirs []string) []string {
	seen := set.New[string](len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if seen.Insert(d) {
			out = append(out, d)
		}
	}
	return out
}
