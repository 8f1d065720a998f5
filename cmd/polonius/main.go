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

// Command polonius runs the borrow-check analysis over one or more
// on-disk fact directories and reports the resulting errors.
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"

	"github.com/borrowck/polonius/internal/config"
)

func main() {
	ui := &cli.BasicUi{
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
		Reader:      os.Stdin,
	}

	c := cli.NewCLI("polonius", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"analyze": func() (cli.Command, error) {
			return &analyzeCommand{ui: ui}, nil
		},
	}

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// analyzeCommand implements cli.Command for the "analyze" subcommand: the
// one operation this tool exposes.
type analyzeCommand struct {
	ui cli.Ui
}

func (c *analyzeCommand) Help() string {
	return `Usage: polonius analyze [options] <dir> [<dir> ...]

  Runs the borrow-check analysis over one or more fact directories, each
  holding one function's <relation>.facts files.

Options:

  -a <variant>          Naive, LocationInsensitive, DatafrogOpt, Hybrid
                         (default), or Compare (runs Naive and DatafrogOpt
                         and diffs their errors).
  --show-tuples          Print the error relations to stdout.
  -v                      Dump intermediate relations alongside errors.
  --graphviz_file <path>  Emit a GraphViz rendering of the CFG to path.
`
}

func (c *analyzeCommand) Synopsis() string {
	return "Run the borrow-check analysis over fact directories"
}

func (c *analyzeCommand) Run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		c.ui.Error(err.Error())
		return 1
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "polonius",
		Level: hclog.Warn,
	})
	if cfg.Verbose {
		logger.SetLevel(hclog.Debug)
	}

	return runAnalyze(c.ui, logger, cfg)
}
