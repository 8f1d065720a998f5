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

package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/borrowck/polonius/driver"
	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/graphviz"
	"github.com/borrowck/polonius/internal/config"
	"github.com/borrowck/polonius/load"
	"github.com/borrowck/polonius/loans"
)

// runAnalyze runs cfg.Dirs through the driver (or, in Compare mode,
// through Naive and DatafrogOpt both) and prints results via ui. It
// returns the process exit code: 1 if any directory failed to load or
// analyze, 2 if loading and analysis succeeded everywhere but at least
// one directory reported a borrow-check error, 0 otherwise.
func runAnalyze(ui cli.Ui, logger hclog.Logger, cfg *config.Config) int {
	var loadErrs *multierror.Error
	sawErrors := false

	for _, dir := range cfg.Dirs {
		loader := load.NewLoader()
		f, err := loader.Dir(dir)
		if err != nil {
			loadErrs = multierror.Append(loadErrs, fmt.Errorf("%s: %w", dir, err))
			continue
		}

		if cfg.Compare {
			clean, err := compareVariants(ui, dir, f)
			if err != nil {
				loadErrs = multierror.Append(loadErrs, err)
				continue
			}
			if !clean {
				sawErrors = true
			}
			continue
		}

		out, err := driver.Analyze(f,
			driver.WithVariant(cfg.Variant),
			driver.WithLogger(logger),
			driver.WithDebugDumps(cfg.Verbose),
		)
		if err != nil {
			loadErrs = multierror.Append(loadErrs, fmt.Errorf("%s: %w", dir, err))
			continue
		}
		if len(out.Errors) > 0 || len(out.SubsetErrors) > 0 || len(out.MoveErrors) > 0 {
			sawErrors = true
		}
		if cfg.ShowTuples || cfg.Verbose {
			printOutput(ui, dir, out)
		}

		if cfg.GraphvizFile != "" {
			if err := writeGraphviz(cfg.GraphvizFile, f, out, loader); err != nil {
				loadErrs = multierror.Append(loadErrs, err)
			}
		}
	}

	if err := loadErrs.ErrorOrNil(); err != nil {
		ui.Error(err.Error())
		return 1
	}
	if sawErrors {
		return 2
	}
	return 0
}

// compareVariants runs Naive and DatafrogOpt over the same facts and
// reports whether the two agree, per §6's "Compare" CLI mode. It returns
// clean=true only if neither variant found any error.
func compareVariants(ui cli.Ui, dir string, f *facts.AllFacts) (bool, error) {
	naive, err := driver.Analyze(f, driver.WithVariant(loans.Naive))
	if err != nil {
		return false, fmt.Errorf("%s: naive: %w", dir, err)
	}
	opt, err := driver.Analyze(f, driver.WithVariant(loans.DatafrogOpt))
	if err != nil {
		return false, fmt.Errorf("%s: datafrogopt: %w", dir, err)
	}

	if !sameErrors(naive, opt) {
		ui.Error(fmt.Sprintf("%s: Naive and DatafrogOpt disagree:\n  naive:      errors=%v subset_errors=%v\n  datafrogopt: errors=%v subset_errors=%v",
			dir, naive.Errors, naive.SubsetErrors, opt.Errors, opt.SubsetErrors))
		return false, nil
	}

	ui.Output(fmt.Sprintf("%s: Naive and DatafrogOpt agree (errors=%v subset_errors=%v)", dir, naive.Errors, naive.SubsetErrors))
	return len(naive.Errors) == 0 && len(naive.SubsetErrors) == 0, nil
}

func sameErrors(a, b *facts.Output) bool {
	if len(a.Errors) != len(b.Errors) || len(a.SubsetErrors) != len(b.SubsetErrors) {
		return false
	}
	for i := range a.Errors {
		if a.Errors[i] != b.Errors[i] {
			return false
		}
	}
	for i := range a.SubsetErrors {
		if a.SubsetErrors[i] != b.SubsetErrors[i] {
			return false
		}
	}
	return true
}

func printOutput(ui cli.Ui, dir string, out *facts.Output) {
	ui.Output(fmt.Sprintf("%s:", dir))
	ui.Output(fmt.Sprintf("  errors:        %v", out.Errors))
	ui.Output(fmt.Sprintf("  subset_errors: %v", out.SubsetErrors))
	ui.Output(fmt.Sprintf("  move_errors:   %v", out.MoveErrors))
	if out.Subset != nil {
		ui.Output(fmt.Sprintf("  subset:                       %v", out.Subset))
		ui.Output(fmt.Sprintf("  origin_contains_loan_on_entry: %v", out.OriginContainsLoanOnEntry))
		ui.Output(fmt.Sprintf("  loan_live_at:                 %v", out.LoanLiveAt))
		ui.Output(fmt.Sprintf("  var_live_on_entry:            %v", out.VarLiveOnEntry))
		ui.Output(fmt.Sprintf("  var_drop_live_on_entry:       %v", out.VarDropLiveOnEntry))
	}
}

func writeGraphviz(path string, f *facts.AllFacts, out *facts.Output, loader *load.Loader) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("graphviz_file %s: %w", path, err)
	}
	defer file.Close()
	return graphviz.Dump(file, f, out, loader.Interner())
}
