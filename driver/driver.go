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

// Package driver sequences one function's analysis through its fixed set
// of phases: facts in, initialization, liveness (only if the caller didn't
// already supply origin_live_on_entry), the chosen loan-analysis variant,
// and assembly of the Output a caller receives back. It also offers
// AnalyzeAll, a concurrent fan-out for running many functions' analyses
// with the same options.
package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/initialization"
	"github.com/borrowck/polonius/liveness"
	"github.com/borrowck/polonius/loans"
	"github.com/borrowck/polonius/relation"
)

// State names the phase a Driver has reached. A Driver only ever moves
// forward through these in order; there is no way to rewind one and rerun
// an earlier phase against edited facts.
type State int

const (
	Created State = iota
	FactsLoaded
	InitDone
	LivenessDone
	LoanDone
	Reported
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case FactsLoaded:
		return "FactsLoaded"
	case InitDone:
		return "InitDone"
	case LivenessDone:
		return "LivenessDone"
	case LoanDone:
		return "LoanDone"
	case Reported:
		return "Reported"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Driver runs one function's facts through the full pipeline. It is not
// safe for concurrent use by multiple goroutines; AnalyzeAll gives each
// function its own Driver precisely so callers don't have to share one.
type Driver struct {
	log     hclog.Logger
	variant loans.Variant
	dump    bool

	state State
	facts *facts.AllFacts

	init      *initialization.Result
	liveness  *liveness.Result
	loanInput *loans.Input
	loanOut   *loans.Result
	output    *facts.Output
}

// Option configures a Driver at construction.
type Option func(*Driver)

// WithVariant selects the loan-analysis variant to run; the default is
// loans.Hybrid.
func WithVariant(v loans.Variant) Option {
	return func(d *Driver) { d.variant = v }
}

// WithLogger overrides the default discarding logger, e.g. to share a
// cmd/polonius logger scoped to one file.
func WithLogger(l hclog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithDebugDumps requests that Output carry the per-variant debug
// relations (subset, origin_contains_loan_on_entry, loan_live_at,
// var_live_on_entry, var_drop_live_on_entry) in addition to the three
// error relations. Dumps beyond what the selected variant computes are
// left nil; only Naive populates the loan-side dumps.
func WithDebugDumps(dump bool) Option {
	return func(d *Driver) { d.dump = dump }
}

// New returns a Driver for f in state FactsLoaded, since f is supplied
// already loaded.
func New(f *facts.AllFacts, opts ...Option) *Driver {
	d := &Driver{
		log:     hclog.NewNullLogger(),
		variant: loans.Hybrid,
		state:   FactsLoaded,
		facts:   f,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State reports the phase the Driver last completed.
func (d *Driver) State() State { return d.state }

// RunInitialization runs the forward initialization dataflow. It is a
// no-op to call more than once; Output is only ever assembled from the
// first run's Result.
func (d *Driver) RunInitialization() {
	if d.state >= InitDone {
		return
	}
	d.log.Debug("running initialization analysis")
	d.init = initialization.Run(d.facts)
	d.state = InitDone
}

// RunLiveness runs the backward liveness dataflow, unless the input facts
// already supplied origin_live_on_entry directly -- in which case the
// pre-pass is skipped entirely and loan analysis uses the supplied
// relation verbatim (§7's "schema errors" tolerance for a relation that is
// legitimately absent because an upstream tool computed it already).
// It runs RunInitialization first if that has not run yet.
func (d *Driver) RunLiveness() {
	if d.state < InitDone {
		d.RunInitialization()
	}
	if d.state >= LivenessDone {
		return
	}
	if d.facts.HasOriginLiveOnEntry() {
		d.log.Debug("origin_live_on_entry supplied as input, skipping liveness pre-pass")
	} else {
		d.log.Debug("running liveness analysis")
		d.liveness = liveness.Run(d.facts, d.init)
	}
	d.state = LivenessDone
}

// RunLoanAnalysis runs the selected loan-analysis variant. It runs
// RunLiveness first if that has not run yet.
func (d *Driver) RunLoanAnalysis() error {
	if d.state < LivenessDone {
		d.RunLiveness()
	}
	if d.state >= LoanDone {
		return nil
	}

	originLiveOnEntry := d.facts.OriginLiveOnEntry
	if d.liveness != nil {
		originLiveOnEntry = d.liveness.OriginLiveOnEntry
	}
	d.loanInput = loans.InputFrom(d.facts, originLiveOnEntry)

	d.log.Debug("running loan analysis", "variant", d.variant)
	out, err := loans.Solve(d.loanInput, d.variant)
	if err != nil {
		return fmt.Errorf("polonius: loan analysis: %w", err)
	}
	d.loanOut = out
	d.state = LoanDone
	return nil
}

// Report assembles and returns Output, running any phase that has not yet
// executed. Calling it more than once returns the same Output without
// recomputing anything.
func (d *Driver) Report() (*facts.Output, error) {
	if d.state < LoanDone {
		if err := d.RunLoanAnalysis(); err != nil {
			return nil, err
		}
	}
	if d.state >= Reported {
		return d.output, nil
	}

	out := &facts.Output{
		Errors:       d.loanOut.Errors,
		SubsetErrors: d.loanOut.SubsetErrors,
		MoveErrors:   relation.SortedPairs(d.init.MoveErrors),
	}
	if d.dump {
		out.Subset = d.loanOut.Subset
		out.OriginContainsLoanOnEntry = d.loanOut.OriginContainsLoanOnEntry
		out.LoanLiveAt = d.loanOut.LoanLiveAt
		if d.liveness != nil {
			out.VarLiveOnEntry = relation.SortedPairs(d.liveness.VarLiveOnEntry)
			out.VarDropLiveOnEntry = relation.SortedPairs(d.liveness.VarDropLiveOnEntry)
		}
	}

	d.output = out
	d.state = Reported
	return out, nil
}

// Analyze runs f through every phase in order and returns its Output, for
// callers that don't need to observe intermediate state.
func Analyze(f *facts.AllFacts, opts ...Option) (*facts.Output, error) {
	return New(f, opts...).Report()
}

// Named identifies one function's facts within a call to AnalyzeAll.
type Named struct {
	Name  string
	Facts *facts.AllFacts
}

// AnalyzeResult pairs a Named input's name with its Output, or the error
// that prevented one.
type AnalyzeResult struct {
	Name   string
	Output *facts.Output
	Err    error
}

// AnalyzeAll runs Analyze for every function in fns concurrently, scaling
// up to parallelism goroutines at a time (0 or negative means unbounded).
// It returns one AnalyzeResult per input, in the same order as fns: each
// function's facts are independent of every other's, so there is no
// shared mutable state to guard beyond the semaphore bounding fan-out.
// Context cancellation stops launching new analyses but does not abort
// ones already in flight.
func AnalyzeAll(ctx context.Context, fns []Named, parallelism int, opts ...Option) []AnalyzeResult {
	results := make([]AnalyzeResult, len(fns))
	if len(fns) == 0 {
		return results
	}

	var sem chan struct{}
	if parallelism > 0 {
		sem = make(chan struct{}, parallelism)
	}

	var wg sync.WaitGroup
	for i, fn := range fns {
		select {
		case <-ctx.Done():
			results[i] = AnalyzeResult{Name: fn.Name, Err: ctx.Err()}
			continue
		default:
		}

		wg.Add(1)
		go func(i int, fn Named) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			out, err := Analyze(fn.Facts, opts...)
			results[i] = AnalyzeResult{Name: fn.Name, Output: out, Err: err}
		}(i, fn)
	}
	wg.Wait()
	return results
}
