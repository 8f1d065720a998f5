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

package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borrowck/polonius/atom"
	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/loans"
	"github.com/borrowck/polonius/relation"
)

// simpleErrorFacts builds the S1 scenario: a loan issued at P0, live into
// P1, invalidated at P1 -- one error.
func simpleErrorFacts() *facts.AllFacts {
	in := atom.NewInterner()
	f := facts.New()
	oa := in.Intern(atom.Origin, "'a")
	l0 := in.Intern(atom.Loan, "L0")
	p0 := in.Intern(atom.Point, "P0")
	p1 := in.Intern(atom.Point, "P1")
	f.LoanIssuedAt.Insert(relation.Triple{A: oa, B: l0, C: p0})
	f.CFGEdge.Insert(relation.Pair{A: p0, B: p1})
	f.OriginLiveOnEntry.Insert(relation.Pair{A: oa, B: p1})
	f.LoanInvalidatedAt.Insert(relation.Pair{A: l0, B: p1})
	return f
}

func TestReportAdvancesStateToReported(t *testing.T) {
	d := New(simpleErrorFacts())
	assert.Equal(t, FactsLoaded, d.State())

	out, err := d.Report()
	require.NoError(t, err)
	assert.Equal(t, Reported, d.State())
	assert.Len(t, out.Errors, 1)
}

func TestReportIsIdempotent(t *testing.T) {
	d := New(simpleErrorFacts())
	out1, err := d.Report()
	require.NoError(t, err)
	out2, err := d.Report()
	require.NoError(t, err)
	assert.Same(t, out1, out2, "a second Report call must not recompute Output")
}

func TestDebugDumpsOnlyPresentWhenRequested(t *testing.T) {
	f := simpleErrorFacts()

	without, err := Analyze(f)
	require.NoError(t, err)
	assert.Nil(t, without.Subset)

	with, err := Analyze(f, WithDebugDumps(true), WithVariant(loans.Naive))
	require.NoError(t, err)
	assert.NotNil(t, with.Subset)
}

func TestLivenessPrePassSkippedWhenOriginLiveOnEntrySupplied(t *testing.T) {
	d := New(simpleErrorFacts())
	d.RunLiveness()
	assert.Equal(t, LivenessDone, d.State())
	assert.Nil(t, d.liveness, "origin_live_on_entry was supplied directly, so no pre-pass result exists")
}

func TestLivenessPrePassRunsWhenOriginLiveOnEntryAbsent(t *testing.T) {
	in := atom.NewInterner()
	f := facts.New()
	p0 := in.Intern(atom.Point, "P0")
	p1 := in.Intern(atom.Point, "P1")
	v := in.Intern(atom.Variable, "v")
	o := in.Intern(atom.Origin, "'a")
	f.CFGEdge.Insert(relation.Pair{A: p0, B: p1})
	f.VarUsedAt.Insert(relation.Pair{A: v, B: p1})
	f.UseOfVarDerefsOrigin.Insert(relation.Pair{A: v, B: o})

	d := New(f)
	d.RunLiveness()
	require.NotNil(t, d.liveness)
	assert.True(t, d.liveness.OriginLiveOnEntry.Contains(relation.Pair{A: o, B: p0}))
}

func TestAnalyzeAllPreservesOrderAndIsolatesFunctions(t *testing.T) {
	clean := facts.New()
	buggy := simpleErrorFacts()

	results := AnalyzeAll(context.Background(), []Named{
		{Name: "clean", Facts: clean},
		{Name: "buggy", Facts: buggy},
		{Name: "clean2", Facts: clean},
	}, 2)

	require.Len(t, results, 3)
	assert.Equal(t, "clean", results[0].Name)
	assert.Empty(t, results[0].Output.Errors)
	assert.Equal(t, "buggy", results[1].Name)
	assert.Len(t, results[1].Output.Errors, 1)
	assert.Equal(t, "clean2", results[2].Name)
	assert.Empty(t, results[2].Output.Errors)
}

func TestAnalyzeAllHandlesEmptyInput(t *testing.T) {
	results := AnalyzeAll(context.Background(), nil, 4)
	assert.Empty(t, results)
}

func TestAnalyzeAllRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := AnalyzeAll(ctx, []Named{{Name: "a", Facts: facts.New()}}, 1)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
