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

package liveness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borrowck/polonius/atom"
	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/initialization"
	"github.com/borrowck/polonius/relation"
)

// TestUseAndDropAreDistinctEvents is the expansion's property 10: a
// variable that is both used and dropped at the same point, with no
// initialization facts supplied at all (so var_maybe_initialized_on_exit
// is empty everywhere), is use-live on entry to the predecessor but never
// drop-live there -- var_used_at and var_dropped_at must never be merged
// into one event.
func TestUseAndDropAreDistinctEvents(t *testing.T) {
	f := facts.New()
	in := atom.NewInterner()
	p0 := in.Intern(atom.Point, "P0")
	p1 := in.Intern(atom.Point, "P1")
	v := in.Intern(atom.Variable, "v")

	f.CFGEdge.Insert(relation.Pair{A: p0, B: p1})
	f.VarUsedAt.Insert(relation.Pair{A: v, B: p1})
	f.VarDroppedAt.Insert(relation.Pair{A: v, B: p1})

	init := initialization.Run(f)
	r := Run(f, init)

	assert.True(t, r.VarLiveOnEntry.Contains(relation.Pair{A: v, B: p0}),
		"use-liveness is unconditional on initialization")
	assert.False(t, r.VarDropLiveOnEntry.Contains(relation.Pair{A: v, B: p0}),
		"drop-liveness requires var_maybe_initialized_on_exit, which is empty here")
}

// TestDropLivenessPropagationGatedByMaybeInitialized reproduces the
// scenario where var_maybe_initialized_on_exit grows forward along the
// CFG: P0 -> P1 -> P2, v is dropped at P2 (maybe-initialized there, since
// its movepath is assigned at P1), but v is definitely uninitialized on
// exit from P0. Drop-liveness must stop at P1, not flow back to P0 --
// gating only the seed at P2 would wrongly make v drop-live entering P0.
func TestDropLivenessPropagationGatedByMaybeInitialized(t *testing.T) {
	f := facts.New()
	in := atom.NewInterner()
	p0 := in.Intern(atom.Point, "P0")
	p1 := in.Intern(atom.Point, "P1")
	p2 := in.Intern(atom.Point, "P2")
	v := in.Intern(atom.Variable, "v")
	mv := in.Intern(atom.MovePath, "v")

	f.CFGEdge.Insert(relation.Pair{A: p0, B: p1})
	f.CFGEdge.Insert(relation.Pair{A: p1, B: p2})
	f.PathBelongsToVar.Insert(relation.Pair{A: mv, B: v})
	f.PathIsAssignedAt.Insert(relation.Pair{A: mv, B: p1})
	f.VarDroppedAt.Insert(relation.Pair{A: v, B: p2})

	init := initialization.Run(f)
	require.True(t, init.VarMaybeInitializedOnExit.Contains(relation.Pair{A: v, B: p2}))
	require.False(t, init.VarMaybeInitializedOnExit.Contains(relation.Pair{A: v, B: p0}))

	r := Run(f, init)

	assert.True(t, r.VarDropLiveOnEntry.Contains(relation.Pair{A: v, B: p1}),
		"v is maybe-initialized on exit from P1, so drop-liveness reaches it")
	assert.False(t, r.VarDropLiveOnEntry.Contains(relation.Pair{A: v, B: p0}),
		"v is definitely uninitialized on exit from P0, so drop-liveness must not propagate past P1")
}

func TestDefinitionKillsLiveness(t *testing.T) {
	f := facts.New()
	in := atom.NewInterner()
	p0 := in.Intern(atom.Point, "P0")
	p1 := in.Intern(atom.Point, "P1")
	v := in.Intern(atom.Variable, "v")

	f.CFGEdge.Insert(relation.Pair{A: p0, B: p1})
	f.VarUsedAt.Insert(relation.Pair{A: v, B: p1})
	f.VarDefinedAt.Insert(relation.Pair{A: v, B: p0})

	r := Run(f, initialization.Run(f))

	assert.False(t, r.VarLiveOnEntry.Contains(relation.Pair{A: v, B: p0}),
		"a definition at P0 kills liveness flowing backward into P0 itself")
	assert.True(t, r.VarLiveOnEntry.Contains(relation.Pair{A: v, B: p1}))
}

func TestOriginLiveOnEntryDerivedFromVarLiveness(t *testing.T) {
	f := facts.New()
	in := atom.NewInterner()
	p0 := in.Intern(atom.Point, "P0")
	p1 := in.Intern(atom.Point, "P1")
	v := in.Intern(atom.Variable, "v")
	o := in.Intern(atom.Origin, "'a")

	f.CFGEdge.Insert(relation.Pair{A: p0, B: p1})
	f.VarUsedAt.Insert(relation.Pair{A: v, B: p1})
	f.UseOfVarDerefsOrigin.Insert(relation.Pair{A: v, B: o})

	r := Run(f, initialization.Run(f))

	assert.True(t, r.OriginLiveOnEntry.Contains(relation.Pair{A: o, B: p0}))
}
