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

// Package liveness runs the backward dataflow over variables that feeds
// the loan analysis core's required origin_live_on_entry relation, when
// that relation was not supplied directly as an input fact.
package liveness

import (
	"github.com/borrowck/polonius/atom"
	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/initialization"
	"github.com/borrowck/polonius/relation"
)

// Result holds the derived liveness relations for one function.
type Result struct {
	VarLiveOnEntry     *relation.Set[relation.Pair] // (Variable, Point), use-gated
	VarDropLiveOnEntry *relation.Set[relation.Pair] // (Variable, Point), drop-gated
	OriginLiveOnEntry  *relation.Set[relation.Pair] // (Origin, Point)
}

// Run derives Result from f and init (the initialization pre-pass' output,
// which var_drop_live_on_entry's gating depends on).
func Run(f *facts.AllFacts, init *initialization.Result) *Result {
	r := &Result{
		VarLiveOnEntry:     relation.New[relation.Pair](),
		VarDropLiveOnEntry: relation.New[relation.Pair](),
		OriginLiveOnEntry:  relation.New[relation.Pair](),
	}

	predecessors := relation.IndexBy(f.CFGEdge.Slice(), func(p relation.Pair) atom.Atom { return p.B })
	definedAt := relation.KeySet(f.VarDefinedAt.Slice(), func(p relation.Pair) relation.Pair { return p })

	backwardPropagate(r.VarLiveOnEntry, f.VarUsedAt.Slice(), predecessors, definedAt, nil)

	maybeInitOnExit := relation.KeySet(init.VarMaybeInitializedOnExit.Slice(), func(p relation.Pair) relation.Pair { return p })
	dropBase := relation.Join(f.VarDroppedAt.Slice(), init.VarMaybeInitializedOnExit.Slice(),
		func(p relation.Pair) relation.Pair { return p },
		func(p relation.Pair) relation.Pair { return p },
		func(dropped, _ relation.Pair) relation.Pair { return dropped },
	)
	backwardPropagate(r.VarDropLiveOnEntry, dropBase, predecessors, definedAt, maybeInitOnExit)

	liveOrigins := relation.Join(r.VarLiveOnEntry.Slice(), f.UseOfVarDerefsOrigin.Slice(),
		func(p relation.Pair) atom.Atom { return p.A },
		func(p relation.Pair) atom.Atom { return p.A },
		func(live, derefs relation.Pair) relation.Pair {
			return relation.Pair{A: derefs.B, B: live.B} // (Origin, Point)
		})
	r.OriginLiveOnEntry.InsertAll(liveOrigins)

	dropOrigins := relation.Join(r.VarDropLiveOnEntry.Slice(), f.DropOfVarDerefsOrigin.Slice(),
		func(p relation.Pair) atom.Atom { return p.A },
		func(p relation.Pair) atom.Atom { return p.A },
		func(live, derefs relation.Pair) relation.Pair {
			return relation.Pair{A: derefs.B, B: live.B} // (Origin, Point)
		})
	r.OriginLiveOnEntry.InsertAll(dropOrigins)

	return r
}

// backwardPropagate implements, for either flavor of liveness:
//
//	live(V, P) :- base(V, P).
//	live(V, P) :- cfg_edge(P, Q), live(V, Q), not var_defined_at(V, P).
//
// into dst, given base facts and a predecessor index of cfg_edge keyed by
// the edge's target (so that, looking up a Point Q, predecessors[Q] gives
// every edge P->Q -- exactly the edges across which liveness flows
// backward from Q into P).
//
// gate, when non-nil, adds a further requirement to the second rule:
// live(V, P) :- ..., gate(V, P). Use-liveness has no such gate (pass nil).
// Drop-liveness needs one: var_maybe_initialized_on_exit is a forward "may"
// relation that only grows walking forward along cfg_edge, so a variable
// maybe-initialized at the drop point can already be definitely uninitialized
// at an earlier predecessor P, and propagation must stop there rather than
// just at the seed -- a var that's dead needn't be (drop-)live if it's
// definitely uninitialized, per the same rule applied one step at a time.
func backwardPropagate(dst *relation.Set[relation.Pair], base []relation.Pair, predecessors map[atom.Atom][]relation.Pair, definedAt map[relation.Pair]struct{}, gate map[relation.Pair]struct{}) {
	frontier := dst.InsertAll(base)
	relation.Fixpoint(func(int) int {
		if len(frontier) == 0 {
			return 0
		}
		var nextFrontier []relation.Pair
		for _, live := range frontier {
			for _, edge := range predecessors[live.B] {
				p := edge.A
				candidate := relation.Pair{A: live.A, B: p}
				if _, defined := definedAt[candidate]; defined {
					continue
				}
				if gate != nil {
					if _, ok := gate[candidate]; !ok {
						continue
					}
				}
				if dst.Insert(candidate) {
					nextFrontier = append(nextFrontier, candidate)
				}
			}
		}
		frontier = nextFrontier
		return len(frontier)
	})
}
