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

package loans

import (
	"github.com/borrowck/polonius/atom"
	"github.com/borrowck/polonius/relation"
)

// liveOrPlaceholder returns a predicate implementing §4.4's shorthand:
// origin_live_on_entry(O,P) v placeholder_origin(O).
func liveOrPlaceholder(in *Input) func(o, p atom.Atom) bool {
	placeholders := relation.KeySet(in.Placeholder.Slice(), func(pr relation.Pair) atom.Atom { return pr.A })
	live := relation.KeySet(in.OriginLiveOnEntry.Slice(), func(pr relation.Pair) relation.Pair { return pr })
	return func(o, p atom.Atom) bool {
		if _, ok := placeholders[o]; ok {
			return true
		}
		_, ok := live[relation.Pair{A: o, B: p}]
		return ok
	}
}

// solveSubset computes the full fixed point of §4.4's three subset rules:
//
//	subset(O1,O2,P) :- subset_base(O1,O2,P).
//	subset(O1,O3,P) :- subset(O1,O2,P), subset(O2,O3,P).
//	subset(O1,O2,Q) :- subset(O1,O2,P), cfg_edge(P,Q),
//	                   live_or_placeholder(O1,Q), live_or_placeholder(O2,Q).
//
// shared by Naive and DatafrogOpt: subset never depends on
// origin_contains_loan_on_entry, so it can always be solved as a
// standalone phase before loan propagation begins.
func solveSubset(in *Input) *relation.Set[relation.Triple] {
	subsetAll := relation.New[relation.Triple]()
	cfgEdges := in.CFGEdge.Slice()
	live := liveOrPlaceholder(in)

	seed := in.SubsetBase.Slice()
	delta := subsetAll.InsertAll(seed)
	relation.Fixpoint(func(int) int {
		if len(delta) == 0 {
			return 0
		}
		all := subsetAll.Slice()

		// R2, both orderings of the changed operand.
		fromLeft := relation.Join(delta, all,
			func(t relation.Triple) relation.Pair { return relation.Pair{A: t.B, B: t.C} },
			func(t relation.Triple) relation.Pair { return relation.Pair{A: t.A, B: t.C} },
			func(d, a relation.Triple) relation.Triple { return relation.Triple{A: d.A, B: a.B, C: d.C} },
		)
		fromRight := relation.Join(all, delta,
			func(t relation.Triple) relation.Pair { return relation.Pair{A: t.B, B: t.C} },
			func(t relation.Triple) relation.Pair { return relation.Pair{A: t.A, B: t.C} },
			func(a, d relation.Triple) relation.Triple { return relation.Triple{A: a.A, B: d.B, C: a.C} },
		)

		// R3: propagate across a cfg edge, gated by liveness at Q.
		fromEdges := relation.Join(delta, cfgEdges,
			func(t relation.Triple) atom.Atom { return t.C },
			func(p relation.Pair) atom.Atom { return p.A },
			func(t relation.Triple, e relation.Pair) relation.Triple { return relation.Triple{A: t.A, B: t.B, C: e.B} },
		)

		var candidates []relation.Triple
		candidates = append(candidates, fromLeft...)
		candidates = append(candidates, fromRight...)
		for _, t := range fromEdges {
			if live(t.A, t.C) && live(t.B, t.C) {
				candidates = append(candidates, t)
			}
		}

		delta = subsetAll.InsertAll(candidates)
		return len(delta)
	})
	return subsetAll
}

// filterTriplesByEndpoints returns the tuples of ts whose (A, B) columns
// both satisfy keep -- used to derive subset_placeholder (§4.6) from an
// already-closed subset relation, by restricting to placeholder-origin
// endpoints after the fact rather than re-seeding a separate fixpoint:
// restricting the seed itself would silently drop any placeholder-to-
// placeholder chain that composes through a non-placeholder intermediate
// origin, which would make subset_errors unsound.
func filterTriplesByEndpoints(ts []relation.Triple, keep func(a atom.Atom) bool) []relation.Triple {
	var out []relation.Triple
	for _, t := range ts {
		if keep(t.A) && keep(t.B) {
			out = append(out, t)
		}
	}
	return out
}

// solveOriginContainsLoan computes the fixed point of §4.4's remaining
// rules, given a final (already fully closed) subset relation:
//
//	origin_contains_loan_on_entry(O,L,P)  :- loan_issued_at(O,L,P).
//	origin_contains_loan_on_entry(O2,L,P) :- origin_contains_loan_on_entry(O1,L,P),
//	                                         subset(O1,O2,P).
//	origin_contains_loan_on_entry(O,L,Q)  :- origin_contains_loan_on_entry(O,L,P),
//	                                         not loan_killed_at(L,P),
//	                                         cfg_edge(P,Q),
//	                                         live_or_placeholder(O,Q).
//
// extraSeed lets LocationInsensitive-style variants seed placeholder loans
// in as well (§4.5's "extra rule"); Naive and DatafrogOpt pass nil.
func solveOriginContainsLoan(in *Input, subset *relation.Set[relation.Triple], extraSeed []relation.Triple) *relation.Set[relation.Triple] {
	oclAll := relation.New[relation.Triple]()
	cfgEdges := in.CFGEdge.Slice()
	killed := relation.KeySet(in.LoanKilledAt.Slice(), func(p relation.Pair) relation.Pair { return p })
	live := liveOrPlaceholder(in)
	subsetAll := subset.Slice()

	seed := in.LoanIssuedAt.Slice()
	if len(extraSeed) > 0 {
		seed = append(append([]relation.Triple{}, seed...), extraSeed...)
	}

	delta := oclAll.InsertAll(seed)
	relation.Fixpoint(func(int) int {
		if len(delta) == 0 {
			return 0
		}

		// R5: delta's loans flow across whatever subset edges exist at
		// that point.
		fromSubset := relation.Join(delta, subsetAll,
			func(t relation.Triple) relation.Pair { return relation.Pair{A: t.A, B: t.C} },
			func(t relation.Triple) relation.Pair { return relation.Pair{A: t.A, B: t.C} },
			func(o relation.Triple, s relation.Triple) relation.Triple { return relation.Triple{A: s.B, B: o.B, C: o.C} },
		)

		// R6: delta's loans persist forward across a cfg edge, unless
		// killed at the source point, and only while still live.
		notKilled := relation.AntiJoin(delta,
			func(t relation.Triple) relation.Pair { return relation.Pair{A: t.B, B: t.C} },
			killed,
		)
		fromEdges := relation.Join(notKilled, cfgEdges,
			func(t relation.Triple) atom.Atom { return t.C },
			func(p relation.Pair) atom.Atom { return p.A },
			func(t relation.Triple, e relation.Pair) relation.Triple { return relation.Triple{A: t.A, B: t.B, C: e.B} },
		)

		var candidates []relation.Triple
		candidates = append(candidates, fromSubset...)
		for _, t := range fromEdges {
			if live(t.A, t.C) {
				candidates = append(candidates, t)
			}
		}
		delta = oclAll.InsertAll(candidates)
		return len(delta)
	})
	return oclAll
}

// loanLiveAt derives loan_live_at(L,P) :- origin_contains_loan_on_entry(O,L,P), live_or_placeholder(O,P).
func loanLiveAt(in *Input, ocl *relation.Set[relation.Triple]) *relation.Set[relation.Pair] {
	live := liveOrPlaceholder(in)
	out := relation.New[relation.Pair]()
	for _, t := range ocl.Slice() {
		if live(t.A, t.C) {
			out.Insert(relation.Pair{A: t.B, B: t.C})
		}
	}
	return out
}

// errorsFrom derives errors(L,P) :- loan_invalidated_at(L,P), loan_live_at(L,P).
func errorsFrom(in *Input, live *relation.Set[relation.Pair]) []relation.Pair {
	return relation.Join(in.LoanInvalidatedAt.Slice(), live.Slice(),
		func(p relation.Pair) relation.Pair { return p },
		func(p relation.Pair) relation.Pair { return p },
		func(inv, _ relation.Pair) relation.Pair { return inv },
	)
}

// subsetErrorsFrom derives:
//
//	subset_errors(O1,O2,P) :- subset(O1,O2,P),
//	                         placeholder_origin(O1), placeholder_origin(O2),
//	                         O1 != O2,
//	                         not known_placeholder_subset(O1,O2).
func subsetErrorsFrom(in *Input, subset []relation.Triple) []relation.Triple {
	placeholders := relation.KeySet(in.Placeholder.Slice(), func(p relation.Pair) atom.Atom { return p.A })
	known := relation.KeySet(in.KnownPlaceholderSubset.Slice(), func(p relation.Pair) relation.Pair { return p })
	var out []relation.Triple
	for _, t := range subset {
		if t.A == t.B {
			continue
		}
		if _, ok := placeholders[t.A]; !ok {
			continue
		}
		if _, ok := placeholders[t.B]; !ok {
			continue
		}
		if _, ok := known[relation.Pair{A: t.A, B: t.B}]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}
