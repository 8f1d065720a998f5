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

// solveLocationInsensitive implements §4.5: subset drops its Point column,
// and loan containment is never killed or liveness-gated, so the result is
// a sound over-approximation usable as a cheap pre-pass (§4.7) -- if it
// finds nothing, no flow-sensitive variant could find anything either.
func solveLocationInsensitive(in *Input) *Result {
	subset := relation.New[relation.Pair]()
	subset.InsertAll(dropPoint(in.SubsetBase.Slice()))
	closeTransitively(subset)

	ocl := relation.New[relation.Pair]()
	ocl.InsertAll(dropPointFromTriple(in.LoanIssuedAt.Slice()))
	ocl.InsertAll(in.Placeholder.Slice()) // extra seed: placeholder loans too (§4.5)
	propagateOverSubset(ocl, subset)

	loanHasContainer := relation.KeySet(ocl.Slice(), func(p relation.Pair) atom.Atom { return p.B })
	var potentialErrors []relation.Pair
	for _, inv := range in.LoanInvalidatedAt.Slice() {
		if _, ok := loanHasContainer[inv.A]; ok {
			potentialErrors = append(potentialErrors, inv)
		}
	}

	placeholders := relation.KeySet(in.Placeholder.Slice(), func(p relation.Pair) atom.Atom { return p.A })
	known := relation.KeySet(in.KnownPlaceholderSubset.Slice(), func(p relation.Pair) relation.Pair { return p })
	var potentialSubsetErrors []relation.Pair
	for _, s := range subset.Slice() {
		if s.A == s.B {
			continue
		}
		if _, ok := placeholders[s.A]; !ok {
			continue
		}
		if _, ok := placeholders[s.B]; !ok {
			continue
		}
		if _, ok := known[s]; ok {
			continue
		}
		potentialSubsetErrors = append(potentialSubsetErrors, s)
	}

	return &Result{
		PotentialErrors:       relation.SortedPairs(relation.FromSlice(potentialErrors)),
		PotentialSubsetErrors: relation.SortedPairs(relation.FromSlice(potentialSubsetErrors)),
	}
}

func dropPoint(ts []relation.Triple) []relation.Pair {
	out := make([]relation.Pair, len(ts))
	for i, t := range ts {
		out[i] = relation.Pair{A: t.A, B: t.B}
	}
	return out
}

func dropPointFromTriple(ts []relation.Triple) []relation.Pair {
	// loan_issued_at is (Origin, Loan, Point); drop Point, keep (Origin, Loan).
	return dropPoint(ts)
}

// closeTransitively repeatedly extends s with R2-style composition until
// no new pairs appear.
func closeTransitively(s *relation.Set[relation.Pair]) {
	delta := s.Slice()
	relation.Fixpoint(func(int) int {
		if len(delta) == 0 {
			return 0
		}
		all := s.Slice()
		fromLeft := relation.Join(delta, all,
			func(p relation.Pair) atom.Atom { return p.B },
			func(p relation.Pair) atom.Atom { return p.A },
			func(d, a relation.Pair) relation.Pair { return relation.Pair{A: d.A, B: a.B} },
		)
		fromRight := relation.Join(all, delta,
			func(p relation.Pair) atom.Atom { return p.B },
			func(p relation.Pair) atom.Atom { return p.A },
			func(a, d relation.Pair) relation.Pair { return relation.Pair{A: a.A, B: d.B} },
		)
		var candidates []relation.Pair
		candidates = append(candidates, fromLeft...)
		candidates = append(candidates, fromRight...)
		delta = s.InsertAll(candidates)
		return len(delta)
	})
}

// propagateOverSubset extends ocl (a set of (Origin, Loan) pairs) with
// every loan reachable by following subset (a set of (Origin, Origin)
// pairs) forward, ignoring Point entirely.
func propagateOverSubset(ocl *relation.Set[relation.Pair], subset *relation.Set[relation.Pair]) {
	subsetAll := subset.Slice()
	delta := ocl.Slice()
	relation.Fixpoint(func(int) int {
		if len(delta) == 0 {
			return 0
		}
		next := relation.Join(delta, subsetAll,
			func(p relation.Pair) atom.Atom { return p.A },
			func(p relation.Pair) atom.Atom { return p.A },
			func(o, s relation.Pair) relation.Pair { return relation.Pair{A: s.B, B: o.B} },
		)
		delta = ocl.InsertAll(next)
		return len(delta)
	})
}
