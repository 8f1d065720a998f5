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

import "github.com/borrowck/polonius/relation"

// solveNaive implements §4.4 exactly, and keeps every intermediate
// relation around in Result's debug-dump fields: it is the reference
// semantics the other variants are validated against, so a test comparing
// against it needs to see the full subset and origin_contains_loan_on_entry
// relations, not just the final error sets.
func solveNaive(in *Input) *Result {
	subset := solveSubset(in)
	ocl := solveOriginContainsLoan(in, subset, nil)
	live := loanLiveAt(in, ocl)

	return &Result{
		Errors:                    relation.SortedPairs(relation.FromSlice(errorsFrom(in, live))),
		SubsetErrors:              relation.SortedTriples(relation.FromSlice(subsetErrorsFrom(in, subset.Slice()))),
		Subset:                    relation.SortedTriples(subset),
		OriginContainsLoanOnEntry: relation.SortedTriples(ocl),
		LoanLiveAt:                relation.SortedPairs(live),
	}
}
