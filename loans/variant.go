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

// Package loans is the loan analysis core: given the CFG, the loans each
// origin may issue or invalidate, and the live-or-placeholder state of
// every origin at every point, it derives subset,
// origin_contains_loan_on_entry, loan_live_at, errors, and subset_errors,
// in four algorithmic variants trading precision against speed.
package loans

import (
	"fmt"

	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/relation"
)

// Variant selects which algorithm Solve runs. The variant is a tagged
// selection, not polymorphism over relation types: the driver calls
// exactly one Solve per function analysis, and every variant shares the
// same Input and the same upstream init/liveness pre-passes.
type Variant int

const (
	// Naive is the reference semantics every other variant is validated
	// against (§4.4).
	Naive Variant = iota
	// LocationInsensitive drops the Point column from subset for a fast,
	// sound over-approximation (§4.5). Its Result's PotentialErrors and
	// PotentialSubsetErrors are supersets of Naive's Errors/SubsetErrors.
	LocationInsensitive
	// DatafrogOpt produces exactly the same Errors and SubsetErrors as
	// Naive, organized around relations sized for the common case where
	// few origins ever carry a loan (§4.6).
	DatafrogOpt
	// Hybrid runs LocationInsensitive first and only falls through to
	// DatafrogOpt if that pre-pass found something to report (§4.7). It
	// is the default variant.
	Hybrid
)

func (v Variant) String() string {
	switch v {
	case Naive:
		return "Naive"
	case LocationInsensitive:
		return "LocationInsensitive"
	case DatafrogOpt:
		return "DatafrogOpt"
	case Hybrid:
		return "Hybrid"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant maps the CLI spelling of a variant (§6) to a Variant. It
// does not accept "Compare": that is a driver/CLI-level mode (run Naive
// and DatafrogOpt, then diff), not a solver variant.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "Naive":
		return Naive, nil
	case "LocationInsensitive":
		return LocationInsensitive, nil
	case "DatafrogOpt":
		return DatafrogOpt, nil
	case "Hybrid":
		return Hybrid, nil
	default:
		return 0, fmt.Errorf("polonius: unknown variant %q", s)
	}
}

// Input is everything the loan analysis core needs: the facts it reads
// directly, plus the final origin_live_on_entry relation (either supplied
// directly in AllFacts, or derived by the liveness pre-pass).
type Input struct {
	CFGEdge                *relation.Set[relation.Pair]
	LoanIssuedAt           *relation.Set[relation.Triple]
	LoanKilledAt           *relation.Set[relation.Pair]
	LoanInvalidatedAt      *relation.Set[relation.Pair]
	SubsetBase             *relation.Set[relation.Triple]
	Placeholder            *relation.Set[relation.Pair]
	KnownPlaceholderSubset *relation.Set[relation.Pair]
	OriginLiveOnEntry      *relation.Set[relation.Pair]
}

// InputFrom builds an Input from AllFacts and a final origin_live_on_entry
// relation (which the driver may have taken verbatim from f, or computed
// via the liveness pre-pass).
func InputFrom(f *facts.AllFacts, originLiveOnEntry *relation.Set[relation.Pair]) *Input {
	return &Input{
		CFGEdge:                f.CFGEdge,
		LoanIssuedAt:           f.LoanIssuedAt,
		LoanKilledAt:           f.LoanKilledAt,
		LoanInvalidatedAt:      f.LoanInvalidatedAt,
		SubsetBase:             f.SubsetBase,
		Placeholder:            f.Placeholder,
		KnownPlaceholderSubset: f.KnownPlaceholderSubset,
		OriginLiveOnEntry:      originLiveOnEntry,
	}
}

// Result holds what a single variant run derived. Fields a variant does
// not compute are left nil/empty: LocationInsensitive never populates
// Errors/SubsetErrors (only their Potential* approximations), and
// DatafrogOpt never populates the per-point debug dumps Naive keeps
// around, freeing its intermediate relations before returning instead
// (§5's memory guidance).
type Result struct {
	Errors       []relation.Pair   // (Loan, Point)
	SubsetErrors []relation.Triple // (Origin, Origin, Point)

	PotentialErrors       []relation.Pair   // LocationInsensitive/Hybrid pre-pass only
	PotentialSubsetErrors []relation.Pair   // (Origin, Origin), LocationInsensitive/Hybrid pre-pass only

	Subset                    []relation.Triple // debug dump, Naive only
	OriginContainsLoanOnEntry []relation.Triple // debug dump, Naive only
	LoanLiveAt                []relation.Pair   // debug dump, Naive only
}

// Solve runs the selected variant over in.
func Solve(in *Input, variant Variant) (*Result, error) {
	switch variant {
	case Naive:
		return solveNaive(in), nil
	case LocationInsensitive:
		return solveLocationInsensitive(in), nil
	case DatafrogOpt:
		return solveDatafrogOpt(in), nil
	case Hybrid:
		return solveHybrid(in), nil
	default:
		return nil, fmt.Errorf("polonius: internal: unknown variant %d", int(variant))
	}
}
