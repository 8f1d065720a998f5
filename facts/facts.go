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

// Package facts defines AllFacts, the fixed schema of input relations for
// one function's borrow-check analysis, and Output, the schema of derived
// relations a caller receives back. Both are fixed sets of named relations;
// nothing here is generic over the set of relations the way package
// relation's join engine is.
package facts

import "github.com/borrowck/polonius/relation"

// AllFacts holds every input relation for a single function analysis. It is
// built once (by a loader or by hand in tests) and is read-only from the
// point the driver starts solving: derived relations live in Output and in
// the private state of each analysis, never here.
//
// A relation that was never populated behaves as the empty set -- every
// analysis in this module must (and does) tolerate that, per the
// "schema errors" policy: a missing relation substitutes an empty one
// rather than failing.
type AllFacts struct {
	// CFG.
	CFGEdge *relation.Set[relation.Pair] // (Point, Point)

	// Loans and origins.
	LoanIssuedAt           *relation.Set[relation.Triple] // (Origin, Loan, Point)
	LoanKilledAt           *relation.Set[relation.Pair]   // (Loan, Point)
	LoanInvalidatedAt      *relation.Set[relation.Pair]   // (Loan, Point)
	SubsetBase             *relation.Set[relation.Triple] // (Origin, Origin, Point)
	Placeholder            *relation.Set[relation.Pair]   // (Origin, Loan)
	KnownPlaceholderSubset *relation.Set[relation.Pair]   // (Origin, Origin)
	OriginLiveOnEntry      *relation.Set[relation.Pair]   // (Origin, Point); derivable

	// Variable liveness inputs.
	VarUsedAt             *relation.Set[relation.Pair] // (Variable, Point)
	VarDefinedAt          *relation.Set[relation.Pair] // (Variable, Point)
	VarDroppedAt          *relation.Set[relation.Pair] // (Variable, Point)
	UseOfVarDerefsOrigin  *relation.Set[relation.Pair] // (Variable, Origin)
	DropOfVarDerefsOrigin *relation.Set[relation.Pair] // (Variable, Origin)

	// Initialization inputs. This implementation models Path and MovePath
	// as the same atom namespace (atom.MovePath): every Path the
	// initialization analysis reasons about already corresponds 1:1 to a
	// node of the MovePath tree, so a second, parallel identifier space
	// for "Path" would only rename the same atoms. See DESIGN.md.
	Child                *relation.Set[relation.Pair] // (parent MovePath, child MovePath)
	PathIsAssignedAt     *relation.Set[relation.Pair] // (MovePath, Point)
	PathMovedAt          *relation.Set[relation.Pair] // (MovePath, Point)
	PathAccessedAt       *relation.Set[relation.Pair] // (MovePath, Point)
	PathBelongsToVar     *relation.Set[relation.Pair] // (MovePath, Variable)
}

// New returns an AllFacts with every relation initialized empty, ready to
// be populated by a loader, the textual grammar, or a test.
func New() *AllFacts {
	return &AllFacts{
		CFGEdge:                relation.New[relation.Pair](),
		LoanIssuedAt:           relation.New[relation.Triple](),
		LoanKilledAt:           relation.New[relation.Pair](),
		LoanInvalidatedAt:      relation.New[relation.Pair](),
		SubsetBase:             relation.New[relation.Triple](),
		Placeholder:            relation.New[relation.Pair](),
		KnownPlaceholderSubset: relation.New[relation.Pair](),
		OriginLiveOnEntry:      relation.New[relation.Pair](),
		VarUsedAt:              relation.New[relation.Pair](),
		VarDefinedAt:           relation.New[relation.Pair](),
		VarDroppedAt:           relation.New[relation.Pair](),
		UseOfVarDerefsOrigin:   relation.New[relation.Pair](),
		DropOfVarDerefsOrigin:  relation.New[relation.Pair](),
		Child:                  relation.New[relation.Pair](),
		PathIsAssignedAt:       relation.New[relation.Pair](),
		PathMovedAt:            relation.New[relation.Pair](),
		PathAccessedAt:         relation.New[relation.Pair](),
		PathBelongsToVar:       relation.New[relation.Pair](),
	}
}

// HasOriginLiveOnEntry reports whether origin_live_on_entry was supplied as
// an input, so the driver can decide whether to run the liveness pre-pass.
func (f *AllFacts) HasOriginLiveOnEntry() bool {
	return f.OriginLiveOnEntry.Len() > 0
}

// Output holds every relation a caller receives back from a function
// analysis: the three error relations that are the system's deliverable,
// plus optional per-variant debug dumps.
type Output struct {
	Errors        []relation.Pair   // (Loan, Point)
	SubsetErrors  []relation.Triple // (Origin, Origin, Point)
	MoveErrors    []relation.Pair   // (MovePath, Point) -- see AllFacts.Child doc

	// Debug dumps, populated only when the driver is asked to keep them
	// (driver.WithDebugDumps option); nil otherwise. All are sorted for determinism.
	Subset                     []relation.Triple // (Origin, Origin, Point)
	OriginContainsLoanOnEntry  []relation.Triple // (Origin, Loan, Point)
	LoanLiveAt                 []relation.Pair   // (Loan, Point)
	VarLiveOnEntry             []relation.Pair   // (Variable, Point)
	VarDropLiveOnEntry         []relation.Pair   // (Variable, Point)
}
