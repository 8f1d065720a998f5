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

// Package relation is the tiny join engine the solver is built from: sets
// with set-union insertion, natural joins and antijoins keyed on common
// columns, and a semi-naive fixed-point driver. It knows nothing about
// origins, loans, or points -- those meanings live in package facts and the
// analyses built on top of this package.
package relation

import (
	"sort"

	"github.com/borrowck/polonius/atom"
)

// Pair is a 2-column tuple, e.g. (Loan, Point) for loan_killed_at.
type Pair struct{ A, B atom.Atom }

// Triple is a 3-column tuple, e.g. (Origin, Loan, Point) for loan_issued_at.
type Triple struct{ A, B, C atom.Atom }

func lessPair(x, y Pair) bool {
	if x.A != y.A {
		return x.A < y.A
	}
	return x.B < y.B
}

func lessTriple(x, y Triple) bool {
	if x.A != y.A {
		return x.A < y.A
	}
	if x.B != y.B {
		return x.B < y.B
	}
	return x.C < y.C
}

// Set is a deduplicated relation of arity-T tuples. Insertion has set
// semantics: inserting a tuple already present is a no-op. Set is the
// concrete representative of the "derived relation" the fixed-point engine
// solves for; package loans keeps one Set per relation name.
type Set[T comparable] struct {
	items map[T]struct{}
}

// New returns an empty Set.
func New[T comparable]() *Set[T] {
	return &Set[T]{items: make(map[T]struct{})}
}

// FromSlice returns a Set containing exactly the (deduplicated) tuples in ts.
func FromSlice[T comparable](ts []T) *Set[T] {
	s := New[T]()
	for _, t := range ts {
		s.Insert(t)
	}
	return s
}

// Insert adds t to the set, returning whether t was not already present.
func (s *Set[T]) Insert(t T) bool {
	if _, ok := s.items[t]; ok {
		return false
	}
	s.items[t] = struct{}{}
	return true
}

// InsertAll inserts every tuple in ts and returns the subset that was newly
// inserted -- the semi-naive "delta" for the round that produced ts.
func (s *Set[T]) InsertAll(ts []T) []T {
	var delta []T
	for _, t := range ts {
		if s.Insert(t) {
			delta = append(delta, t)
		}
	}
	return delta
}

// Contains reports whether t is in the set.
func (s *Set[T]) Contains(t T) bool {
	_, ok := s.items[t]
	return ok
}

// Len returns the number of tuples in the set.
func (s *Set[T]) Len() int { return len(s.items) }

// Slice returns the set's tuples, unordered. Callers that need a
// deterministic order should use SortedPairs or SortedTriples.
func (s *Set[T]) Slice() []T {
	out := make([]T, 0, len(s.items))
	for t := range s.items {
		out = append(out, t)
	}
	return out
}

// SortedPairs returns s's tuples sorted by (A, B), for deterministic output.
func SortedPairs(s *Set[Pair]) []Pair {
	out := s.Slice()
	sort.Slice(out, func(i, j int) bool { return lessPair(out[i], out[j]) })
	return out
}

// SortedTriples returns s's tuples sorted by (A, B, C), for deterministic
// output.
func SortedTriples(s *Set[Triple]) []Triple {
	out := s.Slice()
	sort.Slice(out, func(i, j int) bool { return lessTriple(out[i], out[j]) })
	return out
}

// IndexBy groups items by key(item), preserving the relative order within
// each group. It is the building block every join below uses to avoid
// O(n*m) scans.
func IndexBy[T any, K comparable](items []T, key func(T) K) map[K][]T {
	idx := make(map[K][]T)
	for _, item := range items {
		k := key(item)
		idx[k] = append(idx[k], item)
	}
	return idx
}

// Join performs a natural join: for every a in as and b in bs with
// keyA(a) == keyB(b), combine(a, b) is appended to the result. bs is
// indexed once up front, so this is linear in len(as)+len(bs) for a fixed
// fan-out.
func Join[A any, B any, K comparable, R any](as []A, bs []B, keyA func(A) K, keyB func(B) K, combine func(A, B) R) []R {
	if len(as) == 0 || len(bs) == 0 {
		return nil
	}
	index := IndexBy(bs, keyB)
	var out []R
	for _, a := range as {
		for _, b := range index[keyA(a)] {
			out = append(out, combine(a, b))
		}
	}
	return out
}

// AntiJoin returns the tuples of as whose key is absent from the exclude
// set -- the engine's only form of negation, and only ever applied against
// a relation that is stable (fully computed, typically an input relation)
// for the duration of the fixpoint consuming it.
func AntiJoin[A any, K comparable](as []A, key func(A) K, exclude map[K]struct{}) []A {
	var out []A
	for _, a := range as {
		if _, excluded := exclude[key(a)]; !excluded {
			out = append(out, a)
		}
	}
	return out
}

// KeySet builds the exclude set AntiJoin expects from any slice of items
// and a key extractor.
func KeySet[T any, K comparable](items []T, key func(T) K) map[K]struct{} {
	out := make(map[K]struct{}, len(items))
	for _, item := range items {
		out[key(item)] = struct{}{}
	}
	return out
}

// Fixpoint runs step repeatedly, passing the round number (starting at 0),
// until a round in which step reports no new tuples were derived anywhere.
// step is responsible for computing its own deltas via each Set's
// InsertAll and returning the total number of newly inserted tuples across
// every relation it touched; Fixpoint has no notion of which relations
// exist; that is a solver-specific concern (package loans).
//
// Termination follows the same argument as the rest of the engine: every
// rule is monotone, the atom universe is finite, and each round that makes
// progress strictly grows the total size of some relation, so the loop
// must eventually report a round with zero progress.
func Fixpoint(step func(round int) (progress int)) {
	for round := 0; ; round++ {
		if step(round) == 0 {
			return
		}
	}
}
