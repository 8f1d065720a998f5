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

// Package initialization runs the forward "maybe initialized" dataflow
// over MovePaths that a move-checker needs: which paths might still hold
// a value on exit from a Point, which accesses reach a possibly-moved
// path, and which variables (lifted from paths) are maybe-initialized.
package initialization

import (
	"github.com/borrowck/polonius/atom"
	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/relation"
)

// Result holds the derived initialization relations for one function.
type Result struct {
	// PathMaybeInitializedOnExit is (MovePath, Point): a prefix of the
	// path was assigned on some incoming edge and no dominating move has
	// cleared it since.
	PathMaybeInitializedOnExit *relation.Set[relation.Pair]

	// PathMaybeUninitializedOnExit is the complement of
	// PathMaybeInitializedOnExit within the set of paths this function
	// mentions at all.
	PathMaybeUninitializedOnExit *relation.Set[relation.Pair]

	// MoveErrors is (MovePath, Point): an access to a path at a Point
	// where the path was not yet (maybe-)initialized on entry.
	MoveErrors *relation.Set[relation.Pair]

	// VarMaybeInitializedOnExit is (Variable, Point), lifted from paths
	// via path_belongs_to_var and child: a variable counts as
	// maybe-initialized if any node of its MovePath tree (not just the
	// exact path path_belongs_to_var names) is maybe-initialized, since
	// assigning a child movepath sets only that child's bit.
	VarMaybeInitializedOnExit *relation.Set[relation.Pair]
}

// Run derives Result from f. It tolerates every input relation being
// empty: with no paths mentioned at all, every output relation is simply
// empty too.
func Run(f *facts.AllFacts) *Result {
	r := &Result{
		PathMaybeInitializedOnExit:   relation.New[relation.Pair](),
		PathMaybeUninitializedOnExit: relation.New[relation.Pair](),
		MoveErrors:                   relation.New[relation.Pair](),
		VarMaybeInitializedOnExit:    relation.New[relation.Pair](),
	}

	paths := universeOfPaths(f)
	points := universeOfPoints(f)
	if len(paths) == 0 || len(points) == 0 {
		return r
	}

	descendants := descendantsIncludingSelf(f.Child, paths)
	predecessors := relation.IndexBy(f.CFGEdge.Slice(), func(p relation.Pair) atom.Atom { return p.B })
	assignedAt := relation.IndexBy(f.PathIsAssignedAt.Slice(), func(p relation.Pair) atom.Atom { return p.B })
	movedAt := relation.IndexBy(f.PathMovedAt.Slice(), func(p relation.Pair) atom.Atom { return p.B })
	accessedAt := relation.IndexBy(f.PathAccessedAt.Slice(), func(p relation.Pair) atom.Atom { return p.B })

	// entry/exit track, per Point, the set of MovePaths that are maybe
	// initialized on entry to / exit from that point. This is a classic
	// "may" forward dataflow: entry is the union of predecessors' exits,
	// and it only grows round over round, so simple repeated recompute
	// to a fixed point terminates.
	entry := make(map[atom.Atom]map[atom.Atom]bool, len(points))
	exit := make(map[atom.Atom]map[atom.Atom]bool, len(points))
	for _, p := range points {
		entry[p] = make(map[atom.Atom]bool)
		exit[p] = make(map[atom.Atom]bool)
	}

	relation.Fixpoint(func(int) int {
		progress := 0
		for _, p := range points {
			in := entry[p]
			for _, edge := range predecessors[p] {
				for path := range exit[edge.A] {
					if !in[path] {
						in[path] = true
						progress++
					}
				}
			}

			out := make(map[atom.Atom]bool, len(in))
			for path := range in {
				out[path] = true
			}
			for _, mv := range movedAt[p] {
				for d := range descendants[mv.A] {
					delete(out, d)
				}
			}
			for _, asn := range assignedAt[p] {
				for d := range descendants[asn.A] {
					out[d] = true
				}
			}
			for path := range out {
				if !exit[p][path] {
					exit[p][path] = true
					progress++
				}
			}
		}
		return progress
	})

	for _, p := range points {
		for path := range exit[p] {
			r.PathMaybeInitializedOnExit.Insert(relation.Pair{A: path, B: p})
		}
		for _, path := range paths {
			if !exit[p][path] {
				r.PathMaybeUninitializedOnExit.Insert(relation.Pair{A: path, B: p})
			}
		}
		for _, acc := range accessedAt[p] {
			if !entry[p][acc.A] {
				r.MoveErrors.Insert(relation.Pair{A: acc.A, B: p})
			}
		}
	}

	// path_belongs_to_var only names a variable's root path, but
	// maybe-initialized status can live on any descendant movepath (e.g.
	// only x.f is ever assigned, never x itself), so close the relation
	// over child before joining against PathMaybeInitializedOnExit.
	belongsToDescendants := relation.New[relation.Pair]()
	for _, belongs := range f.PathBelongsToVar.Slice() {
		for d := range descendants[belongs.A] {
			belongsToDescendants.Insert(relation.Pair{A: d, B: belongs.B})
		}
	}

	belongsTo := relation.Join(belongsToDescendants.Slice(), r.PathMaybeInitializedOnExit.Slice(),
		func(p relation.Pair) atom.Atom { return p.A },
		func(p relation.Pair) atom.Atom { return p.A },
		func(belongs, init relation.Pair) relation.Pair {
			return relation.Pair{A: belongs.B, B: init.B} // (Variable, Point)
		})
	r.VarMaybeInitializedOnExit.InsertAll(belongsTo)
	return r
}

func universeOfPaths(f *facts.AllFacts) []atom.Atom {
	seen := map[atom.Atom]bool{}
	var out []atom.Atom
	add := func(a atom.Atom) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, p := range f.Child.Slice() {
		add(p.A)
		add(p.B)
	}
	for _, p := range f.PathIsAssignedAt.Slice() {
		add(p.A)
	}
	for _, p := range f.PathMovedAt.Slice() {
		add(p.A)
	}
	for _, p := range f.PathAccessedAt.Slice() {
		add(p.A)
	}
	for _, p := range f.PathBelongsToVar.Slice() {
		add(p.A)
	}
	return out
}

func universeOfPoints(f *facts.AllFacts) []atom.Atom {
	seen := map[atom.Atom]bool{}
	var out []atom.Atom
	add := func(a atom.Atom) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, p := range f.CFGEdge.Slice() {
		add(p.A)
		add(p.B)
	}
	for _, p := range f.PathIsAssignedAt.Slice() {
		add(p.B)
	}
	for _, p := range f.PathMovedAt.Slice() {
		add(p.B)
	}
	for _, p := range f.PathAccessedAt.Slice() {
		add(p.B)
	}
	return out
}

// descendantsIncludingSelf returns, for every path in the universe, the
// set of paths reachable via child (itself included). A write to a
// parent path clears/sets every descendant's uninit bit; a write to a
// child leaves siblings alone, which is exactly what taking the
// descendant set of the written path (not its ancestors) achieves.
func descendantsIncludingSelf(child *relation.Set[relation.Pair], paths []atom.Atom) map[atom.Atom]map[atom.Atom]bool {
	childrenOf := relation.IndexBy(child.Slice(), func(p relation.Pair) atom.Atom { return p.A })
	out := make(map[atom.Atom]map[atom.Atom]bool, len(paths))
	for _, p := range paths {
		set := map[atom.Atom]bool{p: true}
		stack := []atom.Atom{p}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, edge := range childrenOf[n] {
				if !set[edge.B] {
					set[edge.B] = true
					stack = append(stack, edge.B)
				}
			}
		}
		out[p] = set
	}
	return out
}
