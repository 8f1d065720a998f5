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

// Package graphviz renders a function's CFG, enriched with the loan
// analysis's input and output tuples, as GraphViz DOT text.
package graphviz

import (
	"fmt"
	"io"
	"sort"
	"text/template"

	"github.com/borrowck/polonius/atom"
	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/relation"
)

var dotTemplate = template.Must(template.New("cfg").Parse(`digraph polonius {
  rankdir=LR;
  node [shape=box, fontname="monospace"];
{{range .Nodes}}  "{{.Name}}" [label="{{.Label}}"];
{{end}}{{range .Edges}}  "{{.From}}" -> "{{.To}}";
{{end}}}
`))

type node struct {
	Name  string
	Label string
}

type edge struct {
	From, To string
}

type document struct {
	Nodes []node
	Edges []edge
}

// Dump renders f's CFG to w as DOT text, labelling each point with the
// loans issued, invalidated and killed there and, when out is non-nil, the
// errors reported at it. interner resolves atoms back to
// their original token text for display; a loaded or parsed AllFacts
// always has one available (see load.Loader.Interner and grammar.Parse's
// returned interner).
func Dump(w io.Writer, f *facts.AllFacts, out *facts.Output, interner *atom.Interner) error {
	doc := document{}

	issuedAt := make(map[atom.Atom][]atom.Atom)
	for _, t := range f.LoanIssuedAt.Slice() {
		issuedAt[t.C] = append(issuedAt[t.C], t.B)
	}
	invalidatedAt := groupByPoint(f.LoanInvalidatedAt.Slice())
	killedAt := groupByPoint(f.LoanKilledAt.Slice())

	var errsAt map[atom.Atom][]string
	if out != nil {
		errsAt = make(map[atom.Atom][]string)
		for _, e := range out.Errors {
			errsAt[e.B] = append(errsAt[e.B], interner.Name(atom.Loan, e.A))
		}
	}

	points := pointUniverse(f)
	for _, p := range points {
		name := interner.Name(atom.Point, p)
		label := name
		for _, l := range issuedAt[p] {
			label += fmt.Sprintf(`\nissues %s`, interner.Name(atom.Loan, l))
		}
		for _, l := range invalidatedAt[p] {
			label += fmt.Sprintf(`\ninvalidates %s`, interner.Name(atom.Loan, l))
		}
		for _, l := range killedAt[p] {
			label += fmt.Sprintf(`\nkills %s`, interner.Name(atom.Loan, l))
		}
		for _, l := range errsAt[p] {
			label += fmt.Sprintf(`\nERROR: %s`, l)
		}
		doc.Nodes = append(doc.Nodes, node{Name: name, Label: label})
	}

	for _, e := range f.CFGEdge.Slice() {
		doc.Edges = append(doc.Edges, edge{
			From: interner.Name(atom.Point, e.A),
			To:   interner.Name(atom.Point, e.B),
		})
	}

	return dotTemplate.Execute(w, doc)
}

// groupByPoint indexes a (X, Point) pair relation by its Point column,
// returning the X atom for each -- used for loan_invalidated_at and
// loan_killed_at, both (Loan, Point).
func groupByPoint(ps []relation.Pair) map[atom.Atom][]atom.Atom {
	out := make(map[atom.Atom][]atom.Atom)
	for _, p := range ps {
		out[p.B] = append(out[p.B], p.A)
	}
	return out
}

func pointUniverse(f *facts.AllFacts) []atom.Atom {
	seen := map[atom.Atom]bool{}
	var out []atom.Atom
	add := func(a atom.Atom) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, e := range f.CFGEdge.Slice() {
		add(e.A)
		add(e.B)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
