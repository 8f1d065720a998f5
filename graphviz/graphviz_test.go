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

package graphviz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borrowck/polonius/atom"
	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/relation"
)

func TestDumpProducesWellFormedDOT(t *testing.T) {
	in := atom.NewInterner()
	f := facts.New()
	oa := in.Intern(atom.Origin, "'a")
	l0 := in.Intern(atom.Loan, "L0")
	p0 := in.Intern(atom.Point, "P0")
	p1 := in.Intern(atom.Point, "P1")
	f.CFGEdge.Insert(relation.Pair{A: p0, B: p1})
	f.LoanIssuedAt.Insert(relation.Triple{A: oa, B: l0, C: p0})
	f.LoanInvalidatedAt.Insert(relation.Pair{A: l0, B: p1})

	out := &facts.Output{Errors: []relation.Pair{{A: l0, B: p1}}}

	var buf strings.Builder
	require.NoError(t, Dump(&buf, f, out, in))

	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "digraph polonius {"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "}"))
	assert.Contains(t, text, `"P0" -> "P1"`)
	assert.Contains(t, text, "P0")
	assert.Contains(t, text, `issues L0`)
	assert.Contains(t, text, `invalidates L0`)
	assert.Contains(t, text, `ERROR: L0`)
}

func TestDumpToleratesNilOutput(t *testing.T) {
	in := atom.NewInterner()
	f := facts.New()
	p0 := in.Intern(atom.Point, "P0")
	p1 := in.Intern(atom.Point, "P1")
	f.CFGEdge.Insert(relation.Pair{A: p0, B: p1})

	var buf strings.Builder
	require.NoError(t, Dump(&buf, f, nil, in))
	assert.Contains(t, buf.String(), `"P0" -> "P1"`)
}

func TestDumpOnEmptyFactsStillProducesAGraph(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Dump(&buf, facts.New(), nil, atom.NewInterner()))
	assert.Equal(t, "digraph polonius {\n  rankdir=LR;\n  node [shape=box, fontname=\"monospace\"];\n}\n", buf.String())
}
