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

package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/borrowck/polonius/atom"
)

func a(n int) atom.Atom { return atom.Atom(n) }

func TestSetInsertIsIdempotent(t *testing.T) {
	s := New[Pair]()
	assert.True(t, s.Insert(Pair{A: a(1), B: a(2)}))
	assert.False(t, s.Insert(Pair{A: a(1), B: a(2)}))
	assert.Equal(t, 1, s.Len())
}

func TestInsertAllReturnsOnlyTheDelta(t *testing.T) {
	s := New[Pair]()
	s.Insert(Pair{A: a(1), B: a(2)})
	delta := s.InsertAll([]Pair{{A: a(1), B: a(2)}, {A: a(3), B: a(4)}})
	assert.Equal(t, []Pair{{A: a(3), B: a(4)}}, delta)
}

func TestSortedPairsIsDeterministic(t *testing.T) {
	s := New[Pair]()
	s.InsertAll([]Pair{{A: a(3), B: a(1)}, {A: a(1), B: a(2)}, {A: a(1), B: a(1)}})
	sorted := SortedPairs(s)
	assert.Equal(t, []Pair{{A: a(1), B: a(1)}, {A: a(1), B: a(2)}, {A: a(3), B: a(1)}}, sorted)
}

func TestJoinOnCommonColumn(t *testing.T) {
	as := []Pair{{A: a(1), B: a(10)}, {A: a(2), B: a(20)}}
	bs := []Pair{{A: a(10), B: a(100)}, {A: a(99), B: a(999)}}
	out := Join(as, bs,
		func(p Pair) atom.Atom { return p.B },
		func(p Pair) atom.Atom { return p.A },
		func(x, y Pair) Pair { return Pair{A: x.A, B: y.B} },
	)
	assert.Equal(t, []Pair{{A: a(1), B: a(100)}}, out)
}

func TestJoinWithNoMatchesIsNil(t *testing.T) {
	as := []Pair{{A: a(1), B: a(2)}}
	bs := []Pair{{A: a(3), B: a(4)}}
	out := Join(as, bs,
		func(p Pair) atom.Atom { return p.B },
		func(p Pair) atom.Atom { return p.A },
		func(x, y Pair) Pair { return x },
	)
	assert.Nil(t, out)
}

func TestAntiJoinExcludesByKey(t *testing.T) {
	as := []Pair{{A: a(1), B: a(2)}, {A: a(3), B: a(4)}}
	exclude := KeySet([]Pair{{A: a(3), B: a(4)}}, func(p Pair) Pair { return p })
	out := AntiJoin(as, func(p Pair) Pair { return p }, exclude)
	assert.Equal(t, []Pair{{A: a(1), B: a(2)}}, out)
}

func TestFixpointStopsAtZeroProgress(t *testing.T) {
	rounds := 0
	s := New[Pair]()
	budget := []Pair{{A: a(1), B: a(2)}, {A: a(2), B: a(3)}, {A: a(3), B: a(4)}}
	Fixpoint(func(int) int {
		rounds++
		if len(budget) == 0 {
			return 0
		}
		next := budget[0]
		budget = budget[1:]
		return len(s.InsertAll([]Pair{next}))
	})
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 4, rounds, "one extra round to observe zero progress and stop")
}
