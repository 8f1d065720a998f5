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

package atom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternSameNameSameAtom(t *testing.T) {
	in := NewInterner()
	a := in.Intern(Origin, "'a")
	b := in.Intern(Origin, "'a")
	assert.Equal(t, a, b)
}

func TestInternDifferentKindsDontCollide(t *testing.T) {
	in := NewInterner()
	o := in.Intern(Origin, "x")
	l := in.Intern(Loan, "x")
	assert.Equal(t, o, l, "atoms are dense per-kind counters, so the first atom of any kind is always the same integer")
	assert.Equal(t, "x", in.Name(Origin, o))
	assert.Equal(t, "x", in.Name(Loan, l))
}

func TestInternFirstSightOrder(t *testing.T) {
	in := NewInterner()
	first := in.Intern(Point, "P0")
	second := in.Intern(Point, "P1")
	assert.True(t, first.Less(second))
}

func TestLookupMiss(t *testing.T) {
	in := NewInterner()
	_, ok := in.Lookup(Variable, "v1")
	assert.False(t, ok)
	in.Intern(Variable, "v1")
	got, ok := in.Lookup(Variable, "v1")
	assert.True(t, ok)
	assert.Equal(t, in.Intern(Variable, "v1"), got)
}

func TestFreshNeverCollidesWithNamed(t *testing.T) {
	in := NewInterner()
	named := in.Intern(Loan, "L0")
	fresh := in.Fresh(Loan)
	assert.NotEqual(t, named, fresh)
	assert.Equal(t, "", in.Name(Loan, fresh))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Origin", Origin.String())
	assert.Equal(t, "MovePath", MovePath.String())
}
