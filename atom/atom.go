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

// Package atom defines the opaque integer identifiers shared by every
// relation in the fact store: Origin, Loan, Point, Variable, Path, and
// MovePath. An Atom carries no meaning of its own -- meaning comes entirely
// from the relations that mention it.
package atom

import "fmt"

// Kind distinguishes the six families of atom. Two atoms of different
// Kinds are never compared; the fact store keeps them in separate columns.
type Kind uint8

const (
	Origin Kind = iota
	Loan
	Point
	Variable
	Path
	MovePath
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Origin:
		return "Origin"
	case Loan:
		return "Loan"
	case Point:
		return "Point"
	case Variable:
		return "Variable"
	case Path:
		return "Path"
	case MovePath:
		return "MovePath"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Atom is a totally-ordered, comparable identifier. The zero Atom is never
// issued by an Interner, so it is safe to use as a "no atom" sentinel.
type Atom uint32

// Less orders atoms by their integer value. For atoms of one Kind issued by
// one Interner this is first-sight order; package relation's SortedPairs and
// SortedTriples sort output tuples by the same integer order.
func (a Atom) Less(b Atom) bool { return a < b }

// String renders an atom as a small integer, e.g. for debug dumps. Callers
// that have an Interner available should prefer Interner.Name for
// human-readable output.
func (a Atom) String() string { return fmt.Sprintf("#%d", uint32(a)) }

// Interner assigns a dense, stable Atom to each distinct string name seen
// for a given Kind. It is used by the fact loader (package load) and by the
// textual test grammar (package internal/grammar) to turn source tokens
// like "'a", "L0", or "Mid(bb3[2])" into atoms; the solver itself never
// constructs an Interner and never sees the original strings.
//
// An Interner is not safe for concurrent use; each function analysis owns
// its own Interner, matching the "no shared mutable state" policy for the
// fact store as a whole.
type Interner struct {
	byName [numKinds]map[string]Atom
	names  [numKinds][]string
}

// NewInterner returns an Interner ready to intern atoms of any Kind.
func NewInterner() *Interner {
	in := &Interner{}
	for k := range in.byName {
		in.byName[k] = make(map[string]Atom)
	}
	return in
}

// Intern returns the Atom for name under the given Kind, allocating a fresh
// one (one larger than any previously issued atom of that Kind) the first
// time name is seen. The same name always maps to the same Atom within one
// Interner, and atoms of different Kinds never collide because each Kind
// has its own namespace.
func (in *Interner) Intern(k Kind, name string) Atom {
	if a, ok := in.byName[k][name]; ok {
		return a
	}
	a := Atom(len(in.names[k]) + 1)
	in.byName[k][name] = a
	in.names[k] = append(in.names[k], name)
	return a
}

// Lookup returns the Atom already interned for name under Kind, if any.
func (in *Interner) Lookup(k Kind, name string) (Atom, bool) {
	a, ok := in.byName[k][name]
	return a, ok
}

// Name returns the display string that produced a, the empty string if a
// was minted by Fresh, or its integer form if this Interner never issued a
// under k.
func (in *Interner) Name(k Kind, a Atom) string {
	idx := int(a) - 1
	if idx < 0 || idx >= len(in.names[k]) {
		return a.String()
	}
	return in.names[k][idx]
}

// Fresh mints a new Atom of Kind k that is not associated with any name.
// It is distinct from every atom this Interner has issued, or will later
// issue, for a name under k.
func (in *Interner) Fresh(k Kind) Atom {
	a := Atom(len(in.names[k]) + 1)
	in.names[k] = append(in.names[k], "")
	return a
}
