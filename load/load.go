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

// Package load reads one function's fact directory -- one `<relation>.facts`
// file per input relation, each line a tab-separated tuple of quoted string
// tokens -- into a facts.AllFacts. A relation whose file is absent is left
// empty rather than treated as an error, per the schema-error tolerance the
// core itself requires.
package load

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/borrowck/polonius/atom"
	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/relation"
)

// arity names how many quoted-token columns a relation's .facts file has,
// and which atom.Kind each column interns into.
type arity []atom.Kind

// schema maps each relation file's base name to its column kinds. Relation
// files not listed here (origin_live_on_entry is 2-column but derivable; loaders
// for it, and for every other relation, all go through this single table)
// cannot be loaded; each is reported as an unknown relation in Dir's
// returned error, but the remaining files of the directory still load.
var schema = map[string]arity{
	"cfg_edge":                  {atom.Point, atom.Point},
	"loan_issued_at":            {atom.Origin, atom.Loan, atom.Point},
	"loan_killed_at":            {atom.Loan, atom.Point},
	"loan_invalidated_at":       {atom.Loan, atom.Point},
	"subset_base":               {atom.Origin, atom.Origin, atom.Point},
	"placeholder":               {atom.Origin, atom.Loan},
	"known_placeholder_subset":  {atom.Origin, atom.Origin},
	"origin_live_on_entry":      {atom.Origin, atom.Point},
	"var_used_at":               {atom.Variable, atom.Point},
	"var_defined_at":            {atom.Variable, atom.Point},
	"var_dropped_at":            {atom.Variable, atom.Point},
	"use_of_var_derefs_origin":  {atom.Variable, atom.Origin},
	"drop_of_var_derefs_origin": {atom.Variable, atom.Origin},
	"child":                     {atom.MovePath, atom.MovePath},
	"path_is_assigned_at":       {atom.MovePath, atom.Point},
	"path_moved_at":             {atom.MovePath, atom.Point},
	"path_accessed_at":          {atom.MovePath, atom.Point},
	"path_belongs_to_var":       {atom.MovePath, atom.Variable},
}

// Loader owns the atom.Interner that every loaded fact directory is
// interned against. Share one Loader across multiple Dir calls when
// cross-function atoms (e.g. a Variable shared by two functions in the
// same crate) must compare equal; use a fresh Loader per function
// otherwise, which is the common case and what Dir's package-level
// wrapper does.
type Loader struct {
	interner *atom.Interner
}

// NewLoader returns a Loader with a fresh Interner.
func NewLoader() *Loader {
	return &Loader{interner: atom.NewInterner()}
}

// Interner returns the Loader's underlying Interner, e.g. so a caller can
// render atoms back to their original token text for error messages or a
// GraphViz dump.
func (l *Loader) Interner() *atom.Interner {
	return l.interner
}

// Dir loads every <relation>.facts file under dir into a new AllFacts.
// Parse errors are collected across every file before returning, not
// aborted at the first one, so a single malformed directory reports every
// problem in one pass.
func (l *Loader) Dir(dir string) (*facts.AllFacts, error) {
	f := facts.New()
	var errs *multierror.Error

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("polonius: load %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".facts") {
			continue
		}
		relName := strings.TrimSuffix(name, ".facts")
		cols, known := schema[relName]
		if !known {
			errs = multierror.Append(errs, fmt.Errorf("%s: unknown relation %q, skipping", name, relName))
			continue
		}
		if err := l.loadFile(filepath.Join(dir, name), relName, cols, f); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return f, errs.ErrorOrNil()
}

// Dir loads dir with a fresh, single-use Loader -- the common case, where
// each function's fact directory gets its own atom namespace.
func Dir(dir string) (*facts.AllFacts, error) {
	return NewLoader().Dir(dir)
}

func (l *Loader) loadFile(path, relName string, cols arity, f *facts.AllFacts) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer file.Close()

	var fileErrs *multierror.Error
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens, err := splitQuotedFields(line)
		if err != nil {
			fileErrs = multierror.Append(fileErrs, fmt.Errorf("%s:%d: %w", path, lineNo, err))
			continue
		}
		if len(tokens) != len(cols) {
			fileErrs = multierror.Append(fileErrs, fmt.Errorf("%s:%d: %s expects %d columns, got %d", path, lineNo, relName, len(cols), len(tokens)))
			continue
		}

		atoms := make([]atom.Atom, len(tokens))
		for i, tok := range tokens {
			atoms[i] = l.interner.Intern(cols[i], tok)
		}
		insertTuple(f, relName, atoms)
	}
	if err := scanner.Err(); err != nil {
		fileErrs = multierror.Append(fileErrs, fmt.Errorf("%s: %w", path, err))
	}
	return fileErrs.ErrorOrNil()
}

// splitQuotedFields splits a tab-separated line into its quoted string
// tokens, unquoting each with strconv.Unquote so that escape sequences
// inside a token (e.g. a literal tab or quote) round-trip correctly.
func splitQuotedFields(line string) ([]string, error) {
	fields := strings.Split(line, "\t")
	out := make([]string, len(fields))
	for i, field := range fields {
		if len(field) < 2 || field[0] != '"' || field[len(field)-1] != '"' {
			return nil, fmt.Errorf("field %d (%q) is not a quoted token", i, field)
		}
		unquoted, err := strconv.Unquote(field)
		if err != nil {
			return nil, fmt.Errorf("field %d (%q): %w", i, field, err)
		}
		out[i] = unquoted
	}
	return out, nil
}

// insertTuple dispatches atoms into the right relation of f by name. It is
// a straight-line switch rather than reflection: the schema table above is
// the single source of truth for arity, and this switch is the single
// source of truth for which AllFacts field each name writes to -- keeping
// both in one file makes it easy to keep them in sync.
func insertTuple(f *facts.AllFacts, relName string, a []atom.Atom) {
	switch relName {
	case "cfg_edge":
		f.CFGEdge.Insert(relation.Pair{A: a[0], B: a[1]})
	case "loan_issued_at":
		f.LoanIssuedAt.Insert(relation.Triple{A: a[0], B: a[1], C: a[2]})
	case "loan_killed_at":
		f.LoanKilledAt.Insert(relation.Pair{A: a[0], B: a[1]})
	case "loan_invalidated_at":
		f.LoanInvalidatedAt.Insert(relation.Pair{A: a[0], B: a[1]})
	case "subset_base":
		f.SubsetBase.Insert(relation.Triple{A: a[0], B: a[1], C: a[2]})
	case "placeholder":
		f.Placeholder.Insert(relation.Pair{A: a[0], B: a[1]})
	case "known_placeholder_subset":
		f.KnownPlaceholderSubset.Insert(relation.Pair{A: a[0], B: a[1]})
	case "origin_live_on_entry":
		f.OriginLiveOnEntry.Insert(relation.Pair{A: a[0], B: a[1]})
	case "var_used_at":
		f.VarUsedAt.Insert(relation.Pair{A: a[0], B: a[1]})
	case "var_defined_at":
		f.VarDefinedAt.Insert(relation.Pair{A: a[0], B: a[1]})
	case "var_dropped_at":
		f.VarDroppedAt.Insert(relation.Pair{A: a[0], B: a[1]})
	case "use_of_var_derefs_origin":
		f.UseOfVarDerefsOrigin.Insert(relation.Pair{A: a[0], B: a[1]})
	case "drop_of_var_derefs_origin":
		f.DropOfVarDerefsOrigin.Insert(relation.Pair{A: a[0], B: a[1]})
	case "child":
		f.Child.Insert(relation.Pair{A: a[0], B: a[1]})
	case "path_is_assigned_at":
		f.PathIsAssignedAt.Insert(relation.Pair{A: a[0], B: a[1]})
	case "path_moved_at":
		f.PathMovedAt.Insert(relation.Pair{A: a[0], B: a[1]})
	case "path_accessed_at":
		f.PathAccessedAt.Insert(relation.Pair{A: a[0], B: a[1]})
	case "path_belongs_to_var":
		f.PathBelongsToVar.Insert(relation.Pair{A: a[0], B: a[1]})
	}
}
