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

package load

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFacts(t *testing.T, dir, relation, content string) {
	t.Helper()
	path := filepath.Join(dir, relation+".facts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDirLoadsKnownRelations(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "cfg_edge", "\"P0\"\t\"P1\"\n\"P1\"\t\"P2\"\n")
	writeFacts(t, dir, "loan_issued_at", "\"'a\"\t\"L0\"\t\"P0\"\n")

	f, err := Dir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, f.CFGEdge.Len())
	assert.Equal(t, 1, f.LoanIssuedAt.Len())
}

func TestSameTokenSameAtomWithinOneLoad(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "cfg_edge", "\"P0\"\t\"P1\"\n")
	writeFacts(t, dir, "loan_issued_at", "\"'a\"\t\"L0\"\t\"P0\"\n")
	writeFacts(t, dir, "origin_live_on_entry", "\"'a\"\t\"P1\"\n")

	l := NewLoader()
	f, err := l.Dir(dir)
	require.NoError(t, err)

	edge := f.CFGEdge.Slice()[0]
	issued := f.LoanIssuedAt.Slice()[0]
	live := f.OriginLiveOnEntry.Slice()[0]
	assert.Equal(t, edge.A, issued.C, "P0 from cfg_edge and loan_issued_at must intern to the same atom")
	assert.Equal(t, issued.A, live.A, "'a from loan_issued_at and origin_live_on_entry must intern to the same atom")
}

func TestMissingFilesYieldEmptyRelations(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "cfg_edge", "\"P0\"\t\"P1\"\n")

	f, err := Dir(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, f.LoanIssuedAt.Len())
	assert.Equal(t, 0, f.Child.Len())
}

func TestMalformedLineIsReportedButDoesNotAbortTheFile(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "cfg_edge", "\"P0\"\t\"P1\"\n"+"not-quoted\tfield\n"+"\"P1\"\t\"P2\"\n")

	f, err := Dir(dir)
	require.Error(t, err)
	assert.Equal(t, 2, f.CFGEdge.Len(), "the two well-formed lines still load despite the bad one")
}

func TestWrongArityIsReported(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "loan_issued_at", "\"'a\"\t\"L0\"\n")

	_, err := Dir(dir)
	assert.Error(t, err)
}

func TestUnknownRelationIsAWarningNotAFailure(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "cfg_edge", "\"P0\"\t\"P1\"\n")
	writeFacts(t, dir, "some_future_relation", "\"x\"\n")

	_, err := Dir(dir)
	require.Error(t, err, "an unknown relation file is still surfaced, just not fatal to the rest")
}
