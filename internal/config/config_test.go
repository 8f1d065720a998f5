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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borrowck/polonius/loans"
)

func TestParseDefaultsToHybrid(t *testing.T) {
	cfg, err := Parse([]string{"nll-facts"})
	require.NoError(t, err)
	assert.Equal(t, loans.Hybrid, cfg.Variant)
	assert.False(t, cfg.Compare)
	assert.Equal(t, []string{"nll-facts"}, cfg.Dirs)
}

func TestParseExplicitVariant(t *testing.T) {
	cfg, err := Parse([]string{"-a", "Naive", "nll-facts"})
	require.NoError(t, err)
	assert.Equal(t, loans.Naive, cfg.Variant)
}

func TestParseCompareIsCLIOnlyMode(t *testing.T) {
	cfg, err := Parse([]string{"-a", "Compare", "nll-facts"})
	require.NoError(t, err)
	assert.True(t, cfg.Compare)
	assert.Equal(t, Compare, cfg.Variant)
}

func TestParseRejectsUnknownVariant(t *testing.T) {
	_, err := Parse([]string{"-a", "Bogus", "nll-facts"})
	assert.Error(t, err)
}

func TestParseRequiresAtLeastOneDir(t *testing.T) {
	_, err := Parse(nil)
	assert.Error(t, err)
}

func TestParseDedupesRepeatedDirs(t *testing.T) {
	cfg, err := Parse([]string{"a", "b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Dirs)
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse([]string{"-show-tuples", "-v", "-graphviz_file", "out.dot", "nll-facts"})
	require.NoError(t, err)
	assert.True(t, cfg.ShowTuples)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "out.dot", cfg.GraphvizFile)
}
