// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/nuaa/pkg/ml/datasets/nuaa"
)

func TestParseClasses(t *testing.T) {
	assert.Equal(t, []int{0}, must.M1(parseClasses("0")))
	assert.Equal(t, []int{0, 3, 7}, must.M1(parseClasses(" 0, 3,7 ")))
	assert.Equal(t, nuaa.AllClasses(), must.M1(parseClasses("ALL")))
	assert.Empty(t, must.M1(parseClasses("")))
	_, err := parseClasses("1,x")
	require.Error(t, err)
}

func TestSummaryTable(t *testing.T) {
	table := newPlainTable("name", "value")
	table.Row("# total", "16")
	rendered := table.Render()
	assert.True(t, strings.Contains(rendered, "# total"))
	assert.True(t, strings.Contains(rendered, "16"))
}
