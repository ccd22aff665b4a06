// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package marker_test

import (
	"testing"

	"github.com/markus-ro/NeuroPack/marker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type occurrence struct {
	code int
	ts   float64
}

var occurrences = []occurrence{{1, 30}, {1, 0}, {2, 20}, {1, 10}}

func permutations(in []occurrence) [][]occurrence {
	if len(in) <= 1 {
		return [][]occurrence{append([]occurrence(nil), in...)}
	}
	var out [][]occurrence
	for i := range in {
		rest := make([]occurrence, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]occurrence{in[i]}, p...))
		}
	}
	return out
}

func TestVaultOrdering(t *testing.T) {
	for _, perm := range permutations(occurrences) {
		v := marker.NewVault[int]()
		for _, o := range perm {
			v.AddMarker(o.code, o.ts)
		}

		require.Equal(t, []float64{0, 10, 30}, v.Marker(1), "order %v", perm)
		require.Equal(t, []float64{20}, v.Marker(2), "order %v", perm)
		require.Equal(t, []marker.Entry[int]{
			{Timestamp: 0, Code: 1},
			{Timestamp: 10, Code: 1},
			{Timestamp: 20, Code: 2},
			{Timestamp: 30, Code: 1},
		}, v.Timeline(), "order %v", perm)
		require.Equal(t, 4, v.Len())
	}
}

func TestVaultReadsAreIdempotent(t *testing.T) {
	v := marker.NewVault[string]()
	v.AddMarker("test", 0)
	v.AddMarker("test", 3)
	v.AddMarker("error", 2)
	v.AddMarker("test", 1)

	for i := 0; i < 2; i++ {
		assert.Equal(t, []float64{0, 1, 3}, v.Marker("test"))
		assert.Equal(t, []float64{2}, v.Marker("error"))
		assert.Equal(t, []marker.Entry[string]{
			{0, "test"}, {1, "test"}, {2, "error"}, {3, "test"},
		}, v.Timeline())
	}

	// Returned slices are copies.
	ts := v.Marker("test")
	ts[0] = 99
	assert.Equal(t, []float64{0, 1, 3}, v.Marker("test"))
}

func TestVaultUnknownCode(t *testing.T) {
	v := marker.NewVault[int]()
	got := v.Marker(42)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, v.Timeline())
}

func TestVaultTimelineTieBreak(t *testing.T) {
	v := marker.NewVault[string]()
	v.AddMarker("b", 5)
	v.AddMarker("a", 5)
	v.AddMarker("c", 1)

	assert.Equal(t, []marker.Entry[string]{{1, "c"}, {5, "b"}, {5, "a"}}, v.Timeline())
	assert.Equal(t, []string{"b", "a", "c"}, v.Codes())
}

func TestVaultShift(t *testing.T) {
	v := marker.NewVault[int]()
	for _, o := range occurrences {
		v.AddMarker(o.code, o.ts)
	}

	v.Shift(1)
	assert.Equal(t, []float64{1, 11, 31}, v.Marker(1))
	assert.Equal(t, []float64{21}, v.Marker(2))
	assert.Equal(t, []marker.Entry[int]{{1, 1}, {11, 1}, {21, 2}, {31, 1}}, v.Timeline())

	v.Shift(-1)
	assert.Equal(t, []float64{0, 10, 30}, v.Marker(1))
	assert.Equal(t, []marker.Entry[int]{{0, 1}, {10, 1}, {20, 2}, {30, 1}}, v.Timeline())
}

func TestVaultEqual(t *testing.T) {
	a := marker.NewVault[int]()
	b := marker.NewVault[int]()
	for i, o := range occurrences {
		a.AddMarker(o.code, o.ts)
		r := occurrences[len(occurrences)-1-i]
		b.AddMarker(r.code, r.ts)
	}
	assert.True(t, a.Equal(b))

	c := a.Clone()
	assert.True(t, a.Equal(c))

	c.AddMarker(2, 40)
	assert.False(t, a.Equal(c))
	assert.Equal(t, 4, a.Len())

	d := marker.NewVault[int]()
	d.AddMarker(1, 0)
	d.AddMarker(1, 10)
	d.AddMarker(1, 30)
	d.AddMarker(3, 20)
	assert.False(t, a.Equal(d))
}
