// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package marker indexes typed marker occurrences by code and on a shared
// timeline.
package marker

import "sort"

// Entry is a single marker occurrence on the timeline.
type Entry[K comparable] struct {
	Timestamp float64
	Code      K
}

// Vault maps marker codes to the timestamps they occurred at. Timestamps are
// kept in ascending order per code and across the merged timeline, where
// equal timestamps stay in insertion order.
type Vault[K comparable] struct {
	byCode   map[K][]float64
	codes    []K // first-seen order
	timeline []Entry[K]
}

// NewVault creates an empty vault.
func NewVault[K comparable]() *Vault[K] {
	return &Vault[K]{byCode: make(map[K][]float64)}
}

// AddMarker records an occurrence of code at timestamp.
func (v *Vault[K]) AddMarker(code K, timestamp float64) {
	if v.byCode == nil {
		v.byCode = make(map[K][]float64)
	}

	ts, ok := v.byCode[code]
	if !ok {
		v.codes = append(v.codes, code)
	}
	v.byCode[code] = insertFloat(ts, timestamp)

	// Upper bound keeps equal timestamps in insertion order.
	i := sort.Search(len(v.timeline), func(i int) bool {
		return v.timeline[i].Timestamp > timestamp
	})
	v.timeline = append(v.timeline, Entry[K]{})
	copy(v.timeline[i+1:], v.timeline[i:])
	v.timeline[i] = Entry[K]{Timestamp: timestamp, Code: code}
}

// Marker returns the ascending timestamps recorded for code.
func (v *Vault[K]) Marker(code K) []float64 {
	return append([]float64{}, v.byCode[code]...)
}

// Timeline returns every occurrence across all codes in ascending order.
func (v *Vault[K]) Timeline() []Entry[K] {
	return append([]Entry[K]{}, v.timeline...)
}

// Codes returns the known codes in the order they were first added.
func (v *Vault[K]) Codes() []K {
	return append([]K{}, v.codes...)
}

// Shift adds delta to every stored timestamp.
func (v *Vault[K]) Shift(delta float64) {
	for _, ts := range v.byCode {
		for i := range ts {
			ts[i] += delta
		}
	}
	for i := range v.timeline {
		v.timeline[i].Timestamp += delta
	}
}

// Len returns the number of occurrences across all codes.
func (v *Vault[K]) Len() int {
	return len(v.timeline)
}

// Equal reports whether both vaults hold the same (code, timestamp) pairs.
func (v *Vault[K]) Equal(other *Vault[K]) bool {
	if v.Len() != other.Len() || len(v.byCode) != len(other.byCode) {
		return false
	}
	for code, ts := range v.byCode {
		ots, ok := other.byCode[code]
		if !ok || len(ts) != len(ots) {
			return false
		}
		for i := range ts {
			if ts[i] != ots[i] {
				return false
			}
		}
	}
	return true
}

// Clone returns an independent copy of the vault.
func (v *Vault[K]) Clone() *Vault[K] {
	c := &Vault[K]{
		byCode:   make(map[K][]float64, len(v.byCode)),
		codes:    append([]K(nil), v.codes...),
		timeline: append([]Entry[K](nil), v.timeline...),
	}
	for code, ts := range v.byCode {
		c.byCode[code] = append([]float64(nil), ts...)
	}
	return c
}

func insertFloat(s []float64, x float64) []float64 {
	i := sort.Search(len(s), func(i int) bool { return s[i] > x })
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = x
	return s
}
