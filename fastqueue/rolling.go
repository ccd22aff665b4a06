// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package fastqueue

// RollingMean keeps the mean of the last n values without rescanning them.
type RollingMean struct {
	q   *Queue
	sum float64
}

// NewRollingMean creates a running mean over a window of n values.
func NewRollingMean(n int) (*RollingMean, error) {
	q, err := New(n)
	if err != nil {
		return nil, err
	}
	return &RollingMean{q: q}, nil
}

// Add pushes v into the window and returns the updated mean.
func (m *RollingMean) Add(v float64) float64 {
	if evicted, ok := m.q.OverflowPush(v); ok {
		m.sum -= evicted
	}
	m.sum += v
	return m.Mean()
}

// Mean returns the mean of the values in the window, 0 if it is empty.
func (m *RollingMean) Mean() float64 {
	if m.q.Len() == 0 {
		return 0
	}
	return m.sum / float64(m.q.Len())
}

// Len returns the number of values in the window.
func (m *RollingMean) Len() int {
	return m.q.Len()
}

// Ready reports whether the window has been filled once.
func (m *RollingMean) Ready() bool {
	return m.q.Full()
}
