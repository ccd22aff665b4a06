// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package device

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Stopwatch answers whether a duration has passed since it was started.
// It starts itself on the first call to Running if Start was not called.
type Stopwatch struct {
	clock   clockz.Clock
	started bool
	start   time.Time
}

// NewStopwatch returns a stopped stopwatch reading time from clock.
func NewStopwatch(clock clockz.Clock) *Stopwatch {
	return &Stopwatch{clock: clock}
}

// Start (re)starts the stopwatch now.
func (s *Stopwatch) Start() {
	s.start = s.clock.Now()
	s.started = true
}

// Reset stops the stopwatch.
func (s *Stopwatch) Reset() {
	s.started = false
}

// Elapsed returns the time since Start, or 0 if stopped.
func (s *Stopwatch) Elapsed() time.Duration {
	if !s.started {
		return 0
	}
	return s.clock.Now().Sub(s.start)
}

// Running reports whether less than d has passed since the stopwatch
// started. Once d has passed the stopwatch resets, so the next call
// starts a new period.
func (s *Stopwatch) Running(d time.Duration) bool {
	if !s.started {
		s.Start()
	}

	if s.Elapsed() >= d {
		s.Reset()
		return false
	}
	return true
}
