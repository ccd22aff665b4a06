// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package eeg

// Epoch is an immutable window cut out of a Recording around an event. Its
// timestamps are relative to the event sample, which sits at exactly 0.
type Epoch struct {
	Container
	onset float64
}

// Onset returns the source timestamp of the event sample.
func (e *Epoch) Onset() float64 {
	return e.onset
}

// Index returns the position of the event sample within the epoch.
func (e *Epoch) Index() int {
	for i, ts := range e.timestamps {
		if ts == 0 {
			return i
		}
	}
	return -1
}

// Equal reports whether both epochs hold the same channels and samples.
func (e *Epoch) Equal(other *Epoch) bool {
	return e.onset == other.onset && e.Container.equal(&other.Container)
}
