// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package device records live data from EEG headsets into recordings.
package device

import (
	"errors"

	"github.com/markus-ro/NeuroPack/eeg"
)

var (
	// ErrNotConnected is returned when recording from a device that is not connected.
	ErrNotConnected = errors.New("device not connected")
	// ErrNoData is returned by Fetch when no sample is buffered.
	ErrNoData = errors.New("no data available")
)

// Device is a streaming EEG headset.
type Device interface {
	// ChannelNames returns the channels in the order Fetch reports values.
	ChannelNames() []string
	// SampleRate returns the nominal sample rate in Hz.
	SampleRate() int
	Connected() bool
	StartStream() error
	StopStream() error
	// Worn reports whether the headset currently sits on a head.
	Worn() bool
	HasData() bool
	// Fetch returns the oldest buffered sample.
	Fetch() (eeg.Sample, error)
}
