// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package eeg

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/markus-ro/NeuroPack/marker"
)

// Sample is one acquired data point: a timestamp and one value per channel,
// in channel order.
type Sample struct {
	Timestamp float64
	Values    []float64
}

// Recording is a mutable multi-channel recording. It owns its samples, the
// set of event timestamps and a vault of typed markers.
//
// A Recording is not safe for concurrent use. Epochs and averaged recordings
// derived from it are independent copies.
type Recording struct {
	Container
	events  []float64 // ascending, no duplicates
	markers *marker.Vault[string]
}

// NewRecording creates an empty recording for the given channels.
func NewRecording(channels []string, sampleRate int) (*Recording, error) {
	c, err := newContainer(channels, sampleRate)
	if err != nil {
		return nil, err
	}

	return &Recording{
		Container: c,
		events:    []float64{},
		markers:   marker.NewVault[string](),
	}, nil
}

// AddData appends one sample to every channel.
func (r *Recording) AddData(s Sample) error {
	if len(s.Values) != len(r.channels) {
		return fmt.Errorf("%w: got %d values for %d channels", ErrChannelMismatch, len(s.Values), len(r.channels))
	}

	r.timestamps = append(r.timestamps, s.Timestamp)
	for i, v := range s.Values {
		r.signals[i] = append(r.signals[i], v)
	}
	return nil
}

// Events returns the registered event timestamps in ascending order.
func (r *Recording) Events() []float64 {
	return append([]float64{}, r.events...)
}

// Marker returns the timestamps recorded for code in ascending order.
func (r *Recording) Marker(code string) []float64 {
	return r.markers.Marker(code)
}

// Markers returns every marker occurrence in chronological order.
func (r *Recording) Markers() []marker.Entry[string] {
	return r.markers.Timeline()
}

// MarkEvent records a marker with the given code at the sample closest to
// timestamp and returns that sample's timestamp.
func (r *Recording) MarkEvent(code string, timestamp float64) (float64, error) {
	idx, err := r.closest(timestamp)
	if err != nil {
		return 0, err
	}

	resolved := r.timestamps[idx]
	r.registerEvent(resolved)
	r.markers.AddMarker(code, resolved)
	return resolved, nil
}

// AddEvent registers the sample closest to eventTime as an event and returns
// the window from beforeMs before it to afterMs after it. Windows near either
// end of the recording are clipped rather than rejected.
func (r *Recording) AddEvent(eventTime float64, beforeMs, afterMs int) (*Epoch, error) {
	if beforeMs < 0 || afterMs < 0 {
		return nil, fmt.Errorf("%w: negative window (%d ms, %d ms)", ErrInvalidArgument, beforeMs, afterMs)
	}

	idx, err := r.closest(eventTime)
	if err != nil {
		return nil, err
	}

	r.registerEvent(r.timestamps[idx])
	return r.window(idx, beforeMs, afterMs), nil
}

// GetEvents returns one epoch per occurrence of the marker code, in
// chronological order.
func (r *Recording) GetEvents(code string, beforeMs, afterMs int) ([]*Epoch, error) {
	return r.epochs(r.markers.Marker(code), beforeMs, afterMs)
}

// EventWindows returns one epoch per registered event, regardless of marker
// code, in chronological order.
func (r *Recording) EventWindows(beforeMs, afterMs int) ([]*Epoch, error) {
	return r.epochs(r.Events(), beforeMs, afterMs)
}

func (r *Recording) epochs(at []float64, beforeMs, afterMs int) ([]*Epoch, error) {
	epochs := make([]*Epoch, 0, len(at))
	for _, ts := range at {
		e, err := r.AddEvent(ts, beforeMs, afterMs)
		if err != nil {
			return nil, err
		}
		epochs = append(epochs, e)
	}
	return epochs, nil
}

// ShiftTimestamps moves the recording so that it starts at 0. Events and
// markers move with it.
func (r *Recording) ShiftTimestamps() {
	if len(r.timestamps) == 0 {
		return
	}

	first := r.timestamps[0]
	for i := range r.timestamps {
		r.timestamps[i] -= first
	}
	for i := range r.events {
		r.events[i] -= first
	}
	r.markers.Shift(-first)
}

// Equal reports whether both recordings hold the same channels, sample
// rate, timestamps, events and signal values. Markers are not compared.
func (r *Recording) Equal(other *Recording) bool {
	return slices.Equal(r.events, other.events) && r.Container.equal(&other.Container)
}

// reset drops all samples, events and markers.
func (r *Recording) reset() {
	r.timestamps = []float64{}
	r.signals = emptySignals(len(r.channels))
	r.events = []float64{}
	r.markers = marker.NewVault[string]()
}

// closest returns the index of the sample with the minimum absolute distance
// to timestamp. Ties go to the earliest sample.
func (r *Recording) closest(timestamp float64) (int, error) {
	if len(r.timestamps) == 0 {
		return 0, fmt.Errorf("%w: recording has no samples", ErrInvalidArgument)
	}

	best, bestDist := 0, math.Abs(r.timestamps[0]-timestamp)
	for i := 1; i < len(r.timestamps); i++ {
		if d := math.Abs(r.timestamps[i] - timestamp); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

func (r *Recording) registerEvent(ts float64) {
	i := sort.SearchFloat64s(r.events, ts)
	if i < len(r.events) && r.events[i] == ts {
		return
	}
	r.events = slices.Insert(r.events, i, ts)
}

func (r *Recording) window(idx, beforeMs, afterMs int) *Epoch {
	before := beforeMs * r.sampleRate / 1000
	after := afterMs*r.sampleRate/1000 + 1

	lo := max(idx-before, 0)
	hi := min(idx+after, len(r.timestamps))

	onset := r.timestamps[idx]
	c := r.slice(lo, hi)
	for i := range c.timestamps {
		c.timestamps[i] -= onset
	}

	return &Epoch{Container: c, onset: onset}
}
