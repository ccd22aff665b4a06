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
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is the complete, serialisable state of a Recording.
type Snapshot struct {
	Channels   []string         `msgpack:"channels"`
	SampleRate int              `msgpack:"sample_rate"`
	Timestamps []float64        `msgpack:"timestamps"`
	Signals    [][]float64      `msgpack:"signals"`
	Events     []float64        `msgpack:"events"`
	Markers    []SnapshotMarker `msgpack:"markers"`
}

// SnapshotMarker is one marker occurrence, stored in timeline order.
type SnapshotMarker struct {
	Timestamp float64 `msgpack:"ts"`
	Code      string  `msgpack:"code"`
}

// Snapshot returns a deep copy of the recording's state.
func (r *Recording) Snapshot() Snapshot {
	timeline := r.markers.Timeline()
	markers := make([]SnapshotMarker, len(timeline))
	for i, e := range timeline {
		markers[i] = SnapshotMarker{Timestamp: e.Timestamp, Code: e.Code}
	}

	return Snapshot{
		Channels:   r.ChannelNames(),
		SampleRate: r.sampleRate,
		Timestamps: r.Timestamps(),
		Signals:    r.Signals(),
		Events:     r.Events(),
		Markers:    markers,
	}
}

// FromSnapshot rebuilds a recording, checking every length invariant.
func FromSnapshot(s Snapshot) (*Recording, error) {
	r, err := NewRecording(s.Channels, s.SampleRate)
	if err != nil {
		return nil, err
	}

	if len(s.Signals) != len(s.Channels) {
		return nil, fmt.Errorf("%w: %d signals for %d channels", ErrChannelMismatch, len(s.Signals), len(s.Channels))
	}
	for i, sig := range s.Signals {
		if len(sig) != len(s.Timestamps) {
			return nil, fmt.Errorf("%w: channel %q holds %d values for %d timestamps", ErrChannelMismatch, s.Channels[i], len(sig), len(s.Timestamps))
		}
		r.signals[i] = append([]float64{}, sig...)
	}
	r.timestamps = append([]float64{}, s.Timestamps...)

	for _, ts := range s.Events {
		r.registerEvent(ts)
	}
	for _, m := range s.Markers {
		r.markers.AddMarker(m.Code, m.Timestamp)
	}
	return r, nil
}

// MarshalBinary encodes the recording as msgpack.
func (r *Recording) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(r.Snapshot())
}

// UnmarshalBinary replaces the recording with one encoded by MarshalBinary.
func (r *Recording) UnmarshalBinary(data []byte) error {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("error decoding snapshot: %w", err)
	}

	decoded, err := FromSnapshot(s)
	if err != nil {
		return err
	}
	*r = *decoded
	return nil
}

// SaveSnapshot writes the recording to path in its binary form.
func (r *Recording) SaveSnapshot(path string) error {
	b, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// LoadSnapshot reads a recording written by SaveSnapshot.
func LoadSnapshot(path string) (*Recording, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := &Recording{}
	if err := r.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}
	return r, nil
}
