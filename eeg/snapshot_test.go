// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package eeg_test

import (
	"path/filepath"
	"testing"

	"github.com/markus-ro/NeuroPack/eeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	r := sineRecording(t, "Ch1", "Ch2")
	_, err := r.MarkEvent("stim", 500)
	require.NoError(t, err)
	_, err = r.MarkEvent("rest", 600)
	require.NoError(t, err)

	b, err := r.MarshalBinary()
	require.NoError(t, err)

	var decoded eeg.Recording
	require.NoError(t, decoded.UnmarshalBinary(b))

	assert.True(t, r.Equal(&decoded))
	assert.Equal(t, r.Markers(), decoded.Markers())
	assert.Equal(t, []float64{500}, decoded.Marker("stim"))
	assert.Equal(t, []float64{600}, decoded.Marker("rest"))
}

func TestSaveSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recording.msgpack")

	r := sineRecording(t)
	_, err := r.MarkEvent("stim", 100)
	require.NoError(t, err)
	require.NoError(t, r.SaveSnapshot(path))

	loaded, err := eeg.LoadSnapshot(path)
	require.NoError(t, err)
	assert.True(t, r.Equal(loaded))
	assert.Equal(t, r.Snapshot(), loaded.Snapshot())

	_, err = eeg.LoadSnapshot(filepath.Join(t.TempDir(), "missing.msgpack"))
	require.Error(t, err)
}

func TestFromSnapshotValidation(t *testing.T) {
	tests := []struct {
		name string
		s    eeg.Snapshot
		err  error
	}{
		{
			name: "no channels",
			s:    eeg.Snapshot{SampleRate: 256},
			err:  eeg.ErrInvalidArgument,
		},
		{
			name: "missing signal",
			s: eeg.Snapshot{
				Channels:   []string{"A", "B"},
				SampleRate: 256,
				Timestamps: []float64{0},
				Signals:    [][]float64{{1}},
			},
			err: eeg.ErrChannelMismatch,
		},
		{
			name: "short signal",
			s: eeg.Snapshot{
				Channels:   []string{"A"},
				SampleRate: 256,
				Timestamps: []float64{0, 1},
				Signals:    [][]float64{{1}},
			},
			err: eeg.ErrChannelMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eeg.FromSnapshot(tt.s)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	r := sineRecording(t)

	s := r.Snapshot()
	s.Timestamps[0] = -1
	s.Signals[0][0] = -1

	assert.Equal(t, 0.0, r.Timestamps()[0])
	ch, err := r.Channel("Ch1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ch[0])
}

func TestUnmarshalBinaryGarbage(t *testing.T) {
	r := sineRecording(t)

	require.Error(t, r.UnmarshalBinary([]byte{0xc1, 0x00, 0x01}))
	assert.Equal(t, 250, r.Len())
}
