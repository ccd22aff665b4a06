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
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/markus-ro/NeuroPack/edf"
	"github.com/markus-ro/NeuroPack/eeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const edfSamples = 32

func edfSignal(label string, pmin, pmax float64) edf.Signal {
	return edf.Signal{
		Label:             label,
		PhysicalDimension: "uV",
		PhysicalMin:       pmin,
		PhysicalMax:       pmax,
		DigitalMin:        -32768,
		DigitalMax:        32767,
		SamplesPerRecord:  edfSamples,
	}
}

// writeEDF writes one second of SIN, COS, TIME, SEC, MS and STIM at 32 Hz.
func writeEDF(t *testing.T) string {
	t.Helper()

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          "X X X Test",
		RecordingID:        "Startdate 01-JAN-2024",
		StartTime:          time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		DataRecordDuration: time.Second,
		Signals: []edf.Signal{
			edfSignal("SIN", -1, 1),
			edfSignal("COS", -1, 1),
			edfSignal("TIME", 0, 4),
			edfSignal("SEC", 0, 10),
			edfSignal("MS", 0, 1000),
			edfSignal("STIM", 0, 1),
		},
	}

	signals := make([][]float64, len(hdr.Signals))
	for i := range signals {
		signals[i] = make([]float64, edfSamples)
	}
	for i := 0; i < edfSamples; i++ {
		x := math.Pi / 16 * float64(i)
		signals[0][i] = math.Sin(x)
		signals[1][i] = math.Cos(x)
		signals[2][i] = float64(i) / edfSamples * 2
		signals[3][i] = float64(i / 8)
		signals[4][i] = float64(i%8) * 100
	}
	signals[5][10] = 1

	path := filepath.Join(t.TempDir(), "test.edf")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, edf.WriteSignals(f, hdr, signals))
	return path
}

func TestLoadEDFTimeChannel(t *testing.T) {
	path := writeEDF(t)

	r, err := eeg.NewRecording([]string{"SIN", "COS"}, edfSamples)
	require.NoError(t, err)
	require.NoError(t, r.LoadEDF(path, eeg.TimeChannel("TIME"), ""))

	require.Equal(t, edfSamples, r.Len())
	sin, err := r.Channel("SIN")
	require.NoError(t, err)
	cos, err := r.Channel("COS")
	require.NoError(t, err)

	ts := r.Timestamps()
	for i := 0; i < edfSamples; i++ {
		x := math.Pi / 16 * float64(i)
		assert.InDelta(t, math.Sin(x), sin[i], 0.01)
		assert.InDelta(t, math.Cos(x), cos[i], 0.01)
		assert.InDelta(t, float64(i)/edfSamples*2, ts[i], 0.01)
	}
	assert.Empty(t, r.Events())
}

func TestLoadEDFSplitTime(t *testing.T) {
	r, err := eeg.FromEDF(writeEDF(t), edfSamples, []string{"SIN"}, eeg.TimeChannels("SEC", "MS"), "")
	require.NoError(t, err)

	ts := r.Timestamps()
	require.Len(t, ts, edfSamples)
	for i, v := range ts {
		assert.InDelta(t, float64(i/8)+float64(i%8)/10, v, 0.01)
	}
}

func TestLoadEDFSyntheticTime(t *testing.T) {
	r, err := eeg.FromEDF(writeEDF(t), edfSamples, []string{"COS"}, eeg.SyntheticTime(), "")
	require.NoError(t, err)

	ts := r.Timestamps()
	require.Len(t, ts, edfSamples)
	for i, v := range ts {
		assert.Equal(t, float64(i)/edfSamples, v)
	}
}

func TestLoadEDFEventChannel(t *testing.T) {
	path := writeEDF(t)

	r, err := eeg.FromEDF(path, edfSamples, []string{"SIN"}, eeg.SyntheticTime(), "STIM")
	require.NoError(t, err)
	assert.Equal(t, edfSamples, r.Len())
	assert.Empty(t, r.Events())

	_, err = eeg.FromEDF(path, edfSamples, []string{"SIN"}, eeg.SyntheticTime(), "TRIGGER")
	require.ErrorIs(t, err, eeg.ErrChannelNotFound)
}

func TestLoadEDFMissingChannel(t *testing.T) {
	path := writeEDF(t)

	r := sineRecording(t)
	err := r.LoadEDF(path, eeg.SyntheticTime(), "")
	require.ErrorIs(t, err, eeg.ErrChannelNotFound)

	// The failed load leaves the recording untouched.
	assert.Equal(t, 250, r.Len())

	_, err = eeg.FromEDF(path, edfSamples, []string{"SIN"}, eeg.TimeChannel("CLOCK"), "")
	require.ErrorIs(t, err, eeg.ErrChannelNotFound)
}

func TestEDFSource(t *testing.T) {
	f, err := os.Open(writeEDF(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	src, err := eeg.NewEDFSource(f)
	require.NoError(t, err)

	hdr := src.Header()
	assert.Equal(t, 6, hdr.SignalCount)
	assert.Equal(t, 1, hdr.DataRecords)

	channels, err := src.Read([]string{"COS", "SIN"})
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "COS", channels[0].Label)
	assert.Equal(t, "SIN", channels[1].Label)
	assert.Equal(t, float64(edfSamples), channels[0].SampleRate)
	assert.Len(t, channels[0].Samples, edfSamples)
	assert.InDelta(t, 1.0, channels[0].Samples[0], 0.01)
}

func TestLoadMultichannelLengthMismatch(t *testing.T) {
	src := &eeg.MemorySource{
		SampleRate: 4,
		Channels: map[string][]float64{
			"A":    {1, 2, 3, 4},
			"B":    {1, 2, 3},
			"TIME": {0, 1, 2, 3},
		},
	}

	r, err := eeg.NewRecording([]string{"A", "B"}, 4)
	require.NoError(t, err)
	require.ErrorIs(t, r.LoadMultichannel(src, eeg.SyntheticTime(), ""), eeg.ErrChannelMismatch)

	r, err = eeg.NewRecording([]string{"A"}, 4)
	require.NoError(t, err)
	require.NoError(t, r.LoadMultichannel(src, eeg.TimeChannel("TIME"), ""))
	assert.Equal(t, []float64{0, 1, 2, 3}, r.Timestamps())
}

func TestTimeSpecString(t *testing.T) {
	assert.Equal(t, "synthetic", eeg.SyntheticTime().String())
	assert.Equal(t, "TIME", eeg.TimeChannel("TIME").String())
	assert.Equal(t, "SEC+MS/1000", eeg.TimeChannels("SEC", "MS").String())
}
