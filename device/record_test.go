// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package device_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/markus-ro/NeuroPack/device"
	"github.com/markus-ro/NeuroPack/eeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

type fakeClock interface {
	clockz.Clock
	Advance(time.Duration)
}

// stubDevice produces one sample per Fetch and advances the fake clock by
// one sample period.
type stubDevice struct {
	clock     fakeClock
	connected bool
	streaming bool
	stopped   int

	// wornAfter is the number of Worn calls answered false before the
	// device reports being worn.
	wornAfter int
	// offAfter takes the device off after this many fetched samples, if set.
	offAfter int
	fetched  int
	wornCall int

	noData   bool
	fetchErr error
	stopErr  error
}

func (d *stubDevice) ChannelNames() []string { return []string{"TP9", "AF7"} }
func (d *stubDevice) SampleRate() int        { return 250 }
func (d *stubDevice) Connected() bool        { return d.connected }

func (d *stubDevice) StartStream() error {
	d.streaming = true
	return nil
}

func (d *stubDevice) StopStream() error {
	d.streaming = false
	d.stopped++
	return d.stopErr
}

func (d *stubDevice) Worn() bool {
	d.wornCall++
	if d.wornCall <= d.wornAfter {
		return false
	}
	return d.offAfter == 0 || d.fetched < d.offAfter
}

func (d *stubDevice) HasData() bool { return d.streaming && !d.noData }

func (d *stubDevice) Fetch() (eeg.Sample, error) {
	if d.fetchErr != nil {
		return eeg.Sample{}, d.fetchErr
	}

	s := eeg.Sample{
		Timestamp: float64(d.fetched) * 0.004,
		Values:    []float64{float64(d.fetched), -float64(d.fetched)},
	}
	d.fetched++
	d.clock.Advance(4 * time.Millisecond)
	return s, nil
}

func newStub() *stubDevice {
	return &stubDevice{clock: clockz.NewFakeClock(), connected: true}
}

func TestRecordDuration(t *testing.T) {
	dev := newStub()

	rec, err := device.Record(context.Background(), dev, time.Second, device.WithClock(dev.clock))
	require.NoError(t, err)

	assert.Equal(t, []string{"TP9", "AF7"}, rec.ChannelNames())
	assert.Equal(t, 250, rec.SampleRate())
	assert.Equal(t, 250, rec.Len())

	af7, err := rec.Channel("AF7")
	require.NoError(t, err)
	assert.Equal(t, -249.0, af7[249])

	assert.Equal(t, 1, dev.stopped)
	assert.False(t, dev.streaming)
}

func TestRecordStopsWhenTakenOff(t *testing.T) {
	dev := newStub()
	dev.offAfter = 10

	rec, err := device.Record(context.Background(), dev, time.Second, device.WithClock(dev.clock))
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Len())
	assert.Equal(t, 1, dev.stopped)
}

func TestRecordIgnoresWornWhenNotChecking(t *testing.T) {
	dev := newStub()
	dev.offAfter = 10

	rec, err := device.Record(context.Background(), dev, 100*time.Millisecond,
		device.WithClock(dev.clock),
		device.WithCheckWorn(false),
	)
	require.NoError(t, err)
	assert.Equal(t, 25, rec.Len())
}

func TestRecordWaitsForWear(t *testing.T) {
	dev := newStub()
	dev.wornAfter = 5

	rec, err := device.Record(context.Background(), dev, 40*time.Millisecond,
		device.WithClock(dev.clock),
		device.WithPollInterval(0),
	)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Len())
	assert.Greater(t, dev.wornCall, 5)
}

func TestRecordNotConnected(t *testing.T) {
	dev := newStub()
	dev.connected = false

	_, err := device.Record(context.Background(), dev, time.Second, device.WithClock(dev.clock))
	require.ErrorIs(t, err, device.ErrNotConnected)
	assert.Zero(t, dev.stopped)
}

func TestRecordInvalidDuration(t *testing.T) {
	dev := newStub()

	_, err := device.Record(context.Background(), dev, 0, device.WithClock(dev.clock))
	require.ErrorIs(t, err, eeg.ErrInvalidArgument)
}

func TestRecordCancelled(t *testing.T) {
	dev := newStub()
	dev.noData = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := device.Record(ctx, dev, time.Second, device.WithClock(dev.clock))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rec)
	assert.Zero(t, rec.Len())
	assert.Equal(t, 1, dev.stopped)
}

func TestRecordFetchError(t *testing.T) {
	dev := newStub()
	dev.fetchErr = errors.New("boom")
	dev.stopErr = errors.New("stuck")

	_, err := device.Record(context.Background(), dev, time.Second, device.WithClock(dev.clock))
	require.ErrorIs(t, err, dev.fetchErr)
	require.ErrorIs(t, err, dev.stopErr)
	assert.Equal(t, 1, dev.stopped)
}

func TestStopwatch(t *testing.T) {
	clock := clockz.NewFakeClock()
	sw := device.NewStopwatch(clock)

	assert.Zero(t, sw.Elapsed())
	assert.True(t, sw.Running(time.Second))

	clock.Advance(600 * time.Millisecond)
	assert.True(t, sw.Running(time.Second))
	assert.Equal(t, 600*time.Millisecond, sw.Elapsed())

	clock.Advance(400 * time.Millisecond)
	assert.False(t, sw.Running(time.Second))

	// The next call starts a new period.
	assert.True(t, sw.Running(time.Second))
	assert.Zero(t, sw.Elapsed())
}
