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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/markus-ro/NeuroPack/eeg"
	"github.com/zoobzio/clockz"
)

const defaultPollInterval = time.Millisecond

type options struct {
	clock        clockz.Clock
	logger       *slog.Logger
	pollInterval time.Duration
	startOnWear  bool
	checkWorn    bool
}

// Option configures Record.
type Option func(*options)

// WithClock sets the clock used to measure the recording duration.
func WithClock(clock clockz.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithLogger sets the logger for progress messages. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPollInterval sets how long to sleep while the device has no data or
// is not yet worn. Zero polls without sleeping.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithStartOnWear controls whether recording waits until the device is
// worn. Enabled by default.
func WithStartOnWear(enabled bool) Option {
	return func(o *options) {
		o.startOnWear = enabled
	}
}

// WithCheckWorn controls whether recording stops early once the device is
// taken off. Enabled by default.
func WithCheckWorn(enabled bool) Option {
	return func(o *options) {
		o.checkWorn = enabled
	}
}

// Record streams samples from dev into a new recording for the given
// duration. Recording ends early when the device is taken off, with the
// samples gathered so far. If ctx is done the partial recording is returned
// together with the context's error. The stream is always stopped before
// Record returns.
func Record(ctx context.Context, dev Device, duration time.Duration, opts ...Option) (rec *eeg.Recording, err error) {
	o := options{
		clock:        clockz.RealClock,
		logger:       slog.New(slog.DiscardHandler),
		pollInterval: defaultPollInterval,
		startOnWear:  true,
		checkWorn:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if !dev.Connected() {
		return nil, ErrNotConnected
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %s", eeg.ErrInvalidArgument, duration)
	}

	rec, err = eeg.NewRecording(dev.ChannelNames(), dev.SampleRate())
	if err != nil {
		return nil, err
	}

	o.logger.Info("Starting stream")
	if err := dev.StartStream(); err != nil {
		return nil, fmt.Errorf("error starting stream: %w", err)
	}
	defer func() {
		o.logger.Info("Stopping stream", slog.Int("samples", rec.Len()))
		if stopErr := dev.StopStream(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("error stopping stream: %w", stopErr))
		}
	}()

	if o.startOnWear {
		o.logger.Info("Waiting for device to be worn")
		for !dev.Worn() {
			if err := o.wait(ctx); err != nil {
				return rec, err
			}
		}
	}

	o.logger.Info("Starting recording", slog.Duration("duration", duration))
	sw := NewStopwatch(o.clock)
	sw.Start()
	for sw.Running(duration) {
		if err := ctx.Err(); err != nil {
			return rec, err
		}

		if o.checkWorn && !dev.Worn() {
			o.logger.Warn("Device is not worn anymore, stopping recording",
				slog.Duration("elapsed", sw.Elapsed()))
			break
		}

		if !dev.HasData() {
			if err := o.wait(ctx); err != nil {
				return rec, err
			}
			continue
		}

		s, err := dev.Fetch()
		if err != nil {
			return rec, fmt.Errorf("error fetching sample: %w", err)
		}
		if err := rec.AddData(s); err != nil {
			return rec, err
		}
	}

	return rec, nil
}

// wait sleeps for one poll interval or until ctx is done.
func (o *options) wait(ctx context.Context) error {
	if o.pollInterval <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-o.clock.After(o.pollInterval):
		return nil
	}
}
