// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package eeg stores multi-channel biosignal recordings and cuts
// event-aligned windows (epochs) out of them.
package eeg

import (
	"fmt"
	"slices"
)

// Container is a named, ordered set of channels sharing one sample rate and
// one timestamp axis. Every channel holds exactly one value per timestamp.
type Container struct {
	channels   []string
	sampleRate int
	timestamps []float64
	signals    [][]float64 // signals[c][i] is channel c at timestamps[i]
}

func newContainer(channels []string, sampleRate int) (Container, error) {
	if len(channels) == 0 {
		return Container{}, fmt.Errorf("%w: no channels", ErrInvalidArgument)
	}
	if sampleRate <= 0 {
		return Container{}, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidArgument, sampleRate)
	}

	seen := make(map[string]struct{}, len(channels))
	for _, name := range channels {
		if name == "" {
			return Container{}, fmt.Errorf("%w: empty channel name", ErrInvalidArgument)
		}
		if _, ok := seen[name]; ok {
			return Container{}, fmt.Errorf("%w: duplicate channel %q", ErrInvalidArgument, name)
		}
		seen[name] = struct{}{}
	}

	return Container{
		channels:   append([]string(nil), channels...),
		sampleRate: sampleRate,
		timestamps: []float64{},
		signals:    emptySignals(len(channels)),
	}, nil
}

func emptySignals(n int) [][]float64 {
	signals := make([][]float64, n)
	for i := range signals {
		signals[i] = []float64{}
	}
	return signals
}

// ChannelNames returns the channel axis.
func (c *Container) ChannelNames() []string {
	return append([]string(nil), c.channels...)
}

// SampleRate returns the sample rate in Hz.
func (c *Container) SampleRate() int {
	return c.sampleRate
}

// Len returns the number of samples per channel.
func (c *Container) Len() int {
	return len(c.timestamps)
}

// Timestamps returns a copy of the timestamp axis.
func (c *Container) Timestamps() []float64 {
	return append([]float64{}, c.timestamps...)
}

// Channel returns a copy of the values of the named channel.
func (c *Container) Channel(name string) ([]float64, error) {
	i, err := c.channelIndex(name)
	if err != nil {
		return nil, err
	}
	return append([]float64{}, c.signals[i]...), nil
}

// ChannelAt returns a copy of the values of the channel at index i.
func (c *Container) ChannelAt(i int) ([]float64, error) {
	if i < 0 || i >= len(c.channels) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(c.channels))
	}
	return append([]float64{}, c.signals[i]...), nil
}

// Signals returns a copy of every channel, in channel order.
func (c *Container) Signals() [][]float64 {
	out := make([][]float64, len(c.signals))
	for i, s := range c.signals {
		out[i] = append([]float64{}, s...)
	}
	return out
}

func (c *Container) channelIndex(name string) (int, error) {
	for i, ch := range c.channels {
		if ch == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrChannelNotFound, name)
}

// slice copies samples [lo, hi) into a new container with the same axis.
func (c *Container) slice(lo, hi int) Container {
	out := Container{
		channels:   append([]string(nil), c.channels...),
		sampleRate: c.sampleRate,
		timestamps: append([]float64{}, c.timestamps[lo:hi]...),
		signals:    make([][]float64, len(c.signals)),
	}
	for i, s := range c.signals {
		out.signals[i] = append([]float64{}, s[lo:hi]...)
	}
	return out
}

func (c *Container) equal(other *Container) bool {
	if c.sampleRate != other.sampleRate {
		return false
	}
	if !slices.Equal(c.channels, other.channels) {
		return false
	}
	if !slices.Equal(c.timestamps, other.timestamps) {
		return false
	}
	if len(c.signals) != len(other.signals) {
		return false
	}
	for i := range c.signals {
		if !slices.Equal(c.signals[i], other.signals[i]) {
			return false
		}
	}
	return true
}
