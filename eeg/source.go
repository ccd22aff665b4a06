// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package eeg

import "fmt"

// SourceChannel is one channel as delivered by a Source.
type SourceChannel struct {
	Label      string
	SampleRate float64
	Samples    []float64
}

// Source delivers complete channels by name. Implementations return the
// channels in request order and fail with ErrChannelNotFound for unknown
// names.
type Source interface {
	Read(channels []string) ([]SourceChannel, error)
}

// MemorySource serves channels that are already decoded.
type MemorySource struct {
	SampleRate float64
	Channels   map[string][]float64
}

// Read implements Source.
func (m *MemorySource) Read(channels []string) ([]SourceChannel, error) {
	out := make([]SourceChannel, len(channels))
	for i, name := range channels {
		samples, ok := m.Channels[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrChannelNotFound, name)
		}
		out[i] = SourceChannel{
			Label:      name,
			SampleRate: m.SampleRate,
			Samples:    append([]float64{}, samples...),
		}
	}
	return out, nil
}

// TimeSpec selects where imported timestamps come from.
type TimeSpec struct {
	seconds string
	millis  string
}

// SyntheticTime derives timestamps from the sample index as i / sample rate.
func SyntheticTime() TimeSpec {
	return TimeSpec{}
}

// TimeChannel takes timestamps directly from the named channel.
func TimeChannel(name string) TimeSpec {
	return TimeSpec{seconds: name}
}

// TimeChannels combines a whole-seconds channel and a milliseconds channel
// into seconds + milliseconds/1000.
func TimeChannels(seconds, millis string) TimeSpec {
	return TimeSpec{seconds: seconds, millis: millis}
}

func (t TimeSpec) channels() []string {
	switch {
	case t.seconds == "":
		return nil
	case t.millis == "":
		return []string{t.seconds}
	default:
		return []string{t.seconds, t.millis}
	}
}

// String describes the time source.
func (t TimeSpec) String() string {
	switch {
	case t.seconds == "":
		return "synthetic"
	case t.millis == "":
		return t.seconds
	default:
		return t.seconds + "+" + t.millis + "/1000"
	}
}

// LoadMultichannel replaces the recording's contents with the configured
// channels read from src. If eventChannel is set it must exist in src;
// its contents are not turned into events.
func (r *Recording) LoadMultichannel(src Source, t TimeSpec, eventChannel string) error {
	request := append([]string(nil), r.channels...)
	request = append(request, t.channels()...)
	if eventChannel != "" {
		request = append(request, eventChannel)
	}

	channels, err := src.Read(request)
	if err != nil {
		return fmt.Errorf("error reading channels: %w", err)
	}
	if len(channels) != len(request) {
		return fmt.Errorf("%w: requested %d channels, source returned %d", ErrChannelMismatch, len(request), len(channels))
	}

	n := len(channels[0].Samples)
	for i, ch := range channels {
		if len(ch.Samples) != n {
			return fmt.Errorf("%w: channel %q holds %d samples, expected %d", ErrChannelMismatch, request[i], len(ch.Samples), n)
		}
	}

	timestamps := make([]float64, n)
	switch tc := t.channels(); len(tc) {
	case 0:
		for i := range timestamps {
			timestamps[i] = float64(i) / float64(r.sampleRate)
		}
	case 1:
		copy(timestamps, channels[len(r.channels)].Samples)
	case 2:
		seconds := channels[len(r.channels)].Samples
		millis := channels[len(r.channels)+1].Samples
		for i := range timestamps {
			timestamps[i] = seconds[i] + millis[i]/1000
		}
	}

	r.reset()
	r.timestamps = timestamps
	for i := range r.channels {
		r.signals[i] = append([]float64{}, channels[i].Samples...)
	}
	return nil
}
