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
	"strings"
)

// AverageChannels returns a recording with a single channel holding the
// mean of the named channels, or of all channels if none are named. The new
// channel is named by concatenating the averaged channel names.
func (r *Recording) AverageChannels(names ...string) (*Recording, error) {
	if len(names) == 0 {
		names = r.channels
	}
	return r.AverageChannelGroups(names)
}

// AverageChannelGroups returns a recording with one channel per group, each
// holding the mean of the group's channels. Passing no groups averages all
// channels into one.
//
// Timestamps, events and markers are copied into the new recording.
func (r *Recording) AverageChannelGroups(groups ...[]string) (*Recording, error) {
	if len(groups) == 0 {
		return r.AverageChannels()
	}

	names := make([]string, len(groups))
	signals := make([][]float64, len(groups))
	for g, group := range groups {
		avg, err := r.average(group)
		if err != nil {
			return nil, err
		}
		names[g] = strings.Join(group, "")
		signals[g] = avg
	}

	out, err := NewRecording(names, r.sampleRate)
	if err != nil {
		return nil, err
	}
	out.timestamps = append([]float64{}, r.timestamps...)
	out.signals = signals
	out.events = append([]float64{}, r.events...)
	out.markers = r.markers.Clone()
	return out, nil
}

func (r *Recording) average(group []string) ([]float64, error) {
	if len(group) == 0 {
		return nil, fmt.Errorf("%w: empty channel group", ErrInvalidArgument)
	}

	seen := make(map[string]struct{}, len(group))
	members := make([][]float64, 0, len(group))
	for _, name := range group {
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: channel %q repeated in group", ErrInvalidArgument, name)
		}
		seen[name] = struct{}{}

		i, err := r.channelIndex(name)
		if err != nil {
			return nil, err
		}
		if len(r.signals[i]) != len(r.timestamps) {
			return nil, fmt.Errorf("%w: channel %q holds %d values for %d timestamps", ErrChannelMismatch, name, len(r.signals[i]), len(r.timestamps))
		}
		members = append(members, r.signals[i])
	}

	sum := append([]float64{}, members[0]...)
	for _, m := range members[1:] {
		for i, v := range m {
			sum[i] += v
		}
	}

	n := float64(len(members))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}
