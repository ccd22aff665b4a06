// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config loads recording profiles: the channel layout of a headset
// together with import and windowing defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/markus-ro/NeuroPack/eeg"
	"github.com/markus-ro/NeuroPack/fastqueue"
	"gopkg.in/yaml.v3"
)

// Version is the only supported profile version.
const Version = 1

const (
	defaultBeforeMs = 50
	defaultAfterMs  = 100
)

// Profile describes one recording setup.
type Profile struct {
	Version      int      `yaml:"version"`
	SampleRate   int      `yaml:"sample_rate"`
	Channels     []string `yaml:"channels"`
	EventMarker  string   `yaml:"event_marker"`
	EventChannel string   `yaml:"event_channel"`
	Time         struct {
		Channel string `yaml:"channel"`
		Seconds string `yaml:"seconds"`
		Millis  string `yaml:"millis"`
	} `yaml:"time"`
	Window struct {
		BeforeMs *int `yaml:"before_ms"`
		AfterMs  *int `yaml:"after_ms"`
	} `yaml:"window"`
	Queue struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"queue"`
}

// Load reads and validates the profile at path.
func Load(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a YAML profile, filling in defaults.
func Parse(b []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, err
	}

	if p.EventMarker == "" {
		p.EventMarker = eeg.DefaultEventMarker
	}
	if p.Window.BeforeMs == nil {
		p.Window.BeforeMs = intPtr(defaultBeforeMs)
	}
	if p.Window.AfterMs == nil {
		p.Window.AfterMs = intPtr(defaultAfterMs)
	}
	if p.Queue.Capacity == 0 {
		p.Queue.Capacity = p.SampleRate
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the profile for settings no recording could use.
func (p *Profile) Validate() error {
	if p.Version != Version {
		return fmt.Errorf("%w: unsupported profile version: %d", eeg.ErrInvalidArgument, p.Version)
	}
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", eeg.ErrInvalidArgument, p.SampleRate)
	}
	if len(p.Channels) == 0 {
		return fmt.Errorf("%w: no channels configured", eeg.ErrInvalidArgument)
	}
	if p.EventMarker == eeg.NonEventMarker {
		return fmt.Errorf("%w: event marker %q is reserved for non-events", eeg.ErrInvalidArgument, p.EventMarker)
	}
	if p.Time.Channel != "" && (p.Time.Seconds != "" || p.Time.Millis != "") {
		return fmt.Errorf("%w: time.channel cannot be combined with time.seconds/time.millis", eeg.ErrInvalidArgument)
	}
	if (p.Time.Seconds == "") != (p.Time.Millis == "") {
		return fmt.Errorf("%w: time.seconds and time.millis must be set together", eeg.ErrInvalidArgument)
	}
	if p.BeforeMs() < 0 || p.AfterMs() < 0 {
		return fmt.Errorf("%w: negative window (%d ms, %d ms)", eeg.ErrInvalidArgument, p.BeforeMs(), p.AfterMs())
	}
	if p.Queue.Capacity < 0 {
		return fmt.Errorf("%w: negative queue capacity %d", eeg.ErrInvalidArgument, p.Queue.Capacity)
	}
	return nil
}

// BeforeMs returns the window length before an event.
func (p *Profile) BeforeMs() int {
	if p.Window.BeforeMs == nil {
		return defaultBeforeMs
	}
	return *p.Window.BeforeMs
}

// AfterMs returns the window length after an event.
func (p *Profile) AfterMs() int {
	if p.Window.AfterMs == nil {
		return defaultAfterMs
	}
	return *p.Window.AfterMs
}

// TimeSpec returns where imported timestamps come from.
func (p *Profile) TimeSpec() eeg.TimeSpec {
	switch {
	case p.Time.Channel != "":
		return eeg.TimeChannel(p.Time.Channel)
	case p.Time.Seconds != "":
		return eeg.TimeChannels(p.Time.Seconds, p.Time.Millis)
	default:
		return eeg.SyntheticTime()
	}
}

// NewRecording returns an empty recording with the profile's channels.
func (p *Profile) NewRecording() (*eeg.Recording, error) {
	return eeg.NewRecording(p.Channels, p.SampleRate)
}

// NewQueue returns a queue sized for one channel of live data.
func (p *Profile) NewQueue() (*fastqueue.Queue, error) {
	capacity := p.Queue.Capacity
	if capacity == 0 {
		capacity = p.SampleRate
	}
	return fastqueue.New(capacity)
}

// Import loads the file at path into a new recording, choosing the reader
// by extension: .edf files go through the EDF importer, everything else is
// read as delimited text.
func (p *Profile) Import(path string) (*eeg.Recording, error) {
	if strings.EqualFold(filepath.Ext(path), ".edf") {
		return eeg.FromEDF(path, p.SampleRate, p.Channels, p.TimeSpec(), p.EventChannel)
	}
	return eeg.FromDelimited(path, p.SampleRate, p.Channels, p.EventMarker)
}

func intPtr(v int) *int {
	return &v
}
