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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/markus-ro/NeuroPack/edf"
)

// EDFSource serves signals of an EDF/EDF+ file by label.
type EDFSource struct {
	r *edf.Reader
}

// NewEDFSource parses the EDF header from r.
func NewEDFSource(r io.ReadSeeker) (*EDFSource, error) {
	er, err := edf.Open(r)
	if err != nil {
		return nil, err
	}
	return &EDFSource{r: er}, nil
}

// Header returns the parsed EDF header.
func (s *EDFSource) Header() edf.Header {
	return s.r.Header()
}

// Read implements Source.
func (s *EDFSource) Read(channels []string) ([]SourceChannel, error) {
	hdr := s.r.Header()

	out := make([]SourceChannel, len(channels))
	for i, name := range channels {
		idx, err := s.r.SignalIndex(name)
		if errors.Is(err, edf.ErrSignalNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrChannelNotFound, name)
		}
		if err != nil {
			return nil, err
		}

		sr, err := s.r.Signal(idx)
		if err != nil {
			return nil, err
		}
		samples, err := sr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("error reading signal %q: %w", name, err)
		}

		out[i] = SourceChannel{
			Label:      name,
			SampleRate: hdr.SampleRate(idx),
			Samples:    samples,
		}
	}
	return out, nil
}

// FromEDF creates a recording from the EDF file at path, see LoadEDF.
func FromEDF(path string, sampleRate int, channels []string, t TimeSpec, eventChannel string) (*Recording, error) {
	r, err := NewRecording(channels, sampleRate)
	if err != nil {
		return nil, err
	}
	if err := r.LoadEDF(path, t, eventChannel); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadEDF replaces the recording's contents with the channels of the EDF
// file at path.
func (r *Recording) LoadEDF(path string, t TimeSpec, eventChannel string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := NewEDFSource(f)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	return r.LoadMultichannel(src, t, eventChannel)
}
