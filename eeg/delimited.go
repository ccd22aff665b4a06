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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultEventMarker marks event rows in delimited files.
	DefaultEventMarker = "1"
	// NonEventMarker marks every other row and cannot be used as an event marker.
	NonEventMarker = "0"
)

// FromDelimited creates a recording from a delimited file written by
// SaveDelimited or laid out as timestamp, channels..., marker.
func FromDelimited(path string, sampleRate int, channels []string, eventMarker string) (*Recording, error) {
	r, err := NewRecording(channels, sampleRate)
	if err != nil {
		return nil, err
	}
	if err := r.LoadDelimited(path, eventMarker); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadDelimited replaces the recording's contents with the file at path.
func (r *Recording) LoadDelimited(path, eventMarker string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return r.ReadDelimited(f, eventMarker)
}

// ReadDelimited replaces the recording's contents with delimited rows of
// timestamp, one value per channel, and an optional trailing marker. The
// first row is a header. Columns between the channels and the marker are
// ignored. Rows whose marker equals eventMarker become events, and markers
// with code eventMarker.
func (r *Recording) ReadDelimited(rd io.Reader, eventMarker string) error {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: missing header row", ErrInvalidArgument)
		}
		return fmt.Errorf("error reading header: %w", err)
	}

	n := len(r.channels)
	loaded, err := NewRecording(r.channels, r.sampleRate)
	if err != nil {
		return err
	}

	values := make([]float64, n)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading row: %w", err)
		}

		line, _ := cr.FieldPos(0)
		if len(row) < n+1 {
			return fmt.Errorf("%w: line %d has %d fields, expected at least %d", ErrChannelMismatch, line, len(row), n+1)
		}

		ts, err := parseField(row[0])
		if err != nil {
			return fmt.Errorf("line %d: error parsing timestamp: %w", line, err)
		}
		for i := range values {
			if values[i], err = parseField(row[i+1]); err != nil {
				return fmt.Errorf("line %d: error parsing %s: %w", line, r.channels[i], err)
			}
		}

		if err := loaded.AddData(Sample{Timestamp: ts, Values: values}); err != nil {
			return err
		}
		if len(row) > n+1 && strings.TrimSpace(row[len(row)-1]) == eventMarker {
			loaded.registerEvent(ts)
			loaded.markers.AddMarker(eventMarker, ts)
		}
	}

	*r = *loaded
	return nil
}

// SaveDelimited writes the recording to path, see WriteDelimited.
func (r *Recording) SaveDelimited(path, eventMarker string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := r.WriteDelimited(f, eventMarker); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteDelimited writes a header row followed by one row per sample. The
// marker column holds eventMarker for event samples and NonEventMarker for
// all others. Values are written so that reading them back is exact.
func (r *Recording) WriteDelimited(w io.Writer, eventMarker string) error {
	if eventMarker == NonEventMarker {
		return fmt.Errorf("%w: event marker %q is reserved for non-events", ErrInvalidArgument, eventMarker)
	}

	cw := csv.NewWriter(w)

	header := make([]string, 0, len(r.channels)+2)
	header = append(header, "timestamp")
	header = append(header, r.channels...)
	header = append(header, "Marker")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	row := make([]string, len(header))
	for i, ts := range r.timestamps {
		row[0] = formatField(ts)
		for c := range r.channels {
			row[c+1] = formatField(r.signals[c][i])
		}

		row[len(row)-1] = NonEventMarker
		if r.isEvent(ts) {
			row[len(row)-1] = eventMarker
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("error writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (r *Recording) isEvent(ts float64) bool {
	i := sort.SearchFloat64s(r.events, ts)
	return i < len(r.events) && r.events[i] == ts
}

// DelimitedSource serves the named columns of a delimited file with a
// header row.
type DelimitedSource struct {
	sampleRate float64
	index      map[string]int
	rows       [][]string
}

// NewDelimitedSource reads the whole delimited input. The sample rate is
// reported for every channel.
func NewDelimitedSource(rd io.Reader, sampleRate float64) (*DelimitedSource, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading delimited input: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrInvalidArgument)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}

	return &DelimitedSource{
		sampleRate: sampleRate,
		index:      index,
		rows:       records[1:],
	}, nil
}

// Read implements Source.
func (s *DelimitedSource) Read(channels []string) ([]SourceChannel, error) {
	out := make([]SourceChannel, len(channels))
	for i, name := range channels {
		col, ok := s.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrChannelNotFound, name)
		}

		samples := make([]float64, len(s.rows))
		for j, row := range s.rows {
			if col >= len(row) {
				return nil, fmt.Errorf("%w: row %d has no %q column", ErrChannelMismatch, j+2, name)
			}
			v, err := parseField(row[col])
			if err != nil {
				return nil, fmt.Errorf("row %d: error parsing %s: %w", j+2, name, err)
			}
			samples[j] = v
		}

		out[i] = SourceChannel{Label: name, SampleRate: s.sampleRate, Samples: samples}
	}
	return out, nil
}

func parseField(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func formatField(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
