// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package mqttdevice streams samples from a headset bridged onto MQTT.
//
// Samples are published as JSON objects of the form
//
//	{"ts": 12.5, "values": [1.0, 2.0, 3.0, 4.0]}
//
// with one value per channel. An optional worn topic carries "1" while the
// headset is worn and "0" otherwise.
package mqttdevice

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/gammazero/deque"
	"github.com/markus-ro/NeuroPack/device"
	"github.com/markus-ro/NeuroPack/eeg"
)

// bufferSeconds sizes the default buffer in seconds of data.
const bufferSeconds = 10

// Config describes the bridged headset and where it publishes.
type Config struct {
	Broker       string
	ClientID     string
	SampleTopic  string
	WornTopic    string // Optional, the device counts as always worn without it.
	Buffer       int    // Samples kept before the oldest are dropped, 0 for ten seconds of data.
	ChannelNames []string
	SampleRate   int
	Logger       *slog.Logger
}

type payload struct {
	Timestamp float64   `json:"ts"`
	Values    []float64 `json:"values"`
}

// Device is a device.Device fed by MQTT messages.
type Device struct {
	sub    Subscriber
	cfg    Config
	logger *slog.Logger
	close  func()

	mu        sync.Mutex
	streaming bool
	worn      bool
	samples   deque.Deque[eeg.Sample]
	dropped   int
}

var _ device.Device = (*Device)(nil)

// Dial connects to cfg.Broker and returns a device using that connection.
func Dial(cfg Config) (*Device, error) {
	c, err := dial(cfg.Broker, cfg.ClientID)
	if err != nil {
		return nil, err
	}

	d, err := New(c, cfg)
	if err != nil {
		c.disconnect()
		return nil, err
	}
	d.close = c.disconnect
	return d, nil
}

// New returns a device receiving messages through sub.
func New(sub Subscriber, cfg Config) (*Device, error) {
	if cfg.SampleTopic == "" {
		return nil, fmt.Errorf("%w: missing sample topic", eeg.ErrInvalidArgument)
	}
	if len(cfg.ChannelNames) == 0 {
		return nil, fmt.Errorf("%w: no channels configured", eeg.ErrInvalidArgument)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", eeg.ErrInvalidArgument, cfg.SampleRate)
	}
	if cfg.Buffer < 0 {
		return nil, fmt.Errorf("%w: negative buffer size %d", eeg.ErrInvalidArgument, cfg.Buffer)
	}
	if cfg.Buffer == 0 {
		cfg.Buffer = bufferSeconds * cfg.SampleRate
	}
	cfg.ChannelNames = append([]string(nil), cfg.ChannelNames...)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Device{
		sub:    sub,
		cfg:    cfg,
		logger: logger.With(slog.String("topic", cfg.SampleTopic)),
		worn:   cfg.WornTopic == "",
	}, nil
}

func (d *Device) ChannelNames() []string {
	return append([]string(nil), d.cfg.ChannelNames...)
}

func (d *Device) SampleRate() int {
	return d.cfg.SampleRate
}

func (d *Device) Connected() bool {
	return d.sub.IsConnected()
}

// StartStream subscribes to the sample and worn topics.
func (d *Device) StartStream() error {
	d.mu.Lock()
	if d.streaming {
		d.mu.Unlock()
		return nil
	}
	d.streaming = true
	d.mu.Unlock()

	if err := d.sub.Subscribe(d.cfg.SampleTopic, d.handleSample); err != nil {
		d.setStreaming(false)
		return fmt.Errorf("error subscribing to %s: %w", d.cfg.SampleTopic, err)
	}
	if d.cfg.WornTopic != "" {
		if err := d.sub.Subscribe(d.cfg.WornTopic, d.handleWorn); err != nil {
			d.setStreaming(false)
			return errors.Join(
				fmt.Errorf("error subscribing to %s: %w", d.cfg.WornTopic, err),
				d.sub.Unsubscribe(d.cfg.SampleTopic),
			)
		}
	}
	return nil
}

func (d *Device) setStreaming(streaming bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.streaming = streaming
}

// StopStream unsubscribes and discards any buffered samples.
func (d *Device) StopStream() error {
	d.mu.Lock()
	if !d.streaming {
		d.mu.Unlock()
		return nil
	}
	d.streaming = false
	d.samples.Clear()
	d.mu.Unlock()

	topics := []string{d.cfg.SampleTopic}
	if d.cfg.WornTopic != "" {
		topics = append(topics, d.cfg.WornTopic)
	}
	if err := d.sub.Unsubscribe(topics...); err != nil {
		return fmt.Errorf("error unsubscribing: %w", err)
	}
	return nil
}

func (d *Device) Worn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.worn
}

func (d *Device) HasData() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.samples.Len() > 0
}

// Fetch returns the oldest buffered sample, or device.ErrNoData.
func (d *Device) Fetch() (eeg.Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.samples.Len() == 0 {
		return eeg.Sample{}, device.ErrNoData
	}
	return d.samples.PopFront(), nil
}

// Dropped returns the number of samples discarded because the buffer was full.
func (d *Device) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Close disconnects from the broker if the device was created by Dial.
func (d *Device) Close() error {
	err := d.StopStream()
	if d.close != nil {
		d.close()
	}
	return err
}

func (d *Device) handleSample(_ paho.Client, msg paho.Message) {
	var p payload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		d.logger.Warn("Dropping malformed sample", slog.Any("error", err))
		return
	}
	if len(p.Values) != len(d.cfg.ChannelNames) {
		d.logger.Warn("Dropping sample with wrong channel count",
			slog.Int("values", len(p.Values)), slog.Int("channels", len(d.cfg.ChannelNames)))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.streaming {
		return
	}
	if d.samples.Len() >= d.cfg.Buffer {
		d.samples.PopFront()
		d.dropped++
	}
	d.samples.PushBack(eeg.Sample{Timestamp: p.Timestamp, Values: p.Values})
}

func (d *Device) handleWorn(_ paho.Client, msg paho.Message) {
	var worn bool
	switch s := strings.TrimSpace(string(msg.Payload())); s {
	case "1":
		worn = true
	case "0":
		worn = false
	default:
		d.logger.Warn("Ignoring worn state", slog.String("payload", s))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.worn != worn {
		d.logger.Info("Worn state changed", slog.Bool("worn", worn))
	}
	d.worn = worn
}
