// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package mqttdevice

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	timeout    = 10 * time.Second
	qos        = 1
	quiesceMs  = 1000
	keepAlive  = 30 * time.Second
	retryDelay = 5 * time.Second
)

// Subscriber is the part of an MQTT client the bridge uses.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
	Unsubscribe(topics ...string) error
	IsConnected() bool
}

// client adapts a paho client to Subscriber, waiting on every token.
type client struct {
	mu     sync.Mutex
	client paho.Client
}

func dial(broker, clientID string) (*client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(retryDelay).
		SetKeepAlive(keepAlive)

	c := &client{client: paho.NewClient(opts)}

	token := c.client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("timeout connecting to %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", broker, err)
	}
	return c, nil
}

func (c *client) Subscribe(topic string, handler paho.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, handler)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("timeout subscribing to %s", topic)
	}
	return token.Error()
}

func (c *client) Unsubscribe(topics ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Unsubscribe(topics...)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("timeout unsubscribing from %v", topics)
	}
	return token.Error()
}

func (c *client) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *client) disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.client.Disconnect(quiesceMs)
}
