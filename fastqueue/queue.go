// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package fastqueue provides a fixed-capacity rolling buffer of samples for
// live streaming windows.
package fastqueue

import (
	"errors"
	"fmt"

	"github.com/gammazero/deque"
)

var (
	// ErrEmptyQueue is returned by Pop when the queue holds no values.
	ErrEmptyQueue = errors.New("queue is empty")
	// ErrInvalidCapacity is returned by New for capacities below one.
	ErrInvalidCapacity = errors.New("invalid queue capacity")
)

// Queue is a FIFO of at most Cap() values. Pushing into a full queue evicts
// the oldest value. A Queue is not safe for concurrent use.
type Queue struct {
	capacity int
	values   deque.Deque[float64]
}

// New creates an empty queue holding at most capacity values.
func New(capacity int) (*Queue, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	return &Queue{capacity: capacity}, nil
}

// Push appends v, silently dropping the oldest value when the queue is full.
func (q *Queue) Push(v float64) {
	q.OverflowPush(v)
}

// OverflowPush appends v and returns the value it evicted, if any.
func (q *Queue) OverflowPush(v float64) (float64, bool) {
	var (
		evicted  float64
		overflow bool
	)
	if q.values.Len() == q.capacity {
		evicted = q.values.PopFront()
		overflow = true
	}
	q.values.PushBack(v)
	return evicted, overflow
}

// Pop removes and returns the oldest value.
func (q *Queue) Pop() (float64, error) {
	if q.values.Len() == 0 {
		return 0, ErrEmptyQueue
	}
	return q.values.PopFront(), nil
}

// Len returns the number of values currently held.
func (q *Queue) Len() int {
	return q.values.Len()
}

// Cap returns the capacity the queue was created with.
func (q *Queue) Cap() int {
	return q.capacity
}

// Full reports whether the next push will evict a value.
func (q *Queue) Full() bool {
	return q.values.Len() == q.capacity
}

// Values returns the held values, oldest first.
func (q *Queue) Values() []float64 {
	out := make([]float64, q.values.Len())
	for i := range out {
		out[i] = q.values.At(i)
	}
	return out
}

// Clear drops every held value.
func (q *Queue) Clear() {
	q.values.Clear()
}
