// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package eeg

import "errors"

var (
	// ErrChannelMismatch is returned when a sample or a loaded row does not
	// carry one value per configured channel.
	ErrChannelMismatch = errors.New("channel count mismatch")
	// ErrChannelNotFound is returned when a channel name is not known to a
	// container or an import source.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrInvalidArgument is returned for malformed configuration or arguments.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIndexOutOfRange is returned for numeric channel indices outside the
	// channel axis.
	ErrIndexOutOfRange = errors.New("channel index out of range")
)
