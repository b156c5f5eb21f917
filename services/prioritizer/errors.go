// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prioritizer

import "errors"

var (
	// ErrNoSmells is returned when a run is started with an empty
	// smell set. There is nothing to rank and no prompt to build.
	ErrNoSmells = errors.New("prioritizer: no smells to rank")

	// ErrInvalidTransition is returned when the repair state machine
	// is asked to move along an edge that does not exist.
	ErrInvalidTransition = errors.New("prioritizer: invalid state transition")
)
