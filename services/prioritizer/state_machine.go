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

import (
	"fmt"
	"sync"
)

// Phase is the repair loop's lifecycle state.
type Phase string

const (
	PhaseInitial     Phase = "INITIAL"
	PhaseValidating  Phase = "VALIDATING"
	PhaseNeedsRepair Phase = "NEEDS_REPAIR"
	PhaseRepairing   Phase = "REPAIRING"
	PhaseAccepted    Phase = "ACCEPTED"
	PhaseExhausted   Phase = "EXHAUSTED_WITH_ERRORS"
)

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}

// IsTerminal reports whether the loop stops in this phase.
func (p Phase) IsTerminal() bool {
	return p == PhaseAccepted || p == PhaseExhausted
}

// AllPhases returns every defined phase.
func AllPhases() []Phase {
	return []Phase{
		PhaseInitial,
		PhaseValidating,
		PhaseNeedsRepair,
		PhaseRepairing,
		PhaseAccepted,
		PhaseExhausted,
	}
}

// StateMachine enforces valid phase transitions for the repair loop.
//
// The transition graph:
//
//	INITIAL → VALIDATING                  : First answer received
//	VALIDATING → ACCEPTED                 : Output satisfies the contract
//	VALIDATING → NEEDS_REPAIR             : Violations found, budget remains
//	VALIDATING → EXHAUSTED_WITH_ERRORS    : Violations found, budget spent
//	NEEDS_REPAIR → REPAIRING              : Repair prompt dispatched
//	REPAIRING → VALIDATING                : Repaired answer received
//
// Transport failures do not appear in the graph: they abort the run
// without consuming a transition.
//
// Thread Safety:
//
//	StateMachine is safe for concurrent use.
type StateMachine struct {
	mu sync.RWMutex

	// transitions maps (from, to) pairs that are valid.
	transitions map[Phase]map[Phase]bool
}

// NewStateMachine creates a state machine with all valid transitions.
func NewStateMachine() *StateMachine {
	sm := &StateMachine{
		transitions: make(map[Phase]map[Phase]bool),
	}

	for _, p := range AllPhases() {
		sm.transitions[p] = make(map[Phase]bool)
	}

	sm.addTransition(PhaseInitial, PhaseValidating)

	sm.addTransition(PhaseValidating, PhaseAccepted)
	sm.addTransition(PhaseValidating, PhaseNeedsRepair)
	sm.addTransition(PhaseValidating, PhaseExhausted)

	sm.addTransition(PhaseNeedsRepair, PhaseRepairing)

	sm.addTransition(PhaseRepairing, PhaseValidating)

	return sm
}

// addTransition registers a valid transition.
func (sm *StateMachine) addTransition(from, to Phase) {
	sm.transitions[from][to] = true
}

// CanTransition checks if a transition between two phases is valid.
//
// Thread Safety: This method is safe for concurrent use.
func (sm *StateMachine) CanTransition(from, to Phase) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if toMap, ok := sm.transitions[from]; ok {
		return toMap[to]
	}
	return false
}

// Transition moves the run state to the target phase.
//
// Outputs:
//
//	error - ErrInvalidTransition if the edge does not exist
//
// Thread Safety: This method is safe for concurrent use. The run
// state itself is single-owner.
func (sm *StateMachine) Transition(state *RunState, to Phase) error {
	from := state.Phase

	if !sm.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	state.Phase = to
	return nil
}

// ValidTransitionsFrom returns all valid target phases.
//
// Thread Safety: This method is safe for concurrent use.
func (sm *StateMachine) ValidTransitionsFrom(from Phase) []Phase {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var result []Phase
	if toMap, ok := sm.transitions[from]; ok {
		for p, valid := range toMap {
			if valid {
				result = append(result, p)
			}
		}
	}
	return result
}

// NextPhase decides where validation goes: accept on a clean pass,
// repair while budget remains, otherwise stop with whatever came
// back. Pure function of its inputs.
func NextPhase(validation ValidationResult, attemptsUsed, attemptsAllowed int) Phase {
	switch {
	case validation.IsValid():
		return PhaseAccepted
	case attemptsUsed < attemptsAllowed:
		return PhaseNeedsRepair
	default:
		return PhaseExhausted
	}
}

// DefaultStateMachine is the shared state machine instance.
var DefaultStateMachine = NewStateMachine()
