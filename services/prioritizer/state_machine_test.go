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
	"errors"
	"testing"
)

func TestStateMachine_ValidTransitions(t *testing.T) {
	sm := NewStateMachine()

	valid := []struct{ from, to Phase }{
		{PhaseInitial, PhaseValidating},
		{PhaseValidating, PhaseAccepted},
		{PhaseValidating, PhaseNeedsRepair},
		{PhaseValidating, PhaseExhausted},
		{PhaseNeedsRepair, PhaseRepairing},
		{PhaseRepairing, PhaseValidating},
	}
	for _, tr := range valid {
		if !sm.CanTransition(tr.from, tr.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tr.from, tr.to)
		}
	}
}

func TestStateMachine_InvalidTransitions(t *testing.T) {
	sm := NewStateMachine()

	invalid := []struct{ from, to Phase }{
		{PhaseInitial, PhaseAccepted},
		{PhaseInitial, PhaseNeedsRepair},
		{PhaseNeedsRepair, PhaseAccepted},
		{PhaseRepairing, PhaseAccepted},
		{PhaseAccepted, PhaseValidating},
		{PhaseExhausted, PhaseValidating},
		{PhaseAccepted, PhaseExhausted},
	}
	for _, tr := range invalid {
		if sm.CanTransition(tr.from, tr.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tr.from, tr.to)
		}
	}
}

func TestStateMachine_TransitionUpdatesState(t *testing.T) {
	sm := NewStateMachine()
	state := NewRunState(smellSet("1"), 2)

	if err := sm.Transition(state, PhaseValidating); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if state.Phase != PhaseValidating {
		t.Errorf("phase = %s, want %s", state.Phase, PhaseValidating)
	}

	err := sm.Transition(state, PhaseInitial)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
	if state.Phase != PhaseValidating {
		t.Errorf("failed transition must not change phase, got %s", state.Phase)
	}
}

func TestPhase_IsTerminal(t *testing.T) {
	for _, p := range AllPhases() {
		want := p == PhaseAccepted || p == PhaseExhausted
		if got := p.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", p, got, want)
		}
	}
}

func TestNextPhase(t *testing.T) {
	valid := ValidationResult{Violations: map[string]string{}}
	broken := ValidationResult{Violations: map[string]string{
		ViolationEmptyRows: "no data rows",
	}}

	tests := []struct {
		name       string
		validation ValidationResult
		used       int
		allowed    int
		want       Phase
	}{
		{"valid first try", valid, 0, 2, PhaseAccepted},
		{"valid after repairs", valid, 2, 2, PhaseAccepted},
		{"broken with budget", broken, 0, 2, PhaseNeedsRepair},
		{"broken, last attempt left", broken, 1, 2, PhaseNeedsRepair},
		{"broken, budget spent", broken, 2, 2, PhaseExhausted},
		{"broken, zero budget", broken, 0, 0, PhaseExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextPhase(tt.validation, tt.used, tt.allowed); got != tt.want {
				t.Errorf("NextPhase() = %s, want %s", got, tt.want)
			}
		})
	}
}
