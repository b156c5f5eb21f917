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
	"context"
	"fmt"
	"strings"

	"github.com/SINTEF-9012/TDPrioritization/services/llm"
)

// repairLoop drives the state machine from the first validation pass
// to a terminal phase. Each iteration revalidates the current output
// from scratch; nothing carries over from earlier passes except the
// attempt counter.
//
// Transport failures abort the loop with an error and do not consume
// the repair budget.
func (p *Pipeline) repairLoop(ctx context.Context, state *RunState) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.repairLoop")
	defer span.End()

	for {
		validation := Review(state.CurrentOutput, state.Smells)
		state.LastValidation = validation
		recordViolations(ctx, validation)

		next := NextPhase(validation, state.AttemptsUsed, state.AttemptsAllowed)
		if err := p.sm.Transition(state, next); err != nil {
			return nil, err
		}

		if next.IsTerminal() {
			return &Outcome{
				Text:         state.CurrentOutput,
				Validation:   validation,
				Phase:        next,
				AttemptsUsed: state.AttemptsUsed,
			}, nil
		}

		p.log.Warn("output violates contract, requesting repair",
			"attempt", state.AttemptsUsed+1,
			"attempts_allowed", state.AttemptsAllowed,
			"violations", violationKinds(validation))

		if err := p.sm.Transition(state, PhaseRepairing); err != nil {
			return nil, err
		}

		messages := []llm.Message{
			{Role: llm.RoleSystem, Content: RepairSystemPrompt},
			{Role: llm.RoleUser, Content: BuildRepairPrompt(state.Smells, validation, state.CurrentOutput)},
		}
		text, err := p.client.Chat(ctx, messages, p.cfg.Params)
		if err != nil {
			return nil, fmt.Errorf("repair generation: %w", err)
		}

		state.AttemptsUsed++
		if repairsTotal != nil {
			repairsTotal.Add(ctx, 1)
		}
		state.CurrentOutput = strings.TrimSpace(text)

		if err := p.sm.Transition(state, PhaseValidating); err != nil {
			return nil, err
		}
	}
}

// violationKinds lists the violation keys for logging.
func violationKinds(v ValidationResult) []string {
	kinds := make([]string, 0, len(v.Violations))
	for k := range v.Violations {
		kinds = append(kinds, k)
	}
	return kinds
}
