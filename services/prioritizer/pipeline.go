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
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/SINTEF-9012/TDPrioritization/services/llm"
)

// DefaultAttemptsAllowed is the repair budget used when the caller
// does not set one.
const DefaultAttemptsAllowed = 2

// Config tunes one pipeline instance.
type Config struct {
	// AttemptsAllowed is the maximum number of repair generations per
	// run. Zero means DefaultAttemptsAllowed.
	AttemptsAllowed int

	// Prompt controls evidence rendering.
	Prompt PromptOptions

	// Params are forwarded unchanged to every generation.
	Params llm.GenerationParams

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// Pipeline runs the prioritize → validate → repair loop against one
// LLM client. A pipeline is reusable across runs; each run gets its
// own state.
type Pipeline struct {
	client llm.LLMClient
	sm     *StateMachine
	log    *slog.Logger
	cfg    Config
}

// NewPipeline creates a pipeline over the given client.
func NewPipeline(client llm.LLMClient, cfg Config) *Pipeline {
	if cfg.AttemptsAllowed == 0 {
		cfg.AttemptsAllowed = DefaultAttemptsAllowed
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		client: client,
		sm:     DefaultStateMachine,
		log:    cfg.Logger,
		cfg:    cfg,
	}
}

// Run prioritizes the given smells end to end: one initial
// generation, then validation with up to AttemptsAllowed repair
// turns.
//
// A non-nil error means transport failure or an internal bug; it
// never means "the model produced a bad table". Bad tables surface as
// an Outcome in PhaseExhausted with the violations attached. Repair
// attempts are only consumed by generations that actually returned
// text.
func (p *Pipeline) Run(ctx context.Context, smells []Smell) (*Outcome, error) {
	if err := initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	if len(smells) == 0 {
		return nil, ErrNoSmells
	}

	ctx, span := tracer.Start(ctx, "Pipeline.Run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("prioritizer.smell_count", len(smells)),
		attribute.Int("prioritizer.attempts_allowed", p.cfg.AttemptsAllowed),
	)
	start := time.Now()

	p.log.Info("starting prioritization run",
		"smells", len(smells),
		"attempts_allowed", p.cfg.AttemptsAllowed)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: BuildUserPrompt(smells, p.cfg.Prompt)},
	}
	text, err := p.client.Chat(ctx, messages, p.cfg.Params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "initial generation failed")
		return nil, fmt.Errorf("initial generation: %w", err)
	}

	state := NewRunState(smells, p.cfg.AttemptsAllowed)
	if err := p.sm.Transition(state, PhaseValidating); err != nil {
		return nil, err
	}
	state.CurrentOutput = strings.TrimSpace(text)

	outcome, err := p.repairLoop(ctx, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repair loop failed")
		return nil, err
	}

	recordRun(ctx, outcome.Phase, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("prioritizer.phase", outcome.Phase.String()),
		attribute.Int("prioritizer.attempts_used", outcome.AttemptsUsed),
	)

	p.log.Info("prioritization run finished",
		"phase", outcome.Phase.String(),
		"attempts_used", outcome.AttemptsUsed,
		"violations", len(outcome.Validation.Violations))

	return outcome, nil
}
