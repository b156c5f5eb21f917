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
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SINTEF-9012/TDPrioritization/services/llm"
)

// scriptedClient replays canned responses and records every call.
type scriptedClient struct {
	responses []string
	errs      []error
	calls     [][]llm.Message
}

func (c *scriptedClient) Chat(_ context.Context, messages []llm.Message, _ llm.GenerationParams) (string, error) {
	i := len(c.calls)
	c.calls = append(c.calls, messages)
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", errors.New("scripted client: out of responses")
}

func (c *scriptedClient) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return c.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, params)
}

func newTestPipeline(client llm.LLMClient) *Pipeline {
	return NewPipeline(client, Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

const twoSmellTable = ExpectedHeaderLine + "\n" +
	"1|14|Feature Envy|calculate_semantic_coupling|gitmetrics/metrics/coupling.py|HIGH|Core metric with strong propagation risk\n" +
	"2|20|Feature Envy|calculate_change_proneness|gitmetrics/metrics/change_proneness.py|MEDIUM|Long method with high coupling"

func TestPipeline_AcceptsFirstTry(t *testing.T) {
	client := &scriptedClient{responses: []string{correctOutput}}
	p := newTestPipeline(client)

	outcome, err := p.Run(context.Background(), smellSet("14", "20", "21", "5"))
	require.NoError(t, err)

	assert.True(t, outcome.Accepted())
	assert.Equal(t, PhaseAccepted, outcome.Phase)
	assert.Equal(t, 0, outcome.AttemptsUsed)
	assert.Empty(t, outcome.Validation.Violations)
	require.Len(t, client.calls, 1)
	assert.Equal(t, SystemPrompt, client.calls[0][0].Content)
}

func TestPipeline_RepairThenAccept(t *testing.T) {
	client := &scriptedClient{responses: []string{faultyRanks, twoSmellTable}}
	p := newTestPipeline(client)

	outcome, err := p.Run(context.Background(), smellSet("14", "20"))
	require.NoError(t, err)

	assert.True(t, outcome.Accepted())
	assert.Equal(t, 1, outcome.AttemptsUsed)
	require.Len(t, client.calls, 2)

	repair := client.calls[1]
	require.Len(t, repair, 2)
	assert.Equal(t, llm.RoleSystem, repair[0].Role)
	assert.Equal(t, RepairSystemPrompt, repair[0].Content)
	assert.Contains(t, repair[1].Content, ExpectedHeaderLine)
	assert.Contains(t, repair[1].Content, "[14, 20]")
	assert.Contains(t, repair[1].Content, ViolationRankOrdering)
	assert.Contains(t, repair[1].Content, "Skipped rank 2", "prior output must be included verbatim")
}

func TestPipeline_ExhaustsBudget(t *testing.T) {
	client := &scriptedClient{responses: []string{faultyRanks, faultyRanks, faultyRanks}}
	p := newTestPipeline(client)

	outcome, err := p.Run(context.Background(), smellSet("14", "20"))
	require.NoError(t, err)

	assert.False(t, outcome.Accepted())
	assert.Equal(t, PhaseExhausted, outcome.Phase)
	assert.Equal(t, 2, outcome.AttemptsUsed)
	assert.Contains(t, outcome.Validation.Violations, ViolationRankOrdering)
	assert.NotEmpty(t, outcome.Text, "exhausted runs still carry the last output")
	// Initial generation plus exactly two repairs.
	assert.Len(t, client.calls, 3)
}

func TestPipeline_TransportErrorOnInitialGeneration(t *testing.T) {
	wantErr := errors.New("connection refused")
	client := &scriptedClient{errs: []error{wantErr}}
	p := newTestPipeline(client)

	outcome, err := p.Run(context.Background(), smellSet("14"))

	require.ErrorIs(t, err, wantErr)
	assert.Nil(t, outcome)
}

func TestPipeline_TransportErrorDuringRepair(t *testing.T) {
	wantErr := errors.New("upstream timeout")
	client := &scriptedClient{
		responses: []string{faultyRanks},
		errs:      []error{nil, wantErr},
	}
	p := newTestPipeline(client)

	outcome, err := p.Run(context.Background(), smellSet("14", "20"))

	require.ErrorIs(t, err, wantErr)
	assert.Nil(t, outcome)
	assert.Len(t, client.calls, 2)
}

func TestPipeline_EmptyTextIsViolationNotError(t *testing.T) {
	client := &scriptedClient{responses: []string{"", correctOutput}}
	p := newTestPipeline(client)

	outcome, err := p.Run(context.Background(), smellSet("14", "20", "21", "5"))
	require.NoError(t, err)

	assert.True(t, outcome.Accepted())
	assert.Equal(t, 1, outcome.AttemptsUsed)
	require.Len(t, client.calls, 2)
	assert.Contains(t, client.calls[1][1].Content, ViolationEmptyOutput)
}

func TestPipeline_NoSmells(t *testing.T) {
	p := newTestPipeline(&scriptedClient{})

	outcome, err := p.Run(context.Background(), nil)

	require.ErrorIs(t, err, ErrNoSmells)
	assert.Nil(t, outcome)
}

func TestPipeline_DefaultBudget(t *testing.T) {
	p := newTestPipeline(&scriptedClient{})
	assert.Equal(t, DefaultAttemptsAllowed, p.cfg.AttemptsAllowed)
}
