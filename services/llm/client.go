package llm

import "context"

// Message is a single turn in a conversation sent to a backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
//
// Chat sends a full conversation and returns the assistant's text.
// A non-nil error always means a transport or availability failure
// (backend unreachable, timeout, malformed response envelope) — never
// a judgement about the content of the returned text. Content-level
// problems are the validator's concern, so callers can distinguish
// "the model answered badly" from "the model did not answer".
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
	Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error)
}
