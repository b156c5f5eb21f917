package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("OLLAMA_BASE_URL", server.URL)
	client, err := NewOllamaClient("test-model")
	require.NoError(t, err)
	return client
}

func TestOllamaChat_ReturnsAssistantContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: Message{Role: RoleAssistant, Content: "ranked table"},
			Done:    true,
		})
	})

	got, err := client.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "you rank smells"},
		{Role: RoleUser, Content: "rank these"},
	}, GenerationParams{})

	require.NoError(t, err)
	assert.Equal(t, "ranked table", got)
}

func TestOllamaChat_ServerErrorIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	})

	_, err := client.Chat(context.Background(), []Message{
		{Role: RoleUser, Content: "rank these"},
	}, GenerationParams{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestOllamaChat_ModelNotFoundHint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'test-model' not found"}`))
	})

	_, err := client.Chat(context.Background(), []Message{
		{Role: RoleUser, Content: "rank these"},
	}, GenerationParams{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull test-model")
}

func TestOllamaGenerate_UsesGenerateEndpoint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "summary text", Done: true})
	})

	got, err := client.Generate(context.Background(), "summarize this snippet", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "summary text", got)
}

func TestOllamaOptions_Defaults(t *testing.T) {
	client := &OllamaClient{model: "m"}

	opts := client.options(GenerationParams{})
	assert.Equal(t, float32(0.0), opts["temperature"])
	assert.Equal(t, 8192, opts["num_predict"])
	assert.NotContains(t, opts, "top_k")

	temp := float32(0.7)
	topK := 20
	maxTok := 128
	opts = client.options(GenerationParams{Temperature: &temp, TopK: &topK, MaxTokens: &maxTok, Stop: []string{"```"}})
	assert.Equal(t, temp, opts["temperature"])
	assert.Equal(t, topK, opts["top_k"])
	assert.Equal(t, maxTok, opts["num_predict"])
	assert.Equal(t, []string{"```"}, opts["stop"])
}
