package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var azureTracer = otel.Tracer("tdp.llm.azure")

// AzureClient talks to an Azure OpenAI deployment.
type AzureClient struct {
	client     *openai.Client
	deployment string
}

func NewAzureClient() (*AzureClient, error) {
	apiKey := os.Getenv("UIO_SE_GROUP_GPT_API_KEY")
	resourceName := os.Getenv("UIO_SE_GROUP_GPT_RESOURCE_NAME")
	deployment := os.Getenv("UIO_SE_GROUP_GPT_DEPLOYMENT_NAME")
	apiVersion := os.Getenv("UIO_SE_GROUP_API_VERSION")

	if apiKey == "" {
		return nil, fmt.Errorf("UIO_SE_GROUP_GPT_API_KEY environment variable not set")
	}
	if resourceName == "" {
		return nil, fmt.Errorf("UIO_SE_GROUP_GPT_RESOURCE_NAME environment variable not set")
	}
	if deployment == "" {
		return nil, fmt.Errorf("UIO_SE_GROUP_GPT_DEPLOYMENT_NAME environment variable not set")
	}

	endpoint := fmt.Sprintf("https://%s.openai.azure.com/", resourceName)
	config := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		config.APIVersion = apiVersion
	}
	config.AzureModelMapperFunc = func(model string) string {
		return deployment
	}

	slog.Info("Initializing Azure OpenAI client", "endpoint", endpoint, "deployment", deployment)
	return &AzureClient{
		client:     openai.NewClientWithConfig(config),
		deployment: deployment,
	}, nil
}

// Model returns the Azure deployment name.
func (a *AzureClient) Model() string {
	return a.deployment
}

// Generate implements the LLMClient interface
func (a *AzureClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	return a.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, params)
}

// Chat implements the LLMClient interface
func (a *AzureClient) Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error) {
	ctx, span := azureTracer.Start(ctx, "AzureClient.Chat")
	defer span.End()
	span.SetAttributes(attribute.String("llm.deployment", a.deployment))
	span.SetAttributes(attribute.Int("llm.num_messages", len(messages)))
	slog.Debug("Chatting via Azure OpenAI", "deployment", a.deployment)

	req := openai.ChatCompletionRequest{
		Model:    a.deployment,
		Messages: toOpenAIMessages(messages),
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Azure OpenAI API call failed", "error", err)
		return "", fmt.Errorf("Azure OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("Azure OpenAI returned no choices")
		return "", fmt.Errorf("Azure OpenAI returned no choices")
	}
	slog.Debug("Received response from Azure OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}
