package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const systemPrompt = "You are a phishing detection system. Respond only with a single JSON object."

// ClaudeClient is an implementation of the Classifier interface using the Anthropic API
type ClaudeClient struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewClaudeClient creates a new Anthropic client
func NewClaudeClient(
	apiKey string,
	model string,
	maxTokens int,
	temperature float32,
	logger *zap.Logger,
) *ClaudeClient {
	return &ClaudeClient{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Classify sends the prompt as a single user message and returns the text blocks
func (c *ClaudeClient) Classify(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(float64(c.temperature)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create message with Anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	c.logger.Debug("Anthropic response received",
		zap.String("model", c.model),
		zap.String("stop_reason", string(message.StopReason)))

	return strings.TrimSpace(sb.String()), nil
}
