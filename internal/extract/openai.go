package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"schoolcal/internal/model"
)

const systemPrompt = `Extract events from text as JSON:
{"events":[{"title":"","date":"","startTime":"","endTime":"","location":"","description":"","raw":""}]}
Use "HH:MM" for times. Put the sentence the event came from in "raw".`

// OpenAIExtractor runs the extraction with a chat completion model.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor builds an extractor. baseURL may be empty for the
// public API.
func NewOpenAIExtractor(apiKey, baseURL, modelName string) *OpenAIExtractor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &OpenAIExtractor{client: openai.NewClientWithConfig(cfg), model: modelName}
}

// Extract cleans text and asks the model for {"events": [...]}.
func (o *OpenAIExtractor) Extract(ctx context.Context, text string) ([]model.EventRecord, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: CleanText(text)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("extract: model returned no choices")
	}

	var out Response
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("extract: model output: %w", err)
	}
	return normalizeEvents(out.Events), nil
}
