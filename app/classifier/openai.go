package classifier

import (
	"context"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = openai.GPT4oMini

var _ Classifier = (*OpenAI)(nil)

type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a chat completion classifier. baseURL is optional and
// points the client at a compatible endpoint.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (o *OpenAI) Name() string {
	return ProviderOpenAI + "/" + o.model
}

func (o *OpenAI) Classify(ctx context.Context, title, summary string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(title, summary)},
		},
		// A literal zero is dropped from the request body.
		Temperature: math.SmallestNonzeroFloat32,
		N:           1,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: no content in OpenAI reply", ErrEmptyResponse)
	}

	return resp.Choices[0].Message.Content, nil
}
