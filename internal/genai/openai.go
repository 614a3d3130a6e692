package genai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider for OpenAI-compatible chat APIs using
// the official openai-go SDK. Also serves OpenRouter/DeepSeek style
// endpoints through BaseURL.
type OpenAIProvider struct {
	model   string
	baseURL string
}

// NewOpenAIProvider creates an OpenAI-compatible provider.
func NewOpenAIProvider(model, baseURL string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{model: model, baseURL: baseURL}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Generate performs a single chat completion call.
func (p *OpenAIProvider) Generate(ctx context.Context, secret string, req Request) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(secret)}
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(p.baseURL))
	}
	client := openai.NewClient(opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
