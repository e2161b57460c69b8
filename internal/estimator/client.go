package estimator

import (
	"context"
	"errors"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultLLMModel = string(anthropic.ModelClaudeSonnet4_20250514)
	maxTokens       = 1500
)

// Caller performs one generative call and returns the raw model text.
type Caller interface {
	Call(ctx context.Context, prompt string) (string, error)
}

// AnthropicMessager is the subset of the Anthropic client we use.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClientCreator builds the messages client. Tests swap it out.
type AnthropicClientCreator func(apiKey, baseURL string) AnthropicMessager

func defaultAnthropicCreator(apiKey, baseURL string) AnthropicMessager {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// One attempt only; the service falls back to simulation instead.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	c := anthropic.NewClient(opts...)
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

type AnthropicCaller struct {
	messages AnthropicMessager
	model    string
}

// NewAnthropicCallerFromEnv reads the credential once. It returns
// ErrNoCredential when the key is missing or JOBCOST_NO_LLM is set.
func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	if envEnabled("JOBCOST_NO_LLM") {
		return nil, ErrNoCredential
	}
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	model := strings.TrimSpace(os.Getenv("JOBCOST_LLM_MODEL"))
	if model == "" {
		model = DefaultLLMModel
	}
	baseURL := strings.TrimSpace(os.Getenv("JOBCOST_LLM_BASE_URL"))
	return &AnthropicCaller{messages: newAnthropicClient(apiKey, baseURL), model: model}, nil
}

func NewAnthropicCaller(messages AnthropicMessager, model string) *AnthropicCaller {
	if model == "" {
		model = DefaultLLMModel
	}
	return &AnthropicCaller{messages: messages, model: model}
}

func (a *AnthropicCaller) ModelName() string { return a.model }

// Call sends prompt as a single user message. Only content[0].text of the
// response is returned.
func (a *AnthropicCaller) Call(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", classifyCallError(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return "", &DecodeFailure{Reason: "response has no content blocks"}
	}
	first := resp.Content[0]
	if first.Type != "text" {
		return "", &DecodeFailure{Reason: "first content block is " + first.Type + ", not text"}
	}
	return first.Text, nil
}

func classifyCallError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &HTTPStatusFailure{Code: apiErr.StatusCode, Body: apiErr.RawJSON()}
	}
	return &TransportFailure{Err: err}
}

func envEnabled(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
