// Package llm is the agent's brain: an OpenAI-compatible tool-calling
// client plus the prompt and tool schemas it speaks with.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/Gytisw/agentlog/internal/entity"
	"github.com/Gytisw/agentlog/internal/metrics"
)

// Client implements the agent's Brain over an OpenAI-compatible API.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *zap.SugaredLogger

	task    string
	history []entity.ActionRecord
}

// Options configure the client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// New creates an LLM client. BaseURL is how OpenRouter/Groq/local backends
// are plugged in.
func New(opts Options, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	client := openai.NewClient(reqOpts...)
	return &Client{
		client:  &client,
		model:   opts.Model,
		timeout: opts.Timeout,
		log:     log,
		history: []entity.ActionRecord{},
	}
}

// Reset clears task and history for a fresh task.
func (c *Client) Reset() {
	c.task = ""
	c.history = []entity.ActionRecord{}
}

// RecordAction appends one executed action to the history the model sees on
// the next step. Args go back to a JSON string so the model reads exactly
// what it asked for.
func (c *Client) RecordAction(call entity.ToolCall, result string) {
	argsBytes, _ := json.Marshal(call.Args)
	c.history = append(c.history, entity.ActionRecord{
		Reasoning: call.Reasoning,
		Action:    call.Name,
		Args:      string(argsBytes),
		Result:    result,
	})
}

// Step sends the current state to the model and returns its tool calls.
func (c *Client) Step(ctx context.Context, state *entity.BrowserState, task string) ([]entity.ToolCall, error) {
	if c.task == "" && task != "" {
		c.task = task
	}

	messages := ConstructMessages(c.task, c.history, state)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Tools:       defineTools(),
		Temperature: openai.Opt[float64](0.1),
	})
	metrics.ObserveLLM(err)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}

	// Content-filtered or proxy responses can legally carry no choices;
	// surface that as an error so the loop retries instead of crashing.
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm response contained no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		// The model only talked; surface the text for debugging.
		c.log.Debugf("llm: no tool calls, content: %s", msg.Content)
		return nil, nil
	}

	raw := make([]RawToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		raw = append(raw, RawToolCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return ParseToolCalls(msg.Content, raw)
}
