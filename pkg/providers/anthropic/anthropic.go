// Package anthropic connects kernels to the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/modeladapter"
	"github.com/germanamz/kernelkit/pkg/modeladapter/usage"
	"github.com/germanamz/kernelkit/pkg/plugin"
)

const (
	// DefaultBaseURL is the public Anthropic API.
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultMaxTokens is sent when no cap is configured; the API requires one.
	DefaultMaxTokens = 4096

	messagesPath = "/v1/messages"
	apiVersion   = "2023-06-01"
)

var (
	_ modeladapter.ChatCompleter = (*Adapter)(nil)
	_ modeladapter.TextGenerator = (*Adapter)(nil)
)

// Adapter implements chat and text generation over the Messages API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter. The baseURL has no trailing slash.
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.BaseURL = strings.TrimSuffix(baseURL, "/")
	a.Auth = modeladapter.Auth{Key: apiKey, Header: "x-api-key"}
	a.Model = model
	a.Headers = map[string]string{"anthropic-version": apiVersion}
	a.HeaderParser = modeladapter.ParseAnthropicRateLimitHeaders

	return a
}

// Complete sends the history to the Messages API.
func (a *Adapter) Complete(ctx context.Context, h *chathistory.History, fns []plugin.Function) (chathistory.Message, error) {
	var resp apiResponse
	if err := a.PostJSON(ctx, messagesPath, a.buildRequest(h, fns), &resp); err != nil {
		return chathistory.Message{}, fmt.Errorf("anthropic: %w", err)
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})

	return parseResponse(resp), nil
}

// Generate runs prompt as a single user turn.
func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	h := chathistory.New()
	h.AddUser(prompt)

	msg, err := a.Complete(ctx, h, nil)
	if err != nil {
		return "", err
	}

	return msg.TextContent(), nil
}

// --- wire types ---

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
	Tools       []apiToolDef `json:"tools,omitempty"`
}

type apiMessage struct {
	Role    string     `json:"role"`
	Content []apiBlock `json:"content"`
}

type apiBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type apiToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type apiResponse struct {
	Content    []apiBlock `json:"content"`
	StopReason string     `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(h *chathistory.History, fns []plugin.Function) apiRequest {
	req := apiRequest{
		Model:       a.Model,
		MaxTokens:   a.MaxTokens,
		System:      h.SystemPrompt(),
		Temperature: a.Temperature,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	for _, f := range fns {
		req.Tools = append(req.Tools, apiToolDef{
			Name:        f.Name,
			Description: f.Description,
			InputSchema: f.Schema(),
		})
	}

	h.Each(func(_ int, m chathistory.Message) bool {
		if m.Role != chathistory.System {
			req.Messages = appendMessage(req.Messages, m)
		}
		return true
	})

	return req
}

// appendMessage converts m into blocks, merging consecutive blocks of the
// same role because the API requires strict user/assistant alternation.
func appendMessage(msgs []apiMessage, m chathistory.Message) []apiMessage {
	role := "user"
	if m.Role == chathistory.Assistant {
		role = "assistant"
	}

	for _, p := range m.Parts {
		block, ok := toBlock(p)
		if !ok {
			continue
		}

		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, block)
			continue
		}

		msgs = append(msgs, apiMessage{Role: role, Content: []apiBlock{block}})
	}

	return msgs
}

func toBlock(p chathistory.Part) (apiBlock, bool) {
	switch v := p.(type) {
	case chathistory.Text:
		return apiBlock{Type: "text", Text: v.Text}, true
	case chathistory.FunctionCall:
		input := json.RawMessage(v.Arguments)
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		return apiBlock{Type: "tool_use", ID: v.ID, Name: v.Name, Input: input}, true
	case chathistory.FunctionResult:
		return apiBlock{Type: "tool_result", ToolUseID: v.CallID, Content: v.Content, IsError: v.IsError}, true
	}
	return apiBlock{}, false
}

func parseResponse(resp apiResponse) chathistory.Message {
	var parts []chathistory.Part

	for _, b := range resp.Content {
		switch b.Type {
		case "text":
			parts = append(parts, chathistory.Text{Text: b.Text})
		case "tool_use":
			args := string(b.Input)
			if args == "" {
				args = "{}"
			}
			parts = append(parts, chathistory.FunctionCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}

	return chathistory.NewMessage("", chathistory.Assistant, parts...)
}
