package openai

import (
	"encoding/json"
	"strings"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/plugin"
)

// --- chat request types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Tools       []toolDef     `json:"tools,omitempty"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolDef struct {
	Type     string      `json:"type"`
	Function toolDefFunc `json:"function"`
}

type toolDefFunc struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// --- chat response types ---

type chatResponse struct {
	Choices []choice `json:"choices"`
	Usage   apiUsage `json:"usage"`
}

type choice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// --- embeddings ---

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage apiUsage `json:"usage"`
}

// --- images ---

type imageRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// --- conversion helpers ---

func (a *Adapter) buildChatRequest(h *chathistory.History, fns []plugin.Function) chatRequest {
	req := chatRequest{
		Model:       a.Model,
		MaxTokens:   a.MaxTokens,
		Temperature: a.Temperature,
	}

	for _, f := range fns {
		req.Tools = append(req.Tools, toolDef{
			Type: "function",
			Function: toolDefFunc{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  f.Schema(),
			},
		})
	}

	h.Each(func(_ int, m chathistory.Message) bool {
		req.Messages = appendMessage(req.Messages, m)
		return true
	})

	return req
}

func appendMessage(msgs []chatMessage, m chathistory.Message) []chatMessage {
	switch m.Role {
	case chathistory.System, chathistory.User:
		text := m.TextContent()
		return append(msgs, chatMessage{Role: m.Role.String(), Content: &text})

	case chathistory.Assistant:
		msg := chatMessage{Role: "assistant"}
		var text strings.Builder
		for _, p := range m.Parts {
			switch v := p.(type) {
			case chathistory.Text:
				text.WriteString(v.Text)
			case chathistory.FunctionCall:
				msg.ToolCalls = append(msg.ToolCalls, toolCall{
					ID:       v.ID,
					Type:     "function",
					Function: toolFunction{Name: v.Name, Arguments: v.Arguments},
				})
			}
		}
		if text.Len() > 0 {
			s := text.String()
			msg.Content = &s
		}
		return append(msgs, msg)

	case chathistory.Tool:
		for _, p := range m.Parts {
			if fr, ok := p.(chathistory.FunctionResult); ok {
				content := fr.Content
				msgs = append(msgs, chatMessage{Role: "tool", Content: &content, ToolCallID: fr.CallID})
			}
		}
	}

	return msgs
}

func parseChoice(c choice) chathistory.Message {
	var parts []chathistory.Part

	if c.Message.Content != nil && *c.Message.Content != "" {
		parts = append(parts, chathistory.Text{Text: *c.Message.Content})
	}

	for _, tc := range c.Message.ToolCalls {
		parts = append(parts, chathistory.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return chathistory.NewMessage("", chathistory.Assistant, parts...)
}
