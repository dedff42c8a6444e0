// Package openai connects kernels to the OpenAI API and OpenAI-compatible
// endpoints.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/modeladapter"
	"github.com/germanamz/kernelkit/pkg/modeladapter/usage"
	"github.com/germanamz/kernelkit/pkg/plugin"
)

const (
	// DefaultBaseURL is the public OpenAI API.
	DefaultBaseURL = "https://api.openai.com"

	completionsPath = "/v1/chat/completions"
	embeddingsPath  = "/v1/embeddings"
	imagesPath      = "/v1/images/generations"
)

var (
	_ modeladapter.ChatCompleter  = (*Adapter)(nil)
	_ modeladapter.TextGenerator  = (*Adapter)(nil)
	_ modeladapter.Embedder       = (*Adapter)(nil)
	_ modeladapter.ImageGenerator = (*Adapter)(nil)
)

// Adapter talks to the chat completions, embeddings and image endpoints.
type Adapter struct {
	modeladapter.ModelAdapter

	// ImageSize is sent with image requests when set (e.g. "1024x1024").
	ImageSize string
}

// New creates an Adapter. The baseURL has no trailing slash and no /v1 suffix.
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.BaseURL = strings.TrimSuffix(baseURL, "/")
	a.Auth = modeladapter.Auth{Key: apiKey}
	a.Model = model
	a.HeaderParser = modeladapter.ParseOpenAIRateLimitHeaders

	return a
}

// Complete sends the history to the chat completions endpoint.
func (a *Adapter) Complete(ctx context.Context, h *chathistory.History, fns []plugin.Function) (chathistory.Message, error) {
	var resp chatResponse
	if err := a.PostJSON(ctx, completionsPath, a.buildChatRequest(h, fns), &resp); err != nil {
		return chathistory.Message{}, fmt.Errorf("openai: %w", err)
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	})

	if len(resp.Choices) == 0 {
		return chathistory.Message{}, fmt.Errorf("openai: empty choices in response")
	}

	return parseChoice(resp.Choices[0]), nil
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

// Embed returns one vector per input.
func (a *Adapter) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	req := embeddingRequest{Model: a.Model, Input: inputs}
	if err := a.PostJSON(ctx, embeddingsPath, req, &resp); err != nil {
		return nil, fmt.Errorf("openai: embeddings: %w", err)
	}

	a.Usage.Add(usage.TokenCount{InputTokens: resp.Usage.PromptTokens})

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("openai: embeddings: got %d vectors for %d inputs", len(resp.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai: embeddings: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}

	return out, nil
}

// GenerateImage asks the images endpoint for one image.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string) (modeladapter.Image, error) {
	var resp imageResponse
	req := imageRequest{Model: a.Model, Prompt: prompt, N: 1, Size: a.ImageSize}
	if err := a.PostJSON(ctx, imagesPath, req, &resp); err != nil {
		return modeladapter.Image{}, fmt.Errorf("openai: images: %w", err)
	}

	if len(resp.Data) == 0 {
		return modeladapter.Image{}, fmt.Errorf("openai: images: empty data in response")
	}

	d := resp.Data[0]
	img := modeladapter.Image{URL: d.URL, RevisedPrompt: d.RevisedPrompt}
	if d.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return modeladapter.Image{}, fmt.Errorf("openai: images: decode b64_json: %w", err)
		}
		img.Data = data
		img.MediaType = "image/png"
	}

	return img, nil
}
