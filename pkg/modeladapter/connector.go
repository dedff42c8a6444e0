package modeladapter

import (
	"context"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/modeladapter/usage"
	"github.com/germanamz/kernelkit/pkg/plugin"
)

// ChatCompleter sends a chat history to a model and returns the assistant's
// reply. fns declares the functions the model may call.
type ChatCompleter interface {
	Complete(ctx context.Context, h *chathistory.History, fns []plugin.Function) (chathistory.Message, error)
}

// TextGenerator turns a single prompt into generated text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder returns one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Image is a generated image. Exactly one of URL or Data is set.
type Image struct {
	URL           string
	Data          []byte
	MediaType     string
	RevisedPrompt string
}

// ImageGenerator produces an image from a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

// UsageReporter exposes a connector's token usage.
// Connectors that embed ModelAdapter implement it automatically.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
}

// RateLimitInfoReporter provides the most recently observed rate limit info
// from a provider's response headers.
type RateLimitInfoReporter interface {
	LastRateLimitInfo() *RateLimitInfo
}

// ChatText adapts a ChatCompleter into a TextGenerator by sending the prompt
// as a single user turn.
type ChatText struct {
	Chat ChatCompleter
}

// Generate implements TextGenerator.
func (c ChatText) Generate(ctx context.Context, prompt string) (string, error) {
	h := chathistory.New()
	h.AddUser(prompt)

	msg, err := c.Chat.Complete(ctx, h, nil)
	if err != nil {
		return "", err
	}

	return msg.TextContent(), nil
}

// UsageTracker forwards to the wrapped completer when it reports usage.
func (c ChatText) UsageTracker() *usage.Tracker {
	if r, ok := c.Chat.(UsageReporter); ok {
		return r.UsageTracker()
	}
	return nil
}

// LastRateLimitInfo forwards to the wrapped completer when it reports headers.
func (c ChatText) LastRateLimitInfo() *RateLimitInfo {
	if r, ok := c.Chat.(RateLimitInfoReporter); ok {
		return r.LastRateLimitInfo()
	}
	return nil
}
