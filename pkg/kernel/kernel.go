package kernel

import (
	"context"
	"fmt"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/modeladapter"
	"github.com/germanamz/kernelkit/pkg/modeladapter/usage"
	"github.com/germanamz/kernelkit/pkg/plugin"
	"github.com/rs/zerolog"
)

// DefaultMaxFunctionRounds bounds Chat when MaxFunctionRounds is zero.
const DefaultMaxFunctionRounds = 8

// Kernel is a built handle over one or more connectors and the plugins
// offered to chat models. Its methods are safe for concurrent use once the
// kernel is shared; AddPlugin and the exported fields belong to setup (for
// example inside ConfigureKernel).
type Kernel struct {
	// MaxFunctionRounds caps how many times Chat executes function calls
	// before giving up.
	MaxFunctionRounds int
	// HeuristicTokens makes EstimateTokens skip tiktoken.
	HeuristicTokens bool

	id         string
	typ        Type
	provider   string
	settings   modeladapter.Settings
	limits     Limits
	connectors map[Type]any
	plugins    *plugin.Collection
}

// Usage aggregates token and request counts over a kernel's connectors.
type Usage struct {
	Tokens   usage.TokenCount
	Calls    int
	Requests int
}

func (k *Kernel) ID() string { return k.id }
func (k *Kernel) Type() Type { return k.typ }
func (k *Kernel) Provider() string { return k.provider }
func (k *Kernel) ModelID() string { return k.settings.Model }
func (k *Kernel) Settings() modeladapter.Settings { return k.settings }

// Limits returns the usage windows the kernel was built with. They are
// informational only.
func (k *Kernel) Limits() Limits { return k.limits }

// Plugins returns the attached plugins.
func (k *Kernel) Plugins() *plugin.Collection { return k.plugins }

// AddPlugin attaches more plugins after build.
func (k *Kernel) AddPlugin(plugins ...*plugin.Plugin) { k.plugins.Add(plugins...) }

// Connector returns the raw connector registered for t.
func (k *Kernel) Connector(t Type) (any, bool) {
	c, ok := k.connectors[t]
	return c, ok
}

func (k *Kernel) ChatCompleter() (modeladapter.ChatCompleter, error) {
	if c, ok := k.connectors[Chat].(modeladapter.ChatCompleter); ok {
		return c, nil
	}
	return nil, fmt.Errorf("kernel: %w for type %s", ErrNoConnector, Chat)
}

// TextGenerator returns the completion connector, or the chat connector
// driven one turn at a time when there is none.
func (k *Kernel) TextGenerator() (modeladapter.TextGenerator, error) {
	if c, ok := k.connectors[Completion].(modeladapter.TextGenerator); ok {
		return c, nil
	}
	if c, ok := k.connectors[Chat].(modeladapter.ChatCompleter); ok {
		return modeladapter.ChatText{Chat: c}, nil
	}
	return nil, fmt.Errorf("kernel: %w for type %s", ErrNoConnector, Completion)
}

func (k *Kernel) Embedder() (modeladapter.Embedder, error) {
	if c, ok := k.connectors[Embedding].(modeladapter.Embedder); ok {
		return c, nil
	}
	return nil, fmt.Errorf("kernel: %w for type %s", ErrNoConnector, Embedding)
}

func (k *Kernel) ImageGenerator() (modeladapter.ImageGenerator, error) {
	if c, ok := k.connectors[Image].(modeladapter.ImageGenerator); ok {
		return c, nil
	}
	return nil, fmt.Errorf("kernel: %w for type %s", ErrNoConnector, Image)
}

// Chat sends h to the chat connector and appends the reply. When the model
// calls plugin functions, Chat runs them, appends their results as a tool
// message and asks again, until the model answers without calls. It
// returns the final assistant message.
func (k *Kernel) Chat(ctx context.Context, h *chathistory.History) (chathistory.Message, error) {
	cc, err := k.ChatCompleter()
	if err != nil {
		return chathistory.Message{}, err
	}

	rounds := k.MaxFunctionRounds
	if rounds <= 0 {
		rounds = DefaultMaxFunctionRounds
	}

	log := zerolog.Ctx(ctx).With().Str("kernel", k.id).Logger()
	fns := k.plugins.Functions()

	for round := 0; ; round++ {
		msg, err := cc.Complete(ctx, h, fns)
		if err != nil {
			return chathistory.Message{}, err
		}
		h.Append(msg)

		calls := msg.FunctionCalls()
		if len(calls) == 0 {
			return msg, nil
		}

		if round >= rounds {
			return msg, fmt.Errorf("kernel: %w (%d)", ErrFunctionRounds, rounds)
		}

		results := make([]chathistory.Part, 0, len(calls))
		for _, call := range calls {
			res := k.plugins.Invoke(ctx, call)
			log.Debug().Str("function", call.Name).Bool("error", res.IsError).Msg("function call")
			results = append(results, res)
		}
		h.Append(chathistory.NewMessage("", chathistory.Tool, results...))
	}
}

// Complete generates text for a single prompt.
func (k *Kernel) Complete(ctx context.Context, prompt string) (string, error) {
	g, err := k.TextGenerator()
	if err != nil {
		return "", err
	}
	return g.Generate(ctx, prompt)
}

// Embed returns one vector per input.
func (k *Kernel) Embed(ctx context.Context, inputs ...string) ([][]float32, error) {
	e, err := k.Embedder()
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, inputs)
}

// GenerateImage produces an image from prompt.
func (k *Kernel) GenerateImage(ctx context.Context, prompt string) (modeladapter.Image, error) {
	g, err := k.ImageGenerator()
	if err != nil {
		return modeladapter.Image{}, err
	}
	return g.GenerateImage(ctx, prompt)
}

// Usage sums usage over every distinct connector that reports it.
func (k *Kernel) Usage() Usage {
	var u Usage

	seen := map[*usage.Tracker]struct{}{}
	for _, c := range k.connectors {
		r, ok := c.(modeladapter.UsageReporter)
		if !ok {
			continue
		}
		t := r.UsageTracker()
		if t == nil {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}

		u.Tokens = u.Tokens.Add(t.Total())
		u.Calls += t.Count()
		u.Requests += t.Requests()
	}

	return u
}

// RateLimitInfo returns the last rate limit headers the primary connector
// observed, or nil.
func (k *Kernel) RateLimitInfo() *modeladapter.RateLimitInfo {
	c, ok := k.connectors[k.typ]
	if !ok {
		c = k.connectors[Chat]
	}
	if r, ok := c.(modeladapter.RateLimitInfoReporter); ok {
		return r.LastRateLimitInfo()
	}
	return nil
}

// EstimateTokens estimates the input tokens a Chat call with h would send,
// including the declarations of every attached function.
func (k *Kernel) EstimateTokens(h *chathistory.History) int {
	est := modeladapter.TokenEstimator{Model: k.settings.Model, Heuristic: k.HeuristicTokens}
	return est.Estimate(h, k.plugins.Functions())
}
