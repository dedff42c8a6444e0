package kernel

import (
	"context"

	"github.com/germanamz/kernelkit/pkg/modeladapter"
)

// Options parametrizes a kernel build. Every field is optional and nil
// means "absent". Options performs no validation and Build never mutates
// it, so one value may be shared by concurrent builds.
type Options struct {
	ModelID  *string `json:"modelId,omitempty" yaml:"modelId,omitempty"`
	Endpoint *string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	APIKey   *string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"` //nolint:gosec // configuration field, not a hardcoded secret
	Type     *Type   `json:"type,omitempty" yaml:"type,omitempty"`

	// Provider names the connector family. When nil it is inferred from
	// Endpoint, falling back to openai.
	Provider *string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Usage windows. These are descriptive only and surface through
	// Kernel.Limits; nothing in this module enforces them.
	RequestsPerSecond *int `json:"requestsPerSecond,omitempty" yaml:"requestsPerSecond,omitempty"`
	RequestsPerMinute *int `json:"requestsPerMinute,omitempty" yaml:"requestsPerMinute,omitempty"`
	RequestsPerDay    *int `json:"requestsPerDay,omitempty" yaml:"requestsPerDay,omitempty"`
	TokensPerDay      *int `json:"tokensPerDay,omitempty" yaml:"tokensPerDay,omitempty"`
	TokensPerMinute   *int `json:"tokensPerMinute,omitempty" yaml:"tokensPerMinute,omitempty"`

	MaxTokens   *int     `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"` // Caller keeps it within [0, 2].

	// ConfigureKernel runs once after the kernel is built.
	ConfigureKernel func(ctx context.Context, k *Kernel) error `json:"-" yaml:"-"`
	// KernelFactory replaces default builder construction.
	KernelFactory func(ctx context.Context, opts *Options) (Builder, error) `json:"-" yaml:"-"`
	// ConfigureBuilder runs once on the builder before Build. It must not
	// block.
	ConfigureBuilder func(b Builder) `json:"-" yaml:"-"`
}

// Limits mirrors the usage-window fields of Options.
type Limits struct {
	RequestsPerSecond *int `json:"requestsPerSecond,omitempty"`
	RequestsPerMinute *int `json:"requestsPerMinute,omitempty"`
	RequestsPerDay    *int `json:"requestsPerDay,omitempty"`
	TokensPerDay      *int `json:"tokensPerDay,omitempty"`
	TokensPerMinute   *int `json:"tokensPerMinute,omitempty"`
}

// IsZero reports whether no window is set.
func (l Limits) IsZero() bool {
	return l.RequestsPerSecond == nil && l.RequestsPerMinute == nil && l.RequestsPerDay == nil &&
		l.TokensPerDay == nil && l.TokensPerMinute == nil
}

// Ptr returns a pointer to v. It keeps option literals short:
//
//	kernel.Options{ModelID: kernel.Ptr("gpt-4o"), MaxTokens: kernel.Ptr(256)}
func Ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a copy whose pointer fields do not alias o. Hooks are
// shared.
func (o *Options) Clone() *Options {
	if o == nil {
		return nil
	}

	c := *o
	c.ModelID = clonePtr(o.ModelID)
	c.Endpoint = clonePtr(o.Endpoint)
	c.APIKey = clonePtr(o.APIKey)
	c.Type = clonePtr(o.Type)
	c.Provider = clonePtr(o.Provider)
	c.RequestsPerSecond = clonePtr(o.RequestsPerSecond)
	c.RequestsPerMinute = clonePtr(o.RequestsPerMinute)
	c.RequestsPerDay = clonePtr(o.RequestsPerDay)
	c.TokensPerDay = clonePtr(o.TokensPerDay)
	c.TokensPerMinute = clonePtr(o.TokensPerMinute)
	c.MaxTokens = clonePtr(o.MaxTokens)
	c.Temperature = clonePtr(o.Temperature)

	return &c
}

// Generation returns the per-request settings connectors send.
func (o *Options) Generation() modeladapter.Settings {
	if o == nil {
		return modeladapter.Settings{}
	}
	return modeladapter.Settings{
		Model:       deref(o.ModelID),
		MaxTokens:   deref(o.MaxTokens),
		Temperature: clonePtr(o.Temperature),
	}
}

// Limits returns the usage windows.
func (o *Options) Limits() Limits {
	if o == nil {
		return Limits{}
	}
	return Limits{
		RequestsPerSecond: clonePtr(o.RequestsPerSecond),
		RequestsPerMinute: clonePtr(o.RequestsPerMinute),
		RequestsPerDay:    clonePtr(o.RequestsPerDay),
		TokensPerDay:      clonePtr(o.TokensPerDay),
		TokensPerMinute:   clonePtr(o.TokensPerMinute),
	}
}

// Redacted returns a clone safe to print: APIKey keeps only its last four
// characters.
func (o *Options) Redacted() *Options {
	c := o.Clone()
	if c == nil || c.APIKey == nil {
		return c
	}

	key := *c.APIKey
	switch {
	case key == "":
	case len(key) <= 8:
		key = "****"
	default:
		key = "****" + key[len(key)-4:]
	}
	c.APIKey = &key

	return c
}

// kernelType returns the requested type, defaulting to Chat.
func (o *Options) kernelType() Type {
	if o == nil || o.Type == nil {
		return Chat
	}
	return *o.Type
}
