package kernel

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/germanamz/kernelkit/pkg/modeladapter"
	"github.com/germanamz/kernelkit/pkg/providers/anthropic"
	"github.com/germanamz/kernelkit/pkg/providers/gemini"
	"github.com/germanamz/kernelkit/pkg/providers/openai"
)

// Built-in provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderGrok      = "grok"
)

const grokBaseURL = "https://api.x.ai"

// ConnectorConfig is what a ConnectorFactory receives. Endpoint and Model
// are empty when the options left them unset.
type ConnectorConfig struct {
	Endpoint string
	APIKey   string //nolint:gosec // configuration field, not a hardcoded secret
	modeladapter.Settings
}

// ConnectorFactory creates the connector serving one kernel type. The value
// returned must implement the interface that type requires (see
// KernelBuilder.Build).
type ConnectorFactory func(cfg ConnectorConfig) (any, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]map[Type]ConnectorFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories[ProviderOpenAI] = map[Type]ConnectorFactory{
			Chat:       openAIFactory("gpt-4o-mini", openai.DefaultBaseURL),
			Completion: openAIFactory("gpt-4o-mini", openai.DefaultBaseURL),
			Embedding:  openAIFactory("text-embedding-3-small", openai.DefaultBaseURL),
			Image:      openAIFactory("dall-e-3", openai.DefaultBaseURL),
		}
		factories[ProviderGrok] = map[Type]ConnectorFactory{
			Chat:       openAIFactory("grok-3", grokBaseURL),
			Completion: openAIFactory("grok-3", grokBaseURL),
		}
		factories[ProviderAnthropic] = map[Type]ConnectorFactory{
			Chat:       newAnthropic,
			Completion: newAnthropic,
		}
		factories[ProviderGemini] = map[Type]ConnectorFactory{
			Chat:       geminiFactory("gemini-2.0-flash"),
			Completion: geminiFactory("gemini-2.0-flash"),
			Embedding:  geminiFactory("text-embedding-004"),
		}
	})
}

// RegisterConnector registers a connector factory for a provider and type,
// replacing any existing one. It can be called before Build to add
// providers or override the built-in ones.
func RegisterConnector(provider string, t Type, factory ConnectorFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	byType, ok := factories[provider]
	if !ok {
		byType = map[Type]ConnectorFactory{}
		factories[provider] = byType
	}
	byType[t] = factory
}

// getFactory returns the factory for provider and type.
func getFactory(provider string, t Type) (ConnectorFactory, error) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	byType, ok := factories[provider]
	if !ok {
		return nil, fmt.Errorf("kernel: %w %q", ErrUnknownProvider, provider)
	}

	f, ok := byType[t]
	if !ok {
		return nil, fmt.Errorf("kernel: provider %q: %w %s", provider, ErrUnsupportedType, t)
	}

	return f, nil
}

// inferProvider picks a provider from the endpoint host.
func inferProvider(endpoint string) string {
	if endpoint == "" {
		return ProviderOpenAI
	}

	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)

	switch {
	case strings.Contains(host, "anthropic"):
		return ProviderAnthropic
	case strings.Contains(host, "generativelanguage"), strings.Contains(host, "googleapis"):
		return ProviderGemini
	case strings.HasSuffix(host, "x.ai"):
		return ProviderGrok
	default:
		return ProviderOpenAI
	}
}

// resolveProvider returns the provider named by opts or inferred from it.
func resolveProvider(opts *Options) string {
	if opts != nil && opts.Provider != nil && *opts.Provider != "" {
		return strings.ToLower(*opts.Provider)
	}
	if opts == nil {
		return inferProvider("")
	}
	return inferProvider(deref(opts.Endpoint))
}

func withDefaults(cfg ConnectorConfig, model, baseURL string) ConnectorConfig {
	if cfg.Model == "" {
		cfg.Model = model
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = baseURL
	}
	return cfg
}

func openAIFactory(model, baseURL string) ConnectorFactory {
	return func(cfg ConnectorConfig) (any, error) {
		cfg = withDefaults(cfg, model, baseURL)

		a := openai.New(cfg.Endpoint, cfg.APIKey, cfg.Model)
		a.Settings = cfg.Settings

		return a, nil
	}
}

func newAnthropic(cfg ConnectorConfig) (any, error) {
	cfg = withDefaults(cfg, "claude-sonnet-4-20250514", anthropic.DefaultBaseURL)

	a := anthropic.New(cfg.Endpoint, cfg.APIKey, cfg.Model)
	a.Settings = cfg.Settings

	return a, nil
}

func geminiFactory(model string) ConnectorFactory {
	return func(cfg ConnectorConfig) (any, error) {
		cfg = withDefaults(cfg, model, gemini.DefaultBaseURL)

		a := gemini.New(cfg.Endpoint, cfg.APIKey, cfg.Model)
		a.Settings = cfg.Settings

		return a, nil
	}
}
