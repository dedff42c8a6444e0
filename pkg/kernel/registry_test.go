package kernel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/kernelkit/pkg/providers/anthropic"
	"github.com/germanamz/kernelkit/pkg/providers/gemini"
	"github.com/germanamz/kernelkit/pkg/providers/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferProvider(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"", ProviderOpenAI},
		{"https://api.openai.com", ProviderOpenAI},
		{"http://localhost:11434", ProviderOpenAI},
		{"https://api.anthropic.com/", ProviderAnthropic},
		{"https://generativelanguage.googleapis.com", ProviderGemini},
		{"https://api.x.ai", ProviderGrok},
		{"api.x.ai", ProviderGrok},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, inferProvider(tt.endpoint))
		})
	}
}

func TestResolveProvider_ExplicitWins(t *testing.T) {
	opts := &Options{Provider: Ptr("Gemini"), Endpoint: Ptr("https://api.openai.com")}
	assert.Equal(t, ProviderGemini, resolveProvider(opts))
	assert.Equal(t, ProviderOpenAI, resolveProvider(nil))
}

func TestNewDefaultBuilder_Connectors(t *testing.T) {
	tests := []struct {
		name     string
		opts     *Options
		wantType any
	}{
		{"openai chat", &Options{}, &openai.Adapter{}},
		{"openai image", &Options{Type: Ptr(Image)}, &openai.Adapter{}},
		{"grok", &Options{Provider: Ptr(ProviderGrok)}, &openai.Adapter{}},
		{"anthropic completion", &Options{Provider: Ptr(ProviderAnthropic), Type: Ptr(Completion)}, &anthropic.Adapter{}},
		{"gemini embedding", &Options{Provider: Ptr(ProviderGemini), Type: Ptr(Embedding)}, &gemini.Adapter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewDefaultBuilder(tt.opts)
			require.NoError(t, err)

			k, err := b.Build()
			require.NoError(t, err)

			c, ok := k.Connector(tt.opts.kernelType())
			require.True(t, ok)
			assert.IsType(t, tt.wantType, c)
		})
	}
}

func TestNewDefaultBuilder_AppliesSettingsAndDefaults(t *testing.T) {
	b, err := NewDefaultBuilder(&Options{Provider: Ptr(ProviderGrok), MaxTokens: Ptr(64)})
	require.NoError(t, err)

	a := b.connectors[Chat].(*openai.Adapter)
	assert.Equal(t, grokBaseURL, a.BaseURL)
	assert.Equal(t, "grok-3", a.Model)
	assert.Equal(t, 64, a.MaxTokens)
}

func TestNewDefaultBuilder_Errors(t *testing.T) {
	_, err := NewDefaultBuilder(&Options{Provider: Ptr(ProviderAnthropic), Type: Ptr(Embedding)})
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = NewDefaultBuilder(&Options{Provider: Ptr("acme")})
	require.ErrorIs(t, err, ErrUnknownProvider)

	_, err = NewDefaultBuilder(&Options{Type: Ptr(Type(99))})
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestRegisterConnector_CustomProvider(t *testing.T) {
	var got ConnectorConfig
	RegisterConnector("test-embedder", Embedding, func(cfg ConnectorConfig) (any, error) {
		got = cfg
		return fakeEmbedder{}, nil
	})

	k, err := Build(context.Background(), &Options{
		Provider: Ptr("test-embedder"),
		Type:     Ptr(Embedding),
		ModelID:  Ptr("tiny"),
		Endpoint: Ptr("http://embed.local"),
		APIKey:   Ptr("k"),
	})
	require.NoError(t, err)

	assert.Equal(t, "tiny", got.Model)
	assert.Equal(t, "http://embed.local", got.Endpoint)
	assert.Equal(t, "k", got.APIKey)

	vecs, err := k.Embed(context.Background(), "ab", "abcd")
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2}, {4}}, vecs)
}

func TestBuild_DefaultConnectorTalksToEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-local", r.Header.Get("Authorization"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "local-model", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("x-ratelimit-remaining-requests", "7")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"pong"}}],"usage":{"prompt_tokens":3,"completion_tokens":1}}`))
	}))
	defer srv.Close()

	k, err := Build(context.Background(), &Options{
		ModelID:  Ptr("local-model"),
		Endpoint: Ptr(srv.URL),
		APIKey:   Ptr("sk-local"),
		Type:     Ptr(Completion),
	})
	require.NoError(t, err)

	out, err := k.Complete(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", out)

	u := k.Usage()
	assert.Equal(t, 4, u.Tokens.Total())
	assert.Equal(t, 1, u.Requests)

	info := k.RateLimitInfo()
	require.NotNil(t, info)
	assert.Equal(t, 7, info.RemainingRequests)
}
