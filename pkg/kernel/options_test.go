package kernel

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func fullOptions() *Options {
	return &Options{
		ModelID:           Ptr("gpt-4o"),
		Endpoint:          Ptr("https://api.openai.com"),
		APIKey:            Ptr("sk-test-123456789"),
		Type:              Ptr(Embedding),
		Provider:          Ptr("openai"),
		RequestsPerSecond: Ptr(1),
		RequestsPerMinute: Ptr(60),
		RequestsPerDay:    Ptr(1000),
		TokensPerDay:      Ptr(1_000_000),
		TokensPerMinute:   Ptr(40_000),
		MaxTokens:         Ptr(256),
		Temperature:       Ptr(0.7),
	}
}

var ignoreHooks = cmpopts.IgnoreFields(Options{}, "ConfigureKernel", "KernelFactory", "ConfigureBuilder")

func TestOptions_ReadBackEqualsWrite(t *testing.T) {
	opts := fullOptions()

	assert.Equal(t, "gpt-4o", *opts.ModelID)
	assert.Equal(t, "https://api.openai.com", *opts.Endpoint)
	assert.Equal(t, "sk-test-123456789", *opts.APIKey)
	assert.Equal(t, Embedding, *opts.Type)
	assert.Equal(t, 1, *opts.RequestsPerSecond)
	assert.Equal(t, 60, *opts.RequestsPerMinute)
	assert.Equal(t, 1000, *opts.RequestsPerDay)
	assert.Equal(t, 1_000_000, *opts.TokensPerDay)
	assert.Equal(t, 40_000, *opts.TokensPerMinute)
	assert.Equal(t, 256, *opts.MaxTokens)
	assert.InDelta(t, 0.7, *opts.Temperature, 0)

	// Out-of-range temperature is kept as is.
	opts.Temperature = Ptr(3.5)
	assert.InDelta(t, 3.5, *opts.Temperature, 0)
}

func TestOptions_JSONFieldNames(t *testing.T) {
	opts := fullOptions()
	opts.ConfigureBuilder = func(Builder) {}

	data, err := json.Marshal(opts)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{
		"modelId", "endpoint", "apiKey", "type", "provider",
		"requestsPerSecond", "requestsPerMinute", "requestsPerDay",
		"tokensPerDay", "tokensPerMinute", "maxTokens", "temperature",
	} {
		assert.Contains(t, raw, key)
	}
	assert.Len(t, raw, 12)
	assert.Equal(t, "embedding", raw["type"])

	var back Options
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Empty(t, cmp.Diff(fullOptions(), &back, ignoreHooks))
}

func TestOptions_YAMLRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(fullOptions())
	require.NoError(t, err)
	assert.Contains(t, string(data), "modelId: gpt-4o")
	assert.Contains(t, string(data), "type: embedding")
	assert.NotContains(t, string(data), "configure")

	var back Options
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Empty(t, cmp.Diff(fullOptions(), &back, ignoreHooks))
}

func TestOptions_EmptySerializesEmpty(t *testing.T) {
	data, err := json.Marshal(&Options{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestOptions_Clone(t *testing.T) {
	opts := fullOptions()
	opts.ConfigureBuilder = func(Builder) {}

	c := opts.Clone()
	assert.Empty(t, cmp.Diff(opts, c, ignoreHooks))
	assert.NotNil(t, c.ConfigureBuilder)

	*c.ModelID = "changed"
	*c.MaxTokens = 1
	assert.Equal(t, "gpt-4o", *opts.ModelID)
	assert.Equal(t, 256, *opts.MaxTokens)

	var nilOpts *Options
	assert.Nil(t, nilOpts.Clone())
}

func TestOptions_Generation(t *testing.T) {
	s := fullOptions().Generation()
	assert.Equal(t, "gpt-4o", s.Model)
	assert.Equal(t, 256, s.MaxTokens)
	require.NotNil(t, s.Temperature)
	assert.InDelta(t, 0.7, *s.Temperature, 0)

	empty := (&Options{}).Generation()
	assert.Empty(t, empty.Model)
	assert.Zero(t, empty.MaxTokens)
	assert.Nil(t, empty.Temperature)
}

func TestOptions_Limits(t *testing.T) {
	l := fullOptions().Limits()
	assert.False(t, l.IsZero())
	assert.Equal(t, 60, *l.RequestsPerMinute)
	assert.Equal(t, 40_000, *l.TokensPerMinute)

	assert.True(t, (&Options{}).Limits().IsZero())
}

func TestOptions_Redacted(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"sk-test-123456789", "****6789"},
		{"short", "****"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			opts := &Options{APIKey: Ptr(tt.key)}
			r := opts.Redacted()
			assert.Equal(t, tt.want, *r.APIKey)
			assert.Equal(t, tt.key, *opts.APIKey)
		})
	}

	assert.Nil(t, (&Options{}).Redacted().APIKey)
}
