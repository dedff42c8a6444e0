package modeladapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/germanamz/kernelkit/pkg/modeladapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest_Auth(t *testing.T) {
	tests := []struct {
		name   string
		auth   modeladapter.Auth
		header string
		want   string
	}{
		{"bearer default", modeladapter.Auth{Key: "sk-test"}, "Authorization", "Bearer sk-test"},
		{"custom header", modeladapter.Auth{Key: "sk-test", Header: "x-api-key"}, "x-api-key", "sk-test"},
		{"custom header and scheme", modeladapter.Auth{Key: "sk-test", Header: "x-api-key", Scheme: "Token"}, "x-api-key", "Token sk-test"},
		{"no key", modeladapter.Auth{}, "Authorization", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := modeladapter.New("https://api.example.com", tt.auth, nil)

			req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/chat", nil)
			require.NoError(t, err)
			assert.Equal(t, "https://api.example.com/v1/chat", req.URL.String())
			assert.Equal(t, tt.want, req.Header.Get(tt.header))
		})
	}
}

func TestNewRequest_ExtraHeaders(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)
	a.Headers = map[string]string{"anthropic-version": "2023-06-01"}

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/messages", nil)
	require.NoError(t, err)
	assert.Equal(t, "2023-06-01", req.Header.Get("anthropic-version"))
}

func TestPostJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "gpt-4o", got["model"])

		w.Header().Set("x-ratelimit-remaining-requests", "99")
		w.Header().Set("x-ratelimit-reset-requests", "2s")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "chatcmpl-1"})
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{Key: "sk"}, srv.Client())
	a.HeaderParser = modeladapter.ParseOpenAIRateLimitHeaders

	var dest map[string]string
	require.NoError(t, a.PostJSON(context.Background(), "/v1/chat/completions", map[string]string{"model": "gpt-4o"}, &dest))

	assert.Equal(t, "chatcmpl-1", dest["id"])
	assert.Equal(t, 1, a.Usage.Requests())

	info := a.LastRateLimitInfo()
	require.NotNil(t, info)
	assert.Equal(t, 99, info.RemainingRequests)
}

func TestPostJSON_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	err := a.PostJSON(context.Background(), "/v1/chat", map[string]string{}, nil)
	assert.ErrorContains(t, err, "unexpected status 401")
	assert.Nil(t, a.LastRateLimitInfo())
}

func TestPostJSON_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	err := a.PostJSON(context.Background(), "/v1/chat", map[string]string{}, nil)

	var rle *modeladapter.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, 7*time.Second, rle.RetryAfter)
	assert.Equal(t, "slow down", rle.Body)
	assert.Equal(t, "rate limited (retry after 7s): slow down", rle.Error())
}

func TestPostJSON_MarshalError(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)

	err := a.PostJSON(context.Background(), "/v1/chat", make(chan int), nil)
	assert.ErrorContains(t, err, "marshal payload")
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), modeladapter.ParseRetryAfter(""))
	assert.Equal(t, 3*time.Second, modeladapter.ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), modeladapter.ParseRetryAfter("soon"))
	assert.Equal(t, time.Duration(0), modeladapter.ParseRetryAfter(time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)))
}
