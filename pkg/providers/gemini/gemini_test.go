package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, wantPath string, handler func(t *testing.T, body []byte) any) *Adapter {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantPath, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler(t, raw))
	}))
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", "test-key", "gemini-2.0-flash")
}

func TestComplete_Text(t *testing.T) {
	a := newTestAdapter(t, "/v1beta/models/gemini-2.0-flash:generateContent", func(t *testing.T, body []byte) any {
		var req generateRequest
		require.NoError(t, json.Unmarshal(body, &req))

		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "Be terse.", req.SystemInstruction.Parts[0].Text)
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Nil(t, req.GenerationConfig.Temperature)
		assert.Zero(t, req.GenerationConfig.MaxOutputTokens)
		assert.Empty(t, req.Tools)

		return map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": "Hi."}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 7, "candidatesTokenCount": 2},
		}
	})

	h := chathistory.New()
	h.AddSystem("Be terse.")
	h.AddUser("Hello")

	msg, err := a.Complete(context.Background(), h, nil)
	require.NoError(t, err)
	assert.Equal(t, chathistory.Assistant, msg.Role)
	assert.Equal(t, "Hi.", msg.TextContent())
	assert.Equal(t, 9, a.UsageTracker().Total().Total())
	assert.Nil(t, a.LastRateLimitInfo())
}

func TestComplete_FunctionCallRoundTrip(t *testing.T) {
	temp := 0.0
	a := newTestAdapter(t, "/v1beta/models/gemini-2.0-flash:generateContent", func(t *testing.T, body []byte) any {
		var req generateRequest
		require.NoError(t, json.Unmarshal(body, &req))

		require.NotNil(t, req.GenerationConfig.Temperature)
		assert.InDelta(t, 0.0, *req.GenerationConfig.Temperature, 0)
		assert.Equal(t, 256, req.GenerationConfig.MaxOutputTokens)

		require.Len(t, req.Tools, 1)
		decl := req.Tools[0].FunctionDeclarations[0]
		assert.Equal(t, "clock-now", decl.Name)
		assert.NotContains(t, string(decl.Parameters), "additionalProperties")

		// user, model(call), user(result)
		require.Len(t, req.Contents, 3)
		call := req.Contents[1].Parts[0]
		require.NotNil(t, call.FunctionCall)
		assert.Equal(t, "sig-1", call.ThoughtSignature)

		resp := req.Contents[2].Parts[0].FunctionResponse
		require.NotNil(t, resp)
		assert.Equal(t, "clock-now", resp.Name)
		assert.JSONEq(t, `{"result":"12:00"}`, string(resp.Response))

		return map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"role": "model", "parts": []map[string]any{
					{"functionCall": map[string]any{"name": "clock-now", "args": map[string]any{"tz": "UTC"}}, "thoughtSignature": "sig-2"},
				}},
			}},
		}
	})
	a.Temperature = &temp
	a.MaxTokens = 256

	h := chathistory.New()
	h.AddUser("time?")
	h.Append(chathistory.NewMessage("", chathistory.Assistant, chathistory.FunctionCall{
		ID: "call_1", Name: "clock-now", Arguments: `{}`,
		Metadata: map[string]string{thoughtSignatureKey: "sig-1"},
	}))
	// Name omitted; recovered from the call.
	h.Append(chathistory.NewMessage("", chathistory.Tool, chathistory.FunctionResult{CallID: "call_1", Content: "12:00"}))

	fns := []plugin.Function{{
		Name:       "clock-now",
		Parameters: json.RawMessage(`{"type":"object","additionalProperties":false,"properties":{"tz":{"type":"string"}}}`),
	}}

	msg, err := a.Complete(context.Background(), h, fns)
	require.NoError(t, err)

	calls := msg.FunctionCalls()
	require.Len(t, calls, 1)
	assert.True(t, strings.HasPrefix(calls[0].ID, "call_"))
	assert.Equal(t, "clock-now", calls[0].Name)
	assert.JSONEq(t, `{"tz":"UTC"}`, calls[0].Arguments)
	assert.Equal(t, "sig-2", calls[0].Metadata[thoughtSignatureKey])
}

func TestComplete_EmptyCandidates(t *testing.T) {
	a := newTestAdapter(t, "/v1beta/models/gemini-2.0-flash:generateContent", func(*testing.T, []byte) any {
		return map[string]any{"candidates": []any{}}
	})

	_, err := a.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty candidates")
}

func TestEmbed(t *testing.T) {
	a := newTestAdapter(t, "/v1beta/models/gemini-2.0-flash:batchEmbedContents", func(t *testing.T, body []byte) any {
		var req batchEmbedRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Len(t, req.Requests, 2)
		assert.Equal(t, "models/gemini-2.0-flash", req.Requests[0].Model)
		assert.Equal(t, "b", req.Requests[1].Content.Parts[0].Text)

		return map[string]any{"embeddings": []map[string]any{
			{"values": []float32{0.1, 0.2}},
			{"values": []float32{0.3, 0.4}},
		}}
	})

	vecs, err := a.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vecs)
}

func TestWrapResult(t *testing.T) {
	assert.JSONEq(t, `{"result":{"ok":true}}`, string(wrapResult(`{"ok":true}`)))
	assert.JSONEq(t, `{"result":"plain"}`, string(wrapResult("plain")))
	assert.JSONEq(t, `{"result":""}`, string(wrapResult("")))
}

func TestSanitizeSchema(t *testing.T) {
	in := json.RawMessage(`{"$schema":"x","type":"object","properties":{"list":{"type":"array","items":{"type":"object","additionalProperties":true}}}}`)
	out := string(sanitizeSchema(in))

	assert.NotContains(t, out, "$schema")
	assert.NotContains(t, out, "additionalProperties")
	assert.Contains(t, out, `"items"`)
}
