// Package gemini connects kernels to the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/modeladapter"
	"github.com/germanamz/kernelkit/pkg/modeladapter/usage"
	"github.com/germanamz/kernelkit/pkg/plugin"
)

// DefaultBaseURL is the public Gemini API.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// thoughtSignatureKey is the FunctionCall metadata key that carries Gemini's
// opaque thought signature between turns.
const thoughtSignatureKey = "thoughtSignature"

var (
	_ modeladapter.ChatCompleter = (*Adapter)(nil)
	_ modeladapter.TextGenerator = (*Adapter)(nil)
	_ modeladapter.Embedder      = (*Adapter)(nil)
)

// Adapter implements chat, text and embeddings for Gemini models.
// Gemini does not return rate limit headers, so HeaderParser stays nil.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter. The baseURL has no trailing slash.
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.BaseURL = strings.TrimSuffix(baseURL, "/")
	a.Auth = modeladapter.Auth{Key: apiKey, Header: "x-goog-api-key"}
	a.Model = model

	return a
}

func (a *Adapter) modelPath(method string) string {
	return fmt.Sprintf("/v1beta/models/%s:%s", a.Model, method)
}

// Complete sends the history to generateContent.
func (a *Adapter) Complete(ctx context.Context, h *chathistory.History, fns []plugin.Function) (chathistory.Message, error) {
	var resp generateResponse
	if err := a.PostJSON(ctx, a.modelPath("generateContent"), a.buildRequest(h, fns), &resp); err != nil {
		return chathistory.Message{}, fmt.Errorf("gemini: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return chathistory.Message{}, fmt.Errorf("gemini: empty candidates in response")
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	})

	return parseCandidate(resp.Candidates[0]), nil
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

// Embed calls batchEmbedContents with one request per input.
func (a *Adapter) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	req := batchEmbedRequest{Requests: make([]embedRequest, len(inputs))}
	for i, in := range inputs {
		req.Requests[i] = embedRequest{
			Model:   "models/" + a.Model,
			Content: apiContent{Parts: []apiPart{{Text: in}}},
		}
	}

	var resp batchEmbedResponse
	if err := a.PostJSON(ctx, a.modelPath("batchEmbedContents"), req, &resp); err != nil {
		return nil, fmt.Errorf("gemini: embeddings: %w", err)
	}

	if len(resp.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("gemini: embeddings: got %d vectors for %d inputs", len(resp.Embeddings), len(inputs))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}

	return out, nil
}

// --- wire types ---

type generateRequest struct {
	Contents          []apiContent     `json:"contents"`
	SystemInstruction *apiContent      `json:"systemInstruction,omitempty"`
	Tools             []apiToolSet     `json:"tools,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text             string           `json:"text,omitempty"`
	FunctionCall     *apiFunctionCall `json:"functionCall,omitempty"`
	FunctionResponse *apiFunctionResp `json:"functionResponse,omitempty"`
	ThoughtSignature string           `json:"thoughtSignature,omitempty"`
}

type apiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type apiFunctionResp struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

type apiToolSet struct {
	FunctionDeclarations []apiFuncDecl `json:"functionDeclarations"`
}

type apiFuncDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type candidate struct {
	Content      apiContent `json:"content"`
	FinishReason string     `json:"finishReason"`
}

type generateResponse struct {
	Candidates    []candidate `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type embedRequest struct {
	Model   string     `json:"model"`
	Content apiContent `json:"content"`
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}
