package modeladapter

import (
	"sync"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/plugin"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// perMessageOverhead covers role markers and delimiters around each message.
	perMessageOverhead = 4
	// perFunctionOverhead covers the JSON wrapping of each function declaration.
	perFunctionOverhead = 10
	// defaultEncoding is used when the model has no registered tiktoken encoding.
	defaultEncoding = "cl100k_base"
)

var (
	encodingsMu sync.Mutex
	encodings   = map[string]*tiktoken.Tiktoken{}
)

// encodingFor returns the tiktoken encoding for model, or nil when the BPE
// tables cannot be loaded (e.g. offline).
func encodingFor(model string) *tiktoken.Tiktoken {
	encodingsMu.Lock()
	defer encodingsMu.Unlock()

	if enc, ok := encodings[model]; ok {
		return enc
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
	}
	if err != nil {
		enc = nil
	}

	encodings[model] = enc
	return enc
}

// TokenEstimator counts prompt tokens before a call. It uses the model's
// tiktoken encoding when available and otherwise falls back to roughly one
// token per four characters.
type TokenEstimator struct {
	Model     string
	Heuristic bool // Skip tiktoken and always use the character heuristic.
}

// CountText returns the token count of s.
func (e TokenEstimator) CountText(s string) int {
	if s == "" {
		return 0
	}
	if !e.Heuristic {
		if enc := encodingFor(e.Model); enc != nil {
			return len(enc.Encode(s, nil, nil))
		}
	}
	return (len(s) + 3) / 4
}

// EstimateHistory estimates the input tokens for a chat history, including
// function calls and results.
func (e TokenEstimator) EstimateHistory(h *chathistory.History) int {
	tokens := 0

	h.Each(func(_ int, m chathistory.Message) bool {
		tokens += perMessageOverhead

		for _, p := range m.Parts {
			switch v := p.(type) {
			case chathistory.Text:
				tokens += e.CountText(v.Text)
			case chathistory.FunctionCall:
				tokens += e.CountText(v.Name + v.Arguments)
			case chathistory.FunctionResult:
				tokens += e.CountText(v.Content)
			}
		}

		return true
	})

	return tokens
}

// EstimateFunctions estimates the cost of declaring fns to the model.
func (e TokenEstimator) EstimateFunctions(fns []plugin.Function) int {
	tokens := 0
	for _, f := range fns {
		tokens += e.CountText(f.Name+f.Description+string(f.Schema())) + perFunctionOverhead
	}
	return tokens
}

// Estimate is the total input estimate for a history plus declared functions.
func (e TokenEstimator) Estimate(h *chathistory.History, fns []plugin.Function) int {
	return e.EstimateHistory(h) + e.EstimateFunctions(fns)
}
