// Package usage accumulates token and request counts reported by connectors.
package usage

import "sync"

// TokenCount holds input and output token counts for a single call.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Add returns the element-wise sum of tc and o.
func (tc TokenCount) Add(o TokenCount) TokenCount {
	return TokenCount{
		InputTokens:  tc.InputTokens + o.InputTokens,
		OutputTokens: tc.OutputTokens + o.OutputTokens,
	}
}

// Tracker accumulates usage across calls. The zero value is ready to use
// and it is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	last     TokenCount
	total    TokenCount
	calls    int
	requests int
}

// Add records the token count of one completed call.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = tc
	t.total = t.total.Add(tc)
	t.calls++
}

// AddRequest counts one HTTP round trip, successful or not.
func (t *Tracker) AddRequest() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.requests++
}

// Last returns the most recent token count; false when nothing was recorded.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.calls > 0
}

// Total returns the aggregate token count.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Count returns the number of calls with recorded token counts.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls
}

// Requests returns the number of HTTP round trips.
func (t *Tracker) Requests() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.requests
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = TokenCount{}
	t.total = TokenCount{}
	t.calls = 0
	t.requests = 0
}
