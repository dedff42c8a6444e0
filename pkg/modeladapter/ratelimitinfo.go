package modeladapter

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitInfo is the provider's view of remaining quota, parsed from
// response headers. It is observational; nothing in this module throttles
// on it.
type RateLimitInfo struct {
	RemainingRequests int
	RemainingTokens   int
	RequestsReset     time.Time
	TokensReset       time.Time
}

// RateLimitHeaderParser extracts rate limit info from HTTP response headers.
// It receives the current time so callers can control the clock in tests.
type RateLimitHeaderParser func(h http.Header, now time.Time) *RateLimitInfo

// rateLimitHeaders names the four headers a provider uses.
type rateLimitHeaders struct {
	remainingRequests string
	remainingTokens   string
	resetRequests     string
	resetTokens       string
}

var (
	anthropicHeaders = rateLimitHeaders{
		remainingRequests: "anthropic-ratelimit-requests-remaining",
		remainingTokens:   "anthropic-ratelimit-tokens-remaining",
		resetRequests:     "anthropic-ratelimit-requests-reset",
		resetTokens:       "anthropic-ratelimit-tokens-reset",
	}
	openAIHeaders = rateLimitHeaders{
		remainingRequests: "x-ratelimit-remaining-requests",
		remainingTokens:   "x-ratelimit-remaining-tokens",
		resetRequests:     "x-ratelimit-reset-requests",
		resetTokens:       "x-ratelimit-reset-tokens",
	}
)

// ParseAnthropicRateLimitHeaders parses anthropic-ratelimit-* headers.
func ParseAnthropicRateLimitHeaders(h http.Header, now time.Time) *RateLimitInfo {
	return anthropicHeaders.parse(h, now)
}

// ParseOpenAIRateLimitHeaders parses x-ratelimit-* headers. Grok uses the
// same convention.
func ParseOpenAIRateLimitHeaders(h http.Header, now time.Time) *RateLimitInfo {
	return openAIHeaders.parse(h, now)
}

func (n rateLimitHeaders) parse(h http.Header, now time.Time) *RateLimitInfo {
	reqRemaining := h.Get(n.remainingRequests)
	tokRemaining := h.Get(n.remainingTokens)
	if reqRemaining == "" && tokRemaining == "" {
		return nil
	}

	info := &RateLimitInfo{
		RequestsReset: parseResetTime(h.Get(n.resetRequests), now),
		TokensReset:   parseResetTime(h.Get(n.resetTokens), now),
	}
	if v, err := strconv.Atoi(reqRemaining); err == nil {
		info.RemainingRequests = v
	}
	if v, err := strconv.Atoi(tokRemaining); err == nil {
		info.RemainingTokens = v
	}

	return info
}

// parseResetTime accepts RFC3339 timestamps or Go durations ("6s", "1m30s")
// relative to now.
func parseResetTime(val string, now time.Time) time.Time {
	if val == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t
	}
	if d, err := time.ParseDuration(val); err == nil {
		return now.Add(d)
	}
	return time.Time{}
}
