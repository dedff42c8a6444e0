// Package modeladapter holds what every provider connector shares: the
// HTTP base struct with auth and JSON helpers, generation settings, the
// capability interfaces a kernel dispatches to, token usage accounting,
// token estimation, and parsers for provider rate limit headers.
//
// It contains no provider-specific request formats; those live under
// [github.com/germanamz/kernelkit/pkg/providers].
package modeladapter
