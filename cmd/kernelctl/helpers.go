package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/germanamz/kernelkit/pkg/kernel"
)

// renderMarkdown converts markdown to terminal output. It falls back to
// the raw text when rendering fails.
func renderMarkdown(text string, width int) string {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// fmtTokens formats a token count for display, using k/M suffixes.
func fmtTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// printUsage writes a one-line usage summary for k.
func printUsage(w io.Writer, k *kernel.Kernel) {
	u := k.Usage()
	line := fmt.Sprintf("%s · %s · in %s · out %s · %d request(s)",
		k.Provider(), k.ModelID(),
		fmtTokens(u.Tokens.InputTokens), fmtTokens(u.Tokens.OutputTokens), u.Requests)

	if info := k.RateLimitInfo(); info != nil {
		line += fmt.Sprintf(" · %d requests left", info.RemainingRequests)
	}

	fmt.Fprintln(w, dimStyle.Render(line))
}

// promptFrom joins args, or reads r when there are none.
func promptFrom(args []string, r io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}

	prompt := strings.TrimSpace(string(b))
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}
	return prompt, nil
}
