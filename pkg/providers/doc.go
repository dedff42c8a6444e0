// Package providers groups the HTTP connectors a kernel can attach:
//   - [github.com/germanamz/kernelkit/pkg/providers/openai]: chat, text, embeddings and images for OpenAI and OpenAI-compatible APIs (Grok)
//   - [github.com/germanamz/kernelkit/pkg/providers/anthropic]: chat and text over the Messages API
//   - [github.com/germanamz/kernelkit/pkg/providers/gemini]: chat, text and embeddings over the Gemini API
//
// Every connector embeds [github.com/germanamz/kernelkit/pkg/modeladapter.ModelAdapter].
package providers
