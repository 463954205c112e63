// Package summarize runs the per-chunk summarization hand-off.
//
// A Summarizer sends every transcript chunk to a chat-completion backend
// under a bulkhead and retry policy and returns the summaries in chunk
// order. Backends implement provider.RequestResponse over CompletionRequest
// and are built by id from a Registry:
//
//   - openai, groq: OpenAI-compatible chat completions via go-openai
//   - ollama: Ollama's native /api/chat endpoint
package summarize
