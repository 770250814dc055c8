// Package llm classifies waste photos with Gemini vision models. It talks to
// either the Gemini REST API or Vertex AI and adds retry, rate limiting and
// result caching on top.
package llm
