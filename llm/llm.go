package llm

import (
	"context"
	"time"
)

// Message is one chat message. Content carries plain text; Parts, when set,
// carries a multi-part payload (text plus images) and takes precedence.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Parts   []Part `json:"-"`
}

// Part is one element of a multi-part user message.
type Part struct {
	Type     string // "text" or "image_url"
	Text     string
	ImageURL string
}

// TextMessage builds a plain text message.
func TextMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// ImageMessage builds a user message carrying a base64-encoded JPEG plus an
// instruction text.
func ImageMessage(imageBase64, text string) Message {
	return Message{
		Role: "user",
		Parts: []Part{
			{Type: "image_url", ImageURL: "data:image/jpeg;base64," + imageBase64},
			{Type: "text", Text: text},
		},
	}
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Result struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

// Schema is a JSON-schema constraint attached to a completion request through
// the provider's response_format mechanism.
type Schema struct {
	Name   string
	Strict bool
	Schema map[string]any
}

type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	// ResponseSchema, when non-nil, constrains the response to the schema.
	ResponseSchema *Schema
}

type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
}
