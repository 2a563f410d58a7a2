// Package extract turns free-form user content into structured transactions
// by calling a chat completion endpoint under a JSON-schema constraint and
// repairing the payloads that come back slightly broken.
package extract

import (
	"context"
	"log/slog"

	"github.com/olegkh/finassist/ledger"
	"github.com/olegkh/finassist/llm"
)

// Content is the new user content of one turn: plain text, or text plus a
// base64-encoded image.
type Content struct {
	Text        string
	ImageBase64 string
}

// historyCap bounds how many trailing history messages are sent upstream.
const historyCap = ledger.HistoryCap

type Extractor struct {
	client       llm.Client
	model        string
	systemPrompt string
	logger       *slog.Logger
}

func New(client llm.Client, model, systemPrompt string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// Extract runs one schema-constrained completion call: system prompt, the
// trailing history, then the new user content. Remote failures come back as
// *TransportError; payload problems as ErrEmptyResponse,
// *MalformedResponseError or *ledger.ValidationError.
func (e *Extractor) Extract(ctx context.Context, history []ledger.Message, content Content) (*TurnResponse, error) {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.TextMessage(ledger.RoleSystem, e.systemPrompt))
	start := 0
	if len(history) > historyCap {
		start = len(history) - historyCap
	}
	for _, m := range history[start:] {
		msgs = append(msgs, llm.TextMessage(m.Role, m.Content))
	}
	if content.ImageBase64 != "" {
		msgs = append(msgs, llm.ImageMessage(content.ImageBase64, content.Text))
	} else {
		msgs = append(msgs, llm.TextMessage(ledger.RoleUser, content.Text))
	}

	res, err := e.client.Chat(ctx, llm.Request{
		Model:          e.model,
		Messages:       msgs,
		Temperature:    0,
		ResponseSchema: ResponseSchema(),
	})
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	e.logger.Debug("extract_raw_response", "model", e.model, "chars", len(res.Text), "tokens", res.Usage.TotalTokens)

	resp, err := parseTurnResponse(res.Text)
	if err != nil {
		if merr, ok := err.(*MalformedResponseError); ok {
			e.logger.Error("extract_malformed_response",
				"model", e.model,
				"chars", len(res.Text),
				"head", merr.Head,
				"tail", merr.Tail,
				"error", merr.Err,
			)
		}
		return nil, err
	}

	e.logger.Info("extract_ok", "model", e.model, "transactions", len(resp.Transactions))
	return resp, nil
}
