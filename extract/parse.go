package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/olegkh/finassist/ledger"
)

// FallbackAnswer substitutes a missing answer field. Schema-constrained
// generation is not perfectly reliable in practice, so a repaired response is
// preferred over a failed turn.
const FallbackAnswer = "Processed your message."

// TurnResponse is the validated result of one extraction call. An empty
// Transactions slice is a meaningful "none detected" result, not an error.
type TurnResponse struct {
	Transactions []ledger.Transaction `json:"transactions"`
	Answer       string               `json:"answer"`
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

const payloadSlice = 200

// parseTurnResponse runs the deserialize-then-validate-then-repair pipeline
// over a raw model payload.
func parseTurnResponse(raw string) (*TurnResponse, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	candidates := []string{text}
	if s := extractFromCodeBlock(text); s != "" {
		candidates = append(candidates, s)
	}
	if s := extractJSONObject(text); s != "" {
		candidates = append(candidates, s)
	}

	var lastErr error
	for _, candidate := range candidates {
		resp, err := unmarshalAndRepair([]byte(candidate))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		// Validation failures are definitive; only malformed payloads are
		// worth another extraction attempt.
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
	}

	return nil, &MalformedResponseError{
		Head: head(text, payloadSlice),
		Tail: tail(text, payloadSlice),
		Err:  lastErr,
	}
}

func unmarshalAndRepair(data []byte) (*TurnResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	resp := &TurnResponse{Transactions: []ledger.Transaction{}}

	if rawTxs, ok := fields["transactions"]; ok && !isJSONNull(rawTxs) {
		if err := json.Unmarshal(rawTxs, &resp.Transactions); err != nil {
			return nil, err
		}
		if resp.Transactions == nil {
			resp.Transactions = []ledger.Transaction{}
		}
	}

	if rawAnswer, ok := fields["answer"]; ok && !isJSONNull(rawAnswer) {
		if err := json.Unmarshal(rawAnswer, &resp.Answer); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(resp.Answer) == "" {
		resp.Answer = FallbackAnswer
	}

	for _, t := range resp.Transactions {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func extractFromCodeBlock(text string) string {
	matches := codeBlockRe.FindStringSubmatch(text)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
