package extract

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/olegkh/finassist/ledger"
)

const goodPayload = `{"transactions":[{"date":"2024-01-01","time":null,"type":"expense","amount":500,"frequency":"one_time","category":"такси","description":""}],"answer":"Записал расход на такси."}`

func TestParseGoodPayload(t *testing.T) {
	resp, err := parseTurnResponse(goodPayload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(resp.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(resp.Transactions))
	}
	tx := resp.Transactions[0]
	if tx.Kind != ledger.KindExpense || tx.Amount != 500 || tx.Category != "такси" {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	if resp.Answer != "Записал расход на такси." {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestParseMissingTransactionsIsEmptyNotError(t *testing.T) {
	resp, err := parseTurnResponse(`{"answer":"ничего не нашёл"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.Transactions == nil || len(resp.Transactions) != 0 {
		t.Errorf("expected empty transactions slice, got %#v", resp.Transactions)
	}
}

func TestParseMissingAnswerGetsFallback(t *testing.T) {
	resp, err := parseTurnResponse(`{"transactions":[]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.Answer != FallbackAnswer {
		t.Errorf("answer = %q, want fallback", resp.Answer)
	}
}

func TestParseNullFieldsRepaired(t *testing.T) {
	resp, err := parseTurnResponse(`{"transactions":null,"answer":null}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(resp.Transactions) != 0 || resp.Answer != FallbackAnswer {
		t.Errorf("unexpected repair result: %+v", resp)
	}
}

func TestParseEmptyPayload(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		if _, err := parseTurnResponse(raw); !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("payload %q: expected ErrEmptyResponse, got %v", raw, err)
		}
	}
}

func TestParseGarbageIsMalformed(t *testing.T) {
	long := strings.Repeat("x", 600)
	_, err := parseTurnResponse(long)
	var merr *MalformedResponseError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if len(merr.Head) != 200 || len(merr.Tail) != 200 {
		t.Errorf("expected 200-char head/tail slices, got %d/%d", len(merr.Head), len(merr.Tail))
	}
}

func TestParseMalformedSlicesKeepRunesIntact(t *testing.T) {
	cases := []string{
		"a" + strings.Repeat("б", 600), // head boundary lands mid-rune
		strings.Repeat("б", 600) + "a", // tail boundary lands mid-rune
	}
	for _, raw := range cases {
		_, err := parseTurnResponse(raw)
		var merr *MalformedResponseError
		if !errors.As(err, &merr) {
			t.Fatalf("expected MalformedResponseError, got %v", err)
		}
		if !utf8.ValidString(merr.Head) || !utf8.ValidString(merr.Tail) {
			t.Errorf("head/tail split a rune: head=%q tail=%q", merr.Head, merr.Tail)
		}
	}
}

func TestParseCodeFenceFallback(t *testing.T) {
	raw := "Here is the result:\n```json\n" + goodPayload + "\n```\nDone."
	resp, err := parseTurnResponse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(resp.Transactions) != 1 {
		t.Errorf("transactions = %d, want 1", len(resp.Transactions))
	}
}

func TestParseBraceExtractionFallback(t *testing.T) {
	raw := "Sure! " + goodPayload + " hope that helps"
	resp, err := parseTurnResponse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.Answer != "Записал расход на такси." {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestParseNonPositiveAmountIsValidationError(t *testing.T) {
	raw := `{"transactions":[{"date":"2024-01-01","time":null,"type":"expense","amount":0,"frequency":"one_time","category":"x","description":""}],"answer":"ok"}`
	_, err := parseTurnResponse(raw)
	var verr *ledger.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "amount" {
		t.Errorf("field = %s, want amount", verr.Field)
	}
}

func TestParseUnknownKindIsValidationError(t *testing.T) {
	raw := `{"transactions":[{"date":"2024-01-01","time":null,"type":"transfer","amount":10,"frequency":"one_time","category":"x","description":""}],"answer":"ok"}`
	_, err := parseTurnResponse(raw)
	var verr *ledger.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
