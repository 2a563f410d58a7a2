package ledger

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		Date:        NewDate(2024, time.January, 1),
		Time:        NewTimeOfDay(12, 30),
		Kind:        KindExpense,
		Amount:      500,
		Frequency:   FrequencyOneTime,
		Category:    "такси",
		Description: "поездка",
	}
}

func TestTransactionValidateOK(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected valid transaction, got %v", err)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	in := validTransaction()
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Transaction
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("round trip changed transaction:\n in: %+v\nout: %+v", in, out)
	}
}

func TestTransactionRejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []float64{0, -1, -500.25} {
		tx := validTransaction()
		tx.Amount = amount
		err := tx.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("amount %v: expected ValidationError, got %v", amount, err)
			continue
		}
		if verr.Field != "amount" {
			t.Errorf("amount %v: expected field amount, got %s", amount, verr.Field)
		}
	}
}

func TestTransactionRejectsUnknownEnums(t *testing.T) {
	tx := validTransaction()
	tx.Kind = "Income" // case-sensitive
	if err := tx.Validate(); err == nil {
		t.Error("expected error for unknown kind")
	}

	tx = validTransaction()
	tx.Frequency = "weekly"
	if err := tx.Validate(); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

func TestTransactionUnmarshalBadDate(t *testing.T) {
	var tx Transaction
	err := json.Unmarshal([]byte(`{"date":"01.02.2024","type":"expense","amount":1,"frequency":"one_time","category":"x","description":""}`), &tx)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for bad date, got %v", err)
	}
	if verr.Field != "date" {
		t.Errorf("expected field date, got %s", verr.Field)
	}
}

func TestTimeOfDayOptional(t *testing.T) {
	var tx Transaction
	raw := `{"date":"2024-01-01","time":null,"type":"income","amount":10,"frequency":"daily","category":"salary","description":""}`
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !tx.Time.IsZero() {
		t.Errorf("expected unset time, got %v", tx.Time)
	}
	if err := tx.Validate(); err != nil {
		t.Errorf("expected valid transaction without time, got %v", err)
	}
}

func TestTimeOfDayFormats(t *testing.T) {
	var tod TimeOfDay
	if err := json.Unmarshal([]byte(`"09:15"`), &tod); err != nil {
		t.Fatalf("parse 09:15: %v", err)
	}
	if tod.Hour != 9 || tod.Minute != 15 {
		t.Errorf("got %v", tod)
	}
	if err := json.Unmarshal([]byte(`"23:59:58"`), &tod); err != nil {
		t.Fatalf("parse 23:59:58: %v", err)
	}
	if tod.Second != 58 {
		t.Errorf("got %v", tod)
	}
	if err := json.Unmarshal([]byte(`"25:99"`), &tod); err == nil {
		t.Error("expected error for invalid clock time")
	}
}

func TestSigned(t *testing.T) {
	tx := validTransaction()
	if got := tx.Signed(); got != -500 {
		t.Errorf("expense signed = %v, want -500", got)
	}
	tx.Kind = KindIncome
	if got := tx.Signed(); got != 500 {
		t.Errorf("income signed = %v, want 500", got)
	}
}
