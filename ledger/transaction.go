package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

func (k Kind) Validate() error {
	switch k {
	case KindIncome, KindExpense:
		return nil
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", string(k))}
	}
}

type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyPeriodic Frequency = "periodic"
	FrequencyOneTime  Frequency = "one_time"
)

func (f Frequency) Validate() error {
	switch f {
	case FrequencyDaily, FrequencyPeriodic, FrequencyOneTime:
		return nil
	default:
		return &ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", string(f))}
	}
}

// ValidationError reports a transaction field that failed construction.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction field %s: %s", e.Field, e.Reason)
}

const dateLayout = "2006-01-02"

// Date is a calendar date serialized as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &ValidationError{Field: "date", Reason: "not a string"}
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return &ValidationError{Field: "date", Reason: fmt.Sprintf("cannot parse %q as %s", s, dateLayout)}
	}
	d.Time = t
	return nil
}

// TimeOfDay is an optional clock time serialized as "15:04" or "15:04:05".
type TimeOfDay struct {
	Hour, Minute, Second int
	set                  bool
}

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, set: true}
}

func (t TimeOfDay) IsZero() bool { return !t.set }

func (t TimeOfDay) String() string {
	if t.Second > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	if !t.set {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = TimeOfDay{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &ValidationError{Field: "time", Reason: "not a string"}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*t = TimeOfDay{}
		return nil
	}
	parsed, err := time.Parse("15:04:05", s)
	if err != nil {
		parsed, err = time.Parse("15:04", s)
	}
	if err != nil {
		return &ValidationError{Field: "time", Reason: fmt.Sprintf("cannot parse %q as clock time", s)}
	}
	*t = TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute(), Second: parsed.Second(), set: true}
	return nil
}

// Transaction is one financial event extracted from a user turn. Immutable
// once constructed; owned by the conversation it was extracted for.
type Transaction struct {
	Date        Date      `json:"date"`
	Time        TimeOfDay `json:"time,omitempty"`
	Kind        Kind      `json:"type"`
	Amount      float64   `json:"amount"`
	Frequency   Frequency `json:"frequency"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if t.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must be > 0, got %v", t.Amount)}
	}
	if err := t.Frequency.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	return nil
}

// Signed returns the amount with income positive and expense negative.
func (t Transaction) Signed() float64 {
	if t.Kind == KindExpense {
		return -t.Amount
	}
	return t.Amount
}
