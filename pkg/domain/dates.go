package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the persisted day/month/year format.
const DateLayout = "02/01/2006"

// parseLayout accepts unpadded day and month digits as well as padded ones.
const parseLayout = "2/1/2006"

// Date is a calendar day with no time-of-day or zone component.
type Date struct {
	t time.Time
}

// NewDate constructs a Date from calendar parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day in the timestamp's location.
func DateOf(ts time.Time) Date {
	y, m, d := ts.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a dd/MM/yyyy string.
func ParseDate(raw string) (Date, error) {
	ts, err := time.Parse(parseLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, NewValidation(fmt.Sprintf("invalid date %q: expected dd/MM/yyyy", raw))
	}
	return DateOf(ts), nil
}

// String formats the date as dd/MM/yyyy; the zero date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether both dates name the same day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int { return d.t.Compare(other.t) }

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.t }

// MarshalJSON encodes the date in the persisted text format.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a dd/MM/yyyy string; empty strings decode to the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
