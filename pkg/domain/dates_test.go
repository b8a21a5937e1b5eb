package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"15/02/2025", NewDate(2025, time.February, 15)},
		{"5/3/2025", NewDate(2025, time.March, 5)},
		{" 01/12/2024 ", NewDate(2024, time.December, 1)},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "2025-02-15", "31/02/2025", "15/13/2025"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseDate(%q) expected validation failure, got %v", bad, err)
		}
	}
}

func TestDateFormattingAndOrdering(t *testing.T) {
	d := NewDate(2025, time.March, 5)
	if d.String() != "05/03/2025" {
		t.Fatalf("unexpected format %q", d.String())
	}
	if (Date{}).String() != "" || !(Date{}).IsZero() {
		t.Fatalf("zero date must format empty")
	}
	next := d.AddDays(1)
	if !d.Before(next) || !next.After(d) || d.Compare(next) != -1 {
		t.Fatalf("ordering broken between %s and %s", d, next)
	}
	if !DateOf(time.Date(2025, time.March, 5, 23, 59, 0, 0, time.UTC)).Equal(d) {
		t.Fatalf("DateOf must drop time of day")
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		On Date `json:"on"`
	}
	raw, err := json.Marshal(wrapper{On: NewDate(2025, time.January, 9)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"on":"09/01/2025"}` {
		t.Fatalf("unexpected json %s", raw)
	}
	var back wrapper
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.On.Equal(NewDate(2025, time.January, 9)) {
		t.Fatalf("round trip mismatch: %s", back.On)
	}
	if err := json.Unmarshal([]byte(`{"on":""}`), &back); err != nil || !back.On.IsZero() {
		t.Fatalf("empty string should decode to zero date: %v %s", err, back.On)
	}
}
