package dates

import (
	"testing"
	"time"
)

func pinToday(t *testing.T, day time.Time) {
	t.Helper()
	original := now
	now = func() time.Time { return day }
	t.Cleanup(func() { now = original })
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
		ok     bool
	}{
		{name: "iso", input: "2026-03-31", expect: "2026-03-31", ok: true},
		{name: "padded", input: "  2026-03-31 ", expect: "2026-03-31", ok: true},
		{name: "timestamp", input: "2026-03-31T23:00:00Z", expect: "2026-03-31", ok: true},
		{name: "long form", input: "March 31, 2026", expect: "2026-03-31", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "garbage", input: "rolling basis", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && got.Format(Layout) != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got.Format(Layout))
			}
		})
	}
}

func TestExpiryAndDaysUntil(t *testing.T) {
	pinToday(t, time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC))

	yesterday := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, 11, 17, 0, 0, 0, 0, time.UTC)

	if !IsExpired(yesterday) {
		t.Fatalf("yesterday must be expired")
	}
	if IsExpired(today) {
		t.Fatalf("today is not expired")
	}
	if IsExpired(time.Time{}) {
		t.Fatalf("zero date is never expired")
	}
	if got := DaysUntil(later); got != 30 {
		t.Fatalf("expected 30 days, got %d", got)
	}
	if got := DaysUntil(yesterday); got != -1 {
		t.Fatalf("expected -1 days, got %d", got)
	}
	if IsExpiredString("not a date") {
		t.Fatalf("unparseable dates are not expired")
	}
	if !IsExpiredString("2020-01-01") {
		t.Fatalf("expected 2020-01-01 to be expired")
	}
}
