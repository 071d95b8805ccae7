package entitlement_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/warp/pcs-engine/entitlement"
)

func TestFiscalYear_Boundaries(t *testing.T) {
	// The federal fiscal year N runs Oct 1 of N-1 through Sep 30 of N.
	cases := []struct {
		date entitlement.Date
		want int
	}{
		{entitlement.NewDate(2025, time.September, 30), 2025},
		{entitlement.NewDate(2025, time.October, 1), 2026},
		{entitlement.NewDate(2025, time.December, 31), 2026},
		{entitlement.NewDate(2026, time.January, 1), 2026},
		{entitlement.NewDate(2026, time.June, 15), 2026},
	}
	for _, tc := range cases {
		if got := tc.date.FiscalYear(); got != tc.want {
			t.Errorf("%s: expected FY%d, got FY%d", tc.date, tc.want, got)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	a := entitlement.NewDate(2025, time.June, 1)
	b := entitlement.NewDate(2025, time.June, 5)

	if got := entitlement.DaysBetween(a, b); got != 4 {
		t.Errorf("expected 4 days, got %d", got)
	}
	if got := entitlement.DaysBetween(a, a); got != 0 {
		t.Errorf("expected 0 days for same date, got %d", got)
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	// Dates travel as "YYYY-MM-DD" strings in claim payloads.
	d := entitlement.NewDate(2025, time.June, 1)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-06-01"` {
		t.Errorf("expected \"2025-06-01\", got %s", data)
	}

	var back entitlement.Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip changed the date: %s vs %s", back, d)
	}
}
