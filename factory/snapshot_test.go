package factory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/pcs-engine/entitlement"
	"github.com/warp/pcs-engine/factory"
	"github.com/warp/pcs-engine/reference"
)

// =============================================================================
// JSON LOADER
// =============================================================================

func TestLoadYear_PopulatesEveryTable(t *testing.T) {
	// GIVEN: A minimal one-year document
	// WHEN: Loading it into a fresh snapshot
	// THEN: Every table answers for that year in integer cents

	doc := `{
		"effective_year": 2025,
		"dla": [{"rank_group": "E-5", "dependency": "with", "amount": "2963.45"}],
		"mileage_rate_per_mile": "0.21",
		"per_diem": {
			"standard_conus": {"lodging_cap": "110.00", "mie": "68.00"},
			"localities": [{"zip": "80913", "lodging_cap": "126.00", "mie": "74.00"}]
		},
		"weight_allowance": [{"rank_group": "E-5", "dependency": "with", "lbs": 9000}],
		"gcc": {"linehaul_per_cwt_mile": "0.0062", "pack_per_cwt": "78.00"},
		"state_tax": {"CO": "0.044", "TX": "0"}
	}`

	snap := reference.NewSnapshot()
	if err := factory.LoadYear(snap, []byte(doc)); err != nil {
		t.Fatalf("load: %v", err)
	}

	dla, err := snap.DLARate("E-5", entitlement.WithDependents, 2025)
	if err != nil {
		t.Fatalf("dla: %v", err)
	}
	if dla != 296345 {
		t.Errorf("dla: expected 296345 cents, got %d", dla)
	}

	rate, err := snap.MileageRatePerMile(2025)
	if err != nil {
		t.Fatalf("mileage: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.21")) {
		t.Errorf("mileage: expected 0.21, got %s", rate)
	}

	locality, err := snap.PerDiemRate("80913", entitlement.NewDate(2025, time.June, 1))
	if err != nil {
		t.Fatalf("per diem: %v", err)
	}
	if locality.Daily() != 20000 {
		t.Errorf("locality per diem: expected 20000 cents/day, got %d", locality.Daily())
	}

	// A ZIP with no locality row gets the standard CONUS rate.
	standard, err := snap.PerDiemRate("11111", entitlement.NewDate(2025, time.June, 1))
	if err != nil {
		t.Fatalf("standard per diem: %v", err)
	}
	if standard.Daily() != 17800 {
		t.Errorf("standard per diem: expected 17800 cents/day, got %d", standard.Daily())
	}

	lbs, err := snap.WeightAllowanceLbs("E-5", entitlement.WithDependents, 2025)
	if err != nil {
		t.Fatalf("weight: %v", err)
	}
	if lbs != 9000 {
		t.Errorf("weight: expected 9000 lbs, got %d", lbs)
	}

	// 7200 lbs = 72 cwt: 0.0062x72x1000 + 78x72 = $6062.40
	gcc, err := snap.GCC(7200, 1000, 2025)
	if err != nil {
		t.Fatalf("gcc: %v", err)
	}
	if gcc != 606240 {
		t.Errorf("gcc: expected 606240 cents, got %d", gcc)
	}

	// Zero-rate row is present, not missing.
	tx, err := snap.StateTaxRate("TX", 2025)
	if err != nil {
		t.Fatalf("state tax: %v", err)
	}
	if !tx.IsZero() {
		t.Errorf("TX rate: expected explicit zero, got %s", tx)
	}
}

func TestLoadYear_RejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing year", `{"dla": []}`},
		{"bad dependency", `{"effective_year": 2025, "dla": [{"rank_group": "E-5", "dependency": "maybe", "amount": "1"}]}`},
		{"bad amount", `{"effective_year": 2025, "dla": [{"rank_group": "E-5", "dependency": "with", "amount": "a lot"}]}`},
		{"bad state rate", `{"effective_year": 2025, "state_tax": {"CO": "four percent"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := reference.NewSnapshot()
			if err := factory.LoadYear(snap, []byte(tc.doc)); err == nil {
				t.Error("expected a load error")
			}
		})
	}
}

// =============================================================================
// YEAR ISOLATION
// =============================================================================

func TestLoadYear_YearsStayIsolated(t *testing.T) {
	// GIVEN: FY2025 and FY2026 documents loaded into one snapshot
	// WHEN: Looking up each year
	// THEN: Each year answers with its own rate; a third year misses

	snap := reference.NewSnapshot()
	load := func(doc string) {
		t.Helper()
		if err := factory.LoadYear(snap, []byte(doc)); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	load(`{"effective_year": 2025, "mileage_rate_per_mile": "0.21"}`)
	load(`{"effective_year": 2026, "mileage_rate_per_mile": "0.22"}`)

	r25, err := snap.MileageRatePerMile(2025)
	if err != nil {
		t.Fatalf("2025: %v", err)
	}
	r26, err := snap.MileageRatePerMile(2026)
	if err != nil {
		t.Fatalf("2026: %v", err)
	}
	if r25.Equal(r26) {
		t.Error("years should carry independent rates")
	}

	if _, err := snap.MileageRatePerMile(2027); err == nil {
		t.Error("expected a miss for an unloaded year, not a neighboring year's rate")
	}
}

// =============================================================================
// DEMO SEED
// =============================================================================

func TestDemoSnapshot_SupportsDemoClaim(t *testing.T) {
	// GIVEN: The seeded demo snapshot and canned demo claim
	// WHEN: Looking up every table the demo claim touches
	// THEN: All lookups succeed

	snap := factory.DemoSnapshot()
	profile := factory.DemoProfile()
	input := factory.DemoInput()
	year := input.DepartureDate.FiscalYear()

	if _, err := snap.DLARate(profile.RankGroup, profile.DependencyStatus, year); err != nil {
		t.Errorf("dla: %v", err)
	}
	if _, err := snap.MileageRatePerMile(year); err != nil {
		t.Errorf("mileage: %v", err)
	}
	if _, err := snap.PerDiemRate(input.DestinationZIP, input.DepartureDate); err != nil {
		t.Errorf("per diem: %v", err)
	}
	if _, err := snap.WeightAllowanceLbs(profile.RankGroup, profile.DependencyStatus, year); err != nil {
		t.Errorf("weight: %v", err)
	}
	if _, err := snap.GCC(input.DeclaredWeightLbs, 1680, year); err != nil {
		t.Errorf("gcc: %v", err)
	}
	if _, err := snap.StateTaxRate(input.DestinationState, year); err != nil {
		t.Errorf("state tax: %v", err)
	}
}
