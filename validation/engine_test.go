package validation_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/warp/pcs-engine/claim"
	"github.com/warp/pcs-engine/distance"
	"github.com/warp/pcs-engine/entitlement"
	"github.com/warp/pcs-engine/validation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cleanRecord is a claim that passes every default rule: dates ordered and
// inside the orders window, weight within allowance, mileage within
// tolerance, a lodging receipt per night, fresh tables.
func cleanRecord() *claim.Record {
	rec := claim.NewRecord(
		entitlement.ServiceProfile{
			RankGroup:        "E-5",
			DependencyStatus: entitlement.WithDependents,
		},
		entitlement.ClaimInput{
			Origin:            "Fort Bragg",
			Destination:       "Fort Carson",
			DestinationZIP:    "80913",
			DepartureDate:     entitlement.NewDate(2025, time.June, 1),
			ArrivalDate:       entitlement.NewDate(2025, time.June, 3),
			DeclaredWeightLbs: 7200,
			MoveMode:          entitlement.MovePPM,
			OrdersIssueDate:   entitlement.NewDate(2025, time.April, 15),
			ReportNoLaterThan: entitlement.NewDate(2025, time.June, 30),
		},
	)
	rec.Entitlements = &entitlement.EntitlementResult{
		WeightAllowanceLbs: 9000,
		DistanceMiles:      1680,
		EffectiveYear:      2025,
	}
	rec.Distance = &distance.Result{Miles: 1680, Method: distance.MethodCached}
	rec.Documents = []claim.Document{
		{
			ID:     "doc-1",
			Kind:   "lodging_receipt",
			Status: claim.DocCompleted,
			Extracted: claim.ExtractedFields{
				Receipts: []claim.Receipt{
					{Vendor: "Roadside Inn", Date: entitlement.NewDate(2025, time.June, 1), Amount: 11000, Category: "lodging"},
					{Vendor: "Summit Lodge", Date: entitlement.NewDate(2025, time.June, 2), Amount: 12600, Category: "lodging"},
				},
				ClaimedMiles: 1700,
			},
		},
	}
	return rec
}

func flagsByCategory(flags []claim.Flag) map[string]claim.Flag {
	out := make(map[string]claim.Flag, len(flags))
	for _, f := range flags {
		out[f.Category] = f
	}
	return out
}

// =============================================================================
// ENGINE BEHAVIOR
// =============================================================================

func TestValidate_CleanClaim_PerfectScore(t *testing.T) {
	// GIVEN: A claim that satisfies every rule
	// WHEN: Validating
	// THEN: No flags, score 100, not partial

	engine := validation.NewEngine(quietLogger())
	report := engine.Validate(context.Background(), cleanRecord())

	if len(report.Flags) != 0 {
		t.Errorf("expected no flags, got %+v", report.Flags)
	}
	if report.Score != 100 {
		t.Errorf("expected score 100, got %d", report.Score)
	}
	if report.Partial {
		t.Error("expected complete report for clean claim")
	}
}

func TestValidate_ScoreWeights(t *testing.T) {
	// GIVEN: A claim with one error flag (weight) and one warning (distance)
	// WHEN: Validating
	// THEN: Score is 100 - 15 - 5 = 80

	rec := cleanRecord()
	rec.Input.DeclaredWeightLbs = 12000                  // over the 9000 allowance
	rec.Documents[0].Extracted.ClaimedMiles = 2200       // ~31% over 1680

	engine := validation.NewEngine(quietLogger())
	report := engine.Validate(context.Background(), rec)

	if len(report.Flags) != 2 {
		t.Fatalf("expected exactly 2 flags, got %+v", report.Flags)
	}
	if report.Score != 80 {
		t.Errorf("expected score 80, got %d", report.Score)
	}
}

func TestValidate_ScoreFloorsAtZero(t *testing.T) {
	// GIVEN: A claim tripping enough error rules to exceed 100 points
	// WHEN: Validating
	// THEN: Score clamps at 0, never negative

	rec := cleanRecord()
	rec.Input.ArrivalDate = entitlement.NewDate(2025, time.May, 20) // before departure, after RNLT is moot
	rec.Input.DeclaredWeightLbs = 20000
	rec.Entitlements.EffectiveYear = 2023
	rec.Documents[0].Extracted.Receipts = nil // lodging receipts gone

	// Pad with extra error rules to push past 100.
	rules := validation.DefaultRules()
	for i := 0; i < 5; i++ {
		rules = append(rules, validation.Rule{
			ID:       "always-fails",
			Category: "test",
			Severity: claim.SeverityError,
			Check: func(context.Context, *claim.Record) *validation.Finding {
				return &validation.Finding{Message: "fails"}
			},
		})
	}

	engine := validation.NewEngineWithRules(quietLogger(), rules)
	report := engine.Validate(context.Background(), rec)

	if report.Score != 0 {
		t.Errorf("expected score clamped to 0, got %d", report.Score)
	}
}

func TestValidate_ScoreMonotonicInFlags(t *testing.T) {
	// GIVEN: The same claim validated with progressively more violations
	// WHEN: Comparing scores
	// THEN: Score never increases as flags accumulate

	engine := validation.NewEngine(quietLogger())

	clean := engine.Validate(context.Background(), cleanRecord())

	oneIssue := cleanRecord()
	oneIssue.Documents[0].Extracted.ClaimedMiles = 2200
	one := engine.Validate(context.Background(), oneIssue)

	twoIssues := cleanRecord()
	twoIssues.Documents[0].Extracted.ClaimedMiles = 2200
	twoIssues.Input.DeclaredWeightLbs = 12000
	two := engine.Validate(context.Background(), twoIssues)

	if !(clean.Score >= one.Score && one.Score >= two.Score) {
		t.Errorf("score not monotonic: %d, %d, %d", clean.Score, one.Score, two.Score)
	}
}

func TestValidate_PanickingRule_PartialReport(t *testing.T) {
	// GIVEN: A rule set where one rule panics
	// WHEN: Validating
	// THEN: Remaining rules still run; report is marked Partial

	rules := []validation.Rule{
		{
			ID:       "panics",
			Category: "broken",
			Severity: claim.SeverityError,
			Check: func(context.Context, *claim.Record) *validation.Finding {
				panic("nil map write")
			},
		},
		{
			ID:       "still-runs",
			Category: "test",
			Severity: claim.SeverityInfo,
			Check: func(context.Context, *claim.Record) *validation.Finding {
				return &validation.Finding{Message: "ran"}
			},
		},
	}

	engine := validation.NewEngineWithRules(quietLogger(), rules)
	report := engine.Validate(context.Background(), cleanRecord())

	if !report.Partial {
		t.Error("expected partial report when a rule panics")
	}
	if len(report.Flags) != 1 || report.Flags[0].Category != "test" {
		t.Errorf("expected the surviving rule's flag, got %+v", report.Flags)
	}
}

func TestValidate_FlagsCarryCitationAndFix(t *testing.T) {
	// GIVEN: A claim over its weight allowance
	// WHEN: Validating
	// THEN: The flag carries the rule's citation and suggested fix

	rec := cleanRecord()
	rec.Input.DeclaredWeightLbs = 12000

	engine := validation.NewEngine(quietLogger())
	report := engine.Validate(context.Background(), rec)

	byCat := flagsByCategory(report.Flags)
	weight, ok := byCat["weight"]
	if !ok {
		t.Fatalf("expected a weight flag, got %+v", report.Flags)
	}
	if weight.Citation == "" {
		t.Error("flag must carry its regulation citation")
	}
	if weight.SuggestedFix == "" {
		t.Error("flag must carry a suggested fix")
	}
	if weight.Severity != claim.SeverityError {
		t.Errorf("expected error severity, got %s", weight.Severity)
	}
}
