package validation_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/pcs-engine/claim"
	"github.com/warp/pcs-engine/entitlement"
	"github.com/warp/pcs-engine/validation"
)

// =============================================================================
// WEIGHT
// =============================================================================

func TestWeightRule_ExactlyOneFlag_HoweverFarOver(t *testing.T) {
	// GIVEN: Claims 1 lb over and 20000 lbs over the allowance
	// WHEN: Validating
	// THEN: Exactly one weight flag either way

	engine := validation.NewEngine(quietLogger())

	for _, over := range []int{1, 20000} {
		rec := cleanRecord()
		rec.Input.DeclaredWeightLbs = rec.Entitlements.WeightAllowanceLbs + over

		report := engine.Validate(context.Background(), rec)

		count := 0
		for _, f := range report.Flags {
			if f.Category == "weight" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("over by %d lbs: expected exactly 1 weight flag, got %d", over, count)
		}
	}
}

func TestWeightRule_NoEntitlements_NoFlag(t *testing.T) {
	// GIVEN: A claim not yet calculated (no allowance to compare against)
	// WHEN: Validating
	// THEN: No weight flag

	rec := cleanRecord()
	rec.Entitlements = nil
	rec.Input.DeclaredWeightLbs = 99000

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	for _, f := range report.Flags {
		if f.Category == "weight" {
			t.Errorf("unexpected weight flag before calculation: %+v", f)
		}
	}
}

// =============================================================================
// DISTANCE
// =============================================================================

func TestDistanceRule_WithinTolerance_NoFlag(t *testing.T) {
	// GIVEN: Claimed mileage 9% over the resolved distance (10% tolerance)
	// WHEN: Validating
	// THEN: No distance flag

	rec := cleanRecord()
	rec.Documents[0].Extracted.ClaimedMiles = 1680 * 1.09

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	if _, ok := flagsByCategory(report.Flags)["distance"]; ok {
		t.Error("mileage within tolerance should not be flagged")
	}
}

func TestDistanceRule_OutsideTolerance_Warning(t *testing.T) {
	// GIVEN: Claimed mileage 25% over the resolved distance
	// WHEN: Validating
	// THEN: A warning-severity distance flag

	rec := cleanRecord()
	rec.Documents[0].Extracted.ClaimedMiles = 1680 * 1.25

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	flag, ok := flagsByCategory(report.Flags)["distance"]
	if !ok {
		t.Fatal("expected a distance flag for 25% divergence")
	}
	if flag.Severity != claim.SeverityWarning {
		t.Errorf("expected warning severity, got %s", flag.Severity)
	}
}

// =============================================================================
// RECEIPTS
// =============================================================================

func TestReceiptRule_MissingReceipts_Error(t *testing.T) {
	// GIVEN: Two lodging nights, one lodging receipt, all documents settled
	// WHEN: Validating
	// THEN: An error-severity receipts flag

	rec := cleanRecord()
	rec.Documents[0].Extracted.Receipts = rec.Documents[0].Extracted.Receipts[:1]

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	flag, ok := flagsByCategory(report.Flags)["receipts"]
	if !ok {
		t.Fatal("expected a receipts flag")
	}
	if flag.Severity != claim.SeverityError {
		t.Errorf("expected error severity once documents settle, got %s", flag.Severity)
	}
}

func TestReceiptRule_DocumentsProcessing_DegradesToWarning(t *testing.T) {
	// GIVEN: Missing lodging receipts while a document is still processing
	// WHEN: Validating
	// THEN: The receipts flag degrades to warning - data may still arrive

	rec := cleanRecord()
	rec.Documents[0].Extracted.Receipts = nil
	rec.Documents = append(rec.Documents, claim.Document{
		ID: "doc-2", Kind: "lodging_receipt", Status: claim.DocProcessing,
	})

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	flag, ok := flagsByCategory(report.Flags)["receipts"]
	if !ok {
		t.Fatal("expected a receipts flag")
	}
	if flag.Severity != claim.SeverityWarning {
		t.Errorf("expected degraded warning severity while processing, got %s", flag.Severity)
	}
}

// =============================================================================
// DUPLICATES
// =============================================================================

func TestDuplicateRule_SameVendorDateAmount_Flagged(t *testing.T) {
	// GIVEN: The same vendor + date + amount appearing twice across documents
	// WHEN: Validating
	// THEN: A duplicates flag

	rec := cleanRecord()
	dup := rec.Documents[0].Extracted.Receipts[0]
	rec.Documents = append(rec.Documents, claim.Document{
		ID:     "doc-2",
		Kind:   "lodging_receipt",
		Status: claim.DocCompleted,
		Extracted: claim.ExtractedFields{
			Receipts: []claim.Receipt{dup},
		},
	})

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	if _, ok := flagsByCategory(report.Flags)["duplicates"]; !ok {
		t.Errorf("expected a duplicates flag, got %+v", report.Flags)
	}
}

func TestDuplicateRule_SameVendorDifferentAmount_NotFlagged(t *testing.T) {
	// GIVEN: Two stays at the same vendor on different dates
	// WHEN: Validating
	// THEN: No duplicates flag - the key is vendor + date + amount

	rec := cleanRecord()
	rec.Documents[0].Extracted.Receipts = []claim.Receipt{
		{Vendor: "Roadside Inn", Date: entitlement.NewDate(2025, time.June, 1), Amount: 11000, Category: "lodging"},
		{Vendor: "Roadside Inn", Date: entitlement.NewDate(2025, time.June, 2), Amount: 11000, Category: "lodging"},
	}

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	if _, ok := flagsByCategory(report.Flags)["duplicates"]; ok {
		t.Error("distinct dates should not be treated as duplicates")
	}
}

// =============================================================================
// DATES
// =============================================================================

func TestOrdersWindowRule_OutsideWindow_Flagged(t *testing.T) {
	// GIVEN: Departure before the orders issue date
	// WHEN: Validating
	// THEN: A dates flag citing the orders window

	rec := cleanRecord()
	rec.Input.DepartureDate = entitlement.NewDate(2025, time.April, 1) // orders issued Apr 15
	rec.Input.ArrivalDate = entitlement.NewDate(2025, time.April, 3)

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	if _, ok := flagsByCategory(report.Flags)["dates"]; !ok {
		t.Errorf("expected a dates flag for travel before orders issue, got %+v", report.Flags)
	}
}

func TestOrdersWindowRule_NoOrdersOnFile_Skipped(t *testing.T) {
	// GIVEN: No orders window recorded
	// WHEN: Validating
	// THEN: The window rule has nothing to check against; no flag

	rec := cleanRecord()
	rec.Input.OrdersIssueDate = entitlement.Date{}
	rec.Input.ReportNoLaterThan = entitlement.Date{}

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	if _, ok := flagsByCategory(report.Flags)["dates"]; ok {
		t.Errorf("unexpected dates flag without an orders window: %+v", report.Flags)
	}
}

// =============================================================================
// RATE STALENESS
// =============================================================================

func TestStalenessRule_MismatchedYear_Flagged(t *testing.T) {
	// GIVEN: Entitlements computed against FY2024 tables, FY2025 travel
	// WHEN: Validating
	// THEN: A rates flag demanding recalculation

	rec := cleanRecord()
	rec.Entitlements.EffectiveYear = 2024

	report := validation.NewEngine(quietLogger()).Validate(context.Background(), rec)

	flag, ok := flagsByCategory(report.Flags)["rates"]
	if !ok {
		t.Fatal("expected a rates flag for stale tables")
	}
	if flag.Severity != claim.SeverityError {
		t.Errorf("expected error severity, got %s", flag.Severity)
	}
}
