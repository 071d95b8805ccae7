/*
rules.go - The default regulation-derived rule set

RULE CONTRACT:
  Check inspects the claim and returns nil (pass) or one Finding. Metadata
  (field, category, default severity, citation, suggested fix) is static
  on the Rule; a Finding may override severity downward when data is still
  arriving (receipt checks while OCR runs).

RULES, IN ORDER:
  dates/ordering     departure must not follow arrival
  dates/window       travel must fall inside the orders' authorized window
  weight             declared weight vs authorized allowance - exactly one
                     flag however far over the limit
  distance           claimed mileage vs resolved distance, 10% tolerance
  receipts           lodging nights vs lodging receipts on file
  duplicates         same vendor + date + amount appearing twice
  staleness          table effective year must match travel fiscal year

The tolerance and severity values are policy choices, documented here so
they can be confirmed against the JTR before production use.
*/
package validation

import (
	"context"
	"fmt"
	"math"

	"github.com/warp/pcs-engine/claim"
	"github.com/warp/pcs-engine/entitlement"
)

// distanceTolerancePct is how far claimed mileage may diverge from the
// resolved distance before it is flagged. Policy, not physics.
const distanceTolerancePct = 10.0

// =============================================================================
// RULE TYPE
// =============================================================================

// Finding is a rule hit. Severity, when set, overrides the rule's default
// (used to degrade, never to escalate).
type Finding struct {
	Message  string
	Severity claim.Severity
}

// Rule is one independent validation predicate plus its static metadata.
type Rule struct {
	ID           string
	Field        string
	Category     string
	Severity     claim.Severity
	Citation     string
	SuggestedFix string
	Check        func(ctx context.Context, rec *claim.Record) *Finding
}

// =============================================================================
// DEFAULT RULE SET
// =============================================================================

// DefaultRules returns the standard ordered rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:           "dates-ordering",
			Field:        "departure_date",
			Category:     "dates",
			Severity:     claim.SeverityError,
			Citation:     "JTR 0503",
			SuggestedFix: "Correct the departure or arrival date so departure is not after arrival.",
			Check:        checkDateOrdering,
		},
		{
			ID:           "dates-orders-window",
			Field:        "departure_date",
			Category:     "dates",
			Severity:     claim.SeverityError,
			Citation:     "JTR 050203",
			SuggestedFix: "Travel must occur between the orders issue date and the report-no-later-than date, or the orders must be amended.",
			Check:        checkOrdersWindow,
		},
		{
			ID:           "weight-allowance",
			Field:        "declared_weight_lbs",
			Category:     "weight",
			Severity:     claim.SeverityError,
			Citation:     "JTR 051503",
			SuggestedFix: "Weight above the authorized allowance is member-borne. Reduce the claimed weight or provide weigh tickets supporting a lower net weight.",
			Check:        checkWeightAllowance,
		},
		{
			ID:           "distance-consistency",
			Field:        "claimed_miles",
			Category:     "distance",
			Severity:     claim.SeverityWarning,
			Citation:     "JTR 050303",
			SuggestedFix: "Verify the claimed odometer mileage against the official distance for this route.",
			Check:        checkDistanceConsistency,
		},
		{
			ID:           "receipt-completeness",
			Field:        "documents",
			Category:     "receipts",
			Severity:     claim.SeverityError,
			Citation:     "JTR 010303",
			SuggestedFix: "Attach a lodging receipt for every night of travel claimed.",
			Check:        checkReceiptCompleteness,
		},
		{
			ID:           "duplicate-expense",
			Field:        "documents",
			Category:     "duplicates",
			Severity:     claim.SeverityError,
			Citation:     "JTR 010304",
			SuggestedFix: "Remove the duplicated expense line; each expense may be claimed once.",
			Check:        checkDuplicateExpense,
		},
		{
			ID:           "rate-staleness",
			Field:        "entitlements",
			Category:     "rates",
			Severity:     claim.SeverityError,
			Citation:     "JTR 010201",
			SuggestedFix: "Recalculate entitlements so the reference tables match the fiscal year of travel.",
			Check:        checkRateStaleness,
		},
	}
}

// =============================================================================
// CHECKS
// =============================================================================

func checkDateOrdering(_ context.Context, rec *claim.Record) *Finding {
	if rec.Input.DepartureDate.IsZero() || rec.Input.ArrivalDate.IsZero() {
		return &Finding{Message: "departure and arrival dates are required"}
	}
	if rec.Input.ArrivalDate.Before(rec.Input.DepartureDate) {
		return &Finding{Message: fmt.Sprintf(
			"arrival %s precedes departure %s", rec.Input.ArrivalDate, rec.Input.DepartureDate)}
	}
	return nil
}

func checkOrdersWindow(_ context.Context, rec *claim.Record) *Finding {
	in := rec.Input
	// No orders window on file: nothing to check against.
	if in.OrdersIssueDate.IsZero() || in.ReportNoLaterThan.IsZero() {
		return nil
	}
	if in.DepartureDate.Before(in.OrdersIssueDate) {
		return &Finding{Message: fmt.Sprintf(
			"departure %s precedes orders issue date %s", in.DepartureDate, in.OrdersIssueDate)}
	}
	if in.ArrivalDate.After(in.ReportNoLaterThan) {
		return &Finding{Message: fmt.Sprintf(
			"arrival %s is after the report-no-later-than date %s", in.ArrivalDate, in.ReportNoLaterThan)}
	}
	return nil
}

// checkWeightAllowance produces exactly one flag regardless of how far the
// declared weight exceeds the allowance.
func checkWeightAllowance(_ context.Context, rec *claim.Record) *Finding {
	if rec.Entitlements == nil {
		return nil // nothing to compare against yet
	}
	allowance := rec.Entitlements.WeightAllowanceLbs
	if rec.Input.DeclaredWeightLbs <= allowance {
		return nil
	}
	return &Finding{Message: fmt.Sprintf(
		"declared weight %d lbs exceeds the authorized allowance of %d lbs by %d lbs",
		rec.Input.DeclaredWeightLbs, allowance, rec.Input.DeclaredWeightLbs-allowance)}
}

func checkDistanceConsistency(_ context.Context, rec *claim.Record) *Finding {
	if rec.Distance == nil {
		return nil
	}
	claimed := rec.ClaimedMiles()
	if claimed <= 0 {
		return nil // no odometer figure extracted yet
	}
	official := rec.Distance.Miles
	divergence := math.Abs(claimed-official) / official * 100
	if divergence <= distanceTolerancePct {
		return nil
	}
	return &Finding{Message: fmt.Sprintf(
		"claimed mileage %.0f diverges %.1f%% from the %s distance of %.0f miles (tolerance %.0f%%)",
		claimed, divergence, rec.Distance.Method, official, distanceTolerancePct)}
}

// checkReceiptCompleteness degrades to warning while documents are still
// processing: a claim is never penalized for data that hasn't arrived yet.
func checkReceiptCompleteness(_ context.Context, rec *claim.Record) *Finding {
	nights := rec.Input.LodgingNights()
	if nights == 0 {
		return nil
	}

	lodging := 0
	for _, r := range rec.AllReceipts() {
		if r.Category == "lodging" {
			lodging++
		}
	}
	if lodging >= nights {
		return nil
	}

	finding := &Finding{Message: fmt.Sprintf(
		"%d lodging night(s) claimed but only %d lodging receipt(s) on file", nights, lodging)}
	if rec.DocumentsProcessing() {
		finding.Severity = claim.SeverityWarning
		finding.Message += " (documents still processing)"
	}
	return finding
}

func checkDuplicateExpense(_ context.Context, rec *claim.Record) *Finding {
	type expenseKey struct {
		Vendor string
		Date   string
		Amount entitlement.Cents
	}
	seen := make(map[expenseKey]bool)
	for _, r := range rec.AllReceipts() {
		k := expenseKey{Vendor: r.Vendor, Date: r.Date.String(), Amount: r.Amount}
		if seen[k] {
			return &Finding{Message: fmt.Sprintf(
				"expense appears more than once: %s on %s for %s", r.Vendor, r.Date, r.Amount)}
		}
		seen[k] = true
	}
	return nil
}

func checkRateStaleness(_ context.Context, rec *claim.Record) *Finding {
	if rec.Entitlements == nil {
		return nil
	}
	travelFY := rec.Input.DepartureDate.FiscalYear()
	if rec.Entitlements.EffectiveYear == travelFY {
		return nil
	}
	return &Finding{Message: fmt.Sprintf(
		"entitlements were computed against FY%d tables but travel falls in FY%d",
		rec.Entitlements.EffectiveYear, travelFY)}
}
