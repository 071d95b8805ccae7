/*
Package entitlement computes PCS (Permanent Change of Station) travel and
moving entitlements.

PURPOSE:
  This package contains the pure calculation core: given a service member's
  profile, the parameters of their move, a reference-table snapshot, and a
  resolved distance, it produces the government-reimbursable amounts for
  each entitlement category.

KEY CONCEPTS IN THIS FILE (types.go):
  - Cents: Signed integer cents. All monetary results are integer cents,
    never floating dollars, so repeated computation cannot drift.
  - ServiceProfile: Immutable rank/dependency snapshot for one claim.
  - ClaimInput: The move parameters (origin, dates, weight, mode).
  - EntitlementResult: One cents figure per category plus confidence tags.
  - Tables: The reference-data collaborator interface (consumer-defined).

DESIGN PRINCIPLES:
  1. Purity: Calculate is deterministic; same inputs + same table snapshot
     always yield identical cents-precision output.
  2. Precision: Rate math runs on decimal.Decimal, results land in Cents.
  3. Explicit uncertainty: Figures derived from an approximate distance are
     tagged, never silently presented as exact.
  4. No silent defaults: A missing table row is an error, not a zero.

USAGE:
  result, err := entitlement.Calculate(profile, input, tables, dist)
  if err != nil {
      // MissingReferenceData or InvalidInput - never a silent zero
  }

SEE ALSO:
  - calculator.go: The category calculations
  - withholding.go: PPM incentive tax withholding estimate
  - date.go: Civil date type and fiscal-year helpers
  - errors.go: Error taxonomy
*/
package entitlement

import (
	"github.com/shopspring/decimal"

	"github.com/warp/pcs-engine/distance"
)

// =============================================================================
// CENTS - Signed integer cents
// =============================================================================

// Cents is a monetary amount in integer cents. Negative values are legal
// (e.g., a PPM incentive fully consumed by advances).
type Cents int64

// CentsFromDecimal converts a dollar-denominated decimal to cents,
// rounding half away from zero.
func CentsFromDecimal(dollars decimal.Decimal) Cents {
	return Cents(dollars.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// Decimal returns the amount as dollar-denominated decimal.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(decimal.NewFromInt(100))
}

func (c Cents) Add(o Cents) Cents { return c + o }
func (c Cents) Sub(o Cents) Cents { return c - o }
func (c Cents) IsNegative() bool  { return c < 0 }
func (c Cents) IsZero() bool      { return c == 0 }

// MulRate multiplies the amount by a decimal rate, rounding to whole cents.
func (c Cents) MulRate(rate decimal.Decimal) Cents {
	return Cents(decimal.NewFromInt(int64(c)).Mul(rate).Round(0).IntPart())
}

func (c Cents) String() string {
	return "$" + c.Decimal().StringFixed(2)
}

// =============================================================================
// SERVICE PROFILE - Immutable per-claim snapshot of the member
// =============================================================================

// DependencyStatus is the with/without-dependents axis of every rate lookup.
type DependencyStatus string

const (
	WithDependents    DependencyStatus = "with"
	WithoutDependents DependencyStatus = "without"
)

// ServiceProfile is the member snapshot a claim is computed against.
// A later profile change never retroactively alters a computed claim;
// the claim keeps its own copy.
type ServiceProfile struct {
	RankGroup        string           `json:"rank_group"` // pay grade, e.g. "E-5", "O-3", "W-2"
	Branch           string           `json:"branch,omitempty"`
	DependencyStatus DependencyStatus `json:"dependency_status"`
	YearsOfService   int              `json:"years_of_service"`
}

// =============================================================================
// CLAIM INPUT - Move parameters
// =============================================================================

type MoveMode string

const (
	MovePPM   MoveMode = "ppm"   // member moves their own goods
	MoveHHG   MoveMode = "hhg"   // government-contracted carrier
	MoveMixed MoveMode = "mixed" // partial PPM alongside a carrier
)

// LocalitySpan assigns a per-diem locality (ZIP) to a contiguous stretch of
// travel days. Trips crossing locality boundaries carry an ordered list of
// spans rather than a single rate.
type LocalitySpan struct {
	ZIP  string `json:"zip"`
	From Date   `json:"from"`
	To   Date   `json:"to"` // inclusive
}

// ClaimInput holds everything the member declares about the move.
type ClaimInput struct {
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	OriginZIP      string `json:"origin_zip,omitempty"`
	DestinationZIP string `json:"destination_zip,omitempty"`

	DepartureDate Date `json:"departure_date"`
	ArrivalDate   Date `json:"arrival_date"`

	DeclaredWeightLbs int      `json:"declared_weight_lbs"`
	MoveMode          MoveMode `json:"move_mode"`

	// DestinationState drives state withholding on the PPM incentive.
	DestinationState string `json:"destination_state,omitempty"`

	// AuthorizedVehicles is the number of POVs authorized for MALT.
	// Zero means one.
	AuthorizedVehicles int `json:"authorized_vehicles,omitempty"`

	// AdvancesPaid is deducted from the PPM incentive.
	AdvancesPaid Cents `json:"advances_paid_cents,omitempty"`

	// LocalitySpans overrides the per-diem locality per travel day.
	// Empty means the whole trip uses DestinationZIP.
	LocalitySpans []LocalitySpan `json:"locality_spans,omitempty"`

	// Orders window for date-consistency validation.
	OrdersIssueDate   Date `json:"orders_issue_date,omitempty"`
	ReportNoLaterThan Date `json:"report_no_later_than,omitempty"`
}

// Vehicles returns the authorized vehicle count, defaulting to one.
func (in ClaimInput) Vehicles() int {
	if in.AuthorizedVehicles <= 0 {
		return 1
	}
	return in.AuthorizedVehicles
}

// TravelDays returns the number of per-diem days, inclusive of both
// departure and arrival day. A same-day trip is one travel day.
func (in ClaimInput) TravelDays() int {
	return DaysBetween(in.DepartureDate, in.ArrivalDate) + 1
}

// LodgingNights returns the nights between departure and arrival.
func (in ClaimInput) LodgingNights() int {
	return DaysBetween(in.DepartureDate, in.ArrivalDate)
}

// Validate rejects malformed input before any calculation runs.
func (in ClaimInput) Validate() error {
	if in.Origin == "" || in.Destination == "" {
		return &InvalidInputError{Field: "origin/destination", Reason: "origin and destination are required"}
	}
	if in.DepartureDate.IsZero() || in.ArrivalDate.IsZero() {
		return &InvalidInputError{Field: "dates", Reason: "departure and arrival dates are required"}
	}
	if in.ArrivalDate.Before(in.DepartureDate) {
		return &InvalidInputError{Field: "dates", Reason: "arrival date precedes departure date"}
	}
	if in.DeclaredWeightLbs < 0 {
		return &InvalidInputError{Field: "declared_weight_lbs", Reason: "declared weight cannot be negative"}
	}
	switch in.MoveMode {
	case MovePPM, MoveHHG, MoveMixed:
	default:
		return &InvalidInputError{Field: "move_mode", Reason: "unknown move mode: " + string(in.MoveMode)}
	}
	return nil
}

// =============================================================================
// ENTITLEMENT RESULT - One cents figure per category
// =============================================================================

// Confidence tags a figure whose value depends on how the distance was
// resolved. A haversine fallback is straight-line, not road distance.
type Confidence string

const (
	ConfidenceExact       Confidence = "exact"
	ConfidenceApproximate Confidence = "approximate"
)

// EntitlementResult is the output of Calculate. All amounts are integer
// cents. Distance-derived figures (MALT, PPM incentive) carry a confidence
// tag reflecting the distance resolution method.
type EntitlementResult struct {
	DLA          Cents `json:"dla_cents"`
	MALT         Cents `json:"malt_cents"`
	PerDiem      Cents `json:"per_diem_cents"`
	PPMIncentive Cents `json:"ppm_incentive_cents"`

	WeightAllowanceLbs int `json:"weight_allowance_lbs"`

	// Distance actually used, kept for validation against claimed mileage.
	DistanceMiles  float64         `json:"distance_miles"`
	DistanceMethod distance.Method `json:"distance_method"`

	MALTConfidence Confidence `json:"malt_confidence"`
	PPMConfidence  Confidence `json:"ppm_confidence"`

	// EffectiveYear is the reference-table year every lookup resolved
	// against. Validation checks it against the travel dates.
	EffectiveYear int `json:"effective_year"`
}

// Total returns the sum of all entitlement categories.
func (r EntitlementResult) Total() Cents {
	return r.DLA + r.MALT + r.PerDiem + r.PPMIncentive
}

// =============================================================================
// TABLES - Reference data collaborator (read-only snapshot)
// =============================================================================

// PerDiemRate is the locality rate for one ZIP on one date.
type PerDiemRate struct {
	LodgingCap Cents
	MIE        Cents // meals & incidental expenses
}

// Daily returns the combined daily rate.
func (p PerDiemRate) Daily() Cents { return p.LodgingCap + p.MIE }

// Tables is the reference-data provider consumed by the calculators.
// Every lookup is keyed by an explicit effective year; implementations must
// never substitute a neighboring year. A missing row is reported as an error
// wrapping ErrMissingReferenceData, never as zero.
type Tables interface {
	// DLARate returns the flat dislocation allowance.
	DLARate(rankGroup string, dep DependencyStatus, year int) (Cents, error)

	// MileageRatePerMile returns the MALT rate in dollars per mile.
	MileageRatePerMile(year int) (decimal.Decimal, error)

	// PerDiemRate returns the locality rate for a ZIP on a date.
	PerDiemRate(zip string, date Date) (PerDiemRate, error)

	// WeightAllowanceLbs returns the maximum authorized HHG weight.
	WeightAllowanceLbs(rankGroup string, dep DependencyStatus, year int) (int, error)

	// GCC estimates what the government would have spent on a contracted
	// move of the given weight and distance.
	GCC(weightLbs int, miles float64, year int) (Cents, error)

	// StateTaxRate returns the state income withholding rate as a fraction.
	// No-income-tax states return zero (an explicit row, not a miss).
	StateTaxRate(state string, year int) (decimal.Decimal, error)
}
