/*
calculator.go - Entitlement category calculations

PURPOSE:
  Calculate is a pure function from (profile, input, table snapshot,
  resolved distance) to an EntitlementResult. Identical inputs against an
  identical snapshot produce identical integer-cents output.

CATEGORIES:
  DLA           flat rate by (rank group, dependency status, year)
  MALT          miles x rate-per-mile x authorized vehicles
  Per diem      per travel day, locality rate x day factor; first and last
                travel day are prorated at 0.75
  PPM incentive GCC x incentive rate - advances already paid
  Weight        max authorized pounds (informational here; excess weight is
                flagged by the validation engine, never silently capped)

EFFECTIVE YEAR:
  Every lookup resolves against the fiscal year of the departure date.
  Never "latest": a claim keeps the table version matching its travel.

EDGE-CASE POLICY:
  A missing table row aborts the calculation with MissingReferenceData so
  the caller can distinguish "$0 entitlement" from "could not determine".

SEE ALSO:
  - types.go: Input/output types and the Tables interface
  - withholding.go: Tax withholding on the PPM incentive
*/
package entitlement

import (
	"github.com/shopspring/decimal"

	"github.com/warp/pcs-engine/distance"
)

// =============================================================================
// CONSTANTS
// =============================================================================

var (
	// firstLastDayFactor prorates per diem on the first and last travel day.
	firstLastDayFactor = decimal.RequireFromString("0.75")

	// ppmIncentiveRate is the fraction of GCC paid out for a PPM.
	ppmIncentiveRate = decimal.RequireFromString("1.00")
)

// PPMIncentiveRate exposes the incentive fraction for withholding callers.
func PPMIncentiveRate() decimal.Decimal { return ppmIncentiveRate }

// =============================================================================
// CALCULATE - Pure entitlement computation
// =============================================================================

// Calculate computes every entitlement category for one claim. It is
// deterministic, side-effect free, and safe to call concurrently.
func Calculate(profile ServiceProfile, input ClaimInput, tables Tables, dist distance.Result) (*EntitlementResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if profile.RankGroup == "" {
		return nil, &InvalidInputError{Field: "rank_group", Reason: "rank group is required"}
	}
	if dist.Miles <= 0 {
		return nil, &InvalidInputError{Field: "distance", Reason: "resolved distance must be positive"}
	}

	year := input.DepartureDate.FiscalYear()

	dla, err := tables.DLARate(profile.RankGroup, profile.DependencyStatus, year)
	if err != nil {
		return nil, err
	}

	malt, err := calcMALT(input, tables, dist, year)
	if err != nil {
		return nil, err
	}

	perDiem, err := calcPerDiem(input, tables)
	if err != nil {
		return nil, err
	}

	allowanceLbs, err := tables.WeightAllowanceLbs(profile.RankGroup, profile.DependencyStatus, year)
	if err != nil {
		return nil, err
	}

	incentive, err := calcPPMIncentive(input, tables, dist, allowanceLbs, year)
	if err != nil {
		return nil, err
	}

	confidence := ConfidenceExact
	if dist.Approximate() {
		confidence = ConfidenceApproximate
	}

	return &EntitlementResult{
		DLA:                dla,
		MALT:               malt,
		PerDiem:            perDiem,
		PPMIncentive:       incentive,
		WeightAllowanceLbs: allowanceLbs,
		DistanceMiles:      dist.Miles,
		DistanceMethod:     dist.Method,
		MALTConfidence:     confidence,
		PPMConfidence:      confidence,
		EffectiveYear:      year,
	}, nil
}

// =============================================================================
// MALT - Monetary allowance in lieu of transportation
// =============================================================================

func calcMALT(input ClaimInput, tables Tables, dist distance.Result, year int) (Cents, error) {
	rate, err := tables.MileageRatePerMile(year)
	if err != nil {
		return 0, err
	}
	dollars := decimal.NewFromFloat(dist.Miles).
		Mul(rate).
		Mul(decimal.NewFromInt(int64(input.Vehicles())))
	return CentsFromDecimal(dollars), nil
}

// =============================================================================
// PER DIEM - Sum over travel days, locality-aware
// =============================================================================

// calcPerDiem walks the trip's date range day by day. The locality for each
// day comes from the ordered span list when present, otherwise the whole
// trip uses the destination ZIP. First and last travel day get the reduced
// factor; a one-day trip counts once at the reduced factor.
func calcPerDiem(input ClaimInput, tables Tables) (Cents, error) {
	total := decimal.Zero
	days := input.TravelDays()

	for i := 0; i < days; i++ {
		day := input.DepartureDate.AddDays(i)

		rate, err := tables.PerDiemRate(localityAt(input, day), day)
		if err != nil {
			return 0, err
		}

		factor := decimal.NewFromInt(1)
		if i == 0 || i == days-1 {
			factor = firstLastDayFactor
		}
		total = total.Add(rate.Daily().Decimal().Mul(factor))
	}

	return CentsFromDecimal(total), nil
}

func localityAt(input ClaimInput, day Date) string {
	for _, span := range input.LocalitySpans {
		if day.AfterOrEqual(span.From) && day.BeforeOrEqual(span.To) {
			return span.ZIP
		}
	}
	return input.DestinationZIP
}

// =============================================================================
// PPM INCENTIVE - Based on government constructive cost
// =============================================================================

// calcPPMIncentive pays the member a fraction of what the government would
// have spent on a contracted move. GCC weight is bounded by the authorized
// allowance; the excess itself is member-borne and surfaces as a validation
// flag, not as extra incentive.
func calcPPMIncentive(input ClaimInput, tables Tables, dist distance.Result, allowanceLbs, year int) (Cents, error) {
	if input.MoveMode == MoveHHG {
		return 0, nil
	}

	weight := input.DeclaredWeightLbs
	if weight > allowanceLbs {
		weight = allowanceLbs
	}
	if weight <= 0 {
		return 0, nil
	}

	gcc, err := tables.GCC(weight, dist.Miles, year)
	if err != nil {
		return 0, err
	}

	incentive := gcc.MulRate(ppmIncentiveRate).Sub(input.AdvancesPaid)
	return incentive, nil
}
