/*
withholding.go - Estimated tax withholding on the PPM incentive

PURPOSE:
  PPM profit is IRS-taxable income. This computes the estimated federal
  and state withholding on the gross incentive and the resulting net
  payout. The output is an ESTIMATE for member planning, never a binding
  payroll figure; the Estimate field says so in the type itself.

FORMULAS:
  gross   = GCC x incentive percentage
  federal = gross x supplemental wage flat rate
  state   = gross x state rate for the destination state (0 for
            no-income-tax states - an explicit table row, not a miss)
  net     = gross - federal - state

INVARIANT:
  net <= gross, always. Rates outside [0, 1) are rejected as reference
  data errors rather than silently producing a negative payout.
*/
package entitlement

import (
	"github.com/shopspring/decimal"
)

// federalSupplementalRate is the IRS flat withholding rate for
// supplemental wages.
var federalSupplementalRate = decimal.RequireFromString("0.22")

// WithholdingResult is an estimate of the tax bite on a PPM incentive.
type WithholdingResult struct {
	Gross              Cents
	FederalWithholding Cents
	StateWithholding   Cents
	NetPayout          Cents

	// Estimate is always true. The binding figure comes from payroll.
	Estimate bool
}

// ComputeWithholding estimates withholding for a PPM payout.
// gcc is the government constructive cost; incentivePct the fraction of
// it paid out (see PPMIncentiveRate).
func ComputeWithholding(gcc Cents, incentivePct decimal.Decimal, destinationState string, year int, tables Tables) (*WithholdingResult, error) {
	if gcc.IsNegative() {
		return nil, &InvalidInputError{Field: "gcc_amount", Reason: "GCC cannot be negative"}
	}
	if incentivePct.IsNegative() || incentivePct.GreaterThan(decimal.NewFromInt(1)) {
		return nil, &InvalidInputError{Field: "incentive_percentage", Reason: "incentive percentage must be within [0, 1]"}
	}
	if destinationState == "" {
		return nil, &InvalidInputError{Field: "destination_state", Reason: "destination state is required"}
	}

	stateRate, err := tables.StateTaxRate(destinationState, year)
	if err != nil {
		return nil, err
	}
	if stateRate.IsNegative() || stateRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, &MissingReferenceDataError{Table: "state_tax", Keys: []string{destinationState}, Year: year}
	}

	gross := gcc.MulRate(incentivePct)
	federal := gross.MulRate(federalSupplementalRate)
	state := gross.MulRate(stateRate)

	return &WithholdingResult{
		Gross:              gross,
		FederalWithholding: federal,
		StateWithholding:   state,
		NetPayout:          gross - federal - state,
		Estimate:           true,
	}, nil
}
