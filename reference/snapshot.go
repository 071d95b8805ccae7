/*
Package reference provides read-only, year-keyed reference rate tables.

PURPOSE:
  Implements the entitlement.Tables collaborator as an in-memory snapshot.
  A snapshot is loaded once per calculation call and never mutated; rate
  refresh is an out-of-band concern of whoever builds the next snapshot.

TABLES:
  dla              (rank group, dependency status, year) -> flat cents
  mileage_rate     (year)                                -> dollars/mile
  per_diem         (ZIP, date)                           -> lodging cap + M&IE
  weight_allowance (rank group, dependency status, year) -> max pounds
  gcc              (year)                                -> $/cwt-mile + $/cwt
  state_tax        (state, year)                         -> rate fraction

LOOKUP CONTRACT:
  Every lookup is keyed by an explicit effective year. A miss returns a
  MissingReferenceDataError naming the table and keys - never zero, never
  a neighboring year. No-income-tax states are explicit zero rows in
  state_tax, which is how "$0" stays distinguishable from "unknown".

GCC MODEL:
  Government constructive cost is modeled as a linehaul rate per
  hundredweight-mile plus a pack/unpack rate per hundredweight, the shape
  a contracted-move tariff takes.

SEE ALSO:
  - factory/snapshot.go: JSON loader and seeded FY2025 demo data
*/
package reference

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/pcs-engine/entitlement"
)

// =============================================================================
// KEYS
// =============================================================================

type rankKey struct {
	RankGroup  string
	Dependency entitlement.DependencyStatus
	Year       int
}

type stateKey struct {
	State string
	Year  int
}

type zipKey struct {
	ZIP  string
	Year int
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// GCCRates is the contracted-move tariff for one effective year.
type GCCRates struct {
	LinehaulPerCwtMile decimal.Decimal // dollars per 100 lbs per mile
	PackPerCwt         decimal.Decimal // dollars per 100 lbs, flat
}

// Snapshot is an immutable rate-table set. Build it once (factory package
// or tests), then share freely; all methods are read-only.
type Snapshot struct {
	dla         map[rankKey]entitlement.Cents
	mileageRate map[int]decimal.Decimal
	perDiem     map[zipKey]entitlement.PerDiemRate
	weight      map[rankKey]int
	gcc         map[int]GCCRates
	stateTax    map[stateKey]decimal.Decimal

	// Standard CONUS per-diem rate per year, used when a ZIP has no
	// locality-specific row. Localities without their own row are standard
	// rate by definition, not missing data.
	conusPerDiem map[int]entitlement.PerDiemRate
}

var _ entitlement.Tables = (*Snapshot)(nil)

// NewSnapshot returns an empty snapshot. Populate with the Set* builders.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		dla:          make(map[rankKey]entitlement.Cents),
		mileageRate:  make(map[int]decimal.Decimal),
		perDiem:      make(map[zipKey]entitlement.PerDiemRate),
		weight:       make(map[rankKey]int),
		gcc:          make(map[int]GCCRates),
		stateTax:     make(map[stateKey]decimal.Decimal),
		conusPerDiem: make(map[int]entitlement.PerDiemRate),
	}
}

// =============================================================================
// BUILDERS
// =============================================================================

func (s *Snapshot) SetDLA(rankGroup string, dep entitlement.DependencyStatus, year int, amount entitlement.Cents) {
	s.dla[rankKey{rankGroup, dep, year}] = amount
}

func (s *Snapshot) SetMileageRate(year int, dollarsPerMile decimal.Decimal) {
	s.mileageRate[year] = dollarsPerMile
}

func (s *Snapshot) SetPerDiem(zip string, year int, rate entitlement.PerDiemRate) {
	s.perDiem[zipKey{zip, year}] = rate
}

func (s *Snapshot) SetStandardConusPerDiem(year int, rate entitlement.PerDiemRate) {
	s.conusPerDiem[year] = rate
}

func (s *Snapshot) SetWeightAllowance(rankGroup string, dep entitlement.DependencyStatus, year, lbs int) {
	s.weight[rankKey{rankGroup, dep, year}] = lbs
}

func (s *Snapshot) SetGCC(year int, rates GCCRates) {
	s.gcc[year] = rates
}

func (s *Snapshot) SetStateTaxRate(state string, year int, rate decimal.Decimal) {
	s.stateTax[stateKey{state, year}] = rate
}

// =============================================================================
// TABLES IMPLEMENTATION
// =============================================================================

func (s *Snapshot) DLARate(rankGroup string, dep entitlement.DependencyStatus, year int) (entitlement.Cents, error) {
	amount, ok := s.dla[rankKey{rankGroup, dep, year}]
	if !ok {
		return 0, &entitlement.MissingReferenceDataError{
			Table: "dla", Keys: []string{rankGroup, string(dep)}, Year: year,
		}
	}
	return amount, nil
}

func (s *Snapshot) MileageRatePerMile(year int) (decimal.Decimal, error) {
	rate, ok := s.mileageRate[year]
	if !ok {
		return decimal.Zero, &entitlement.MissingReferenceDataError{
			Table: "mileage_rate", Keys: nil, Year: year,
		}
	}
	return rate, nil
}

func (s *Snapshot) PerDiemRate(zip string, date entitlement.Date) (entitlement.PerDiemRate, error) {
	year := date.FiscalYear()
	if rate, ok := s.perDiem[zipKey{zip, year}]; ok {
		return rate, nil
	}
	if rate, ok := s.conusPerDiem[year]; ok {
		return rate, nil
	}
	return entitlement.PerDiemRate{}, &entitlement.MissingReferenceDataError{
		Table: "per_diem", Keys: []string{zip, date.String()}, Year: year,
	}
}

func (s *Snapshot) WeightAllowanceLbs(rankGroup string, dep entitlement.DependencyStatus, year int) (int, error) {
	lbs, ok := s.weight[rankKey{rankGroup, dep, year}]
	if !ok {
		return 0, &entitlement.MissingReferenceDataError{
			Table: "weight_allowance", Keys: []string{rankGroup, string(dep)}, Year: year,
		}
	}
	return lbs, nil
}

func (s *Snapshot) GCC(weightLbs int, miles float64, year int) (entitlement.Cents, error) {
	rates, ok := s.gcc[year]
	if !ok {
		return 0, &entitlement.MissingReferenceDataError{
			Table: "gcc", Keys: []string{fmt.Sprintf("%d lbs", weightLbs)}, Year: year,
		}
	}

	// Tariffs bill by hundredweight, rounded up.
	cwt := decimal.NewFromInt(int64(math.Ceil(float64(weightLbs) / 100)))
	linehaul := rates.LinehaulPerCwtMile.Mul(cwt).Mul(decimal.NewFromFloat(miles))
	pack := rates.PackPerCwt.Mul(cwt)
	return entitlement.CentsFromDecimal(linehaul.Add(pack)), nil
}

func (s *Snapshot) StateTaxRate(state string, year int) (decimal.Decimal, error) {
	rate, ok := s.stateTax[stateKey{state, year}]
	if !ok {
		return decimal.Zero, &entitlement.MissingReferenceDataError{
			Table: "state_tax", Keys: []string{state}, Year: year,
		}
	}
	return rate, nil
}
