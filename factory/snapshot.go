/*
Package factory provides JSON to reference-snapshot conversion.

PURPOSE:
  Converts JSON rate-table definitions into a reference.Snapshot. Rate
  data changes every fiscal year and comes from published tables, not
  code; finance staff can drop in a new year's JSON without a deploy.

JSON SCHEMA (one document per effective year):
  {
    "effective_year": 2025,
    "dla": [
      {"rank_group": "E-5", "dependency": "with", "amount": "3134.42"}
    ],
    "mileage_rate_per_mile": "0.21",
    "per_diem": {
      "standard_conus": {"lodging_cap": "110.00", "mie": "68.00"},
      "localities": [
        {"zip": "80913", "lodging_cap": "126.00", "mie": "74.00"}
      ]
    },
    "weight_allowance": [
      {"rank_group": "E-5", "dependency": "with", "lbs": 9000}
    ],
    "gcc": {"linehaul_per_cwt_mile": "0.62", "pack_per_cwt": "78.00"},
    "state_tax": {"CO": "0.044", "TX": "0"}
  }

  Monetary strings parse through decimal to avoid float drift in rates.

USAGE:
  snap := reference.NewSnapshot()
  if err := factory.LoadYear(snap, jsonBytes); err != nil { ... }

  // or the seeded demo snapshot:
  snap := factory.DemoSnapshot()

SEE ALSO:
  - reference/snapshot.go: The snapshot being populated
  - scenario.go: Canned demo claims
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/pcs-engine/entitlement"
	"github.com/warp/pcs-engine/reference"
)

// =============================================================================
// JSON SHAPES
// =============================================================================

type SnapshotYearJSON struct {
	EffectiveYear      int               `json:"effective_year"`
	DLA                []RankAmountJSON  `json:"dla"`
	MileageRatePerMile string            `json:"mileage_rate_per_mile"`
	PerDiem            PerDiemJSON       `json:"per_diem"`
	WeightAllowance    []RankWeightJSON  `json:"weight_allowance"`
	GCC                GCCJSON           `json:"gcc"`
	StateTax           map[string]string `json:"state_tax"`
}

type RankAmountJSON struct {
	RankGroup  string `json:"rank_group"`
	Dependency string `json:"dependency"` // "with" | "without"
	Amount     string `json:"amount"`     // dollars
}

type RankWeightJSON struct {
	RankGroup  string `json:"rank_group"`
	Dependency string `json:"dependency"`
	Lbs        int    `json:"lbs"`
}

type PerDiemJSON struct {
	StandardConus PerDiemRateJSON    `json:"standard_conus"`
	Localities    []LocalityRateJSON `json:"localities"`
}

type PerDiemRateJSON struct {
	LodgingCap string `json:"lodging_cap"`
	MIE        string `json:"mie"`
}

type LocalityRateJSON struct {
	ZIP        string `json:"zip"`
	LodgingCap string `json:"lodging_cap"`
	MIE        string `json:"mie"`
}

type GCCJSON struct {
	LinehaulPerCwtMile string `json:"linehaul_per_cwt_mile"`
	PackPerCwt         string `json:"pack_per_cwt"`
}

// =============================================================================
// LOADER
// =============================================================================

// LoadYear parses one year's JSON document into the snapshot.
func LoadYear(snap *reference.Snapshot, data []byte) error {
	var doc SnapshotYearJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return ApplyYear(snap, doc)
}

// ApplyYear populates the snapshot from an already-parsed document.
func ApplyYear(snap *reference.Snapshot, doc SnapshotYearJSON) error {
	if doc.EffectiveYear == 0 {
		return fmt.Errorf("snapshot document is missing effective_year")
	}
	year := doc.EffectiveYear

	for _, row := range doc.DLA {
		dep, err := parseDependency(row.Dependency)
		if err != nil {
			return fmt.Errorf("dla row for %s: %w", row.RankGroup, err)
		}
		amount, err := parseDollars(row.Amount, "dla amount")
		if err != nil {
			return err
		}
		snap.SetDLA(row.RankGroup, dep, year, entitlement.CentsFromDecimal(amount))
	}

	if doc.MileageRatePerMile != "" {
		rate, err := parseDollars(doc.MileageRatePerMile, "mileage rate")
		if err != nil {
			return err
		}
		snap.SetMileageRate(year, rate)
	}

	if doc.PerDiem.StandardConus.LodgingCap != "" {
		rate, err := parsePerDiem(doc.PerDiem.StandardConus)
		if err != nil {
			return err
		}
		snap.SetStandardConusPerDiem(year, rate)
	}
	for _, loc := range doc.PerDiem.Localities {
		rate, err := parsePerDiem(PerDiemRateJSON{LodgingCap: loc.LodgingCap, MIE: loc.MIE})
		if err != nil {
			return fmt.Errorf("per diem locality %s: %w", loc.ZIP, err)
		}
		snap.SetPerDiem(loc.ZIP, year, rate)
	}

	for _, row := range doc.WeightAllowance {
		dep, err := parseDependency(row.Dependency)
		if err != nil {
			return fmt.Errorf("weight allowance row for %s: %w", row.RankGroup, err)
		}
		snap.SetWeightAllowance(row.RankGroup, dep, year, row.Lbs)
	}

	if doc.GCC.LinehaulPerCwtMile != "" {
		linehaul, err := parseDollars(doc.GCC.LinehaulPerCwtMile, "gcc linehaul rate")
		if err != nil {
			return err
		}
		pack, err := parseDollars(doc.GCC.PackPerCwt, "gcc pack rate")
		if err != nil {
			return err
		}
		snap.SetGCC(year, reference.GCCRates{LinehaulPerCwtMile: linehaul, PackPerCwt: pack})
	}

	for state, rateStr := range doc.StateTax {
		rate, err := parseDollars(rateStr, "state tax rate "+state)
		if err != nil {
			return err
		}
		snap.SetStateTaxRate(state, year, rate)
	}

	return nil
}

func parseDependency(s string) (entitlement.DependencyStatus, error) {
	switch s {
	case "with":
		return entitlement.WithDependents, nil
	case "without":
		return entitlement.WithoutDependents, nil
	default:
		return "", fmt.Errorf("unknown dependency status %q", s)
	}
}

func parseDollars(s, what string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return d, nil
}

func parsePerDiem(r PerDiemRateJSON) (entitlement.PerDiemRate, error) {
	lodging, err := parseDollars(r.LodgingCap, "lodging cap")
	if err != nil {
		return entitlement.PerDiemRate{}, err
	}
	mie, err := parseDollars(r.MIE, "M&IE")
	if err != nil {
		return entitlement.PerDiemRate{}, err
	}
	return entitlement.PerDiemRate{
		LodgingCap: entitlement.CentsFromDecimal(lodging),
		MIE:        entitlement.CentsFromDecimal(mie),
	}, nil
}
