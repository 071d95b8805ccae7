/*
scenario.go - Seeded demo data

PURPOSE:
  A complete FY2025 reference snapshot and a canned sample claim so the
  server runs out of the box. Figures follow the shape and magnitude of
  the published tables; a production deployment loads the real year's
  JSON instead.
*/
package factory

import (
	"time"

	"github.com/warp/pcs-engine/entitlement"
	"github.com/warp/pcs-engine/reference"
)

// DemoSnapshotJSON is the FY2025 demo document in the LoadYear schema.
const DemoSnapshotJSON = `{
  "effective_year": 2025,
  "dla": [
    {"rank_group": "E-4", "dependency": "without", "amount": "2120.45"},
    {"rank_group": "E-4", "dependency": "with",    "amount": "2721.54"},
    {"rank_group": "E-5", "dependency": "without", "amount": "2245.48"},
    {"rank_group": "E-5", "dependency": "with",    "amount": "2963.45"},
    {"rank_group": "E-6", "dependency": "without", "amount": "2410.90"},
    {"rank_group": "E-6", "dependency": "with",    "amount": "3134.42"},
    {"rank_group": "W-2", "dependency": "without", "amount": "2721.54"},
    {"rank_group": "W-2", "dependency": "with",    "amount": "3416.30"},
    {"rank_group": "O-3", "dependency": "without", "amount": "2963.45"},
    {"rank_group": "O-3", "dependency": "with",    "amount": "3523.18"}
  ],
  "mileage_rate_per_mile": "0.21",
  "per_diem": {
    "standard_conus": {"lodging_cap": "110.00", "mie": "68.00"},
    "localities": [
      {"zip": "80913", "lodging_cap": "126.00", "mie": "74.00"},
      {"zip": "28310", "lodging_cap": "112.00", "mie": "69.00"},
      {"zip": "92134", "lodging_cap": "189.00", "mie": "92.00"}
    ]
  },
  "weight_allowance": [
    {"rank_group": "E-4", "dependency": "without", "lbs": 7000},
    {"rank_group": "E-4", "dependency": "with",    "lbs": 8000},
    {"rank_group": "E-5", "dependency": "without", "lbs": 7000},
    {"rank_group": "E-5", "dependency": "with",    "lbs": 9000},
    {"rank_group": "E-6", "dependency": "without", "lbs": 8000},
    {"rank_group": "E-6", "dependency": "with",    "lbs": 11000},
    {"rank_group": "W-2", "dependency": "without", "lbs": 12500},
    {"rank_group": "W-2", "dependency": "with",    "lbs": 13500},
    {"rank_group": "O-3", "dependency": "without", "lbs": 13000},
    {"rank_group": "O-3", "dependency": "with",    "lbs": 14500}
  ],
  "gcc": {"linehaul_per_cwt_mile": "0.0062", "pack_per_cwt": "78.00"},
  "state_tax": {
    "CO": "0.044",
    "NC": "0.045",
    "GA": "0.0539",
    "CA": "0.066",
    "NY": "0.0625",
    "TX": "0",
    "FL": "0",
    "WA": "0",
    "TN": "0",
    "AK": "0"
  }
}`

// DemoSnapshot returns the seeded FY2025 snapshot. Panics on a malformed
// seed, which is a programming error, not runtime input.
func DemoSnapshot() *reference.Snapshot {
	snap := reference.NewSnapshot()
	if err := LoadYear(snap, []byte(DemoSnapshotJSON)); err != nil {
		panic("factory: demo snapshot is malformed: " + err.Error())
	}
	return snap
}

// DemoProfile is a representative mid-career enlisted member.
func DemoProfile() entitlement.ServiceProfile {
	return entitlement.ServiceProfile{
		RankGroup:        "E-5",
		Branch:           "army",
		DependencyStatus: entitlement.WithDependents,
		YearsOfService:   6,
	}
}

// DemoInput is a Fort Bragg to Fort Carson PPM in June 2025.
func DemoInput() entitlement.ClaimInput {
	return entitlement.ClaimInput{
		Origin:            "Fort Bragg",
		Destination:       "Fort Carson",
		OriginZIP:         "28310",
		DestinationZIP:    "80913",
		DepartureDate:     entitlement.NewDate(2025, time.June, 1),
		ArrivalDate:       entitlement.NewDate(2025, time.June, 5),
		DeclaredWeightLbs: 7200,
		MoveMode:          entitlement.MovePPM,
		DestinationState:  "CO",
		OrdersIssueDate:   entitlement.NewDate(2025, time.April, 15),
		ReportNoLaterThan: entitlement.NewDate(2025, time.June, 30),
	}
}
