package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pcs-engine/claim"
	"github.com/warp/pcs-engine/entitlement"
	"github.com/warp/pcs-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord() *claim.Record {
	return claim.NewRecord(
		entitlement.ServiceProfile{
			RankGroup:        "E-5",
			DependencyStatus: entitlement.WithDependents,
		},
		entitlement.ClaimInput{
			Origin:            "Fort Bragg",
			Destination:       "Fort Carson",
			DestinationZIP:    "80913",
			DepartureDate:     entitlement.NewDate(2025, time.June, 1),
			ArrivalDate:       entitlement.NewDate(2025, time.June, 5),
			DeclaredWeightLbs: 7200,
			MoveMode:          entitlement.MovePPM,
		},
	)
}

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := sampleRecord()
	rec.Flags = []claim.Flag{
		{Field: "declared_weight_lbs", Category: "weight", Severity: claim.SeverityError,
			Citation: "JTR 051503", Message: "over allowance"},
	}
	rec.Score = 85

	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, rec.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Status, got.Status)
	assert.Equal(t, rec.Input.DeclaredWeightLbs, got.Input.DeclaredWeightLbs)
	assert.True(t, got.Input.DepartureDate.Equal(rec.Input.DepartureDate))
	require.Len(t, got.Flags, 1)
	assert.Equal(t, "JTR 051503", got.Flags[0].Citation)
	assert.Equal(t, 85, got.Score)
}

func TestGet_UnknownClaim_NotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Get(ctx, "missing", 1)
	assert.ErrorIs(t, err, claim.ErrClaimNotFound)

	_, err = store.Latest(ctx, "missing")
	assert.ErrorIs(t, err, claim.ErrClaimNotFound)

	_, err = store.Versions(ctx, "missing")
	assert.ErrorIs(t, err, claim.ErrClaimNotFound)
}

// =============================================================================
// APPEND-ONLY ENFORCEMENT
// =============================================================================

func TestPut_DraftOverwrite_Allowed(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := sampleRecord()
	require.NoError(t, store.Put(ctx, rec))

	rec.Input.DeclaredWeightLbs = 8000
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Latest(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 8000, got.Input.DeclaredWeightLbs)
}

func TestPut_SubmittedVersion_Frozen(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := sampleRecord()
	rec.Status = claim.StatusSubmitted
	now := time.Now().UTC()
	rec.SubmittedAt = &now
	require.NoError(t, store.Put(ctx, rec))

	// Any rewrite of the stored submitted row must be refused, even one
	// trying to knock the status back.
	rec.Input.DeclaredWeightLbs = 1
	err := store.Put(ctx, rec)
	assert.ErrorIs(t, err, claim.ErrVersionImmutable)

	rec.Status = claim.StatusDraft
	err = store.Put(ctx, rec)
	assert.ErrorIs(t, err, claim.ErrVersionImmutable)

	// Stored copy unchanged.
	got, err := store.Get(ctx, rec.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusSubmitted, got.Status)
	assert.Equal(t, 7200, got.Input.DeclaredWeightLbs)
}

func TestPut_DecisionPath_AdvancesFrozenVersion(t *testing.T) {
	// The decision path is the one permitted rewrite of a submitted row:
	// submitted -> approved -> paid. A backward move is still refused.
	ctx := context.Background()
	store := newTestStore(t)

	rec := sampleRecord()
	rec.Status = claim.StatusSubmitted
	now := time.Now().UTC()
	rec.SubmittedAt = &now
	require.NoError(t, store.Put(ctx, rec))

	rec.Status = claim.StatusApproved
	require.NoError(t, store.Put(ctx, rec))

	rec.Status = claim.StatusPaid
	require.NoError(t, store.Put(ctx, rec))

	rec.Status = claim.StatusSubmitted
	assert.ErrorIs(t, store.Put(ctx, rec), claim.ErrVersionImmutable)

	got, err := store.Get(ctx, rec.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusPaid, got.Status)
}

func TestPut_NewVersionAlongsideFrozen(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	v1 := sampleRecord()
	v1.Status = claim.StatusSubmitted
	now := time.Now().UTC()
	v1.SubmittedAt = &now
	require.NoError(t, store.Put(ctx, v1))

	v2 := v1.Clone()
	v2.Version = 2
	v2.Status = claim.StatusDraft
	v2.SubmittedAt = nil
	v2.Input.DeclaredWeightLbs = 6500
	require.NoError(t, store.Put(ctx, v2))

	versions, err := store.Versions(ctx, v1.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, claim.StatusSubmitted, versions[0].Status)
	assert.Equal(t, 7200, versions[0].Input.DeclaredWeightLbs)
	assert.Equal(t, claim.StatusDraft, versions[1].Status)
	assert.Equal(t, 6500, versions[1].Input.DeclaredWeightLbs)

	latest, err := store.Latest(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
}

func TestPut_InvalidIdentity_Rejected(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := sampleRecord()
	rec.ID = ""
	assert.Error(t, store.Put(ctx, rec))

	rec = sampleRecord()
	rec.Version = 0
	assert.Error(t, store.Put(ctx, rec))
}

// =============================================================================
// MULTIPLE CLAIMS
// =============================================================================

func TestVersions_IsolatedPerClaim(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a := sampleRecord()
	b := sampleRecord()
	require.NoError(t, store.Put(ctx, a))
	require.NoError(t, store.Put(ctx, b))

	versions, err := store.Versions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, a.ID, versions[0].ID)
}
