/*
lifecycle.go - Claim state machine and amendment rules

PURPOSE:
  Governs which operations are permitted per state and enforces the
  append-only discipline after submission.

STATE DIAGRAM:

  draft ──▶ documents_pending ──▶ validated ──▶ submitted ──▶ approved ──▶ paid
    │                ▲               │                │
    └── (validate) ──┴── (amend) ────┘                └──────▶ rejected

  - draft -> documents_pending: first document attached
  - documents_pending -> validated: validation has RUN at least once;
    "validated" means assessed, not clean
  - validated -> submitted: explicit caller action, BLOCKED while any
    error-severity flag is unresolved; entering submitted freezes the
    version
  - submitted -> approved/rejected: external finance-office decision,
    recorded here, never computed here
  - approved -> paid: disbursement recorded, terminal

AMENDMENTS:
  Before submission, corrections mutate the version in place and knock the
  status back for recomputation. After submission, the only way to change
  claim data is a new version; the prior version is retained unmodified.

ERRORS:
  Every refused operation is a RejectedTransitionError with a structured
  reason, not a generic failure.
*/
package claim

import (
	"errors"
	"fmt"
	"time"

	"github.com/warp/pcs-engine/distance"
	"github.com/warp/pcs-engine/entitlement"
)

// =============================================================================
// ERRORS
// =============================================================================

var ErrRejectedTransition = errors.New("rejected transition")

// RejectedTransitionError reports exactly why a state change was refused.
type RejectedTransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *RejectedTransitionError) Error() string {
	return fmt.Sprintf("rejected transition %s -> %s: %s", e.From, e.To, e.Reason)
}

func (e *RejectedTransitionError) Unwrap() error { return ErrRejectedTransition }

func rejected(from, to Status, reason string) error {
	return &RejectedTransitionError{From: from, To: to, Reason: reason}
}

// =============================================================================
// LIFECYCLE SERVICE
// =============================================================================

// Lifecycle applies state changes to claim records. It mutates the given
// record (or returns a successor version) but never persists; persistence
// is the caller's concern and must be atomic per version.
type Lifecycle struct {
	// Now is injectable for tests; defaults to time.Now UTC.
	Now func() time.Time
}

func (lc *Lifecycle) now() time.Time {
	if lc.Now != nil {
		return lc.Now()
	}
	return time.Now().UTC()
}

// AttachDocument observes a new external document on the claim. The first
// attachment moves a draft to documents_pending.
func (lc *Lifecycle) AttachDocument(rec *Record, doc Document) error {
	if rec.Status.Submitted() {
		return rejected(rec.Status, rec.Status, "documents cannot be attached after submission; amend to create a new version")
	}
	rec.Documents = append(rec.Documents, doc)
	if rec.Status == StatusDraft {
		rec.Status = StatusDocumentsPending
	}
	return nil
}

// UpdateDocument replaces the status/extraction of an attached document,
// mirroring what the external OCR pipeline reported.
func (lc *Lifecycle) UpdateDocument(rec *Record, doc Document) error {
	if rec.Status.Submitted() {
		return rejected(rec.Status, rec.Status, "documents cannot change after submission; amend to create a new version")
	}
	for i := range rec.Documents {
		if rec.Documents[i].ID == doc.ID {
			rec.Documents[i] = doc
			// Fresh extraction invalidates the previous assessment.
			if rec.Status == StatusValidated {
				rec.Status = StatusDocumentsPending
			}
			return nil
		}
	}
	return rejected(rec.Status, rec.Status, "document not attached: "+doc.ID)
}

// RecordCalculation stores a computed entitlement result and the distance
// it was computed from. Entitlements are a pure function of the inputs, so
// recomputing pre-submission is always permitted; after submission the
// record is frozen.
func (lc *Lifecycle) RecordCalculation(rec *Record, result *entitlement.EntitlementResult, dist distance.Result) error {
	if rec.Status.Submitted() {
		return rejected(rec.Status, rec.Status, "claim data is frozen after submission")
	}
	rec.Entitlements = result
	rec.Distance = &dist
	return nil
}

// RecordValidation stores the outcome of a validation pass and marks the
// claim assessed. Permitted in any pre-submission state; "validated" does
// not imply the claim is clean.
func (lc *Lifecycle) RecordValidation(rec *Record, flags []Flag, score int, partial bool) error {
	if rec.Status.Submitted() {
		return rejected(rec.Status, StatusValidated, "claim data is frozen after submission")
	}
	rec.Flags = flags
	rec.Score = score
	rec.PartialValidation = partial
	now := lc.now()
	rec.ValidatedAt = &now
	rec.Status = StatusValidated
	return nil
}

// Transition performs the explicit caller-driven transitions: submitted,
// approved, rejected, paid. Everything else happens through the dedicated
// methods above.
func (lc *Lifecycle) Transition(rec *Record, target Status, note string) error {
	switch target {
	case StatusSubmitted:
		return lc.submit(rec)
	case StatusApproved, StatusRejected:
		return lc.decide(rec, target, note)
	case StatusPaid:
		return lc.pay(rec)
	case StatusDraft, StatusDocumentsPending, StatusValidated:
		return rejected(rec.Status, target, "state is managed by document and validation operations, not direct transition")
	default:
		return rejected(rec.Status, target, "unknown target state")
	}
}

func (lc *Lifecycle) submit(rec *Record) error {
	if rec.Status != StatusValidated {
		return rejected(rec.Status, StatusSubmitted, "claim must be validated before submission")
	}
	if HasError(rec.Flags) {
		return rejected(rec.Status, StatusSubmitted,
			fmt.Sprintf("unresolved error-severity flags: %d", countErrors(rec.Flags)))
	}
	if rec.PartialValidation {
		return rejected(rec.Status, StatusSubmitted, "last validation pass was partial; re-run validation")
	}
	now := lc.now()
	rec.SubmittedAt = &now
	rec.Status = StatusSubmitted
	return nil
}

func (lc *Lifecycle) decide(rec *Record, target Status, note string) error {
	if rec.Status != StatusSubmitted {
		return rejected(rec.Status, target, "only submitted claims can be decided")
	}
	now := lc.now()
	rec.DecidedAt = &now
	rec.DecisionNote = note
	rec.Status = target
	return nil
}

func (lc *Lifecycle) pay(rec *Record) error {
	if rec.Status != StatusApproved {
		return rejected(rec.Status, StatusPaid, "only approved claims can be paid")
	}
	now := lc.now()
	rec.PaidAt = &now
	rec.Status = StatusPaid
	return nil
}

// Amend applies a correction. Before submission the record is modified in
// place and knocked back for recomputation (same version). After
// submission, Amend returns a NEW version in draft carrying the correction;
// the caller persists it alongside the untouched prior version.
func (lc *Lifecycle) Amend(rec *Record, mutate func(*Record)) (*Record, error) {
	if rec.Status.Terminal() {
		return nil, rejected(rec.Status, rec.Status, "paid claims cannot be amended")
	}

	if !rec.Status.Submitted() {
		mutate(rec)
		lc.invalidate(rec)
		return rec, nil
	}

	next := rec.Clone()
	next.Version = rec.Version + 1
	next.SubmittedAt = nil
	next.DecidedAt = nil
	next.PaidAt = nil
	next.DecisionNote = ""
	next.CreatedAt = lc.now()
	mutate(next)
	lc.invalidate(next)
	return next, nil
}

// invalidate clears derived state after an input change.
func (lc *Lifecycle) invalidate(rec *Record) {
	rec.Entitlements = nil
	rec.Distance = nil
	rec.Flags = nil
	rec.Score = 0
	rec.PartialValidation = false
	rec.ValidatedAt = nil
	if len(rec.Documents) > 0 {
		rec.Status = StatusDocumentsPending
	} else {
		rec.Status = StatusDraft
	}
}

func countErrors(flags []Flag) int {
	n := 0
	for _, f := range flags {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}
