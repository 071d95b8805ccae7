/*
Package claim defines the claim record, its validation flags, and the
lifecycle state machine governing it.

PURPOSE:
  A ClaimRecord binds together everything known about one version of one
  PCS claim: the member snapshot, the move parameters, the computed
  entitlements, the document states, and the validation outcome. Versions
  are immutable once submitted; corrections after submission create a new
  version and the prior version is retained unmodified.

KEY CONCEPTS IN THIS FILE (types.go):
  - Status: the lifecycle states (draft ... paid)
  - Severity / Flag: validation findings with citation and suggested fix
  - Document: an externally-OCR'd attachment the claim merely observes
  - Record: one immutable-once-submitted claim version

VERSIONING:
  (claim ID, version number) identifies a record. History is an arena of
  immutable versions, never an updated row - the post-submission audit
  trail holds regardless of how a store is implemented.

SEE ALSO:
  - lifecycle.go: Permitted transitions and amendment rules
  - history.go: Version store interface and in-memory implementation
*/
package claim

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/pcs-engine/distance"
	"github.com/warp/pcs-engine/entitlement"
)

// =============================================================================
// STATUS - Lifecycle states
// =============================================================================

type Status string

const (
	StatusDraft            Status = "draft"
	StatusDocumentsPending Status = "documents_pending"
	StatusValidated        Status = "validated" // assessed, not necessarily clean
	StatusSubmitted        Status = "submitted"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusPaid             Status = "paid" // terminal
)

// Terminal reports whether no further transitions exist.
func (s Status) Terminal() bool { return s == StatusPaid }

// Submitted reports whether the record has passed the immutability line.
func (s Status) Submitted() bool {
	switch s {
	case StatusSubmitted, StatusApproved, StatusRejected, StatusPaid:
		return true
	}
	return false
}

// =============================================================================
// VALIDATION FLAGS
// =============================================================================

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Flag is one validation finding. Immutable once created: the engine
// produces a fresh flag list per pass rather than editing old flags.
type Flag struct {
	Field        string   `json:"field"`
	Category     string   `json:"category"`
	Severity     Severity `json:"severity"`
	Citation     string   `json:"citation"` // regulation reference, e.g. "JTR 054703"
	Message      string   `json:"message"`
	SuggestedFix string   `json:"suggested_fix"`
}

// HasError reports whether any flag carries error severity.
func HasError(flags []Flag) bool {
	for _, f := range flags {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// =============================================================================
// DOCUMENTS - Externally-processed attachments
// =============================================================================

// DocumentStatus mirrors the external OCR pipeline's state per document.
// The claim only observes this; it never drives the pipeline.
type DocumentStatus string

const (
	DocPending    DocumentStatus = "pending"
	DocProcessing DocumentStatus = "processing"
	DocCompleted  DocumentStatus = "completed"
	DocFailed     DocumentStatus = "failed"
)

// Receipt is one expense line extracted from a document.
type Receipt struct {
	Vendor   string            `json:"vendor"`
	Date     entitlement.Date  `json:"date"`
	Amount   entitlement.Cents `json:"amount_cents"`
	Category string            `json:"category"` // "lodging", "fuel", "tolls", ...
}

// ExtractedFields is what OCR pulled out of one document.
type ExtractedFields struct {
	Receipts     []Receipt `json:"receipts,omitempty"`
	ClaimedMiles float64   `json:"claimed_miles,omitempty"`
	WeighTickets []int     `json:"weigh_tickets_lbs,omitempty"`
}

type Document struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"` // "lodging_receipt", "weigh_ticket", "orders", ...
	Status    DocumentStatus  `json:"status"`
	Extracted ExtractedFields `json:"extracted"`
}

// =============================================================================
// RECORD - One claim version
// =============================================================================

// Record is one version of one claim. Fields are exported for
// serialization; all mutation goes through the Lifecycle service, which
// enforces the immutable-once-submitted rule.
type Record struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Status  Status `json:"status"`

	Profile entitlement.ServiceProfile `json:"profile"`
	Input   entitlement.ClaimInput     `json:"input"`

	Entitlements *entitlement.EntitlementResult `json:"entitlements,omitempty"`
	Distance     *distance.Result               `json:"distance,omitempty"`

	Documents []Document `json:"documents,omitempty"`

	Flags             []Flag `json:"flags,omitempty"`
	Score             int    `json:"score"`
	PartialValidation bool   `json:"partial_validation"`

	CreatedAt   time.Time  `json:"created_at"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`

	// DecisionNote records the finance office's reason on approve/reject.
	DecisionNote string `json:"decision_note,omitempty"`
}

// NewRecord creates version 1 of a fresh claim in draft.
func NewRecord(profile entitlement.ServiceProfile, input entitlement.ClaimInput) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Version:   1,
		Status:    StatusDraft,
		Profile:   profile,
		Input:     input,
		CreatedAt: time.Now().UTC(),
	}
}

// AllReceipts gathers receipts across completed documents.
func (r *Record) AllReceipts() []Receipt {
	var out []Receipt
	for _, d := range r.Documents {
		if d.Status == DocCompleted {
			out = append(out, d.Extracted.Receipts...)
		}
	}
	return out
}

// ClaimedMiles returns the member-claimed mileage from extracted documents,
// zero when nothing has been extracted yet.
func (r *Record) ClaimedMiles() float64 {
	for _, d := range r.Documents {
		if d.Status == DocCompleted && d.Extracted.ClaimedMiles > 0 {
			return d.Extracted.ClaimedMiles
		}
	}
	return 0
}

// DocumentsProcessing reports whether any document is still in flight.
// Validation degrades receipt checks to advisory while this is true.
func (r *Record) DocumentsProcessing() bool {
	for _, d := range r.Documents {
		if d.Status == DocPending || d.Status == DocProcessing {
			return true
		}
	}
	return false
}

// Clone deep-copies the record. Version history depends on stored versions
// never sharing mutable state with live ones.
func (r *Record) Clone() *Record {
	c := *r
	if r.Entitlements != nil {
		e := *r.Entitlements
		c.Entitlements = &e
	}
	if r.Distance != nil {
		d := *r.Distance
		c.Distance = &d
	}
	c.Documents = make([]Document, len(r.Documents))
	for i, d := range r.Documents {
		c.Documents[i] = d
		c.Documents[i].Extracted.Receipts = append([]Receipt(nil), d.Extracted.Receipts...)
		c.Documents[i].Extracted.WeighTickets = append([]int(nil), d.Extracted.WeighTickets...)
	}
	c.Flags = append([]Flag(nil), r.Flags...)
	c.Input.LocalitySpans = append([]entitlement.LocalitySpan(nil), r.Input.LocalitySpans...)
	c.ValidatedAt = copyTime(r.ValidatedAt)
	c.SubmittedAt = copyTime(r.SubmittedAt)
	c.DecidedAt = copyTime(r.DecidedAt)
	c.PaidAt = copyTime(r.PaidAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
