/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the domain model.
  Request DTOs carry go-playground/validator struct tags; handlers run
  the validator before touching domain logic, so malformed input is
  rejected with a field-level message and never partially computed.

NAMING CONVENTION:
  *Request:  Request body types from clients
  *Response: Response wrappers where the domain type isn't returned as-is

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/pcs-engine/claim"
	"github.com/warp/pcs-engine/entitlement"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ServiceProfileRequest snapshots the member onto the claim.
type ServiceProfileRequest struct {
	RankGroup        string `json:"rank_group" validate:"required"`
	Branch           string `json:"branch"`
	DependencyStatus string `json:"dependency_status" validate:"required,oneof=with without"`
	YearsOfService   int    `json:"years_of_service" validate:"gte=0"`
}

func (r ServiceProfileRequest) ToDomain() entitlement.ServiceProfile {
	return entitlement.ServiceProfile{
		RankGroup:        r.RankGroup,
		Branch:           r.Branch,
		DependencyStatus: entitlement.DependencyStatus(r.DependencyStatus),
		YearsOfService:   r.YearsOfService,
	}
}

// LocalitySpanRequest is one per-diem locality stretch.
type LocalitySpanRequest struct {
	ZIP  string `json:"zip" validate:"required"`
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// ClaimInputRequest carries the declared move parameters.
type ClaimInputRequest struct {
	Origin         string `json:"origin" validate:"required"`
	Destination    string `json:"destination" validate:"required"`
	OriginZIP      string `json:"origin_zip"`
	DestinationZIP string `json:"destination_zip"`

	DepartureDate string `json:"departure_date" validate:"required,datetime=2006-01-02"`
	ArrivalDate   string `json:"arrival_date" validate:"required,datetime=2006-01-02"`

	DeclaredWeightLbs int    `json:"declared_weight_lbs" validate:"gte=0"`
	MoveMode          string `json:"move_mode" validate:"required,oneof=ppm hhg mixed"`
	DestinationState  string `json:"destination_state" validate:"omitempty,len=2"`

	AuthorizedVehicles int   `json:"authorized_vehicles" validate:"gte=0,lte=2"`
	AdvancesPaidCents  int64 `json:"advances_paid_cents" validate:"gte=0"`

	LocalitySpans []LocalitySpanRequest `json:"locality_spans" validate:"dive"`

	OrdersIssueDate   string `json:"orders_issue_date" validate:"omitempty,datetime=2006-01-02"`
	ReportNoLaterThan string `json:"report_no_later_than" validate:"omitempty,datetime=2006-01-02"`
}

// ToDomain converts the request; date strings were format-checked by the
// validator, so parse failures here are programming errors.
func (r ClaimInputRequest) ToDomain() (entitlement.ClaimInput, error) {
	in := entitlement.ClaimInput{
		Origin:             r.Origin,
		Destination:        r.Destination,
		OriginZIP:          r.OriginZIP,
		DestinationZIP:     r.DestinationZIP,
		DeclaredWeightLbs:  r.DeclaredWeightLbs,
		MoveMode:           entitlement.MoveMode(r.MoveMode),
		DestinationState:   r.DestinationState,
		AuthorizedVehicles: r.AuthorizedVehicles,
		AdvancesPaid:       entitlement.Cents(r.AdvancesPaidCents),
	}

	var err error
	if in.DepartureDate, err = entitlement.ParseDate(r.DepartureDate); err != nil {
		return in, err
	}
	if in.ArrivalDate, err = entitlement.ParseDate(r.ArrivalDate); err != nil {
		return in, err
	}
	if r.OrdersIssueDate != "" {
		if in.OrdersIssueDate, err = entitlement.ParseDate(r.OrdersIssueDate); err != nil {
			return in, err
		}
	}
	if r.ReportNoLaterThan != "" {
		if in.ReportNoLaterThan, err = entitlement.ParseDate(r.ReportNoLaterThan); err != nil {
			return in, err
		}
	}
	for _, span := range r.LocalitySpans {
		from, err := entitlement.ParseDate(span.From)
		if err != nil {
			return in, err
		}
		to, err := entitlement.ParseDate(span.To)
		if err != nil {
			return in, err
		}
		in.LocalitySpans = append(in.LocalitySpans, entitlement.LocalitySpan{
			ZIP: span.ZIP, From: from, To: to,
		})
	}
	return in, nil
}

// CreateClaimRequest opens a new claim in draft.
type CreateClaimRequest struct {
	Profile ServiceProfileRequest `json:"profile" validate:"required"`
	Input   ClaimInputRequest     `json:"input" validate:"required"`
}

// AmendClaimRequest replaces the claim input. On a submitted claim this
// creates a new version.
type AmendClaimRequest struct {
	Input ClaimInputRequest `json:"input" validate:"required"`
}

// ReceiptRequest is one expense line reported by the OCR collaborator.
type ReceiptRequest struct {
	Vendor      string `json:"vendor" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
	Category    string `json:"category" validate:"required"`
}

// ExtractedFieldsRequest mirrors the OCR collaborator's extraction payload.
type ExtractedFieldsRequest struct {
	Receipts        []ReceiptRequest `json:"receipts" validate:"dive"`
	ClaimedMiles    float64          `json:"claimed_miles" validate:"gte=0"`
	WeighTicketsLbs []int            `json:"weigh_tickets_lbs"`
}

func (r ExtractedFieldsRequest) ToDomain() (claim.ExtractedFields, error) {
	out := claim.ExtractedFields{
		ClaimedMiles: r.ClaimedMiles,
		WeighTickets: r.WeighTicketsLbs,
	}
	for _, rec := range r.Receipts {
		date, err := entitlement.ParseDate(rec.Date)
		if err != nil {
			return out, err
		}
		out.Receipts = append(out.Receipts, claim.Receipt{
			Vendor:   rec.Vendor,
			Date:     date,
			Amount:   entitlement.Cents(rec.AmountCents),
			Category: rec.Category,
		})
	}
	return out, nil
}

// AttachDocumentRequest registers a new external document on the claim.
type AttachDocumentRequest struct {
	Kind string `json:"kind" validate:"required"`
}

// UpdateDocumentRequest records the OCR pipeline's progress on a document.
type UpdateDocumentRequest struct {
	Status    string                 `json:"status" validate:"required,oneof=pending processing completed failed"`
	Extracted ExtractedFieldsRequest `json:"extracted"`
}

// TransitionRequest drives the caller-explicit lifecycle transitions.
type TransitionRequest struct {
	Target string `json:"target" validate:"required,oneof=submitted approved rejected paid"`
	Note   string `json:"note"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// WithholdingResponse labels the withholding estimate as an estimate in
// the payload itself, not just in documentation.
type WithholdingResponse struct {
	GrossCents                       int64 `json:"gross_cents"`
	EstimatedFederalWithholdingCents int64 `json:"estimated_federal_withholding_cents"`
	EstimatedStateWithholdingCents   int64 `json:"estimated_state_withholding_cents"`
	NetPayoutCents                   int64 `json:"net_payout_cents"`
	Estimate                         bool  `json:"estimate"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
