/*
handlers.go - HTTP API handlers for the PCS claim engine

PURPOSE:
  Exposes the calculation and validation core via REST. Handlers parse
  and validate input, delegate to the domain packages, persist the
  resulting claim version, and serialize the response.

ENDPOINTS:
  Claims:
    POST   /api/claims                       Create claim (draft, v1)
    GET    /api/claims/{id}                  Latest version
    GET    /api/claims/{id}/versions         Full version history
    GET    /api/claims/{id}/versions/{n}     One specific version
    PUT    /api/claims/{id}/input            Amend input (bumps version
                                             once submitted)

  Documents (observed, never driven):
    POST   /api/claims/{id}/documents        Attach document
    PATCH  /api/claims/{id}/documents/{doc}  Record OCR status/extraction

  Core operations:
    POST   /api/claims/{id}/calculate        Resolve distance + entitlements
    POST   /api/claims/{id}/withholding      PPM withholding estimate
    POST   /api/claims/{id}/validate         Run the rule set
    POST   /api/claims/{id}/transition       submitted/approved/rejected/paid

ERROR HANDLING:
  Errors map to JSON with the taxonomy's type name as the "error" field:
    400 invalid_input           malformed request, bad dates, bad weight
    404 not_found               unknown claim or version
    409 rejected_transition     lifecycle refusal (structured reason)
    409 version_immutable       write against a frozen version
    422 missing_reference_data  no table row for the keys/year
    500 internal                everything else

  Calculation and validation endpoints never return a silent wrong
  answer: fallback distance methods, partial validation, and missing
  rates are all explicit fields or typed errors in the response.

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/warp/pcs-engine/claim"
	"github.com/warp/pcs-engine/distance"
	"github.com/warp/pcs-engine/entitlement"
	"github.com/warp/pcs-engine/validation"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     claim.VersionStore
	Tables    entitlement.Tables
	Resolver  *distance.Resolver
	Engine    *validation.Engine
	Lifecycle *claim.Lifecycle

	// AllowExternalDistance gates the resolver's external tier globally.
	AllowExternalDistance bool

	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(
	store claim.VersionStore,
	tables entitlement.Tables,
	resolver *distance.Resolver,
	engine *validation.Engine,
	logger *slog.Logger,
	allowExternalDistance bool,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:                 store,
		Tables:                tables,
		Resolver:              resolver,
		Engine:                engine,
		Lifecycle:             &claim.Lifecycle{},
		AllowExternalDistance: allowExternalDistance,
		validate:              validator.New(),
		logger:                logger,
	}
}

// =============================================================================
// CLAIM CRUD
// =============================================================================

func (h *Handler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var req CreateClaimRequest
	if !h.decode(w, r, &req) {
		return
	}

	input, err := req.Input.ToDomain()
	if err != nil {
		h.respondError(w, &entitlement.InvalidInputError{Field: "input", Reason: err.Error()})
		return
	}
	if err := input.Validate(); err != nil {
		h.respondError(w, err)
		return
	}

	rec := claim.NewRecord(req.Profile.ToDomain(), input)
	if err := h.Store.Put(r.Context(), rec); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("claim created", slog.String("claim", rec.ID))
	h.respondJSON(w, http.StatusCreated, rec)
}

func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLatest(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}

func (h *Handler) GetVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.Store.Versions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, versions)
}

func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		h.respondError(w, &entitlement.InvalidInputError{Field: "version", Reason: "version must be an integer"})
		return
	}
	rec, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"), version)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}

// AmendClaim replaces the claim input. Pre-submission this edits the
// draft in place; post-submission it creates a new version and the prior
// version remains on record untouched.
func (h *Handler) AmendClaim(w http.ResponseWriter, r *http.Request) {
	var req AmendClaimRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.Input.ToDomain()
	if err != nil {
		h.respondError(w, &entitlement.InvalidInputError{Field: "input", Reason: err.Error()})
		return
	}
	if err := input.Validate(); err != nil {
		h.respondError(w, err)
		return
	}

	rec, ok := h.loadLatest(w, r)
	if !ok {
		return
	}

	next, err := h.Lifecycle.Amend(rec, func(c *claim.Record) {
		c.Input = input
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Store.Put(r.Context(), next); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, next)
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func (h *Handler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	var req AttachDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, ok := h.loadLatest(w, r)
	if !ok {
		return
	}

	doc := claim.Document{
		ID:     uuid.NewString(),
		Kind:   req.Kind,
		Status: claim.DocPending,
	}
	if err := h.Lifecycle.AttachDocument(rec, doc); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Store.Put(r.Context(), rec); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, rec)
}

func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req UpdateDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}
	extracted, err := req.Extracted.ToDomain()
	if err != nil {
		h.respondError(w, &entitlement.InvalidInputError{Field: "extracted", Reason: err.Error()})
		return
	}

	rec, ok := h.loadLatest(w, r)
	if !ok {
		return
	}

	doc := claim.Document{
		ID:        chi.URLParam(r, "docID"),
		Status:    claim.DocumentStatus(req.Status),
		Extracted: extracted,
	}
	// Preserve the kind recorded at attach time.
	for _, d := range rec.Documents {
		if d.ID == doc.ID {
			doc.Kind = d.Kind
		}
	}

	if err := h.Lifecycle.UpdateDocument(rec, doc); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Store.Put(r.Context(), rec); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}

// =============================================================================
// CORE OPERATIONS
// =============================================================================

// Calculate resolves the distance and computes all entitlement categories
// against the table snapshot matching the claim's travel dates.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLatest(w, r)
	if !ok {
		return
	}

	dist, err := h.Resolver.Resolve(r.Context(), rec.Input.Origin, rec.Input.Destination, h.AllowExternalDistance)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := entitlement.Calculate(rec.Profile, rec.Input, h.Tables, dist)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.Lifecycle.RecordCalculation(rec, result, dist); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Store.Put(r.Context(), rec); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("entitlements calculated",
		slog.String("claim", rec.ID),
		slog.String("distance_method", string(dist.Method)),
		slog.Int("effective_year", result.EffectiveYear),
	)
	h.respondJSON(w, http.StatusOK, rec)
}

// Withholding estimates the tax bite on the claim's PPM incentive.
func (h *Handler) Withholding(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLatest(w, r)
	if !ok {
		return
	}
	if rec.Entitlements == nil || rec.Distance == nil {
		h.respondError(w, &entitlement.InvalidInputError{
			Field: "entitlements", Reason: "calculate entitlements before requesting withholding",
		})
		return
	}
	if rec.Input.DestinationState == "" {
		h.respondError(w, &entitlement.InvalidInputError{
			Field: "destination_state", Reason: "destination state is required for withholding",
		})
		return
	}

	weight := rec.Input.DeclaredWeightLbs
	if weight > rec.Entitlements.WeightAllowanceLbs {
		weight = rec.Entitlements.WeightAllowanceLbs
	}
	gcc, err := h.Tables.GCC(weight, rec.Distance.Miles, rec.Entitlements.EffectiveYear)
	if err != nil {
		h.respondError(w, err)
		return
	}

	wh, err := entitlement.ComputeWithholding(
		gcc, entitlement.PPMIncentiveRate(),
		rec.Input.DestinationState, rec.Entitlements.EffectiveYear, h.Tables,
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, WithholdingResponse{
		GrossCents:                       int64(wh.Gross),
		EstimatedFederalWithholdingCents: int64(wh.FederalWithholding),
		EstimatedStateWithholdingCents:   int64(wh.StateWithholding),
		NetPayoutCents:                   int64(wh.NetPayout),
		Estimate:                         wh.Estimate,
	})
}

// Validate runs the rule set and records the outcome on the claim.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLatest(w, r)
	if !ok {
		return
	}

	report := h.Engine.Validate(r.Context(), rec)
	if err := h.Lifecycle.RecordValidation(rec, report.Flags, report.Score, report.Partial); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Store.Put(r.Context(), rec); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("claim validated",
		slog.String("claim", rec.ID),
		slog.Int("score", report.Score),
		slog.Int("flags", len(report.Flags)),
		slog.Bool("partial", report.Partial),
	)
	h.respondJSON(w, http.StatusOK, rec)
}

// Transition performs the explicit lifecycle transitions.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, ok := h.loadLatest(w, r)
	if !ok {
		return
	}

	if err := h.Lifecycle.Transition(rec, claim.Status(req.Target), req.Note); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Store.Put(r.Context(), rec); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("claim transitioned",
		slog.String("claim", rec.ID),
		slog.String("status", string(rec.Status)),
	)
	h.respondJSON(w, http.StatusOK, rec)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadLatest(w http.ResponseWriter, r *http.Request) (*claim.Record, bool) {
	rec, err := h.Store.Latest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return nil, false
	}
	return rec, true
}

// decode parses and validates a request body. Returns false after writing
// the error response.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, &entitlement.InvalidInputError{Field: "body", Reason: "malformed JSON: " + err.Error()})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondError(w, &entitlement.InvalidInputError{Field: "body", Reason: err.Error()})
		return false
	}
	return true
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"

	var rejection *claim.RejectedTransitionError

	switch {
	case errors.Is(err, entitlement.ErrInvalidInput),
		errors.Is(err, distance.ErrUnresolvableLocation):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, entitlement.ErrMissingReferenceData):
		status, code = http.StatusUnprocessableEntity, "missing_reference_data"
	case errors.Is(err, claim.ErrClaimNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.As(err, &rejection):
		status, code = http.StatusConflict, "rejected_transition"
	case errors.Is(err, claim.ErrVersionImmutable):
		status, code = http.StatusConflict, "version_immutable"
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.Any("error", err))
	}
	h.respondJSON(w, status, ErrorResponse{Error: code, Reason: err.Error()})
}
