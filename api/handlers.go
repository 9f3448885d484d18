/*
handlers.go - HTTP API handlers for the feasibility engine

PURPOSE:
  Exposes the calculators and the scenario store via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Calculators (stateless):
    POST   /api/calc/rental                    Rental builder on one line
    POST   /api/calc/sale                      Sale builder on one line
    POST   /api/calc/curve                     Normalise/resample a curve

  Scenarios:
    GET    /api/scenarios                      List scenarios
    POST   /api/scenarios                      Create or update (new revision)
    GET    /api/scenarios/{id}                 Scenario document
    DELETE /api/scenarios/{id}                 Delete scenario and results
    POST   /api/scenarios/{id}/calculate       Calculate now (cached)
    POST   /api/scenarios/{id}/recalculate     Queue background calculation
    GET    /api/scenarios/{id}/results         Result for the current revision
    POST   /api/scenarios/{id}/sensitivity     Sensitivity table
    GET    /api/scenarios/{id}/export.csv      Monthly series as CSV

  Demos:
    GET    /api/demos                          List demo scenarios
    POST   /api/demos/load                     Load a demo scenario
    POST   /api/reset                          Delete everything (dev only)

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: scenario documents and results
  - Factory: document → scenario conversion and validation
  - Cache: results keyed by document hash
  - Recalc: background worker pool (optional)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed JSON, validation errors, invalid range
  - 404: Scenario or result not found
  - 503: Background queue full or disabled
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - demos.go: Demo scenario loaders
  - recalc.go: Background recalculation
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/feasly/feasibility-engine/cache"
	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/factory"
	"github.com/feasly/feasibility-engine/finance"
	"github.com/feasly/feasibility-engine/revenue"
	"github.com/feasly/feasibility-engine/scenario"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   engine.ScenarioStore
	Factory *factory.ScenarioFactory
	Cache   cache.Cache

	// Recalc is nil when background recalculation is disabled.
	Recalc *Recalculator
}

// NewHandler creates a new handler. A nil cache disables caching.
func NewHandler(store engine.ScenarioStore, c cache.Cache) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{
		Store:   store,
		Factory: factory.NewScenarioFactory(),
		Cache:   c,
	}
}

// =============================================================================
// CALCULATOR HANDLERS
// =============================================================================

// CalcRental runs the rental builder on a single line.
func (h *Handler) CalcRental(w http.ResponseWriter, r *http.Request) {
	var req RentalCalcRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	line := revenue.RentalLine{
		Name:           req.Line.Name,
		Units:          req.Line.Units,
		ADR:            req.Line.ADR,
		Occupancy:      req.Line.Occupancy,
		Window:         engine.Window{Start: engine.Month(req.Line.StartMonth), End: engine.Month(req.Line.EndMonth)},
		Escalation:     req.Line.Escalation,
		OccupancyCurve: req.Line.OccupancyCurve,
	}
	series, err := revenue.BuildRental(line, req.Months)
	if err != nil {
		writeFailure(w, "Invalid rental line", err)
		return
	}

	writeJSON(w, http.StatusOK, SeriesDTO{Months: req.Months, Values: series, Total: series.Sum()})
}

// CalcSale runs the sale builder on a single line.
func (h *Handler) CalcSale(w http.ResponseWriter, r *http.Request) {
	var req SaleCalcRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	line := revenue.SaleLine{
		Name:         req.Line.Name,
		Units:        req.Line.Units,
		PricePerUnit: req.Line.PricePerUnit,
		Window:       engine.Window{Start: engine.Month(req.Line.StartMonth), End: engine.Month(req.Line.EndMonth)},
		Escalation:   req.Line.Escalation,
		SellThrough:  req.Line.SellThrough,
	}
	series, err := revenue.BuildSale(line, req.Months)
	if err != nil {
		writeFailure(w, "Invalid sale line", err)
		return
	}

	writeJSON(w, http.StatusOK, SeriesDTO{Months: req.Months, Values: series, Total: series.Sum()})
}

// CalcCurve prepares a curve for a window of the requested length.
func (h *Handler) CalcCurve(w http.ResponseWriter, r *http.Request) {
	var req CurveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	values := engine.PrepareCurve(engine.CurveKind(req.Kind), req.Curve, req.Length)
	var sum float64
	for _, v := range values {
		sum += v
	}
	writeJSON(w, http.StatusOK, CurveDTO{Kind: req.Kind, Values: values, Sum: sum})
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all stored scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListScenarios(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scenarios", err)
		return
	}

	dtos := make([]ScenarioSummaryDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, ScenarioSummaryDTO{
			ID:        string(rec.ID),
			Name:      rec.Name,
			Revision:  rec.Revision,
			UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveScenario creates or updates a scenario from its document.
//
// Every save produces a new revision and, when background recalculation is
// enabled, queues a calculation of that revision.
func (h *Handler) SaveScenario(w http.ResponseWriter, r *http.Request) {
	var doc factory.ScenarioDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dto, err := h.saveDocument(r, &doc)
	if err != nil {
		writeFailure(w, "Failed to save scenario", err)
		return
	}

	status := http.StatusOK
	if dto.Revision == 1 {
		status = http.StatusCreated
	}
	writeJSON(w, status, dto)
}

func (h *Handler) saveDocument(r *http.Request, doc *factory.ScenarioDocument) (ScenarioDTO, error) {
	if _, err := h.Factory.FromDocument(doc); err != nil {
		return ScenarioDTO{}, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return ScenarioDTO{}, err
	}

	rec := engine.ScenarioRecord{
		ID:       engine.ScenarioID(doc.ID),
		Name:     doc.Name,
		Document: string(body),
	}
	revision, err := h.Store.SaveScenario(r.Context(), rec)
	if err != nil {
		return ScenarioDTO{}, err
	}

	if h.Recalc != nil {
		if err := h.Recalc.Submit(rec.ID, revision); err != nil {
			log.Printf("Warning: recalculation of %s@%d not queued: %v", rec.ID, revision, err)
		}
	}

	return ScenarioDTO{ID: doc.ID, Name: doc.Name, Revision: revision, Document: *doc}, nil
}

// GetScenario returns a stored scenario document.
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetScenario(r.Context(), scenarioID(r))
	if err != nil {
		writeFailure(w, "Failed to get scenario", err)
		return
	}

	dto, err := toScenarioDTO(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored scenario is corrupt", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// DeleteScenario removes a scenario and its results.
func (h *Handler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteScenario(r.Context(), scenarioID(r)); err != nil {
		writeFailure(w, "Failed to delete scenario", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// CalculateScenario calculates the current revision synchronously.
//
// Results are cached by document hash, so recalculating an unchanged
// document skips the engine. The result is also stored as the current
// revision's result.
func (h *Handler) CalculateScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.Store.GetScenario(ctx, scenarioID(r))
	if err != nil {
		writeFailure(w, "Failed to get scenario", err)
		return
	}

	key := cache.Key([]byte(rec.Document))
	if payload, ok, err := h.Cache.Get(ctx, key); err != nil {
		log.Printf("Warning: cache read failed: %v", err)
	} else if ok {
		var dto ResultDTO
		if err := json.Unmarshal([]byte(payload), &dto); err == nil {
			dto.ScenarioID = string(rec.ID)
			dto.Cached = true
			dto = withRevision(dto, rec.Revision)
			h.storeResult(ctx, rec, dto)
			writeJSON(w, http.StatusOK, dto)
			return
		}
		log.Printf("Warning: discarding unreadable cache entry %s", key)
	}

	dto, payload, err := calculateRecord(h.Factory, rec)
	if err != nil {
		writeFailure(w, "Calculation failed", err)
		return
	}
	if err := h.Cache.Set(ctx, key, string(payload)); err != nil {
		log.Printf("Warning: cache write failed: %v", err)
	}

	dto = withRevision(dto, rec.Revision)
	h.storeResult(ctx, rec, dto)
	writeJSON(w, http.StatusOK, dto)
}

// storeResult records dto as the result of rec's revision. Failures are
// logged; the caller already has the result to return.
func (h *Handler) storeResult(ctx context.Context, rec *engine.ScenarioRecord, dto ResultDTO) {
	dto.Cached = false
	stored, err := json.Marshal(dto)
	if err == nil {
		err = h.Store.SaveResult(ctx, engine.ResultRecord{
			ScenarioID: rec.ID,
			Revision:   rec.Revision,
			ResultJSON: string(stored),
			ComputedAt: *dto.ComputedAt,
		})
	}
	if err != nil {
		log.Printf("Warning: failed to store result for %s: %v", rec.ID, err)
	}
}

// RecalculateScenario queues a background calculation of the current
// revision and returns immediately.
func (h *Handler) RecalculateScenario(w http.ResponseWriter, r *http.Request) {
	if h.Recalc == nil {
		writeError(w, http.StatusServiceUnavailable, "Background recalculation is disabled", nil)
		return
	}

	rec, err := h.Store.GetScenario(r.Context(), scenarioID(r))
	if err != nil {
		writeFailure(w, "Failed to get scenario", err)
		return
	}
	if err := h.Recalc.Submit(rec.ID, rec.Revision); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Failed to queue recalculation", err)
		return
	}

	writeJSON(w, http.StatusAccepted, RecalculateDTO{
		ScenarioID: string(rec.ID),
		Revision:   rec.Revision,
		Status:     "queued",
	})
}

// GetResults returns the stored result for the current revision.
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetResult(r.Context(), scenarioID(r))
	if err != nil {
		writeFailure(w, "Failed to get result", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rec.ResultJSON))
}

// RunSensitivity calculates the scenario under each requested variation.
func (h *Handler) RunSensitivity(w http.ResponseWriter, r *http.Request) {
	var req SensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := factory.Validate(&req); err != nil {
		writeFailure(w, "Invalid request", err)
		return
	}

	s, ok := h.loadScenario(w, r)
	if !ok {
		return
	}

	variations := scenario.DefaultVariations()
	if len(req.Variations) > 0 {
		variations = make([]scenario.Variation, 0, len(req.Variations))
		for _, v := range req.Variations {
			variations = append(variations, toVariation(v))
		}
	}

	rows, err := scenario.RunSensitivity(*s, variations)
	if err != nil {
		writeFailure(w, "Sensitivity failed", err)
		return
	}

	dtos := make([]SensitivityRowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, SensitivityRowDTO{
			Variation:   toVariationDTO(row.Variation),
			KPIs:        toKPIsDTO(row.KPIs),
			DeltaProfit: row.DeltaProfit,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportCSV streams the monthly series of the scenario as CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadScenario(w, r)
	if !ok {
		return
	}
	res, err := scenario.Calculate(*s)
	if err != nil {
		writeFailure(w, "Calculation failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(s.ID)+`.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := scenario.WriteCSV(w, res); err != nil {
		log.Printf("Warning: CSV export of %s interrupted: %v", s.ID, err)
	}
}

// loadScenario fetches and parses the scenario named in the URL, writing
// the error response itself when it fails.
func (h *Handler) loadScenario(w http.ResponseWriter, r *http.Request) (*scenario.Scenario, bool) {
	rec, err := h.Store.GetScenario(r.Context(), scenarioID(r))
	if err != nil {
		writeFailure(w, "Failed to get scenario", err)
		return nil, false
	}
	s, _, err := h.Factory.ParseScenario([]byte(rec.Document))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored scenario is corrupt", err)
		return nil, false
	}
	return s, true
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func scenarioID(r *http.Request) engine.ScenarioID {
	return engine.ScenarioID(chi.URLParam(r, "id"))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeFailure maps an engine, store or validation error to its status.
func writeFailure(w http.ResponseWriter, message string, err error) {
	var verr *factory.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: err.Error(),
			Fields:  verr.Fields,
		})
	case engine.IsClientError(err), errors.Is(err, finance.ErrInvalidTerm):
		writeError(w, http.StatusBadRequest, message, err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// decodeAndValidate decodes the JSON body into v and checks its validate
// tags, writing a 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := factory.Validate(v); err != nil {
		writeFailure(w, "Invalid request", err)
		return false
	}
	return true
}
