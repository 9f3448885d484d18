/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Scenario documents
  reuse factory.ScenarioDocument; results and KPIs get their own shapes so
  the wire format doesn't follow internal renames.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry `validate` tags checked by factory.Validate before
  any calculation runs. Field errors come back keyed by JSON path.

MONEY:
  Amounts are decimals serialized as JSON strings ("1234.56") so clients
  never see binary floating point rounding. IRRs are plain numbers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/scenario.go: ScenarioDocument
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/factory"
	"github.com/feasly/feasibility-engine/scenario"
)

// =============================================================================
// CALCULATOR REQUESTS
// =============================================================================

// RentalCalcRequest runs the rental builder on a single line.
type RentalCalcRequest struct {
	Months int                    `json:"months" validate:"min=1,max=1200"`
	Line   factory.RentalDocument `json:"line"`
}

// SaleCalcRequest runs the sale builder on a single line.
type SaleCalcRequest struct {
	Months int                  `json:"months" validate:"min=1,max=1200"`
	Line   factory.SaleDocument `json:"line"`
}

// CurveRequest prepares a sell-through or occupancy curve for a window.
type CurveRequest struct {
	Kind   string    `json:"kind" validate:"required,oneof=sell_through occupancy"`
	Curve  []float64 `json:"curve" validate:"max=1200"`
	Length int       `json:"length" validate:"min=0,max=1200"`
}

// SeriesDTO is a single monthly series with its total.
type SeriesDTO struct {
	Months int             `json:"months"`
	Values engine.Series   `json:"values"`
	Total  decimal.Decimal `json:"total"`
}

// CurveDTO is a prepared curve.
type CurveDTO struct {
	Kind   string    `json:"kind"`
	Values []float64 `json:"values"`
	Sum    float64   `json:"sum"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO represents a stored scenario.
type ScenarioDTO struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Revision  int                      `json:"revision"`
	Document  factory.ScenarioDocument `json:"document"`
	CreatedAt string                   `json:"created_at,omitempty"`
	UpdatedAt string                   `json:"updated_at,omitempty"`
}

// ScenarioSummaryDTO is a scenario in list responses.
type ScenarioSummaryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Revision  int    `json:"revision"`
	UpdatedAt string `json:"updated_at"`
}

// ResultDTO is a computed scenario.
type ResultDTO struct {
	ScenarioID string   `json:"scenario_id"`
	Revision   int      `json:"revision,omitempty"`
	Cached     bool     `json:"cached,omitempty"`
	Months     int      `json:"months"`
	Labels     []string `json:"labels"`

	RentalRevenue   engine.Series            `json:"rental_revenue"`
	SaleRevenue     engine.Series            `json:"sale_revenue"`
	Revenue         engine.Series            `json:"revenue"`
	Costs           engine.Series            `json:"costs"`
	CostsByCategory map[string]engine.Series `json:"costs_by_category"`

	UnleveredCashFlow engine.Series `json:"unlevered_cash_flow"`
	DebtDraws         engine.Series `json:"debt_draws"`
	DebtService       engine.Series `json:"debt_service"`
	LeveredCashFlow   engine.Series `json:"levered_cash_flow"`
	Cumulative        engine.Series `json:"cumulative"`

	KPIs       KPIsDTO    `json:"kpis"`
	ComputedAt *time.Time `json:"computed_at,omitempty"`
}

// KPIsDTO are the headline figures.
type KPIsDTO struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Profit       decimal.Decimal `json:"profit"`
	Margin       decimal.Decimal `json:"margin"`
	UnleveredNPV decimal.Decimal `json:"unlevered_npv"`
	UnleveredIRR *float64        `json:"unlevered_irr"`
	LeveredIRR   *float64        `json:"levered_irr"`
	PeakFunding  decimal.Decimal `json:"peak_funding"`
	PaybackMonth int             `json:"payback_month"`
}

// RecalculateDTO acknowledges a queued background recalculation.
type RecalculateDTO struct {
	ScenarioID string `json:"scenario_id"`
	Revision   int    `json:"revision"`
	Status     string `json:"status"`
}

// =============================================================================
// SENSITIVITY
// =============================================================================

// SensitivityRequest lists the variations to run. An empty list runs the
// default table.
type SensitivityRequest struct {
	Variations []VariationDTO `json:"variations" validate:"dive"`
}

// VariationDTO is one what-if case. Zero factors leave inputs unchanged.
type VariationDTO struct {
	Name            string          `json:"name" validate:"required"`
	RevenueFactor   decimal.Decimal `json:"revenue_factor" validate:"finite,gte=0,lte=10"`
	CostFactor      decimal.Decimal `json:"cost_factor" validate:"finite,gte=0,lte=10"`
	EscalationShift decimal.Decimal `json:"escalation_shift" validate:"finite,gte=-1,lte=1"`
	DelayMonths     int             `json:"delay_months" validate:"gte=0,lte=120"`
}

// SensitivityRowDTO is one row of the sensitivity table.
type SensitivityRowDTO struct {
	Variation   VariationDTO    `json:"variation"`
	KPIs        KPIsDTO         `json:"kpis"`
	DeltaProfit decimal.Decimal `json:"delta_profit"`
}

// =============================================================================
// DEMOS & ERRORS
// =============================================================================

// DemoDTO represents a demo scenario.
type DemoDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"` // "rental", "sale" or "mixed"
}

// LoadDemoRequest selects a demo to load.
type LoadDemoRequest struct {
	DemoID string `json:"demo_id" validate:"required"`
	Reset  bool   `json:"reset,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details any               `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toResultDTO(res *scenario.Result) ResultDTO {
	dto := ResultDTO{
		ScenarioID:        string(res.ScenarioID),
		Months:            res.Months,
		Labels:            res.Labels,
		RentalRevenue:     res.RentalRevenue,
		SaleRevenue:       res.SaleRevenue,
		Revenue:           res.Revenue,
		Costs:             res.Costs,
		CostsByCategory:   make(map[string]engine.Series, len(res.CostsByCategory)),
		UnleveredCashFlow: res.UnleveredCashFlow,
		DebtDraws:         res.DebtDraws,
		DebtService:       res.DebtService,
		LeveredCashFlow:   res.LeveredCashFlow,
		Cumulative:        res.Cumulative,
		KPIs:              toKPIsDTO(res.KPIs),
	}
	for cat, series := range res.CostsByCategory {
		dto.CostsByCategory[string(cat)] = series
	}
	return dto
}

func toKPIsDTO(k scenario.KPIs) KPIsDTO {
	return KPIsDTO{
		TotalRevenue: k.TotalRevenue,
		TotalCost:    k.TotalCost,
		Profit:       k.Profit,
		Margin:       k.Margin,
		UnleveredNPV: k.UnleveredNPV,
		UnleveredIRR: k.UnleveredIRR,
		LeveredIRR:   k.LeveredIRR,
		PeakFunding:  k.PeakFunding,
		PaybackMonth: k.PaybackMonth,
	}
}

func toVariation(v VariationDTO) scenario.Variation {
	return scenario.Variation{
		Name:            v.Name,
		RevenueFactor:   v.RevenueFactor,
		CostFactor:      v.CostFactor,
		EscalationShift: v.EscalationShift,
		DelayMonths:     v.DelayMonths,
	}
}

func toVariationDTO(v scenario.Variation) VariationDTO {
	return VariationDTO{
		Name:            v.Name,
		RevenueFactor:   v.RevenueFactor,
		CostFactor:      v.CostFactor,
		EscalationShift: v.EscalationShift,
		DelayMonths:     v.DelayMonths,
	}
}

func toScenarioDTO(rec *engine.ScenarioRecord) (ScenarioDTO, error) {
	dto := ScenarioDTO{
		ID:        string(rec.ID),
		Name:      rec.Name,
		Revision:  rec.Revision,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
	if err := json.Unmarshal([]byte(rec.Document), &dto.Document); err != nil {
		return dto, err
	}
	return dto, nil
}
