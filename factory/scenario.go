/*
Package factory converts scenario documents into Go scenarios.

PURPOSE:
  Converts JSON or YAML scenario documents into scenario.Scenario values.
  Analysts edit feasibility assumptions as documents; the factory validates
  them and produces the structs the calculators work on. The same document
  is what the store persists, so a scenario round-trips through ToDocument.

JSON SCHEMA:
  {
    "id": "riverside-hotel",
    "name": "Riverside Hotel",
    "timeline": {"months": 60, "start": "2026-01"},
    "discount_rate": "0.10",
    "rentals": [
      {"name": "Keys", "units": 120, "adr": "185.00", "occupancy": "0.72",
       "start_month": 24, "end_month": 59, "escalation": "0.03",
       "occupancy_curve": [0.45, 0.6, 0.72]}
    ],
    "sales": [
      {"name": "Branded residences", "units": 40, "price_per_unit": "650000",
       "start_month": 18, "end_month": 35, "escalation": "0.02",
       "sell_through": [1, 2, 3, 2, 1]}
    ],
    "costs": [
      {"name": "Land", "category": "land", "amount": "8500000",
       "start_month": 0, "end_month": 0}
    ],
    "debt": [
      {"name": "Construction loan", "principal": "20000000", "annual_rate": "0.075",
       "draw_month": 6, "term_months": 60, "interest_only_months": 18}
    ]
  }

  Money and rates accept JSON numbers or strings. YAML documents use the
  same field names.

KEY FEATURES:
  - Validates structure (see validate.go) before conversion
  - Assigns a UUID when the document has no ID
  - Leaves window ordering to the builders, which report ErrInvalidRange

USAGE:
  f := NewScenarioFactory()
  s, doc, err := f.ParseScenario(data)
  res, err := scenario.Calculate(*s)

SEE ALSO:
  - scenario/types.go: Scenario type definition
  - factory/presets.go: ready-made scenario documents
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/finance"
	"github.com/feasly/feasibility-engine/revenue"
	"github.com/feasly/feasibility-engine/scenario"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// ScenarioDocument is the JSON representation of a scenario.
type ScenarioDocument struct {
	ID           string           `json:"id,omitempty"`
	Name         string           `json:"name" validate:"required,max=200"`
	Timeline     TimelineDocument `json:"timeline"`
	DiscountRate decimal.Decimal  `json:"discount_rate" validate:"finite,gte=0,lte=1"`

	Rentals []RentalDocument `json:"rentals,omitempty" validate:"dive"`
	Sales   []SaleDocument   `json:"sales,omitempty" validate:"dive"`
	Costs   []CostDocument   `json:"costs,omitempty" validate:"dive"`
	Debt    []DebtDocument   `json:"debt,omitempty" validate:"dive"`
}

// TimelineDocument sizes the horizon; Start ("2006-01") is optional.
type TimelineDocument struct {
	Months int    `json:"months" validate:"min=1,max=1200"`
	Start  string `json:"start,omitempty" validate:"omitempty,datetime=2006-01"`
}

// RentalDocument is the JSON representation of a rental line.
type RentalDocument struct {
	Name           string          `json:"name"`
	Units          decimal.Decimal `json:"units" validate:"finite,gte=0,lte=1000000"`
	ADR            decimal.Decimal `json:"adr" validate:"finite,gte=0,lte=1000000000"`
	Occupancy      decimal.Decimal `json:"occupancy" validate:"finite,gte=0,lte=1"`
	StartMonth     int             `json:"start_month" validate:"gte=0,lte=9999"`
	EndMonth       int             `json:"end_month" validate:"gte=0,lte=9999"`
	Escalation     decimal.Decimal `json:"escalation" validate:"finite,gt=-1,lte=1"`
	OccupancyCurve []float64       `json:"occupancy_curve,omitempty" validate:"max=1200"`
}

// SaleDocument is the JSON representation of a sale line.
type SaleDocument struct {
	Name         string          `json:"name"`
	Units        decimal.Decimal `json:"units" validate:"finite,gte=0,lte=1000000"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" validate:"finite,gte=0,lte=1000000000000"`
	StartMonth   int             `json:"start_month" validate:"gte=0,lte=9999"`
	EndMonth     int             `json:"end_month" validate:"gte=0,lte=9999"`
	Escalation   decimal.Decimal `json:"escalation" validate:"finite,gt=-1,lte=1"`
	SellThrough  []float64       `json:"sell_through,omitempty" validate:"max=1200"`
}

// CostDocument is the JSON representation of a cost line.
type CostDocument struct {
	Name       string          `json:"name"`
	Category   string          `json:"category,omitempty" validate:"omitempty,oneof=land hard soft financing other"`
	Amount     decimal.Decimal `json:"amount" validate:"finite,gte=0,lte=1000000000000"`
	StartMonth int             `json:"start_month" validate:"gte=0,lte=9999"`
	EndMonth   int             `json:"end_month" validate:"gte=0,lte=9999"`
	Escalation decimal.Decimal `json:"escalation" validate:"finite,gt=-1,lte=1"`
}

// DebtDocument is the JSON representation of a debt facility.
type DebtDocument struct {
	Name               string          `json:"name"`
	Principal          decimal.Decimal `json:"principal" validate:"finite,gte=0,lte=1000000000000"`
	AnnualRate         decimal.Decimal `json:"annual_rate" validate:"finite,gte=0,lte=1"`
	DrawMonth          int             `json:"draw_month" validate:"gte=0,lte=9999"`
	TermMonths         int             `json:"term_months" validate:"min=1,max=1200"`
	InterestOnlyMonths int             `json:"interest_only_months,omitempty" validate:"gte=0,lte=1200"`
}

// =============================================================================
// FACTORY
// =============================================================================

// ScenarioFactory creates scenarios from documents.
type ScenarioFactory struct{}

// NewScenarioFactory creates a new factory.
func NewScenarioFactory() *ScenarioFactory {
	return &ScenarioFactory{}
}

// ParseScenario parses a JSON document and converts it.
func (f *ScenarioFactory) ParseScenario(data []byte) (*scenario.Scenario, *ScenarioDocument, error) {
	var doc ScenarioDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("invalid scenario JSON: %w", err)
	}
	s, err := f.FromDocument(&doc)
	if err != nil {
		return nil, nil, err
	}
	return s, &doc, nil
}

// ParseYAML parses a YAML document and converts it.
//
// The YAML is decoded generically and re-encoded as JSON so both formats
// share one set of decoders, including decimal's string-or-number handling.
func (f *ScenarioFactory) ParseYAML(data []byte) (*scenario.Scenario, *ScenarioDocument, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("invalid scenario YAML: %w", err)
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid scenario YAML: %w", err)
	}
	return f.ParseScenario(js)
}

// ParseFile reads a scenario document, choosing the decoder by extension.
func (f *ScenarioFactory) ParseFile(path string) (*scenario.Scenario, *ScenarioDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return f.ParseYAML(data)
	default:
		return f.ParseScenario(data)
	}
}

// FromDocument validates doc and converts it to a Scenario. A missing ID is
// filled in on doc as well, so callers persisting the document keep it.
func (f *ScenarioFactory) FromDocument(doc *ScenarioDocument) (*scenario.Scenario, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	tl := engine.Timeline{Months: doc.Timeline.Months}
	if doc.Timeline.Start != "" {
		start, err := engine.ParseMonth(doc.Timeline.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid timeline start %q: %w", doc.Timeline.Start, err)
		}
		tl.Start = start
	}

	s := &scenario.Scenario{
		ID:           engine.ScenarioID(doc.ID),
		Name:         doc.Name,
		Timeline:     tl,
		DiscountRate: doc.DiscountRate,
	}

	for _, r := range doc.Rentals {
		s.Rentals = append(s.Rentals, revenue.RentalLine{
			Name:           r.Name,
			Units:          r.Units,
			ADR:            r.ADR,
			Occupancy:      r.Occupancy,
			Window:         window(r.StartMonth, r.EndMonth),
			Escalation:     r.Escalation,
			OccupancyCurve: r.OccupancyCurve,
		})
	}
	for _, l := range doc.Sales {
		s.Sales = append(s.Sales, revenue.SaleLine{
			Name:         l.Name,
			Units:        l.Units,
			PricePerUnit: l.PricePerUnit,
			Window:       window(l.StartMonth, l.EndMonth),
			Escalation:   l.Escalation,
			SellThrough:  l.SellThrough,
		})
	}
	for _, c := range doc.Costs {
		s.Costs = append(s.Costs, scenario.CostLine{
			Name:       c.Name,
			Category:   parseCategory(c.Category),
			Amount:     c.Amount,
			Window:     window(c.StartMonth, c.EndMonth),
			Escalation: c.Escalation,
		})
	}
	for _, d := range doc.Debt {
		s.Debt = append(s.Debt, finance.DebtFacility{
			Name:               d.Name,
			Principal:          d.Principal,
			AnnualRate:         d.AnnualRate,
			DrawMonth:          engine.Month(d.DrawMonth),
			TermMonths:         d.TermMonths,
			InterestOnlyMonths: d.InterestOnlyMonths,
		})
	}
	return s, nil
}

// ToDocument converts a Scenario back to its document form.
func (f *ScenarioFactory) ToDocument(s scenario.Scenario) ScenarioDocument {
	doc := ScenarioDocument{
		ID:           string(s.ID),
		Name:         s.Name,
		Timeline:     TimelineDocument{Months: s.Timeline.Months},
		DiscountRate: s.DiscountRate,
	}
	if !s.Timeline.Start.IsZero() {
		doc.Timeline.Start = s.Timeline.Start.Time.Format("2006-01")
	}

	for _, r := range s.Rentals {
		doc.Rentals = append(doc.Rentals, RentalDocument{
			Name:           r.Name,
			Units:          r.Units,
			ADR:            r.ADR,
			Occupancy:      r.Occupancy,
			StartMonth:     int(r.Window.Start),
			EndMonth:       int(r.Window.End),
			Escalation:     r.Escalation,
			OccupancyCurve: r.OccupancyCurve,
		})
	}
	for _, l := range s.Sales {
		doc.Sales = append(doc.Sales, SaleDocument{
			Name:         l.Name,
			Units:        l.Units,
			PricePerUnit: l.PricePerUnit,
			StartMonth:   int(l.Window.Start),
			EndMonth:     int(l.Window.End),
			Escalation:   l.Escalation,
			SellThrough:  l.SellThrough,
		})
	}
	for _, c := range s.Costs {
		doc.Costs = append(doc.Costs, CostDocument{
			Name:       c.Name,
			Category:   string(c.Category),
			Amount:     c.Amount,
			StartMonth: int(c.Window.Start),
			EndMonth:   int(c.Window.End),
			Escalation: c.Escalation,
		})
	}
	for _, d := range s.Debt {
		doc.Debt = append(doc.Debt, DebtDocument{
			Name:               d.Name,
			Principal:          d.Principal,
			AnnualRate:         d.AnnualRate,
			DrawMonth:          int(d.DrawMonth),
			TermMonths:         d.TermMonths,
			InterestOnlyMonths: d.InterestOnlyMonths,
		})
	}
	return doc
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func window(start, end int) engine.Window {
	return engine.Window{Start: engine.Month(start), End: engine.Month(end)}
}

func parseCategory(s string) scenario.CostCategory {
	switch s {
	case "land":
		return scenario.CostLand
	case "hard":
		return scenario.CostHard
	case "soft":
		return scenario.CostSoft
	case "financing":
		return scenario.CostFinancing
	default:
		return scenario.CostOther
	}
}
