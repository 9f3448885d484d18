/*
demos.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
	Provides pre-built scenarios that populate the store with realistic
	feasibility studies. Each demo is a factory preset saved like any other
	scenario, so it gets a revision and (with the recalculator running) a
	stored result.

AVAILABLE DEMOS:

	riverside-hotel:   120-key hotel, construction loan, ramping occupancy
	harbour-apartments: build-to-sell scheme with an off-plan sales curve
	mixed-use-quarter:  residences for sale plus serviced apartments

USAGE VIA API:

	POST /api/demos/load
	{"demo_id": "riverside-hotel", "reset": true}

ADDING NEW DEMOS:
 1. Add a preset to factory/presets.go
 2. Add an entry to 'demos' with its document builder

NOTE:

	"reset": true clears the store first. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: SaveScenario, shared by demo loading
  - factory/presets.go: Preset scenario documents
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/feasly/feasibility-engine/factory"
)

// =============================================================================
// DEMO DEFINITIONS
// =============================================================================

type demo struct {
	DemoDTO
	document func() string
}

var demos = []demo{
	{
		DemoDTO: DemoDTO{
			ID:          "riverside-hotel",
			Name:        "Riverside Hotel",
			Description: "120-key hotel with a construction loan and a ramping occupancy curve",
			Category:    "rental",
		},
		document: func() string { return factory.HotelJSON("riverside-hotel", "Riverside Hotel", 120, 185) },
	},
	{
		DemoDTO: DemoDTO{
			ID:          "harbour-apartments",
			Name:        "Harbour Apartments",
			Description: "48 apartments sold off-plan with a bell-shaped sales curve",
			Category:    "sale",
		},
		document: func() string {
			return factory.ResidentialSaleJSON("harbour-apartments", "Harbour Apartments", 48, 450000)
		},
	},
	{
		DemoDTO: DemoDTO{
			ID:          "mixed-use-quarter",
			Name:        "Mixed-Use Quarter",
			Description: "Residences for sale plus a serviced-apartment block financed by a senior facility",
			Category:    "mixed",
		},
		document: func() string { return factory.MixedUseJSON("mixed-use-quarter", "Mixed-Use Quarter") },
	},
}

// ListDemos returns available demo scenarios.
func (h *Handler) ListDemos(w http.ResponseWriter, r *http.Request) {
	out := make([]DemoDTO, 0, len(demos))
	for _, d := range demos {
		out = append(out, d.DemoDTO)
	}
	writeJSON(w, http.StatusOK, out)
}

// LoadDemo saves a demo scenario, optionally clearing the store first.
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	var req LoadDemoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var found *demo
	for i := range demos {
		if demos[i].ID == req.DemoID {
			found = &demos[i]
			break
		}
	}
	if found == nil {
		writeError(w, http.StatusBadRequest, "Unknown demo", fmt.Errorf("no demo %q", req.DemoID))
		return
	}

	if req.Reset {
		if err := h.Store.Reset(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
			return
		}
	}

	var doc factory.ScenarioDocument
	if err := json.Unmarshal([]byte(found.document()), &doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Demo document is invalid", err)
		return
	}
	dto, err := h.saveDocument(r, &doc)
	if err != nil {
		writeFailure(w, fmt.Sprintf("Failed to load demo %s", req.DemoID), err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}
