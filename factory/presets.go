package factory

import (
	"encoding/json"
)

// =============================================================================
// PRESET SCENARIOS
// =============================================================================
//
// Each preset returns a JSON scenario document built from a few headline
// inputs. They back the demo loader and make convenient test fixtures.

// HotelJSON returns a five-year hotel development: land and construction
// over two years, a construction loan, and three years of trading with a
// ramping occupancy curve.
func HotelJSON(id, name string, keys int, adr float64) string {
	doc := map[string]interface{}{
		"id":            id,
		"name":          name,
		"timeline":      map[string]interface{}{"months": 60, "start": "2026-01"},
		"discount_rate": 0.10,
		"rentals": []map[string]interface{}{{
			"name":            "Guest rooms",
			"units":           keys,
			"adr":             adr,
			"occupancy":       0.72,
			"start_month":     24,
			"end_month":       59,
			"escalation":      0.03,
			"occupancy_curve": []float64{0.45, 0.55, 0.65, 0.72, 0.75, 0.75},
		}},
		"costs": []map[string]interface{}{
			{"name": "Land", "category": "land", "amount": float64(keys) * 45000, "start_month": 0, "end_month": 0},
			{"name": "Construction", "category": "hard", "amount": float64(keys) * 210000, "start_month": 3, "end_month": 23, "escalation": 0.04},
			{"name": "Design & fees", "category": "soft", "amount": float64(keys) * 18000, "start_month": 0, "end_month": 23},
		},
		"debt": []map[string]interface{}{{
			"name":                 "Construction loan",
			"principal":            float64(keys) * 150000,
			"annual_rate":          0.075,
			"draw_month":           6,
			"term_months":          120,
			"interest_only_months": 18,
		}},
	}
	return marshalPreset(doc)
}

// ResidentialSaleJSON returns a build-to-sell apartment scheme with an
// off-plan sales curve weighted to the middle of the sales window.
func ResidentialSaleJSON(id, name string, units int, pricePerUnit float64) string {
	gdv := float64(units) * pricePerUnit
	doc := map[string]interface{}{
		"id":            id,
		"name":          name,
		"timeline":      map[string]interface{}{"months": 36, "start": "2026-01"},
		"discount_rate": 0.12,
		"sales": []map[string]interface{}{{
			"name":           "Apartments",
			"units":          units,
			"price_per_unit": pricePerUnit,
			"start_month":    12,
			"end_month":      35,
			"escalation":     0.02,
			"sell_through":   []float64{1, 2, 4, 4, 2, 1},
		}},
		"costs": []map[string]interface{}{
			{"name": "Land", "category": "land", "amount": gdv * 0.20, "start_month": 0, "end_month": 0},
			{"name": "Construction", "category": "hard", "amount": gdv * 0.50, "start_month": 2, "end_month": 26},
			{"name": "Sales & marketing", "category": "soft", "amount": gdv * 0.03, "start_month": 10, "end_month": 35},
		},
	}
	return marshalPreset(doc)
}

// MixedUseJSON returns a scheme combining for-sale residences with a
// serviced-apartment block that trades after completion.
func MixedUseJSON(id, name string) string {
	doc := map[string]interface{}{
		"id":            id,
		"name":          name,
		"timeline":      map[string]interface{}{"months": 72, "start": "2026-07"},
		"discount_rate": 0.10,
		"rentals": []map[string]interface{}{{
			"name":        "Serviced apartments",
			"units":       80,
			"adr":         140,
			"occupancy":   0.80,
			"start_month": 30,
			"end_month":   71,
			"escalation":  0.025,
		}},
		"sales": []map[string]interface{}{{
			"name":           "Residences",
			"units":          60,
			"price_per_unit": 520000,
			"start_month":    18,
			"end_month":      41,
		}},
		"costs": []map[string]interface{}{
			{"name": "Land", "category": "land", "amount": 9000000, "start_month": 0, "end_month": 0},
			{"name": "Construction", "category": "hard", "amount": 34000000, "start_month": 4, "end_month": 29, "escalation": 0.035},
			{"name": "Professional fees", "category": "soft", "amount": 3200000, "start_month": 0, "end_month": 29},
			{"name": "Arrangement fee", "category": "financing", "amount": 250000, "start_month": 6, "end_month": 6},
		},
		"debt": []map[string]interface{}{{
			"name":                 "Senior facility",
			"principal":            25000000,
			"annual_rate":          0.07,
			"draw_month":           6,
			"term_months":          84,
			"interest_only_months": 24,
		}},
	}
	return marshalPreset(doc)
}

func marshalPreset(doc map[string]interface{}) string {
	b, _ := json.MarshalIndent(doc, "", "  ")
	return string(b)
}
