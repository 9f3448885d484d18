package scenario

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/feasly/feasibility-engine/engine"
)

// CSVHeader is the column order written by WriteCSV.
var CSVHeader = []string{
	"month", "label",
	"rental_revenue", "sale_revenue", "revenue", "costs",
	"unlevered_cash_flow", "debt_draws", "debt_service",
	"levered_cash_flow", "cumulative",
}

// WriteCSV writes one row per month of res with amounts to two decimals.
func WriteCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	columns := []engine.Series{
		res.RentalRevenue, res.SaleRevenue, res.Revenue, res.Costs,
		res.UnleveredCashFlow, res.DebtDraws, res.DebtService,
		res.LeveredCashFlow, res.Cumulative,
	}
	for m := 0; m < res.Months; m++ {
		row := make([]string, 0, len(CSVHeader))
		row = append(row, strconv.Itoa(m), res.Labels[m])
		for _, col := range columns {
			row = append(row, col.At(engine.Month(m)).StringFixed(engine.CentPlaces))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
