package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/scenario"
)

func writeTable(w io.Writer, s *scenario.Scenario, res *scenario.Result, rows []scenario.SensitivityRow) error {
	fmt.Fprintf(w, "%s (%d months)\n\n", s.Name, res.Months)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Month\tRevenue\tCosts\tDebt draws\tDebt service\tLevered CF\tCumulative\t")
	for m := 0; m < res.Months; m++ {
		month := engine.Month(m)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			res.Labels[m],
			money(res.Revenue.At(month)),
			money(res.Costs.At(month)),
			money(res.DebtDraws.At(month)),
			money(res.DebtService.At(month)),
			money(res.LeveredCashFlow.At(month)),
			money(res.Cumulative.At(month)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	k := res.KPIs
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total revenue   %s\n", money(k.TotalRevenue))
	fmt.Fprintf(w, "Total cost      %s\n", money(k.TotalCost))
	fmt.Fprintf(w, "Profit          %s (margin %s)\n", money(k.Profit), percent(k.Margin.InexactFloat64()))
	fmt.Fprintf(w, "Unlevered NPV   %s\n", money(k.UnleveredNPV))
	fmt.Fprintf(w, "Unlevered IRR   %s\n", irr(k.UnleveredIRR))
	fmt.Fprintf(w, "Levered IRR     %s\n", irr(k.LeveredIRR))
	fmt.Fprintf(w, "Peak funding    %s\n", money(k.PeakFunding))
	if k.PaybackMonth >= 0 {
		fmt.Fprintf(w, "Payback         %s\n", res.Labels[k.PaybackMonth])
	} else {
		fmt.Fprintf(w, "Payback         never\n")
	}

	if len(rows) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Variation\tProfit\tChange\tUnlevered IRR\t")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			row.Variation.Name, money(row.KPIs.Profit), money(row.DeltaProfit), irr(row.KPIs.UnleveredIRR))
	}
	return tw.Flush()
}

type jsonOutput struct {
	Labels            []string                  `json:"labels"`
	Revenue           engine.Series             `json:"revenue"`
	Costs             engine.Series             `json:"costs"`
	CostsByCategory   map[string]engine.Series  `json:"costs_by_category"`
	UnleveredCashFlow engine.Series             `json:"unlevered_cash_flow"`
	LeveredCashFlow   engine.Series             `json:"levered_cash_flow"`
	Cumulative        engine.Series             `json:"cumulative"`
	KPIs              scenario.KPIs             `json:"kpis"`
	Sensitivity       []scenario.SensitivityRow `json:"sensitivity,omitempty"`
}

func writeJSON(w io.Writer, res *scenario.Result, rows []scenario.SensitivityRow) error {
	out := jsonOutput{
		Labels:            res.Labels,
		Revenue:           res.Revenue,
		Costs:             res.Costs,
		CostsByCategory:   make(map[string]engine.Series, len(res.CostsByCategory)),
		UnleveredCashFlow: res.UnleveredCashFlow,
		LeveredCashFlow:   res.LeveredCashFlow,
		Cumulative:        res.Cumulative,
		KPIs:              res.KPIs,
		Sensitivity:       rows,
	}
	for cat, series := range res.CostsByCategory {
		out.CostsByCategory[string(cat)] = series
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(engine.CentPlaces)
}

func percent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

func irr(r *float64) string {
	if r == nil {
		return "n/a"
	}
	return percent(*r)
}
