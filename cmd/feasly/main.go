/*
main.go - Command-line calculator

PURPOSE:
  Calculates a scenario document (JSON or YAML) without a server and
  prints its monthly cash flow and KPIs.

USAGE:
  feasly -f hotel.yaml                 # table to stdout
  feasly -f hotel.json -format csv     # monthly series as CSV
  feasly -f hotel.yaml -format json    # series and KPIs as JSON
  feasly -f hotel.yaml -sensitivity    # append the default sensitivity table
  feasly -demo hotel                   # calculate a built-in preset

EXIT CODES:
  0 success, 1 calculation or I/O error, 2 bad usage

SEE ALSO:
  - factory/scenario.go: document format
  - scenario/export.go: CSV layout
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/feasly/feasibility-engine/factory"
	"github.com/feasly/feasibility-engine/scenario"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("feasly: ")

	file := flag.String("f", "", "Scenario document (.json, .yaml or .yml)")
	demo := flag.String("demo", "", "Built-in preset instead of a file: hotel, residential or mixed")
	format := flag.String("format", "table", "Output format: table, csv or json")
	sensitivity := flag.Bool("sensitivity", false, "Also run the default sensitivity table")
	flag.Parse()

	if (*file == "") == (*demo == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -f or -demo is required")
		flag.Usage()
		os.Exit(2)
	}

	s, err := load(*file, *demo)
	if err != nil {
		log.Fatal(err)
	}
	if err := run(os.Stdout, s, *format, *sensitivity); err != nil {
		log.Fatal(err)
	}
}

func load(file, demo string) (*scenario.Scenario, error) {
	f := factory.NewScenarioFactory()
	if file != "" {
		s, _, err := f.ParseFile(file)
		return s, err
	}

	var doc string
	switch demo {
	case "hotel":
		doc = factory.HotelJSON("hotel", "Hotel", 120, 185)
	case "residential":
		doc = factory.ResidentialSaleJSON("residential", "Residential", 48, 450000)
	case "mixed":
		doc = factory.MixedUseJSON("mixed", "Mixed use")
	default:
		return nil, fmt.Errorf("unknown demo %q", demo)
	}
	s, _, err := f.ParseScenario([]byte(doc))
	return s, err
}

func run(w io.Writer, s *scenario.Scenario, format string, withSensitivity bool) error {
	res, err := scenario.Calculate(*s)
	if err != nil {
		return err
	}

	var rows []scenario.SensitivityRow
	if withSensitivity {
		if rows, err = scenario.RunSensitivity(*s, scenario.DefaultVariations()); err != nil {
			return err
		}
	}

	switch format {
	case "table":
		return writeTable(w, s, res, rows)
	case "csv":
		return scenario.WriteCSV(w, res)
	case "json":
		return writeJSON(w, res, rows)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
