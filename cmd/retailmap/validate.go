package main

import (
	"flag"
	"fmt"

	"github.com/hazyhaar/retailmap/pkg/report"
)

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := configFlag(fs)
	output := fs.String("output", "state_validation_report.xlsx", "spreadsheet report path, empty to skip")
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	loader := newLoader(cfg, logger)

	v, err := report.ValidateStates(loader, loader.Manifest, logger)
	if err != nil {
		fatal(logger, "validate states", err)
	}

	fmt.Printf("Files checked: %d\nRows checked:  %d\n", v.Files, v.Rows)
	for _, f := range v.Failed {
		fmt.Printf("  could not load: %s\n", f)
	}
	invalid := v.InvalidStates()
	if len(invalid) == 0 {
		fmt.Println("All state values are valid.")
	} else {
		fmt.Printf("\n%d problematic entries, %d invalid state values:\n", len(v.Issues), len(invalid))
		for _, s := range invalid {
			fmt.Printf("  %-30q %5d  %v\n", s.Value, s.Count, s.Files)
		}
	}

	if *output != "" {
		if err := v.WriteXLSX(*output); err != nil {
			fatal(logger, "write report", err)
		}
		fmt.Printf("\nReport written to %s\n", *output)
	}
}
