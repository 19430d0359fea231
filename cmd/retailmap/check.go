package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/hazyhaar/retailmap/pkg/district"
)

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	loader := newLoader(cfg, logger)

	fc, err := loader.Polygons("districts")
	if err != nil {
		fatal(logger, "load district polygons", err)
	}
	rows, err := loader.LoadStats()
	if err != nil {
		fatal(logger, "load district statistics", err)
	}
	res := district.NewEngine(loader.Manifest.StateCodes, logger).Attach(fc, rows)

	fmt.Printf("Statistics rows: %d\nPolygons:        %d\nMatched:         %d\n", len(rows), res.Features, res.Matched)
	strategies := make([]string, 0, len(res.ByStrategy))
	for s := range res.ByStrategy {
		strategies = append(strategies, s)
	}
	sort.Strings(strategies)
	for _, s := range strategies {
		fmt.Printf("  %-20s %d\n", s, res.ByStrategy[s])
	}
	if len(res.Unmatched) == 0 {
		return
	}
	fmt.Printf("\nUnmatched (%d):\n", len(res.Unmatched))
	for _, u := range res.Unmatched {
		fmt.Printf("  %s / %s\n", u.State, u.District)
	}
	os.Exit(2)
}
