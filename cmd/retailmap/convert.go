package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/retailmap/pkg/dataset"
)

const geojsonDir = "GEOJSON Data"

func cmdConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	loader := newLoader(cfg, logger)

	sources, err := loader.Scan()
	if err != nil {
		fatal(logger, "scan data folder", err)
	}

	var ok, failed, features int
	for _, src := range sources {
		fc, err := loader.BrandFeatures(src)
		if err != nil {
			logger.Warn("convert failed", "file", src.Path, "error", err)
			failed++
			continue
		}
		out := geojsonPath(src)
		if err := writeJSONFile(out, fc); err != nil {
			logger.Warn("write failed", "file", out, "error", err)
			failed++
			continue
		}
		logger.Info("converted", "file", src.Path, "output", out, "features", len(fc.Features))
		ok++
		features += len(fc.Features)
	}
	fmt.Printf("Converted %d of %d files (%d features, %d failed)\n", ok, len(sources), features, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// geojsonPath places a table's output in a GEOJSON Data folder beside it.
func geojsonPath(src dataset.Source) string {
	stem := strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
	return filepath.Join(filepath.Dir(src.Path), geojsonDir, stem+".geojson")
}

func cmdConvertStats(args []string) {
	fs := flag.NewFlagSet("convert-stats", flag.ExitOnError)
	cfgPath := configFlag(fs)
	output := fs.String("output", "", "output path (default: District Statistics.geojson in district_dir)")
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	loader := newLoader(cfg, logger)

	doc, err := loader.StatsFeatures()
	if err != nil {
		fatal(logger, "convert statistics", err)
	}
	if len(doc.Metadata.Missing) > 0 {
		logger.Warn("statistics table is missing expected columns", "missing", doc.Metadata.Missing)
	}
	out := *output
	if out == "" {
		out = filepath.Join(cfg.DistrictDir, "District Statistics.geojson")
	}
	if err := writeJSONFile(out, doc); err != nil {
		fatal(logger, "write statistics", err)
	}
	fmt.Printf("Converted %d district records to %s\n", len(doc.Features), out)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
