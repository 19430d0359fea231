package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hazyhaar/retailmap/pkg/catalog"
)

func cmdSources(args []string) {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	cfgPath := configFlag(fs)
	refresh := fs.Bool("check", true, "run an availability check before listing")
	fs.Parse(args)

	logger := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	if cfg.SourcesDB == "" {
		cfg.SourcesDB = "sources.db"
	}
	loader := newLoader(cfg, logger)

	cat, err := catalog.Open(cfg.SourcesDB)
	if err != nil {
		fatal(logger, "open sources db", err)
	}
	defer cat.Close()

	if *refresh {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		catalog.NewChecker(cat, logger, cfg.CheckInterval, catalog.Discover(loader)).CheckAll(ctx)
		cancel()
	}

	entries, err := cat.List()
	if err != nil {
		fatal(logger, "list sources", err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tSTATUS\tROWS\tVALID\tCATEGORY\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Kind, str(e.LastStatus, "-"), num(e.Rows), num(e.Valid), e.Category, e.Path)
	}
	w.Flush()
}

func str(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func num(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}
