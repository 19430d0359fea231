package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/retailmap/pkg/dataset"
)

type config struct {
	Addr          string        `yaml:"addr"`
	DataDir       string        `yaml:"data_dir"`
	DistrictDir   string        `yaml:"district_dir"`
	StaticDir     string        `yaml:"static_dir"`
	Manifest      string        `yaml:"manifest"`
	Encoding      string        `yaml:"encoding"`
	SourcesDB     string        `yaml:"sources_db"`
	Cache         bool          `yaml:"cache"`
	CheckInterval time.Duration `yaml:"check_interval"`
	RateLimit     float64       `yaml:"rate_limit"`
	Burst         int           `yaml:"burst"`
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "convert":
		cmdConvert(os.Args[2:])
	case "convert-stats":
		cmdConvertStats(os.Args[2:])
	case "validate":
		cmdValidate(os.Args[2:])
	case "check":
		cmdCheck(os.Args[2:])
	case "sources":
		cmdSources(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: retailmap <command> [-config path]

Commands:
  serve          Start the HTTP server
  mcp            Serve the MCP tools over stdio
  convert        Convert brand tables to GeoJSON
  convert-stats  Convert the district statistics table to GeoJSON
  validate       Report stores with invalid state names
  check          Join statistics to district polygons and list unmatched districts
  sources        List catalogued source files
`)
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}

// configFlag registers -config, defaulting to $RETAILMAP_CONFIG or config.yaml.
func configFlag(fs *flag.FlagSet) *string {
	def := os.Getenv("RETAILMAP_CONFIG")
	if def == "" {
		def = "config.yaml"
	}
	return fs.String("config", def, "path to config file")
}

func defaultConfig() config {
	return config{
		Addr:          ":8000",
		DataDir:       "Finalized Data",
		DistrictDir:   "District Data",
		StaticDir:     "static",
		Cache:         true,
		CheckInterval: 5 * time.Minute,
		Burst:         20,
	}
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "path", path, "error", err)
		os.Exit(1)
	}
	return cfg
}

// newLoader builds the dataset loader the subcommands share.
func newLoader(cfg config, logger *slog.Logger) *dataset.Loader {
	m, err := dataset.LoadManifest(cfg.Manifest)
	if err != nil {
		logger.Error("load manifest", "path", cfg.Manifest, "error", err)
		os.Exit(1)
	}
	var cache *dataset.Cache
	if cfg.Cache {
		cache = dataset.NewCache()
	}
	return dataset.NewLoader(m, dataset.Options{
		DataDir:     cfg.DataDir,
		DistrictDir: cfg.DistrictDir,
		StaticDir:   cfg.StaticDir,
		Encoding:    cfg.Encoding,
		Cache:       cache,
		Logger:      logger,
	})
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
