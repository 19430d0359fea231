package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/retailmap/pkg/catalog"
	"github.com/hazyhaar/retailmap/pkg/dataset"
	"github.com/hazyhaar/retailmap/pkg/district"
	"github.com/hazyhaar/retailmap/pkg/kit"
	"github.com/hazyhaar/retailmap/pkg/metrics"
	"github.com/hazyhaar/retailmap/pkg/names"
	"github.com/hazyhaar/retailmap/pkg/report"
)

// Service is what every endpoint reads from. Catalog may be nil.
type Service struct {
	Loader  *dataset.Loader
	Engine  *district.Engine
	Catalog *catalog.DB
	Logger  *slog.Logger
}

// NewService wires an engine configured from the loader's manifest.
func NewService(loader *dataset.Loader, cat *catalog.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Loader:  loader,
		Engine:  district.NewEngine(loader.Manifest.StateCodes, logger),
		Catalog: cat,
		Logger:  logger,
	}
}

// Shared request/response types used by both HTTP and MCP transports.

type matchRequest struct {
	State    string `json:"state"`
	District string `json:"district"`
}

type districtStatsRequest struct {
	State string // optional filter, compared by normalized key
}

type centersRequest struct {
	Brand string
}

type healthResponse struct {
	Status         string `json:"status"`
	StatsAvailable bool   `json:"stats_available"`
	CacheEntries   int    `json:"cache_entries"`
}

type sourcesResponse struct {
	Sources []catalog.Entry `json:"sources"`
}

// loadAll loads every brand table and records the per-file outcome.
func (s *Service) loadAll(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := s.Loader.LoadAll()
	if err != nil {
		metrics.ObserveLoad(catalog.KindBrand, err)
		return nil, err
	}
	for _, r := range ds.Results {
		metrics.ObserveLoad(catalog.KindBrand, r.Err)
	}
	metrics.StoresLoaded.Set(float64(len(ds.Stores)))
	if s.Catalog != nil {
		if err := s.Catalog.RecordLoad(ds.Results); err != nil {
			kit.Logger(ctx, s.Logger).Warn("catalog record failed", "error", err)
		}
	}
	return ds, nil
}

func (s *Service) loadStats() ([]district.StatRow, error) {
	rows, err := s.Loader.LoadStats()
	metrics.ObserveLoad(catalog.KindStats, err)
	return rows, err
}

func (s *Service) polygons(kind string) (*district.FeatureCollection, error) {
	fc, err := s.Loader.Polygons(kind)
	metrics.ObserveLoad(catalog.KindPolygons, err)
	return fc, err
}

// storeFeatures renders stores as point features for the map.
func storeFeatures(ds *dataset.Dataset, m *dataset.Manifest) *district.FeatureCollection {
	fc := district.NewFeatureCollection()
	for i, st := range ds.Stores {
		key := strings.ToLower(st.BrandKey)
		fc.Features = append(fc.Features, district.PointFeature(st.Lat, st.Lon, map[string]any{
			"id":         i,
			"store_code": st.Type,
			"store_name": orDefault(st.Name, "Unknown Store"),
			"address":    strings.ReplaceAll(st.Address, `\n`, ", "),
			"city":       orDefault(st.City, "Unknown"),
			"state":      orDefault(st.State, "Unknown"),
			"brand":      orDefault(st.Brand, "Unknown"),
			"brand_key":  key,
			"sector":     st.Category,
			"category":   st.Category,
			"color":      m.Color(key),
		}))
	}
	return fc
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func dataEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		ds, err := s.loadAll(ctx)
		if err != nil {
			return nil, err
		}
		return storeFeatures(ds, s.Loader.Manifest), nil
	}
}

func statsEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		ds, err := s.loadAll(ctx)
		if err != nil {
			return nil, err
		}
		return report.Summarize(ds), nil
	}
}

func categoriesEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		sources, err := s.Loader.Scan()
		if err != nil {
			return nil, err
		}
		return report.Categories(sources, s.Loader.Manifest), nil
	}
}

func brandColorsEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		out := make(map[string]string, len(s.Loader.Manifest.BrandColors))
		for k, v := range s.Loader.Manifest.BrandColors {
			out[k] = v
		}
		return out, nil
	}
}

func districtStatsEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		rows, err := s.loadStats()
		if err != nil {
			return nil, err
		}
		var filter string
		if req, ok := request.(*districtStatsRequest); ok && req != nil {
			filter = district.ResolveState(req.State, s.Loader.Manifest.StateCodes)
		}
		out := make([]district.StatRow, 0, len(rows))
		for _, r := range rows {
			if filter != "" && !sameName(r.State, filter) && !sameName(r.District, filter) {
				continue
			}
			out = append(out, r)
		}
		return out, nil
	}
}

func districtsEndpoint(s *Service) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		fc, err := s.polygons("districts")
		if err != nil {
			return nil, err
		}
		rows, err := s.loadStats()
		if err != nil {
			return nil, err
		}
		res := s.Engine.Attach(fc, rows)
		metrics.ObserveAttach(res)
		kit.Logger(ctx, s.Logger).Info("districts joined",
			"features", res.Features, "matched", res.Matched, "unmatched", len(res.Unmatched))
		return fc, nil
	}
}

func statesEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return s.polygons("states")
	}
}

func centersEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*centersRequest)
		fc, err := s.Loader.Centers(req.Brand)
		metrics.ObserveLoad(catalog.KindCenters, err)
		return fc, err
	}
}

func matchDistrictEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*matchRequest)
		if strings.TrimSpace(req.District) == "" && strings.TrimSpace(req.State) == "" {
			return nil, fmt.Errorf("state or district is required")
		}
		rows, err := s.loadStats()
		if err != nil {
			return nil, err
		}
		ix := district.NewIndex(rows)
		return s.Engine.MatchQuery(ix, s.Engine.Resolve(req.State, req.District)), nil
	}
}

func sourcesEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		if s.Catalog == nil {
			return sourcesResponse{Sources: []catalog.Entry{}}, nil
		}
		entries, err := s.Catalog.List()
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []catalog.Entry{}
		}
		return sourcesResponse{Sources: entries}, nil
	}
}

func healthEndpoint(s *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		_, err := s.Loader.StatsPath()
		n := 0
		if c := s.Loader.Cache(); c != nil {
			n = c.Len()
		}
		return healthResponse{Status: "ok", StatsAvailable: err == nil, CacheEntries: n}, nil
	}
}

func sameName(a, b string) bool {
	return a != "" && names.Key(a) == names.Key(b)
}
