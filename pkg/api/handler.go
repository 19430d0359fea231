package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hazyhaar/retailmap/pkg/dataset"
	"github.com/hazyhaar/retailmap/pkg/kit"
	"github.com/hazyhaar/retailmap/pkg/metrics"
)

// Options tunes the HTTP router.
type Options struct {
	RateLimit float64 // requests per second on /api/ and /mcp, 0 disables
	Burst     int
	MCP       http.Handler // mounted at /mcp when set
}

// NewRouter returns an http.Handler with every map API route.
func NewRouter(s *Service, opts Options) http.Handler {
	mux := http.NewServeMux()
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Recover(), kit.Logging(s.Logger, name))(ep)
	}
	h := &handler{
		data:          wrap("data", dataEndpoint(s)),
		stats:         wrap("stats", statsEndpoint(s)),
		categories:    wrap("categories", categoriesEndpoint(s)),
		brandColors:   wrap("brand_colors", brandColorsEndpoint(s)),
		districtStats: wrap("district_stats", districtStatsEndpoint(s)),
		districts:     wrap("districts", districtsEndpoint(s)),
		states:        wrap("states", statesEndpoint(s)),
		centers:       wrap("distribution_centers", centersEndpoint(s)),
		match:         wrap("match_district", matchDistrictEndpoint(s)),
		sources:       wrap("sources", sourcesEndpoint(s)),
		health:        healthEndpoint(s),
	}

	mux.HandleFunc("GET /api/data", h.simple(h.data, "Failed to load data"))
	mux.HandleFunc("GET /api/stats", h.simple(h.stats, "Failed to load stats"))
	mux.HandleFunc("GET /api/categories", h.simple(h.categories, "Failed to load categories"))
	mux.HandleFunc("GET /api/brand-colors", h.simple(h.brandColors, "Failed to load brand colors"))
	mux.HandleFunc("GET /api/district_stats", h.handleDistrictStats)
	mux.HandleFunc("GET /api/districts", h.simple(h.districts, "Failed to load districts"))
	mux.HandleFunc("GET /api/districts/match", h.handleMatch)
	mux.HandleFunc("GET /api/states", h.simple(h.states, "Failed to load states"))
	mux.HandleFunc("GET /api/distribution-centers/{brand}", h.handleCenters)
	mux.HandleFunc("GET /api/distribution-centers", h.centersFor("speedmart"))
	mux.HandleFunc("GET /api/mrdiy-distribution-centers", h.centersFor("mrdiy"))
	mux.HandleFunc("GET /api/orientalkopi-distribution-centers", h.centersFor("orientalkopi"))
	mux.HandleFunc("GET /api/sources", h.simple(h.sources, "Failed to list sources"))
	mux.HandleFunc("GET /health", h.simple(h.health, "Health check failed"))
	mux.Handle("GET /metrics", metrics.Handler())
	if opts.MCP != nil {
		mux.Handle("/mcp", opts.MCP)
	}

	var next http.Handler = mux
	next = cors(next)
	if opts.RateLimit > 0 {
		next = rateLimit(opts.RateLimit, opts.Burst, next)
	}
	return requestLog(s.Logger, next)
}

type handler struct {
	data          kit.Endpoint
	stats         kit.Endpoint
	categories    kit.Endpoint
	brandColors   kit.Endpoint
	districtStats kit.Endpoint
	districts     kit.Endpoint
	states        kit.Endpoint
	centers       kit.Endpoint
	match         kit.Endpoint
	sources       kit.Endpoint
	health        kit.Endpoint
}

// simple serves an endpoint that takes no request parameters.
func (h *handler) simple(ep kit.Endpoint, failure string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := ep(r.Context(), nil)
		if err != nil {
			writeFailure(w, r, failure, err)
			return
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

// --- district stats ---

func (h *handler) handleDistrictStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.districtStats(r.Context(), &districtStatsRequest{State: r.URL.Query().Get("state")})
	if err != nil {
		writeFailure(w, r, "Failed to load district stats", err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// --- single district match ---

func (h *handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &matchRequest{State: q.Get("state"), District: q.Get("district")}
	if strings.TrimSpace(req.State) == "" && strings.TrimSpace(req.District) == "" {
		writeError(w, r, http.StatusBadRequest, "missing state or district")
		return
	}
	resp, err := h.match(r.Context(), req)
	if err != nil {
		writeFailure(w, r, "Failed to match district", err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// --- distribution centers ---

func (h *handler) handleCenters(w http.ResponseWriter, r *http.Request) {
	h.serveCenters(w, r, r.PathValue("brand"))
}

func (h *handler) centersFor(brand string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveCenters(w, r, brand)
	}
}

func (h *handler) serveCenters(w http.ResponseWriter, r *http.Request, brand string) {
	if brand == "" {
		writeError(w, r, http.StatusBadRequest, "missing brand")
		return
	}
	resp, err := h.centers(r.Context(), &centersRequest{Brand: brand})
	if err != nil {
		writeFailure(w, r, "Failed to load distribution centers", err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// --- helpers ---

// writeJSON encodes v fully before writing, so a failure never leaves a
// truncated body.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		kit.Logger(r.Context(), nil).Error("encode response", "path", r.URL.Path, "error", err)
		code = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
	w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, r, code, map[string]string{"error": msg})
}

type failureResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Tried   []string `json:"tried,omitempty"`
}

// writeFailure maps a missing source to 404 with the locations tried and
// anything else to 500.
func writeFailure(w http.ResponseWriter, r *http.Request, failure string, err error) {
	var nf *dataset.NotFoundError
	if errors.As(err, &nf) {
		writeJSON(w, r, http.StatusNotFound, failureResponse{Error: failure, Message: err.Error(), Tried: nf.Tried})
		return
	}
	writeJSON(w, r, http.StatusInternalServerError, failureResponse{Error: failure, Message: err.Error()})
}
