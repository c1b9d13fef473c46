package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kirillkom/lostfound-matcher/internal/config"
	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/core/ports"
	"github.com/kirillkom/lostfound-matcher/internal/observability/metrics"
)

const maxBodyBytes = 1 << 20

// Services are the inbound ports the router dispatches to. Queue is optional
// and only needed for async batch runs.
type Services struct {
	Matcher  ports.PairMatcher
	Batch    ports.BatchRunner
	Finder   ports.PotentialFinder
	Analyzer ports.ItemAnalyzer
	Reviewer ports.MatchReviewer
	Queue    ports.BatchQueue
}

type Router struct {
	cfg      config.Config
	services Services
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, services Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:      cfg,
		services: services,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/matches/score", rt.scorePair)
	mux.HandleFunc("POST /v1/matches/batch", rt.runBatch)
	mux.HandleFunc("GET /v1/matches/potential", rt.discoverPotential)
	mux.HandleFunc("GET /v1/matches/potential.xlsx", rt.exportPotential)
	mux.HandleFunc("GET /v1/matches", rt.listMatches)
	mux.HandleFunc("GET /v1/matches/stats", rt.matchStats)
	mux.HandleFunc("PATCH /v1/matches/status", rt.updateMatchStatus)
	mux.HandleFunc("POST /v1/items/{kind}/{id}/analyze", rt.analyzeItem)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.onRateLimited)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	if rt.metrics != nil {
		outer := http.NewServeMux()
		outer.Handle("GET /metrics", rt.metrics.Handler())
		outer.Handle("/", rt.metrics.Middleware("api", handler))
		handler = outer
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) onRateLimited(r *http.Request) {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited("api", r.URL.Path)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a strict JSON body. An empty body is allowed when
// allowEmpty is set and leaves dst untouched.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode request body", err)
	}
	if dec.More() {
		return domain.WrapError(domain.ErrInvalidInput, "decode request body", errors.New("unexpected trailing data"))
	}
	return nil
}

func queryInt(values url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse query", fmt.Errorf("%s must be an integer", key))
	}
	return n, nil
}

func parseCategory(raw string) (domain.Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	category := domain.Category(raw)
	if !category.Valid() {
		return "", domain.WrapError(domain.ErrInvalidInput, "parse category", fmt.Errorf("unknown category %q", raw))
	}
	return category, nil
}
