package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/solar-sizing-service/internal/domain"
	"github.com/couchcryptid/solar-sizing-service/internal/observability"
	"github.com/couchcryptid/solar-sizing-service/internal/thermal"
)

const maxBodyBytes = 64 << 10

// API serves sizing requests over HTTP.
type API struct {
	engine   *thermal.Engine
	geocoder domain.Geocoder // nil disables site resolution
	limiter  *ClientLimiter  // nil disables throttling
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAPI creates the sizing API handlers.
func NewAPI(engine *thermal.Engine, geocoder domain.Geocoder, limiter *ClientLimiter, metrics *observability.Metrics, logger *slog.Logger) *API {
	return &API{
		engine:   engine,
		geocoder: geocoder,
		limiter:  limiter,
		metrics:  metrics,
		logger:   logger,
	}
}

func (a *API) register(mux *http.ServeMux) {
	mux.Handle("POST /v1/sizing", a.instrument("sizing", a.handleSizeJSON))
	mux.Handle("GET /v1/sizing", a.instrument("sizing", a.handleSizeQuery))
	mux.Handle("GET /v1/locales", a.instrument("locales", a.handleLocales))
}

// instrument applies the per-client limit and counts responses by route.
func (a *API) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if a.limiter != nil && !a.limiter.Allow(clientKey(r)) {
			a.metrics.HTTPThrottled.Inc()
			writeError(rec, http.StatusTooManyRequests, "rate limit exceeded")
		} else {
			h(rec, r)
		}
		a.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

func (a *API) handleSizeJSON(w http.ResponseWriter, r *http.Request) {
	var req domain.SizingRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	a.size(w, r, req)
}

func (a *API) handleSizeQuery(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.size(w, r, req)
}

func (a *API) size(w http.ResponseWriter, r *http.Request, req domain.SizingRequest) {
	if req.Locale == "" {
		req.Locale = a.engine.Registry().LookupAcceptLanguage(r.Header.Get("Accept-Language")).Locale
	}
	if err := domain.ValidateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req = domain.NormalizeRequest(req)
	req = domain.ResolveSite(r.Context(), req, a.geocoder, a.logger)

	report := domain.BuildReport(req, a.engine)
	a.metrics.RecordSizing("http", report.Result.Locale, len(report.Result.Warnings))
	a.logger.Debug("sizing served",
		"request_id", report.ID,
		"locale", report.Result.Locale,
		"climate_zone", report.Result.ClimateZone,
		"panels", report.Result.PanelCount,
	)
	writeJSON(w, http.StatusOK, report)
}

type localeInfo struct {
	Locale   string `json:"locale"`
	Currency string `json:"currency"`
	Default  bool   `json:"default"`
}

func (a *API) handleLocales(w http.ResponseWriter, _ *http.Request) {
	sets := a.engine.Registry().Sets()
	out := make([]localeInfo, len(sets))
	for i, s := range sets {
		out[i] = localeInfo{Locale: s.Locale, Currency: s.Currency, Default: i == 0}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
