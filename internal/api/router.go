// Package api exposes the choropleth payload and feature time series over
// HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/occupancy-map/internal/choropleth"
	"github.com/sells-group/occupancy-map/internal/timeseries"
)

// PayloadSource provides the memoized choropleth payload.
type PayloadSource interface {
	Payload(ctx context.Context) (*choropleth.Payload, bool, error)
	Stats() (choropleth.Stats, bool)
}

// SeriesSource provides feature time series and the feature catalog.
type SeriesSource interface {
	Series(ctx context.Context, ids []string, zcta string) (map[string][]timeseries.Point, error)
	Definitions() []timeseries.Definition
}

// Options configures the router middleware.
type Options struct {
	CORSOrigins []string
	// RateLimitPerMinute caps requests per client IP; 0 disables the limit.
	RateLimitPerMinute int
}

// NewRouter wires the HTTP routes.
func NewRouter(payload PayloadSource, series SeriesSource, opts Options) http.Handler {
	h := &handler{payload: payload, series: series}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Cache", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
		}
		r.Get("/occupancy-choropleth", h.occupancyChoropleth)
		r.Get("/feature-timeseries", h.featureTimeSeries)
		r.Get("/features", h.features)
		r.Get("/status", h.status)
	})

	return r
}
