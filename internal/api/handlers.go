package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/sells-group/occupancy-map/internal/choropleth"
)

const (
	msgChoroplethFailed = "Failed to load occupancy choropleth data."
	msgSeriesFailed     = "Failed to load feature time series."
	msgZctaRequired     = "zcta is required"
)

type handler struct {
	payload PayloadSource
	series  SeriesSource
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// occupancyChoropleth streams the payload. The build is shared by every
// waiting request, so it runs detached from this request's cancellation.
func (h *handler) occupancyChoropleth(w http.ResponseWriter, r *http.Request) {
	p, hit, err := h.payload.Payload(context.WithoutCancel(r.Context()))
	if err != nil {
		zap.L().Error("api: build choropleth payload", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgChoroplethFailed})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}

	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	if err := choropleth.WriteStream(w, p, flush); err != nil {
		zap.L().Warn("api: choropleth stream aborted", zap.Error(err))
	}
}

func (h *handler) featureTimeSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	zcta := strings.TrimSpace(q.Get("zcta"))
	if zcta == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgZctaRequired})
		return
	}

	ids := splitList(q.Get("features"))
	res, err := h.series.Series(context.WithoutCancel(r.Context()), ids, zcta)
	if err != nil {
		zap.L().Error("api: load feature time series",
			zap.String("zcta", zcta), zap.Strings("features", ids), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgSeriesFailed})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// featureInfo is the client-facing subset of a definition.
type featureInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Unit  string `json:"unit"`
	Color string `json:"color"`
}

func (h *handler) features(w http.ResponseWriter, _ *http.Request) {
	defs := h.series.Definitions()
	out := make([]featureInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, featureInfo{ID: d.ID, Label: d.Label, Group: d.Group, Unit: d.Unit, Color: d.Color})
	}
	writeJSON(w, http.StatusOK, out)
}

type statusBody struct {
	Built bool              `json:"built"`
	Stats *choropleth.Stats `json:"stats,omitempty"`
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	stats, ok := h.payload.Stats()
	body := statusBody{Built: ok}
	if ok {
		body.Stats = &stats
	}
	writeJSON(w, http.StatusOK, body)
}

// splitList splits a comma-separated query value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
