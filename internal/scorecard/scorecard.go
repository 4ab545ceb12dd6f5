// Package scorecard loads the builder scorecard: one composite-metric record
// per ZCTA.
package scorecard

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/occupancy-map/internal/memo"
	"github.com/sells-group/occupancy-map/internal/metrics"
	"github.com/sells-group/occupancy-map/internal/model"
	"github.com/sells-group/occupancy-map/internal/tabular"
)

// Column names of the scorecard CSV.
const (
	ColZipCode           = "ZIP_CODE"
	ColTargetScore2024   = "TARGET_SCORE_2024"
	ColInvestmentScore   = "INVESTMENT_SCORE"
	ColForecastScore2030 = "FORECAST_SCORE_2030"
	ColForecastGrowthPct = "FORECAST_GROWTH_PCT_TO_2030"
	ColMedianIncome2544  = "MEDIAN_INCOME_25_44"
	ColVacancyRatePct    = "VACANCY_RATE_PCT"
)

const cacheName = "scorecard"

// Entry holds the six scorecard values of one area. All values are
// non-negative; missing or invalid cells are 0.
type Entry struct {
	TargetScore2024   float64 `json:"target_score_2024"`
	InvestmentScore   float64 `json:"investment_score"`
	ForecastScore2030 float64 `json:"forecast_score_2030"`
	ForecastGrowthPct float64 `json:"forecast_growth_pct"`
	MedianIncome2544  float64 `json:"median_income_25_44"`
	VacancyRatePct    float64 `json:"vacancy_rate_pct"`
}

// ByZcta maps normalized area key to its scorecard entry.
type ByZcta map[string]Entry

// Parse builds the scorecard map from a parsed table. Numeric-formatted ZIP
// codes ("601.0") lose their ".0" before normalization; rows with a blank ZIP
// are skipped; later rows overwrite earlier ones.
func Parse(t *tabular.Table) ByZcta {
	out := make(ByZcta, len(t.Rows))
	for _, r := range t.Rows {
		raw := r.String(ColZipCode)
		if raw == "" {
			continue
		}
		zcta := model.NormalizeAreaKey(strings.TrimSuffix(raw, ".0"))
		out[zcta] = Entry{
			TargetScore2024:   r.NonNegative(ColTargetScore2024),
			InvestmentScore:   r.NonNegative(ColInvestmentScore),
			ForecastScore2030: r.NonNegative(ColForecastScore2030),
			ForecastGrowthPct: r.NonNegative(ColForecastGrowthPct),
			MedianIncome2544:  r.NonNegative(ColMedianIncome2544),
			VacancyRatePct:    r.NonNegative(ColVacancyRatePct),
		}
	}
	return out
}

// Loader reads the scorecard CSV once and keeps the result.
type Loader struct {
	path string
	cell *memo.Cell[ByZcta]
}

// NewLoader creates a loader for the scorecard CSV at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path, cell: memo.NewCell[ByZcta](cacheName)}
}

// Path returns the CSV path the loader reads.
func (l *Loader) Path() string { return l.path }

// Load returns the scorecard, parsing the file on the first successful call.
// Concurrent first callers share one parse.
func (l *Loader) Load(ctx context.Context) (ByZcta, error) {
	m, _, err := l.cell.Get(ctx, l.load)
	return m, err
}

func (l *Loader) load(ctx context.Context) (ByZcta, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scorecard: load")
	}
	start := time.Now()

	t, err := tabular.ReadFile(cacheName, l.path)
	if err != nil {
		metrics.RecordBuild(cacheName, time.Since(start), err)
		return nil, eris.Wrap(err, "scorecard: read csv")
	}
	if err := t.Schema.Require(ColZipCode); err != nil {
		err = model.NewSourceError(cacheName, l.path, err)
		metrics.RecordBuild(cacheName, time.Since(start), err)
		return nil, eris.Wrap(err, "scorecard: validate header")
	}

	m := Parse(t)
	metrics.RecordBuild(cacheName, time.Since(start), nil)

	zap.L().Info("scorecard loaded",
		zap.String("component", "scorecard"),
		zap.String("path", l.path),
		zap.Int("areas", len(m)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return m, nil
}
