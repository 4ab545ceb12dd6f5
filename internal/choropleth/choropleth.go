// Package choropleth merges occupancy, scorecard and boundary sources into the
// simplified feature collection served to map clients, and memoizes it.
package choropleth

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/occupancy-map/internal/boundary"
	"github.com/sells-group/occupancy-map/internal/memo"
	"github.com/sells-group/occupancy-map/internal/metrics"
	"github.com/sells-group/occupancy-map/internal/occupancy"
	"github.com/sells-group/occupancy-map/internal/scorecard"
	"github.com/sells-group/occupancy-map/internal/simplify"
)

const cacheName = "choropleth"

// Property keys of every feature besides the per-year t_, o_ and v_ fields.
const (
	PropZcta            = "zcta"
	PropTargetScore     = "target_score"
	PropInvestmentScore = "investment_score"
	PropForecast2030    = "forecast_2030"
	PropForecastGrowth  = "forecast_growth"
	PropMedianIncome    = "median_income"
	PropVacancyRate     = "vacancy_rate"
)

// Sources are the three input files of a build.
type Sources struct {
	OccupancyCSV string
	ScorecardCSV string
	BoundarySHP  string
}

// Feature is one area of the payload.
type Feature struct {
	Zcta       string
	Geometry   geom.T
	Properties map[string]any
}

// Stats describes how the boundary records of a build were used.
type Stats struct {
	Records    int           `json:"records"`
	Kept       int           `json:"kept"`
	Unresolved int           `json:"unresolved"`
	Unknown    int           `json:"unknown"`
	Duplicate  int           `json:"duplicate"`
	Invalid    int           `json:"invalid"`
	KnownKeys  int           `json:"known_keys"`
	Years      int           `json:"years"`
	BuiltAt    time.Time     `json:"built_at"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// Payload is the merged feature collection. Feature keys are unique and every
// feature carries a value for every year.
type Payload struct {
	Years    []int
	Features []Feature
	Stats    Stats
}

// YearKey returns a per-year property key such as "t_2021".
func YearKey(prefix string, year int) string {
	return prefix + "_" + strconv.Itoa(year)
}

// Assemble merges already loaded sources. Boundary records are kept in input
// order when their key resolves, is present in either tabular source and has
// not been seen before. Records without a usable geometry are dropped.
func Assemble(occ occupancy.ByYear, sc scorecard.ByZcta, records []boundary.Record, opts simplify.Options) (*Payload, error) {
	if err := opts.Validate(); err != nil {
		return nil, eris.Wrap(err, "choropleth: simplify options")
	}
	log := zap.L().With(zap.String("component", "choropleth"))

	known := occ.Keys()
	for k := range sc {
		known[k] = struct{}{}
	}
	years := occ.Years()

	p := &Payload{
		Years:    years,
		Features: make([]Feature, 0, len(known)),
		Stats:    Stats{Records: len(records), KnownKeys: len(known), Years: len(years)},
	}
	seen := make(map[string]struct{}, len(known))

	for i := range records {
		rec := &records[i]
		key, ok := boundary.ResolveKey(rec.Attributes)
		if !ok {
			p.Stats.Unresolved++
			continue
		}
		if _, ok := known[key]; !ok {
			p.Stats.Unknown++
			continue
		}
		if _, dup := seen[key]; dup {
			p.Stats.Duplicate++
			continue
		}
		if rec.Geometry == nil {
			p.Stats.Invalid++
			continue
		}
		g, err := simplify.Geometry(rec.Geometry, opts)
		if err != nil {
			log.Debug("dropping record with unusable geometry", zap.String("zcta", key), zap.Error(err))
			p.Stats.Invalid++
			continue
		}

		seen[key] = struct{}{}
		p.Features = append(p.Features, Feature{
			Zcta:       key,
			Geometry:   g,
			Properties: properties(key, years, occ, sc[key]),
		})
	}
	p.Stats.Kept = len(p.Features)

	if p.Stats.Duplicate > 0 {
		log.Debug("dropped duplicate boundary keys", zap.Int("duplicates", p.Stats.Duplicate))
	}
	return p, nil
}

func properties(key string, years []int, occ occupancy.ByYear, sc scorecard.Entry) map[string]any {
	props := make(map[string]any, 1+3*len(years)+6)
	props[PropZcta] = key
	for _, y := range years {
		e, _ := occ.Lookup(y, key)
		props[YearKey("t", y)] = e.TotalUnits
		props[YearKey("o", y)] = e.OccupiedUnits
		props[YearKey("v", y)] = e.VacantUnits
	}
	props[PropTargetScore] = sc.TargetScore2024
	props[PropInvestmentScore] = sc.InvestmentScore
	props[PropForecast2030] = sc.ForecastScore2030
	props[PropForecastGrowth] = sc.ForecastGrowthPct
	props[PropMedianIncome] = sc.MedianIncome2544
	props[PropVacancyRate] = sc.VacancyRatePct
	return props
}

// Builder produces the payload on first use and returns the same payload for
// the rest of its lifetime.
type Builder struct {
	src       Sources
	scorecard *scorecard.Loader
	opts      simplify.Options
	cell      *memo.Cell[*Payload]
}

// NewBuilder creates a builder over src. sc may be shared with other users of
// the scorecard; when nil a loader for src.ScorecardCSV is created.
func NewBuilder(src Sources, sc *scorecard.Loader, opts simplify.Options) *Builder {
	if sc == nil {
		sc = scorecard.NewLoader(src.ScorecardCSV)
	}
	return &Builder{
		src:       src,
		scorecard: sc,
		opts:      opts,
		cell:      memo.NewCell[*Payload](cacheName),
	}
}

// Payload returns the memoized payload, building it on the first call. The
// second result reports whether the payload was already built. A failed build
// is not remembered; the next call builds again.
func (b *Builder) Payload(ctx context.Context) (*Payload, bool, error) {
	return b.cell.Get(ctx, b.build)
}

// Stats returns the statistics of the memoized payload, if built.
func (b *Builder) Stats() (Stats, bool) {
	p, ok := b.cell.Peek()
	if !ok {
		return Stats{}, false
	}
	return p.Stats, true
}

func (b *Builder) build(ctx context.Context) (*Payload, error) {
	log := zap.L().With(zap.String("component", "choropleth"))
	start := time.Now()

	var (
		occ     occupancy.ByYear
		sc      scorecard.ByZcta
		records []boundary.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		occ, err = occupancy.Load(gctx, b.src.OccupancyCSV)
		return err
	})
	g.Go(func() error {
		var err error
		sc, err = b.scorecard.Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = boundary.Read(gctx, b.src.BoundarySHP)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordBuild(cacheName, time.Since(start), err)
		return nil, eris.Wrap(err, "choropleth: load sources")
	}

	p, err := Assemble(occ, sc, records, b.opts)
	if err != nil {
		metrics.RecordBuild(cacheName, time.Since(start), err)
		return nil, err
	}
	p.Stats.BuiltAt = time.Now().UTC()
	p.Stats.Elapsed = time.Since(start)

	metrics.RecordBuild(cacheName, p.Stats.Elapsed, nil)
	metrics.PayloadFeatures.Set(float64(len(p.Features)))

	log.Info("choropleth payload built",
		zap.Int("features", p.Stats.Kept),
		zap.Int("records", p.Stats.Records),
		zap.Int("unresolved", p.Stats.Unresolved),
		zap.Int("unknown", p.Stats.Unknown),
		zap.Int("duplicate", p.Stats.Duplicate),
		zap.Int("invalid", p.Stats.Invalid),
		zap.Ints("years", p.Years),
		zap.Duration("elapsed", p.Stats.Elapsed),
	)
	return p, nil
}
