// Package timeseries serves per-area yearly values of the selectable map
// features. Each feature's source file is parsed once and kept in memory.
package timeseries

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/occupancy-map/internal/memo"
	"github.com/sells-group/occupancy-map/internal/metrics"
	"github.com/sells-group/occupancy-map/internal/model"
	"github.com/sells-group/occupancy-map/internal/tabular"
)

const cacheName = "timeseries"

// Source columns shared by every feature file.
const (
	ColZcta = "zcta"
	ColYear = "year"
)

// Point is one yearly value.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// series maps normalized area key to its points, ascending by year.
type series map[string][]Point

// Cache answers time-series queries over a fixed feature catalog.
type Cache struct {
	dir   string
	defs  []Definition
	byID  map[string]Definition
	group *memo.Group[series]
}

// NewCache creates a cache reading feature files from dir. A nil defs uses
// DefaultDefinitions. Definitions that skip ValidateDefinitions still load:
// a definition without columns yields 0 for every year.
func NewCache(dir string, defs []Definition) *Cache {
	if defs == nil {
		defs = DefaultDefinitions()
	}
	byID := make(map[string]Definition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	return &Cache{
		dir:   dir,
		defs:  defs,
		byID:  byID,
		group: memo.NewGroup[series](cacheName),
	}
}

// Definitions returns the feature catalog in declaration order.
func (c *Cache) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Series returns, for each requested feature id, the yearly values of area
// zcta in ascending year order. Unknown ids and areas without data map to an
// empty slice. A feature whose file cannot be read fails the whole call and
// is retried on the next one.
func (c *Cache) Series(ctx context.Context, ids []string, zcta string) (map[string][]Point, error) {
	key := model.NormalizeAreaKey(zcta)
	out := make(map[string][]Point, len(ids))

	for _, id := range ids {
		def, ok := c.byID[id]
		if !ok {
			out[id] = []Point{}
			continue
		}
		s, err := c.group.Get(ctx, id, func(ctx context.Context) (series, error) {
			return c.load(ctx, def)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "timeseries: load %s", id)
		}
		pts := make([]Point, len(s[key]))
		copy(pts, s[key])
		out[id] = pts
	}
	return out, nil
}

func (c *Cache) load(ctx context.Context, def Definition) (series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	path := filepath.Join(c.dir, def.CSVFile)
	log := zap.L().With(
		zap.String("component", "timeseries"),
		zap.String("feature", def.ID),
		zap.String("path", path),
	)

	t, err := tabular.ReadFile(cacheName, path)
	if err != nil {
		metrics.RecordBuild(cacheName, time.Since(start), err)
		return nil, err
	}
	if err := t.Schema.Require(ColZcta, ColYear); err != nil {
		err = model.NewSourceError(cacheName, path, err)
		metrics.RecordBuild(cacheName, time.Since(start), err)
		return nil, err
	}
	for _, col := range def.Columns {
		if !t.Schema.Has(col) {
			log.Warn("feature column missing, contributing zero", zap.String("column", col))
		}
	}

	s := build(t, def)
	metrics.RecordBuild(cacheName, time.Since(start), nil)
	log.Info("feature series loaded",
		zap.Int("rows", len(t.Rows)),
		zap.Int("areas", len(s)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s, nil
}

// build folds table rows into per-area series. Rows with no key or no integer
// year are skipped; a later row for the same area and year replaces an
// earlier one.
func build(t *tabular.Table, def Definition) series {
	byKey := make(map[string]map[int]float64)
	var skipped int
	for _, r := range t.Rows {
		raw := r.String(ColZcta)
		year, ok := tabular.ParseInt(r.String(ColYear))
		if raw == "" || !ok {
			skipped++
			continue
		}
		key := model.NormalizeAreaKey(raw)
		if byKey[key] == nil {
			byKey[key] = make(map[int]float64)
		}
		byKey[key][year] = value(r, def)
	}
	if skipped > 0 {
		zap.L().Debug("timeseries: skipped rows", zap.String("feature", def.ID), zap.Int("skipped", skipped))
	}

	out := make(series, len(byKey))
	for key, years := range byKey {
		pts := make([]Point, 0, len(years))
		for y, v := range years {
			pts = append(pts, Point{Year: y, Value: v})
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].Year < pts[j].Year })
		out[key] = pts
	}
	return out
}

func value(r tabular.Row, def Definition) float64 {
	if def.Aggregation == AggregationDirect {
		if len(def.Columns) == 0 {
			return 0
		}
		return r.NonNegative(def.Columns[0])
	}
	var sum float64
	for _, col := range def.Columns {
		sum += r.NonNegative(col)
	}
	return sum
}
