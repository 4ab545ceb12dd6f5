// Package occupancy aggregates ACS B25002 occupancy-status rows by year and
// ZCTA and min-max normalizes total housing units within each year.
package occupancy

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/occupancy-map/internal/metrics"
	"github.com/sells-group/occupancy-map/internal/model"
	"github.com/sells-group/occupancy-map/internal/tabular"
)

// Column names of the occupancy CSV.
const (
	ColZcta          = "zcta"
	ColYear          = "year"
	ColTotalUnits    = "total_units"
	ColOccupiedUnits = "occupied_units"
	ColVacantUnits   = "vacant_units"
)

// Row is one (zcta, year) record as read from the source. Zcta is not yet
// normalized.
type Row struct {
	Zcta          string
	Year          int
	TotalUnits    int
	OccupiedUnits int
	VacantUnits   int
}

// Entry is the aggregated record for one area in one year.
type Entry struct {
	TotalUnits    int     `json:"total_units"`
	OccupiedUnits int     `json:"occupied_units"`
	VacantUnits   int     `json:"vacant_units"`
	Normalized    float64 `json:"normalized"`
}

// ByYear maps year -> normalized area key -> entry.
type ByYear map[int]map[string]Entry

// Years returns the years present, ascending.
func (b ByYear) Years() []int {
	years := make([]int, 0, len(b))
	for y := range b {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Keys returns every area key present in any year.
func (b ByYear) Keys() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, byZcta := range b {
		for z := range byZcta {
			keys[z] = struct{}{}
		}
	}
	return keys
}

// Lookup returns the entry for zcta in year.
func (b ByYear) Lookup(year int, zcta string) (Entry, bool) {
	e, ok := b[year][zcta]
	return e, ok
}

// ParseRows converts a parsed table into rows. Lines whose year is not an
// integer are skipped; count columns fall back to 0.
func ParseRows(t *tabular.Table) []Row {
	rows := make([]Row, 0, len(t.Rows))
	var skipped int
	for _, r := range t.Rows {
		year, ok := tabular.ParseInt(r.String(ColYear))
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, Row{
			Zcta:          r.String(ColZcta),
			Year:          year,
			TotalUnits:    r.Int(ColTotalUnits),
			OccupiedUnits: r.Int(ColOccupiedUnits),
			VacantUnits:   r.Int(ColVacantUnits),
		})
	}
	if skipped > 0 {
		zap.L().Debug("occupancy: skipped rows without a year", zap.Int("skipped", skipped))
	}
	return rows
}

// Aggregate groups rows by year and normalized area key. A later row for the
// same (year, key) replaces an earlier one. Within each year, Normalized is
// (total - min) / (max - min), with a zero range treated as 1 so a cohort of
// identical totals normalizes to 0.
func Aggregate(rows []Row) ByYear {
	out := make(ByYear)
	for _, r := range rows {
		byZcta, ok := out[r.Year]
		if !ok {
			byZcta = make(map[string]Entry)
			out[r.Year] = byZcta
		}
		byZcta[model.NormalizeAreaKey(r.Zcta)] = Entry{
			TotalUnits:    r.TotalUnits,
			OccupiedUnits: r.OccupiedUnits,
			VacantUnits:   r.VacantUnits,
		}
	}

	for _, byZcta := range out {
		first := true
		var lo, hi int
		for _, e := range byZcta {
			if first {
				lo, hi = e.TotalUnits, e.TotalUnits
				first = false
				continue
			}
			lo = min(lo, e.TotalUnits)
			hi = max(hi, e.TotalUnits)
		}
		rng := float64(hi - lo)
		if rng == 0 {
			rng = 1
		}
		for z, e := range byZcta {
			e.Normalized = float64(e.TotalUnits-lo) / rng
			byZcta[z] = e
		}
	}
	return out
}

// Load reads, parses and aggregates the occupancy CSV at path.
func Load(ctx context.Context, path string) (ByYear, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "occupancy: load")
	}
	start := time.Now()
	log := zap.L().With(zap.String("component", "occupancy"), zap.String("path", path))

	t, err := tabular.ReadFile("occupancy", path)
	if err != nil {
		metrics.RecordBuild("occupancy", time.Since(start), err)
		return nil, eris.Wrap(err, "occupancy: read csv")
	}
	if err := t.Schema.Require(ColZcta, ColYear); err != nil {
		err = model.NewSourceError("occupancy", path, err)
		metrics.RecordBuild("occupancy", time.Since(start), err)
		return nil, eris.Wrap(err, "occupancy: validate header")
	}

	byYear := Aggregate(ParseRows(t))
	metrics.RecordBuild("occupancy", time.Since(start), nil)

	log.Info("occupancy loaded",
		zap.Int("rows", len(t.Rows)),
		zap.Int("years", len(byYear)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return byYear, nil
}
