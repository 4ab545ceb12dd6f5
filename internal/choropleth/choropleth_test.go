package choropleth

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/occupancy-map/internal/boundary"
	"github.com/sells-group/occupancy-map/internal/boundary/boundarytest"
	"github.com/sells-group/occupancy-map/internal/model"
	"github.com/sells-group/occupancy-map/internal/occupancy"
	"github.com/sells-group/occupancy-map/internal/scorecard"
	"github.com/sells-group/occupancy-map/internal/simplify"
)

const (
	occupancyCSV = "zcta,year,total_units,occupied_units,vacant_units\n" +
		"00601,2020,100,80,20\n" +
		"00601,2021,110,90,20\n"
	scorecardCSV = "ZIP_CODE,TARGET_SCORE_2024,INVESTMENT_SCORE,FORECAST_SCORE_2030," +
		"FORECAST_GROWTH_PCT_TO_2030,MEDIAN_INCOME_25_44,VACANCY_RATE_PCT\n" +
		"00601,72.5,0,0,0,0,0\n"
)

// writeSources lays out the three inputs in a temp dir. The shapefile holds
// 00601, 99999 (unknown) and a record with no key field value.
func writeSources(t *testing.T) Sources {
	t.Helper()
	dir := t.TempDir()
	src := Sources{
		OccupancyCSV: filepath.Join(dir, "B25002_occupancy_status_zcta.csv"),
		ScorecardCSV: filepath.Join(dir, "builder_scorecard.csv"),
		BoundarySHP:  filepath.Join(dir, "tl_2025_us_zcta520.shp"),
	}
	require.NoError(t, os.WriteFile(src.OccupancyCSV, []byte(occupancyCSV), 0o644))
	require.NoError(t, os.WriteFile(src.ScorecardCSV, []byte(scorecardCSV), 0o644))

	fields := []shp.Field{shp.StringField("ZCTA5CE20", 5), shp.StringField("NAME20", 20)}
	boundarytest.Write(t, src.BoundarySHP, fields, []boundarytest.Feature{
		{Rings: [][]shp.Point{boundarytest.Circle(-66.75, 18.18, 0.05, 120)}, Values: []any{"00601", "Adjuntas"}},
		{Rings: [][]shp.Point{boundarytest.Square(-70, 40, 1)}, Values: []any{"99999", "Nowhere"}},
		{Rings: [][]shp.Point{boundarytest.Square(-71, 41, 1)}, Values: []any{nil, "Keyless"}},
	})
	return src
}

func TestBuilder_EndToEnd(t *testing.T) {
	src := writeSources(t)
	b := NewBuilder(src, nil, simplify.DefaultOptions)

	p, hit, err := b.Payload(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, []int{2020, 2021}, p.Years)
	require.Len(t, p.Features, 1)

	f := p.Features[0]
	assert.Equal(t, "00601", f.Zcta)
	assert.Equal(t, "00601", f.Properties[PropZcta])
	assert.Equal(t, 100, f.Properties["t_2020"])
	assert.Equal(t, 90, f.Properties["o_2021"])
	assert.Equal(t, 20, f.Properties["v_2021"])
	assert.Equal(t, 72.5, f.Properties[PropTargetScore])
	assert.Equal(t, 0.0, f.Properties[PropVacancyRate])

	poly, ok := f.Geometry.(*geom.Polygon)
	require.True(t, ok, "geometry is %T", f.Geometry)
	ring := poly.Coords()[0]
	assert.LessOrEqual(t, len(ring), simplify.DefaultOptions.MaxRingPoints)
	assert.Equal(t, ring[0], ring[len(ring)-1])

	assert.Equal(t, Stats{
		Records:    3,
		Kept:       1,
		Unresolved: 1,
		Unknown:    1,
		KnownKeys:  1,
		Years:      2,
		BuiltAt:    p.Stats.BuiltAt,
		Elapsed:    p.Stats.Elapsed,
	}, p.Stats)
}

func TestBuilder_MemoizesWithoutRereading(t *testing.T) {
	src := writeSources(t)
	b := NewBuilder(src, nil, simplify.DefaultOptions)

	_, ok := b.Stats()
	assert.False(t, ok)

	first, _, err := b.Payload(context.Background())
	require.NoError(t, err)

	for _, p := range []string{src.OccupancyCSV, src.ScorecardCSV, src.BoundarySHP} {
		require.NoError(t, os.Remove(p))
	}

	second, hit, err := b.Payload(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)

	stats, ok := b.Stats()
	assert.True(t, ok)
	assert.Equal(t, 1, stats.Kept)
}

func TestBuilder_ConcurrentFirstCallsShareBuild(t *testing.T) {
	src := writeSources(t)
	b := NewBuilder(src, nil, simplify.DefaultOptions)

	results := make([]*Payload, 12)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, err := b.Payload(context.Background())
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range results[1:] {
		assert.Same(t, results[0], p)
	}
}

func TestBuilder_FailedBuildIsNotCached(t *testing.T) {
	src := writeSources(t)
	shpData, err := os.ReadFile(src.BoundarySHP)
	require.NoError(t, err)
	require.NoError(t, os.Remove(src.BoundarySHP))

	b := NewBuilder(src, nil, simplify.DefaultOptions)
	_, _, err = b.Payload(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsSourceUnavailable(err))
	_, ok := b.Stats()
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(src.BoundarySHP, shpData, 0o644))

	p, hit, err := b.Payload(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, p.Features, 1)
}

func TestBuilder_SharedScorecardLoader(t *testing.T) {
	src := writeSources(t)
	sc := scorecard.NewLoader(src.ScorecardCSV)
	_, err := sc.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Remove(src.ScorecardCSV))

	b := NewBuilder(src, sc, simplify.DefaultOptions)
	p, _, err := b.Payload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 72.5, p.Features[0].Properties[PropTargetScore])
}

func square(x, y float64) geom.T {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{x, y}, {x, y + 1}, {x + 1, y + 1}, {x + 1, y}, {x, y}},
	})
}

func record(key string, g geom.T) boundary.Record {
	return boundary.Record{
		Attributes: boundary.Attributes{{Name: "GEOID20", Value: key}},
		Geometry:   g,
	}
}

func TestAssemble(t *testing.T) {
	occ := occupancy.Aggregate([]occupancy.Row{
		{Zcta: "601", Year: 2019, TotalUnits: 10, OccupiedUnits: 8, VacantUnits: 2},
		{Zcta: "00602", Year: 2020, TotalUnits: 50, OccupiedUnits: 40, VacantUnits: 10},
	})
	sc := scorecard.ByZcta{"00603": {InvestmentScore: 3}}

	records := []boundary.Record{
		record("00602", square(0, 0)),
		record("00601", nil),
		record("00601", square(1, 0)),
		record("00602", square(2, 0)),
		record("00603", square(3, 0)),
		record("12345", square(4, 0)),
		{Attributes: boundary.Attributes{{Name: "NAME", Value: "x"}}, Geometry: square(5, 0)},
	}

	p, err := Assemble(occ, sc, records, simplify.DefaultOptions)
	require.NoError(t, err)

	assert.Equal(t, []int{2019, 2020}, p.Years)
	keys := make([]string, 0, len(p.Features))
	for _, f := range p.Features {
		keys = append(keys, f.Zcta)
	}
	assert.Equal(t, []string{"00602", "00601", "00603"}, keys, "input order, first occurrence wins")

	assert.Equal(t, Stats{
		Records:    7,
		Kept:       3,
		Unresolved: 1,
		Unknown:    1,
		Duplicate:  1,
		Invalid:    1,
		KnownKeys:  3,
		Years:      2,
	}, p.Stats)

	// Every feature carries every year and all scorecard fields.
	for _, f := range p.Features {
		for _, y := range p.Years {
			for _, prefix := range []string{"t", "o", "v"} {
				assert.Contains(t, f.Properties, YearKey(prefix, y))
			}
		}
		for _, k := range []string{PropTargetScore, PropInvestmentScore, PropForecast2030,
			PropForecastGrowth, PropMedianIncome, PropVacancyRate} {
			assert.Contains(t, f.Properties, k)
		}
	}

	scoreOnly := p.Features[2].Properties
	assert.Equal(t, 0, scoreOnly["t_2020"])
	assert.Equal(t, 3.0, scoreOnly[PropInvestmentScore])
	assert.Equal(t, 10, p.Features[1].Properties["t_2019"])
	assert.Equal(t, 0, p.Features[1].Properties["t_2020"])
}

func TestAssemble_InvalidOptions(t *testing.T) {
	_, err := Assemble(nil, nil, nil, simplify.Options{Precision: 3, MaxRingPoints: 1})
	assert.Error(t, err)
}

func TestAssemble_EmptySources(t *testing.T) {
	p, err := Assemble(occupancy.ByYear{}, scorecard.ByZcta{}, []boundary.Record{record("00601", square(0, 0))}, simplify.DefaultOptions)
	require.NoError(t, err)
	assert.Empty(t, p.Years)
	assert.Empty(t, p.Features)
	assert.Equal(t, 1, p.Stats.Unknown)
}
