//go:build !integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/occupancy-map/internal/timeseries"
)

func TestRunSeries(t *testing.T) {
	c := testConfig(t)

	var buf bytes.Buffer
	require.NoError(t, runSeries(context.Background(), c, "601", []string{"population_25_44", "nope"}, &buf))

	var got map[string][]timeseries.Point
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []timeseries.Point{{Year: 2019, Value: 22.5}, {Year: 2020, Value: 23}}, got["population_25_44"])
	assert.Empty(t, got["nope"])
	assert.Contains(t, got, "nope")
}

func TestRunSeries_RequiresZcta(t *testing.T) {
	err := runSeries(context.Background(), testConfig(t), " ", nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--zcta")
}

func TestRunSeries_AllFeaturesNeedEverySource(t *testing.T) {
	// Only the population CSV exists, so the default catalog fails to load.
	err := runSeries(context.Background(), testConfig(t), "00601", nil, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunSeries_FeaturesFile(t *testing.T) {
	c := testConfig(t)
	c.Data.FeaturesFile = filepath.Join(t.TempDir(), "features.yaml")
	require.NoError(t, os.WriteFile(c.Data.FeaturesFile, []byte(`features:
  - id: young_adults
    label: Young adults
    group: Population
    csv_file: S0101_Population_zcta_all_years.csv
    columns: [pct_total_age_25_29]
    aggregation: direct
    unit: "%"
`), 0o644))

	var buf bytes.Buffer
	require.NoError(t, runSeries(context.Background(), c, "00601", nil, &buf))
	assert.JSONEq(t, `{"young_adults":[{"year":2019,"value":10},{"year":2020,"value":11}]}`, buf.String())
}

func TestRunSeries_BadFeaturesFile(t *testing.T) {
	c := testConfig(t)
	c.Data.FeaturesFile = filepath.Join(t.TempDir(), "missing.yaml")

	err := runSeries(context.Background(), c, "00601", nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load feature definitions")
}
