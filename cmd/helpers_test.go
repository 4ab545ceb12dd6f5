//go:build !integration

package main

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/occupancy-map/internal/boundary/boundarytest"
	"github.com/sells-group/occupancy-map/internal/config"
)

// testConfig writes a minimal data set to a temp dir and returns a config
// pointing at it.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	c := &config.Config{
		Data: config.DataConfig{
			OccupancyCSV: filepath.Join(dir, "occupancy.csv"),
			ScorecardCSV: filepath.Join(dir, "scorecard.csv"),
			BoundarySHP:  filepath.Join(dir, "zcta.shp"),
			FeatureDir:   dir,
		},
		Simplify: config.SimplifyConfig{Precision: 3, MaxRingPoints: 50},
		Server:   config.ServerConfig{Port: 3000, CORSOrigins: []string{"*"}},
		Boundary: config.BoundaryConfig{TempDir: filepath.Join(dir, "boundaries")},
		Log:      config.LogConfig{Level: "info", Format: "console"},
	}

	require.NoError(t, os.WriteFile(c.Data.OccupancyCSV, []byte(
		"zcta,year,total_units,occupied_units,vacant_units\n"+
			"00601,2023,200,150,50\n"+
			"00602,2023,10,10,0\n"), 0o644))
	require.NoError(t, os.WriteFile(c.Data.ScorecardCSV, []byte(
		"ZIP_CODE,TARGET_SCORE_2024,VACANCY_RATE_PCT\n601,55,25\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "S0101_Population_zcta_all_years.csv"), []byte(
		"zcta,year,pct_total_age_25_29,pct_total_age_30_34\n"+
			"00601,2019,10,12.5\n"+
			"00601,2020,11,12\n"), 0o644))

	boundarytest.Write(t, c.Data.BoundarySHP, boundarytest.ZCTAFields(), []boundarytest.Feature{
		{Rings: [][]shp.Point{boundarytest.Square(-66.8, 18.1, 0.1)}, Values: []any{"00601"}},
		{Rings: [][]shp.Point{boundarytest.Square(-67, 18.3, 0.1)}, Values: []any{"00602"}},
	})
	return c
}

// getFreePort returns a free TCP port on localhost.
func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}
