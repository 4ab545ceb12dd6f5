package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/occupancy-map/internal/choropleth"
	"github.com/sells-group/occupancy-map/internal/config"
	"github.com/sells-group/occupancy-map/internal/scorecard"
	"github.com/sells-group/occupancy-map/internal/timeseries"
)

// newBuilder wires the choropleth builder from config.
func newBuilder(c *config.Config) *choropleth.Builder {
	src := choropleth.Sources{
		OccupancyCSV: c.Data.OccupancyCSV,
		ScorecardCSV: c.Data.ScorecardCSV,
		BoundarySHP:  c.Data.BoundarySHP,
	}
	return choropleth.NewBuilder(src, scorecard.NewLoader(src.ScorecardCSV), c.Simplify.Options())
}

// newSeriesCache wires the feature time-series cache. A features file, when
// set, replaces the built-in definitions.
func newSeriesCache(c *config.Config) (*timeseries.Cache, error) {
	var defs []timeseries.Definition
	if c.Data.FeaturesFile != "" {
		d, err := timeseries.LoadDefinitions(c.Data.FeaturesFile)
		if err != nil {
			return nil, eris.Wrap(err, "load feature definitions")
		}
		defs = d
		zap.L().Info("loaded feature definitions",
			zap.String("path", c.Data.FeaturesFile), zap.Int("count", len(defs)))
	}
	return timeseries.NewCache(c.Data.FeatureDir, defs), nil
}
