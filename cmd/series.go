package main

import (
	"context"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/occupancy-map/internal/config"
)

var (
	seriesZcta     string
	seriesFeatures string
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Print feature time series for one ZCTA",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeries(cmd.Context(), cfg, seriesZcta, splitAndTrim(seriesFeatures), cmd.OutOrStdout())
	},
}

func runSeries(ctx context.Context, c *config.Config, zcta string, ids []string, out io.Writer) error {
	if err := c.Validate("series"); err != nil {
		return err
	}
	if strings.TrimSpace(zcta) == "" {
		return eris.New("series: --zcta is required")
	}

	cache, err := newSeriesCache(c)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		for _, d := range cache.Definitions() {
			ids = append(ids, d.ID)
		}
	}

	res, err := cache.Series(ctx, ids, zcta)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "series: encode")
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	seriesCmd.Flags().StringVar(&seriesZcta, "zcta", "", "ZCTA to look up")
	seriesCmd.Flags().StringVar(&seriesFeatures, "features", "", "comma-separated feature ids (default all)")
	rootCmd.AddCommand(seriesCmd)
}
