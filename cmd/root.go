package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/occupancy-map/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "occupancy-map",
	Short: "ZCTA occupancy choropleth server",
	Long:  "Merges Census occupancy, builder scorecard and ZCTA boundary sources into a simplified GeoJSON choropleth, and serves it with per-ZCTA feature time series.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
