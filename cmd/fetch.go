package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/occupancy-map/internal/boundary"
	"github.com/sells-group/occupancy-map/internal/config"
)

var (
	fetchURL  string
	fetchDest string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch-boundaries",
	Short: "Download and extract the ZCTA boundary shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if fetchURL != "" {
			cfg.Boundary.URL = fetchURL
		}
		if fetchDest != "" {
			cfg.Boundary.TempDir = fetchDest
		}
		return runFetch(ctx, cfg, cmd.OutOrStdout())
	},
}

func runFetch(ctx context.Context, c *config.Config, out io.Writer) error {
	if err := c.Validate("fetch"); err != nil {
		return err
	}

	shpPath, err := boundary.Download(ctx, c.Boundary.URL, c.Boundary.TempDir)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, shpPath)
	return err
}

func init() {
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "boundary archive URL (default from config)")
	fetchCmd.Flags().StringVar(&fetchDest, "dest", "", "extraction directory (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
