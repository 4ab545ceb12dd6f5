package main

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/occupancy-map/internal/choropleth"
	"github.com/sells-group/occupancy-map/internal/config"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the choropleth payload once and write it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if buildOut == "" || buildOut == "-" {
			return runBuild(cmd.Context(), cfg, cmd.OutOrStdout())
		}

		f, err := os.Create(buildOut)
		if err != nil {
			return eris.Wrapf(err, "build: create %s", buildOut)
		}
		if err := runBuild(cmd.Context(), cfg, f); err != nil {
			_ = f.Close()
			return err
		}
		return eris.Wrap(f.Close(), "build: close output")
	},
}

func runBuild(ctx context.Context, c *config.Config, out io.Writer) error {
	if err := c.Validate("build"); err != nil {
		return err
	}

	p, _, err := newBuilder(c).Payload(ctx)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	if err := choropleth.WriteStream(w, p, nil); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "build: flush output")
	}

	zap.L().Info("choropleth payload written",
		zap.Int("records", p.Stats.Records),
		zap.Int("features", p.Stats.Kept),
		zap.Int("unresolved", p.Stats.Unresolved),
		zap.Int("unknown", p.Stats.Unknown),
		zap.Int("duplicate", p.Stats.Duplicate),
		zap.Int("invalid", p.Stats.Invalid),
		zap.Int("years", p.Stats.Years),
		zap.Duration("elapsed", p.Stats.Elapsed),
	)
	return nil
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(buildCmd)
}
