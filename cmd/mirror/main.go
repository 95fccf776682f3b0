// Command mirror builds a self-contained copy of one or more game versions
// into a local directory tree, per spec §4.9 and §6 ("mirror --versions
// <csv> --output <dir>").
//
// Grounded on glorpus-work-gotya/cli/gotya and celestiaorg-popsigner/popctl
// (both a cobra root command binding flags straight to an orchestrator
// call, exiting non-zero on failure).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/urixen-org/instancesync/src/config"
	"github.com/urixen-org/instancesync/src/events"
	"github.com/urixen-org/instancesync/src/httpclient"
	"github.com/urixen-org/instancesync/src/locale"
	"github.com/urixen-org/instancesync/src/logging"
	"github.com/urixen-org/instancesync/src/mirror"
	"github.com/urixen-org/instancesync/src/progress"
	"github.com/urixen-org/instancesync/src/xerrors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		versionsCSV string
		output      string
		logLevel    string
		noColor     bool
		cfgPath     string
	)

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Build a self-contained mirror of one or more game versions",
		Long: `mirror downloads the client jar, libraries, asset index, and asset
objects for the requested versions into a local directory tree suitable for
serving as a drop-in replacement origin.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logging.Init(logLevel, noColor)

			versions := mirror.SortVersions(splitCSV(versionsCSV))
			if len(versions) == 0 {
				return fmt.Errorf("no versions specified: pass --versions with at least one id")
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}

			http := httpclient.New(30 * time.Second)

			emitter := events.New()
			emitter.On("version_mirrored", func(data any) {
				logging.Get().Infof("mirrored version %v", data)
			})
			emitter.On("version_mirror_failed", func(data any) {
				logging.Get().Warnf("version %v failed, continuing", data)
			})

			mc := mirror.New(http, cfg, output, emitter)

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetDescription("mirroring"),
				progressbar.OptionShowCount(),
			)
			reporter := progress.New()
			reporter.SetSink(func(fraction float64, status string) {
				if fraction < 0 {
					return
				}
				_ = bar.Set(int(fraction * 100))
				bar.Describe(status)
			})

			if err := mc.Build(context.Background(), versions, reporter); err != nil {
				return fmt.Errorf("%s: %w", xerrors.Localize(locale.Passthrough{}, err), err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&versionsCSV, "versions", "", "comma-separated list of game version ids to mirror")
	cmd.Flags().StringVar(&output, "output", "", "directory to write the mirror tree into")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colorized log output")
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file (optional)")

	return cmd
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func loadConfig(path string) (*config.Store, error) {
	if path == "" {
		return config.New(), nil
	}
	return config.Load(path)
}
