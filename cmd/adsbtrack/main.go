package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"adsbtrack/internal/app"
	"adsbtrack/internal/registry"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	config := app.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "adsbtrack",
		Short: "ADS-B aircraft tracker",
		Long: `ADS-B aircraft tracker for Beast mode feeds.

Reads Mode S frames from a dump1090-compatible Beast feed (or a recorded
stream), decodes extended squitter identification and airborne position
messages, tracks the live aircraft set and writes BaseStation (SBS) lines
and periodic snapshots.

Example usage:
  adsbtrack --feed 127.0.0.1:30005 --db aircraft.db --snapshot live.msgpack.zst
  adsbtrack --input capture.beast --log-dir ./logs`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion(cmd.OutOrStdout())
				return nil
			}

			application := app.NewApplication(config)
			return application.Start()
		},
	}

	rootCmd.Flags().StringVarP(&config.FeedAddress, "feed", "f", config.FeedAddress, "Beast TCP feed address (host:port)")
	rootCmd.Flags().StringVarP(&config.InputFile, "input", "i", "", "Replay a recorded Beast stream instead of the feed")
	rootCmd.Flags().StringVarP(&config.LogDir, "log-dir", "l", config.LogDir, "SBS log directory (empty disables SBS output)")
	rootCmd.Flags().BoolVarP(&config.LogRotateUTC, "utc", "u", config.LogRotateUTC, "Use UTC for log rotation")
	rootCmd.Flags().IntVar(&config.LogRetentionDays, "log-retention", config.LogRetentionDays, "Days of SBS logs to keep (0 keeps all)")
	rootCmd.Flags().StringVar(&config.DatabasePath, "db", "", "Aircraft registry database")
	rootCmd.Flags().StringVar(&config.SnapshotPath, "snapshot", "", "Live set snapshot file")
	rootCmd.Flags().DurationVar(&config.SnapshotInterval, "snapshot-interval", config.SnapshotInterval, "Interval between snapshots")
	rootCmd.Flags().DurationVar(&config.StatsInterval, "stats-interval", config.StatsInterval, "Interval between statistics reports")
	rootCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.Flags().BoolVar(&config.ShowVersion, "version", false, "Show version information")

	rootCmd.AddCommand(newImportCommand(), newVersionCommand())
	return rootCmd
}

func newImportCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import-db <file.csv>",
		Short: "Import aircraft metadata into the registry",
		Long: `Import aircraft metadata into the registry database.

Each row holds: icao, registration, type designator, model, description,
wake turbulence category. Rows replace existing entries for the same address.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			reg, err := registry.Open(dbPath, registry.DefaultCacheSize, logger)
			if err != nil {
				return err
			}
			defer reg.Close()

			n, err := reg.Import(cmd.Context(), f)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d aircraft into %s\n", n, dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "aircraft.db", "Aircraft registry database")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowVersion(cmd.OutOrStdout())
		},
	}
}
