package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cvereporter/internal/config"
	"cvereporter/internal/polling"
	"cvereporter/internal/telemetry"
)

var exit = os.Exit
var cfgFile string

// rootCmd runs the reporter as a long-lived service.
var rootCmd = &cobra.Command{
	Use:   "cvereporter",
	Short: "Poll the CIRCL CVE feed and report new or modified vulnerabilities",
	Long: `cvereporter polls the CIRCL vulnerability feed on a fixed interval, keeps
records whose summary or affected products match the configured keywords,
and posts them to Slack and Discord. The last reported publication and
modification times are persisted so restarts never repeat or skip records.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runService,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = loadConfig
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("keywords", "", "Keyword policy file (overrides keywords_file)")
	rootCmd.Flags().Bool("once", false, "Run a single polling cycle and exit")

	rootCmd.AddCommand(validateCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.Load(cfgFile); err != nil {
		return err
	}
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("keywords_file", rootCmd.PersistentFlags().Lookup("keywords"))
	return nil
}

func runService(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := telemetry.InitLogger(cfg.Verbose, cfg.LogFile)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once, _ := cmd.Flags().GetBool("once"); once {
		report, err := a.orch.RunCycle(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cycle %s: %d new, %d modified, status %s\n",
			report.CycleID, report.QualifiedNew, report.QualifiedModified, report.Status())
		return nil
	}

	if cfg.MetricsPort > 0 {
		go func() {
			if err := telemetry.StartMetricsServer(ctx, cfg.MetricsPort, a.metrics, a.health); err != nil {
				logger.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	poller := polling.NewPoller(polling.NewConfig(cfg.Interval, cfg.RunOnStart), func(ctx context.Context) error {
		_, err := a.orch.RunCycle(ctx)
		return err
	}, logger)
	poller.Start(ctx)

	logger.Info("Shutdown complete")
	return nil
}
