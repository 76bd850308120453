// Command wispsim runs wisp manipulators on a simulated spatial scene, either
// in a desktop window or headless from a YAML input script.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/phanxgames/wisp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFile    string
	latency    time.Duration
	debugMode  bool

	cfg      wisp.Config
	logger   *zap.Logger
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "wispsim",
	Short: "Try wisp panel manipulators without a headset",
	Long: `wispsim builds a demo panel with resize handles, a surface, a transfer
ball, a drop tray and a close button on an in-process scene.

Use "run" to drive it with mouse and keyboard, or "script" to replay a YAML
input script headlessly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = wisp.DefaultConfig()
		if configPath != "" {
			var err error
			if cfg, err = wisp.LoadConfig(configPath); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			cfg.Log.File = logFile
		}
		var err error
		if logger, closeLog, err = wisp.NewLogger(cfg.Log); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		wisp.SetDebugLogger(logger)
		wisp.SetDebugMode(debugMode)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "close log: %v\n", err)
			}
			closeLog = nil
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML config file; reloaded on change by run")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "write logs to a rotating file instead of stderr")
	pf.DurationVar(&latency, "latency", 0, "simulated latency of transform and distance queries")
	pf.BoolVar(&debugMode, "debug", false, "enable scene debug checks")

	rootCmd.AddCommand(runCmd, scriptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
