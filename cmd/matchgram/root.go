package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/matchgram/pkg/cli"
	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "matchgram",
	Short: "Matchgram - firewall-style rules for chat messages",
	Long: `Matchgram compiles firewall-style rules and evaluates chat messages against them.

A rule is an OR of parenthesised groups; each group is an AND of conditions
on message fields:

  (message.text any {"菠菜" "博彩"} and not message.from.is_bot) or (message.photo)

Rules are organised in YAML rule sets, served over HTTP and NATS, and every
verdict can be recorded as evidence.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig loads the configuration with environment overrides, applies
// flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	return cfg, nil
}

// newLogger builds the process logger. Command output goes to stdout, so
// logs default to stderr.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	lc := logging.ConfigFrom(cfg.Telemetry.Logging)
	lc.Writer = os.Stderr
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}
