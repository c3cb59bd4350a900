// Package cli implements the wavecloud command line.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llehouerou/wavecloud/internal/config"
	"github.com/llehouerou/wavecloud/internal/errmsg"
	"github.com/llehouerou/wavecloud/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	jsonOut  bool

	cfg    *config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "wavecloud",
	Short: "Play a music library from local disk or object storage",
	Long: `Wavecloud manages a music library stored on disk or in an S3 bucket and
plays it back through a sequenced queue with repeat and shuffle modes.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.config/wavecloud/config.toml, ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides log_level from the config)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
}

func initConfig(cmd *cobra.Command) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return errmsg.Wrap(errmsg.OpConfigLoad, err)
	}

	level := cfg.GetLogLevel()
	if logLevel != "" {
		level = logLevel
	}
	logger = logging.Setup(level, cmd.ErrOrStderr())
	logger.Debug().Str("config", cfgFile).Str("level", level).Msg("configuration loaded")
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}
