package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feedcache/internal/app"
	"feedcache/pkg/config"
	"feedcache/pkg/state/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	configPath string
	dbPath     string
	logLevel   string
	showConfig bool

	effective config.EffectiveConfigResult
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "feedcache",
	Short: "Local cache of social feed events",
	Long: `feedcache stores profiles, contact lists and text notes received from
relays in an embedded pebble database and serves feed queries from it.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flags := config.Flags{
			DB:       dbPath,
			Config:   configPath,
			LogLevel: logLevel,
			Set:      map[string]bool{},
		}
		for _, name := range []string{"db", "config", "log-level"} {
			if cmd.Flags().Changed(name) {
				flags.Set[name] = true
			}
		}
		eff, err := config.LoadEffectiveConfig(flags)
		if err != nil {
			return err
		}
		effective = eff
		logger.InitWithWriter(eff.Config.Logging.Level, cmd.ErrOrStderr())
		if showConfig {
			logger.LogConfigSummary(cmd.ErrOrStderr(), "effective_config", eff.Config.Summary())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath, "database directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&showConfig, "show-config", false, "print the effective configuration")
}

// openApp opens the store for one command and registers its cleanup.
func openApp(cmd *cobra.Command, readOnly bool) (*app.App, func(), error) {
	a, err := app.New(effective, readOnly)
	if err != nil {
		return nil, nil, err
	}
	return a, func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close: %v\n", err)
		}
	}, nil
}
