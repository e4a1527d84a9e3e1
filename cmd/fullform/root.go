package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/fullform/internal/config"
	"github.com/aretw0/fullform/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fullform",
	Short: "fullform runs server-driven form sessions",
	Long: `fullform keeps client-side form sessions in sync with a form server.
It reconciles server trees in place, throttles answers, and persists sessions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		if err := config.Init(cfgFile); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		level, err := logging.ParseLevel(loaded.Logging.Level)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(level)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./fullform.yaml or $HOME/.config/fullform/fullform.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "", "session store backend: memory, file, redis, sqlite")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store"))
}
