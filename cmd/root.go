/*
Package cmd contains the command line interface for edgeship

Copyright © 2024 Shono <code@shono.io>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shono-io/edgeship/pkg"
	"github.com/shono-io/edgeship/submit"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "edgeship",
	Short: "submit browser extension packages to the store",
	Long: `edgeship uploads a packaged extension to the store's distribution API,
waits for it to be processed, drafts a submission and waits for that
submission to finalize.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}

		pkg.SetupLogger(pkg.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		}, os.Stderr)

		if f := viper.ConfigFileUsed(); f != "" {
			log.Debug().Str("file", f).Msg("using config file")
		}
		return nil
	},
}

// Execute runs the root command and is the only place the process exits.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		submit.Diagnose(log.Error(), err).Msg("edgeship failed")
		os.Exit(submit.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.edgeship.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	flags := []struct {
		key, name, usage string
		value            string
	}{
		{"api.server", "server", "distribution api base url", ""},
		{"api.product_id", "product", "product id", ""},
		{"auth.mode", "auth", "authentication mode (apikey or oauth)", "apikey"},
		{"poll.profile", "poll-profile", "polling tuning (apikey or oauth, defaults to the auth mode)", ""},
		{"log.level", "log-level", "log level", "info"},
		{"log.format", "log-format", "log format (console or json)", "console"},
	}
	for _, f := range flags {
		rootCmd.PersistentFlags().String(f.name, f.value, f.usage)
		if err := viper.BindPFlag(f.key, rootCmd.PersistentFlags().Lookup(f.name)); err != nil {
			log.Panic().Err(err).Msg("failed to bind flags")
		}
	}

	rootCmd.AddCommand(submitCmd, statusCmd)
}

// initConfig reads the dotenv file, the config file and ENV variables.
func initConfig() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to load env file %s: %w", envFile, err)
		}
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".edgeship" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".edgeship")
	}

	if err := pkg.ConfigureViper(viper.GetViper()); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("unable to read config: %w", err)
		}
	}

	return nil
}

func loadRunner() (*pkg.Runner, error) {
	cfg, err := pkg.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	return pkg.NewRunner(cfg, log.Logger)
}
