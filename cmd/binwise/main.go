// Package main contains the binwise CLI commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/binwise/internal/cli"
	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/config"
)

var (
	cfgFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "binwise",
		Short: "♻️  Waste scanning, scoring and progression",
		Long: `binwise classifies photographed waste items, turns their weight into points
and tracks each user's level, history and environmental impact.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/binwise/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(banksCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sheetsCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		common.LogDebug("Command failed", common.Fields{"args": os.Args[1:], "error": err.Error()})
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage))
		} else {
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.Dir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BINWISE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("binwise %s\n", version)
		},
	}
}
