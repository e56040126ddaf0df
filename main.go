// Package main provides the entry point for the soundq CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/soundq/internal/config"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	verbose    bool
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:   "soundq",
		Short: "Fire-and-forget sound clips from the command line",
		Long: paragraph(fmt.Sprintf("\nPlay %s without waiting on the audio device. "+
			"Clips are registered by id, decoded on first use and triggered from a background worker, "+
			"so asking for a sound never blocks.", keyword("sound clips"))),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
	}
)

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) error {
	if configFile == "" {
		p, err := config.Find()
		if err != nil {
			return err //nolint:wrapcheck
		}
		configFile = p
	}

	c, err := config.Load(configFile)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if cmd.Flags().Changed("backend") {
		c.Backend = viper.GetString("backend")
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = viper.GetString("log_level")
	}
	if err := c.Validate(); err != nil {
		return err //nolint:wrapcheck
	}

	applyLogOptions(c.Level(), verbose)
	log.Debug("Configuration loaded", "path", configFile, "clips", len(c.Clips), "backend", c.Backend)

	cfg = c
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	_ = closer()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default "+config.FileName+" in the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also log to stderr")
	rootCmd.PersistentFlags().StringP("backend", "b", "", "audio backend: auto, oto or mock")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(playCmd, boardCmd, clipsCmd, scanCmd, configCmd, manCmd)
}
