// Package main is the cvquestions command: a local web page and CLI for the CV question generation service.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JoshPattman/cvquestions/config"
	"github.com/MatusOllah/slogcolor"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	// Set by the root command before any subcommand runs.
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "cvquestions",
	Short:             "Generate interview questions from CVs and a job description",
	Long:              "cvquestions submits a job description and candidate CVs to the question generation service and keeps links to the generated documents.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path to the JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(*cobra.Command, []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
		if err := loaded.Validate(); err != nil {
			return err
		}
	}
	cfg = loaded
	logger = newLogger(cfg.SlogLevel())
	return nil
}

func newLogger(level slog.Level) *slog.Logger {
	opts := slogcolor.DefaultOptions
	opts.Level = level
	opts.MsgColor = color.New(color.FgMagenta)
	opts.SrcFileMode = slogcolor.Nop
	return slog.New(slogcolor.NewHandler(os.Stderr, opts))
}
