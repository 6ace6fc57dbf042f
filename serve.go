package main

import (
	"github.com/JoshPattman/cvquestions/app"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web page",
	Long:  `Start an HTTP server with the question generation page, a health check and Prometheus metrics.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	a, err := app.BuildApp(cfg, logger)
	if err != nil {
		return err
	}
	return a.Run()
}
