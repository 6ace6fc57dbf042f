package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JoshPattman/cvquestions/app"
	"github.com/spf13/cobra"
)

var downloadOut string

var downloadCmd = &cobra.Command{
	Use:   "download <name>",
	Short: "Download one generated document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOut, "out", "o", "", "Output path (defaults to the document name)")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(_ *cobra.Command, args []string) error {
	name := args[0]
	out := downloadOut
	if out == "" {
		out = filepath.Base(name)
	}

	services, err := app.NewServices(cfg, logger)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	n, err := services.Client.DownloadFile(context.Background(), name, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return fmt.Errorf("failed to download %s: %w", name, err)
	}
	logger.Info("Downloaded document", "name", name, "path", out, "bytes", n)
	return nil
}
