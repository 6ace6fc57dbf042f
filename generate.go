package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JoshPattman/cvquestions/app"
	"github.com/JoshPattman/cvquestions/cvfiles"
	"github.com/JoshPattman/cvquestions/view"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	generateJob string
	generateDir string
)

var generateCmd = &cobra.Command{
	Use:   "generate [files...]",
	Short: "Submit a job description and CVs and print the generated documents",
	Long: `Submit a job description and one or more PDF CVs to the generation service.
The job description is given as text, or as @path to read it from a file.
CVs are the PDF arguments plus every PDF found under --dir.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateJob, "job", "j", "", "Job description text, or @path to a file containing it")
	generateCmd.Flags().StringVarP(&generateDir, "dir", "d", "", "Directory to search for PDF CVs")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	jobDescription, err := readJobArg(generateJob)
	if err != nil {
		return err
	}
	paths, err := collectPDFPaths(generateDir, args)
	if err != nil {
		return err
	}

	services, err := app.NewServices(cfg, logger)
	if err != nil {
		return err
	}
	files, err := cvfiles.ReadSelectedFiles(paths)
	if err != nil {
		return err
	}
	for _, f := range files {
		logger.Debug("Selected CV", "name", f.Name, "pages", f.Pages)
	}

	err = services.View.Submit(context.Background(), jobDescription, files)
	snap := services.View.Snapshot()
	out := cmd.OutOrStdout()
	switch {
	case errors.Is(err, view.ErrIncompleteInput):
		color.New(color.FgYellow).Fprintln(out, snap.Message)
		return err
	case err != nil:
		color.New(color.FgRed).Fprintln(out, snap.Message)
		return err
	}
	color.New(color.FgGreen).Fprintln(out, snap.Message)
	return printRowsTable(out, snap.Rows)
}

// readJobArg returns the job description, reading it from a file when prefixed with @.
func readJobArg(arg string) (string, error) {
	path, ok := strings.CutPrefix(arg, "@")
	if !ok {
		return arg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return string(data), nil
}

// collectPDFPaths keeps the PDF arguments in order, then appends the PDFs under dir.
func collectPDFPaths(dir string, args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, a := range args {
		if !cvfiles.IsPDFName(a) {
			logger.Warn("Skipping non-PDF file", "path", a)
			continue
		}
		paths = append(paths, a)
	}
	if dir == "" {
		return paths, nil
	}
	found, err := cvfiles.ListPDFs(dir)
	if err != nil {
		return nil, err
	}
	return append(paths, found...), nil
}
