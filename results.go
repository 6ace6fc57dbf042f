package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/JoshPattman/cvquestions/app"
	"github.com/JoshPattman/cvquestions/export"
	"github.com/JoshPattman/cvquestions/view"
	"github.com/spf13/cobra"
)

var (
	resultsFormat string
	resultsOut    string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show or export the last generated documents",
	Args:  cobra.NoArgs,
	RunE:  runResults,
}

func init() {
	resultsCmd.Flags().StringVarP(&resultsFormat, "format", "f", "table", "Output format: table, csv or xlsx")
	resultsCmd.Flags().StringVarP(&resultsOut, "out", "o", "", "Output file (required for xlsx, stdout otherwise)")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, _ []string) error {
	services, err := app.NewServices(cfg, logger)
	if err != nil {
		return err
	}
	rows := services.View.Snapshot().Rows
	if len(rows) == 0 {
		logger.Info("No stored results")
	}

	switch resultsFormat {
	case "table":
		return printRowsTable(cmd.OutOrStdout(), rows)
	case "csv":
		if resultsOut == "" {
			return export.WriteResultsCSV(cmd.OutOrStdout(), rows)
		}
		if err := export.WriteResultsCSVFile(resultsOut, rows); err != nil {
			return err
		}
		logger.Info("Wrote results", "path", resultsOut)
		return nil
	case "xlsx":
		if resultsOut == "" {
			return fmt.Errorf("--out is required for xlsx output")
		}
		path, err := export.WriteResultsXLSX(resultsOut, rows)
		if err != nil {
			return err
		}
		logger.Info("Wrote results", "path", path)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, csv or xlsx)", resultsFormat)
	}
}

func printRowsTable(w io.Writer, rows []view.ResultRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCandidate Name\tDownload DOCX\tDownload PDF")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Index, r.Candidate, r.DocxURL, r.PDFURL)
	}
	return tw.Flush()
}
