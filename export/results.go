// Package export writes rendered result tables to files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JoshPattman/cvquestions/view"
	"github.com/xuri/excelize/v2"
)

var header = []string{"#", "Candidate Name", "DOCX", "DOCX Link", "PDF", "PDF Link"}

func rowCells(r view.ResultRow) []string {
	return []string{strconv.Itoa(r.Index), r.Candidate, r.DocxName, r.DocxURL, r.PDFName, r.PDFURL}
}

// WriteResultsCSVFile writes the rows to a CSV file at filename.
func WriteResultsCSVFile(filename string, rows []view.ResultRow) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteResultsCSV(f, rows)
}

// WriteResultsCSV writes the rows to w in CSV format, with a header line.
func WriteResultsCSV(w io.Writer, rows []view.ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(rowCells(r)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsXLSX writes the rows to a single-sheet workbook, adding .xlsx to path if missing.
// It returns the path actually written.
func WriteResultsXLSX(path string, rows []view.ResultRow) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Generated Questions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"374151"}, Pattern: 1},
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", headerStyle); err != nil {
		return "", err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		values := []any{r.Index, r.Candidate, r.DocxName, r.DocxURL, r.PDFName, r.PDFURL}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return "", fmt.Errorf("write row %d: %w", r.Index, err)
		}
		for col, url := range map[int]string{4: r.DocxURL, 6: r.PDFURL} {
			linkCell, err := excelize.CoordinatesToCellName(col, i+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellHyperLink(sheet, linkCell, url, "External"); err != nil {
				return "", err
			}
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 30); err != nil {
		return "", err
	}
	if err := f.SetColWidth(sheet, "C", "F", 45); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
