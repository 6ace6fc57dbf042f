package view

import "github.com/JoshPattman/cvquestions/datamodels"

// Linker builds download links for artifacts.
type Linker interface {
	DownloadURL(name string) string
}

// A ResultRow is one rendered line of the results table.
type ResultRow struct {
	Index     int
	Candidate string
	DocxName  string
	DocxURL   string
	PDFName   string
	PDFURL    string
}

// BuildRows renders one row per result, numbered from 1.
func BuildRows(results []datamodels.GenerationResult, linker Linker) []ResultRow {
	rows := make([]ResultRow, len(results))
	for i, r := range results {
		rows[i] = ResultRow{
			Index:     i + 1,
			Candidate: r.CandidateName(),
			DocxName:  r.Docx,
			DocxURL:   linker.DownloadURL(r.Docx),
			PDFName:   r.PDF,
			PDFURL:    linker.DownloadURL(r.PDF),
		}
	}
	return rows
}
