// Package cvfiles turns files on disk or in an upload into selected CVs.
package cvfiles

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/JoshPattman/cvquestions/datamodels"
	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

// maxParallelReads limits how many files are read at once.
const maxParallelReads = 8

// IsPDFName reports whether name has a .pdf extension, ignoring case.
// This is the only file type check performed.
func IsPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// ListPDFs walks dir and returns the paths of all PDF files in lexical order.
func ListPDFs(dir string) ([]string, error) {
	var pdfFiles []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsPDFName(d.Name()) {
			pdfFiles = append(pdfFiles, path)
		}
		return nil
	})

	return pdfFiles, err
}

// ReadSelectedFiles reads every path in parallel, keeping the input order.
func ReadSelectedFiles(paths []string) ([]datamodels.SelectedFile, error) {
	files := make([]datamodels.SelectedFile, len(paths))
	var g errgroup.Group
	g.SetLimit(maxParallelReads)
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			files[i] = newSelectedFile(filepath.Base(path), data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// FromMultipart reads uploaded files, skipping anything without a .pdf extension.
func FromMultipart(headers []*multipart.FileHeader) ([]datamodels.SelectedFile, error) {
	files := make([]datamodels.SelectedFile, 0, len(headers))
	for _, fh := range headers {
		if !IsPDFName(fh.Filename) {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		files = append(files, newSelectedFile(filepath.Base(fh.Filename), data))
	}
	return files, nil
}

func newSelectedFile(name string, data []byte) datamodels.SelectedFile {
	return datamodels.SelectedFile{
		Name:  name,
		Data:  data,
		Pages: CountPages(data),
	}
}

// CountPages returns the number of pages in a PDF, or 0 if it cannot be parsed.
func CountPages(data []byte) (pages int) {
	defer func() {
		// The pdf reader panics on some malformed input.
		if recover() != nil {
			pages = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}
