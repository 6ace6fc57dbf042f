package datamodels

// A SelectedFile is a CV the user picked for upload.
// Pages is a best-effort count and is zero when the file could not be parsed as a PDF.
type SelectedFile struct {
	Name  string
	Data  []byte
	Pages int
}
