package datamodels

import "strings"

// QuestionsDocSuffix is appended by the generation service to every candidate's document name.
const QuestionsDocSuffix = "_questions.docx"

// A GenerationResult is the pair of artifacts the service produced for a single CV.
type GenerationResult struct {
	Docx string
	PDF  string
}

// CandidateName is the docx filename with the generated suffix stripped.
func (r GenerationResult) CandidateName() string {
	return strings.Replace(r.Docx, QuestionsDocSuffix, "", 1)
}
