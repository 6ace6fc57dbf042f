package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/JoshPattman/cvquestions/datamodels"
	"github.com/JoshPattman/cvquestions/storage"
)

const (
	generatePath          = "/generate-questions"
	jobDescriptionField   = "job_description"
	questionFilesField    = "question_files"
	maxGenerateResponseSz = 16 << 20
)

type generateResponse struct {
	Files *[]storage.GenerationResultDTO `json:"files"`
}

// GenerateQuestions uploads the job description and files and returns one result per processed CV.
// Files are sent in the order given.
func (c *Client) GenerateQuestions(ctx context.Context, jobDescription string, files []datamodels.SelectedFile) ([]datamodels.GenerationResult, error) {
	body, contentType, err := buildGenerateBody(jobDescription, files)
	if err != nil {
		return nil, fmt.Errorf("build request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, generatePath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req, "generate-questions")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(req, resp); err != nil {
		return nil, err
	}

	var decoded generateResponse
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxGenerateResponseSz))
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Files == nil {
		return nil, ErrMissingFiles
	}
	results := make([]datamodels.GenerationResult, len(*decoded.Files))
	for i, dto := range *decoded.Files {
		results[i] = datamodels.GenerationResult(dto)
	}
	return results, nil
}

func buildGenerateBody(jobDescription string, files []datamodels.SelectedFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField(jobDescriptionField, jobDescription); err != nil {
		return nil, "", err
	}
	for _, f := range files {
		part, err := mw.CreatePart(filePartHeader(f.Name))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// filePartHeader describes one uploaded CV the way a browser does, with application/pdf for .pdf names.
func filePartHeader(name string) textproto.MIMEHeader {
	contentType := "application/octet-stream"
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		contentType = "application/pdf"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(questionFilesField), quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)
	return h
}
