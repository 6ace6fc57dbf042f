// Package client talks to the remote question generation service.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JoshPattman/cvquestions/metrics"
)

// DefaultTimeout bounds a single request at the transport level.
const DefaultTimeout = 5 * time.Minute

// ErrMissingFiles is returned when a successful response has no files field.
var ErrMissingFiles = errors.New("response has no files field")

// TokenSource supplies the bearer token. It is consulted on every request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token returns t.
func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

// Config is everything the client needs, passed in at construction.
type Config struct {
	// BaseURL is prefixed to every relative request path.
	BaseURL string
	// DownloadBaseURL is where artifact download links point. Defaults to BaseURL.
	DownloadBaseURL string
	Tokens          TokenSource
	// HTTPClient is optional. A client with DefaultTimeout is used when nil.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Client is an HTTP client for the generation service.
type Client struct {
	http         *http.Client
	baseURL      string
	downloadBase string
	tokens       TokenSource
	logger       *slog.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if err := checkBaseURL(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	downloadBase := cfg.DownloadBaseURL
	if downloadBase == "" {
		downloadBase = cfg.BaseURL
	} else if err := checkBaseURL(downloadBase); err != nil {
		return nil, fmt.Errorf("download base url: %w", err)
	}
	if cfg.Tokens == nil {
		return nil, errors.New("no token source configured")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:         httpClient,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		downloadBase: strings.TrimRight(downloadBase, "/"),
		tokens:       cfg.Tokens,
		logger:       logger,
	}, nil
}

func checkBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute url", raw)
	}
	return nil
}

// DownloadURL is the link for downloading the named artifact.
func (c *Client) DownloadURL(name string) string {
	return c.downloadBase + "/download-file/" + EscapeComponent(name)
}

// DownloadFile streams the named artifact into w.
func (c *Client) DownloadFile(ctx context.Context, name string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(name), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.do(req, "download-file")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := checkStatus(req, resp); err != nil {
		return 0, err
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", name, err)
	}
	return n, nil
}

// do decorates req then sends it. The response, whatever its status, is returned as is.
func (c *Client) do(req *http.Request, endpoint string) (*http.Response, error) {
	if err := c.decorate(req); err != nil {
		return nil, err
	}
	c.logger.Debug("Sending request", "method", req.Method, "url", req.URL.String())
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.IncAPIRequest(endpoint, "error")
		return nil, err
	}
	metrics.IncAPIRequest(endpoint, fmt.Sprintf("%dxx", resp.StatusCode/100))
	return resp, nil
}

func checkStatus(req *http.Request, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &APIError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
