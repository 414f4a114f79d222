// Package source loads document text from local files, HTTP URLs, and
// GitHub repositories, and extracts plain text from PDF and markdown
// payloads.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyDocument = errors.New("document contains no extractable text")
	ErrBadReference  = errors.New("unsupported document reference")
)

// Document is a loaded document ready for ingestion. ID is assigned at
// load time and identifies this load, not the underlying file.
type Document struct {
	ID   string
	Name string
	Text string
}

// Loader resolves document references and extracts their text. It owns an
// HTTP client for URL fetches and a GitHub client for github:// references.
type Loader struct {
	httpClient *http.Client
	github     *GitHubFetcher
	logger     *slog.Logger
}

// NewLoader creates a Loader. A nil logger falls back to slog.Default().
// The GitHub client is constructed lazily on the first github:// load.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Load resolves a document reference and returns its extracted text.
// Supported references:
//
//	github://owner/repo/path/to/file
//	http:// and https:// URLs
//	local file paths
func (l *Loader) Load(ctx context.Context, ref string) (*Document, error) {
	var (
		data []byte
		name string
		err  error
	)

	switch {
	case strings.HasPrefix(ref, "github://"):
		data, name, err = l.loadGitHub(ctx, ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, name, err = l.loadHTTP(ctx, ref)
	default:
		data, name, err = l.loadFile(ref)
	}
	if err != nil {
		return nil, err
	}

	text, err := extractText(name, data)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", name, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}

	l.logger.Info("document loaded",
		"name", name,
		"bytes", len(data),
		"text_chars", len(text))

	return &Document{
		ID:   uuid.New().String(),
		Name: name,
		Text: text,
	}, nil
}

func (l *Loader) loadFile(ref string) ([]byte, string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return data, path.Base(ref), nil
}

func (l *Loader) loadHTTP(ctx context.Context, ref string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: unexpected status %d", ref, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response body: %w", err)
	}
	return data, path.Base(req.URL.Path), nil
}

func (l *Loader) loadGitHub(ctx context.Context, ref string) ([]byte, string, error) {
	if l.github == nil {
		fetcher, err := NewGitHubFetcher(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("create github client: %w", err)
		}
		l.github = fetcher
	}

	owner, repo, filePath, err := parseGitHubRef(ref)
	if err != nil {
		return nil, "", err
	}

	data, err := l.github.FetchFile(ctx, owner, repo, filePath)
	if err != nil {
		return nil, "", err
	}
	return data, path.Base(filePath), nil
}

// parseGitHubRef splits github://owner/repo/path/to/file into its parts.
func parseGitHubRef(ref string) (owner, repo, filePath string, err error) {
	rest := strings.TrimPrefix(ref, "github://")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: %q (want github://owner/repo/path)", ErrBadReference, ref)
	}
	return parts[0], parts[1], parts[2], nil
}

// extractText picks the extraction strategy from the file extension.
// Unknown extensions are treated as plain text.
func extractText(name string, data []byte) (string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		pages, err := Pages(data)
		if err != nil {
			return "", err
		}
		return strings.Join(pages, "\n\n"), nil
	case ".md", ".markdown":
		return MarkdownText(data), nil
	default:
		return string(data), nil
	}
}
