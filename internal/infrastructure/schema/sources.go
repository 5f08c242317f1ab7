// Package schema provides the places a settings declaration can come from
package schema

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"localconfig.dev/cli/internal/core/settings"
)

//go:embed default_schema.json
var defaultSchema []byte

// DefaultSchema returns the declaration shipped with lcfg
func DefaultSchema() []byte {
	out := make([]byte, len(defaultSchema))
	copy(out, defaultSchema)
	return out
}

// FileSource reads the schema from a JSON file
type FileSource struct {
	path string
}

// NewFileSource creates a source for path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// FetchSchema reads and decodes the file
func (s *FileSource) FetchSchema(ctx context.Context) (settings.RawSchema, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return settings.RawSchema{}, fmt.Errorf("failed to read schema file: %w", err)
	}
	return settings.DecodeRawSchema(data)
}

// Describe returns the file path
func (s *FileSource) Describe() string {
	return s.path
}

// EmbeddedSource serves the built-in default schema
type EmbeddedSource struct{}

// FetchSchema decodes the embedded schema
func (EmbeddedSource) FetchSchema(ctx context.Context) (settings.RawSchema, error) {
	return settings.DecodeRawSchema(defaultSchema)
}

// Describe returns "embedded"
func (EmbeddedSource) Describe() string {
	return "embedded"
}

// HTTPSource fetches the schema from a settings server with a GET request
type HTTPSource struct {
	url       string
	userAgent string
	client    *http.Client
}

// NewHTTPSource creates a source for url
func NewHTTPSource(url, userAgent string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{url: url, userAgent: userAgent, client: &http.Client{Timeout: timeout}}
}

// FetchSchema requests and decodes the schema
func (s *HTTPSource) FetchSchema(ctx context.Context) (settings.RawSchema, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return settings.RawSchema{}, fmt.Errorf("failed to create schema request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return settings.RawSchema{}, fmt.Errorf("failed to fetch schema: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return settings.RawSchema{}, fmt.Errorf("failed to read schema response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return settings.RawSchema{}, fmt.Errorf("schema server returned %d", resp.StatusCode)
	}

	return settings.DecodeRawSchema(body)
}

// Describe returns the URL
func (s *HTTPSource) Describe() string {
	return s.url
}
