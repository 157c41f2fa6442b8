// Package source loads pipeline inputs from local files or HTTP URLs.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/erzurum-ulasim/routegeom/internal/export"
	"github.com/erzurum-ulasim/routegeom/internal/logging"
)

// DefaultMaxSize bounds what Load accepts from a single location.
const DefaultMaxSize = 200 * 1024 * 1024

// Loader fetches input files.
type Loader struct {
	// AuthHeaderKey and AuthHeaderValue are sent with HTTP requests when both
	// are set.
	AuthHeaderKey   string
	AuthHeaderValue string
	MaxSize         int64
	Client          *http.Client
}

// NewLoader returns a loader with the default size limit and HTTP client.
func NewLoader() *Loader {
	return &Loader{
		MaxSize: DefaultMaxSize,
		Client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// IsURL reports whether location is fetched over HTTP.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Load returns the content at location. Locations ending in .gz are
// decompressed.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if IsURL(location) {
		b, err = l.download(ctx, location)
	} else {
		b, err = l.readFile(location)
	}
	if err != nil {
		return nil, err
	}

	if !export.IsGzip(location) {
		return b, nil
	}
	zr, err := export.NewReader(bytes.NewReader(b), location)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(zr,
		slog.Default().With(slog.String("component", "source_loader")),
		"gzip_reader")
	return l.readLimited(zr, location)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading local file: %w", err)
	}
	defer logging.SafeCloseWithLogging(f,
		slog.Default().With(slog.String("component", "source_loader")),
		"input_file")
	return l.readLimited(f, path)
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if l.AuthHeaderKey != "" && l.AuthHeaderValue != "" {
		req.Header.Set(l.AuthHeaderKey, l.AuthHeaderValue)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading %s: %w", url, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "source_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: received HTTP status %s", url, resp.Status)
	}
	return l.readLimited(resp.Body, url)
}

func (l *Loader) readLimited(r io.Reader, location string) ([]byte, error) {
	limit := l.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", location, err)
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%s exceeds size limit of %d bytes", location, limit)
	}
	return b, nil
}
