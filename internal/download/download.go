// Package download fetches audiobook parts from the media CDN into the working directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/mgpai22/audiobooker/internal/har"
	"github.com/mgpai22/audiobooker/internal/naming"
)

var (
	// ErrExpired means the server refused the locator, usually because the signed link expired.
	ErrExpired = errors.New("media link expired or forbidden")
	// ErrTransfer covers every other failure while fetching a part.
	ErrTransfer = errors.New("download failed")
	// ErrInvalidLocator means the locator is not a plain http(s) URL with a usable file name.
	ErrInvalidLocator = errors.New("invalid media locator")
)

const (
	defaultTimeout = 10 * time.Minute
	maxURLLength   = 2048
)

// Result describes one fetched part.
type Result struct {
	Locator har.Locator
	Path    string
	Bytes   int64
	Skipped bool // file was already present
}

// Downloader fetches parts sequentially, at most perSecond requests per second.
type Downloader struct {
	client  *http.Client
	limiter *rate.Limiter
	dir     string
	book    string
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		d.client = c
	}
}

// WithRate limits request starts to perSecond. Zero or less disables throttling.
func WithRate(perSecond float64) Option {
	return func(d *Downloader) {
		if perSecond <= 0 {
			d.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// New creates a Downloader writing {book}_{base}.mp3 files into dir.
func New(dir, book string, opts ...Option) *Downloader {
	d := &Downloader{
		client:  &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Inf, 1),
		dir:     dir,
		book:    book,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Target returns the local path for a locator without fetching it.
func (d *Downloader) Target(loc har.Locator) (string, error) {
	if err := ValidateURL(loc.URL); err != nil {
		return "", err
	}
	path, err := naming.DownloadPath(d.dir, d.book, loc.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidLocator, err)
	}
	return path, nil
}

// Fetch downloads loc unless its target already exists. The body is streamed to a
// temporary file that is renamed into place only after a complete transfer, so an
// interrupted run never leaves a truncated part behind.
func (d *Downloader) Fetch(ctx context.Context, loc har.Locator) (Result, error) {
	res := Result{Locator: loc}

	path, err := d.Target(loc)
	if err != nil {
		return res, err
	}
	res.Path = path

	if info, err := os.Stat(path); err == nil {
		res.Skipped = true
		res.Bytes = info.Size()
		return res, nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return res, fmt.Errorf("%w: create %s: %w", ErrTransfer, d.dir, err)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return res, fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URL, nil)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, fmt.Errorf("%w: %s returned %s", ErrExpired, redact(loc.URL), resp.Status)
	}

	n, err := writeAtomic(path, resp.Body)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	res.Bytes = n
	return res, nil
}

func writeAtomic(path string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".part-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return n, fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return n, fmt.Errorf("rename to %s: %w", path, err)
	}
	return n, nil
}

// ValidateURL checks that a locator is safe to fetch:
//   - max length 2048 characters
//   - scheme must be http or https
//   - no embedded credentials (user:pass@host)
func ValidateURL(rawURL string) error {
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("%w: URL too long (%d chars, max %d)", ErrInvalidLocator, len(rawURL), maxURLLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLocator, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocator, u.Scheme)
	}

	if u.User != nil {
		return fmt.Errorf("%w: URLs with embedded credentials are not allowed", ErrInvalidLocator)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("%w: URL has no hostname", ErrInvalidLocator)
	}
	return nil
}

// redact drops the query string, which carries the CDN signature.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}
