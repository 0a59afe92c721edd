// Package download materializes remote raster resources into a
// local directory ahead of assembly. Retry policy lives here, not
// in the callers: any failure reported back is final.
package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const DefaultTimeout = 30 * time.Second
const DefaultMaxRetries = 3

// Options control the overwrite and resume behaviour of one
// download batch.
type Options struct {
	// Overwrite forces a fresh transfer even when the destination
	// file already exists.
	Overwrite bool
	// Resume skips locators whose destination file already exists
	// with a non-zero size. File size is an existence proxy, not a
	// checksum.
	Resume bool
}

// Result reports the outcome of one locator's transfer.
type Result struct {
	Locator    string
	LocalPath  string
	OK         bool
	StatusCode int
	Skipped    bool
}

// Service transfers a batch of locators into destDir, one Result
// per locator in input order. The batch itself only errors on
// environmental failures (unusable destination); per-file failures
// are reported in the results.
type Service interface {
	Download(ctx context.Context, locators []string, destDir string, opts Options) ([]Result, error)
}

// HTTPService is the net/http implementation of Service with
// exponential backoff per file.
type HTTPService struct {
	Client     *http.Client
	MaxRetries uint64
	Verbose    bool
}

func NewHTTPService() *HTTPService {
	return &HTTPService{
		Client:     &http.Client{Timeout: DefaultTimeout},
		MaxRetries: DefaultMaxRetries,
	}
}

func (s *HTTPService) Download(ctx context.Context, locators []string, destDir string, opts Options) ([]Result, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("Could not create download directory %s: %v", destDir, err)
	}

	results := make([]Result, len(locators))
	for i, locator := range locators {
		results[i] = s.downloadOne(ctx, locator, destDir, opts)
	}
	return results, nil
}

func (s *HTTPService) downloadOne(ctx context.Context, locator string, destDir string, opts Options) Result {
	res := Result{Locator: locator}

	parsed, err := url.Parse(locator)
	if err != nil || len(path.Base(parsed.Path)) == 0 {
		return res
	}
	res.LocalPath = filepath.Join(destDir, path.Base(parsed.Path))

	if !opts.Overwrite && opts.Resume {
		if info, err := os.Stat(res.LocalPath); err == nil && info.Size() > 0 {
			if s.Verbose {
				log.Printf("download: %s exists (%d bytes), skipping", res.LocalPath, info.Size())
			}
			res.OK = true
			res.Skipped = true
			return res
		}
	}

	operation := func() error {
		status, err := s.fetch(ctx, locator, res.LocalPath)
		res.StatusCode = status
		if err != nil && status >= 400 && status < 500 {
			// Client errors will not heal on retry.
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if s.Verbose {
			log.Printf("download: %s failed: %v", locator, err)
		}
		return res
	}

	res.OK = true
	return res
}

func (s *HTTPService) fetch(ctx context.Context, locator string, localPath string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("GET %s returned status %d", locator, resp.StatusCode)
	}

	// Write through a temp file so a partial transfer never
	// satisfies a later resume check.
	tmp, err := os.CreateTemp(filepath.Dir(localPath), ".download-*")
	if err != nil {
		return resp.StatusCode, err
	}
	_, err = io.Copy(tmp, resp.Body)
	tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return resp.StatusCode, err
	}

	return resp.StatusCode, os.Rename(tmp.Name(), localPath)
}
