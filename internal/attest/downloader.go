package attest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/yegors/zendmap/internal/wfs"
	"github.com/yegors/zendmap/pkg/logger"
)

var pdfMagic = []byte("%PDF-")

// MissingAttestError reports a feature without a certificate URL.
type MissingAttestError struct {
	FeatureID string
	Dossier   string
}

func (e *MissingAttestError) Error() string {
	return fmt.Sprintf("feature %s (dossier %s) has no conformity certificate URL", e.FeatureID, e.Dossier)
}

// Options configure a Downloader
type Options struct {
	Dir        string
	Delay      time.Duration // pause after every download that missed the cache
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Downloader keeps certificate documents in a directory, one file per dossier.
type Downloader struct {
	httpClient *http.Client
	opts       Options
	logger     *logger.Logger
}

// NewDownloader creates a new certificate downloader
func NewDownloader(opts Options, logger *logger.Logger) *Downloader {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Downloader{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:   opts,
		logger: logger.Named("attest-downloader"),
	}
}

// Path is where the certificate of a dossier is stored.
func (d *Downloader) Path(dossier string) string {
	return filepath.Join(d.opts.Dir, dossier+".pdf")
}

// Fetch returns the local path of the feature's certificate, downloading it when it is
// not on disk yet.
func (d *Downloader) Fetch(ctx context.Context, f wfs.Feature) (path string, fromCache bool, err error) {
	if f.AttestURL == "" {
		return "", false, &MissingAttestError{FeatureID: f.ID, Dossier: f.Dossier}
	}
	if f.Dossier == "" {
		return "", false, fmt.Errorf("feature %s has no dossier number", f.ID)
	}

	path = d.Path(f.Dossier)
	if _, err := os.Stat(path); err == nil {
		d.logger.WithDossier(f.Dossier).Debug("Certificate already cached", logger.String("path", path))
		return path, true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := d.download(ctx, f.AttestURL)
	if err != nil {
		return "", false, fmt.Errorf("dossier %s: %w", f.Dossier, err)
	}
	if err := writeFile(path, data); err != nil {
		return "", false, err
	}
	d.logger.WithDossier(f.Dossier).Debug("Downloaded certificate",
		logger.String("url", f.AttestURL),
		logger.String("path", path),
		logger.Int("bytes", len(data)))

	if d.opts.Delay > 0 {
		select {
		case <-ctx.Done():
			return path, false, ctx.Err()
		case <-time.After(d.opts.Delay):
		}
	}
	return path, false, nil
}

func (d *Downloader) download(ctx context.Context, url string) ([]byte, error) {
	retryDelay := d.opts.RetryDelay

	var lastErr error
	for attempt := 0; attempt < d.opts.MaxRetries; attempt++ {
		data, err := d.get(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt == d.opts.MaxRetries-1 {
			break
		}

		d.logger.Warn("Retrying certificate download",
			logger.String("url", url),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", d.opts.MaxRetries),
			logger.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
			retryDelay *= 2
		}
	}

	return nil, fmt.Errorf("download failed after %d attempts: %w", d.opts.MaxRetries, lastErr)
}

func (d *Downloader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	// a cached file is trusted forever, so an error page must never be stored
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, fmt.Errorf("response is not a PDF document (%s)", resp.Header.Get("Content-Type"))
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
