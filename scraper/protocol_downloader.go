// scraper/protocol_downloader.go
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/config"
)

// ErrProtocolUnavailable means the portal has no exploration protocol to
// download for a property.
var ErrProtocolUnavailable = errors.New("exploration protocol unavailable")

// ProtocolDownloader saves exploration protocol files into a local folder.
type ProtocolDownloader struct {
	client      *http.Client
	urlTemplate string
	dir         string
	retries     int
	backoff     time.Duration
	now         func() time.Time
	log         *zap.Logger
}

func NewProtocolDownloader(cfg config.IngestConfig, log *zap.Logger) *ProtocolDownloader {
	return &ProtocolDownloader{
		client:      &http.Client{Timeout: cfg.DownloadTimeout},
		urlTemplate: cfg.ProtocolURL,
		dir:         cfg.ProtocolDir,
		retries:     cfg.DownloadRetries,
		backoff:     time.Second,
		now:         time.Now,
		log:         log,
	}
}

// retryableError marks failures worth another attempt.
type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

// Download fetches the protocol for folID and returns the path it was
// saved under. Network errors and 5xx responses are retried with a linear
// backoff; a 404 yields ErrProtocolUnavailable.
func (d *ProtocolDownloader) Download(ctx context.Context, folID string) (string, error) {
	if d.urlTemplate == "" {
		return "", ErrProtocolUnavailable
	}
	target := strings.ReplaceAll(d.urlTemplate, "{fol_id}", url.PathEscape(folID))

	attempts := d.retries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		path, err := d.downloadOnce(ctx, target, folID)
		if err == nil {
			d.log.Info("Scraper: saved exploration protocol", zap.String("fol_id", folID), zap.String("path", path))
			return path, nil
		}

		var retry retryableError
		if !errors.As(err, &retry) {
			return "", err
		}
		lastErr = err
		d.log.Warn("Scraper: protocol download attempt failed",
			zap.String("fol_id", folID), zap.Int("attempt", attempt), zap.Error(err))

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(d.backoff * time.Duration(attempt)):
			}
		}
	}
	return "", fmt.Errorf("failed to download protocol for %s after %d attempts: %w", folID, attempts, lastErr)
}

func (d *ProtocolDownloader) downloadOnce(ctx context.Context, target, folID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", target, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", retryableError{fmt.Errorf("failed to make GET request to %s: %w", target, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrProtocolUnavailable
	case resp.StatusCode >= 500:
		return "", retryableError{fmt.Errorf("failed to download %s: received status code %d", target, resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("failed to download %s: received status code %d", target, resp.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", d.dir, err)
	}
	dest := filepath.Join(d.dir, protocolFilename(resp.Header.Get("Content-Disposition"), folID, d.now()))

	// Write to a temp file first so a broken transfer never leaves a
	// partial protocol under the final name.
	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", d.dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", retryableError{fmt.Errorf("failed to copy downloaded content to %s: %w", dest, err)}
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move download to %s: %w", dest, err)
	}
	return dest, nil
}

// protocolFilename builds <folID>_<suggested base>_<timestamp><ext>, unique
// per property even when the portal suggests one name for all of them.
func protocolFilename(disposition, folID string, at time.Time) string {
	base, ext := "protocol", ".pdf"
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := filepath.Base(params["filename"]); name != "" && name != "." && name != "/" {
				ext = filepath.Ext(name)
				base = strings.TrimSuffix(name, ext)
				if ext == "" {
					ext = ".xlsx"
				}
			}
		}
	}
	return fmt.Sprintf("%s_%s_%s%s", filepath.Base(folID), base, at.Format("20060102_150405"), ext)
}
