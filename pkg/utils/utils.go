// Package utils provides cached downloads of the upstream feeds and map assets.
package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("file not found on server")

// CacheDir is where GetCachedReader keeps downloaded files.
var CacheDir = "data/cache"

type progressWriter struct {
	io.Writer
	total uint64
	last  uint64
	label string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += uint64(n)
	if pw.total-pw.last > 5*1024*1024 { // Log every 5MB
		zap.L().Info("Download progress", zap.String("file", pw.label), zap.Uint64("mb", pw.total/1024/1024))
		pw.last = pw.total
	}
	return n, err
}

func get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "situation-map")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		closeBody(resp)
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return resp, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		zap.L().Warn("Error closing response body", zap.Error(err))
	}
}

// DownloadFile downloads a file from a URL to a local path safely.
func DownloadFile(ctx context.Context, url, path string) error {
	resp, err := get(ctx, url)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	// Temp file in the same directory so the rename is atomic
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("Error removing temp file", zap.String("path", tmpName), zap.Error(err))
		}
	}()

	pw := &progressWriter{Writer: tmpFile, label: filepath.Base(path)}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// GetCacheFileName returns the expected local filename for a given URL and logPrefix.
func GetCacheFileName(url, logPrefix string) string {
	urlParts := strings.Split(url, "/")
	fileName := urlParts[len(urlParts)-1]
	if i := strings.IndexByte(fileName, '?'); i >= 0 {
		fileName = fileName[:i]
	}

	sanitizedPrefix := strings.Trim(logPrefix, "[]")
	sanitizedPrefix = strings.ReplaceAll(sanitizedPrefix, " ", "_")
	if sanitizedPrefix != "" {
		fileName = sanitizedPrefix + "_" + fileName
	}
	return fileName
}

// FindCachedURL returns the first of urls already present in the local cache.
func FindCachedURL(urls []string, logPrefix string) (string, bool) {
	for _, u := range urls {
		fname := GetCacheFileName(u, logPrefix)
		if _, err := os.Stat(filepath.Join(CacheDir, fname)); err == nil {
			return u, true
		}
	}
	return "", false
}

// GetCachedReader returns a reader for the given URL, using a local cache if
// enabled. Non-http URLs are opened as local files.
func GetCachedReader(ctx context.Context, url string, useCache bool, logPrefix string) (io.ReadCloser, error) {
	log := zap.L().With(zap.String("source", logPrefix))
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		f, err := os.Open(url)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", url, err)
		}
		return f, nil
	}

	if useCache {
		if err := os.MkdirAll(CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir: %w", err)
		}
		localPath := filepath.Join(CacheDir, GetCacheFileName(url, logPrefix))

		if _, err := os.Stat(localPath); os.IsNotExist(err) {
			log.Info("Downloading", zap.String("url", url))
			if err := DownloadFile(ctx, url, localPath); err != nil {
				return nil, err // unwrapped so callers can match ErrNotFound
			}
		} else {
			log.Debug("Using cached file", zap.String("path", localPath))
		}
		f, err := os.Open(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		return f, nil
	}

	log.Debug("Streaming", zap.String("url", url))
	resp, err := get(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
