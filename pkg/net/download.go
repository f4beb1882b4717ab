// Package net fetches source files published over HTTP so they can be read
// like local files.
package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
	clientAgent      = "shortlist"
	tempFilePattern  = "shortlist-source-*.csv"
)

var (
	reqTransport = &http.Transport{
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
	}

	// ErrorURLNotFound is returned when the server responds with 404.
	ErrorURLNotFound = errors.New("URL not found")
)

// IsURL reports whether path should be downloaded rather than opened.
func IsURL(path string) bool {
	p := strings.ToLower(path)
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

func getHTTPClient() *http.Client {
	return &http.Client{
		Transport: reqTransport,
		Timeout:   time.Duration(timeoutInSeconds) * time.Second,
	}
}

// Download saves the content at url to a new temporary file and returns its
// path. The caller removes the file.
func Download(ctx context.Context, url string) (path string, retErr error) {
	if url == "" {
		return "", errors.New("url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("User-Agent", clientAgent)

	resp, err := getHTTPClient().Do(req) //nolint:gosec // URL supplied by the operator on the command line
	if err != nil {
		return "", fmt.Errorf("error downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s: %w", url, ErrorURLNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error downloading file (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}

	out, err := os.CreateTemp("", tempFilePattern)
	if err != nil {
		return "", fmt.Errorf("error creating temp file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file: %w", cerr)
		}
		if retErr != nil {
			os.Remove(out.Name())
			path = ""
		}
	}()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return "", fmt.Errorf("error saving downloaded content to file: %w", err)
	}
	slog.Debug("downloaded", "url", url, "path", out.Name(), "bytes", n)

	return out.Name(), nil
}
