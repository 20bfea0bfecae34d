package timetable

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Fetcher returns the raw bytes of a timetable.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type Downloader struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewDownloader(url string, logger *slog.Logger) *Downloader {
	return &Downloader{
		url: url,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: logger.With("component", "timetable_downloader"),
	}
}

func (d *Downloader) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	d.logger.Info("starting timetable download", "url", d.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "CSA-Planner/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("failed to download timetable",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("download timetable: %w", err)
	}
	defer resp.Body.Close()

	d.logger.Debug("received HTTP response",
		"status_code", resp.StatusCode,
		"content_length", resp.ContentLength,
		"content_type", resp.Header.Get("Content-Type"),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	d.logger.Info("timetable download completed",
		"size_mb", fmt.Sprintf("%.2f", float64(len(data))/(1024*1024)),
		"total_duration_ms", time.Since(start).Milliseconds(),
	)

	return data, nil
}

// FileFetcher reads a timetable from local disk.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read timetable file: %w", err)
	}
	return data, nil
}

// LoadFile reads and parses the timetable at path.
func LoadFile(ctx context.Context, path string, logger *slog.Logger) (*ParseResult, error) {
	data, err := FileFetcher{Path: path}.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return NewParser(logger).Parse(data)
}
