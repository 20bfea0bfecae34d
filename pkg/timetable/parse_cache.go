package timetable

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// DefaultCacheDir is used when no cache directory is configured.
func DefaultCacheDir() string {
	return filepath.Join(os.TempDir(), "csa-timetable-cache")
}

func DataFingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func parsedCachePath(cacheDir, fingerprint string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("timetable_parsed_%s.gob.gz", fingerprint))
}

func LoadParsedResult(cacheDir, fingerprint string) (*ParseResult, string, error) {
	path := parsedCachePath(cacheDir, fingerprint)
	f, err := os.Open(path)
	if err != nil {
		return nil, path, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, path, err
	}
	defer zr.Close()

	var result ParseResult
	if err := gob.NewDecoder(zr).Decode(&result); err != nil {
		return nil, path, err
	}

	if result.Records == nil {
		return nil, path, fmt.Errorf("parsed cache is empty")
	}

	return &result, path, nil
}

// SaveParsedResult writes result atomically through a temp file.
func SaveParsedResult(cacheDir, fingerprint string, result *ParseResult) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}

	path := parsedCachePath(cacheDir, fingerprint)
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}

	zw, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		f.Close()
		return "", err
	}

	encErr := gob.NewEncoder(zw).Encode(result)
	closeErr := zw.Close()
	fileCloseErr := f.Close()
	for _, err := range []error{encErr, closeErr, fileCloseErr} {
		if err != nil {
			_ = os.Remove(tmpPath)
			return "", err
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	return path, nil
}
