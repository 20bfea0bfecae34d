package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/redis/go-redis/v9"

	"csa/internal/domain"
)

// JourneyCache stores answered journeys in redis, gzip-compressed JSON,
// under keys scoped by the timetable fingerprint.
type JourneyCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewJourneyCache(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*JourneyCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return newJourneyCache(client, ttl, logger), nil
}

func newJourneyCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *JourneyCache {
	return &JourneyCache{
		client: client,
		prefix: "csa:",
		ttl:    ttl,
		logger: logger.With("component", "journey_cache"),
	}
}

func (c *JourneyCache) Close() error {
	return c.client.Close()
}

func (c *JourneyCache) key(k string) string {
	return c.prefix + k
}

// GetJourney returns the cached journey, or nil on a miss.
func (c *JourneyCache) GetJourney(ctx context.Context, key string) (*domain.Journey, error) {
	start := time.Now()
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		c.logger.Debug("cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	data, err := gzipDecompress(val)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	var j domain.Journey
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	c.logger.Debug("cache hit", "key", key, "size_bytes", len(val), "duration_ms", time.Since(start).Milliseconds())
	return &j, nil
}

func (c *JourneyCache) SetJourney(ctx context.Context, key string, j *domain.Journey) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	compressed, err := gzipCompress(data)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), compressed, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	c.logger.Debug("cache set", "key", key, "original_size", len(data), "compressed_size", len(compressed), "ttl", c.ttl)
	return nil
}

// PurgeTimetable drops every journey cached for the given fingerprint.
func (c *JourneyCache) PurgeTimetable(ctx context.Context, fingerprint string) (int, error) {
	deleted := 0
	iter := c.client.Scan(ctx, 0, c.key(PatternJourneys(fingerprint)), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, iter.Err()
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
