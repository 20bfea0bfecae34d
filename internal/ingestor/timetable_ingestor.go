package ingestor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"csa/internal/domain"
	"csa/internal/network"
	"csa/internal/store"
	"csa/pkg/timetable"
)

// TimetableIngestor loads the timetable into the store and reloads it on
// a fixed interval. A failed reload keeps the previous snapshot.
type TimetableIngestor struct {
	fetcher        timetable.Fetcher
	parser         *timetable.Parser
	store          *store.TimetableStore
	cacheDir       string
	updateInterval time.Duration
	logger         *slog.Logger
	onUpdate       func(ctx context.Context, oldFingerprint, newFingerprint string)

	ready   bool
	readyMu sync.RWMutex
}

func NewTimetableIngestor(fetcher timetable.Fetcher, store *store.TimetableStore, cacheDir string, updateInterval time.Duration, logger *slog.Logger) *TimetableIngestor {
	if cacheDir == "" {
		cacheDir = timetable.DefaultCacheDir()
	}
	return &TimetableIngestor{
		fetcher:        fetcher,
		parser:         timetable.NewParser(logger),
		store:          store,
		cacheDir:       cacheDir,
		updateInterval: updateInterval,
		logger:         logger.With("component", "timetable_ingestor"),
	}
}

func (i *TimetableIngestor) Start(ctx context.Context) {
	if err := i.Update(ctx); err != nil {
		i.logger.Error("initial timetable load failed", "error", err)
	}

	if i.updateInterval <= 0 {
		return
	}

	ticker := time.NewTicker(i.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := i.Update(ctx); err != nil {
				i.logger.Error("timetable reload failed", "error", err)
			}
		}
	}
}

// Update fetches, parses and validates the timetable and swaps it into
// the store. Unchanged data is left alone.
func (i *TimetableIngestor) Update(ctx context.Context) error {
	i.logger.Info("starting timetable update")
	start := time.Now()

	data, err := i.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch timetable: %w", err)
	}

	fingerprint := timetable.DataFingerprint(data)
	oldFingerprint := i.store.Fingerprint()
	if fingerprint == oldFingerprint {
		i.logger.Info("timetable unchanged", "sha256", fingerprint)
		i.setReady(true)
		return nil
	}

	parseStart := time.Now()
	result, cachePath, cacheErr := timetable.LoadParsedResult(i.cacheDir, fingerprint)
	if cacheErr == nil {
		i.logger.Info("loaded parsed timetable cache", "path", cachePath)
	} else {
		i.logger.Debug("parsed timetable cache miss", "path", cachePath, "error", cacheErr)
		result, err = i.parser.Parse(data)
		if err != nil {
			return fmt.Errorf("parse timetable: %w", err)
		}
		if savedPath, saveErr := timetable.SaveParsedResult(i.cacheDir, fingerprint, result); saveErr != nil {
			i.logger.Warn("failed to persist parsed timetable cache", "error", saveErr)
		} else {
			i.logger.Debug("persisted parsed timetable cache", "path", savedPath)
		}
	}
	parseDuration := time.Since(parseStart)

	inverted, err := validate(result.Records)
	if err != nil {
		return fmt.Errorf("validate timetable: %w", err)
	}
	if inverted > 0 {
		i.logger.Warn("timetable has connections arriving before they depart", "count", inverted)
	}

	i.store.UpdateAll(result.Records, result.StopNames, fingerprint, inverted)
	i.setReady(true)

	if i.onUpdate != nil {
		i.onUpdate(ctx, oldFingerprint, fingerprint)
	}

	i.logger.Info("timetable update completed",
		"parse_duration", parseDuration,
		"total_duration", time.Since(start),
		"connections", len(result.Records),
		"sha256", fingerprint,
	)
	return nil
}

// validate parses every record once so malformed times are rejected at
// load time instead of failing each query.
func validate(records []domain.Record) (int, error) {
	conns, err := network.BuildConnections(records, domain.At(0))
	if err != nil {
		return 0, err
	}
	inverted := 0
	for _, c := range conns {
		if c.Inverted() {
			inverted++
		}
	}
	return inverted, nil
}

func (i *TimetableIngestor) IsReady() bool {
	i.readyMu.RLock()
	defer i.readyMu.RUnlock()
	return i.ready
}

func (i *TimetableIngestor) setReady(ready bool) {
	i.readyMu.Lock()
	defer i.readyMu.Unlock()
	i.ready = ready
}

// SetOnUpdate registers fn to run whenever a new timetable was stored.
// oldFingerprint is empty on the first load.
func (i *TimetableIngestor) SetOnUpdate(fn func(ctx context.Context, oldFingerprint, newFingerprint string)) {
	i.onUpdate = fn
}
