package smoketest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/factboard/internal/domain/ranking"
	"github.com/okian/factboard/internal/domain/types"
	"github.com/okian/factboard/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	percentMultiplier   = 100
)

// ErrUnhealthy is returned when the service reports a degraded store.
var ErrUnhealthy = errors.New("service unhealthy")

// Run uploads generated submissions concurrently, then checks every sort
// order of the leaderboard against what was uploaded.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	log := logger.Named("smoketest")
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(config.BaseURL, config.Timeout)

	log.Info(ctx, "starting leaderboard smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("submissions", config.Submissions),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	health, err := client.Health(ctx)
	if err != nil {
		return stats, fmt.Errorf("health check: %w", err)
	}
	if health.Status != types.HealthOK {
		return stats, fmt.Errorf("%w: %s (%s)", ErrUnhealthy, health.Status, health.Error)
	}
	log.Info(ctx, "service is healthy", logger.String("store", health.Store))

	subs := generateSubmissions(config.Submissions)
	stats.Generated = len(subs)

	accepted := submit(ctx, log, client, config, subs, stats)

	var errs []error
	for _, key := range ranking.Keys() {
		entries, err := client.Leaderboard(ctx, string(key))
		stats.QueriesRun++
		if err != nil {
			errs = append(errs, fmt.Errorf("leaderboard %s: %w", key, err))
			continue
		}
		stats.LeaderboardEntries = len(entries)
		if err := verifyLeaderboard(entries, key, accepted); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info(ctx, "leaderboard verified",
			logger.String("sortBy", string(key)),
			logger.Int("entries", len(entries)))
	}

	if config.OutputFile != "" {
		if err := saveSubmissions(config.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		} else {
			log.Info(ctx, "submissions saved", logger.String("file", config.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	if stats.Failed > 0 {
		errs = append(errs, fmt.Errorf("%d of %d uploads failed", stats.Failed, stats.Submitted))
	}
	return stats, errors.Join(errs...)
}

// submit uploads subs with a worker pool and returns the accepted ones by team.
func submit(ctx context.Context, log logger.Logger, client *Client, config *Config, subs []Submission, stats *Stats) map[string]Submission {
	workers := max(1, min(config.Workers, len(subs)))
	jobs := make(chan Submission, workers*2)

	var (
		mu        sync.Mutex
		accepted  = make(map[string]Submission, len(subs))
		submitted int64
		failed    int64
		wg        sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				atomic.AddInt64(&submitted, 1)
				if err := client.Upload(ctx, s); err != nil {
					atomic.AddInt64(&failed, 1)
					log.Warn(ctx, "upload failed", logger.String("team", s.Team), logger.Error(err))
					continue
				}
				mu.Lock()
				accepted[s.Team] = s
				mu.Unlock()
				if config.Verbose {
					log.Debug(ctx, "uploaded", logger.String("team", s.Team), logger.String("model", s.Model))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, s := range subs {
			select {
			case <-ctx.Done():
				return
			case jobs <- s:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Failed = int(atomic.LoadInt64(&failed))
	stats.Accepted = len(accepted)
	log.Info(ctx, "uploads completed",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("failed", stats.Failed))
	return accepted
}

func saveSubmissions(path string, subs []Submission) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal submissions: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write submissions: %w", err)
	}
	return nil
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, uploadsPerSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Accepted) / float64(stats.Submitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		uploadsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("failed", stats.Failed),
		logger.Int("queries", stats.QueriesRun),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("uploadsPerSecond", uploadsPerSecond))
}
