package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AzielCF/az-invert/domains/artifact"
	domainCache "github.com/AzielCF/az-invert/domains/cache"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// DefaultRetention is how long originals and artifacts are kept.
const DefaultRetention = 24 * time.Hour

type cacheService struct {
	store     artifact.Store
	retention time.Duration
	backend   string
}

// NewCacheService manages retention for store. backend is only reported
// in stats.
func NewCacheService(store artifact.Store, retention time.Duration, backend string) domainCache.ICacheUsecase {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &cacheService{store: store, retention: retention, backend: backend}
}

func (s *cacheService) GetStats(ctx context.Context) (domainCache.CacheStats, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return domainCache.CacheStats{}, err
	}

	stats := domainCache.CacheStats{
		Retention: s.retention.String(),
		Backend:   s.backend,
	}
	for _, e := range entries {
		if e.Name == ".gitignore" {
			continue
		}
		if strings.HasPrefix(e.Name, artifactPrefix) {
			stats.Artifacts++
		} else {
			stats.Originals++
		}
		stats.TotalSize += e.Size
	}
	stats.HumanSize = humanize.Bytes(uint64(stats.TotalSize))
	return stats, nil
}

func (s *cacheService) Sweep(ctx context.Context) artifact.SweepReport {
	report, err := s.store.Sweep(ctx, s.retention)
	if err != nil {
		logrus.WithError(err).Error("[CACHE] retention sweep failed")
		return report
	}
	if report.Deleted > 0 || report.Failed > 0 {
		logrus.Infof("[CACHE] swept %d expired entries (%d failed, %d scanned)", report.Deleted, report.Failed, report.Scanned)
	}
	return report
}

func (s *cacheService) Clear(ctx context.Context) (artifact.SweepReport, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return artifact.SweepReport{}, err
	}

	var report artifact.SweepReport
	for _, e := range entries {
		if e.Name == ".gitignore" {
			continue
		}
		report.Scanned++
		if err := s.store.Delete(ctx, e.Name); err != nil && !errors.Is(err, artifact.ErrNotFound) {
			report.Failed++
			logrus.WithError(err).Warnf("[CACHE] failed to delete %s", e.Name)
			continue
		}
		report.Deleted++
	}

	logrus.Infof("[CACHE] cleared %d entries (%d failed)", report.Deleted, report.Failed)
	return report, nil
}
