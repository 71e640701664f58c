package cache

import (
	"context"

	"github.com/AzielCF/az-invert/domains/artifact"
)

type CacheStats struct {
	Originals int    `json:"originals"`
	Artifacts int    `json:"artifacts"`
	TotalSize int64  `json:"total_size"`
	HumanSize string `json:"human_size"`
	Retention string `json:"retention"`
	Backend   string `json:"backend"`
}

type ICacheUsecase interface {
	GetStats(ctx context.Context) (CacheStats, error)
	// Sweep removes entries older than the retention window. It never
	// fails the caller; problems are logged and counted.
	Sweep(ctx context.Context) artifact.SweepReport
	// Clear removes every stored entry regardless of age.
	Clear(ctx context.Context) (artifact.SweepReport, error)
}
