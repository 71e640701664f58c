package artifactstore

import (
	"context"
	"time"

	"github.com/AzielCF/az-invert/domains/artifact"
	"github.com/sirupsen/logrus"
)

// keepFiles are never swept.
var keepFiles = map[string]struct{}{
	".gitignore": {},
}

// sweepEntries deletes every entry older than cutoff through del. A failed
// deletion is logged and counted; the loop always runs to completion, even
// when the caller's ctx is cancelled midway.
func sweepEntries(ctx context.Context, entries []artifact.Entry, cutoff time.Time, del func(context.Context, string) error) artifact.SweepReport {
	ctx = context.WithoutCancel(ctx)

	var report artifact.SweepReport
	for _, e := range entries {
		if _, keep := keepFiles[e.Name]; keep {
			continue
		}
		report.Scanned++
		if !e.ModTime.Before(cutoff) {
			continue
		}
		if err := del(ctx, e.Name); err != nil {
			report.Failed++
			logrus.WithError(err).WithField("name", e.Name).Warn("[STORE] failed to delete expired entry")
			continue
		}
		report.Deleted++
	}
	return report
}
