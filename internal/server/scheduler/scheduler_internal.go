package scheduler

import (
	"context"

	"github.com/lorekeep/lorekeep/internal/authz"
	"github.com/lorekeep/lorekeep/internal/log"
)

func (w *Worker) runScanWithSystemContext(ctx context.Context) {
	err := authz.RunWithSystemBypass(ctx, "scheduler:dissolution-scan", w.runScan)
	if err != nil {
		log.Error(ctx, "dissolution scan finished with errors", log.Cause(err))
	}
}
