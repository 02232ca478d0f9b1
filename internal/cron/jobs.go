package cronrunner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/lifecycle"
)

// Reconciler is the part of the lifecycle manager the reconcile job needs.
type Reconciler interface {
	Reconcile(ctx context.Context) lifecycle.ReconcileResult
}

// ReconcileJob syncs stored strategy status with live container state.
func ReconcileJob(rec Reconciler, logger *zap.Logger, timeout time.Duration) func(context.Context) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res := rec.Reconcile(ctx)
		if !res.Success {
			logger.Warn("reconcile failed", zap.String("message", res.Message))
			return
		}
		if res.Updated > 0 || len(res.Missing) > 0 || len(res.Orphans) > 0 {
			logger.Info("reconcile",
				zap.Int("checked", res.Checked),
				zap.Int("updated", res.Updated),
				zap.Strings("missing", res.Missing),
				zap.Strings("orphans", res.Orphans),
			)
		}
	}
}

type AuditPruner interface {
	DeleteAuditEventsBefore(ctx context.Context, before time.Time) (int64, error)
}

// AuditPruneJob deletes audit events older than retention.
func AuditPruneJob(p AuditPruner, retention time.Duration, logger *zap.Logger) func(context.Context) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) {
		n, err := p.DeleteAuditEventsBefore(ctx, time.Now().UTC().Add(-retention))
		if err != nil {
			logger.Warn("delete old audit events failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("deleted old audit events", zap.Int64("count", n))
		}
	}
}
