package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/audit"
	"github.com/ohlcv/VuePy-Stack/internal/container"
	"github.com/ohlcv/VuePy-Stack/internal/models"
)

// Reconcile copies the live runtime status into the store for every
// strategy whose container exists. Containers that vanished are reported
// in Missing; managed containers without a row are reported in Orphans.
func (m *Manager) Reconcile(ctx context.Context) (res ReconcileResult) {
	defer m.recoverInto(&res.Result, "reconcile")

	rows, err := m.repo.ListStrategies(ctx)
	if err != nil {
		res.Result = fail(fmt.Sprintf("reconcile failed: %v", err))
		return res
	}
	known := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		known[row.ID] = struct{}{}
		res.Checked++

		rep := m.containers.Status(ctx, row.ID)
		var live string
		switch rep.Status {
		case container.StatusRunning:
			live = models.StrategyStatusRunning
		case container.StatusStopped:
			live = models.StrategyStatusStopped
		case container.StatusNotFound:
			res.Missing = append(res.Missing, row.ID)
			continue
		default:
			m.log.Warn("reconcile status unavailable", zap.String("strategy_id", row.ID), zap.String("message", rep.Message))
			continue
		}
		if live == row.Status {
			continue
		}
		if err := m.repo.UpdateStrategyStatus(ctx, row.ID, live); err != nil {
			m.log.Warn("reconcile update failed", zap.String("strategy_id", row.ID), zap.Error(err))
			continue
		}
		m.log.Info("strategy status reconciled", zap.String("strategy_id", row.ID), zap.String("from", row.Status), zap.String("to", live))
		res.Updated++
	}

	managed, err := m.containers.Managed(ctx)
	if err != nil {
		m.log.Warn("list managed containers failed", zap.Error(err))
	}
	for _, c := range managed {
		sid := c.Labels[container.LabelStrategyID]
		if _, ok := known[sid]; !ok {
			res.Orphans = append(res.Orphans, c.Name)
		}
	}

	res.Result = ok(fmt.Sprintf("checked %d strategies, updated %d", res.Checked, res.Updated))
	if res.Updated > 0 {
		m.record(ctx, audit.ActionReconcile, "", res.Result, map[string]any{"updated": res.Updated})
	}
	return res
}

// Cleanup removes managed containers and working directories that have no
// stored strategy.
func (m *Manager) Cleanup(ctx context.Context) (res CleanupResult) {
	defer m.recoverInto(&res.Result, "cleanup")
	res.RemovedContainers, res.RemovedDirs = []string{}, []string{}

	rows, err := m.repo.ListStrategies(ctx)
	if err != nil {
		res.Result = fail(fmt.Sprintf("cleanup failed: %v", err))
		return res
	}
	known := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		known[row.ID] = struct{}{}
	}

	managed, err := m.containers.Managed(ctx)
	if err != nil {
		res.Result = fail(fmt.Sprintf("cleanup failed: %v", err))
		return res
	}
	for _, c := range managed {
		if _, ok := known[c.Labels[container.LabelStrategyID]]; ok {
			continue
		}
		if err := m.containers.RemoveContainer(ctx, c.ID); err != nil {
			m.log.Warn("remove orphan container failed", zap.String("container", c.Name), zap.Error(err))
			continue
		}
		res.RemovedContainers = append(res.RemovedContainers, c.Name)
	}

	ids, err := m.configs.IDs()
	if err != nil {
		m.log.Warn("list working dirs failed", zap.Error(err))
	}
	for _, id := range ids {
		if _, ok := known[id]; ok {
			continue
		}
		if err := m.configs.Remove(id); err != nil {
			m.log.Warn("remove orphan dir failed", zap.String("strategy_id", id), zap.Error(err))
			continue
		}
		res.RemovedDirs = append(res.RemovedDirs, id)
	}

	res.Result = ok(fmt.Sprintf("removed %d containers and %d directories", len(res.RemovedContainers), len(res.RemovedDirs)))
	m.record(ctx, audit.ActionCleanup, "", res.Result, nil)
	return res
}
