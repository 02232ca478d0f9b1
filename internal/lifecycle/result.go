package lifecycle

import (
	"time"

	"github.com/ohlcv/VuePy-Stack/internal/container"
)

// Result is the shape every public operation reports.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CreateResult struct {
	Result
	StrategyID    string         `json:"strategy_id,omitempty"`
	Name          string         `json:"name,omitempty"`
	Exchange      string         `json:"exchange,omitempty"`
	Pair          string         `json:"pair,omitempty"`
	ContainerName string         `json:"container_name,omitempty"`
	Config        map[string]any `json:"config,omitempty"`
}

// StrategyView joins a stored strategy with its live container status.
type StrategyView struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Exchange        string         `json:"exchange"`
	Pair            string         `json:"pair"`
	Status          string         `json:"status"`
	StoredStatus    string         `json:"stored_status"`
	ContainerStatus string         `json:"container_status"`
	Config          map[string]any `json:"config"`
	CreatedAt       time.Time      `json:"created_at"`
}

type ListResult struct {
	Result
	Strategies []StrategyView `json:"strategies"`
}

type StatusResult struct {
	Result
	Strategy  *StrategyView    `json:"strategy,omitempty"`
	Container container.Report `json:"container"`
}

type PairsResult struct {
	Result
	Exchange string   `json:"exchange"`
	Testnet  bool     `json:"testnet"`
	Pairs    []string `json:"pairs"`
}

type ReconcileResult struct {
	Result
	Checked int      `json:"checked"`
	Updated int      `json:"updated"`
	Missing []string `json:"missing,omitempty"`
	Orphans []string `json:"orphans,omitempty"`
}

type CleanupResult struct {
	Result
	RemovedContainers []string `json:"removed_containers"`
	RemovedDirs       []string `json:"removed_dirs"`
}

func ok(msg string) Result {
	return Result{Success: true, Message: msg}
}

func fail(msg string) Result {
	return Result{Success: false, Message: msg}
}
