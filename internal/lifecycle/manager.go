package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
	"github.com/ohlcv/VuePy-Stack/internal/audit"
	"github.com/ohlcv/VuePy-Stack/internal/container"
	"github.com/ohlcv/VuePy-Stack/internal/exchange"
	"github.com/ohlcv/VuePy-Stack/internal/image"
	"github.com/ohlcv/VuePy-Stack/internal/models"
	"github.com/ohlcv/VuePy-Stack/internal/repository"
	"github.com/ohlcv/VuePy-Stack/internal/strategyconf"
)

type Deps struct {
	Repo       repository.StrategyRepository
	Configs    ConfigWriter
	Validator  ExchangeValidator
	Markets    MarketSource
	Images     ImageEnsurer
	Containers Containers
	Auditor    Auditor
	Logger     *zap.Logger
}

type Options struct {
	ImageRepository string
	ImageTag        string
	// AllowPull lets CreateStrategy and EnsureImage download a missing image.
	AllowPull bool
}

// Manager composes the collaborators into the public strategy operations.
// It is the only writer of the strategy store. Every method reports a
// result value; collaborator errors and panics stop here.
type Manager struct {
	repo       repository.StrategyRepository
	configs    ConfigWriter
	validator  ExchangeValidator
	markets    MarketSource
	images     ImageEnsurer
	containers Containers
	auditor    Auditor
	log        *zap.Logger
	opts       Options

	newID func() string
}

func NewManager(d Deps, opts Options) *Manager {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ImageRepository == "" {
		opts.ImageRepository = image.DefaultRepository
	}
	if opts.ImageTag == "" {
		opts.ImageTag = image.DefaultTag
	}
	return &Manager{
		repo:       d.Repo,
		configs:    d.Configs,
		validator:  d.Validator,
		markets:    d.Markets,
		images:     d.Images,
		containers: d.Containers,
		auditor:    d.Auditor,
		log:        log,
		opts:       opts,
		newID:      NewStrategyID,
	}
}

// NewStrategyID returns the first 8 hex characters of a random UUID.
func NewStrategyID() string {
	return uuid.NewString()[:8]
}

func (m *Manager) CreateStrategy(ctx context.Context, raw map[string]any) (res CreateResult) {
	defer m.recoverInto(&res.Result, "create strategy")

	doc, err := strategyconf.Validate(strategyconf.ParamsFromMap(raw))
	if err != nil {
		res.Result = fail(err.Error())
		return res
	}
	log := m.log.With(zap.String("exchange", doc.Exchange), zap.String("pair", doc.TradingPair))

	if okEx, msg := m.validator.Validate(ctx, doc.Exchange, nil); !okEx {
		log.Warn("exchange validation failed", zap.String("message", msg))
		res.Result = fail(msg)
		return res
	}

	img := m.images.Ensure(ctx, m.opts.ImageRepository, m.opts.ImageTag, m.opts.AllowPull)
	if !img.OK {
		res.Result = fail(img.Message)
		return res
	}

	id, err := m.allocateID(ctx)
	if err != nil {
		res.Result = fail(fmt.Sprintf("allocate strategy id failed: %v", err))
		return res
	}
	log = log.With(zap.String("strategy_id", id))

	art, err := m.configs.Write(id, doc)
	if err != nil {
		log.Error("write strategy config failed", zap.Error(err))
		res.Result = fail(fmt.Sprintf("write strategy config failed: %v", err))
		return res
	}

	handle, err := m.containers.Create(ctx, id, img.Image, art.Dir)
	if err != nil {
		log.Error("create container failed", zap.Error(err))
		m.removeDir(id)
		res.Result = fail(fmt.Sprintf("create container failed: %v", err))
		m.record(ctx, audit.ActionCreate, id, res.Result, nil)
		return res
	}

	cfgJSON, err := doc.JSON()
	if err == nil {
		err = m.repo.UpsertStrategy(ctx, &models.Strategy{
			ID:          id,
			Name:        doc.Name,
			Exchange:    doc.Exchange,
			TradingPair: doc.TradingPair,
			Status:      models.StrategyStatusRunning,
			Config:      cfgJSON,
		})
	}
	if err != nil {
		log.Error("store strategy failed, rolling back", zap.Error(err))
		if rmErr := m.containers.Remove(ctx, id); rmErr != nil && !apperr.IsNotFound(rmErr) {
			log.Error("rollback container failed", zap.Error(rmErr))
		}
		m.removeDir(id)
		res.Result = fail(fmt.Sprintf("store strategy failed: %v", err))
		return res
	}

	log.Info("strategy created", zap.String("container", handle.Name))
	res = CreateResult{
		Result:        ok(fmt.Sprintf("container %s created", handle.Name)),
		StrategyID:    id,
		Name:          doc.Name,
		Exchange:      doc.Exchange,
		Pair:          doc.TradingPair,
		ContainerName: handle.Name,
		Config:        doc.Map(),
	}
	m.record(ctx, audit.ActionCreate, id, res.Result, map[string]any{"exchange": doc.Exchange, "pair": doc.TradingPair})
	return res
}

func (m *Manager) StartStrategy(ctx context.Context, id string) (res Result) {
	defer m.recoverInto(&res, "start strategy")
	return m.transition(ctx, id, audit.ActionStart, models.StrategyStatusRunning, m.containers.Start)
}

func (m *Manager) StopStrategy(ctx context.Context, id string) (res Result) {
	defer m.recoverInto(&res, "stop strategy")
	return m.transition(ctx, id, audit.ActionStop, models.StrategyStatusStopped, m.containers.Stop)
}

func (m *Manager) transition(ctx context.Context, id, action, status string, op func(context.Context, string) (container.Outcome, error)) Result {
	id = strings.TrimSpace(id)
	if id == "" {
		return fail("strategy id is required")
	}
	out, err := op(ctx, id)
	if err != nil {
		m.log.Warn("strategy "+action+" failed", zap.String("strategy_id", id), zap.Error(err))
		res := fail(fmt.Sprintf("%s strategy failed: %v", action, err))
		if apperr.IsNotFound(err) {
			res = fail(err.Error())
		}
		m.record(ctx, action, id, res, nil)
		return res
	}
	if err := m.repo.UpdateStrategyStatus(ctx, id, status); err != nil {
		m.log.Warn("update stored status failed", zap.String("strategy_id", id), zap.Error(err))
	}
	res := ok(out.Message)
	if out.Changed {
		m.record(ctx, action, id, res, nil)
	}
	return res
}

// DeleteStrategy removes the container, working directory and row. Any of
// them may already be gone; the call fails only when none existed.
func (m *Manager) DeleteStrategy(ctx context.Context, id string) (res Result) {
	defer m.recoverInto(&res, "delete strategy")

	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fail("invalid strategy id")
	}
	log := m.log.With(zap.String("strategy_id", id))

	removedContainer := true
	if err := m.containers.Remove(ctx, id); err != nil {
		if !apperr.IsNotFound(err) {
			log.Error("remove container failed", zap.Error(err))
			return fail(fmt.Sprintf("delete strategy failed: %v", err))
		}
		removedContainer = false
	}

	hadDir := m.configs.Exists(id)
	if err := m.configs.Remove(id); err != nil {
		log.Error("remove working dir failed", zap.Error(err))
		return fail(fmt.Sprintf("delete strategy failed: %v", err))
	}

	deleted, err := m.repo.DeleteStrategy(ctx, id)
	if err != nil {
		log.Error("delete stored strategy failed", zap.Error(err))
		return fail(fmt.Sprintf("delete strategy failed: %v", err))
	}

	if !removedContainer && !hadDir && !deleted {
		return fail(fmt.Sprintf("strategy %s not found", id))
	}
	log.Info("strategy deleted", zap.Bool("container", removedContainer), zap.Bool("dir", hadDir), zap.Bool("row", deleted))
	res = ok(fmt.Sprintf("strategy %s deleted", id))
	m.record(ctx, audit.ActionDelete, id, res, nil)
	return res
}

// ListStrategies queries the runtime once per stored strategy.
func (m *Manager) ListStrategies(ctx context.Context) (res ListResult) {
	defer m.recoverInto(&res.Result, "list strategies")

	rows, err := m.repo.ListStrategies(ctx)
	if err != nil {
		m.log.Error("list strategies failed", zap.Error(err))
		res.Result = fail(fmt.Sprintf("list strategies failed: %v", err))
		res.Strategies = []StrategyView{}
		return res
	}
	views := make([]StrategyView, 0, len(rows))
	for _, row := range rows {
		rep := m.containers.Status(ctx, row.ID)
		views = append(views, m.view(row, rep))
	}
	res.Result = ok(fmt.Sprintf("%d strategies", len(views)))
	res.Strategies = views
	return res
}

func (m *Manager) GetStatus(ctx context.Context, id string) (res StatusResult) {
	defer m.recoverInto(&res.Result, "get strategy status")

	id = strings.TrimSpace(id)
	if id == "" {
		res.Result = fail("strategy id is required")
		return res
	}
	row, err := m.repo.GetStrategy(ctx, id)
	if err != nil {
		res.Result = fail(fmt.Sprintf("get strategy failed: %v", err))
		return res
	}
	rep := m.containers.Describe(ctx, id)
	res.Container = rep
	if row == nil {
		if rep.Status == container.StatusNotFound {
			res.Result = fail(fmt.Sprintf("strategy %s not found", id))
			return res
		}
		res.Result = ok(fmt.Sprintf("container %s is %s but has no stored strategy", rep.Name, rep.Status))
		return res
	}
	v := m.view(*row, rep)
	res.Strategy = &v
	res.Result = ok(fmt.Sprintf("strategy %s is %s", id, v.Status))
	return res
}

func (m *Manager) Logs(ctx context.Context, id string, tail int) (string, error) {
	return m.containers.Logs(ctx, id, tail)
}

func (m *Manager) FollowLogs(ctx context.Context, id string, tail int) (io.ReadCloser, error) {
	return m.containers.FollowLogs(ctx, id, tail)
}

func (m *Manager) Exchanges() []exchange.Info {
	if m.markets == nil {
		return exchange.Exchanges()
	}
	return m.markets.Exchanges()
}

func (m *Manager) TradingPairs(ctx context.Context, exchangeID string, testnet bool) (res PairsResult) {
	defer m.recoverInto(&res.Result, "get trading pairs")

	exchangeID = strings.ToLower(strings.TrimSpace(exchangeID))
	res.Exchange, res.Testnet, res.Pairs = exchangeID, testnet, []string{}
	if exchangeID == "" {
		res.Result = fail("missing required parameter: exchange")
		return res
	}
	pairs, err := m.markets.LoadMarkets(ctx, exchangeID, testnet)
	if err != nil {
		m.log.Warn("load trading pairs failed", zap.String("exchange", exchangeID), zap.Error(err))
		res.Result = fail(fmt.Sprintf("load trading pairs failed: %v", err))
		return res
	}
	res.Pairs = pairs
	res.Result = ok(fmt.Sprintf("%d trading pairs", len(pairs)))
	return res
}

func (m *Manager) ValidateExchange(ctx context.Context, exchangeID, apiKey, secret string) (res Result) {
	defer m.recoverInto(&res, "validate exchange")

	var creds *exchange.Credentials
	if apiKey != "" || secret != "" {
		creds = &exchange.Credentials{APIKey: apiKey, Secret: secret}
	}
	okEx, msg := m.validator.Validate(ctx, strings.ToLower(strings.TrimSpace(exchangeID)), creds)
	return Result{Success: okEx, Message: msg}
}

func (m *Manager) EnsureImage(ctx context.Context, tag string) (res image.Result) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("panic in ensure image", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			res = image.Result{Message: fmt.Sprintf("ensure image failed: %v", r)}
		}
	}()
	if strings.TrimSpace(tag) == "" {
		tag = m.opts.ImageTag
	}
	return m.images.Ensure(ctx, m.opts.ImageRepository, tag, m.opts.AllowPull)
}

func (m *Manager) view(row models.Strategy, rep container.Report) StrategyView {
	cfg := map[string]any{}
	if len(row.Config) > 0 {
		if err := json.Unmarshal(row.Config, &cfg); err != nil {
			m.log.Warn("decode stored config failed", zap.String("strategy_id", row.ID), zap.Error(err))
		}
	}
	status := row.Status
	switch rep.Status {
	case container.StatusRunning:
		status = models.StrategyStatusRunning
	case container.StatusStopped:
		status = models.StrategyStatusStopped
	}
	return StrategyView{
		ID:              row.ID,
		Name:            row.Name,
		Exchange:        row.Exchange,
		Pair:            row.TradingPair,
		Status:          status,
		StoredStatus:    row.Status,
		ContainerStatus: string(rep.Status),
		Config:          cfg,
		CreatedAt:       row.CreatedAt,
	}
}

func (m *Manager) allocateID(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		id := m.newID()
		if m.configs.Exists(id) {
			continue
		}
		row, err := m.repo.GetStrategy(ctx, id)
		if err != nil {
			return "", err
		}
		if row == nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free id after 5 attempts")
}

func (m *Manager) removeDir(id string) {
	if err := m.configs.Remove(id); err != nil {
		m.log.Error("remove working dir failed", zap.String("strategy_id", id), zap.Error(err))
	}
}

func (m *Manager) record(ctx context.Context, action, id string, res Result, detail map[string]any) {
	if m.auditor == nil {
		return
	}
	m.auditor.Record(ctx, audit.Event{StrategyID: id, Action: action, Success: res.Success, Message: res.Message, Detail: detail})
}

func (m *Manager) recoverInto(res *Result, op string) {
	if r := recover(); r != nil {
		m.log.Error("panic in "+op, zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		*res = fail(fmt.Sprintf("%s failed: %v", op, r))
	}
}
