package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/models"
	"github.com/ohlcv/VuePy-Stack/internal/repository"
)

const (
	ActionCreate    = "create"
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionDelete    = "delete"
	ActionReconcile = "reconcile"
	ActionCleanup   = "cleanup"
)

type Event struct {
	StrategyID string
	Action     string
	Success    bool
	Message    string
	Detail     map[string]any
	At         time.Time
}

// Sink receives events after they are stored locally.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// Recorder stores events and fans them out to sinks on a background
// goroutine. Record never blocks on the network and never fails the caller.
type Recorder struct {
	repo    repository.AuditRepository
	sinks   []Sink
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	wg     sync.WaitGroup
}

func NewRecorder(repo repository.AuditRepository, log *zap.Logger, timeout time.Duration, sinks ...Sink) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	r := &Recorder{repo: repo, sinks: sinks, log: log, timeout: timeout, queue: make(chan Event, 64)}
	r.wg.Add(1)
	go r.loop()
	return r
}

func (r *Recorder) Record(ctx context.Context, ev Event) {
	if r == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if r.repo != nil {
		item := &models.AuditEvent{
			StrategyID: ev.StrategyID,
			Action:     ev.Action,
			Success:    ev.Success,
			Message:    ev.Message,
		}
		if len(ev.Detail) > 0 {
			if b, err := json.Marshal(ev.Detail); err == nil {
				item.Detail = b
			}
		}
		if err := r.repo.InsertAuditEvent(ctx, item); err != nil {
			r.log.Warn("store audit event failed", zap.String("action", ev.Action), zap.Error(err))
		}
	}
	if len(r.sinks) == 0 {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.log.Warn("audit queue full, dropping event", zap.String("action", ev.Action), zap.String("strategy_id", ev.StrategyID))
	}
}

func (r *Recorder) loop() {
	defer r.wg.Done()
	for ev := range r.queue {
		for _, s := range r.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			if err := s.Send(ctx, ev); err != nil {
				r.log.Debug("audit sink failed", zap.String("sink", s.Name()), zap.String("action", ev.Action), zap.Error(err))
			}
			cancel()
		}
	}
}

// Close flushes queued events.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
