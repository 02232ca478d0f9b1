// Package containertest provides an in-memory container.Runtime for tests.
package containertest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
	"github.com/ohlcv/VuePy-Stack/internal/container"
)

// Runtime records every call and keeps containers in a map. Set the *Err
// fields to inject failures.
type Runtime struct {
	mu         sync.Mutex
	seq        int
	containers map[string]*container.Info
	specs      map[string]container.Spec
	images     map[string]bool

	Calls []string

	FindErr   error
	CreateErr error
	StartErr  error
	StopErr   error
	RemoveErr error
	LogText   string

	// PullErrs is consumed one entry per PullImage call; nil entries succeed.
	PullErrs []error
}

func New() *Runtime {
	return &Runtime{
		containers: map[string]*container.Info{},
		specs:      map[string]container.Spec{},
		images:     map[string]bool{},
	}
}

func (r *Runtime) AddImage(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[ref] = true
}

// Put registers a container directly, bypassing Create.
func (r *Runtime) Put(name, state string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := fmt.Sprintf("%064d", r.seq)
	r.containers[id] = &container.Info{ID: id, Name: name, State: state, Created: time.Now().UTC()}
	return id
}

// SetState changes a container's state as if done outside the engine.
func (r *Runtime) SetState(name, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.containers {
		if c.Name == name {
			c.State = state
		}
	}
}

func (r *Runtime) ByName(name string) *container.Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.containers {
		if c.Name == name {
			cp := *c
			return &cp
		}
	}
	return nil
}

func (r *Runtime) SpecOf(name string) (container.Spec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specs[name]
	return s, ok
}

func (r *Runtime) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.containers)
}

// CallCount counts recorded calls with the given operation prefix.
func (r *Runtime) CallCount(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if c == op || strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

func (r *Runtime) record(call string) {
	r.Calls = append(r.Calls, call)
}

func (r *Runtime) Ping(context.Context) error { return nil }

func (r *Runtime) FindByName(_ context.Context, name string) (*container.Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("find " + name)
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	for _, c := range r.containers {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Runtime) ListByLabel(_ context.Context, key, value string) ([]container.Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []container.Info
	for _, c := range r.containers {
		if v, ok := c.Labels[key]; ok && (value == "" || v == value) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *Runtime) Inspect(_ context.Context, id string) (*container.Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[id]
	if !ok {
		return nil, apperr.NotFound("no such container: %s", id)
	}
	cp := *c
	return &cp, nil
}

func (r *Runtime) Create(_ context.Context, spec container.Spec) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("create " + spec.Name)
	if r.CreateErr != nil {
		return "", r.CreateErr
	}
	for _, c := range r.containers {
		if c.Name == spec.Name {
			return "", apperr.New(apperr.KindRuntimeAPI, "Conflict. The container name \"/"+spec.Name+"\" is already in use")
		}
	}
	r.seq++
	id := fmt.Sprintf("%064d", r.seq)
	r.containers[id] = &container.Info{
		ID:      id,
		Name:    spec.Name,
		Image:   spec.Image,
		State:   container.StateCreated,
		Created: time.Now().UTC(),
		Labels:  spec.Labels,
	}
	r.specs[spec.Name] = spec
	return id, nil
}

func (r *Runtime) Start(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("start " + id)
	if r.StartErr != nil {
		return r.StartErr
	}
	c, ok := r.containers[id]
	if !ok {
		return apperr.NotFound("no such container: %s", id)
	}
	c.State = container.StateRunning
	return nil
}

func (r *Runtime) Stop(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("stop " + id)
	if r.StopErr != nil {
		return r.StopErr
	}
	c, ok := r.containers[id]
	if !ok {
		return apperr.NotFound("no such container: %s", id)
	}
	c.State = container.StateExited
	return nil
}

func (r *Runtime) Remove(_ context.Context, id string, _ bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("remove " + id)
	if r.RemoveErr != nil {
		return r.RemoveErr
	}
	if _, ok := r.containers[id]; !ok {
		return apperr.NotFound("no such container: %s", id)
	}
	delete(r.containers, id)
	return nil
}

func (r *Runtime) Logs(_ context.Context, id string, _ int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[id]; !ok {
		return "", apperr.NotFound("no such container: %s", id)
	}
	return r.LogText, nil
}

func (r *Runtime) FollowLogs(ctx context.Context, id string, tail int) (io.ReadCloser, error) {
	text, err := r.Logs(ctx, id, tail)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

func (r *Runtime) ImageExists(_ context.Context, ref string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("image " + ref)
	return r.images[ref], nil
}

func (r *Runtime) PullImage(_ context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("pull " + ref)
	if len(r.PullErrs) > 0 {
		err := r.PullErrs[0]
		r.PullErrs = r.PullErrs[1:]
		if err != nil {
			return err
		}
	}
	r.images[ref] = true
	return nil
}

func (r *Runtime) Close() error { return nil }

var _ container.Runtime = (*Runtime)(nil)
