package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
)

// Status is the normalised lifecycle state of a strategy's container.
type Status string

const (
	StatusNotFound Status = "not_found"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

type Options struct {
	Prefix         string
	MountPath      string
	ConfigFileName string
	ConfigPassword string
	LogTail        int
	Logger         *zap.Logger
}

type Handle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Report is the live view of one strategy's container.
type Report struct {
	Status      Status    `json:"status"`
	Name        string    `json:"name"`
	ContainerID string    `json:"container_id,omitempty"`
	State       string    `json:"state,omitempty"`
	Image       string    `json:"image,omitempty"`
	Created     time.Time `json:"created,omitempty"`
	Logs        string    `json:"logs,omitempty"`
	Message     string    `json:"message,omitempty"`

	id string
}

// Outcome of an idempotent start or stop. Changed is false when the
// container was already in the requested state.
type Outcome struct {
	Changed bool
	Message string
}

// Orchestrator maps strategy ids onto containers. It is the only component
// that stops or removes containers.
type Orchestrator struct {
	rt   Runtime
	opts Options
	log  *zap.Logger
}

func NewOrchestrator(rt Runtime, opts Options) *Orchestrator {
	if opts.Prefix == "" {
		opts.Prefix = "hummingbot_"
	}
	if opts.MountPath == "" {
		opts.MountPath = "/conf"
	}
	if opts.LogTail <= 0 {
		opts.LogTail = 20
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{rt: rt, opts: opts, log: log}
}

func (o *Orchestrator) Runtime() Runtime {
	return o.rt
}

func (o *Orchestrator) ContainerName(id string) string {
	return o.opts.Prefix + id
}

// Create replaces any container already holding the strategy's name, then
// creates and starts a fresh one. A container that fails to start is removed.
func (o *Orchestrator) Create(ctx context.Context, id, imageRef, workDir string) (*Handle, error) {
	name := o.ContainerName(id)

	existing, err := o.rt.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", name, err)
	}
	if existing != nil {
		o.log.Warn("removing existing container", zap.String("container", name), zap.String("container_id", short(existing.ID)))
		if err := o.rt.Remove(ctx, existing.ID, true); err != nil && !apperr.IsNotFound(err) {
			return nil, fmt.Errorf("remove existing %s: %w", name, err)
		}
	}

	env := []string{}
	if o.opts.ConfigFileName != "" {
		env = append(env, "CONFIG_FILE_NAME="+o.opts.ConfigFileName)
	}
	env = append(env, "CONFIG_PASSWORD="+o.opts.ConfigPassword)

	cid, err := o.rt.Create(ctx, Spec{
		Name:  name,
		Image: imageRef,
		Env:   env,
		Labels: map[string]string{
			LabelManaged:    "true",
			LabelStrategyID: id,
		},
		Mounts: []Mount{{Source: workDir, Target: o.opts.MountPath}},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	if err := o.rt.Start(ctx, cid); err != nil {
		if rmErr := o.rt.Remove(ctx, cid, true); rmErr != nil {
			o.log.Error("remove unstarted container failed", zap.String("container", name), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	o.log.Info("container created", zap.String("container", name), zap.String("container_id", short(cid)))
	return &Handle{ID: cid, Name: name}, nil
}

// Status never fails: runtime errors are folded into StatusError.
func (o *Orchestrator) Status(ctx context.Context, id string) Report {
	name := o.ContainerName(id)
	info, err := o.rt.FindByName(ctx, name)
	if err != nil {
		return Report{Status: StatusError, Name: name, Message: err.Error()}
	}
	if info == nil {
		return Report{Status: StatusNotFound, Name: name, Message: fmt.Sprintf("container %s not found", name)}
	}
	rep := Report{
		Status:      Normalize(info.State),
		Name:        name,
		ContainerID: short(info.ID),
		State:       info.State,
		Image:       info.Image,
		Created:     info.Created,
		id:          info.ID,
	}
	return rep
}

// Describe is Status plus the last log lines.
func (o *Orchestrator) Describe(ctx context.Context, id string) Report {
	rep := o.Status(ctx, id)
	if rep.Status == StatusNotFound || rep.Status == StatusError {
		return rep
	}
	logs, err := o.rt.Logs(ctx, rep.id, o.opts.LogTail)
	if err != nil {
		o.log.Warn("read container logs failed", zap.String("container", rep.Name), zap.Error(err))
		rep.Message = "logs unavailable: " + err.Error()
		return rep
	}
	rep.Logs = logs
	return rep
}

func (o *Orchestrator) Start(ctx context.Context, id string) (Outcome, error) {
	info, err := o.find(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if Normalize(info.State) == StatusRunning {
		return Outcome{Message: fmt.Sprintf("container %s is already running", info.Name)}, nil
	}
	if err := o.rt.Start(ctx, info.ID); err != nil {
		return Outcome{}, fmt.Errorf("start %s: %w", info.Name, err)
	}
	o.log.Info("container started", zap.String("container", info.Name))
	return Outcome{Changed: true, Message: fmt.Sprintf("container %s started", info.Name)}, nil
}

func (o *Orchestrator) Stop(ctx context.Context, id string) (Outcome, error) {
	info, err := o.find(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if Normalize(info.State) == StatusStopped {
		return Outcome{Message: fmt.Sprintf("container %s is already stopped", info.Name)}, nil
	}
	// Unrecognized states still get a stop attempt.
	if err := o.rt.Stop(ctx, info.ID); err != nil {
		return Outcome{}, fmt.Errorf("stop %s: %w", info.Name, err)
	}
	o.log.Info("container stopped", zap.String("container", info.Name))
	return Outcome{Changed: true, Message: fmt.Sprintf("container %s stopped", info.Name)}, nil
}

// Remove force-removes the container in any state. A missing container is
// a NotFound error.
func (o *Orchestrator) Remove(ctx context.Context, id string) error {
	info, err := o.find(ctx, id)
	if err != nil {
		return err
	}
	if err := o.rt.Remove(ctx, info.ID, true); err != nil {
		return fmt.Errorf("remove %s: %w", info.Name, err)
	}
	o.log.Info("container removed", zap.String("container", info.Name))
	return nil
}

func (o *Orchestrator) Logs(ctx context.Context, id string, tail int) (string, error) {
	info, err := o.find(ctx, id)
	if err != nil {
		return "", err
	}
	if tail <= 0 {
		tail = o.opts.LogTail
	}
	return o.rt.Logs(ctx, info.ID, tail)
}

func (o *Orchestrator) FollowLogs(ctx context.Context, id string, tail int) (io.ReadCloser, error) {
	info, err := o.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if tail <= 0 {
		tail = o.opts.LogTail
	}
	return o.rt.FollowLogs(ctx, info.ID, tail)
}

// Managed lists containers labelled as belonging to this engine.
func (o *Orchestrator) Managed(ctx context.Context) ([]Info, error) {
	return o.rt.ListByLabel(ctx, LabelManaged, "true")
}

// RemoveContainer force-removes a container by runtime id.
func (o *Orchestrator) RemoveContainer(ctx context.Context, containerID string) error {
	return o.rt.Remove(ctx, containerID, true)
}

func (o *Orchestrator) find(ctx context.Context, id string) (*Info, error) {
	name := o.ContainerName(id)
	info, err := o.rt.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", name, err)
	}
	if info == nil {
		return nil, apperr.NotFound("container %s not found", name)
	}
	if info.Name == "" {
		info.Name = name
	}
	return info, nil
}

// Normalize folds raw engine states into the four strategy statuses.
func Normalize(state string) Status {
	switch state {
	case StateRunning, StateRestarting:
		return StatusRunning
	case StateCreated, StateExited, StatePaused, StateDead, StateRemoving:
		return StatusStopped
	default:
		return StatusError
	}
}

func short(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
