package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
)

// DockerRuntime implements Runtime on the Docker Engine API.
type DockerRuntime struct {
	cli         *client.Client
	stopTimeout time.Duration
}

func NewDockerRuntime(host string, stopTimeout time.Duration) (*DockerRuntime, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if strings.TrimSpace(host) != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &DockerRuntime{cli: cli, stopTimeout: stopTimeout}, nil
}

func (d *DockerRuntime) Close() error {
	if d == nil || d.cli == nil {
		return nil
	}
	return d.cli.Close()
}

func (d *DockerRuntime) Ping(ctx context.Context) error {
	_, err := d.cli.Ping(ctx)
	return classify(err, "docker ping")
}

func (d *DockerRuntime) FindByName(ctx context.Context, name string) (*Info, error) {
	list, err := d.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", "^/"+name+"$")),
	})
	if err != nil {
		return nil, classify(err, "list containers")
	}
	for _, c := range list {
		for _, n := range c.Names {
			if strings.TrimPrefix(n, "/") == name {
				return d.Inspect(ctx, c.ID)
			}
		}
	}
	return nil, nil
}

func (d *DockerRuntime) ListByLabel(ctx context.Context, key, value string) ([]Info, error) {
	label := key
	if value != "" {
		label = key + "=" + value
	}
	list, err := d.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", label)),
	})
	if err != nil {
		return nil, classify(err, "list containers")
	}
	out := make([]Info, 0, len(list))
	for _, c := range list {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, Info{
			ID:      c.ID,
			Name:    name,
			Image:   c.Image,
			State:   c.State,
			Created: time.Unix(c.Created, 0).UTC(),
			Labels:  c.Labels,
		})
	}
	return out, nil
}

func (d *DockerRuntime) Inspect(ctx context.Context, id string) (*Info, error) {
	res, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, classify(err, "inspect container")
	}
	info := &Info{ID: res.ID, Name: strings.TrimPrefix(res.Name, "/")}
	if res.State != nil {
		info.State = res.State.Status
	}
	if res.Config != nil {
		info.Image = res.Config.Image
		info.Labels = res.Config.Labels
	}
	if ts, err := time.Parse(time.RFC3339Nano, res.Created); err == nil {
		info.Created = ts.UTC()
	}
	return info, nil
}

func (d *DockerRuntime) Create(ctx context.Context, spec Spec) (string, error) {
	mounts := make([]mount.Mount, 0, len(spec.Mounts))
	for _, m := range spec.Mounts {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	resp, err := d.cli.ContainerCreate(ctx,
		&container.Config{
			Image:  spec.Image,
			Env:    spec.Env,
			Labels: spec.Labels,
			Tty:    true,
		},
		&container.HostConfig{Mounts: mounts},
		nil, nil, spec.Name)
	if err != nil {
		return "", classify(err, "create container")
	}
	return resp.ID, nil
}

func (d *DockerRuntime) Start(ctx context.Context, id string) error {
	return classify(d.cli.ContainerStart(ctx, id, container.StartOptions{}), "start container")
}

func (d *DockerRuntime) Stop(ctx context.Context, id string) error {
	opts := container.StopOptions{}
	if d.stopTimeout > 0 {
		secs := int(d.stopTimeout.Seconds())
		opts.Timeout = &secs
	}
	return classify(d.cli.ContainerStop(ctx, id, opts), "stop container")
}

func (d *DockerRuntime) Remove(ctx context.Context, id string, force bool) error {
	return classify(d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: force}), "remove container")
}

func (d *DockerRuntime) Logs(ctx context.Context, id string, tail int) (string, error) {
	rc, err := d.cli.ContainerLogs(ctx, id, logOptions(tail, false))
	if err != nil {
		return "", classify(err, "container logs")
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", classify(err, "read logs")
	}
	return demux(raw), nil
}

func (d *DockerRuntime) FollowLogs(ctx context.Context, id string, tail int) (io.ReadCloser, error) {
	res, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, classify(err, "inspect container")
	}
	rc, err := d.cli.ContainerLogs(ctx, id, logOptions(tail, true))
	if err != nil {
		return nil, classify(err, "container logs")
	}
	if res.Config != nil && res.Config.Tty {
		return rc, nil
	}
	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, rc)
		rc.Close()
		pw.CloseWithError(err)
	}()
	return pr, nil
}

func (d *DockerRuntime) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := d.cli.ImageInspectWithRaw(ctx, ref)
	if err == nil {
		return true, nil
	}
	if errdefs.IsNotFound(err) {
		return false, nil
	}
	return false, classify(err, "inspect image")
}

// PullImage drains the progress stream so the pull completes and surfaces
// any error embedded in it.
func (d *DockerRuntime) PullImage(ctx context.Context, ref string) error {
	rc, err := d.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return classify(err, "pull image")
	}
	defer rc.Close()
	if err := jsonmessage.DisplayJSONMessagesStream(rc, io.Discard, 0, false, nil); err != nil {
		return classify(err, "pull image")
	}
	return nil
}

func logOptions(tail int, follow bool) container.LogsOptions {
	opts := container.LogsOptions{ShowStdout: true, ShowStderr: true, Follow: follow}
	if tail > 0 {
		opts.Tail = strconv.Itoa(tail)
	} else {
		opts.Tail = "all"
	}
	return opts
}

// demux strips the multiplexing headers when present. TTY containers send
// plain bytes.
func demux(raw []byte) string {
	if len(raw) < 8 || (raw[0] != 1 && raw[0] != 2) || raw[1] != 0 || raw[2] != 0 || raw[3] != 0 {
		return string(raw)
	}
	var out bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &out, bytes.NewReader(raw)); err != nil {
		return string(raw)
	}
	return out.String()
}

func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errdefs.IsNotFound(err):
		return apperr.Wrap(apperr.KindNotFound, err, op)
	case client.IsErrConnectionFailed(err), errors.Is(err, context.DeadlineExceeded), IsTransient(err):
		return apperr.Wrap(apperr.KindTransientInfra, err, op)
	default:
		return apperr.Wrap(apperr.KindRuntimeAPI, err, op)
	}
}

var transientMarkers = []string{"connection", "timeout", "forcibly closed"}

// IsTransient reports whether err text looks like a network-layer failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
