package container_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
	"github.com/ohlcv/VuePy-Stack/internal/container"
	"github.com/ohlcv/VuePy-Stack/internal/container/containertest"
)

func newOrchestrator(rt *containertest.Runtime) *container.Orchestrator {
	return container.NewOrchestrator(rt, container.Options{
		Prefix:         "hummingbot_",
		MountPath:      "/conf",
		ConfigFileName: "conf_grid.yml",
	})
}

func TestOrchestrator_CreateStartsWithMountAndEnv(t *testing.T) {
	rt := containertest.New()
	o := newOrchestrator(rt)

	h, err := o.Create(context.Background(), "a1b2c3d4", "hummingbot/hummingbot:latest", "/data/strategy_files/a1b2c3d4")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.Name != "hummingbot_a1b2c3d4" {
		t.Fatalf("name=%q", h.Name)
	}
	info := rt.ByName(h.Name)
	if info == nil || info.State != container.StateRunning {
		t.Fatalf("info=%+v want running", info)
	}
	spec, _ := rt.SpecOf(h.Name)
	if len(spec.Mounts) != 1 || spec.Mounts[0].Target != "/conf" || spec.Mounts[0].Source != "/data/strategy_files/a1b2c3d4" {
		t.Fatalf("mounts=%+v", spec.Mounts)
	}
	if spec.Labels[container.LabelStrategyID] != "a1b2c3d4" {
		t.Fatalf("labels=%v", spec.Labels)
	}
	if !strings.Contains(strings.Join(spec.Env, " "), "CONFIG_FILE_NAME=conf_grid.yml") {
		t.Fatalf("env=%v", spec.Env)
	}
}

func TestOrchestrator_CreateReplacesExistingName(t *testing.T) {
	rt := containertest.New()
	oldID := rt.Put("hummingbot_a1b2c3d4", container.StateExited)
	o := newOrchestrator(rt)

	if _, err := o.Create(context.Background(), "a1b2c3d4", "img", "/w"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rt.Count() != 1 {
		t.Fatalf("containers=%d want=1", rt.Count())
	}
	if rt.ByName("hummingbot_a1b2c3d4").ID == oldID {
		t.Fatalf("old container was not replaced")
	}
	removeIdx, createIdx := -1, -1
	for i, c := range rt.Calls {
		if c == "remove "+oldID {
			removeIdx = i
		}
		if c == "create hummingbot_a1b2c3d4" {
			createIdx = i
		}
	}
	if removeIdx < 0 || createIdx < 0 || removeIdx > createIdx {
		t.Fatalf("calls=%v want remove before create", rt.Calls)
	}
}

func TestOrchestrator_CreateRemovesContainerWhenStartFails(t *testing.T) {
	rt := containertest.New()
	rt.StartErr = errors.New("port is already allocated")
	o := newOrchestrator(rt)

	if _, err := o.Create(context.Background(), "a1b2c3d4", "img", "/w"); err == nil {
		t.Fatalf("expected error")
	}
	if rt.Count() != 0 {
		t.Fatalf("containers=%d want=0", rt.Count())
	}
}

func TestOrchestrator_StartStopIdempotent(t *testing.T) {
	rt := containertest.New()
	o := newOrchestrator(rt)
	ctx := context.Background()
	if _, err := o.Create(ctx, "abc", "img", "/w"); err != nil {
		t.Fatalf("create: %v", err)
	}
	startsAfterCreate := rt.CallCount("start")

	out, err := o.Start(ctx, "abc")
	if err != nil || out.Changed {
		t.Fatalf("start running: out=%+v err=%v", out, err)
	}
	if !strings.Contains(out.Message, "already running") {
		t.Fatalf("msg=%q", out.Message)
	}
	if rt.CallCount("start") != startsAfterCreate {
		t.Fatalf("runtime start called for running container")
	}

	out, err = o.Stop(ctx, "abc")
	if err != nil || !out.Changed {
		t.Fatalf("stop: out=%+v err=%v", out, err)
	}
	out, err = o.Stop(ctx, "abc")
	if err != nil || out.Changed {
		t.Fatalf("second stop: out=%+v err=%v", out, err)
	}
	if rt.CallCount("stop") != 1 {
		t.Fatalf("stop calls=%d want=1", rt.CallCount("stop"))
	}
}

func TestOrchestrator_MissingContainer(t *testing.T) {
	o := newOrchestrator(containertest.New())
	ctx := context.Background()

	if rep := o.Status(ctx, "nope"); rep.Status != container.StatusNotFound {
		t.Fatalf("status=%s want not_found", rep.Status)
	}
	if _, err := o.Start(ctx, "nope"); !apperr.IsNotFound(err) {
		t.Fatalf("start err=%v want not found", err)
	}
	if err := o.Remove(ctx, "nope"); !apperr.IsNotFound(err) {
		t.Fatalf("remove err=%v want not found", err)
	}
}

func TestOrchestrator_StatusAndDescribe(t *testing.T) {
	rt := containertest.New()
	rt.LogText = "grid placed 10 orders\n"
	rt.Put("hummingbot_s1", container.StateRestarting)
	rt.Put("hummingbot_s2", container.StatePaused)
	o := newOrchestrator(rt)
	ctx := context.Background()

	if rep := o.Status(ctx, "s1"); rep.Status != container.StatusRunning {
		t.Fatalf("restarting -> %s", rep.Status)
	}
	rep := o.Describe(ctx, "s2")
	if rep.Status != container.StatusStopped || rep.State != container.StatePaused {
		t.Fatalf("rep=%+v", rep)
	}
	if rep.Logs != "grid placed 10 orders\n" {
		t.Fatalf("logs=%q", rep.Logs)
	}
	if len(rep.ContainerID) != 12 {
		t.Fatalf("container id=%q want short form", rep.ContainerID)
	}

	rt.FindErr = errors.New("Cannot connect to the Docker daemon")
	if rep := o.Status(ctx, "s1"); rep.Status != container.StatusError {
		t.Fatalf("status=%s want error", rep.Status)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]container.Status{
		"running":  container.StatusRunning,
		"exited":   container.StatusStopped,
		"created":  container.StatusStopped,
		"dead":     container.StatusStopped,
		"weird":    container.StatusError,
		"":         container.StatusError,
	}
	for in, want := range cases {
		if got := container.Normalize(in); got != want {
			t.Fatalf("Normalize(%q)=%s want=%s", in, got, want)
		}
	}
}

func TestOrchestrator_StopAttemptsUnknownState(t *testing.T) {
	rt := containertest.New()
	o := newOrchestrator(rt)
	rt.Put("hummingbot_e1", "zombie")

	out, err := o.Stop(context.Background(), "e1")
	if err != nil || !out.Changed {
		t.Fatalf("stop: out=%+v err=%v", out, err)
	}
	if got := rt.CallCount("stop"); got != 1 {
		t.Fatalf("stop calls got=%d want=1", got)
	}
	if info := rt.ByName("hummingbot_e1"); info.State != container.StateExited {
		t.Fatalf("state=%q want=%q", info.State, container.StateExited)
	}
}
