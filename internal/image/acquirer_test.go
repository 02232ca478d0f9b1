package image

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ohlcv/VuePy-Stack/internal/container/containertest"
)

func newTestAcquirer(rt *containertest.Runtime) *Acquirer {
	a := NewAcquirer(rt, Options{MaxAttempts: 3, InitialBackoff: time.Millisecond})
	a.probe = func(context.Context) error { return nil }
	return a
}

func TestEnsure_PresentSkipsNetwork(t *testing.T) {
	rt := containertest.New()
	rt.AddImage("hummingbot/hummingbot:latest")
	a := newTestAcquirer(rt)
	probed := false
	a.probe = func(context.Context) error { probed = true; return nil }

	res := a.Ensure(context.Background(), "", "", true)
	if !res.OK || res.Pulled {
		t.Fatalf("res=%+v", res)
	}
	if probed || rt.CallCount("pull") != 0 {
		t.Fatalf("network used for present image")
	}
}

func TestEnsure_MissingWithoutPullFlag(t *testing.T) {
	rt := containertest.New()
	res := newTestAcquirer(rt).Ensure(context.Background(), "hummingbot/hummingbot", "v2", false)
	if res.OK {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Message, "--pull-image") {
		t.Fatalf("msg=%q", res.Message)
	}
	if rt.CallCount("pull") != 0 {
		t.Fatalf("pull attempted without flag")
	}
}

func TestEnsure_ExhaustsRetriesOnTransientFailures(t *testing.T) {
	rt := containertest.New()
	rt.PullErrs = []error{
		errors.New("read tcp: connection reset by peer"),
		errors.New("net/http: request canceled (Client.Timeout exceeded)"),
		errors.New("An existing connection was forcibly closed by the remote host"),
	}
	res := newTestAcquirer(rt).Ensure(context.Background(), "", "latest", true)
	if res.OK {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Message, "maximum retries") {
		t.Fatalf("msg=%q", res.Message)
	}
	if res.Attempts != 3 || rt.CallCount("pull") != 3 {
		t.Fatalf("attempts=%d pulls=%d want=3", res.Attempts, rt.CallCount("pull"))
	}
}

func TestEnsure_SucceedsOnSecondAttempt(t *testing.T) {
	rt := containertest.New()
	rt.PullErrs = []error{errors.New("dial tcp: connection refused"), nil}
	res := newTestAcquirer(rt).Ensure(context.Background(), "", "latest", true)
	if !res.OK || !res.Pulled {
		t.Fatalf("res=%+v", res)
	}
	if res.Attempts != 2 {
		t.Fatalf("attempts=%d want=2", res.Attempts)
	}
}

func TestEnsure_NonRetryableFailsImmediately(t *testing.T) {
	rt := containertest.New()
	rt.PullErrs = []error{errors.New("manifest for hummingbot/hummingbot:nope not found")}
	res := newTestAcquirer(rt).Ensure(context.Background(), "", "nope", true)
	if res.OK || res.Attempts != 1 {
		t.Fatalf("res=%+v", res)
	}
	if strings.Contains(res.Message, "maximum retries") {
		t.Fatalf("non-retryable error reported as exhaustion: %q", res.Message)
	}
}

func TestEnsure_ProbeNetworkFailureConsumesAttempt(t *testing.T) {
	rt := containertest.New()
	a := newTestAcquirer(rt)
	calls := 0
	a.probe = func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("Get \"https://hub.docker.com\": context deadline exceeded (Client.Timeout exceeded while awaiting headers)")
		}
		return nil
	}
	res := a.Ensure(context.Background(), "", "", true)
	if !res.OK || res.Attempts != 2 {
		t.Fatalf("res=%+v", res)
	}
	if rt.CallCount("pull") != 1 {
		t.Fatalf("pulls=%d want=1 (first attempt skipped)", rt.CallCount("pull"))
	}
}

func TestHTTPProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewAcquirer(containertest.New(), Options{ProbeURL: srv.URL, ProbeTimeout: time.Second})
	if err := a.httpProbe(context.Background()); err != nil {
		t.Fatalf("error status should only warn: %v", err)
	}

	a = NewAcquirer(containertest.New(), Options{ProbeURL: "http://127.0.0.1:1", ProbeTimeout: time.Second})
	if err := a.httpProbe(context.Background()); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestRef(t *testing.T) {
	if got := Ref("", ""); got != "hummingbot/hummingbot:latest" {
		t.Fatalf("got=%q", got)
	}
	if got := Ref("hummingbot/hummingbot", "version-2.1.0"); got != "hummingbot/hummingbot:version-2.1.0" {
		t.Fatalf("got=%q", got)
	}
}

func TestPolicy_DefaultsDoubleFromTwoSeconds(t *testing.T) {
	a := NewAcquirer(containertest.New(), Options{})
	b := a.policy()
	for i, want := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second} {
		if got := b.NextBackOff(); got != want {
			t.Fatalf("interval %d got=%s want=%s", i, got, want)
		}
	}
	if a.opts.MaxAttempts != 3 {
		t.Fatalf("max attempts=%d want=3", a.opts.MaxAttempts)
	}
}
