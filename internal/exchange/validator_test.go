package exchange

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestValidator_UnknownExchangeNoNetwork(t *testing.T) {
	v := NewValidator(NewClient(Options{Timeout: time.Millisecond}), nil)
	ok, msg := v.Validate(context.Background(), "mtgox", nil)
	if ok {
		t.Fatalf("expected failure")
	}
	if msg != "unsupported exchange: mtgox" {
		t.Fatalf("msg=%q", msg)
	}
}

func TestValidator_BypassesCache(t *testing.T) {
	var hits int32
	srv := newBinanceServer(t, &hits)
	c := NewClient(Options{BaseURLs: map[string]string{"binance": srv.URL}, CatalogTTL: time.Hour})
	v := NewValidator(c, nil)

	for i := 0; i < 2; i++ {
		ok, msg := v.Validate(context.Background(), "binance", nil)
		if !ok {
			t.Fatalf("msg=%q", msg)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("hits=%d want=2", n)
	}
}

func TestValidator_Credentials(t *testing.T) {
	var hits int32
	srv := newBinanceServer(t, &hits)
	v := NewValidator(NewClient(Options{BaseURLs: map[string]string{"binance": srv.URL}}), nil)

	ok, msg := v.Validate(context.Background(), "binance", &Credentials{APIKey: "good", Secret: "s"})
	if !ok || !strings.Contains(msg, "credentials verified") {
		t.Fatalf("ok=%v msg=%q", ok, msg)
	}
	ok, msg = v.Validate(context.Background(), "binance", &Credentials{APIKey: "bad", Secret: "s"})
	if ok || !strings.Contains(msg, "credentials rejected") {
		t.Fatalf("ok=%v msg=%q", ok, msg)
	}
}

func TestValidator_NetworkFailureIsMessage(t *testing.T) {
	v := NewValidator(NewClient(Options{
		Timeout:  200 * time.Millisecond,
		BaseURLs: map[string]string{"gateio": "http://127.0.0.1:1"},
	}), nil)
	ok, msg := v.Validate(context.Background(), "gateio", &Credentials{APIKey: "k"})
	if ok {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(msg, "exchange connection check failed") {
		t.Fatalf("msg=%q", msg)
	}
}
