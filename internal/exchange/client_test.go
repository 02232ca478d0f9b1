package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
	"github.com/ohlcv/VuePy-Stack/internal/cache"
)

const binanceInfo = `{"symbols":[
 {"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
 {"symbol":"ETHUSDT","status":"TRADING","baseAsset":"ETH","quoteAsset":"USDT"},
 {"symbol":"LUNAUSDT","status":"BREAK","baseAsset":"LUNA","quoteAsset":"USDT"}
]}`

func newBinanceServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/api/v3/exchangeInfo":
			_, _ = w.Write([]byte(binanceInfo))
		case "/api/v3/account":
			if r.Header.Get("X-MBX-APIKEY") != "good" || r.URL.Query().Get("signature") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"code":-2015,"msg":"Invalid API-key"}`))
				return
			}
			_, _ = w.Write([]byte(`{"balances":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LoadMarketsFiltersAndCaches(t *testing.T) {
	var hits int32
	srv := newBinanceServer(t, &hits)
	c := NewClient(Options{
		Timeout:    time.Second,
		CatalogTTL: time.Minute,
		BaseURLs:   map[string]string{"binance": srv.URL},
		Cache:      cache.NewMemoryStore(),
	})

	got, err := c.LoadMarkets(context.Background(), "binance", false)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if strings.Join(got, ",") != "BTC/USDT,ETH/USDT" {
		t.Fatalf("got=%v", got)
	}
	if _, err := c.LoadMarkets(context.Background(), "binance", false); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("hits=%d want=1 (second call cached)", n)
	}
}

func TestClient_UnknownExchange(t *testing.T) {
	c := NewClient(Options{})
	_, err := c.LoadMarkets(context.Background(), "nowhere", false)
	if !apperr.IsValidation(err) {
		t.Fatalf("err=%v want validation", err)
	}
}

func TestClient_TestnetUnavailable(t *testing.T) {
	c := NewClient(Options{})
	if _, err := c.LoadMarkets(context.Background(), "kraken", true); !apperr.IsValidation(err) {
		t.Fatalf("err=%v want validation", err)
	}
}

func TestClient_EnvelopeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("instType") != "SPOT" {
			t.Errorf("instType=%q", r.URL.Query().Get("instType"))
		}
		_, _ = w.Write([]byte(`{"code":"50011","msg":"rate limited","data":[]}`))
	}))
	defer srv.Close()
	c := NewClient(Options{BaseURLs: map[string]string{"okx": srv.URL}})
	if _, err := c.LoadMarkets(context.Background(), "okx", false); err == nil {
		t.Fatalf("expected envelope error")
	}
}

func TestExtractors(t *testing.T) {
	kraken := `{"error":[],"result":{"XXBTZUSD":{"wsname":"XBT/USD"},"XETHZEUR":{"wsname":"ETH/EUR"}}}`
	got, err := registry["kraken"].extract([]byte(kraken))
	if err != nil {
		t.Fatalf("kraken: %v", err)
	}
	if strings.Join(normalize(got), ",") != "ETH/EUR,XBT/USD" {
		t.Fatalf("kraken got=%v", got)
	}

	gate := `[{"id":"BTC_USDT","base":"BTC","quote":"USDT","trade_status":"tradable"},{"id":"X_Y","base":"X","quote":"Y","trade_status":"untradable"}]`
	got, err = registry["gateio"].extract([]byte(gate))
	if err != nil || len(got) != 1 || got[0] != "BTC/USDT" {
		t.Fatalf("gate got=%v err=%v", got, err)
	}

	if _, err := registry["bybit"].extract([]byte(`{"result":{}}`)); err == nil {
		t.Fatalf("expected shape error")
	}
}

func TestExchanges_SortedAndComplete(t *testing.T) {
	list := Exchanges()
	if len(list) != 10 {
		t.Fatalf("len=%d want=10", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Fatalf("not sorted at %d: %s >= %s", i, list[i-1].ID, list[i].ID)
		}
	}
}
