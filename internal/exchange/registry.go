package exchange

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Descriptor says where an exchange publishes its spot catalog and how to
// read symbols out of it.
type Descriptor struct {
	ID         string
	Name       string
	BaseURL    string
	TestnetURL string
	Path       string
	Query      map[string]string

	// CodePath/CodeOK check an envelope status code when the venue wraps
	// errors in a 200 response.
	CodePath string
	CodeOK   string

	// AccountPath is a signed endpoint used to verify credentials. Empty
	// means credentials cannot be checked for this venue.
	AccountPath string

	extract func(body []byte) ([]string, error)
}

// Info is the public view returned to callers.
type Info struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Testnet bool   `json:"testnet"`
}

var registry = map[string]Descriptor{
	"binance": {
		ID: "binance", Name: "Binance",
		BaseURL: "https://api.binance.com", TestnetURL: "https://testnet.binance.vision",
		Path:        "/api/v3/exchangeInfo",
		AccountPath: "/api/v3/account",
		extract:     listExtractor("symbols", "baseAsset", "quoteAsset", "status", "TRADING"),
	},
	"binanceus": {
		ID: "binanceus", Name: "Binance US",
		BaseURL:     "https://api.binance.us",
		Path:        "/api/v3/exchangeInfo",
		AccountPath: "/api/v3/account",
		extract:     listExtractor("symbols", "baseAsset", "quoteAsset", "status", "TRADING"),
	},
	"bitget": {
		ID: "bitget", Name: "Bitget",
		BaseURL:  "https://api.bitget.com",
		Path:     "/api/v2/spot/public/symbols",
		CodePath: "code", CodeOK: "00000",
		extract: listExtractor("data", "baseCoin", "quoteCoin", "status", "online"),
	},
	"bybit": {
		ID: "bybit", Name: "Bybit",
		BaseURL: "https://api.bybit.com", TestnetURL: "https://api-testnet.bybit.com",
		Path:     "/v5/market/instruments-info",
		Query:    map[string]string{"category": "spot"},
		CodePath: "retCode", CodeOK: "0",
		extract: listExtractor("result.list", "baseCoin", "quoteCoin", "status", "Trading"),
	},
	"coinbase": {
		ID: "coinbase", Name: "Coinbase Exchange",
		BaseURL: "https://api.exchange.coinbase.com", TestnetURL: "https://api-public.sandbox.exchange.coinbase.com",
		Path:    "/products",
		extract: listExtractor("", "base_currency", "quote_currency", "status", "online"),
	},
	"gateio": {
		ID: "gateio", Name: "Gate.io",
		BaseURL: "https://api.gateio.ws",
		Path:    "/api/v4/spot/currency_pairs",
		extract: listExtractor("", "base", "quote", "trade_status", "tradable"),
	},
	"kraken": {
		ID: "kraken", Name: "Kraken",
		BaseURL: "https://api.kraken.com",
		Path:    "/0/public/AssetPairs",
		extract: krakenExtractor,
	},
	"kucoin": {
		ID: "kucoin", Name: "KuCoin",
		BaseURL:  "https://api.kucoin.com",
		Path:     "/api/v2/symbols",
		CodePath: "code", CodeOK: "200000",
		extract: listExtractor("data", "baseCurrency", "quoteCurrency", "enableTrading", "true"),
	},
	"mexc": {
		ID: "mexc", Name: "MEXC",
		BaseURL: "https://api.mexc.com",
		Path:    "/api/v3/exchangeInfo",
		extract: listExtractor("symbols", "baseAsset", "quoteAsset", "", ""),
	},
	"okx": {
		ID: "okx", Name: "OKX",
		BaseURL:  "https://www.okx.com",
		Path:     "/api/v5/public/instruments",
		Query:    map[string]string{"instType": "SPOT"},
		CodePath: "code", CodeOK: "0",
		extract: listExtractor("data", "baseCcy", "quoteCcy", "state", "live"),
	},
}

func lookup(id string) (Descriptor, bool) {
	d, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	return d, ok
}

// Exchanges lists supported venues sorted by id.
func Exchanges() []Info {
	out := make([]Info, 0, len(registry))
	for _, d := range registry {
		out = append(out, Info{ID: d.ID, Name: d.Name, Testnet: d.TestnetURL != ""})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func Supported(id string) bool {
	_, ok := lookup(id)
	return ok
}

func listExtractor(arrayPath, baseKey, quoteKey, statusKey, statusOK string) func([]byte) ([]string, error) {
	return func(body []byte) ([]string, error) {
		list := gjson.ParseBytes(body)
		if arrayPath != "" {
			list = list.Get(arrayPath)
		}
		if !list.IsArray() {
			return nil, fmt.Errorf("unexpected catalog shape at %q", arrayPath)
		}
		var out []string
		list.ForEach(func(_, v gjson.Result) bool {
			if statusKey != "" && v.Get(statusKey).String() != statusOK {
				return true
			}
			if sym := symbol(v.Get(baseKey).String(), v.Get(quoteKey).String()); sym != "" {
				out = append(out, sym)
			}
			return true
		})
		return out, nil
	}
}

func krakenExtractor(body []byte) ([]string, error) {
	res := gjson.GetBytes(body, "result")
	if !res.IsObject() {
		if errs := gjson.GetBytes(body, "error"); errs.IsArray() && len(errs.Array()) > 0 {
			return nil, fmt.Errorf("kraken: %s", errs.Array()[0].String())
		}
		return nil, fmt.Errorf("unexpected catalog shape at %q", "result")
	}
	var out []string
	res.ForEach(func(_, v gjson.Result) bool {
		base, quote, ok := strings.Cut(v.Get("wsname").String(), "/")
		if ok {
			if sym := symbol(base, quote); sym != "" {
				out = append(out, sym)
			}
		}
		return true
	})
	return out, nil
}

func symbol(base, quote string) string {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if base == "" || quote == "" {
		return ""
	}
	return base + "/" + quote
}

func normalize(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
