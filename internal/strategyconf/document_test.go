package strategyconf

import (
	"testing"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
)

func validBag() map[string]any {
	return map[string]any{
		"exchange":      "binance",
		"pair":          "BTC-USDT",
		"upperPrice":    200.0,
		"lowerPrice":    100.0,
		"gridCount":     10.0,
		"amountPerGrid": 5.0,
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	cases := []struct {
		name  string
		patch map[string]any
		want  string
	}{
		{"missing exchange", map[string]any{"exchange": nil, "pair": nil}, "missing required parameter: exchange"},
		{"missing pair", map[string]any{"pair": ""}, "missing required parameter: trading pair"},
		{"missing upper", map[string]any{"upperPrice": nil}, "missing required parameter: upper price"},
		{"missing lower", map[string]any{"lowerPrice": ""}, "missing required parameter: lower price"},
		{"non numeric price", map[string]any{"upperPrice": "abc"}, "price must be numeric"},
		{"bool price", map[string]any{"lowerPrice": true}, "price must be numeric"},
		{"upper below lower", map[string]any{"upperPrice": 100.0, "lowerPrice": 150.0}, "upper price must exceed lower price"},
		{"upper equals lower", map[string]any{"upperPrice": "150", "lowerPrice": 150.0}, "upper price must exceed lower price"},
		{"negative lower", map[string]any{"upperPrice": 10.0, "lowerPrice": -1.0}, "prices must be greater than 0"},
		{"fractional grid count", map[string]any{"gridCount": 2.5}, "grid count must be an integer"},
		{"text grid count", map[string]any{"gridCount": "many"}, "grid count must be an integer"},
		{"grid count one", map[string]any{"gridCount": 1.0}, "grid count must be greater than 1"},
		{"grid count beyond int", map[string]any{"gridCount": 1e19}, "grid count must not exceed 2147483647"},
		{"infinite upper", map[string]any{"upperPrice": "1e400"}, "price must be numeric"},
		{"infinite lower", map[string]any{"upperPrice": "1e500", "lowerPrice": "1e400"}, "price must be numeric"},
		{"infinite amount", map[string]any{"amountPerGrid": "1e400"}, "amount per grid must be numeric"},
		{"text amount", map[string]any{"amountPerGrid": "lots"}, "amount per grid must be numeric"},
		{"zero amount", map[string]any{"amountPerGrid": 0.0}, "amount per grid must be greater than 0"},
		{"bad pair", map[string]any{"pair": "BTCUSDT"}, "trading pair must be in BASE-QUOTE form, e.g. BTC-USDT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bag := validBag()
			for k, v := range tc.patch {
				bag[k] = v
			}
			_, err := Validate(ParamsFromMap(bag))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !apperr.IsValidation(err) {
				t.Fatalf("kind=%s want=validation", apperr.KindOf(err))
			}
			if err.Error() != tc.want {
				t.Fatalf("got=%q want=%q", err.Error(), tc.want)
			}
		})
	}
}

func TestValidate_SucceedsWithDefaultsAndPassThrough(t *testing.T) {
	doc, err := Validate(ParamsFromMap(map[string]any{
		"exchange":   "Binance",
		"pair":       "eth/usdt",
		"upperPrice": "4000",
		"lowerPrice": 3000,
		"leverage":   3.0,
	}))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if doc.Exchange != "binance" || doc.TradingPair != "ETH-USDT" {
		t.Fatalf("exchange=%q pair=%q", doc.Exchange, doc.TradingPair)
	}
	if doc.GridType != GridTypeArithmetic || doc.GridCount != DefaultGridCount || doc.AmountPerGrid != DefaultAmountPerGrid {
		t.Fatalf("defaults not applied: %+v", doc)
	}
	if doc.Name != "grid_binance_ETH-USDT" {
		t.Fatalf("name=%q", doc.Name)
	}
	if doc.UpperPrice != 4000 || doc.LowerPrice != 3000 {
		t.Fatalf("prices=%v/%v", doc.UpperPrice, doc.LowerPrice)
	}
	m := doc.Map()
	if m["leverage"] != 3.0 {
		t.Fatalf("leverage not passed through: %v", m)
	}
	if _, ok := m["upperPrice"]; ok {
		t.Fatalf("alias key leaked into document")
	}
}

func TestValidate_AcceptsSnakeCaseAliases(t *testing.T) {
	doc, err := Validate(ParamsFromMap(map[string]any{
		"exchange":        "okx",
		"trading_pair":    "SOL-USDT",
		"upper_price":     200.0,
		"lower_price":     100.0,
		"grid_count":      "12",
		"amount_per_grid": "2.5",
	}))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if doc.GridCount != 12 || doc.AmountPerGrid != 2.5 {
		t.Fatalf("doc=%+v", doc)
	}
}
