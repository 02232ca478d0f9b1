package strategyconf

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
)

// Document is the grid configuration rendered into the workload's mount.
type Document struct {
	Exchange      string  `yaml:"exchange" json:"exchange"`
	TradingPair   string  `yaml:"trading_pair" json:"trading_pair"`
	GridType      string  `yaml:"grid_type" json:"grid_type"`
	UpperPrice    float64 `yaml:"upper_price" json:"upper_price"`
	LowerPrice    float64 `yaml:"lower_price" json:"lower_price"`
	GridCount     int     `yaml:"grid_count" json:"grid_count"`
	AmountPerGrid float64 `yaml:"amount_per_grid" json:"amount_per_grid"`
	Name          string  `yaml:"name" json:"name"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

// Map flattens the document, pass-through keys included.
func (d Document) Map() map[string]any {
	out := make(map[string]any, 8+len(d.Extra))
	for k, v := range d.Extra {
		out[k] = v
	}
	out["exchange"] = d.Exchange
	out["trading_pair"] = d.TradingPair
	out["grid_type"] = d.GridType
	out["upper_price"] = d.UpperPrice
	out["lower_price"] = d.LowerPrice
	out["grid_count"] = d.GridCount
	out["amount_per_grid"] = d.AmountPerGrid
	out["name"] = d.Name
	return out
}

func (d Document) JSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// Validate checks p in a fixed order and returns the first failure.
func Validate(p Params) (Document, error) {
	if p.Exchange == "" {
		return Document{}, apperr.Validation("missing required parameter: exchange")
	}
	if p.Pair == "" {
		return Document{}, apperr.Validation("missing required parameter: trading pair")
	}
	if !p.UpperPrice.IsSet() {
		return Document{}, apperr.Validation("missing required parameter: upper price")
	}
	if !p.LowerPrice.IsSet() {
		return Document{}, apperr.Validation("missing required parameter: lower price")
	}
	upper, err := p.UpperPrice.Decimal()
	if err != nil || !finite(upper) {
		return Document{}, apperr.Validation("price must be numeric")
	}
	lower, err := p.LowerPrice.Decimal()
	if err != nil || !finite(lower) {
		return Document{}, apperr.Validation("price must be numeric")
	}
	if upper.LessThanOrEqual(lower) {
		return Document{}, apperr.Validation("upper price must exceed lower price")
	}
	if !upper.IsPositive() || !lower.IsPositive() {
		return Document{}, apperr.Validation("prices must be greater than 0")
	}

	gridCount := decimal.NewFromInt(DefaultGridCount)
	if p.GridCount.IsSet() {
		gridCount, err = p.GridCount.Decimal()
		if err != nil || !gridCount.IsInteger() {
			return Document{}, apperr.Validation("grid count must be an integer")
		}
	}
	if gridCount.LessThanOrEqual(decimal.NewFromInt(1)) {
		return Document{}, apperr.Validation("grid count must be greater than 1")
	}
	if gridCount.GreaterThan(maxGridCount) {
		return Document{}, apperr.Validation(fmt.Sprintf("grid count must not exceed %s", maxGridCount))
	}

	amount := decimal.NewFromInt(DefaultAmountPerGrid)
	if p.AmountPerGrid.IsSet() {
		amount, err = p.AmountPerGrid.Decimal()
		if err != nil || !finite(amount) {
			return Document{}, apperr.Validation("amount per grid must be numeric")
		}
	}
	if !amount.IsPositive() {
		return Document{}, apperr.Validation("amount per grid must be greater than 0")
	}

	pair, ok := normalizePair(p.Pair)
	if !ok {
		return Document{}, apperr.Validation("trading pair must be in BASE-QUOTE form, e.g. BTC-USDT")
	}

	gridType := strings.ToLower(p.GridType)
	if gridType == "" {
		gridType = GridTypeArithmetic
	}
	name := p.Name
	if name == "" {
		name = "grid_" + p.Exchange + "_" + pair
	}

	doc := Document{
		Exchange:      p.Exchange,
		TradingPair:   pair,
		GridType:      gridType,
		UpperPrice:    upper.InexactFloat64(),
		LowerPrice:    lower.InexactFloat64(),
		GridCount:     int(gridCount.IntPart()),
		AmountPerGrid: amount.InexactFloat64(),
		Name:          name,
	}
	if len(p.Extra) > 0 {
		doc.Extra = make(map[string]any, len(p.Extra))
		for k, v := range p.Extra {
			doc.Extra[k] = v
		}
	}
	return doc, nil
}

var maxGridCount = decimal.NewFromInt(math.MaxInt32)

// finite reports whether d survives conversion to float64.
func finite(d decimal.Decimal) bool {
	f := d.InexactFloat64()
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// normalizePair accepts BASE-QUOTE and the BASE/QUOTE symbols returned by
// market catalogs.
func normalizePair(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "/", "-")
	base, quote, ok := strings.Cut(s, "-")
	if !ok || base == "" || quote == "" || strings.Contains(quote, "-") {
		return "", false
	}
	return s, true
}
