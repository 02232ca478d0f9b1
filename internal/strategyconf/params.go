package strategyconf

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	GridTypeArithmetic = "arithmetic"
	GridTypeGeometric  = "geometric"

	DefaultGridCount     = 10
	DefaultAmountPerGrid = 10
)

// Number keeps the caller's raw value so validation can tell "absent" from
// "present but not numeric".
type Number struct {
	raw any
}

func NumberOf(v any) Number {
	return Number{raw: v}
}

func (n Number) Raw() any {
	return n.raw
}

func (n Number) IsSet() bool {
	switch v := n.raw.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}

func (n Number) Decimal() (decimal.Decimal, error) {
	switch v := n.raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("not numeric: %T", n.raw)
	}
}

// Params is the typed form of a create request.
type Params struct {
	Name          string
	Exchange      string
	Pair          string
	GridType      string
	UpperPrice    Number
	LowerPrice    Number
	GridCount     Number
	AmountPerGrid Number

	// Extra holds caller keys that are not recognised above. They are copied
	// into the config document unchanged.
	Extra map[string]any
}

var aliases = map[string][]string{
	"name":            {"name"},
	"exchange":        {"exchange", "connector"},
	"pair":            {"pair", "trading_pair", "tradingPair", "market"},
	"grid_type":       {"gridType", "grid_type"},
	"upper_price":     {"upperPrice", "upper_price"},
	"lower_price":     {"lowerPrice", "lower_price"},
	"grid_count":      {"gridCount", "grid_count"},
	"amount_per_grid": {"amountPerGrid", "amount_per_grid"},
}

func ParamsFromMap(in map[string]any) Params {
	known := map[string]bool{}
	pick := func(field string) any {
		for _, k := range aliases[field] {
			known[k] = true
		}
		for _, k := range aliases[field] {
			if v, ok := in[k]; ok && v != nil {
				return v
			}
		}
		return nil
	}

	p := Params{
		Name:          stringOf(pick("name")),
		Exchange:      strings.ToLower(stringOf(pick("exchange"))),
		Pair:          stringOf(pick("pair")),
		GridType:      stringOf(pick("grid_type")),
		UpperPrice:    NumberOf(pick("upper_price")),
		LowerPrice:    NumberOf(pick("lower_price")),
		GridCount:     NumberOf(pick("grid_count")),
		AmountPerGrid: NumberOf(pick("amount_per_grid")),
	}

	for k, v := range in {
		if known[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = map[string]any{}
		}
		p.Extra[k] = v
	}
	return p
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}
