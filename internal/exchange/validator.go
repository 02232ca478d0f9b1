package exchange

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
)

// Validator checks that an exchange is reachable and, where possible, that
// credentials authenticate. It never returns an error; every failure is a
// message.
type Validator struct {
	client *Client
	log    *zap.Logger
}

func NewValidator(client *Client, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{client: client, log: log}
}

func (v *Validator) Validate(ctx context.Context, id string, creds *Credentials) (bool, string) {
	if !Supported(id) {
		return false, "unsupported exchange: " + id
	}
	if v.client == nil {
		return false, "exchange client not configured"
	}

	markets, err := v.client.FetchMarkets(ctx, id, false)
	if err != nil {
		v.log.Warn("exchange connection check failed", zap.String("exchange", id), zap.Error(err))
		return false, fmt.Sprintf("exchange connection check failed: %v", err)
	}
	v.log.Info("exchange reachable", zap.String("exchange", id), zap.Int("markets", len(markets)))

	if creds.Empty() {
		return true, fmt.Sprintf("connected to %s (%d markets)", id, len(markets))
	}
	if !CanVerify(id) {
		return true, fmt.Sprintf("connected to %s (%d markets); credentials not verified", id, len(markets))
	}
	if err := v.client.VerifyAccount(ctx, id, false, *creds); err != nil {
		v.log.Warn("exchange credential check failed", zap.String("exchange", id), zap.Error(err))
		if apperr.IsValidation(err) {
			return false, fmt.Sprintf("credentials rejected by %s", id)
		}
		return false, fmt.Sprintf("credential check failed: %v", err)
	}
	return true, fmt.Sprintf("connected to %s, credentials verified", id)
}
