package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// Credentials are exchange API keys supplied for a connectivity check.
type Credentials struct {
	APIKey string
	Secret string
}

func (c *Credentials) Empty() bool {
	return c == nil || (c.APIKey == "" && c.Secret == "")
}

// CanVerify reports whether a signed account probe exists for id.
func CanVerify(id string) bool {
	d, ok := lookup(id)
	return ok && d.AccountPath != ""
}

// VerifyAccount calls the venue's signed account endpoint. Only the Binance
// style HMAC-SHA256 query signature is implemented.
func (c *Client) VerifyAccount(ctx context.Context, id string, testnet bool, creds Credentials) error {
	d, ok := lookup(id)
	if !ok || d.AccountPath == "" {
		return nil
	}
	host, err := c.host(d, testnet)
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	q.Set("recvWindow", "5000")
	payload := q.Encode()
	target := host + d.AccountPath + "?" + payload + "&signature=" + sign(payload, creds.Secret)

	_, err = c.get(ctx, d, target, nil, map[string]string{"X-MBX-APIKEY": creds.APIKey})
	return err
}

func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
