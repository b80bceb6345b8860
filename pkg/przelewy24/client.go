package przelewy24

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/movakid/shop-backend/pkg/config"
)

var errCredentialsRequired = errors.New("przelewy24 merchant id, pos id, crc key and api key are required")

// ErrVerificationRejected reports that P24 answered the verify call but
// refused to settle the transaction. Any other VerifyTransaction error
// is a transport failure and says nothing about the payment itself.
var ErrVerificationRejected = errors.New("p24 rejected transaction verification")

// Client talks to the Przelewy24 REST API. Request and notification
// signatures use SHA-384 over a canonical JSON document, per the P24 docs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	merchantID int
	posID      int
	crcKey     string
	apiKey     string
}

// NewClient validates credentials and builds a Przelewy24 client.
func NewClient(cfg config.Przelewy24Config) (*Client, error) {
	if cfg.MerchantID == 0 || cfg.PosID == 0 || cfg.CRCKey == "" || cfg.APIKey == "" {
		return nil, errCredentialsRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		merchantID: cfg.MerchantID,
		posID:      cfg.PosID,
		crcKey:     cfg.CRCKey,
		apiKey:     cfg.APIKey,
	}, nil
}

// TransactionRequest describes a payment to register with P24.
type TransactionRequest struct {
	SessionID   string
	AmountMinor int64
	Currency    string
	Description string
	Email       string
	Country     string
	Language    string
	URLReturn   string
	URLStatus   string
}

// RegisterTransaction registers the payment and returns the buyer redirect URL.
func (c *Client) RegisterTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	if req.SessionID == "" {
		return "", errors.New("session id is required")
	}

	sign := c.signDocument(map[string]any{
		"sessionId":  req.SessionID,
		"merchantId": c.merchantID,
		"amount":     req.AmountMinor,
		"currency":   req.Currency,
		"crc":        c.crcKey,
	})

	payload := map[string]any{
		"merchantId":  c.merchantID,
		"posId":       c.posID,
		"sessionId":   req.SessionID,
		"amount":      req.AmountMinor,
		"currency":    req.Currency,
		"description": req.Description,
		"email":       req.Email,
		"country":     req.Country,
		"language":    req.Language,
		"urlReturn":   req.URLReturn,
		"urlStatus":   req.URLStatus,
		"sign":        sign,
	}

	var response struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/transaction/register", payload, &response); err != nil {
		return "", fmt.Errorf("register p24 transaction: %w", err)
	}
	if response.Data.Token == "" {
		return "", errors.New("p24 register response missing token")
	}
	return fmt.Sprintf("%s/trnRequest/%s", c.baseURL, response.Data.Token), nil
}

// Notification is the payment status callback P24 posts to urlStatus.
type Notification struct {
	MerchantID   int    `json:"merchantId"`
	PosID        int    `json:"posId"`
	SessionID    string `json:"sessionId"`
	Amount       int64  `json:"amount"`
	OriginAmount int64  `json:"originAmount"`
	Currency     string `json:"currency"`
	OrderID      int64  `json:"orderId"`
	MethodID     int    `json:"methodId"`
	Statement    string `json:"statement"`
	Sign         string `json:"sign"`
}

// VerifyNotificationSign recomputes the notification signature and
// compares it in constant time.
func (c *Client) VerifyNotificationSign(n Notification) bool {
	expected := c.signDocument(map[string]any{
		"merchantId":   n.MerchantID,
		"posId":        n.PosID,
		"sessionId":    n.SessionID,
		"amount":       n.Amount,
		"originAmount": n.OriginAmount,
		"currency":     n.Currency,
		"orderId":      n.OrderID,
		"methodId":     n.MethodID,
		"statement":    n.Statement,
		"crc":          c.crcKey,
	})
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.Sign)) == 1
}

// VerifyTransaction confirms the payment back to P24. Funds are not
// settled until this call succeeds.
func (c *Client) VerifyTransaction(ctx context.Context, n Notification) error {
	sign := c.signDocument(map[string]any{
		"sessionId": n.SessionID,
		"orderId":   n.OrderID,
		"amount":    n.Amount,
		"currency":  n.Currency,
		"crc":       c.crcKey,
	})

	payload := map[string]any{
		"merchantId": c.merchantID,
		"posId":      c.posID,
		"sessionId":  n.SessionID,
		"amount":     n.Amount,
		"currency":   n.Currency,
		"orderId":    n.OrderID,
		"sign":       sign,
	}

	var response struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/transaction/verify", payload, &response); err != nil {
		return fmt.Errorf("verify p24 transaction: %w", err)
	}
	if response.Data.Status != "success" {
		return fmt.Errorf("%w: status %q", ErrVerificationRejected, response.Data.Status)
	}
	return nil
}

// signDocument produces the hex-encoded SHA-384 of the canonical JSON
// document. Key order matters to P24, so fields are marshalled through
// an ordered builder rather than a map.
func (c *Client) signDocument(fields map[string]any) string {
	order := []string{"sessionId", "merchantId", "posId", "amount", "originAmount", "currency", "orderId", "methodId", "statement", "crc"}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range order {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		keyJSON, _ := json.Marshal(key)
		valueJSON, _ := json.Marshal(value)
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valueJSON)
	}
	buf.WriteByte('}')

	sum := sha512.Sum384(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(fmt.Sprint(c.posID), c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("p24 %s %s: status %d: %s", method, path, resp.StatusCode, string(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
