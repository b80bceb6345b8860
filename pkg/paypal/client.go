package paypal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/movakid/shop-backend/pkg/config"
)

const tokenExpirySkew = 30 * time.Second

var (
	errCredentialsRequired = errors.New("paypal client id and secret are required")
	errNoApproveLink       = errors.New("paypal order response has no approve link")
)

// Client talks to the PayPal Orders v2 REST API. Access tokens are
// cached until shortly before expiry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	webhookID  string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient validates credentials and builds a PayPal REST client.
func NewClient(cfg config.PayPalConfig) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.Secret) == "" {
		return nil, errCredentialsRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseAPIURL, "/"),
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
		webhookID:  cfg.WebhookID,
	}, nil
}

// OrderRequest describes the single purchase unit we create per checkout.
type OrderRequest struct {
	ReferenceID string
	AmountMinor int64
	Currency    string
	Description string
	ReturnURL   string
	CancelURL   string
}

// Order is the subset of the PayPal order resource the storefront uses.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links"`
}

// Link is a HATEOAS link from a PayPal response.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// ApproveURL returns the buyer-facing approval link.
func (o *Order) ApproveURL() (string, error) {
	for _, link := range o.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return link.Href, nil
		}
	}
	return "", errNoApproveLink
}

// CreateOrder creates a CAPTURE-intent order and returns the created resource.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	value := minorToDecimalString(req.AmountMinor)
	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"reference_id": req.ReferenceID,
				// custom_id is echoed back on capture webhooks
				"custom_id":    req.ReferenceID,
				"description":  req.Description,
				"amount": map[string]any{
					"currency_code": req.Currency,
					"value":         value,
				},
			},
		},
		"payment_source": map[string]any{
			"paypal": map[string]any{
				"experience_context": map[string]any{
					"return_url":   req.ReturnURL,
					"cancel_url":   req.CancelURL,
					"user_action":  "PAY_NOW",
					"brand_name":   "MovaKid",
					"landing_page": "LOGIN",
				},
			},
		},
	}

	var order Order
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", payload, &order); err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}
	return &order, nil
}

// CaptureOrder captures an approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, errors.New("order id is required")
	}
	var order Order
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := c.doJSON(ctx, http.MethodPost, path, struct{}{}, &order); err != nil {
		return nil, fmt.Errorf("capture paypal order: %w", err)
	}
	return &order, nil
}

// WebhookSignature carries the headers PayPal sends with each webhook delivery.
type WebhookSignature struct {
	AuthAlgo        string
	CertURL         string
	TransmissionID  string
	TransmissionSig string
	TransmissionTS  string
}

// VerifyWebhookSignature asks PayPal to confirm the delivery is authentic.
func (c *Client) VerifyWebhookSignature(ctx context.Context, sig WebhookSignature, rawEvent []byte) (bool, error) {
	if c.webhookID == "" {
		return false, errors.New("paypal webhook id is not configured")
	}
	payload := map[string]any{
		"auth_algo":         sig.AuthAlgo,
		"cert_url":          sig.CertURL,
		"transmission_id":   sig.TransmissionID,
		"transmission_sig":  sig.TransmissionSig,
		"transmission_time": sig.TransmissionTS,
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(rawEvent),
	}

	var result struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", payload, &result); err != nil {
		return false, fmt.Errorf("verify paypal webhook signature: %w", err)
	}
	return result.VerificationStatus == "SUCCESS", nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	token, err := c.accessTokenLocked(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("marshal request: %w", marshalErr)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("paypal %s %s: status %d: %s", method, path, resp.StatusCode, string(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) accessTokenLocked(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySkew)) {
		return c.accessToken, nil
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.secret))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token",
		bytes.NewBufferString("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("paypal token endpoint: status %d: %s", resp.StatusCode, string(snippet))
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if res.AccessToken == "" {
		return "", errors.New("paypal token response missing access_token")
	}

	c.accessToken = res.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(res.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func minorToDecimalString(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
