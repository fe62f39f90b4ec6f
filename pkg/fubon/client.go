// Package fubon is a REST client for the Fubon Neo market-data API.
// It mirrors the SDK surface this system consumes: certificate login,
// intraday ticker/candles, historical candles, and snapshot rankings.
package fubon

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultRoot     = "https://api.fbs.com.tw/marketdata/v1.0/stock"
	defaultRealtime = "wss://api.fbs.com.tw/marketdata/v1.0/stock/streaming"
	defaultTimeout  = 7 * time.Second
)

var routes = map[string]string{
	"auth.login": "/auth/login",

	"intraday.ticker":  "/intraday/ticker/",
	"intraday.candles": "/intraday/candles/",

	"historical.candles": "/historical/candles/",

	"snapshot.actives": "/snapshot/actives/",
	"snapshot.movers":  "/snapshot/movers/",
}

// Config configures the REST client.
type Config struct {
	ID       string
	Password string
	CertPath string
	CertPass string

	RootURL     string        // default: production market-data root
	RealtimeURL string        // default: production streaming endpoint
	Timeout     time.Duration // default: 7s
	Debug       bool
}

// Client is the REST client. Create with NewClient, then Login before any
// market-data call.
type Client struct {
	id       string
	password string
	certPath string
	certPass string

	rootURL     string
	realtimeURL string
	debug       bool

	httpClient *http.Client
	token      string
}

// NewClient initializes the client with defaults filled in.
func NewClient(cfg Config) *Client {
	if cfg.RootURL == "" {
		cfg.RootURL = defaultRoot
	}
	if cfg.RealtimeURL == "" {
		cfg.RealtimeURL = defaultRealtime
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		id:          cfg.ID,
		password:    cfg.Password,
		certPath:    cfg.CertPath,
		certPass:    cfg.CertPass,
		rootURL:     strings.TrimRight(cfg.RootURL, "/"),
		realtimeURL: cfg.RealtimeURL,
		debug:       cfg.Debug,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Login authenticates with id/password and the personal certificate,
// storing the session token used by subsequent market-data calls.
func (c *Client) Login(ctx context.Context) error {
	fingerprint, err := certFingerprint(c.certPath)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	body, _ := json.Marshal(map[string]string{
		"id":       c.id,
		"password": c.password,
		"cert":     fingerprint,
		"certPass": c.certPass,
	})
	raw, code, err := c.doRequest(ctx, http.MethodPost, "auth.login", "", nil, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("login: parse response: %w", err)
	}
	if !resp.Status || resp.Data.Token == "" {
		return &StatusError{Code: code, Message: resp.Message}
	}
	c.token = resp.Data.Token
	log.Printf("[fubon] session established for %s", c.id)
	return nil
}

// Token returns the session token, empty before Login.
func (c *Client) Token() string { return c.token }

// certFingerprint hashes the certificate file; the raw certificate never
// leaves the machine.
func certFingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read certificate %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (c *Client) buildURL(route, suffix string) (string, error) {
	uri, ok := routes[route]
	if !ok {
		return "", fmt.Errorf("unknown route: %s", route)
	}
	return c.rootURL + uri + suffix, nil
}

// doRequest performs one HTTP call and returns the raw body. Non-2xx
// responses come back as *StatusError, with 429 preserved for throttling
// detection.
func (c *Client) doRequest(ctx context.Context, method, route, suffix string, query url.Values, body io.Reader) ([]byte, int, error) {
	reqURL, err := c.buildURL(route, suffix)
	if err != nil {
		return nil, 0, err
	}
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.debug {
		log.Printf("[fubon] %s %s", method, reqURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if c.debug {
		log.Printf("[fubon] response code=%d bytes=%d", resp.StatusCode, len(raw))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return raw, resp.StatusCode, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	return raw, resp.StatusCode, nil
}
