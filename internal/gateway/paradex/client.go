package paradex

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"main/internal/gateway"
	"main/internal/ops"
	"main/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/ws"
)

const (
	_paradexBaseUrl    = "https://api.prod.paradex.trade/v1"
	_paradexBaseUrlDev = "https://api.testnet.paradex.trade/v1"

	_paradexBaseWsUrl    = "wss://ws.api.prod.paradex.trade/v1"
	_paradexBaseWsUrlDev = "wss://ws.api.testnet.paradex.trade/v1"

	_requestTimeout = 15 * time.Second
)

// Config selects the venue endpoints.
type Config struct {
	RestURL string `json:"rest_url"`
	WsURL   string `json:"ws_url"`
	DevMode bool   `json:"dev_mode"`
}

type session struct {
	account string
	token   string
}

// Client talks to the Paradex REST and websocket APIs and exposes them
// through the gateway.Venue boundary. One client carries the sessions of
// every configured wallet.
type Client struct {
	cfg    Config
	client *http.Client
	wss    *ws.WebSocket

	mu       sync.RWMutex
	sessions map[string]session // wallet name -> authenticated session
	wallets  map[string]string  // account address -> wallet name
}

// New creates a client. URLs missing from cfg fall back to the production
// endpoints, or the testnet ones in dev mode.
func New(ctx context.Context, cfg Config) *Client {
	if cfg.RestURL == "" {
		cfg.RestURL = _paradexBaseUrl
		if cfg.DevMode {
			cfg.RestURL = _paradexBaseUrlDev
		}
	}
	if cfg.WsURL == "" {
		cfg.WsURL = _paradexBaseWsUrl
		if cfg.DevMode {
			cfg.WsURL = _paradexBaseWsUrlDev
		}
	}

	return &Client{
		cfg:      cfg,
		client:   &http.Client{Timeout: _requestTimeout},
		wss:      ws.New(ctx, cfg.WsURL),
		sessions: make(map[string]session),
		wallets:  make(map[string]string),
	}
}

// Connect authenticates every wallet and starts the websocket session.
func (c *Client) Connect(ctx context.Context, creds []ops.WalletCredential) error {
	for _, cred := range creds {
		token, err := c.authenticate(ctx, cred)
		if err != nil {
			return errors.Wrap(exception.ErrConnection, err.Error()).With("wallet", cred.Name)
		}

		c.mu.Lock()
		c.sessions[cred.Name] = session{account: cred.L1Address, token: token}
		c.wallets[cred.L1Address] = cred.Name
		c.mu.Unlock()
	}

	if err := c.wss.Start(ctx); err != nil {
		return errors.Wrap(exception.ErrConnection, err.Error())
	}

	logs.Infof("paradex: session up, %d wallet(s)", len(creds))
	return nil
}

// Close tears down the websocket session.
func (c *Client) Close() error {
	if c == nil || c.wss == nil {
		return nil
	}
	c.wss.Close()
	return nil
}

func (c *Client) authenticate(ctx context.Context, cred ops.WalletCredential) (string, error) {
	payload, err := sonic.ConfigFastest.Marshal(authRequest{Account: cred.L1Address})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, _requestTimeout)
	defer cancel()
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RestURL+"/auth", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	r.Header.Set("Content-Type", "application/json")

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	r.Header.Set("PARADEX-STARKNET-ACCOUNT", cred.L1Address)
	r.Header.Set("PARADEX-TIMESTAMP", timestamp)
	r.Header.Set("PARADEX-SIGNATURE", sign(cred.L1PrivateKey, timestamp+string(payload)))

	resp, err := c.client.Do(r)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("auth status %d: %s", resp.StatusCode, readError(resp.Body))
	}

	var data authResponse
	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	if data.JwtToken == "" {
		return "", errors.New("auth returned empty token")
	}
	return data.JwtToken, nil
}

// PlaceOrder submits a limit order for the request's wallet.
func (c *Client) PlaceOrder(ctx context.Context, req gateway.OrderRequest) (string, error) {
	sess, err := c.session(req.Wallet)
	if err != nil {
		return "", err
	}

	payload, err := sonic.ConfigFastest.Marshal(placeOrderRequest{
		Market: req.Market,
		Side:   req.Side.String(),
		Type:   "LIMIT",
		Size:   formatAmount(req.Size),
		Price:  formatAmount(req.Price),
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, _requestTimeout)
	defer cancel()
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RestURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+sess.token)

	resp, err := c.client.Do(r)
	if err != nil {
		return "", errors.Wrap(exception.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", exception.ErrOrderRateLimited
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", errors.Wrap(exception.ErrOrderRejected, readError(resp.Body)).
			With("status", resp.StatusCode)
	default:
		return "", errors.Wrap(exception.ErrNetwork, readError(resp.Body)).
			With("status", resp.StatusCode)
	}

	var data placeOrderResponse
	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", errors.Wrap(exception.ErrNetwork, err.Error())
	}
	if data.ID == "" {
		return "", errors.Wrap(exception.ErrOrderRejected, "order response missing id")
	}
	return data.ID, nil
}

// CancelOrder cancels one order. A 404 from the venue maps to
// ErrOrderNotFound so callers can treat it as already terminal.
func (c *Client) CancelOrder(ctx context.Context, wallet, orderID string) error {
	sess, err := c.session(wallet)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, _requestTimeout)
	defer cancel()
	r, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.RestURL+"/orders/"+orderID, nil)
	if err != nil {
		return err
	}
	r.Header.Set("Authorization", "Bearer "+sess.token)

	resp, err := c.client.Do(r)
	if err != nil {
		return errors.Wrap(exception.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return exception.ErrOrderNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return exception.ErrOrderRateLimited
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return errors.Wrap(exception.ErrOrderRejected, readError(resp.Body)).
			With("status", resp.StatusCode)
	default:
		return errors.Wrap(exception.ErrNetwork, readError(resp.Body)).
			With("status", resp.StatusCode)
	}
}

func (c *Client) session(wallet string) (session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sess, ok := c.sessions[wallet]
	if !ok {
		return session{}, errors.Wrap(exception.ErrConfigUnknownWallet, wallet)
	}
	return sess, nil
}

func (c *Client) walletOf(account string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wallets[account]
}

func sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func readError(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "empty body"
	}

	var data apiError
	if err := sonic.ConfigFastest.Unmarshal(raw, &data); err == nil && data.Message != "" {
		return data.Message
	}
	return strings.TrimSpace(string(raw))
}
