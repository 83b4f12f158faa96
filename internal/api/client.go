package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"wishlist/internal/security"
	"wishlist/internal/tokens"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout = 30 * time.Second
	refreshPath    = "/auth/refresh"
)

var errSessionEnded = fmt.Errorf("%w: tokens were cleared by a concurrent request", ErrSessionExpired)

// TokenStore é o subconjunto do token store usado pelo cliente
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string) error
	Set(pair tokens.TokenPair) error
	Clear() error
}

// ClientOptions configura o Client
type ClientOptions struct {
	BaseURL    string
	Timeout    time.Duration
	DevMode    bool
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client é o único gateway de saída para o backend. Anexa o bearer token e,
// num 401, faz um único refresh + retry.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenStore
	log       *zap.Logger
	sanitizer *security.LogSanitizer
	devMode   bool

	refreshes singleflight.Group

	mu         sync.Mutex
	tokenState TokenState
	onExpired  func(reason error)
}

// NewClient cria o cliente HTTP
func NewClient(store TokenStore, opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       httpClient,
		tokens:     store,
		log:        log.Named("api"),
		sanitizer:  security.NewLogSanitizer(),
		devMode:    opts.DevMode,
		tokenState: TokenValid,
	}
}

// SetSessionExpiredHandler registra o efeito colateral da transição terminal
// (reset da sessão + navegação para /login).
func (c *Client) SetSessionExpiredHandler(fn func(reason error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// TokenState retorna o estado atual da credencial
func (c *Client) TokenState() TokenState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokenState
}

// NotifyTokensSet deve ser chamado quando login/registro/OAuth gravam tokens novos.
func (c *Client) NotifyTokensSet() {
	c.transition(EventTokensSet)
}

func (c *Client) transition(event TokenEvent) TokenState {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.tokenState
	c.tokenState = NextTokenState(prev, event)
	if prev != c.tokenState {
		c.log.Debug("token state changed",
			zap.String("from", string(prev)),
			zap.String("to", string(c.tokenState)),
			zap.String("event", string(event)))
	}
	return c.tokenState
}

type rawResponse struct {
	status int
	body   []byte
}

// Get/Post/Put/Patch/Delete são atalhos para Do.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do executa a requisição e decodifica a resposta em out (quando não nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	usedToken := c.tokens.AccessToken()
	resp, err := c.send(ctx, method, path, payload, usedToken)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized {
		return c.retryAfterRefresh(ctx, method, path, payload, usedToken, resp, out)
	}
	return c.finish(method, path, resp, out)
}

// retryAfterRefresh implementa a política de 401: um refresh, um retry. A
// requisição repetida nunca dispara outro refresh.
func (c *Client) retryAfterRefresh(ctx context.Context, method, path string, payload []byte, usedToken string, first *rawResponse, out interface{}) error {
	original := newHTTPError(method, path, first.status, first.body)
	if usedToken == "" {
		// requisição anônima (ex.: login com senha errada): não há sessão a renovar
		return original
	}

	accessToken := c.tokens.AccessToken()
	if accessToken == "" || accessToken == usedToken {
		token, err := c.refresh(ctx, usedToken)
		if err != nil {
			switch {
			case errors.Is(err, ErrNoRefreshToken):
				return original
			case errors.Is(err, ErrSessionExpired):
				return err
			}
			return fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		accessToken = token
	}

	resp, err := c.send(ctx, method, path, payload, accessToken)
	if err != nil {
		return err
	}
	if resp.status == http.StatusUnauthorized {
		c.log.Warn("request still unauthorized after refresh",
			zap.String("method", method), zap.String("path", path))
		return newHTTPError(method, path, resp.status, resp.body)
	}
	return c.finish(method, path, resp, out)
}

// refresh troca o refresh token uma única vez por access token rejeitado.
// Requisições concorrentes com o mesmo token entram no mesmo voo, e só esse
// voo pode encerrar a sessão.
func (c *Client) refresh(ctx context.Context, rejected string) (string, error) {
	value, err, shared := c.refreshes.Do(rejected, func() (interface{}, error) {
		switch current := c.tokens.AccessToken(); {
		case current == "":
			// um voo anterior já encerrou a sessão
			return "", errSessionEnded
		case current != rejected:
			// um voo anterior já renovou
			return current, nil
		}

		c.transition(EventUnauthorized)
		refreshToken := c.tokens.RefreshToken()
		if refreshToken == "" {
			c.expire(ErrNoRefreshToken)
			return "", ErrNoRefreshToken
		}
		token, err := c.exchangeRefreshToken(ctx, refreshToken)
		if err != nil {
			c.expire(err)
			return "", err
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.log.Debug("joined in-flight token refresh")
	}
	return value.(string), nil
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// exchangeRefreshToken chama /auth/refresh direto, sem bearer e sem passar
// pelo tratamento de 401.
func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
	resp, err := c.send(ctx, http.MethodPost, refreshPath, payload, "")
	if err != nil {
		return "", err
	}
	if resp.status < 200 || resp.status >= 300 {
		return "", newHTTPError(http.MethodPost, refreshPath, resp.status, resp.body)
	}

	var parsed refreshResponse
	if err := json.Unmarshal(resp.body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("refresh response without access token")
	}

	if parsed.RefreshToken != "" {
		err = c.tokens.Set(tokens.TokenPair{AccessToken: parsed.AccessToken, RefreshToken: parsed.RefreshToken})
	} else {
		err = c.tokens.SetAccessToken(parsed.AccessToken)
	}
	if err != nil {
		return "", err
	}

	c.transition(EventRefreshSucceeded)
	c.log.Info("access token refreshed")
	return parsed.AccessToken, nil
}

// expire é a transição terminal: limpa tokens e avisa quem navega para o login.
func (c *Client) expire(reason error) {
	if err := c.tokens.Clear(); err != nil {
		c.log.Warn("failed to clear tokens", zap.Error(err))
	}
	c.transition(EventRefreshFailed)
	c.log.Info("session expired", zap.Error(reason))

	c.mu.Lock()
	hook := c.onExpired
	c.mu.Unlock()
	if hook != nil {
		hook(reason)
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, accessToken string) (*rawResponse, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	if c.devMode {
		c.log.Debug("request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("body", c.sanitizer.Sanitize(string(payload))))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, newNetworkError(method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(method, path, fmt.Errorf("failed to read response: %w", err))
	}

	if c.devMode {
		c.log.Debug("response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", c.sanitizer.Sanitize(string(body))))
	}
	if resp.StatusCode >= 400 {
		c.log.Warn("response error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
	}

	return &rawResponse{status: resp.StatusCode, body: body}, nil
}

func (c *Client) finish(method, path string, resp *rawResponse, out interface{}) error {
	if resp.status < 200 || resp.status >= 300 {
		return newHTTPError(method, path, resp.status, resp.body)
	}
	if out == nil || resp.status == http.StatusNoContent || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("failed to parse %s %s response: %w", method, path, err)
	}
	return nil
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if raw, ok := body.([]byte); ok {
		return raw, nil
	}
	return json.Marshal(body)
}
