// Package gateway implementa auth.AuthVerifier contra el servicio de
// auth externo (introspección de tokens). El engine no maneja sesiones:
// solo traduce token -> claims y confía en el resultado.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-adoption-market/internal/platform/httpclient"
	"pet-adoption-market/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("auth gateway not configured")
	ErrUnauthorized  = errors.New("auth gateway unauthorized")
	ErrUpstream      = errors.New("auth gateway upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string

	// Header donde viaja la API key; default "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = "X-Api-Key"
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: header,
	}, nil
}

// WithTransport inyecta un RoundTripper (tests).
func (c *Client) WithTransport(tr http.RoundTripper) *Client {
	c.http.WithTransport(tr)
	return c
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

// VerifyToken introspecciona el token contra el servicio de auth.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}
	if c.apiKey != "" {
		headers[c.apiKeyHeader] = c.apiKey
	}

	var out struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Admin  bool   `json:"admin"`
	}

	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/tokens/verify", headers,
		map[string]string{"token": token}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden {
				return auth.Claims{}, ErrUnauthorized
			}
			return auth.Claims{}, fmt.Errorf("%w: status=%d", ErrUpstream, httpErr.StatusCode)
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return auth.Claims{}, errors.New("auth response missing user_id")
	}

	return auth.Claims{
		UserID: out.UserID,
		Email:  strings.TrimSpace(out.Email),
		Admin:  out.Admin,
	}, nil
}
