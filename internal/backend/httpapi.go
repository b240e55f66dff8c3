package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ledgerkeep/ledgerkeep/internal/common"
)

const httpTimeout = 30 * time.Second

// HTTPConfig targets a self-hosted ledgerkeep backup server. Password is
// only present right after an interactive connect; it is stripped before the
// config is persisted and reconnection runs on the refresh token.
type HTTPConfig struct {
	BaseURL      string `json:"baseUrl"`
	Username     string `json:"username"`
	Password     string `json:"password,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// HTTPBackend talks JSON to a self-hosted backup server. The access token is
// a JWT held in memory only; expiry is checked locally without a network
// round trip.
type HTTPBackend struct {
	http         *http.Client
	baseURL      string
	username     string
	password     string
	refreshToken string
	accessToken  string
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (b *HTTPBackend) Initialize(ctx context.Context, cfg *Config) error {
	c := cfg.HTTP
	if c == nil || c.BaseURL == "" || c.Username == "" {
		return fmt.Errorf("%w: http backend requires base url and username", common.ErrConfiguration)
	}
	if c.Password == "" && c.RefreshToken == "" {
		return fmt.Errorf("%w: http backend requires a password or a refresh token", common.ErrConfiguration)
	}
	b.http = &http.Client{Timeout: httpTimeout}
	b.baseURL = strings.TrimRight(c.BaseURL, "/")
	b.username = c.Username
	b.password = c.Password
	b.refreshToken = c.RefreshToken
	b.accessToken = ""
	return nil
}

func (b *HTTPBackend) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return common.ErrAuthentication
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %s", common.ErrNetwork, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Authenticate logs in with the password when one was just entered, and
// refreshes the token pair otherwise.
func (b *HTTPBackend) Authenticate(ctx context.Context) error {
	if b.http == nil {
		return common.ErrConfiguration
	}

	var pair tokenPair
	var err error
	if b.password != "" {
		err = b.postJSON(ctx, "/api/login",
			map[string]string{"username": b.username, "password": b.password}, &pair)
	} else {
		err = b.postJSON(ctx, "/api/refresh",
			map[string]string{"refresh_token": b.refreshToken}, &pair)
	}
	if err != nil {
		if errors.Is(err, common.ErrNetwork) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrAuthentication, err)
	}
	if pair.AccessToken == "" {
		return common.ErrAuthentication
	}

	b.accessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		b.refreshToken = pair.RefreshToken
	}
	b.password = "" // not needed again until the refresh token dies
	return nil
}

// IsAuthenticated checks the held JWT's exp claim locally. The signature is
// the server's business; we only need to know whether presenting the token
// is worth a network call.
func (b *HTTPBackend) IsAuthenticated() bool {
	if b.accessToken == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(b.accessToken, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.After(time.Now())
}

func (b *HTTPBackend) GetUser() string {
	return b.username
}

func (b *HTTPBackend) authedRequest(ctx context.Context, method string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+"/api/backup", reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	return resp, nil
}

func (b *HTTPBackend) Upload(ctx context.Context, blob []byte) error {
	if b.http == nil {
		return common.ErrConfiguration
	}
	resp, err := b.authedRequest(ctx, http.MethodPut, blob)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.ErrAuthentication
	default:
		return fmt.Errorf("%w: upload returned %s", common.ErrNetwork, resp.Status)
	}
}

func (b *HTTPBackend) Download(ctx context.Context) ([]byte, error) {
	if b.http == nil {
		return nil, common.ErrConfiguration
	}
	resp, err := b.authedRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		blob, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
		}
		return blob, nil
	case http.StatusNotFound:
		return nil, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, common.ErrAuthentication
	default:
		return nil, fmt.Errorf("%w: download returned %s", common.ErrNetwork, resp.Status)
	}
}

// SignOut tells the server to revoke the refresh token and drops both tokens
// locally. Best effort: a dead network must not block signing out.
func (b *HTTPBackend) SignOut(ctx context.Context) {
	if b.http != nil && b.refreshToken != "" {
		_ = b.postJSON(ctx, "/api/logout", map[string]string{"refresh_token": b.refreshToken}, nil)
	}
	b.accessToken = ""
	b.refreshToken = ""
	b.password = ""
}

// RefreshTokenForPersistence exposes the current refresh token so the
// connection config saved to disk can reconnect silently later.
func (b *HTTPBackend) RefreshTokenForPersistence() string {
	return b.refreshToken
}

func (b *HTTPBackend) Type() string { return TypeHTTP }
