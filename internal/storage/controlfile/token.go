package controlfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies bearer tokens for backend requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns the same token on every call.
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	return s.token, nil
}

// refreshMargin renews tokens slightly before they expire so in-flight
// requests never carry a token that dies mid-request.
const refreshMargin = 30 * time.Second

// defaultTokenTTL applies when a token carries no exp claim.
const defaultTokenTTL = 5 * time.Minute

// CachingTokenSource caches a token obtained from refresh until its exp
// claim is about to pass. The claim is read without signature
// verification; the backend verifies, the client only needs the expiry.
type CachingTokenSource struct {
	mu      sync.Mutex
	refresh func(ctx context.Context) (string, error)
	token   string
	expires time.Time
	now     func() time.Time
}

func NewCachingTokenSource(refresh func(ctx context.Context) (string, error)) *CachingTokenSource {
	return &CachingTokenSource{refresh: refresh, now: time.Now}
}

func (s *CachingTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires.Add(-refreshMargin)) {
		return s.token, nil
	}

	token, err := s.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	s.token = token
	s.expires = tokenExpiry(token, s.now())
	return token, nil
}

// NewHTTPRefreshTokenSource returns a caching source that obtains its
// tokens from a refresh endpoint. The endpoint answers POST with
// {"token": "..."}; the token's exp claim drives the refresh schedule.
func NewHTTPRefreshTokenSource(endpoint string) *CachingTokenSource {
	client := &http.Client{Timeout: 15 * time.Second}
	return NewCachingTokenSource(func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
		if err != nil {
			return "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return "", fmt.Errorf("token endpoint: %s; body: %s", resp.Status, string(b))
		}

		var out struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", err
		}
		if out.Token == "" {
			return "", fmt.Errorf("token endpoint returned an empty token")
		}
		return out.Token, nil
	})
}

func tokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return now.Add(defaultTokenTTL)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return now.Add(defaultTokenTTL)
	}
	return exp.Time
}
