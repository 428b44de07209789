// Package verify is the client-side policy for the verification backend: the
// two cached lookups the reconciliation engine depends on, plus guild
// registration. It is the only caller of the guild-role and verified-user
// caches.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"rolegate/internal/platform/metrics"
	"rolegate/internal/verify/store/guildrole"
	"rolegate/internal/verify/store/verified"
	"rolegate/pkg/platform/sentinel"
)

// slowCallThreshold is the backend latency above which a call is warn-logged.
const slowCallThreshold = 400 * time.Millisecond

// maxErrorBody bounds how much of an error response is kept for logging.
const maxErrorBody = 4096

// Client talks to the verification backend with a bearer key and keeps the
// two lookup caches fresh. Safe for concurrent use.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	roles    guildrole.Store
	verified verified.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New builds a backend client. baseURL must not have a trailing slash.
func New(baseURL, apiKey string, roles guildrole.Store, confirmed verified.Store, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		baseURL:  baseURL,
		apiKey:   apiKey,
		roles:    roles,
		verified: confirmed,
		logger:   logger,
		metrics:  m,
	}
}

// CheckVerified reports whether the backend confirms userID as verified for
// guildID. A fresh cached confirmation short-circuits the backend call. On a
// confirmed response the verified-user cache is written and, since the
// backend returns the applicable role, the guild-role cache is refreshed as a
// side effect. Returns nil when verified, ErrNotVerified when the backend
// does not know the user, and *BackendError otherwise.
func (c *Client) CheckVerified(ctx context.Context, userID, guildID string) error {
	if _, err := c.verified.Get(ctx, userID); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		// A broken cache must not block verification; fall through.
		c.logger.Warn("verified cache read failed", "error", err, "user_id", userID)
	}

	body, err := json.Marshal(verifiedRequest{UserID: userID, GuildID: guildID})
	if err != nil {
		return fmt.Errorf("encode verified request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/v1/verified", body)
	if err != nil {
		return &BackendError{Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var v verifiedResponse
		if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
			return &BackendError{Status: resp.StatusCode, Body: fmt.Sprintf("decode verified response: %v", err)}
		}
		if !v.Verified {
			return ErrNotVerified
		}
		if err := c.verified.Set(ctx, userID, v.RoleID); err != nil {
			c.logger.Warn("verified cache write failed", "error", err, "user_id", userID)
		}
		if err := c.roles.Set(ctx, guildID, v.RoleID); err != nil {
			c.logger.Warn("guild role cache write failed", "error", err, "guild_id", guildID)
		}
		return nil
	case http.StatusNotFound:
		return ErrNotVerified
	default:
		return c.backendError(resp)
	}
}

// ResolveVerifiedRole returns the role id that marks a verified member of
// guildID, from cache when fresh, otherwise from the backend. An unapproved
// guild resolves to ErrGuildNotApproved and is not cached.
func (c *Client) ResolveVerifiedRole(ctx context.Context, guildID string) (string, error) {
	roleID, err := c.roles.Get(ctx, guildID)
	if err == nil {
		return roleID, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		c.logger.Warn("guild role cache read failed", "error", err, "guild_id", guildID)
	}

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/v1/guild/"+guildID, nil)
	if err != nil {
		return "", &BackendError{Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var info guildInfoResponse
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return "", &BackendError{Status: resp.StatusCode, Body: fmt.Sprintf("decode guild response: %v", err)}
		}
		if !info.Approved {
			return "", ErrGuildNotApproved
		}
		if err := c.roles.Set(ctx, guildID, info.RoleID); err != nil {
			c.logger.Warn("guild role cache write failed", "error", err, "guild_id", guildID)
		}
		return info.RoleID, nil
	case http.StatusNotFound:
		return "", ErrGuildNotConfigured
	default:
		return "", c.backendError(resp)
	}
}

// InvalidateGuildRole drops the cached role mapping for guildID so the next
// lookup hits the backend regardless of remaining TTL. Called when a guild is
// reconfigured and before a guild-wide re-verification pass.
func (c *Client) InvalidateGuildRole(ctx context.Context, guildID string) error {
	return c.roles.Invalidate(ctx, guildID)
}

// RegisterGuild submits a guild registration. ErrAlreadyRegistered maps the
// backend's conflict response.
func (c *Client) RegisterGuild(ctx context.Context, params RegisterParams) (RegisterResult, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("encode register request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/v1/guild/register", body)
	if err != nil {
		return RegisterResult{}, &BackendError{Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result RegisterResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return RegisterResult{}, &BackendError{Status: resp.StatusCode, Body: fmt.Sprintf("decode register response: %v", err)}
		}
		return result, nil
	case http.StatusConflict:
		return RegisterResult{}, ErrAlreadyRegistered
	default:
		return RegisterResult{}, c.backendError(resp)
	}
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)

	if c.metrics != nil {
		c.metrics.BackendLatency.Observe(elapsed.Seconds())
	}
	if elapsed > slowCallThreshold {
		c.logger.Warn("slow backend call", "method", method, "url", url, "elapsed", elapsed)
	}
	return resp, err
}

func (c *Client) backendError(resp *http.Response) *BackendError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &BackendError{Status: resp.StatusCode, Body: string(body)}
}
