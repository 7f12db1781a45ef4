package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const apiKeyRedisKey = "factlens:settings:gemini_api_key"

// CredentialStore holds the backend API credential outside the config
// file so it can be rotated at runtime.
type CredentialStore interface {
	APIKey(ctx context.Context) (string, error)
	SetAPIKey(ctx context.Context, key string) error
}

// redisCredentials keeps the credential in redis so every replica sees a
// rotation immediately.
type redisCredentials struct {
	rdb *redis.Client
}

func NewRedisCredentials(rdb *redis.Client) CredentialStore {
	return &redisCredentials{rdb: rdb}
}

func (r *redisCredentials) APIKey(ctx context.Context) (string, error) {
	v, err := r.rdb.Get(ctx, apiKeyRedisKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *redisCredentials) SetAPIKey(ctx context.Context, key string) error {
	if key == "" {
		return r.rdb.Del(ctx, apiKeyRedisKey).Err()
	}
	return r.rdb.Set(ctx, apiKeyRedisKey, key, 0).Err()
}

// staticCredentials serves a fixed key from config when no redis tier is
// available. Rotation requires a restart.
type staticCredentials struct {
	key string
}

func NewStaticCredentials(key string) CredentialStore { return &staticCredentials{key: key} }

func (s *staticCredentials) APIKey(context.Context) (string, error) { return s.key, nil }
func (s *staticCredentials) SetAPIKey(context.Context, string) error {
	return errors.New("credential store is read-only; set gemini.api_key in config")
}

// SettingsHandler exposes the credential surface. The key is write-only
// over the API: reads report presence, never the value.
type SettingsHandler struct {
	Credentials CredentialStore
}

func (h *SettingsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.GET("/apikey", h.getAPIKey)
	g.PUT("/apikey", h.putAPIKey)
}

func (h *SettingsHandler) getAPIKey(c echo.Context) error {
	key, err := h.Credentials.APIKey(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, APIKeyResponse{Configured: key != ""})
}

func (h *SettingsHandler) putAPIKey(c echo.Context) error {
	var req APIKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.Credentials.SetAPIKey(c.Request().Context(), strings.TrimSpace(req.APIKey)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, APIKeyResponse{Configured: req.APIKey != ""})
}
