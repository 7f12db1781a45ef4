package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/factlens/factlens/config"
	"github.com/factlens/factlens/internal/cache"
	"github.com/factlens/factlens/internal/checker"
	"github.com/factlens/factlens/internal/search"
	"github.com/factlens/factlens/internal/store"
	"github.com/factlens/factlens/internal/stream"
)

// Run wires the daemon together and serves until the listener fails:
// cache tiers, history store, search index, the streaming checker, and
// the HTTP surface in front of them. Redis and postgres are optional;
// without them the cache is process-local and history/auth are off.
func Run(cfg *appconfig.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	secret := cfg.Server.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (server.jwt_secret)")
	}

	ctx := context.Background()

	// Cache tiers. Redis is the durable tier; absent redis the cache
	// degrades to the in-process map alone.
	var rdb *redis.Client
	cacheStore := cache.NewMemoryStore()
	if cfg.Storage.Redis.Host != "" {
		var err error
		rdb, err = cache.Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port,
			cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
		if err != nil {
			return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
		}
		cacheStore = cache.NewRedisStore(rdb)
	}
	results := cache.New(cacheStore, nil)

	// History store, optional.
	var st *store.Store
	if dsn := cfg.Storage.Postgres.DSN(); dsn != "" {
		if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
			baseLogger.Printf("migrations: %v", err)
		}
		var err error
		st, err = store.NewWithDSN(ctx, dsn)
		if err != nil {
			return err
		}
	}

	var idx *search.Index
	var err error
	if cfg.Storage.SearchIndex != "" {
		idx, err = search.Open(cfg.Storage.SearchIndex)
	} else {
		idx, err = search.NewMemOnly()
	}
	if err != nil {
		return fmt.Errorf("opening search index: %w", err)
	}

	session := stream.New(stream.Config{
		Endpoint:           cfg.Gemini.Endpoint,
		Model:              cfg.Gemini.Model,
		Temperature:        cfg.Gemini.Temperature,
		TopP:               cfg.Gemini.TopP,
		ResponseModalities: cfg.Gemini.ResponseModalities,
		HandshakeTimeout:   cfg.Gemini.HandshakeTimeout,
	}, nil)

	var history checker.History
	if st != nil {
		history = st
	}
	chk := checker.New(checker.Config{
		SessionTimeout:     cfg.Checker.SessionTimeout,
		MinCacheableLength: cfg.Checker.MinCacheableLength,
	}, session, results, history, idx, nil)

	var creds CredentialStore
	if rdb != nil {
		creds = NewRedisCredentials(rdb)
	} else {
		creds = NewStaticCredentials(cfg.Gemini.APIKey)
	}
	// Seed a config-supplied key into the rotatable store once.
	if rdb != nil && cfg.Gemini.APIKey != "" {
		if existing, err := creds.APIKey(ctx); err == nil && existing == "" {
			_ = creds.SetAPIKey(ctx, cfg.Gemini.APIKey)
		}
	}

	api := e.Group("/api")
	if st != nil {
		auth := &AuthHandler{Store: st, Secret: []byte(secret)}
		auth.Register(api.Group("/auth"))
	}

	sh := &SettingsHandler{Credentials: creds}
	sh.Register(api.Group("/settings"), []byte(secret))

	ch := &ChecksHandler{
		Service:     chk,
		History:     st,
		Search:      idx,
		Results:     results,
		Credentials: creds,
		PageTimeout: cfg.Checker.SessionTimeout,
		Logger:      log.New(log.Writer(), "[CHECKS] ", log.LstdFlags),
	}
	ch.Register(api.Group("/checks"), []byte(secret))
	ch.RegisterCache(api.Group("/cache"), []byte(secret))

	sched := &Scheduler{
		Cache:      results,
		Rdb:        rdb,
		CronSpec:   cfg.Cache.MaintenanceCron,
		MaxEntries: cfg.Cache.MaxEntries,
		Stop:       make(chan struct{}),
	}
	sched.Start()

	if addr == "" {
		addr = cfg.Server.Address
		if addr != "" && addr[0] != ':' {
			addr = ":" + addr
		}
		if addr == "" {
			addr = ":10080"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
