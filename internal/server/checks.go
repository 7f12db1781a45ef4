package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/factlens/factlens/internal/cache"
	"github.com/factlens/factlens/internal/checker"
	"github.com/factlens/factlens/internal/search"
	"github.com/factlens/factlens/internal/store"
	"github.com/factlens/factlens/internal/stream"
	"github.com/factlens/factlens/internal/transcript"
)

// CheckService is the coordinator surface the handler drives.
// *checker.Checker satisfies it.
type CheckService interface {
	Check(ctx context.Context, req checker.Request) error
	Cancel()
	InProgress() bool
}

// ChecksHandler exposes fact-check runs, history, search and the cache
// purge. Progress is streamed to the client as server-sent events.
type ChecksHandler struct {
	Service     CheckService
	History     *store.Store  // nil disables the history listing
	Search      *search.Index // nil disables search
	Results     *cache.Cache
	Credentials CredentialStore
	PageTimeout time.Duration
	Logger      *log.Logger
}

func (h *ChecksHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.POST("", h.startCheck)
	g.POST("/cancel", h.cancel)
	g.GET("", h.list)
	g.GET("/search", h.search)
}

// RegisterCache mounts the cache purge route on its own group.
func (h *ChecksHandler) RegisterCache(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.DELETE("", h.clearCache)
}

func (h *ChecksHandler) startCheck(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}
	if req.Transcript == "" && req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transcript or url is required")
	}

	ctx := c.Request().Context()
	credential, err := h.Credentials.APIKey(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var source transcript.SourceProvider
	if req.Transcript != "" {
		source = transcript.Static(req.Transcript)
	} else {
		source = &transcript.PageProvider{URL: req.URL, Timeout: h.PageTimeout, Logger: h.Logger}
	}
	if req.From != "" || req.To != "" {
		source = transcript.Window{Source: source, From: req.From, To: req.To}
	}

	// SSE headers go out with the first update, so validation errors
	// before any streaming still surface as plain JSON.
	resp := c.Response()
	streaming := false
	writeEvent := func(event string, v interface{}) {
		if !streaming {
			resp.Header().Set(echo.HeaderContentType, "text/event-stream")
			resp.Header().Set("Cache-Control", "no-cache")
			resp.Header().Set(echo.HeaderConnection, "keep-alive")
			resp.WriteHeader(http.StatusOK)
			streaming = true
		}
		data, err := json.Marshal(v)
		if err != nil {
			h.Logger.Printf("encoding %s event: %v", event, err)
			return
		}
		fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event, data)
		resp.Flush()
	}

	err = h.Service.Check(ctx, checker.Request{
		Key:          req.Key,
		Credential:   credential,
		Source:       source,
		Instructions: req.Instructions,
		OnUpdate:     func(u checker.Update) { writeEvent("update", u) },
	})
	if err != nil {
		if streaming {
			writeEvent("error", HTTPError{Error: err.Error()})
			return nil
		}
		return checkError(err)
	}
	return nil
}

// checkError maps coordinator errors onto HTTP statuses.
func checkError(err error) error {
	var te *stream.TransportError
	switch {
	case errors.Is(err, checker.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, checker.ErrEmptyInput), errors.Is(err, checker.ErrNoCredential):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, checker.ErrTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, checker.ErrCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, stream.ErrInterrupted), errors.As(err, &te):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *ChecksHandler) cancel(c echo.Context) error {
	h.Service.Cancel()
	return c.NoContent(http.StatusAccepted)
}

func (h *ChecksHandler) list(c echo.Context) error {
	if h.History == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "history not configured")
	}
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	recs, err := h.History.ListChecks(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *ChecksHandler) search(c echo.Context) error {
	if h.Search == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "search not configured")
	}
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k := 10
	if v := c.QueryParam("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid k")
		}
		k = n
	}
	hits, err := h.Search.Search(c.Request().Context(), q, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, hits)
}

func (h *ChecksHandler) clearCache(c echo.Context) error {
	if err := h.Results.Clear(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, CacheClearResponse{Cleared: true})
}
