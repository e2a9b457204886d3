// Package server exposes the local web UI: a form page for picking
// snapshots and a small JSON API backing it.
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/waydiffer/waydiffer/internal/app"
	"github.com/waydiffer/waydiffer/internal/archive"
	"github.com/waydiffer/waydiffer/internal/logging"
	"github.com/waydiffer/waydiffer/internal/snapshot"
)

//go:embed assets/index.html
var indexPage string

const defaultLogLimit = 100

type Server struct {
	app  *app.App
	echo *echo.Echo
	log  *slog.Logger
}

func New(a *app.App) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		app:  a,
		echo: e,
		log:  slog.With("service", "server"),
	}

	e.GET("/", s.handleIndex)
	e.GET("/api/mementos", s.handleMementos)
	e.GET("/api/history", s.handleHistory)
	e.GET("/api/logs", s.handleLogs)
	e.POST("/diff", s.handleDiff)

	return s
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.app.Config.Server.Host, s.app.Config.Server.Port)
	s.log.Info("starting server", "addr", addr)

	go func() {
		<-ctx.Done()
		if err := s.echo.Shutdown(context.Background()); err != nil {
			s.log.Warn("shutdown failed", "error", err)
		}
	}()

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.HTML(http.StatusOK, indexPage)
}

type mementoEntry struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

func (s *Server) handleMementos(c echo.Context) error {
	target := strings.TrimSpace(c.QueryParam("url"))
	if target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url parameter is required")
	}

	days := s.app.Config.Archive.HistoryDays
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a positive integer")
		}
		days = parsed
	}

	mementos, err := s.app.Archive.Mementos(c.Request().Context(), target, days)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if filter := c.QueryParam("filter"); filter != "" {
		mementos = archive.Filter(mementos, filter)
	}

	entries := make([]mementoEntry, 0, len(mementos))
	for _, m := range mementos {
		entries = append(entries, mementoEntry{URL: m.URL, Label: m.Label()})
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleDiff(c echo.Context) error {
	oldURL := strings.TrimSpace(c.FormValue("old"))
	newURL := strings.TrimSpace(c.FormValue("new"))
	if oldURL == "" || newURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "old and new snapshot URLs are required")
	}
	mode := snapshot.Mode(c.FormValue("mode"))
	if mode == "" {
		mode = snapshot.ModeSource
	}
	if !mode.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown mode %q", mode))
	}

	result, err := s.app.Compare(c.Request().Context(), oldURL, newURL, mode)
	switch {
	case errors.Is(err, archive.ErrGone):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, archive.ErrUnsupportedType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if result.Identical {
		return c.HTML(http.StatusOK, identicalPage)
	}
	return c.HTML(http.StatusOK, result.HTML)
}

func (s *Server) handleHistory(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = parsed
	}
	runs, err := s.app.History.List(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleLogs(c echo.Context) error {
	return c.JSON(http.StatusOK, logging.GetService().List(defaultLogLimit))
}

const identicalPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>waydiffer</title></head>
<body><p>The selected snapshots are identical.</p></body></html>`
