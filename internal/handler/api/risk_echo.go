package api

import (
	"context"
	"net/http"
	"time"

	models "BubbleWatch/internal/domain/models"
	"BubbleWatch/internal/usecase"
	xhttp "BubbleWatch/pkg/http"
	xlogger "BubbleWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CollectEnqueuer queues an on-demand collection job.
type CollectEnqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// Refresher runs one collect-and-score cycle for a ticker inline.
type Refresher interface {
	Refresh(ctx context.Context, ticker string) error
}

// HealthChecker pings the persistence backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RiskEchoHandler implements Echo-based HTTP handlers for the risk API.
type RiskEchoHandler struct {
	logger    *xlogger.Logger
	query     *usecase.RiskQueryUseCase
	tickers   []string
	queue     CollectEnqueuer
	refresher Refresher
	health    HealthChecker
}

func NewRiskEchoHandler(logger *xlogger.Logger, query *usecase.RiskQueryUseCase, tickers []string) *RiskEchoHandler {
	return &RiskEchoHandler{logger: logger, query: query, tickers: tickers}
}

// SetQueue wires the job queue for async collect requests.
func (h *RiskEchoHandler) SetQueue(q CollectEnqueuer) { h.queue = q }

// SetRefresher wires the inline fallback used when no queue is configured.
func (h *RiskEchoHandler) SetRefresher(r Refresher) { h.refresher = r }

// SetHealthChecker wires the backend ping for /healthz.
func (h *RiskEchoHandler) SetHealthChecker(c HealthChecker) { h.health = c }

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	g := e.Group("/api")
	g.GET("/risk", h.Risk)
	g.GET("/risk/history", h.History)
	g.GET("/snapshots", h.Snapshots)
	g.GET("/tickers", h.Tickers)
	g.POST("/collect", h.Collect)
}

func (h *RiskEchoHandler) Risk(c echo.Context) error {
	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.query.Latest(c.Request().Context(), req.Ticker)
	if err != nil {
		h.logger.Error("risk usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res == nil {
		return xhttp.NotFoundResponse(c, map[string]string{"ticker": req.Ticker})
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskEchoHandler) History(c echo.Context) error {
	req := &models.RiskHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)

	res, err := h.query.History(c.Request().Context(), usecase.HistoryParams{
		Ticker: req.Ticker,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskEchoHandler) Snapshots(c echo.Context) error {
	req := &models.SnapshotsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snaps, err := h.query.Snapshots(c.Request().Context(), req.Ticker, req.Limit)
	if err != nil {
		h.logger.Error("snapshots usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, snaps, int64(len(snaps)))
}

func (h *RiskEchoHandler) Tickers(c echo.Context) error {
	return xhttp.ListResponse(c, h.tickers, int64(len(h.tickers)))
}

func (h *RiskEchoHandler) Collect(c echo.Context) error {
	req := &models.CollectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if h.queue != nil {
		if err := h.queue.Enqueue(ctx, usecase.CollectJobType, map[string]string{"ticker": req.Ticker}); err != nil {
			h.logger.Error("collect enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"status": "queued", "ticker": req.Ticker})
	}
	if h.refresher != nil {
		if err := h.refresher.Refresh(ctx, req.Ticker); err != nil {
			h.logger.Error("collect refresh error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.SuccessResponse(c, map[string]string{"status": "collected", "ticker": req.Ticker})
	}
	return xhttp.AppErrorResponse(c, xhttp.InternalError("no collector configured"))
}

func (h *RiskEchoHandler) Healthz(c echo.Context) error {
	out := map[string]string{"status": "ok"}
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Health(ctx); err != nil {
			out["status"] = "degraded"
			out["backend"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, out)
		}
	}
	return xhttp.SuccessResponse(c, out)
}
