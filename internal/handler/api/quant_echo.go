package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"QuantSuperior/internal/domain/models"
	domrepo "QuantSuperior/internal/domain/repository"
	"QuantSuperior/internal/usecase"
	xhttp "QuantSuperior/pkg/http"
	"QuantSuperior/pkg/http/middleware"
	xlogger "QuantSuperior/pkg/logger"
)

const serviceName = "FTSEMIB Quant Superior"

// QuantEchoHandler serves the backtest chart and the next-session signal.
type QuantEchoHandler struct {
	logger     *xlogger.Logger
	runner     *usecase.BacktestRunner
	dispatcher *usecase.SignalDispatcher
	limiter    middleware.Allower
	hub        usecase.Broadcaster
}

// NewQuantEchoHandler builds the handler; dispatcher and limiter may be nil.
func NewQuantEchoHandler(logger *xlogger.Logger, runner *usecase.BacktestRunner, dispatcher *usecase.SignalDispatcher, limiter middleware.Allower) *QuantEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &QuantEchoHandler{logger: logger, runner: runner, dispatcher: dispatcher, limiter: limiter}
}

// WithBroadcaster pushes every fresh run to live clients.
func (h *QuantEchoHandler) WithBroadcaster(b usecase.Broadcaster) *QuantEchoHandler {
	h.hub = b
	return h
}

func (h *QuantEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	if h.limiter != nil {
		g.Use(middleware.RateLimit(h.limiter, func(c echo.Context) error {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}))
	}
	g.GET("/quant-superior", h.QuantSuperior)
	g.GET("/signal", h.Signal)
}

func (h *QuantEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
}

// QuantSuperior returns candles, volume, equity, markers, metrics and the
// next-session signal in the Lightweight Charts layout.
func (h *QuantEchoHandler) QuantSuperior(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	h.logger.Info("quant request",
		xlogger.String("symbol", req.Symbol),
		xlogger.String("period", req.Period),
		xlogger.Int("limit", req.Limit),
		xlogger.Bool("cost_override", req.CostBps != nil))

	out, err := h.runner.Run(c.Request().Context(), usecase.RunParams{
		Symbol:  req.Symbol,
		Period:  domrepo.NormalizePeriod(req.Period),
		Limit:   req.Limit,
		CostBps: req.CostBps,
	})
	if err != nil {
		return h.runError(c, err)
	}

	// one alert per fresh run; cache hits were already dispatched
	if !out.Cached {
		if h.dispatcher != nil {
			if _, err := h.dispatcher.Dispatch(c.Request().Context(), out.Symbol, out.Result); err != nil {
				h.logger.Warn("signal dispatch failed", xlogger.String("symbol", out.Symbol), xlogger.Error(err))
			}
		}
		if h.hub != nil {
			h.hub.Broadcast(usecase.NewSignalEvent(out, time.Now()))
		}
	}
	return c.JSON(http.StatusOK, toChart(out))
}

// Signal returns only the next-session decision.
func (h *QuantEchoHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	out, err := h.runner.Run(c.Request().Context(), usecase.RunParams{
		Symbol:  req.Symbol,
		Period:  domrepo.NormalizePeriod(req.Period),
		CostBps: req.CostBps,
	})
	if err != nil {
		return h.runError(c, err)
	}
	return xhttp.SuccessResponse(c, toChartSignal(out.Result.SignalNext))
}

func (h *QuantEchoHandler) runError(c echo.Context, err error) error {
	if errors.Is(err, domrepo.ErrNoData) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("No data available").WithError(err))
	}
	h.logger.Error("backtest usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.UpstreamError("market data unavailable").WithError(err))
}
