package api

import (
	"net/http"
	"time"

	"ChartFlux/internal/domain/models"
	"ChartFlux/internal/replay"
	"ChartFlux/internal/usecase"
	xhttp "ChartFlux/pkg/http"
	xlogger "ChartFlux/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// ReplayEchoHandler exposes the single replay session over Echo: session
// load, playback controls, cursor movement, and a websocket stream fed by
// the autoplay driver.
type ReplayEchoHandler struct {
	logger   *xlogger.Logger
	uc       *usecase.MarketDataUseCase
	engine   *replay.Engine
	driver   *replay.Driver
	upgrader websocket.Upgrader
}

func NewReplayEchoHandler(logger *xlogger.Logger, uc *usecase.MarketDataUseCase, engine *replay.Engine, driver *replay.Driver) *ReplayEchoHandler {
	return &ReplayEchoHandler{
		logger: logger,
		uc:     uc,
		engine: engine,
		driver: driver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Chart frontends are served from a different origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *ReplayEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/replay")
	g.POST("/session", h.LoadSession)
	g.POST("/start", h.Start)
	g.POST("/pause", h.Pause)
	g.POST("/stop", h.Stop)
	g.POST("/step-forward", h.StepForward)
	g.POST("/step-backward", h.StepBackward)
	g.POST("/seek", h.Seek)
	g.POST("/speed", h.SetSpeed)
	g.GET("/state", h.State)
	g.GET("/stream", h.Stream)
}

func (h *ReplayEchoHandler) LoadSession(c echo.Context) error {
	req := &models.ReplaySessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf, err := models.ParseTimeFrame(req.Timeframe)
	if err != nil {
		return xhttp.AppErrorResponse(c, appError(err))
	}
	data, err := h.uc.LoadSeries(c.Request().Context(), req.Symbol, req.Timeframe)
	if err != nil {
		h.logger.Error("replay session load error",
			xlogger.String("symbol", req.Symbol),
			xlogger.String("tf", req.Timeframe),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	info, err := h.engine.Load(req.Symbol, tf, data)
	if err != nil {
		return xhttp.AppErrorResponse(c, appError(err))
	}
	h.logger.Info("replay session loaded",
		xlogger.String("symbol", req.Symbol),
		xlogger.String("tf", req.Timeframe),
		xlogger.Int("candles", info.TotalCandles))
	return xhttp.SuccessResponse(c, info)
}

func (h *ReplayEchoHandler) Start(c echo.Context) error {
	if err := h.engine.Start(); err != nil {
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.NoContentResponse(c)
}

func (h *ReplayEchoHandler) Pause(c echo.Context) error {
	h.engine.Pause()
	return xhttp.NoContentResponse(c)
}

func (h *ReplayEchoHandler) Stop(c echo.Context) error {
	h.engine.Stop()
	return xhttp.NoContentResponse(c)
}

func (h *ReplayEchoHandler) StepForward(c echo.Context) error {
	return h.step(c, h.engine.StepForward)
}

func (h *ReplayEchoHandler) StepBackward(c echo.Context) error {
	return h.step(c, h.engine.StepBackward)
}

func (h *ReplayEchoHandler) step(c echo.Context, move func(int) (models.ReplayUpdate, error)) error {
	req := &models.StepRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	upd, err := move(req.Steps)
	if err != nil {
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, upd)
}

func (h *ReplayEchoHandler) Seek(c echo.Context) error {
	req := &models.SeekRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	upd, err := h.engine.Seek(req.Index)
	if err != nil {
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, upd)
}

func (h *ReplayEchoHandler) SetSpeed(c echo.Context) error {
	req := &models.SpeedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	applied := h.engine.SetSpeed(req.Speed)
	if applied != req.Speed {
		h.logger.Info("replay speed clamped",
			xlogger.Float64("requested", req.Speed),
			xlogger.Float64("applied", applied))
	}
	return xhttp.SuccessResponse(c, map[string]float64{"speed": applied})
}

func (h *ReplayEchoHandler) State(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Snapshot())
}

// Stream upgrades to a websocket and pushes one frame per autoplay tick.
// The first frame is the current snapshot so the client can render
// immediately.
func (h *ReplayEchoHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	frames, cancel := h.driver.Subscribe()
	defer cancel()

	if err := conn.WriteJSON(h.engine.Snapshot()); err != nil {
		return nil
	}

	// Read pump: the client never sends data, but reading is required to
	// observe close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	const pingInterval = 30 * time.Second
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return nil
		case upd := <-frames:
			if err := conn.WriteJSON(upd); err != nil {
				return nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return nil
			}
		}
	}
}
