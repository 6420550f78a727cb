package api

import (
	"ChartFlux/internal/domain/models"
	domrepo "ChartFlux/internal/domain/repository"
	"ChartFlux/internal/usecase"
	xhttp "ChartFlux/pkg/http"
	xlogger "ChartFlux/pkg/logger"

	"github.com/labstack/echo/v4"
)

const appInfo = "ChartFlux v1.0"

// MarketEchoHandler exposes the series cache, aggregation, import, session
// and drawing operations over Echo.
type MarketEchoHandler struct {
	logger   *xlogger.Logger
	uc       *usecase.MarketDataUseCase
	drawings domrepo.DrawingStore
}

func NewMarketEchoHandler(logger *xlogger.Logger, uc *usecase.MarketDataUseCase, drawings domrepo.DrawingStore) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, uc: uc, drawings: drawings}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/info", h.Info)
	g.GET("/symbols", h.Symbols)
	g.GET("/candles", h.Candles)
	g.GET("/candles/window", h.Window)
	g.GET("/aggregate", h.Aggregate)
	g.POST("/import", h.Import)
	g.GET("/session", h.GetSession)
	g.PUT("/session", h.UpdateSession)
	g.GET("/cache/stats", h.CacheStats)
	g.DELETE("/cache", h.ClearCache)
	g.GET("/drawings/:symbol/:tf", h.LoadDrawings)
	g.PUT("/drawings/:symbol/:tf", h.SaveDrawings)
}

func (h *MarketEchoHandler) Info(c echo.Context) error {
	return xhttp.SuccessResponse(c, appInfo)
}

func (h *MarketEchoHandler) Symbols(c echo.Context) error {
	symbols, err := h.uc.Symbols(c.Request().Context())
	if err != nil {
		h.logger.Error("symbols error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, symbols)
}

func (h *MarketEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	data, err := h.uc.LoadSeries(c.Request().Context(), req.Symbol, req.Timeframe)
	if err != nil {
		h.logger.Error("load series error",
			xlogger.String("symbol", req.Symbol),
			xlogger.String("tf", req.Timeframe),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, models.NewCandleResponses(data))
}

func (h *MarketEchoHandler) Window(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// end defaults past any series length and is clamped by the use case
	startIdx := xhttp.ParseIntDefault(c.QueryParam("start"), 0)
	endIdx := xhttp.ParseIntDefault(c.QueryParam("end"), int(^uint(0)>>1))
	data, err := h.uc.Window(c.Request().Context(), req.Symbol, req.Timeframe, startIdx, endIdx)
	if err != nil {
		h.logger.Error("window error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, models.NewCandleResponses(data))
}

func (h *MarketEchoHandler) Aggregate(c echo.Context) error {
	req := &models.AggregateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	data, err := h.uc.AggregateSeries(c.Request().Context(), req.Symbol, req.SourceTF, req.TargetTF)
	if err != nil {
		h.logger.Error("aggregate error",
			xlogger.String("symbol", req.Symbol),
			xlogger.String("source_tf", req.SourceTF),
			xlogger.String("target_tf", req.TargetTF),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, models.NewCandleResponses(data))
}

func (h *MarketEchoHandler) Import(c echo.Context) error {
	req := &models.ImportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.ImportCSV(c.Request().Context(), req.FilePath, req.Symbol, req.Timeframe)
	if err != nil {
		h.logger.Error("import error",
			xlogger.String("file", req.FilePath),
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) GetSession(c echo.Context) error {
	return xhttp.SuccessResponse(c, sessionResponse(h.uc.Session()))
}

func (h *MarketEchoHandler) UpdateSession(c echo.Context) error {
	req := &models.SessionConfigRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	cfg, err := h.uc.UpdateSession(*req)
	if err != nil {
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, sessionResponse(cfg))
}

func (h *MarketEchoHandler) CacheStats(c echo.Context) error {
	stats := h.uc.CacheStats()
	return xhttp.SuccessResponse(c, models.CacheStatsResponse{
		Entries:      stats.Entries,
		TotalCandles: stats.TotalCandles,
	})
}

func (h *MarketEchoHandler) ClearCache(c echo.Context) error {
	h.uc.ClearCache()
	return xhttp.NoContentResponse(c)
}

func (h *MarketEchoHandler) LoadDrawings(c echo.Context) error {
	tf, err := models.ParseTimeFrame(c.Param("tf"))
	if err != nil {
		return xhttp.AppErrorResponse(c, appError(err))
	}
	drawings, err := h.drawings.LoadDrawings(c.Request().Context(), c.Param("symbol"), tf)
	if err != nil {
		h.logger.Error("load drawings error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, drawings)
}

func (h *MarketEchoHandler) SaveDrawings(c echo.Context) error {
	tf, err := models.ParseTimeFrame(c.Param("tf"))
	if err != nil {
		return xhttp.AppErrorResponse(c, appError(err))
	}
	var body struct {
		Drawings string `json:"drawings"`
	}
	if err := c.Bind(&body); err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if err := h.drawings.SaveDrawings(c.Request().Context(), c.Param("symbol"), tf, body.Drawings); err != nil {
		h.logger.Error("save drawings error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.NoContentResponse(c)
}

func sessionResponse(cfg models.SessionConfig) models.SessionConfigResponse {
	return models.SessionConfigResponse{
		Symbol:       cfg.Symbol,
		Timeframe:    cfg.Timeframe.String(),
		StartTime:    cfg.StartTime,
		EndTime:      cfg.EndTime,
		MaxCacheSize: cfg.MaxCacheSize,
	}
}
