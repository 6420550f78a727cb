package api

import (
	xhttp "ChartFlux/pkg/http"

	"github.com/labstack/echo/v4"
)

// Router bundles the API handlers into one route registrar for the server.
type Router struct {
	market *MarketEchoHandler
	replay *ReplayEchoHandler
}

func NewRouter(market *MarketEchoHandler, replay *ReplayEchoHandler) *Router {
	return &Router{market: market, replay: replay}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.market.RegisterRoutes(e)
	r.replay.RegisterRoutes(e)
}

var _ xhttp.Handler = (*Router)(nil)
