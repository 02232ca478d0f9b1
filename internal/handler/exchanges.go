package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type ExchangeHandler struct {
	Manager Manager
}

func (h *ExchangeHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/exchanges", h.list)
	group.GET("/exchanges/:id/pairs", h.pairs)
	group.POST("/exchanges/:id/validate", h.validate)
	group.POST("/image/ensure", h.ensureImage)
}

// @Summary Supported exchanges
// @Tags exchanges
// @Success 200 {object} apiResponse
// @Router /api/v1/exchanges [get]
func (h *ExchangeHandler) list(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return
	}
	items := h.Manager.Exchanges()
	Ok(c, items, map[string]any{"count": len(items)})
}

// @Summary Trading pairs listed by an exchange
// @Tags exchanges
// @Param id path string true "exchange id"
// @Param testnet query bool false "use the testnet host"
// @Success 200 {object} apiResponse
// @Router /api/v1/exchanges/{id}/pairs [get]
func (h *ExchangeHandler) pairs(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return
	}
	testnet := false
	if raw := strings.TrimSpace(c.Query("testnet")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "testnet must be a boolean", nil)
			return
		}
		testnet = v
	}
	res := h.Manager.TradingPairs(c.Request.Context(), c.Param("id"), testnet)
	if !res.Success {
		Error(c, http.StatusBadGateway, res.Message, nil)
		return
	}
	Ok(c, res.Pairs, map[string]any{"exchange": res.Exchange, "testnet": res.Testnet, "count": len(res.Pairs)})
}

type validateRequest struct {
	APIKey string `json:"api_key"`
	Secret string `json:"secret"`
}

// @Summary Check exchange connectivity and optional credentials
// @Tags exchanges
// @Param id path string true "exchange id"
// @Param body body validateRequest false "credentials"
// @Success 200 {object} apiResponse
// @Router /api/v1/exchanges/{id}/validate [post]
func (h *ExchangeHandler) validate(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return
	}
	var req validateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid json body: "+err.Error(), nil)
			return
		}
	}
	res := h.Manager.ValidateExchange(c.Request.Context(), c.Param("id"), req.APIKey, req.Secret)
	outcome(c, res.Success, res.Message, res)
}

// @Summary Ensure the strategy image is present, pulling when allowed
// @Tags image
// @Param tag query string false "image tag"
// @Success 200 {object} apiResponse
// @Router /api/v1/image/ensure [post]
func (h *ExchangeHandler) ensureImage(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return
	}
	res := h.Manager.EnsureImage(c.Request.Context(), strings.TrimSpace(c.Query("tag")))
	outcome(c, res.OK, res.Message, res)
}
