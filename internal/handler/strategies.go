package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/container"
)

type StrategyHandler struct {
	Manager Manager
	Logger  *zap.Logger
	LogTail int
}

func (h *StrategyHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/strategies")
	group.GET("", h.list)
	group.POST("", h.create)
	group.POST("/reconcile", h.reconcile)
	group.GET("/:id", h.status)
	group.DELETE("/:id", h.remove)
	group.POST("/:id/start", h.start)
	group.POST("/:id/stop", h.stop)
	group.GET("/:id/logs", h.logs)
}

// @Summary List strategies with live container status
// @Tags strategies
// @Produce json
// @Success 200 {object} apiResponse
// @Router /api/v1/strategies [get]
func (h *StrategyHandler) list(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return
	}
	res := h.Manager.ListStrategies(c.Request.Context())
	if !res.Success {
		Error(c, http.StatusBadGateway, res.Message, nil)
		return
	}
	Ok(c, res.Strategies, map[string]any{"count": len(res.Strategies)})
}

// @Summary Create a grid strategy and its container
// @Tags strategies
// @Accept json
// @Produce json
// @Param body body map[string]interface{} true "strategy parameters"
// @Success 200 {object} apiResponse
// @Failure 422 {object} apiResponse
// @Router /api/v1/strategies [post]
func (h *StrategyHandler) create(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid json body: "+err.Error(), nil)
		return
	}
	res := h.Manager.CreateStrategy(c.Request.Context(), body)
	outcome(c, res.Success, res.Message, res)
}

// @Summary Strategy and container status
// @Tags strategies
// @Produce json
// @Param id path string true "strategy id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/strategies/{id} [get]
func (h *StrategyHandler) status(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	res := h.Manager.GetStatus(c.Request.Context(), id)
	if res.Strategy == nil && res.Container.Status == container.StatusNotFound {
		c.JSON(http.StatusNotFound, apiResponse{Code: http.StatusNotFound, Message: res.Message, Data: res})
		return
	}
	outcome(c, res.Success, res.Message, res)
}

// @Summary Start a strategy container
// @Tags strategies
// @Param id path string true "strategy id"
// @Success 200 {object} apiResponse
// @Router /api/v1/strategies/{id}/start [post]
func (h *StrategyHandler) start(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	res := h.Manager.StartStrategy(c.Request.Context(), id)
	outcome(c, res.Success, res.Message, res)
}

// @Summary Stop a strategy container
// @Tags strategies
// @Param id path string true "strategy id"
// @Success 200 {object} apiResponse
// @Router /api/v1/strategies/{id}/stop [post]
func (h *StrategyHandler) stop(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	res := h.Manager.StopStrategy(c.Request.Context(), id)
	outcome(c, res.Success, res.Message, res)
}

// @Summary Delete a strategy, its container and its files
// @Tags strategies
// @Param id path string true "strategy id"
// @Success 200 {object} apiResponse
// @Router /api/v1/strategies/{id} [delete]
func (h *StrategyHandler) remove(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	res := h.Manager.DeleteStrategy(c.Request.Context(), id)
	outcome(c, res.Success, res.Message, res)
}

// @Summary Sync stored status with live containers
// @Tags strategies
// @Success 200 {object} apiResponse
// @Router /api/v1/strategies/reconcile [post]
func (h *StrategyHandler) reconcile(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return
	}
	res := h.Manager.Reconcile(c.Request.Context())
	outcome(c, res.Success, res.Message, res)
}

// @Summary Container logs; follow=true upgrades to a websocket stream
// @Tags strategies
// @Param id path string true "strategy id"
// @Param tail query int false "number of trailing lines"
// @Param follow query bool false "stream over websocket"
// @Success 200 {object} apiResponse
// @Router /api/v1/strategies/{id}/logs [get]
func (h *StrategyHandler) logs(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	tail := h.LogTail
	if raw := strings.TrimSpace(c.Query("tail")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			Error(c, http.StatusBadRequest, "tail must be a non-negative integer", nil)
			return
		}
		tail = n
	}
	if follow, _ := strconv.ParseBool(c.Query("follow")); follow {
		h.streamLogs(c, id, tail)
		return
	}
	text, err := h.Manager.Logs(c.Request.Context(), id, tail)
	if err != nil {
		Error(c, statusFor(err), err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": id, "logs": text}, nil)
}

func (h *StrategyHandler) id(c *gin.Context) (string, bool) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return "", false
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return "", false
	}
	return id, true
}
