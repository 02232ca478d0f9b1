package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ohlcv/VuePy-Stack/internal/repository"
)

type AuditHandler struct {
	Repo repository.AuditRepository
}

func (h *AuditHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/audit", h.list)
}

// @Summary Lifecycle audit events, newest first
// @Tags audit
// @Param strategy_id query string false "strategy id"
// @Param action query string false "create|start|stop|delete|reconcile|cleanup"
// @Param limit query int false "page size (default 100)"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/audit [get]
func (h *AuditHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListAuditEventsParams{
		Limit:  atoiDefault(c.Query("limit"), 100),
		Offset: atoiDefault(c.Query("offset"), 0),
	}
	if v := strings.TrimSpace(c.Query("strategy_id")); v != "" {
		params.StrategyID = &v
	}
	if v := strings.TrimSpace(c.Query("action")); v != "" {
		params.Action = &v
	}
	items, err := h.Repo.ListAuditEvents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"limit": params.Limit, "offset": params.Offset, "count": len(items)})
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}
