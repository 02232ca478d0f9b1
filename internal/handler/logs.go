package handler

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
)

const logWriteTimeout = 5 * time.Second

// streamLogs upgrades the request and forwards each container log line as
// one text message until the container exits or the client goes away.
func (h *StrategyHandler) streamLogs(c *gin.Context, id string, tail int) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	rc, err := h.Manager.FollowLogs(ctx, id, tail)
	if err != nil {
		Error(c, statusFor(err), err.Error(), nil)
		return
	}
	defer rc.Close()

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger().Debug("log stream upgrade failed", zap.String("strategy_id", id), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// A read loop is required to observe client close frames.
	ctx = conn.CloseRead(ctx)
	go func() {
		<-ctx.Done()
		_ = rc.Close()
	}()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		wctx, wcancel := context.WithTimeout(ctx, logWriteTimeout)
		err := conn.Write(wctx, websocket.MessageText, sc.Bytes())
		wcancel()
		if err != nil {
			h.logger().Debug("log stream write failed", zap.String("strategy_id", id), zap.Error(err))
			return
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		h.logger().Warn("log stream read failed", zap.String("strategy_id", id), zap.Error(err))
		_ = conn.Close(websocket.StatusInternalError, "log stream failed")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "container exited")
}

func (h *StrategyHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindProtocol:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTransientInfra:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
