package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/communityforge/notify/pkg/notify"
	"github.com/communityforge/notify/pkg/ratelimit"
)

// NotificationController exposes one POST endpoint per registered notification
// kind under /api/notifications/<kind>.
type NotificationController struct {
	executor *notify.Executor
	log      *zap.SugaredLogger
	limiter  *ratelimit.IPRateLimiter
}

func NewNotificationController(executor *notify.Executor, log *zap.SugaredLogger, limiter *ratelimit.IPRateLimiter) *NotificationController {
	return &NotificationController{
		executor: executor,
		log:      log,
		limiter:  limiter,
	}
}

func (nc *NotificationController) BasePath() string {
	return "notifications"
}

func (nc *NotificationController) Handlers() []gin.HandlerFunc {
	if nc.limiter == nil {
		return nil
	}
	return []gin.HandlerFunc{nc.limiter.Middleware()}
}

func (nc *NotificationController) Register(rg *gin.RouterGroup) error {
	for _, kind := range notify.Kinds() {
		rg.POST("/"+string(kind), nc.dispatch(kind))
	}
	return nil
}

func (nc *NotificationController) dispatch(kind notify.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload notify.Payload
		if err := c.ShouldBindJSON(&payload); err != nil {
			nc.log.Warnw("Rejected malformed dispatch request", "kind", kind, "error", err)
			RespondError(c, http.StatusBadRequest, "Invalid JSON payload")
			return
		}

		result := nc.executor.Dispatch(c.Request.Context(), notify.Request{
			Kind:    kind,
			Payload: payload,
		})
		RespondResult(c, result)
	}
}
