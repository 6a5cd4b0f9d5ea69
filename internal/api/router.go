package api

import (
	"net/http"

	"github.com/Freeeeeet/counseling_scheduler/internal/mw"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter собирает gin-роутер API
func NewRouter(h *Handler, limiter *mw.IPRateLimiter, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if limiter != nil {
		api.Use(mw.RateLimiter(limiter))
	}
	{
		api.POST("/requests", h.SubmitRequest)
		api.GET("/requests", h.ListRequests)
		api.POST("/requests/batch", h.Batch)
		api.GET("/requests/:id", h.GetRequest)
		api.POST("/requests/:id/approve", h.Approve)
		api.POST("/requests/:id/disapprove", h.Disapprove)
		api.POST("/requests/:id/cancel", h.Cancel)
		api.POST("/requests/:id/reschedule", h.Reschedule)
		api.POST("/requests/:id/complete", h.Complete)

		api.GET("/calendar", h.GetCalendar)
		api.GET("/calendar.ics", h.GetCalendarICS)
	}

	return r
}
