package flow

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup) {
	flows := e.Group("/v1/flows")

	flows.POST("", h.StartFlow)
	flows.GET("/:flow_id", h.GetFlow)
	flows.POST("/:flow_id/events", h.DispatchEvent)
}
