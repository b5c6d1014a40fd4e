package eventsync

import (
	"github.com/gin-gonic/gin"
)

func Routes(r *gin.RouterGroup, handler Handler) {
	r.POST("/potlucks/:id/event", handler.CreateEvent)
	r.PUT("/potlucks/:id/event", handler.UpdateEvent)
	r.DELETE("/potlucks/:id/event", handler.DeleteEvent)
	r.GET("/potlucks/:id/participants", handler.Participants)
	r.POST("/potlucks/from-event", handler.CreateFromEvent)
}
