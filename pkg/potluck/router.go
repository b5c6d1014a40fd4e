package potluck

import (
	"github.com/gin-gonic/gin"
)

func Routes(r *gin.RouterGroup, handler Handler) {
	r.POST("/potlucks", handler.Create)
	r.GET("/potlucks/:id", handler.Find)
	r.GET("/guilds/:guildId/potlucks", handler.FindByGuild)
	r.PUT("/potlucks/:id/items/:itemId/claim", handler.ToggleClaim)
	r.POST("/potlucks/:id/items", handler.AddItem)
}
