package guild

import (
	"github.com/gin-gonic/gin"
)

func Routes(r *gin.RouterGroup, handler Handler) {
	r.GET("/guilds/:guildId/settings", handler.Settings)
	r.PUT("/guilds/:guildId/timezone", handler.SetTimezone)
}
