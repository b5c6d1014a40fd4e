package guild

import (
	"net/http"

	"github.com/potluckhq/potluck-manager/internal/handler"

	"github.com/gin-gonic/gin"
)

func NewHandler(guildService *Service) Handler {
	return Handler{
		guildService: guildService,
	}
}

type Handler struct {
	guildService *Service
}

type SetTimezoneRequest struct {
	Timezone  string `json:"timezone" binding:"required,iana_tz"`
	UpdatedBy string `json:"updatedBy" binding:"required"`
}

// SetTimezone guild
func (h Handler) SetTimezone(c *gin.Context) {
	guildID := c.Param("guildId")

	var request SetTimezoneRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	settings, err := h.guildService.SetTimezone(c.Request.Context(), guildID, request.Timezone, request.UpdatedBy)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// Settings guild
func (h Handler) Settings(c *gin.Context) {
	guildID := c.Param("guildId")

	settings, err := h.guildService.Settings(c.Request.Context(), guildID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, settings)
}
