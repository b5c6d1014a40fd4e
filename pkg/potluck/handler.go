package potluck

import (
	"net/http"

	"github.com/potluckhq/potluck-manager/internal/handler"

	"github.com/gin-gonic/gin"
)

func NewHandler(potluckService *Service) Handler {
	return Handler{
		potluckService: potluckService,
	}
}

type Handler struct {
	potluckService *Service
}

type CreateRequest struct {
	Name      string `json:"name" binding:"required"`
	Date      string `json:"date"`
	Theme     string `json:"theme"`
	CreatedBy string `json:"createdBy" binding:"required"`
	GuildID   string `json:"guildId" binding:"required"`
	ChannelID string `json:"channelId" binding:"required"`
	// Items is the raw sign-up list, one item per line (commas work too).
	Items string `json:"items"`
}

// Create potluck
func (h Handler) Create(c *gin.Context) {
	var request CreateRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	potluck, err := h.potluckService.Create(c.Request.Context(), Draft{
		Name:      request.Name,
		Date:      request.Date,
		Theme:     request.Theme,
		CreatedBy: request.CreatedBy,
		GuildID:   request.GuildID,
		ChannelID: request.ChannelID,
		Items:     ParseItemNames(request.Items),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, potluck)
}

// Find potluck
func (h Handler) Find(c *gin.Context) {
	id := c.Param("id")

	potluck, err := h.potluckService.Find(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, potluck)
}

// FindByGuild potlucks
func (h Handler) FindByGuild(c *gin.Context) {
	guildID := c.Param("guildId")

	potlucks, err := h.potluckService.FindByGuild(c.Request.Context(), guildID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, potlucks)
}

type ToggleClaimRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// ToggleClaim item
func (h Handler) ToggleClaim(c *gin.Context) {
	id := c.Param("id")
	itemID := c.Param("itemId")

	var request ToggleClaimRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.potluckService.ToggleClaim(c.Request.Context(), id, itemID, request.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type AddItemRequest struct {
	Name         string `json:"name" binding:"required"`
	ClaimForSelf bool   `json:"claimForSelf"`
	UserID       string `json:"userId" binding:"required"`
}

// AddItem potluck
func (h Handler) AddItem(c *gin.Context) {
	id := c.Param("id")

	var request AddItemRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	item, err := h.potluckService.AddCustomItem(c.Request.Context(), id, request.Name, request.ClaimForSelf, request.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, item)
}
