package eventsync

import (
	"net/http"
	"time"

	"github.com/potluckhq/potluck-manager/internal/handler"
	"github.com/potluckhq/potluck-manager/pkg/dateparse"
	"github.com/potluckhq/potluck-manager/pkg/guild"
	"github.com/potluckhq/potluck-manager/pkg/potluck"

	"github.com/gin-gonic/gin"
)

func NewHandler(eventService *Service, potluckService *potluck.Service, guildService *guild.Service, resolver *dateparse.Resolver) Handler {
	return Handler{
		eventService:   eventService,
		potluckService: potluckService,
		guildService:   guildService,
		resolver:       resolver,
	}
}

type Handler struct {
	eventService   *Service
	potluckService *potluck.Service
	guildService   *guild.Service
	resolver       *dateparse.Resolver
}

type CreateEventRequest struct {
	// Date is a free-text phrase resolved in the guild's timezone. Explicit
	// StartTime/EndTime take precedence.
	Date      string     `json:"date"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Location  string     `json:"location"`
	RsvpSync  bool       `json:"rsvpSync"`
}

// CreateEventResponse reports the created event along with how a free-text
// date was understood, so the caller can ask the user to confirm an ambiguous
// one. DateExamples is populated when the phrase couldn't be parsed at all.
type CreateEventResponse struct {
	Event            *ExternalEvent `json:"event"`
	ResolvedDate     string         `json:"resolvedDate,omitempty"`
	DateWasAmbiguous bool           `json:"dateWasAmbiguous,omitempty"`
	DateExamples     []string       `json:"dateExamples,omitempty"`
}

// CreateEvent for potluck
func (h Handler) CreateEvent(c *gin.Context) {
	id := c.Param("id")

	var request CreateEventRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	p, err := h.potluckService.Find(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	opts := CreateOptions{
		StartTime: request.StartTime,
		EndTime:   request.EndTime,
		Location:  request.Location,
		RsvpSync:  request.RsvpSync,
	}
	response := CreateEventResponse{}
	if opts.StartTime == nil && request.Date != "" {
		location := h.guildService.Location(ctx, p.GuildID)
		parsed := h.resolver.Resolve(request.Date, dateparse.Options{Location: location})
		opts.StartTime = &parsed.StartTime
		if opts.EndTime == nil {
			opts.EndTime = &parsed.EndTime
		}
		response.ResolvedDate = h.resolver.Format(parsed.StartTime, location)
		response.DateWasAmbiguous = parsed.WasAmbiguous
		if parsed.Method == dateparse.MethodDefault {
			response.DateExamples = dateparse.Examples()
		}
	}

	event, err := h.eventService.CreateEventForPotluck(ctx, p, opts)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if event == nil {
		c.JSON(http.StatusAccepted, response)
		return
	}

	response.Event = event
	c.JSON(http.StatusCreated, response)
}

// UpdateEvent from potluck
func (h Handler) UpdateEvent(c *gin.Context) {
	id := c.Param("id")

	ctx := c.Request.Context()
	p, err := h.potluckService.Find(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.eventService.UpdateEventFromPotluck(ctx, p)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// DeleteEvent for potluck
func (h Handler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")

	ctx := c.Request.Context()
	p, err := h.potluckService.Find(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	err = h.eventService.DeleteEventForPotluck(ctx, p)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Participants of the linked event
func (h Handler) Participants(c *gin.Context) {
	id := c.Param("id")

	ctx := c.Request.Context()
	p, err := h.potluckService.Find(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	participants := []Participant{}
	if p.HasEvent() {
		participants = append(participants, h.eventService.EventParticipants(ctx, p.GuildID, p.DiscordEventID)...)
	}

	c.JSON(http.StatusOK, participants)
}

type FromEventRequest struct {
	GuildID   string `json:"guildId" binding:"required"`
	ChannelID string `json:"channelId" binding:"required"`
	EventID   string `json:"eventId" binding:"required"`
	Theme     string `json:"theme"`
	Items     string `json:"items"`
	CreatedBy string `json:"createdBy" binding:"required"`
	RsvpSync  bool   `json:"rsvpSync"`
}

// CreateFromEvent potluck
func (h Handler) CreateFromEvent(c *gin.Context) {
	var request FromEventRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	p, synced, err := h.eventService.CreatePotluckFromEvent(c.Request.Context(), FromEventParams{
		GuildID:   request.GuildID,
		ChannelID: request.ChannelID,
		EventID:   request.EventID,
		Theme:     request.Theme,
		Items:     potluck.ParseItemNames(request.Items),
		CreatedBy: request.CreatedBy,
		RsvpSync:  request.RsvpSync,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"potluck": p, "eventSynced": synced})
}
