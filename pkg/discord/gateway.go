package discord

import (
	"context"
	"log/slog"

	"github.com/potluckhq/potluck-manager/pkg/eventsync"

	"github.com/bwmarrin/discordgo"
)

func NewGateway(logger *slog.Logger, eventService *eventsync.Service) *Gateway {
	return &Gateway{
		logger:       logger,
		eventService: eventService,
	}
}

// Gateway bridges Discord's gateway notifications onto the synchronizer's
// typed methods. Handlers run on discordgo's dispatch goroutine and must not
// block for long.
type Gateway struct {
	logger       *slog.Logger
	eventService *eventsync.Service
}

// Register attaches the gateway handlers to the session. Call before opening
// the session.
func (g *Gateway) Register(session *discordgo.Session) {
	session.AddHandler(g.onEventUpdate)
	session.AddHandler(g.onEventDelete)
	session.AddHandler(g.onSubscriberAdd)
	session.AddHandler(g.onSubscriberRemove)
}

func (g *Gateway) onEventUpdate(_ *discordgo.Session, update *discordgo.GuildScheduledEventUpdate) {
	ctx := context.Background()

	if update.Status == discordgo.GuildScheduledEventStatusCanceled {
		err := g.eventService.HandleEventDeleted(ctx, update.ID)
		if err != nil {
			g.logger.ErrorContext(ctx, "Failed to handle canceled event", "eventId", update.ID, "error", err)
		}
		return
	}

	err := g.eventService.SyncPotluckFromEvent(ctx, *externalEvent(update.GuildScheduledEvent))
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to sync potluck from event update", "eventId", update.ID, "error", err)
	}
}

func (g *Gateway) onEventDelete(_ *discordgo.Session, deletion *discordgo.GuildScheduledEventDelete) {
	ctx := context.Background()

	err := g.eventService.HandleEventDeleted(ctx, deletion.ID)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to handle deleted event", "eventId", deletion.ID, "error", err)
	}
}

func (g *Gateway) onSubscriberAdd(_ *discordgo.Session, add *discordgo.GuildScheduledEventUserAdd) {
	g.eventService.HandleSubscriberAdded(context.Background(), add.GuildScheduledEventID, add.UserID)
}

func (g *Gateway) onSubscriberRemove(_ *discordgo.Session, remove *discordgo.GuildScheduledEventUserRemove) {
	g.eventService.HandleSubscriberRemoved(context.Background(), remove.GuildScheduledEventID, remove.UserID)
}
