package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/potluckhq/potluck-manager/internal/errdef"
	"github.com/potluckhq/potluck-manager/pkg/eventsync"

	"github.com/bwmarrin/discordgo"
)

func NewProvider(session *discordgo.Session) *Provider {
	return &Provider{
		session: session,
	}
}

// Provider implements the scheduled-event contract on top of Discord's guild
// scheduled events API.
type Provider struct {
	session *discordgo.Session
}

func (p *Provider) MissingPermissions(ctx context.Context, guildID string) ([]string, error) {
	guild, err := p.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild %q: %v", guildID, err)
	}

	member, err := p.session.GuildMember(guildID, p.session.State.User.ID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch own guild member: %v", err)
	}

	var permissions int64
	for _, role := range guild.Roles {
		// the @everyone role shares the guild's ID
		if role.ID == guildID || slices.Contains(member.Roles, role.ID) {
			permissions |= role.Permissions
		}
	}

	if permissions&discordgo.PermissionAdministrator != 0 {
		return nil, nil
	}

	var missing []string
	if permissions&discordgo.PermissionManageEvents == 0 {
		missing = append(missing, "Manage Events")
	}
	if permissions&discordgo.PermissionSendMessages == 0 {
		missing = append(missing, "Send Messages")
	}
	return missing, nil
}

func (p *Provider) CreateEvent(ctx context.Context, guildID string, draft eventsync.EventDraft) (*eventsync.ExternalEvent, error) {
	event, err := p.session.GuildScheduledEventCreate(guildID, eventParams(draft), discordgo.WithContext(ctx))
	if err != nil {
		return nil, translateError(err, "failed to create scheduled event")
	}
	return externalEvent(event), nil
}

func (p *Provider) UpdateEvent(ctx context.Context, guildID, eventID string, draft eventsync.EventDraft) (*eventsync.ExternalEvent, error) {
	event, err := p.session.GuildScheduledEventEdit(guildID, eventID, eventParams(draft), discordgo.WithContext(ctx))
	if err != nil {
		return nil, translateError(err, "failed to edit scheduled event")
	}
	return externalEvent(event), nil
}

func (p *Provider) DeleteEvent(ctx context.Context, guildID, eventID string) error {
	err := p.session.GuildScheduledEventDelete(guildID, eventID, discordgo.WithContext(ctx))
	if err != nil {
		return translateError(err, "failed to delete scheduled event")
	}
	return nil
}

func (p *Provider) Event(ctx context.Context, guildID, eventID string) (*eventsync.ExternalEvent, error) {
	event, err := p.session.GuildScheduledEvent(guildID, eventID, false, discordgo.WithContext(ctx))
	if err != nil {
		return nil, translateError(err, "failed to fetch scheduled event")
	}
	return externalEvent(event), nil
}

func (p *Provider) EventParticipants(ctx context.Context, guildID, eventID string) ([]eventsync.Participant, error) {
	users, err := p.session.GuildScheduledEventUsers(guildID, eventID, 100, false, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, translateError(err, "failed to list event subscribers")
	}

	participants := make([]eventsync.Participant, 0, len(users))
	for _, user := range users {
		if user.User == nil {
			continue
		}
		participants = append(participants, eventsync.Participant{
			UserID:   user.User.ID,
			Username: user.User.Username,
		})
	}
	return participants, nil
}

func eventParams(draft eventsync.EventDraft) *discordgo.GuildScheduledEventParams {
	startTime := draft.StartTime
	endTime := draft.EndTime
	location := draft.Location
	if location == "" {
		location = "See potluck details"
	}
	return &discordgo.GuildScheduledEventParams{
		Name:               draft.Name,
		Description:        draft.Description,
		ScheduledStartTime: &startTime,
		ScheduledEndTime:   &endTime,
		EntityType:         discordgo.GuildScheduledEventEntityTypeExternal,
		EntityMetadata:     &discordgo.GuildScheduledEventEntityMetadata{Location: location},
		PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
	}
}

func externalEvent(event *discordgo.GuildScheduledEvent) *eventsync.ExternalEvent {
	external := &eventsync.ExternalEvent{
		ID:          event.ID,
		GuildID:     event.GuildID,
		Name:        event.Name,
		Description: event.Description,
		StartTime:   event.ScheduledStartTime,
		EndTime:     event.ScheduledEndTime,
		Status:      eventStatus(event.Status),
	}
	external.Location = event.EntityMetadata.Location
	return external
}

func eventStatus(status discordgo.GuildScheduledEventStatus) eventsync.Status {
	switch status {
	case discordgo.GuildScheduledEventStatusActive:
		return eventsync.StatusActive
	case discordgo.GuildScheduledEventStatusCompleted:
		return eventsync.StatusCompleted
	case discordgo.GuildScheduledEventStatusCanceled:
		return eventsync.StatusCanceled
	default:
		return eventsync.StatusScheduled
	}
}

func translateError(err error, message string) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return errdef.NewNotFound("%s: not found", message)
	}
	return fmt.Errorf("%s: %v", message, err)
}
