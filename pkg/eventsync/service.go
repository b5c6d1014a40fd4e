package eventsync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/potluckhq/potluck-manager/internal/errdef"
	"github.com/potluckhq/potluck-manager/pkg/dateparse"
	"github.com/potluckhq/potluck-manager/pkg/model"
	"github.com/potluckhq/potluck-manager/pkg/potluck"
)

const (
	defaultStartLead = 2 * time.Hour
	defaultDuration  = 3 * time.Hour

	maxDescriptionItems  = 10
	maxDescriptionLength = 1000
)

type eventStore interface {
	FindByEventID(ctx context.Context, eventID string) (*model.Potluck, error)
	UpdateDiscordEvent(ctx context.Context, id, eventID string, startTime, endTime *time.Time, rsvpSyncEnabled bool) (bool, error)
	UpdatePotluck(ctx context.Context, potluck *model.Potluck) error
}

type potluckCreator interface {
	Create(ctx context.Context, draft potluck.Draft) (*model.Potluck, error)
}

type display interface {
	Refresh(ctx context.Context, potluckID string) bool
}

type locations interface {
	Location(ctx context.Context, guildID string) *time.Location
}

func NewService(logger *slog.Logger, provider Provider, eventStore eventStore, potluckCreator potluckCreator, display display, locations locations) *Service {
	return &Service{
		logger:         logger,
		provider:       provider,
		eventStore:     eventStore,
		potluckCreator: potluckCreator,
		display:        display,
		locations:      locations,
	}
}

// Service keeps potlucks and their linked scheduled events consistent in both
// directions. Outbound writes go through the Provider; inbound notifications
// arrive as typed method calls from the gateway bridge.
type Service struct {
	logger         *slog.Logger
	provider       Provider
	eventStore     eventStore
	potluckCreator potluckCreator
	display        display
	locations      locations
}

type CreateOptions struct {
	StartTime *time.Time
	EndTime   *time.Time
	Location  string
	RsvpSync  bool
}

// CreateEventForPotluck creates a scheduled event for the potluck and links
// it. A missing permission is the user's problem to fix and comes back as
// errdef.Forbidden; any other provider fault degrades to a nil event so the
// potluck itself is unaffected.
func (s *Service) CreateEventForPotluck(ctx context.Context, p *model.Potluck, opts CreateOptions) (*ExternalEvent, error) {
	if p.HasEvent() {
		return nil, errdef.NewDuplicated("potluck %q is already linked to event %q", p.ID, p.DiscordEventID)
	}

	if err := s.checkPermissions(ctx, p.GuildID); err != nil {
		return nil, err
	}

	startTime := time.Now().Add(defaultStartLead)
	if opts.StartTime != nil {
		startTime = *opts.StartTime
	}
	endTime := startTime.Add(defaultDuration)
	if opts.EndTime != nil {
		endTime = *opts.EndTime
	}

	event, err := s.provider.CreateEvent(ctx, p.GuildID, EventDraft{
		Name:        p.Name,
		Description: buildEventDescription(*p),
		Location:    opts.Location,
		StartTime:   startTime,
		EndTime:     endTime,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create scheduled event", "potluckId", p.ID, "guildId", p.GuildID, "error", err)
		return nil, nil
	}

	_, err = s.eventStore.UpdateDiscordEvent(ctx, p.ID, event.ID, &startTime, &endTime, opts.RsvpSync)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist event linkage", "potluckId", p.ID, "eventId", event.ID, "error", err)
		return event, nil
	}

	p.DiscordEventID = event.ID
	p.EventStartTime = &startTime
	p.EventEndTime = &endTime
	p.RsvpSyncEnabled = opts.RsvpSync

	s.logger.InfoContext(ctx, "Scheduled event created", "potluckId", p.ID, "eventId", event.ID)

	s.display.Refresh(ctx, p.ID)

	return event, nil
}

// UpdateEventFromPotluck pushes the potluck's current name, description and
// times to the linked event. It reports false without error when there is
// nothing to do: the potluck is unlinked, permissions are missing, the event
// is gone, or the event already started.
func (s *Service) UpdateEventFromPotluck(ctx context.Context, p *model.Potluck) (bool, error) {
	if !p.HasEvent() {
		return false, nil
	}

	if err := s.checkPermissions(ctx, p.GuildID); err != nil {
		s.logger.WarnContext(ctx, "Skipping event update, permissions missing", "potluckId", p.ID, "eventId", p.DiscordEventID)
		return false, nil
	}

	event, err := s.provider.Event(ctx, p.GuildID, p.DiscordEventID)
	if errdef.IsNotFound(err) {
		s.logger.InfoContext(ctx, "Linked event no longer exists, clearing linkage", "potluckId", p.ID, "eventId", p.DiscordEventID)
		s.clearLinkage(ctx, p)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if event.Status == StatusActive || event.Status == StatusCompleted {
		s.logger.InfoContext(ctx, "Skipping event update, event already started", "potluckId", p.ID, "eventId", event.ID, "status", event.Status)
		return false, nil
	}

	startTime := event.StartTime
	if p.EventStartTime != nil {
		startTime = *p.EventStartTime
	}
	endTime := startTime.Add(defaultDuration)
	if p.EventEndTime != nil {
		endTime = *p.EventEndTime
	} else if event.EndTime != nil {
		endTime = *event.EndTime
	}

	_, err = s.provider.UpdateEvent(ctx, p.GuildID, p.DiscordEventID, EventDraft{
		Name:        p.Name,
		Description: buildEventDescription(*p),
		Location:    event.Location,
		StartTime:   startTime,
		EndTime:     endTime,
	})
	if err != nil {
		return false, err
	}

	s.logger.InfoContext(ctx, "Scheduled event updated", "potluckId", p.ID, "eventId", p.DiscordEventID)

	return true, nil
}

// DeleteEventForPotluck deletes the linked event and clears the linkage. The
// linkage is cleared even when the remote delete fails, an orphaned event is
// better than a potluck stuck pointing at one.
func (s *Service) DeleteEventForPotluck(ctx context.Context, p *model.Potluck) error {
	if !p.HasEvent() {
		return nil
	}

	if err := s.checkPermissions(ctx, p.GuildID); err != nil {
		return err
	}

	err := s.provider.DeleteEvent(ctx, p.GuildID, p.DiscordEventID)
	if err != nil && !errdef.IsNotFound(err) {
		s.logger.WarnContext(ctx, "Failed to delete scheduled event", "potluckId", p.ID, "eventId", p.DiscordEventID, "error", err)
	}

	s.logger.InfoContext(ctx, "Scheduled event unlinked", "potluckId", p.ID, "eventId", p.DiscordEventID)

	s.clearLinkage(ctx, p)
	s.display.Refresh(ctx, p.ID)

	return nil
}

// SyncPotluckFromEvent applies an inbound event update to the linked potluck.
// Events we never linked are ignored.
func (s *Service) SyncPotluckFromEvent(ctx context.Context, event ExternalEvent) error {
	p, err := s.eventStore.FindByEventID(ctx, event.ID)
	if errdef.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	location := s.locations.Location(ctx, p.GuildID)

	p.Name = event.Name
	startTime := event.StartTime
	p.EventStartTime = &startTime
	p.EventEndTime = event.EndTime
	p.Date = dateparse.Format(event.StartTime, location)

	err = s.eventStore.UpdatePotluck(ctx, p)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Potluck synced from event", "potluckId", p.ID, "eventId", event.ID)

	s.display.Refresh(ctx, p.ID)

	return nil
}

// HandleEventDeleted clears the linkage when the event is deleted on the
// platform side. The potluck itself lives on.
func (s *Service) HandleEventDeleted(ctx context.Context, eventID string) error {
	p, err := s.eventStore.FindByEventID(ctx, eventID)
	if errdef.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Linked event deleted on platform, clearing linkage", "potluckId", p.ID, "eventId", eventID)

	s.clearLinkage(ctx, p)
	s.display.Refresh(ctx, p.ID)

	return nil
}

// HandleSubscriberAdded records an RSVP signal for a linked potluck.
func (s *Service) HandleSubscriberAdded(ctx context.Context, eventID, userID string) {
	s.logSubscriberChange(ctx, eventID, userID, "added")
}

// HandleSubscriberRemoved records a withdrawn RSVP for a linked potluck.
func (s *Service) HandleSubscriberRemoved(ctx context.Context, eventID, userID string) {
	s.logSubscriberChange(ctx, eventID, userID, "removed")
}

func (s *Service) logSubscriberChange(ctx context.Context, eventID, userID, change string) {
	p, err := s.eventStore.FindByEventID(ctx, eventID)
	if err != nil || !p.RsvpSyncEnabled {
		return
	}
	s.logger.InfoContext(ctx, "Event subscriber "+change, "potluckId", p.ID, "eventId", eventID, "userId", userID)
}

// EventParticipants returns the event's current subscribers. Provider faults
// degrade to an empty list.
func (s *Service) EventParticipants(ctx context.Context, guildID, eventID string) []Participant {
	participants, err := s.provider.EventParticipants(ctx, guildID, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to list event participants", "guildId", guildID, "eventId", eventID, "error", err)
		return nil
	}
	return participants
}

type FromEventParams struct {
	GuildID   string
	ChannelID string
	EventID   string
	Theme     string
	Items     []string
	CreatedBy string
	RsvpSync  bool
}

// CreatePotluckFromEvent creates a potluck out of an existing scheduled
// event, deriving name, date label and times from the event. The potluck
// details are pushed back into the event description; a permission failure
// there leaves the potluck created but unsynced, reported via the returned
// flag.
func (s *Service) CreatePotluckFromEvent(ctx context.Context, params FromEventParams) (*model.Potluck, bool, error) {
	existing, err := s.eventStore.FindByEventID(ctx, params.EventID)
	if err == nil {
		return nil, false, errdef.NewDuplicated("event %q is already linked to potluck %q", params.EventID, existing.ID)
	}
	if !errdef.IsNotFound(err) {
		return nil, false, err
	}

	event, err := s.provider.Event(ctx, params.GuildID, params.EventID)
	if err != nil {
		return nil, false, err
	}

	location := s.locations.Location(ctx, params.GuildID)

	startTime := event.StartTime
	endTime := event.EndTime
	if endTime == nil {
		computed := startTime.Add(defaultDuration)
		endTime = &computed
	}

	p, err := s.potluckCreator.Create(ctx, potluck.Draft{
		Name:            event.Name,
		Date:            dateparse.Format(event.StartTime, location),
		Theme:           params.Theme,
		CreatedBy:       params.CreatedBy,
		GuildID:         params.GuildID,
		ChannelID:       params.ChannelID,
		Items:           params.Items,
		DiscordEventID:  event.ID,
		EventStartTime:  &startTime,
		EventEndTime:    endTime,
		RsvpSyncEnabled: params.RsvpSync,
	})
	if err != nil {
		return nil, false, err
	}

	synced, err := s.UpdateEventFromPotluck(ctx, p)
	if err != nil {
		s.logger.WarnContext(ctx, "Potluck created but event description not synced", "potluckId", p.ID, "eventId", event.ID, "error", err)
		return p, false, nil
	}

	return p, synced, nil
}

func (s *Service) checkPermissions(ctx context.Context, guildID string) error {
	missing, err := s.provider.MissingPermissions(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to check permissions: %v", err)
	}
	if len(missing) > 0 {
		return errdef.NewForbidden("missing required permissions: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) clearLinkage(ctx context.Context, p *model.Potluck) {
	_, err := s.eventStore.UpdateDiscordEvent(ctx, p.ID, "", nil, nil, false)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear event linkage", "potluckId", p.ID, "error", err)
		return
	}
	p.DiscordEventID = ""
	p.EventStartTime = nil
	p.EventEndTime = nil
	p.RsvpSyncEnabled = false
}

// buildEventDescription renders the potluck into the event description field,
// bounded to the platform's length limit. Only the first few items are
// listed.
func buildEventDescription(p model.Potluck) string {
	var b strings.Builder
	if p.Date != "" {
		fmt.Fprintf(&b, "📅 %s\n", p.Date)
	}
	if p.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", p.Theme)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString("What's on the menu:\n")
	for i, item := range p.Items {
		if i == maxDescriptionItems {
			fmt.Fprintf(&b, "...and %d more!\n", len(p.Items)-maxDescriptionItems)
			break
		}
		glyph := "⬜"
		if len(item.ClaimedBy) > 0 {
			glyph = "✅"
		}
		fmt.Fprintf(&b, "%s %s\n", glyph, item.Name)
	}

	description := b.String()
	if len(description) > maxDescriptionLength {
		cut := maxDescriptionLength - 3
		for cut > 0 && !utf8.RuneStart(description[cut]) {
			cut--
		}
		description = description[:cut] + "..."
	}
	return description
}
