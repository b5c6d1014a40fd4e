package potluck

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/potluckhq/potluck-manager/internal/errdef"
	"github.com/potluckhq/potluck-manager/pkg/model"
)

type potluckRepository interface {
	CreatePotluck(ctx context.Context, potluck *model.Potluck) error
	FindByID(ctx context.Context, id string) (*model.Potluck, error)
	FindByGuild(ctx context.Context, guildID string) ([]model.Potluck, error)
	ClaimItem(ctx context.Context, potluckID, itemID, userID string) (bool, error)
	UnclaimItem(ctx context.Context, potluckID, itemID, userID string) (bool, error)
	AddCustomItem(ctx context.Context, potluckID, name, claimedBy string) (*model.PotluckItem, error)
}

type display interface {
	Refresh(ctx context.Context, potluckID string) bool
	PublishInitial(ctx context.Context, potluck *model.Potluck) error
}

func NewService(logger *slog.Logger, potluckRepository potluckRepository, display display, refreshDelay time.Duration) *Service {
	return &Service{
		logger:            logger,
		potluckRepository: potluckRepository,
		display:           display,
		refreshDelay:      refreshDelay,
	}
}

type Service struct {
	logger            *slog.Logger
	potluckRepository potluckRepository
	display           display
	refreshDelay      time.Duration
}

// Draft carries everything needed to create a potluck. Items are plain names
// in sign-up order.
type Draft struct {
	Name      string
	Date      string
	Theme     string
	CreatedBy string
	GuildID   string
	ChannelID string
	Items     []string

	DiscordEventID  string
	EventStartTime  *time.Time
	EventEndTime    *time.Time
	RsvpSyncEnabled bool
}

// ParseItemNames splits a newline- or comma-separated item list, trimming
// whitespace and dropping empty entries.
func ParseItemNames(text string) []string {
	split := func(r rune) bool {
		return r == '\n' || r == ','
	}

	var names []string
	for _, name := range strings.FieldsFunc(text, split) {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Create persists the potluck and posts its summary message. A display
// failure doesn't fail creation, the potluck exists and the summary can be
// reposted on the next refresh.
func (s *Service) Create(ctx context.Context, draft Draft) (*model.Potluck, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, errdef.NewBadRequest("potluck name can't be empty")
	}

	items := make([]model.PotluckItem, len(draft.Items))
	for i, itemName := range draft.Items {
		items[i] = model.PotluckItem{
			Name:      itemName,
			ClaimedBy: []string{},
		}
	}

	potluck := &model.Potluck{
		Name:            name,
		Date:            draft.Date,
		Theme:           draft.Theme,
		CreatedBy:       draft.CreatedBy,
		GuildID:         draft.GuildID,
		ChannelID:       draft.ChannelID,
		DiscordEventID:  draft.DiscordEventID,
		EventStartTime:  draft.EventStartTime,
		EventEndTime:    draft.EventEndTime,
		RsvpSyncEnabled: draft.RsvpSyncEnabled,
		Items:           items,
	}

	err := s.potluckRepository.CreatePotluck(ctx, potluck)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Potluck created", "potluckId", potluck.ID, "guildId", potluck.GuildID, "items", len(potluck.Items))

	err = s.display.PublishInitial(ctx, potluck)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish potluck summary", "potluckId", potluck.ID, "error", err)
	}

	return potluck, nil
}

func (s *Service) Find(ctx context.Context, id string) (*model.Potluck, error) {
	return s.potluckRepository.FindByID(ctx, id)
}

func (s *Service) FindByGuild(ctx context.Context, guildID string) ([]model.Potluck, error) {
	return s.potluckRepository.FindByGuild(ctx, guildID)
}

type ClaimAction string

const (
	ActionClaimed   ClaimAction = "claimed"
	ActionUnclaimed ClaimAction = "unclaimed"
)

// ClaimResult describes what a toggle did, so the caller can acknowledge the
// user. CoClaimants lists the other users sharing the item after a claim, in
// claim order.
type ClaimResult struct {
	Action      ClaimAction `json:"action"`
	ItemName    string      `json:"itemName"`
	CoClaimants []string    `json:"coClaimants,omitempty"`
}

// ToggleClaim claims the item for the user, or releases it if the user
// already holds a claim, then refreshes the summary message.
func (s *Service) ToggleClaim(ctx context.Context, potluckID, itemID, userID string) (*ClaimResult, error) {
	potluck, err := s.potluckRepository.FindByID(ctx, potluckID)
	if err != nil {
		return nil, err
	}

	item, ok := potluck.FindItem(itemID)
	if !ok {
		return nil, errdef.NewNotFound("item %q doesn't exist on potluck %q", itemID, potluckID)
	}

	result := &ClaimResult{ItemName: item.Name}
	if item.IsClaimedBy(userID) {
		result.Action = ActionUnclaimed
		_, err = s.potluckRepository.UnclaimItem(ctx, potluckID, itemID, userID)
		if err != nil {
			return nil, err
		}
	} else {
		result.Action = ActionClaimed
		_, err = s.potluckRepository.ClaimItem(ctx, potluckID, itemID, userID)
		if err != nil {
			return nil, err
		}

		updated, err := s.potluckRepository.FindByID(ctx, potluckID)
		if err != nil {
			return nil, err
		}
		if updatedItem, ok := updated.FindItem(itemID); ok {
			result.CoClaimants = updatedItem.CoClaimants(userID)
		}
	}

	s.logger.InfoContext(ctx, "Item claim toggled", "potluckId", potluckID, "itemId", itemID, "userId", userID, "action", result.Action)

	s.refreshDisplay(ctx, potluckID)

	return result, nil
}

// AddCustomItem appends a user-supplied item, optionally claiming it for the
// user right away, then refreshes the summary message.
func (s *Service) AddCustomItem(ctx context.Context, potluckID, name string, claimForSelf bool, userID string) (*model.PotluckItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errdef.NewBadRequest("item name can't be empty")
	}

	claimedBy := ""
	if claimForSelf {
		claimedBy = userID
	}

	item, err := s.potluckRepository.AddCustomItem(ctx, potluckID, name, claimedBy)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Custom item added", "potluckId", potluckID, "itemId", item.ID, "claimed", claimForSelf)

	s.refreshDisplay(ctx, potluckID)

	return item, nil
}

// refreshDisplay waits out the short settle delay before re-rendering, so a
// burst of toggles lands on the final state rather than an intermediate one.
func (s *Service) refreshDisplay(ctx context.Context, potluckID string) {
	if s.refreshDelay > 0 {
		select {
		case <-time.After(s.refreshDelay):
		case <-ctx.Done():
			return
		}
	}
	s.display.Refresh(ctx, potluckID)
}
