package guild

import (
	"context"
	"log/slog"
	"time"

	"github.com/potluckhq/potluck-manager/internal/errdef"
	"github.com/potluckhq/potluck-manager/pkg/model"
)

func NewService(logger *slog.Logger, guildRepository guildRepository, defaultLocation *time.Location) *Service {
	return &Service{
		logger:          logger,
		guildRepository: guildRepository,
		defaultLocation: defaultLocation,
	}
}

type guildRepository interface {
	Find(ctx context.Context, guildID string) (*model.GuildSettings, error)
	Upsert(ctx context.Context, settings *model.GuildSettings) error
}

type Service struct {
	logger          *slog.Logger
	guildRepository guildRepository
	defaultLocation *time.Location
}

func (s *Service) Settings(ctx context.Context, guildID string) (*model.GuildSettings, error) {
	return s.guildRepository.Find(ctx, guildID)
}

// SetTimezone stores the default timezone used when resolving dates for new
// potlucks in the guild.
func (s *Service) SetTimezone(ctx context.Context, guildID, timezone, updatedBy string) (*model.GuildSettings, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, errdef.NewBadRequest("unknown timezone %q", timezone)
	}

	settings := &model.GuildSettings{
		GuildID:   guildID,
		Timezone:  timezone,
		UpdatedAt: time.Now(),
		UpdatedBy: updatedBy,
	}

	err := s.guildRepository.Upsert(ctx, settings)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Guild timezone updated", "guildId", guildID, "timezone", timezone, "updatedBy", updatedBy)

	return settings, nil
}

// Location resolves the guild's effective timezone. A guild without stored
// settings uses the configured default; so does a guild whose stored timezone
// no longer loads.
func (s *Service) Location(ctx context.Context, guildID string) *time.Location {
	settings, err := s.guildRepository.Find(ctx, guildID)
	if err != nil {
		if !errdef.IsNotFound(err) {
			s.logger.WarnContext(ctx, "Failed to load guild settings, using default timezone", "guildId", guildID, "error", err)
		}
		return s.defaultLocation
	}

	location, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored guild timezone no longer loads, using default", "guildId", guildID, "timezone", settings.Timezone)
		return s.defaultLocation
	}

	return location
}
