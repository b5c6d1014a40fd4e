package guild

import (
	"context"
	"errors"
	"fmt"

	"github.com/potluckhq/potluck-manager/internal/errdef"
	"github.com/potluckhq/potluck-manager/pkg/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{
		db: db,
	}
}

func (r repository) Find(ctx context.Context, guildID string) (*model.GuildSettings, error) {
	var settings *model.GuildSettings
	err := r.db.
		WithContext(ctx).
		Where("guild_id = ?", guildID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("no settings stored for guild %q", guildID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find guild settings: %v", err)
	}

	return settings, nil
}

func (r repository) Upsert(ctx context.Context, settings *model.GuildSettings) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}},
			UpdateAll: true,
		}).
		Create(settings).Error
	if err != nil {
		return fmt.Errorf("failed to upsert guild settings: %v", err)
	}

	return nil
}
