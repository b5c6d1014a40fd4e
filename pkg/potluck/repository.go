package potluck

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/potluckhq/potluck-manager/internal/errdef"
	"github.com/potluckhq/potluck-manager/pkg/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
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

// CreatePotluck assigns the potluck its identifier and creation instant and
// persists it together with its items in one transaction.
func (r repository) CreatePotluck(ctx context.Context, potluck *model.Potluck) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	potluck.ID = uuid.NewString()
	potluck.CreatedAt = time.Now()
	for i := range potluck.Items {
		if potluck.Items[i].ID == "" {
			potluck.Items[i].ID = uuid.NewString()
		}
		potluck.Items[i].PotluckID = potluck.ID
		potluck.Items[i].Position = i
	}

	err := r.db.WithContext(ctx).Create(potluck).Error
	if err != nil {
		return fmt.Errorf("failed to create potluck: %v", err)
	}

	return nil
}

func (r repository) FindByID(ctx context.Context, id string) (*model.Potluck, error) {
	var potluck *model.Potluck
	err := r.db.
		WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("potluck_items.position")
		}).
		Where("potlucks.id = ?", id).
		First(&potluck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("potluck %q doesn't exist", id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find potluck: %v", err)
	}

	return potluck, nil
}

// UpdatePotluck fully replaces the potluck's mutable fields and its item
// collection. The row update and the item replace happen in one transaction
// so a partial write can never be observed.
func (r repository) UpdatePotluck(ctx context.Context, potluck *model.Potluck) error {
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"name":               potluck.Name,
			"date":               potluck.Date,
			"theme":              potluck.Theme,
			"message_id":         potluck.MessageID,
			"message_created_at": potluck.MessageCreatedAt,
			"discord_event_id":   potluck.DiscordEventID,
			"event_start_time":   potluck.EventStartTime,
			"event_end_time":     potluck.EventEndTime,
			"rsvp_sync_enabled":  potluck.RsvpSyncEnabled,
		}
		err := tx.Model(&model.Potluck{}).Where("id = ?", potluck.ID).Updates(updates).Error
		if err != nil {
			return err
		}

		err = tx.Where("potluck_id = ?", potluck.ID).Delete(&model.PotluckItem{}).Error
		if err != nil {
			return err
		}

		for i := range potluck.Items {
			if potluck.Items[i].ID == "" {
				potluck.Items[i].ID = uuid.NewString()
			}
			potluck.Items[i].PotluckID = potluck.ID
			potluck.Items[i].Position = i
		}
		if len(potluck.Items) == 0 {
			return nil
		}
		return tx.Create(&potluck.Items).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update potluck: %v", err)
	}

	return nil
}

// UpdateMessage points the potluck at its current rendered summary message.
// It reports whether a matching potluck existed.
func (r repository) UpdateMessage(ctx context.Context, id, messageID string, messageCreatedAt time.Time) (bool, error) {
	ctx = context.WithoutCancel(ctx)

	result := r.db.
		WithContext(ctx).
		Model(&model.Potluck{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"message_id":         messageID,
			"message_created_at": messageCreatedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update potluck message: %v", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// UpdateDiscordEvent updates the external event linkage fields. An empty
// eventID clears the linkage, including the start/end instants and the RSVP
// sync flag.
func (r repository) UpdateDiscordEvent(ctx context.Context, id, eventID string, startTime, endTime *time.Time, rsvpSyncEnabled bool) (bool, error) {
	ctx = context.WithoutCancel(ctx)

	updates := map[string]any{
		"discord_event_id":  eventID,
		"event_start_time":  startTime,
		"event_end_time":    endTime,
		"rsvp_sync_enabled": rsvpSyncEnabled,
	}
	if eventID == "" {
		updates["event_start_time"] = nil
		updates["event_end_time"] = nil
		updates["rsvp_sync_enabled"] = false
	}

	result := r.db.
		WithContext(ctx).
		Model(&model.Potluck{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update potluck event linkage: %v", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// ClaimItem adds userID to the item's claimant set. Claiming an item the user
// already claimed is a no-op success. It returns false when the potluck or
// the item doesn't exist.
func (r repository) ClaimItem(ctx context.Context, potluckID, itemID, userID string) (bool, error) {
	return r.updateClaims(ctx, potluckID, itemID, func(claimedBy []string) ([]string, bool) {
		if slices.Contains(claimedBy, userID) {
			return claimedBy, true
		}
		return append(claimedBy, userID), true
	})
}

// UnclaimItem removes userID from the item's claimant set. It returns false
// when the potluck or the item doesn't exist, or when the user wasn't a
// claimant.
func (r repository) UnclaimItem(ctx context.Context, potluckID, itemID, userID string) (bool, error) {
	return r.updateClaims(ctx, potluckID, itemID, func(claimedBy []string) ([]string, bool) {
		index := slices.Index(claimedBy, userID)
		if index < 0 {
			return claimedBy, false
		}
		return slices.Delete(claimedBy, index, index+1), true
	})
}

func (r repository) updateClaims(ctx context.Context, potluckID, itemID string, mutate func([]string) ([]string, bool)) (bool, error) {
	ctx = context.WithoutCancel(ctx)

	ok := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.PotluckItem
		err := tx.
			Where("id = ? AND potluck_id = ?", itemID, potluckID).
			First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		claimedBy, changed := mutate(item.ClaimedBy)
		if !changed {
			return nil
		}
		ok = true

		if slices.Equal(claimedBy, item.ClaimedBy) {
			return nil
		}
		item.ClaimedBy = claimedBy
		return tx.Save(&item).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to update item claims: %v", err)
	}

	return ok, nil
}

// AddCustomItem appends a new item to the potluck, optionally pre-claimed by
// claimedBy.
func (r repository) AddCustomItem(ctx context.Context, potluckID, name, claimedBy string) (*model.PotluckItem, error) {
	ctx = context.WithoutCancel(ctx)

	var item *model.PotluckItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Potluck{}).Where("id = ?", potluckID).Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return errdef.NewNotFound("potluck %q doesn't exist", potluckID)
		}

		var position int
		err = tx.
			Model(&model.PotluckItem{}).
			Where("potluck_id = ?", potluckID).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&position).Error
		if err != nil {
			return err
		}

		claimants := []string{}
		if claimedBy != "" {
			claimants = append(claimants, claimedBy)
		}
		item = &model.PotluckItem{
			ID:        uuid.NewString(),
			PotluckID: potluckID,
			Name:      name,
			Position:  position,
			ClaimedBy: claimants,
		}
		return tx.Create(item).Error
	})
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add custom item: %v", err)
	}

	return item, nil
}

func (r repository) FindByGuild(ctx context.Context, guildID string) ([]model.Potluck, error) {
	var potlucks []model.Potluck
	err := r.db.
		WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("potluck_items.position")
		}).
		Where("guild_id = ?", guildID).
		Order("created_at desc").
		Find(&potlucks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find potlucks by guild: %v", err)
	}
	return potlucks, nil
}

func (r repository) FindByEventID(ctx context.Context, eventID string) (*model.Potluck, error) {
	var potluck *model.Potluck
	err := r.db.
		WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("potluck_items.position")
		}).
		Where("discord_event_id = ?", eventID).
		First(&potluck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("no potluck linked to event %q", eventID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find potluck by event id: %v", err)
	}

	return potluck, nil
}
