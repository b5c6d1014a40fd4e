package potluck

import (
	"context"
	"log/slog"
	"time"

	"github.com/potluckhq/potluck-manager/pkg/model"
)

// Messenger posts and maintains rendered potluck summaries on the chat
// platform.
type Messenger interface {
	PublishMessage(ctx context.Context, channelID string, view View) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, view View) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

type displayStore interface {
	FindByID(ctx context.Context, id string) (*model.Potluck, error)
	UpdateMessage(ctx context.Context, id, messageID string, messageCreatedAt time.Time) (bool, error)
}

func NewReconciler(logger *slog.Logger, store displayStore, messenger Messenger, editWindow time.Duration) *Reconciler {
	return &Reconciler{
		logger:     logger,
		store:      store,
		messenger:  messenger,
		editWindow: editWindow,
		now:        time.Now,
	}
}

// Reconciler keeps the posted summary message in sync with stored state.
// Messages older than the platform's edit window can no longer be edited
// reliably, so past the window the old message is retired and a fresh one is
// posted in its place.
type Reconciler struct {
	logger     *slog.Logger
	store      displayStore
	messenger  Messenger
	editWindow time.Duration
	now        func() time.Time
}

// Refresh re-renders the potluck's summary message. Within the edit window
// the existing message is edited in place; past it, or when the edit fails,
// the message is republished. Refresh reports whether the display ended up
// current; callers treat false as a degraded outcome, not an error.
func (r *Reconciler) Refresh(ctx context.Context, potluckID string) bool {
	potluck, err := r.store.FindByID(ctx, potluckID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load potluck for display refresh", "potluckId", potluckID, "error", err)
		return false
	}

	if potluck.MessageID == "" || potluck.MessageCreatedAt == nil {
		r.logger.WarnContext(ctx, "Potluck has no summary message to refresh", "potluckId", potluckID)
		return false
	}

	view := BuildView(*potluck)

	if r.now().Sub(*potluck.MessageCreatedAt) <= r.editWindow {
		err = r.messenger.EditMessage(ctx, potluck.ChannelID, potluck.MessageID, view)
		if err == nil {
			return true
		}
		r.logger.WarnContext(ctx, "Failed to edit summary message, republishing", "potluckId", potluckID, "messageId", potluck.MessageID, "error", err)
	}

	return r.republish(ctx, potluck, view)
}

// PublishInitial posts the first summary message for a freshly created
// potluck and records its identifier.
func (r *Reconciler) PublishInitial(ctx context.Context, potluck *model.Potluck) error {
	messageID, err := r.messenger.PublishMessage(ctx, potluck.ChannelID, BuildView(*potluck))
	if err != nil {
		return err
	}

	messageCreatedAt := r.now()
	_, err = r.store.UpdateMessage(ctx, potluck.ID, messageID, messageCreatedAt)
	if err != nil {
		return err
	}

	potluck.MessageID = messageID
	potluck.MessageCreatedAt = &messageCreatedAt
	return nil
}

func (r *Reconciler) republish(ctx context.Context, potluck *model.Potluck, view View) bool {
	// retiring the stale message is best effort, it may already be gone
	err := r.messenger.DeleteMessage(ctx, potluck.ChannelID, potluck.MessageID)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to delete stale summary message", "potluckId", potluck.ID, "messageId", potluck.MessageID, "error", err)
	}

	messageID, err := r.messenger.PublishMessage(ctx, potluck.ChannelID, view)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to republish summary message", "potluckId", potluck.ID, "error", err)
		return false
	}

	_, err = r.store.UpdateMessage(ctx, potluck.ID, messageID, r.now())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to record republished summary message", "potluckId", potluck.ID, "messageId", messageID, "error", err)
		return false
	}

	return true
}
