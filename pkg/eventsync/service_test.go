package eventsync

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/potluckhq/potluck-manager/internal/errdef"
	"github.com/potluckhq/potluck-manager/pkg/model"
	"github.com/potluckhq/potluck-manager/pkg/potluck"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) MissingPermissions(ctx context.Context, guildID string) ([]string, error) {
	called := m.Called(ctx, guildID)
	missing, _ := called.Get(0).([]string)
	return missing, called.Error(1)
}

func (m *mockProvider) CreateEvent(ctx context.Context, guildID string, draft EventDraft) (*ExternalEvent, error) {
	called := m.Called(ctx, guildID, draft)
	event, _ := called.Get(0).(*ExternalEvent)
	return event, called.Error(1)
}

func (m *mockProvider) UpdateEvent(ctx context.Context, guildID, eventID string, draft EventDraft) (*ExternalEvent, error) {
	called := m.Called(ctx, guildID, eventID, draft)
	event, _ := called.Get(0).(*ExternalEvent)
	return event, called.Error(1)
}

func (m *mockProvider) DeleteEvent(ctx context.Context, guildID, eventID string) error {
	called := m.Called(ctx, guildID, eventID)
	return called.Error(0)
}

func (m *mockProvider) Event(ctx context.Context, guildID, eventID string) (*ExternalEvent, error) {
	called := m.Called(ctx, guildID, eventID)
	event, _ := called.Get(0).(*ExternalEvent)
	return event, called.Error(1)
}

func (m *mockProvider) EventParticipants(ctx context.Context, guildID, eventID string) ([]Participant, error) {
	called := m.Called(ctx, guildID, eventID)
	participants, _ := called.Get(0).([]Participant)
	return participants, called.Error(1)
}

type fakeEventStore struct {
	potlucks map[string]*model.Potluck
}

func newFakeEventStore(potlucks ...*model.Potluck) *fakeEventStore {
	store := &fakeEventStore{potlucks: make(map[string]*model.Potluck)}
	for _, p := range potlucks {
		store.potlucks[p.ID] = p
	}
	return store
}

func (f *fakeEventStore) FindByEventID(_ context.Context, eventID string) (*model.Potluck, error) {
	for _, p := range f.potlucks {
		if p.DiscordEventID == eventID && eventID != "" {
			return p, nil
		}
	}
	return nil, errdef.NewNotFound("no potluck linked to event %q", eventID)
}

func (f *fakeEventStore) UpdateDiscordEvent(_ context.Context, id, eventID string, startTime, endTime *time.Time, rsvpSyncEnabled bool) (bool, error) {
	p, ok := f.potlucks[id]
	if !ok {
		return false, nil
	}
	p.DiscordEventID = eventID
	p.EventStartTime = startTime
	p.EventEndTime = endTime
	p.RsvpSyncEnabled = rsvpSyncEnabled
	if eventID == "" {
		p.EventStartTime = nil
		p.EventEndTime = nil
		p.RsvpSyncEnabled = false
	}
	return true, nil
}

func (f *fakeEventStore) UpdatePotluck(_ context.Context, p *model.Potluck) error {
	f.potlucks[p.ID] = p
	return nil
}

type fakeCreator struct {
	created *model.Potluck
}

func (f *fakeCreator) Create(_ context.Context, draft potluck.Draft) (*model.Potluck, error) {
	items := make([]model.PotluckItem, len(draft.Items))
	for i, name := range draft.Items {
		items[i] = model.PotluckItem{ID: name, Name: name, Position: i, ClaimedBy: []string{}}
	}
	f.created = &model.Potluck{
		ID:              "potluck-new",
		Name:            draft.Name,
		Date:            draft.Date,
		Theme:           draft.Theme,
		CreatedBy:       draft.CreatedBy,
		GuildID:         draft.GuildID,
		ChannelID:       draft.ChannelID,
		Items:           items,
		DiscordEventID:  draft.DiscordEventID,
		EventStartTime:  draft.EventStartTime,
		EventEndTime:    draft.EventEndTime,
		RsvpSyncEnabled: draft.RsvpSyncEnabled,
	}
	return f.created, nil
}

type fakeRefresher struct {
	refreshed []string
}

func (f *fakeRefresher) Refresh(_ context.Context, potluckID string) bool {
	f.refreshed = append(f.refreshed, potluckID)
	return true
}

type fixedLocations struct {
	location *time.Location
}

func (f fixedLocations) Location(context.Context, string) *time.Location {
	return f.location
}

type testHarness struct {
	service  *Service
	provider *mockProvider
	store    *fakeEventStore
	creator  *fakeCreator
	display  *fakeRefresher
}

func newTestHarness(potlucks ...*model.Potluck) *testHarness {
	provider := &mockProvider{}
	store := newFakeEventStore(potlucks...)
	creator := &fakeCreator{}
	display := &fakeRefresher{}
	service := NewService(slog.Default(), provider, store, creator, display, fixedLocations{time.UTC})
	return &testHarness{
		service:  service,
		provider: provider,
		store:    store,
		creator:  creator,
		display:  display,
	}
}

func unlinkedPotluck() *model.Potluck {
	return &model.Potluck{
		ID:        "potluck-1",
		Name:      "Friendsgiving",
		GuildID:   "guild-1",
		ChannelID: "channel-1",
		Items: []model.PotluckItem{
			{ID: "item-1", Name: "Turkey", ClaimedBy: []string{"user-2"}},
			{ID: "item-2", Name: "Pie", ClaimedBy: []string{}},
		},
	}
}

func linkedPotluck() *model.Potluck {
	p := unlinkedPotluck()
	startTime := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	endTime := startTime.Add(3 * time.Hour)
	p.DiscordEventID = "event-1"
	p.EventStartTime = &startTime
	p.EventEndTime = &endTime
	return p
}

func TestService_CreateEventForPotluck(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingPermissionsIsForbidden", func(t *testing.T) {
		h := newTestHarness(unlinkedPotluck())
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{"Manage Events"}, nil)

		_, err := h.service.CreateEventForPotluck(ctx, h.store.potlucks["potluck-1"], CreateOptions{})

		require.Error(t, err)
		assert.True(t, errdef.IsForbidden(err))
		assert.Contains(t, err.Error(), "Manage Events")
		h.provider.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AlreadyLinkedIsDuplicated", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())

		_, err := h.service.CreateEventForPotluck(ctx, h.store.potlucks["potluck-1"], CreateOptions{})

		require.Error(t, err)
		assert.True(t, errdef.IsDuplicated(err))
	})

	t.Run("DefaultsStartAndEnd", func(t *testing.T) {
		h := newTestHarness(unlinkedPotluck())
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{}, nil)
		h.provider.On("CreateEvent", mock.Anything, "guild-1", mock.Anything).Return(&ExternalEvent{ID: "event-1", GuildID: "guild-1"}, nil)

		before := time.Now()
		event, err := h.service.CreateEventForPotluck(ctx, h.store.potlucks["potluck-1"], CreateOptions{})

		require.NoError(t, err)
		require.NotNil(t, event)
		draft := h.provider.Calls[1].Arguments.Get(2).(EventDraft)
		assert.WithinDuration(t, before.Add(2*time.Hour), draft.StartTime, time.Second)
		assert.Equal(t, draft.StartTime.Add(3*time.Hour), draft.EndTime)
		assert.Equal(t, "Friendsgiving", draft.Name)
	})

	t.Run("PersistsLinkageAndRefreshesDisplay", func(t *testing.T) {
		h := newTestHarness(unlinkedPotluck())
		startTime := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{}, nil)
		h.provider.On("CreateEvent", mock.Anything, "guild-1", mock.Anything).Return(&ExternalEvent{ID: "event-1", GuildID: "guild-1"}, nil)

		p := h.store.potlucks["potluck-1"]
		_, err := h.service.CreateEventForPotluck(ctx, p, CreateOptions{StartTime: &startTime, RsvpSync: true})

		require.NoError(t, err)
		assert.Equal(t, "event-1", p.DiscordEventID)
		require.NotNil(t, p.EventStartTime)
		assert.Equal(t, startTime, *p.EventStartTime)
		assert.True(t, p.RsvpSyncEnabled)
		assert.Equal(t, []string{"potluck-1"}, h.display.refreshed)
	})

	t.Run("ProviderFaultDegradesToNil", func(t *testing.T) {
		h := newTestHarness(unlinkedPotluck())
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{}, nil)
		h.provider.On("CreateEvent", mock.Anything, "guild-1", mock.Anything).Return(nil, assert.AnError)

		p := h.store.potlucks["potluck-1"]
		event, err := h.service.CreateEventForPotluck(ctx, p, CreateOptions{})

		require.NoError(t, err)
		assert.Nil(t, event)
		assert.Empty(t, p.DiscordEventID)
	})
}

func TestService_UpdateEventFromPotluck(t *testing.T) {
	ctx := context.Background()

	t.Run("UnlinkedIsNoop", func(t *testing.T) {
		h := newTestHarness(unlinkedPotluck())

		updated, err := h.service.UpdateEventFromPotluck(ctx, h.store.potlucks["potluck-1"])

		require.NoError(t, err)
		assert.False(t, updated)
		h.provider.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingPermissionsSkips", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{"Send Messages"}, nil)

		updated, err := h.service.UpdateEventFromPotluck(ctx, h.store.potlucks["potluck-1"])

		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("GoneEventClearsLinkage", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{}, nil)
		h.provider.On("Event", mock.Anything, "guild-1", "event-1").Return(nil, errdef.NewNotFound("gone"))

		p := h.store.potlucks["potluck-1"]
		updated, err := h.service.UpdateEventFromPotluck(ctx, p)

		require.NoError(t, err)
		assert.False(t, updated)
		assert.Empty(t, p.DiscordEventID)
		assert.Nil(t, p.EventStartTime)
	})

	t.Run("StartedEventIsLeftAlone", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{}, nil)
		h.provider.On("Event", mock.Anything, "guild-1", "event-1").Return(&ExternalEvent{ID: "event-1", Status: StatusActive}, nil)

		updated, err := h.service.UpdateEventFromPotluck(ctx, h.store.potlucks["potluck-1"])

		require.NoError(t, err)
		assert.False(t, updated)
		h.provider.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PushesPotluckState", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{}, nil)
		h.provider.On("Event", mock.Anything, "guild-1", "event-1").Return(&ExternalEvent{ID: "event-1", Status: StatusScheduled}, nil)
		h.provider.On("UpdateEvent", mock.Anything, "guild-1", "event-1", mock.Anything).Return(&ExternalEvent{ID: "event-1"}, nil)

		p := h.store.potlucks["potluck-1"]
		updated, err := h.service.UpdateEventFromPotluck(ctx, p)

		require.NoError(t, err)
		assert.True(t, updated)
		draft := h.provider.Calls[2].Arguments.Get(3).(EventDraft)
		assert.Equal(t, "Friendsgiving", draft.Name)
		assert.Equal(t, *p.EventStartTime, draft.StartTime)
		assert.Contains(t, draft.Description, "✅ Turkey")
		assert.Contains(t, draft.Description, "⬜ Pie")
	})
}

func TestService_DeleteEventForPotluck(t *testing.T) {
	ctx := context.Background()

	t.Run("DeletesAndClearsLinkage", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{}, nil)
		h.provider.On("DeleteEvent", mock.Anything, "guild-1", "event-1").Return(nil)

		p := h.store.potlucks["potluck-1"]
		err := h.service.DeleteEventForPotluck(ctx, p)

		require.NoError(t, err)
		assert.Empty(t, p.DiscordEventID)
		assert.False(t, p.RsvpSyncEnabled)
		assert.Equal(t, []string{"potluck-1"}, h.display.refreshed)
	})

	t.Run("RemoteFailureStillClearsLinkage", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{}, nil)
		h.provider.On("DeleteEvent", mock.Anything, "guild-1", "event-1").Return(assert.AnError)

		p := h.store.potlucks["potluck-1"]
		err := h.service.DeleteEventForPotluck(ctx, p)

		require.NoError(t, err)
		assert.Empty(t, p.DiscordEventID)
	})

	t.Run("UnlinkedIsNoop", func(t *testing.T) {
		h := newTestHarness(unlinkedPotluck())

		err := h.service.DeleteEventForPotluck(ctx, h.store.potlucks["potluck-1"])

		require.NoError(t, err)
		h.provider.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_SyncPotluckFromEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("OverwritesNameAndTimes", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())
		startTime := time.Date(2026, 10, 3, 17, 0, 0, 0, time.UTC)
		endTime := startTime.Add(2 * time.Hour)

		err := h.service.SyncPotluckFromEvent(ctx, ExternalEvent{
			ID:        "event-1",
			Name:      "Friendsgiving (moved!)",
			StartTime: startTime,
			EndTime:   &endTime,
		})

		require.NoError(t, err)
		p := h.store.potlucks["potluck-1"]
		assert.Equal(t, "Friendsgiving (moved!)", p.Name)
		assert.Equal(t, startTime, *p.EventStartTime)
		assert.Equal(t, endTime, *p.EventEndTime)
		assert.Contains(t, p.Date, "October 3, 2026")
		assert.Equal(t, []string{"potluck-1"}, h.display.refreshed)
	})

	t.Run("UnmatchedEventIsIgnored", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())

		err := h.service.SyncPotluckFromEvent(ctx, ExternalEvent{ID: "event-other", Name: "Something else"})

		require.NoError(t, err)
		assert.Equal(t, "Friendsgiving", h.store.potlucks["potluck-1"].Name)
		assert.Empty(t, h.display.refreshed)
	})
}

func TestService_HandleEventDeleted(t *testing.T) {
	ctx := context.Background()

	h := newTestHarness(linkedPotluck())

	err := h.service.HandleEventDeleted(ctx, "event-1")

	require.NoError(t, err)
	p := h.store.potlucks["potluck-1"]
	assert.Empty(t, p.DiscordEventID)
	assert.Nil(t, p.EventStartTime)
	assert.Equal(t, []string{"potluck-1"}, h.display.refreshed)
	h.provider.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_CreatePotluckFromEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("AlreadyLinkedIsDuplicated", func(t *testing.T) {
		h := newTestHarness(linkedPotluck())

		_, _, err := h.service.CreatePotluckFromEvent(ctx, FromEventParams{GuildID: "guild-1", ChannelID: "channel-1", EventID: "event-1", CreatedBy: "user-1"})

		require.Error(t, err)
		assert.True(t, errdef.IsDuplicated(err))
	})

	t.Run("DerivesPotluckFromEvent", func(t *testing.T) {
		h := newTestHarness()
		startTime := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
		h.provider.On("Event", mock.Anything, "guild-1", "event-1").Return(&ExternalEvent{
			ID:        "event-1",
			GuildID:   "guild-1",
			Name:      "Harvest Dinner",
			StartTime: startTime,
			Status:    StatusScheduled,
		}, nil)
		h.provider.On("MissingPermissions", mock.Anything, "guild-1").Return([]string{}, nil)
		h.provider.On("UpdateEvent", mock.Anything, "guild-1", "event-1", mock.Anything).Return(&ExternalEvent{ID: "event-1"}, nil)

		p, synced, err := h.service.CreatePotluckFromEvent(ctx, FromEventParams{
			GuildID:   "guild-1",
			ChannelID: "channel-1",
			EventID:   "event-1",
			Items:     []string{"Cider", "Bread"},
			CreatedBy: "user-1",
			RsvpSync:  true,
		})

		require.NoError(t, err)
		assert.True(t, synced)
		assert.Equal(t, "Harvest Dinner", p.Name)
		assert.Equal(t, "event-1", p.DiscordEventID)
		require.NotNil(t, p.EventStartTime)
		assert.Equal(t, startTime, *p.EventStartTime)
		require.NotNil(t, p.EventEndTime)
		assert.Equal(t, startTime.Add(3*time.Hour), *p.EventEndTime)
		assert.True(t, p.RsvpSyncEnabled)
		assert.Contains(t, p.Date, "September 12, 2026")
		require.Len(t, p.Items, 2)
	})
}

func TestBuildEventDescription(t *testing.T) {
	t.Run("ListsFirstTenItems", func(t *testing.T) {
		p := model.Potluck{Theme: "Harvest"}
		for i := 0; i < 14; i++ {
			p.Items = append(p.Items, model.PotluckItem{Name: "Dish", ClaimedBy: []string{}})
		}

		description := buildEventDescription(p)

		assert.Contains(t, description, "Theme: Harvest")
		assert.Contains(t, description, "...and 4 more!")
		assert.Equal(t, 10, strings.Count(description, "⬜"))
	})

	t.Run("BoundedLength", func(t *testing.T) {
		p := model.Potluck{}
		for i := 0; i < 10; i++ {
			p.Items = append(p.Items, model.PotluckItem{Name: strings.Repeat("x", 200), ClaimedBy: []string{}})
		}

		description := buildEventDescription(p)

		assert.LessOrEqual(t, len(description), 1000)
		assert.True(t, strings.HasSuffix(description, "..."))
	})
}
