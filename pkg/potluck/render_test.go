package potluck

import (
	"fmt"
	"testing"

	"github.com/potluckhq/potluck-manager/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems(count int) []model.PotluckItem {
	items := make([]model.PotluckItem, count)
	for i := range items {
		items[i] = model.PotluckItem{
			ID:        fmt.Sprintf("item-%d", i),
			Name:      fmt.Sprintf("Dish %d", i),
			Position:  i,
			ClaimedBy: []string{},
		}
	}
	return items
}

func TestBuildView_Summary(t *testing.T) {
	potluck := model.Potluck{
		Name:      "Friendsgiving",
		Date:      "Saturday at 6pm",
		Theme:     "Comfort food",
		CreatedBy: "user-1",
		Items: []model.PotluckItem{
			{ID: "item-1", Name: "Mashed potatoes", ClaimedBy: []string{"user-2", "user-3"}},
			{ID: "item-2", Name: "Gravy", ClaimedBy: []string{}},
		},
	}

	view := BuildView(potluck)

	assert.Equal(t, "🍽️ Friendsgiving", view.Summary.Title)
	assert.Contains(t, view.Summary.Description, "Hosted by <@user-1>")
	assert.Contains(t, view.Summary.Description, "📅 Saturday at 6pm")
	assert.Contains(t, view.Summary.Description, "🎨 Theme: Comfort food")
	assert.Contains(t, view.Summary.Description, "• Mashed potatoes — <@user-2>, <@user-3>")
	assert.Contains(t, view.Summary.Description, "• Gravy — *available*")
	assert.NotContains(t, view.Summary.Description, "📆 Event:")
}

func TestBuildView_LinkedEvent(t *testing.T) {
	potluck := model.Potluck{
		Name:           "Game night",
		CreatedBy:      "user-1",
		GuildID:        "guild-1",
		DiscordEventID: "event-1",
	}

	view := BuildView(potluck)

	assert.Contains(t, view.Summary.Description, "https://discord.com/events/guild-1/event-1")
}

func TestBuildView_Controls(t *testing.T) {
	t.Run("FewItemsGetOneRowPlusAddControl", func(t *testing.T) {
		view := BuildView(model.Potluck{Items: testItems(3)})

		require.Len(t, view.Rows, 2)
		assert.Len(t, view.Rows[0], 3)
		assert.Equal(t, "claim-item-0", view.Rows[0][0].ID)
		assert.Equal(t, "Dish 0", view.Rows[0][0].Label)
		require.Len(t, view.Rows[1], 1)
		assert.Equal(t, AddItemControlID, view.Rows[1][0].ID)
	})

	t.Run("RowsHoldFiveControls", func(t *testing.T) {
		view := BuildView(model.Potluck{Items: testItems(12)})

		require.Len(t, view.Rows, 4)
		assert.Len(t, view.Rows[0], 5)
		assert.Len(t, view.Rows[1], 5)
		assert.Len(t, view.Rows[2], 2)
		assert.Equal(t, AddItemControlID, view.Rows[3][0].ID)
	})

	t.Run("FullCapacityDropsAddControl", func(t *testing.T) {
		view := BuildView(model.Potluck{Items: testItems(25)})

		require.Len(t, view.Rows, 5)
		for _, row := range view.Rows {
			assert.Len(t, row, 5)
		}
	})

	t.Run("OverflowItemsKeepSummaryLineButGetNoControl", func(t *testing.T) {
		view := BuildView(model.Potluck{Items: testItems(30)})

		require.Len(t, view.Rows, 5)
		assert.Contains(t, view.Summary.Description, "Dish 29")
		for _, row := range view.Rows {
			for _, control := range row {
				assert.NotEqual(t, "claim-item-29", control.ID)
			}
		}
	})

	t.Run("NoItemsStillOffersAddControl", func(t *testing.T) {
		view := BuildView(model.Potluck{})

		require.Len(t, view.Rows, 1)
		assert.Equal(t, AddItemControlID, view.Rows[0][0].ID)
		assert.Contains(t, view.Summary.Description, "Nothing signed up yet")
	})

	t.Run("ClaimedControlsAreMarked", func(t *testing.T) {
		view := BuildView(model.Potluck{Items: []model.PotluckItem{
			{ID: "item-1", Name: "Pie", ClaimedBy: []string{"user-1"}},
			{ID: "item-2", Name: "Salad", ClaimedBy: []string{}},
		}})

		assert.True(t, view.Rows[0][0].Claimed)
		assert.False(t, view.Rows[0][1].Claimed)
	})
}

func TestParseClaimControlID(t *testing.T) {
	itemID, ok := ParseClaimControlID(ClaimControlID("item-1"))
	require.True(t, ok)
	assert.Equal(t, "item-1", itemID)

	_, ok = ParseClaimControlID(AddItemControlID)
	assert.False(t, ok)

	_, ok = ParseClaimControlID("claim-")
	assert.False(t, ok)
}
