package potluck

import (
	"fmt"
	"strings"
	"time"

	"github.com/potluckhq/potluck-manager/pkg/model"
)

const (
	controlsPerRow = 5
	maxControlRows = 5

	// AddItemControlID identifies the trailing "add a custom item" control.
	AddItemControlID = "add-custom-item"

	claimControlPrefix = "claim-"
)

// View is the platform-neutral rendering of a potluck: a summary block plus
// rows of interactive controls. Messenger implementations translate it into
// whatever the chat platform calls these things.
type View struct {
	Summary Summary
	Rows    [][]Control
}

type Summary struct {
	Title       string
	Description string
	Timestamp   time.Time
}

// Control is a single button. Claimed controls render visually muted; the
// add-item control is recognised by its ID.
type Control struct {
	ID      string
	Label   string
	Claimed bool
}

// ClaimControlID returns the control ID toggling a claim on the given item.
func ClaimControlID(itemID string) string {
	return claimControlPrefix + itemID
}

// ParseClaimControlID extracts the item ID from a claim control ID. It
// returns false for any other control.
func ParseClaimControlID(controlID string) (string, bool) {
	itemID, ok := strings.CutPrefix(controlID, claimControlPrefix)
	if !ok || itemID == "" {
		return "", false
	}
	return itemID, true
}

// BuildView renders the potluck into its summary and claim controls. Items
// beyond the control capacity still appear in the summary text but get no
// button. The add-item control is appended while a row slot remains.
func BuildView(potluck model.Potluck) View {
	var description strings.Builder
	fmt.Fprintf(&description, "Hosted by <@%s>\n", potluck.CreatedBy)
	if potluck.Date != "" {
		fmt.Fprintf(&description, "📅 %s\n", potluck.Date)
	}
	if potluck.Theme != "" {
		fmt.Fprintf(&description, "🎨 Theme: %s\n", potluck.Theme)
	}
	if potluck.HasEvent() {
		fmt.Fprintf(&description, "📆 Event: https://discord.com/events/%s/%s\n", potluck.GuildID, potluck.DiscordEventID)
	}

	description.WriteString("\n**Items**\n")
	if len(potluck.Items) == 0 {
		description.WriteString("*Nothing signed up yet. Add a custom item below!*\n")
	}
	for _, item := range potluck.Items {
		if len(item.ClaimedBy) == 0 {
			fmt.Fprintf(&description, "• %s — *available*\n", item.Name)
			continue
		}
		mentions := make([]string, len(item.ClaimedBy))
		for i, userID := range item.ClaimedBy {
			mentions[i] = fmt.Sprintf("<@%s>", userID)
		}
		fmt.Fprintf(&description, "• %s — %s\n", item.Name, strings.Join(mentions, ", "))
	}

	return View{
		Summary: Summary{
			Title:       "🍽️ " + potluck.Name,
			Description: description.String(),
			Timestamp:   potluck.CreatedAt,
		},
		Rows: buildControlRows(potluck.Items),
	}
}

func buildControlRows(items []model.PotluckItem) [][]Control {
	var rows [][]Control
	var row []Control
	for _, item := range items {
		if len(rows) == maxControlRows {
			break
		}
		row = append(row, Control{
			ID:      ClaimControlID(item.ID),
			Label:   item.Name,
			Claimed: len(item.ClaimedBy) > 0,
		})
		if len(row) == controlsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if row != nil && len(rows) < maxControlRows {
		rows = append(rows, row)
	}

	if len(rows) < maxControlRows {
		rows = append(rows, []Control{{
			ID:    AddItemControlID,
			Label: "➕ Add Custom Item",
		}})
	}

	return rows
}
