package discord

import (
	"context"
	"time"

	"github.com/potluckhq/potluck-manager/pkg/potluck"

	"github.com/bwmarrin/discordgo"
)

const embedColor = 0xE67E22

func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{
		session: session,
	}
}

// Messenger renders potluck views as Discord messages with an embed and
// button rows.
type Messenger struct {
	session *discordgo.Session
}

func (m *Messenger) PublishMessage(ctx context.Context, channelID string, view potluck.View) (string, error) {
	message, err := m.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed(view.Summary)},
		Components: components(view.Rows),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", translateError(err, "failed to send message")
	}
	return message.ID, nil
}

func (m *Messenger) EditMessage(ctx context.Context, channelID, messageID string, view potluck.View) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	embeds := []*discordgo.MessageEmbed{embed(view.Summary)}
	rows := components(view.Rows)
	edit.Embeds = &embeds
	edit.Components = &rows

	_, err := m.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	if err != nil {
		return translateError(err, "failed to edit message")
	}
	return nil
}

func (m *Messenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := m.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return translateError(err, "failed to delete message")
	}
	return nil
}

func embed(summary potluck.Summary) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       summary.Title,
		Description: summary.Description,
		Color:       embedColor,
	}
	if !summary.Timestamp.IsZero() {
		e.Timestamp = summary.Timestamp.Format(time.RFC3339)
	}
	return e
}

func components(rows [][]potluck.Control) []discordgo.MessageComponent {
	result := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, control := range row {
			buttons = append(buttons, discordgo.Button{
				CustomID: control.ID,
				Label:    control.Label,
				Style:    buttonStyle(control),
			})
		}
		result = append(result, discordgo.ActionsRow{Components: buttons})
	}
	return result
}

func buttonStyle(control potluck.Control) discordgo.ButtonStyle {
	switch {
	case control.ID == potluck.AddItemControlID:
		return discordgo.SuccessButton
	case control.Claimed:
		return discordgo.SecondaryButton
	default:
		return discordgo.PrimaryButton
	}
}
