// Package embed builds the outbound message payloads. Pure presentation:
// nothing here fetches or decides, it only renders values it is handed.
package embed

import (
	"fmt"
	"strconv"

	"github.com/2qar/trackmania-bot/internal/customid"
	"github.com/2qar/trackmania-bot/internal/domain"
	"github.com/2qar/trackmania-bot/internal/infrastructure/discord"
)

const (
	colorTrack = 0x0099ff
	colorError = 0xff0000

	leaderboardPageSize = 10
)

// TrackMessage renders a track info view with its leaderboard controls.
func TrackMessage(info domain.TrackInfo) discord.MessageBody {
	e := discord.Embed{
		Title:       info.Label,
		Description: info.Name,
		Color:       colorTrack,
		Author:      &discord.EmbedAuthor{Name: info.Author},
		Fields: []discord.EmbedField{
			{Name: "Author Time", Value: FormatTime(info.AuthorTime), Inline: true},
			{Name: "Gold", Value: FormatTime(info.GoldTime), Inline: true},
			{Name: "Silver", Value: FormatTime(info.SilverTime), Inline: true},
			{Name: "Bronze", Value: FormatTime(info.BronzeTime), Inline: true},
		},
	}
	if info.ThumbnailURL != "" {
		e.Image = &discord.EmbedImage{URL: info.ThumbnailURL}
	}

	lbID := customid.Encode(domain.ControlState{
		Action: domain.ActionLeaderboardFirst,
		Args:   []string{info.GroupUID, info.MapUID},
	})

	return discord.MessageBody{
		Embeds: []discord.Embed{e},
		Components: []discord.Component{{
			Type: discord.ComponentActionRow,
			Components: []discord.Component{
				{
					Type:     discord.ComponentButton,
					Style:    discord.ButtonPrimary,
					Label:    "Leaderboard",
					CustomID: lbID,
				},
				{
					Type:     discord.ComponentButton,
					Style:    discord.ButtonPrimary,
					Label:    "Cup of the Day",
					CustomID: customid.Encode(domain.ControlState{Action: domain.ActionCupOfTheDay}),
				},
				{
					Type:  discord.ComponentButton,
					Style: discord.ButtonLink,
					Label: "trackmania.io",
					URL:   "https://trackmania.io/#/leaderboard/" + info.MapUID,
				},
			},
		}},
	}
}

// LeaderboardMessage renders one leaderboard page with its paging controls.
// back is the control state that re-renders the track view this board came
// from.
func LeaderboardMessage(author string, page domain.LeaderboardPage, maxPage int, back domain.ControlState) discord.MessageBody {
	desc := ""
	for _, entry := range page.Entries {
		desc += fmt.Sprintf("%d. `%s` %s\n", entry.Position, entry.AccountID, FormatTime(entry.Score))
	}
	if desc == "" {
		desc = "No records on this page."
	}

	e := discord.Embed{
		Title:       "Leaderboard",
		Description: desc,
		Color:       colorTrack,
		Author:      &discord.EmbedAuthor{Name: author},
		Footer:      &discord.EmbedFooter{Text: fmt.Sprintf("Offset %d", page.Offset)},
	}

	ref := []string{page.GroupUID, page.MapUID}
	firstID := customid.Encode(domain.ControlState{Action: domain.ActionLeaderboardFirst, Args: ref})
	lastID := customid.Encode(domain.ControlState{
		Action: domain.ActionLeaderboardLast,
		Count:  strconv.Itoa(leaderboardPageSize),
		Args:   ref,
	})

	// The page select smuggles its target through the selected value, which
	// is itself ";"-joined: offset first, display label second.
	sel := discord.Component{
		Type:        discord.ComponentStringSelect,
		CustomID:    customid.Encode(domain.ControlState{Action: domain.ActionLeaderboardPage, Args: ref}),
		Placeholder: "Jump to page",
	}
	for p := 0; p < 5; p++ {
		offset := maxPage * p / 5
		label := fmt.Sprintf("Page %d", offset/leaderboardPageSize+1)
		sel.Options = append(sel.Options, discord.SelectOption{
			Label: label,
			Value: fmt.Sprintf("%d;%s", offset, label),
		})
	}

	return discord.MessageBody{
		Embeds: []discord.Embed{e},
		Components: []discord.Component{
			{
				Type: discord.ComponentActionRow,
				Components: []discord.Component{
					{Type: discord.ComponentButton, Style: discord.ButtonPrimary, Label: "First", CustomID: firstID},
					{Type: discord.ComponentButton, Style: discord.ButtonPrimary, Label: "Last", CustomID: lastID},
					{Type: discord.ComponentButton, Style: discord.ButtonPrimary, Label: "Back", CustomID: customid.Encode(back)},
				},
			},
			{
				Type:       discord.ComponentActionRow,
				Components: []discord.Component{sel},
			},
		},
	}
}

// TestMessage is the fixed demonstration payload behind the test command.
func TestMessage() discord.MessageBody {
	return discord.MessageBody{
		Content: "hello world",
		Embeds: []discord.Embed{{
			Title:       "hello world",
			Color:       39423,
			Description: "example embed",
			Fields: []discord.EmbedField{
				{Name: "field name", Value: "field value\nfield value"},
			},
			Author: &discord.EmbedAuthor{
				Name: "Brungus",
				URL:  "https://github.com/Khujou/trackmania-bot",
			},
			Footer: &discord.EmbedFooter{Text: "bungus"},
		}},
		Components: []discord.Component{{
			Type: discord.ComponentActionRow,
			Components: []discord.Component{
				{
					Type:     discord.ComponentButton,
					Style:    discord.ButtonPrimary,
					Label:    "test",
					CustomID: customid.Encode(domain.ControlState{Action: domain.ActionTest}),
				},
				{
					Type:  discord.ComponentButton,
					Style: discord.ButtonLink,
					Label: "Click for win",
					URL:   "https://raw.githubusercontent.com/2qar/bigheadgeorge.github.io/master/ogdog.gif",
				},
			},
		}},
	}
}

// ErrorMessage is the uniform failure view: one red embed with the reason
// and a Back control.
func ErrorMessage(err error) discord.MessageBody {
	return discord.MessageBody{
		Flags: discord.FlagEphemeral,
		Embeds: []discord.Embed{{
			Title: "Error: Unable to handle request",
			Color: colorError,
			Fields: []discord.EmbedField{
				{Name: "Reason", Value: err.Error()},
			},
		}},
		Components: []discord.Component{{
			Type: discord.ComponentActionRow,
			Components: []discord.Component{{
				Type:     discord.ComponentButton,
				Style:    discord.ButtonPrimary,
				Label:    "Back",
				CustomID: "back",
			}},
		}},
	}
}

// FormatTime renders a millisecond race time as m:ss.mmm.
func FormatTime(ms int) string {
	if ms <= 0 {
		return "-"
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, millis)
}
