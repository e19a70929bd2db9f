package discord

import (
	"encoding/json"
	"strconv"
)

// Interaction types delivered to the webhook endpoint.
const (
	InteractionPing               = 1
	InteractionApplicationCommand = 2
	InteractionMessageComponent   = 3
)

// Interaction response types.
const (
	ResponsePong                   = 1
	ResponseChannelMessage         = 4
	ResponseDeferredChannelMessage = 5
	ResponseDeferredUpdateMessage  = 6
)

// Message flags.
const FlagEphemeral = 1 << 6

// Component types.
const (
	ComponentActionRow    = 1
	ComponentButton       = 2
	ComponentStringSelect = 3
)

// Button styles.
const (
	ButtonPrimary = 1
	ButtonLink    = 5
)

// Interaction is one inbound delivery from the platform.
type Interaction struct {
	ID      string          `json:"id"`
	Type    int             `json:"type"`
	Token   string          `json:"token"`
	Data    InteractionData `json:"data"`
	Message *Message        `json:"message,omitempty"`
}

type InteractionData struct {
	Name     string          `json:"name,omitempty"`
	Options  []CommandOption `json:"options,omitempty"`
	CustomID string          `json:"custom_id,omitempty"`
	Values   []string        `json:"values,omitempty"`
}

// CommandOption is one node of a slash command's argument tree.
type CommandOption struct {
	Name    string          `json:"name"`
	Type    int             `json:"type"`
	Value   json.Number     `json:"value,omitempty"`
	Options []CommandOption `json:"options,omitempty"`
}

// Int parses the option value as an integer.
func (o CommandOption) Int() (int, error) {
	return strconv.Atoi(o.Value.String())
}

// Option finds a sub-option by name.
func (o CommandOption) Option(name string) (CommandOption, bool) {
	for _, sub := range o.Options {
		if sub.Name == name {
			return sub, true
		}
	}
	return CommandOption{}, false
}

// Message is the read-only source-message context a component belongs to.
type Message struct {
	ID        string  `json:"id"`
	ChannelID string  `json:"channel_id"`
	Content   string  `json:"content,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

// AuthorName returns the author name shown on the message's first embed,
// or "" when there is none.
func (m *Message) AuthorName() string {
	if m == nil || len(m.Embeds) == 0 || m.Embeds[0].Author == nil {
		return ""
	}
	return m.Embeds[0].Author.Name
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedImage struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

type Component struct {
	Type        int            `json:"type"`
	Style       int            `json:"style,omitempty"`
	Label       string         `json:"label,omitempty"`
	CustomID    string         `json:"custom_id,omitempty"`
	URL         string         `json:"url,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
	Components  []Component    `json:"components,omitempty"`
}

type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// MessageBody is an outbound message payload: initial replies, follow-up
// PATCHes and channel POSTs all share this shape.
type MessageBody struct {
	Content    string      `json:"content,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// InteractionResponse is the immediate answer written on the webhook's HTTP
// response.
type InteractionResponse struct {
	Type int          `json:"type"`
	Data *MessageBody `json:"data,omitempty"`
}

// Command describes a global application command for registration.
type Command struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        int             `json:"type"`
	Options     []CommandSchema `json:"options,omitempty"`
}

type CommandSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        int             `json:"type"`
	Required    bool            `json:"required,omitempty"`
	Options     []CommandSchema `json:"options,omitempty"`
}
