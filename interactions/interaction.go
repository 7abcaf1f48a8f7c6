// Copyright (c) 2019-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package interactions

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/utils"
)

// DiscordEpoch is the first millisecond of 2015, the epoch of the platform's
// snowflake ids.
const DiscordEpoch = 1420070400000

// Interaction is one inbound webhook delivery. It is parsed once per request
// and must be treated as read-only afterwards.
//
// https://discord.com/developers/docs/interactions/receiving-and-responding#interaction-object
type Interaction struct {
	ID             string                    `json:"id"`
	ApplicationID  string                    `json:"application_id"`
	Type           discordgo.InteractionType `json:"type"`
	Data           json.RawMessage           `json:"data,omitempty"`
	GuildID        string                    `json:"guild_id,omitempty"`
	ChannelID      string                    `json:"channel_id,omitempty"`
	Member         *discordgo.Member         `json:"member,omitempty"`
	User           *discordgo.User           `json:"user,omitempty"`
	Token          string                    `json:"token"`
	Version        int                       `json:"version,omitempty"`
	Message        *discordgo.Message        `json:"message,omitempty"`
	AppPermissions string                    `json:"app_permissions,omitempty"`
	Locale         string                    `json:"locale,omitempty"`
	GuildLocale    string                    `json:"guild_locale,omitempty"`
}

// ParseInteraction decodes a verified request body.
func ParseInteraction(data []byte) (*Interaction, error) {
	i := Interaction{}
	err := json.Unmarshal(data, &i)
	if err != nil {
		return nil, utils.NewInvalidError(errors.Wrap(err, "failed to parse interaction"))
	}
	if i.Type == 0 {
		return nil, utils.NewInvalidError("interaction has no type")
	}
	return &i, nil
}

// InvokingUser returns the user who triggered the interaction, whether it
// happened in a guild (Member is set) or in a DM (User is set).
func (i *Interaction) InvokingUser() *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// CreatedAt returns the creation time encoded in the interaction's id.
func (i *Interaction) CreatedAt() (time.Time, error) {
	return SnowflakeTime(i.ID)
}

// SnowflakeTime decodes the creation time from a platform snowflake id.
func SnowflakeTime(id string) (time.Time, error) {
	sf, err := snowflake.ParseString(id)
	if err != nil {
		return time.Time{}, utils.NewInvalidError("invalid snowflake %q", id)
	}
	ms := (sf.Int64() >> 22) + DiscordEpoch
	return time.UnixMilli(ms).UTC(), nil
}

func (i *Interaction) CommandData() (*CommandData, error) {
	if i.Type != discordgo.InteractionApplicationCommand && i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return nil, utils.NewInvalidError("interaction type %d does not carry command data", i.Type)
	}
	data := CommandData{}
	if err := i.unmarshalData(&data); err != nil {
		return nil, err
	}
	if data.Name == "" {
		return nil, utils.NewInvalidError("command interaction has no command name")
	}
	return &data, nil
}

func (i *Interaction) ComponentData() (*ComponentData, error) {
	if i.Type != discordgo.InteractionMessageComponent {
		return nil, utils.NewInvalidError("interaction type %d does not carry component data", i.Type)
	}
	data := ComponentData{}
	if err := i.unmarshalData(&data); err != nil {
		return nil, err
	}
	if data.CustomID == "" {
		return nil, utils.NewInvalidError("component interaction has no custom_id")
	}
	return &data, nil
}

func (i *Interaction) ModalSubmitData() (*ModalSubmitData, error) {
	if i.Type != discordgo.InteractionModalSubmit {
		return nil, utils.NewInvalidError("interaction type %d does not carry modal data", i.Type)
	}
	data := ModalSubmitData{}
	if err := i.unmarshalData(&data); err != nil {
		return nil, err
	}
	if data.CustomID == "" {
		return nil, utils.NewInvalidError("modal submit interaction has no custom_id")
	}
	return &data, nil
}

func (i *Interaction) unmarshalData(v interface{}) error {
	if len(i.Data) == 0 {
		return utils.NewInvalidError("interaction has no data")
	}
	if err := json.Unmarshal(i.Data, v); err != nil {
		return utils.NewInvalidError(errors.Wrap(err, "failed to parse interaction data"))
	}
	return nil
}

func (i *Interaction) Loggable() []interface{} {
	props := []interface{}{"interaction_id", i.ID, "interaction_type", int(i.Type)}
	if i.GuildID != "" {
		props = append(props, "guild_id", i.GuildID)
	}
	if u := i.InvokingUser(); u != nil {
		props = append(props, "user_id", u.ID)
	}
	return props
}

// CommandData is the data of an application command or autocomplete
// interaction.
type CommandData struct {
	ID       string                           `json:"id"`
	Name     string                           `json:"name"`
	Type     discordgo.ApplicationCommandType `json:"type"`
	Options  []*Option                        `json:"options,omitempty"`
	Resolved *Resolved                        `json:"resolved,omitempty"`
	GuildID  string                           `json:"guild_id,omitempty"`
	TargetID string                           `json:"target_id,omitempty"`
}

// CommandType returns the command type, chat input when unset.
func (d *CommandData) CommandType() discordgo.ApplicationCommandType {
	if d.Type == 0 {
		return discordgo.ChatApplicationCommand
	}
	return d.Type
}

// ComponentData is the data of a message component interaction.
type ComponentData struct {
	CustomID      string                  `json:"custom_id"`
	ComponentType discordgo.ComponentType `json:"component_type"`
	Values        []string                `json:"values,omitempty"`
	Resolved      *Resolved               `json:"resolved,omitempty"`
}

// ModalSubmitData is the data of a modal submit interaction.
type ModalSubmitData struct {
	CustomID   string                `json:"custom_id"`
	Components []*SubmittedComponent `json:"components,omitempty"`
	Resolved   *Resolved             `json:"resolved,omitempty"`
}

// SubmittedComponent is one node of the submitted modal component tree. Rows
// carry Components, labels carry a single Component, inputs carry the values.
type SubmittedComponent struct {
	Type       discordgo.ComponentType `json:"type"`
	ID         int                     `json:"id,omitempty"`
	CustomID   string                  `json:"custom_id,omitempty"`
	Value      string                  `json:"value,omitempty"`
	Values     []string                `json:"values,omitempty"`
	Components []*SubmittedComponent   `json:"components,omitempty"`
	Component  *SubmittedComponent     `json:"component,omitempty"`
}

// Field looks up a submitted input by its custom id, anywhere in the tree.
func (d *ModalSubmitData) Field(customID string) *SubmittedComponent {
	var find func(cc []*SubmittedComponent) *SubmittedComponent
	find = func(cc []*SubmittedComponent) *SubmittedComponent {
		for _, c := range cc {
			if c == nil {
				continue
			}
			if c.CustomID == customID {
				return c
			}
			if found := find(c.Components); found != nil {
				return found
			}
			if c.Component != nil {
				if found := find([]*SubmittedComponent{c.Component}); found != nil {
					return found
				}
			}
		}
		return nil
	}
	return find(d.Components)
}

// Values returns all submitted input values keyed by custom id. Multi-value
// inputs (selects inside labels) contribute their first value.
func (d *ModalSubmitData) Values() map[string]string {
	out := map[string]string{}
	var walk func(cc []*SubmittedComponent)
	walk = func(cc []*SubmittedComponent) {
		for _, c := range cc {
			if c == nil {
				continue
			}
			if c.CustomID != "" {
				switch {
				case c.Value != "":
					out[c.CustomID] = c.Value
				case len(c.Values) > 0:
					out[c.CustomID] = c.Values[0]
				default:
					out[c.CustomID] = ""
				}
			}
			walk(c.Components)
			if c.Component != nil {
				walk([]*SubmittedComponent{c.Component})
			}
		}
	}
	walk(d.Components)
	return out
}
