// Copyright (c) 2019-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package interactions

import (
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/mattermost/mattermost-interactions/utils"
)

// Option is one node of a command invocation's option tree.
type Option struct {
	Name    string                                 `json:"name"`
	Type    discordgo.ApplicationCommandOptionType `json:"type"`
	Value   json.RawMessage                        `json:"value,omitempty"`
	Options []*Option                              `json:"options,omitempty"`
	Focused bool                                   `json:"focused,omitempty"`
}

var optionTypeNames = map[discordgo.ApplicationCommandOptionType]string{
	discordgo.ApplicationCommandOptionSubCommand:      "SUB_COMMAND",
	discordgo.ApplicationCommandOptionSubCommandGroup: "SUB_COMMAND_GROUP",
	discordgo.ApplicationCommandOptionString:          "STRING",
	discordgo.ApplicationCommandOptionInteger:         "INTEGER",
	discordgo.ApplicationCommandOptionBoolean:         "BOOLEAN",
	discordgo.ApplicationCommandOptionUser:            "USER",
	discordgo.ApplicationCommandOptionChannel:         "CHANNEL",
	discordgo.ApplicationCommandOptionRole:            "ROLE",
	discordgo.ApplicationCommandOptionMentionable:     "MENTIONABLE",
	discordgo.ApplicationCommandOptionNumber:          "NUMBER",
	discordgo.ApplicationCommandOptionAttachment:      "ATTACHMENT",
}

func OptionTypeName(t discordgo.ApplicationCommandOptionType) string {
	if name, ok := optionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", t)
}

// OptionResolver gives typed access to the options of one command
// invocation. The provider activates at most one subcommand path, so the
// group -> subcommand -> options nesting is collapsed to the names of the
// active group and subcommand, and the flat list of leaf options.
type OptionResolver struct {
	subcommandGroup string
	subcommand      string
	options         []*Option
	resolved        *Resolved
}

func NewOptionResolver(options []*Option, resolved *Resolved) *OptionResolver {
	r := &OptionResolver{
		options:  options,
		resolved: resolved,
	}
	if len(options) == 0 || options[0] == nil {
		return r
	}

	first := options[0]
	switch first.Type {
	case discordgo.ApplicationCommandOptionSubCommandGroup:
		r.subcommandGroup = first.Name
		r.options = nil
		if len(first.Options) > 0 && first.Options[0] != nil {
			r.subcommand = first.Options[0].Name
			r.options = first.Options[0].Options
		}
	case discordgo.ApplicationCommandOptionSubCommand:
		r.subcommand = first.Name
		r.options = first.Options
	}
	return r
}

// Options returns the flat list of the active leaf options.
func (r *OptionResolver) Options() []*Option {
	return r.options
}

// Get returns the named leaf option, or nil.
func (r *OptionResolver) Get(name string) *Option {
	for _, o := range r.options {
		if o != nil && o.Name == name {
			return o
		}
	}
	return nil
}

func (r *OptionResolver) Has(name string) bool {
	return r.Get(name) != nil
}

// Focused returns the option the user is typing in, for autocomplete
// interactions.
func (r *OptionResolver) Focused() *Option {
	for _, o := range r.options {
		if o != nil && o.Focused {
			return o
		}
	}
	return nil
}

func (r *OptionResolver) GetSubcommand(required bool) (string, error) {
	if r.subcommand == "" && required {
		return "", utils.NewInvalidError("required subcommand is missing")
	}
	return r.subcommand, nil
}

func (r *OptionResolver) GetSubcommandGroup(required bool) (string, error) {
	if r.subcommandGroup == "" && required {
		return "", utils.NewInvalidError("required subcommand group is missing")
	}
	return r.subcommandGroup, nil
}

// typed looks up name and checks its declared type. Returns nil, nil if the
// option is absent and not required.
func (r *OptionResolver) typed(name string, t discordgo.ApplicationCommandOptionType, required bool) (*Option, error) {
	o := r.Get(name)
	if o == nil {
		if required {
			return nil, utils.NewInvalidError("required option %q of type %s is missing", name, OptionTypeName(t))
		}
		return nil, nil
	}
	if o.Type != t {
		return nil, utils.NewInvalidError("option %q is of type %s, expected %s", name, OptionTypeName(o.Type), OptionTypeName(t))
	}
	return o, nil
}

func decodeValue(o *Option, v interface{}) error {
	if err := json.Unmarshal(o.Value, v); err != nil {
		return utils.NewInvalidError("option %q has a malformed %s value: %v", o.Name, OptionTypeName(o.Type), err)
	}
	return nil
}

func (r *OptionResolver) GetString(name string, required bool) (string, error) {
	o, err := r.typed(name, discordgo.ApplicationCommandOptionString, required)
	if o == nil || err != nil {
		return "", err
	}
	var v string
	err = decodeValue(o, &v)
	return v, err
}

func (r *OptionResolver) GetInteger(name string, required bool) (int64, error) {
	o, err := r.typed(name, discordgo.ApplicationCommandOptionInteger, required)
	if o == nil || err != nil {
		return 0, err
	}
	var v int64
	err = decodeValue(o, &v)
	return v, err
}

func (r *OptionResolver) GetNumber(name string, required bool) (float64, error) {
	o, err := r.typed(name, discordgo.ApplicationCommandOptionNumber, required)
	if o == nil || err != nil {
		return 0, err
	}
	var v float64
	err = decodeValue(o, &v)
	return v, err
}

func (r *OptionResolver) GetBoolean(name string, required bool) (bool, error) {
	o, err := r.typed(name, discordgo.ApplicationCommandOptionBoolean, required)
	if o == nil || err != nil {
		return false, err
	}
	var v bool
	err = decodeValue(o, &v)
	return v, err
}

// entityID returns the snowflake id carried by an entity-typed option.
func (r *OptionResolver) entityID(name string, t discordgo.ApplicationCommandOptionType, required bool) (string, error) {
	o, err := r.typed(name, t, required)
	if o == nil || err != nil {
		return "", err
	}
	var id string
	err = decodeValue(o, &id)
	return id, err
}

func unresolved(kind, id, name string) error {
	return utils.NewNotFoundError("%s %q referenced by option %q is not in the resolved data", kind, id, name)
}

func (r *OptionResolver) GetUser(name string, required bool) (*discordgo.User, error) {
	id, err := r.entityID(name, discordgo.ApplicationCommandOptionUser, required)
	if id == "" || err != nil {
		return nil, err
	}
	u := r.resolved.User(id)
	if u == nil {
		return nil, unresolved("user", id, name)
	}
	return u, nil
}

// GetMember returns the guild member of a user option. It is nil (without
// an error) for options supplied outside of a guild.
func (r *OptionResolver) GetMember(name string, required bool) (*discordgo.Member, error) {
	id, err := r.entityID(name, discordgo.ApplicationCommandOptionUser, required)
	if id == "" || err != nil {
		return nil, err
	}
	return r.resolved.Member(id), nil
}

func (r *OptionResolver) GetRole(name string, required bool) (*discordgo.Role, error) {
	id, err := r.entityID(name, discordgo.ApplicationCommandOptionRole, required)
	if id == "" || err != nil {
		return nil, err
	}
	role := r.resolved.Role(id)
	if role == nil {
		return nil, unresolved("role", id, name)
	}
	return role, nil
}

func (r *OptionResolver) GetChannel(name string, required bool) (*discordgo.Channel, error) {
	id, err := r.entityID(name, discordgo.ApplicationCommandOptionChannel, required)
	if id == "" || err != nil {
		return nil, err
	}
	ch := r.resolved.Channel(id)
	if ch == nil {
		return nil, unresolved("channel", id, name)
	}
	return ch, nil
}

func (r *OptionResolver) GetAttachment(name string, required bool) (*discordgo.MessageAttachment, error) {
	id, err := r.entityID(name, discordgo.ApplicationCommandOptionAttachment, required)
	if id == "" || err != nil {
		return nil, err
	}
	a := r.resolved.Attachment(id)
	if a == nil {
		return nil, unresolved("attachment", id, name)
	}
	return a, nil
}

// GetMentionable resolves a mentionable option, trying roles before users.
func (r *OptionResolver) GetMentionable(name string, required bool) (*Mentionable, error) {
	id, err := r.entityID(name, discordgo.ApplicationCommandOptionMentionable, required)
	if id == "" || err != nil {
		return nil, err
	}
	m := r.resolved.Mentionable(id)
	if m == nil {
		return nil, unresolved("mentionable", id, name)
	}
	return m, nil
}
