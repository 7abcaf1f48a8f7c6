package interactions

import (
	"github.com/bwmarrin/discordgo"
)

// Resolved is the side-table of full entity objects attached to an
// interaction, keyed by snowflake id.
type Resolved struct {
	Users       map[string]*discordgo.User              `json:"users,omitempty"`
	Members     map[string]*discordgo.Member            `json:"members,omitempty"`
	Roles       map[string]*discordgo.Role              `json:"roles,omitempty"`
	Channels    map[string]*discordgo.Channel           `json:"channels,omitempty"`
	Messages    map[string]*discordgo.Message           `json:"messages,omitempty"`
	Attachments map[string]*discordgo.MessageAttachment `json:"attachments,omitempty"`
}

// The lookups are nil-safe on both the receiver and the maps.

func (r *Resolved) User(id string) *discordgo.User {
	if r == nil {
		return nil
	}
	return r.Users[id]
}

// Member returns the guild member for id, with its User filled in from the
// users table when the member entry omits it.
func (r *Resolved) Member(id string) *discordgo.Member {
	if r == nil || r.Members[id] == nil {
		return nil
	}
	m := *r.Members[id]
	if m.User == nil {
		m.User = r.User(id)
	}
	return &m
}

func (r *Resolved) Role(id string) *discordgo.Role {
	if r == nil {
		return nil
	}
	return r.Roles[id]
}

func (r *Resolved) Channel(id string) *discordgo.Channel {
	if r == nil {
		return nil
	}
	return r.Channels[id]
}

func (r *Resolved) Message(id string) *discordgo.Message {
	if r == nil {
		return nil
	}
	return r.Messages[id]
}

func (r *Resolved) Attachment(id string) *discordgo.MessageAttachment {
	if r == nil {
		return nil
	}
	return r.Attachments[id]
}

// Mentionable is an entity referenced by a mentionable option or select
// value: either a role, or a user (with its member, if in a guild).
type Mentionable struct {
	Role   *discordgo.Role
	User   *discordgo.User
	Member *discordgo.Member
}

// Mentionable resolves id as a role first, then as a user, since the id may
// belong to either space.
func (r *Resolved) Mentionable(id string) *Mentionable {
	if role := r.Role(id); role != nil {
		return &Mentionable{Role: role}
	}
	if user := r.User(id); user != nil {
		return &Mentionable{User: user, Member: r.Member(id)}
	}
	return nil
}
