package botapp

import (
	"github.com/bwmarrin/discordgo"

	"github.com/mattermost/mattermost-interactions/interactions"
)

// The select menu accessors cross-reference the selected values with the
// resolved entities. Values missing from the resolved data are skipped, and
// the result is never nil.

func (req *ComponentRequest) GetStringValues() []string {
	out := []string{}
	if req.Component == nil {
		return out
	}
	return append(out, req.Component.Values...)
}

func (req *ComponentRequest) resolved() (*interactions.Resolved, []string) {
	if req.Component == nil {
		return nil, nil
	}
	return req.Component.Resolved, req.Component.Values
}

func (req *ComponentRequest) GetUsers() []*discordgo.User {
	resolved, values := req.resolved()
	out := []*discordgo.User{}
	for _, id := range values {
		if u := resolved.User(id); u != nil {
			out = append(out, u)
		}
	}
	return out
}

// GetMembers returns the guild members of the selected users, when the
// selection happened in a guild.
func (req *ComponentRequest) GetMembers() []*discordgo.Member {
	resolved, values := req.resolved()
	out := []*discordgo.Member{}
	for _, id := range values {
		if m := resolved.Member(id); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func (req *ComponentRequest) GetRoles() []*discordgo.Role {
	resolved, values := req.resolved()
	out := []*discordgo.Role{}
	for _, id := range values {
		if r := resolved.Role(id); r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (req *ComponentRequest) GetChannels() []*discordgo.Channel {
	resolved, values := req.resolved()
	out := []*discordgo.Channel{}
	for _, id := range values {
		if c := resolved.Channel(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (req *ComponentRequest) GetMentionables() []*interactions.Mentionable {
	resolved, values := req.resolved()
	out := []*interactions.Mentionable{}
	for _, id := range values {
		if m := resolved.Mentionable(id); m != nil {
			out = append(out, m)
		}
	}
	return out
}
