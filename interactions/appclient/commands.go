package appclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/utils"
)

// BulkOverwriteCommands replaces the application's command catalog, globally
// or in a single guild when guildID is set. The bot token is only needed for
// this call; follow-ups are authorized by the interaction token.
func (c *Client) BulkOverwriteCommands(botToken, guildID string, commands []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	if botToken == "" {
		return nil, utils.NewInvalidError("a bot token is required to register commands")
	}
	if c.ApplicationID == "" {
		return nil, utils.NewInvalidError("an application ID is required to register commands")
	}

	path := "/applications/" + url.PathEscape(c.ApplicationID)
	if guildID != "" {
		path += "/guilds/" + url.PathEscape(guildID)
	}
	path += "/commands"

	if commands == nil {
		commands = []*discordgo.ApplicationCommand{}
	}
	registered := []*discordgo.ApplicationCommand{}
	err := c.doAPI(context.Background(), http.MethodPut, path, commands, &registered, func(req *http.Request) {
		req.Header.Set("Authorization", "Bot "+botToken)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to register commands")
	}
	return registered, nil
}
