package botapp

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// CommandData returns the wire schemas of all registered commands, after
// loading the commands directory.
func (app *App) CommandData() []*discordgo.ApplicationCommand {
	app.ensureLoaded(commandEntry)
	commands := app.Commands()
	out := make([]*discordgo.ApplicationCommand, 0, len(commands))
	for _, c := range commands {
		out = append(out, c.Data)
	}
	return out
}

// RegisterCommands replaces the platform's command catalog with the
// registered commands, globally or in the guild if guildID is set.
func (app *App) RegisterCommands(botToken, guildID string) ([]*discordgo.ApplicationCommand, error) {
	data := app.CommandData()
	registered, err := app.restClient().BulkOverwriteCommands(botToken, guildID, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register commands")
	}
	app.Log.Infow("Registered commands", "count", len(registered), "guild_id", guildID)
	return registered, nil
}
