package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattermost/mattermost-interactions/utils"
)

func (c *cli) registerCmd() *cobra.Command {
	var guildID string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the app's commands with the platform.",
		Long: "Replace the platform's command catalog with the commands defined by the app, " +
			"globally or in a guild. Uses DISCORD_BOT_TOKEN, and DISCORD_GUILD_ID unless --guild is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, conf, err := c.makeApp(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("guild") {
				conf.GuildID = guildID
			}

			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), utils.Pretty(app.CommandData()))
				return nil
			}
			registered, err := app.RegisterCommands(conf.BotToken, conf.GuildID)
			if err != nil {
				return err
			}
			for _, r := range registered {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.ID, r.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "register in this guild instead of DISCORD_GUILD_ID; empty registers globally")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the command data instead of registering it")
	return cmd
}
