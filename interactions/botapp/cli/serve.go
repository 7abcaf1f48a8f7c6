// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package cli

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mattermost/mattermost-interactions/interactions/botapp"
)

func (c *cli) serveCmd() *cobra.Command {
	var register bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactions endpoint over HTTP.",
		Long: "Serve the interactions endpoint over HTTP, on the port set by PORT. " +
			"The app is configured with DISCORD_* and INTERACTIONS_* environment variables.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, conf, err := c.makeApp(ctx)
			if err != nil {
				return err
			}
			if register {
				if _, err = app.RegisterCommands(conf.BotToken, conf.GuildID); err != nil {
					return err
				}
			}
			return serve(ctx, app, conf.Port)
		},
	}
	cmd.Flags().BoolVar(&register, "register", false, "register the commands with the platform before serving (requires DISCORD_BOT_TOKEN)")
	return cmd
}

func serve(ctx context.Context, app *botapp.App, port int) error {
	addr := ":" + strconv.Itoa(port)
	app.Log.Infof("Application %s listening on %s, interactions endpoint at %s", app.ApplicationID, addr, botapp.InteractionsPath)
	if err := app.ListenAndServe(ctx, addr); err != nil {
		return errors.Wrap(err, "failed to serve")
	}
	app.Log.Infof("Application %s stopped", app.ApplicationID)
	return nil
}
