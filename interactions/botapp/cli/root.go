// Copyright (c) 2019-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

// Package cli is the command line of an interactions app: serving it,
// registering its commands, and debugging signatures.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/mattermost/mattermost-interactions/interactions/botapp"
	"github.com/mattermost/mattermost-interactions/utils"
)

type cli struct {
	handlers botapp.HandlerSet
	opts     []botapp.AppOption

	verbose bool
	log     utils.Logger
}

// NewRootCommand returns the command tree of an app. Definition files
// discovered by serve and register refer to handlers, so programs that
// embed it pass their HandlerSet here.
func NewRootCommand(name string, handlers botapp.HandlerSet, opts ...botapp.AppOption) *cobra.Command {
	c := &cli{
		handlers: handlers,
		opts:     opts,
		log:      utils.NewNilLogger(),
	}

	root := &cobra.Command{
		Use:           name,
		Short:         "Serve and manage an interactions app.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zapcore.InfoLevel
			if c.verbose {
				level = zapcore.DebugLevel
			}
			c.log = utils.MustMakeCommandLogger(level)
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		c.serveCmd(),
		c.registerCmd(),
		c.listCmd(),
		signCmd(),
		verifyCmd(),
	)
	return root
}

// makeApp makes the app from the environment configuration.
func (c *cli) makeApp(ctx context.Context) (*botapp.App, *botapp.Config, error) {
	conf, err := botapp.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !c.verbose && conf.LogLevel != "" {
		c.log = utils.MustMakeCommandLogger(utils.ParseLevel(conf.LogLevel))
	}
	opts := append([]botapp.AppOption{botapp.WithHandlers(c.handlers)}, c.opts...)
	app, err := botapp.MakeAppFromConfig(ctx, conf, c.log, opts...)
	if err != nil {
		return nil, nil, err
	}
	return app, conf, nil
}
