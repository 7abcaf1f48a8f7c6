// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

// interactionsctl signs and verifies interaction requests, for testing an
// app's endpoint by hand. Its serve, register, and list commands only know
// the handlers of the app that embeds them with cli.NewRootCommand, so here
// they are limited to apps without handler references.
package main

import (
	"fmt"
	"os"

	"github.com/mattermost/mattermost-interactions/interactions/botapp"
	"github.com/mattermost/mattermost-interactions/interactions/botapp/cli"
)

func main() {
	if err := cli.NewRootCommand("interactionsctl", botapp.HandlerSet{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
