// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package botapp

import (
	"context"
	"encoding/hex"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"

	"github.com/mattermost/mattermost-interactions/interactions/appclient"
	"github.com/mattermost/mattermost-interactions/store"
	"github.com/mattermost/mattermost-interactions/utils"
)

// Config is the environment configuration of an app.
type Config struct {
	ApplicationID string `envconfig:"DISCORD_APPLICATION_ID"`
	PublicKey     string `envconfig:"DISCORD_PUBLIC_KEY"`
	BotToken      string `envconfig:"DISCORD_BOT_TOKEN"`
	GuildID       string `envconfig:"DISCORD_GUILD_ID"`
	APIURL        string `envconfig:"DISCORD_API_URL" default:"https://discord.com/api/v10"`

	BaseDir              string `envconfig:"INTERACTIONS_BASE_DIR"`
	CommandsDir          string `envconfig:"INTERACTIONS_COMMANDS_DIR"`
	ComponentsDir        string `envconfig:"INTERACTIONS_COMPONENTS_DIR"`
	DisableCommandsDir   bool   `envconfig:"INTERACTIONS_DISABLE_COMMANDS_DIR"`
	DisableComponentsDir bool   `envconfig:"INTERACTIONS_DISABLE_COMPONENTS_DIR"`

	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	store.Config
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, utils.NewInvalidError(err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	var result *multierror.Error
	if c.ApplicationID == "" {
		result = multierror.Append(result, utils.NewInvalidError("DISCORD_APPLICATION_ID is required"))
	}
	if c.PublicKey == "" {
		result = multierror.Append(result, utils.NewInvalidError("DISCORD_PUBLIC_KEY is required"))
	} else if key, err := hex.DecodeString(c.PublicKey); err != nil || len(key) != ed25519.PublicKeySize {
		result = multierror.Append(result, utils.NewInvalidError("DISCORD_PUBLIC_KEY must be a hex-encoded %d byte key", ed25519.PublicKeySize))
	}
	if c.Port <= 0 || c.Port > 65535 {
		result = multierror.Append(result, utils.NewInvalidError("PORT %d is out of range", c.Port))
	}
	if c.DisableCommandsDir && c.CommandsDir != "" {
		result = multierror.Append(result, utils.NewInvalidError("INTERACTIONS_COMMANDS_DIR is set, but INTERACTIONS_DISABLE_COMMANDS_DIR disables it"))
	}
	if c.DisableComponentsDir && c.ComponentsDir != "" {
		result = multierror.Append(result, utils.NewInvalidError("INTERACTIONS_COMPONENTS_DIR is set, but INTERACTIONS_DISABLE_COMPONENTS_DIR disables it"))
	}
	return result.ErrorOrNil()
}

// Options translates the configuration to app options, creating the store.
func (c *Config) Options(ctx context.Context, log utils.Logger) ([]AppOption, error) {
	opts := []AppOption{
		WithLog(log),
		WithBaseDir(c.BaseDir),
	}

	switch {
	case c.DisableCommandsDir:
		opts = append(opts, WithoutCommandsDir())
	case c.CommandsDir != "":
		opts = append(opts, WithCommandsDir(c.CommandsDir))
	}
	switch {
	case c.DisableComponentsDir:
		opts = append(opts, WithoutComponentsDir())
	case c.ComponentsDir != "":
		opts = append(opts, WithComponentsDir(c.ComponentsDir))
	}

	if c.APIURL != "" && c.APIURL != appclient.DefaultURL {
		opts = append(opts, WithAPIURL(c.APIURL))
	}

	s, err := store.New(ctx, c.Config, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create the store")
	}
	opts = append(opts, WithStore(s))
	return opts, nil
}

// MakeAppFromConfig validates the configuration, and makes an app with it.
// Additional options are applied after the configured ones.
func MakeAppFromConfig(ctx context.Context, c *Config, log utils.Logger, opts ...AppOption) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = utils.MustMakeCommandLogger(utils.ParseLevel(c.LogLevel))
	}
	configured, err := c.Options(ctx, log)
	if err != nil {
		return nil, err
	}
	return MakeApp(c.ApplicationID, c.PublicKey, append(configured, opts...)...)
}
