// Copyright (c) 2019-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

// Package oauth implements the authorization code flow against the
// platform, and keeps the users' tokens in a store.
package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/mattermost/mattermost-interactions/interactions/appclient"
	"github.com/mattermost/mattermost-interactions/store"
	"github.com/mattermost/mattermost-interactions/utils"
	"github.com/mattermost/mattermost-interactions/utils/httputils"
)

const (
	AuthURL  = "https://discord.com/oauth2/authorize"
	TokenURL = "https://discord.com/api/oauth2/token"

	statePrefix = "oauth2_state:"
	tokenPrefix = "oauth2_token:"
)

// StateTTL is how long an authorization request can take to complete.
var StateTTL = 10 * time.Minute

var DefaultScopes = []string{"identify"}

// Config is the OAuth2 application configuration.
type Config struct {
	ClientID     string   `envconfig:"DISCORD_CLIENT_ID"`
	ClientSecret string   `envconfig:"DISCORD_CLIENT_SECRET"`
	RedirectURL  string   `envconfig:"DISCORD_REDIRECT_URL"`
	Scopes       []string `envconfig:"DISCORD_OAUTH2_SCOPES"`

	// AuthURL, TokenURL, and APIURL default to the platform's.
	AuthURL  string `envconfig:"DISCORD_OAUTH2_AUTH_URL"`
	TokenURL string `envconfig:"DISCORD_OAUTH2_TOKEN_URL"`
	APIURL   string `envconfig:"DISCORD_API_URL"`
}

type Client struct {
	OAuth2 *oauth2.Config
	APIURL string
	Store  store.Store
	Log    utils.Logger

	now func() time.Time
}

func New(conf Config, s store.Store, log utils.Logger) (*Client, error) {
	if conf.ClientID == "" || conf.ClientSecret == "" {
		return nil, utils.NewInvalidError("OAuth2 client ID and secret are required")
	}
	if conf.RedirectURL == "" {
		return nil, utils.NewInvalidError("OAuth2 redirect URL is required")
	}
	if s == nil {
		return nil, utils.NewInvalidError("OAuth2 requires a store")
	}
	if log == nil {
		log = utils.NewNilLogger()
	}

	scopes := conf.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	endpoint := oauth2.Endpoint{
		AuthURL:   orDefault(conf.AuthURL, AuthURL),
		TokenURL:  orDefault(conf.TokenURL, TokenURL),
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	for _, u := range []string{endpoint.AuthURL, endpoint.TokenURL, orDefault(conf.APIURL, appclient.DefaultURL)} {
		if err := httputils.IsValidURL(u); err != nil {
			return nil, errors.Wrap(err, "invalid OAuth2 configuration")
		}
	}

	return &Client{
		OAuth2: &oauth2.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			RedirectURL:  conf.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		APIURL: strings.TrimRight(orDefault(conf.APIURL, appclient.DefaultURL), "/"),
		Store:  s,
		Log:    log,
		now:    time.Now,
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// AuthCodeURL starts an authorization request on behalf of a user, and
// returns the URL to send them to. The request's state is kept in the store
// until Complete is called with it.
func (c *Client) AuthCodeURL(ctx context.Context, userID string) (string, error) {
	state := uuid.NewString()
	_, err := c.Store.Set(ctx, statePrefix+state, store.Record{
		"user_id":    userID,
		"expires_at": c.now().Add(StateTTL).Unix(),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to save OAuth2 state")
	}
	return c.OAuth2.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Complete finishes an authorization request: it checks the state, exchanges
// the code for a token, and saves the token for the user it identifies.
func (c *Client) Complete(ctx context.Context, state, code string) (*discordgo.User, *oauth2.Token, error) {
	if state == "" || code == "" {
		return nil, nil, utils.NewInvalidError("OAuth2 state and code are required")
	}
	userID, err := c.consumeState(ctx, state)
	if err != nil {
		return nil, nil, err
	}

	token, err := c.OAuth2.Exchange(ctx, code)
	if err != nil {
		return nil, nil, utils.NewUnauthorizedError(errors.Wrap(err, "failed to exchange the OAuth2 code"))
	}
	user, err := c.CurrentUser(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if userID != "" && user.ID != userID {
		return nil, nil, utils.NewForbiddenError("authorized user %s does not match the user %s who started the request", user.ID, userID)
	}

	if err = c.StoreToken(ctx, user.ID, token); err != nil {
		return nil, nil, err
	}
	c.log(user.ID, token).Debugw("Completed OAuth2 authorization")
	return user, token, nil
}

func (c *Client) consumeState(ctx context.Context, state string) (string, error) {
	rec, err := c.Store.Get(ctx, statePrefix+state)
	if err != nil {
		return "", errors.Wrap(err, "failed to load OAuth2 state")
	}
	if rec == nil {
		return "", utils.NewForbiddenError("unknown OAuth2 state")
	}
	if _, err = c.Store.Delete(ctx, statePrefix+state); err != nil {
		return "", errors.Wrap(err, "failed to delete OAuth2 state")
	}

	var s struct {
		UserID    string `json:"user_id"`
		ExpiresAt int64  `json:"expires_at"`
	}
	if err = utils.Remarshal(&s, rec); err != nil {
		return "", errors.Wrap(err, "invalid OAuth2 state")
	}
	if c.now().Unix() > s.ExpiresAt {
		return "", utils.NewForbiddenError("OAuth2 state has expired")
	}
	return s.UserID, nil
}

// CurrentUser returns the user the token was issued to.
func (c *Client) CurrentUser(ctx context.Context, token *oauth2.Token) (*discordgo.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.OAuth2.Client(ctx, token).Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get the current user")
	}
	defer resp.Body.Close()
	if err = httputils.CheckResponse(resp); err != nil {
		return nil, errors.Wrap(err, "failed to get the current user")
	}

	user := discordgo.User{}
	if err = json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "failed to decode the current user")
	}
	return &user, nil
}

// StoreToken saves a user's token. A nil token removes it.
func (c *Client) StoreToken(ctx context.Context, userID string, token *oauth2.Token) error {
	if userID == "" {
		return utils.NewInvalidError("user ID is required")
	}
	if token == nil {
		return c.RemoveToken(ctx, userID)
	}
	rec := store.Record{}
	if err := utils.Remarshal(&rec, token); err != nil {
		return err
	}
	if _, err := c.Store.Set(ctx, tokenPrefix+userID, rec); err != nil {
		return errors.Wrap(err, "failed to store the OAuth2 token")
	}
	return nil
}

// Token returns a user's saved token, or an ErrNotFound.
func (c *Client) Token(ctx context.Context, userID string) (*oauth2.Token, error) {
	rec, err := c.Store.Get(ctx, tokenPrefix+userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load the OAuth2 token")
	}
	if rec == nil {
		return nil, utils.NewNotFoundError("no OAuth2 token for user %s", userID)
	}
	token := oauth2.Token{}
	if err = utils.Remarshal(&token, rec); err != nil {
		return nil, errors.Wrap(err, "invalid OAuth2 token")
	}
	return &token, nil
}

func (c *Client) RemoveToken(ctx context.Context, userID string) error {
	_, err := c.Store.Delete(ctx, tokenPrefix+userID)
	if err != nil {
		return errors.Wrap(err, "failed to remove the OAuth2 token")
	}
	c.Log.Debugw("Removed OAuth2 token", "user_id", userID)
	return nil
}

// HTTPClient returns a client authorized as the user. Refreshed tokens are
// saved back to the store.
func (c *Client) HTTPClient(ctx context.Context, userID string) (*http.Client, error) {
	token, err := c.Token(ctx, userID)
	if err != nil {
		return nil, err
	}
	source := c.OAuth2.TokenSource(ctx, token)
	current, err := source.Token()
	if err != nil {
		return nil, utils.NewUnauthorizedError(errors.Wrap(err, "failed to refresh the OAuth2 token"))
	}
	if current.AccessToken != token.AccessToken {
		if err = c.StoreToken(ctx, userID, current); err != nil {
			return nil, err
		}
		c.log(userID, current).Debugw("Refreshed OAuth2 token")
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(current)), nil
}

func (c *Client) log(userID string, token *oauth2.Token) utils.Logger {
	return c.Log.With(
		"user_id", userID,
		"client_id", c.OAuth2.ClientID,
		"access_token", utils.LastN(token.AccessToken, 4),
		"refresh_token", utils.LastN(token.RefreshToken, 4),
		"token_expiry", token.Expiry.Format(time.RFC822),
	)
}
