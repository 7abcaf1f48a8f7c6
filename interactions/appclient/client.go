// Copyright (c) 2019-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package appclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/utils"
	"github.com/mattermost/mattermost-interactions/utils/httputils"
)

const DefaultURL = "https://discord.com/api/v10"

// Doer is the pluggable HTTP transport; *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// API is the follow-up channel of an interaction: out-of-band requests made
// with the interaction token. CreateInteractionResponse sends the initial
// response itself, the other calls need it to have been received.
//
//go:generate mockgen -destination=../../mocks/mock_appclient/mock_api.go -package=mock_appclient github.com/mattermost/mattermost-interactions/interactions/appclient API
type API interface {
	CreateInteractionResponse(ctx context.Context, interactionID, token string, r *interactions.Response) error
	CreateFollowup(ctx context.Context, token string, data *interactions.MessageData) (*discordgo.Message, error)
	EditOriginal(ctx context.Context, token string, data *interactions.MessageData) (*discordgo.Message, error)
	DeleteOriginal(ctx context.Context, token string) error
}

type Client struct {
	URL           string // The location of the API, for example "https://discord.com/api/v10"
	HTTPClient    Doer
	ApplicationID string
}

var _ API = (*Client)(nil)

func NewClient(applicationID string, httpClient Doer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		URL:           DefaultURL,
		HTTPClient:    httpClient,
		ApplicationID: applicationID,
	}
}

// WithURL returns a copy of the client that talks to a different API root.
func (c *Client) WithURL(rawURL string) (*Client, error) {
	cleaned, err := httputils.CleanURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid API URL")
	}
	client := *c
	client.URL = cleaned
	return &client, nil
}

// CreateInteractionResponse posts the initial response to the interaction
// callback endpoint, for transports that can not wait for follow-ups to be
// delivered after replying to the webhook request.
func (c *Client) CreateInteractionResponse(ctx context.Context, interactionID, token string, r *interactions.Response) error {
	if interactionID == "" || token == "" {
		return utils.NewInvalidError("an interaction ID and token are required to respond")
	}
	if r == nil {
		return utils.NewInvalidError("an interaction response is required")
	}
	path := "/interactions/" + url.PathEscape(interactionID) + "/" + url.PathEscape(token) + "/callback"
	if err := c.doAPI(ctx, http.MethodPost, path, r, nil); err != nil {
		return errors.Wrap(err, "failed to send the interaction response")
	}
	return nil
}

func (c *Client) CreateFollowup(ctx context.Context, token string, data *interactions.MessageData) (*discordgo.Message, error) {
	if data.IsEmpty() {
		return nil, utils.NewInvalidError("a follow-up message requires content, embeds, or components")
	}
	m := discordgo.Message{}
	err := c.doAPI(ctx, http.MethodPost, c.webhookPath(token)+"?wait=true", data, &m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create follow-up message")
	}
	return &m, nil
}

func (c *Client) EditOriginal(ctx context.Context, token string, data *interactions.MessageData) (*discordgo.Message, error) {
	if data == nil {
		data = &interactions.MessageData{}
	}
	m := discordgo.Message{}
	err := c.doAPI(ctx, http.MethodPatch, c.webhookPath(token)+"/messages/@original", data, &m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to edit the original response")
	}
	return &m, nil
}

func (c *Client) DeleteOriginal(ctx context.Context, token string) error {
	err := c.doAPI(ctx, http.MethodDelete, c.webhookPath(token)+"/messages/@original", nil, nil)
	if err != nil {
		return errors.Wrap(err, "failed to delete the original response")
	}
	return nil
}

func (c *Client) webhookPath(token string) string {
	return "/webhooks/" + url.PathEscape(c.ApplicationID) + "/" + url.PathEscape(token)
}

func (c *Client) doAPI(ctx context.Context, method, path string, in, out interface{}, prepare ...func(*http.Request)) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, f := range prepare {
		f(req)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err = httputils.CheckResponse(resp); err != nil {
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := httputils.LimitReadAll(resp.Body, httputils.InLimit)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}
	if err = json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
