package appclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/utils"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]interface{}
}

func newTestServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	calls := []recorded{}
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.RawQuery}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, &rec.body))
		}
		calls = append(calls, rec)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(s.Close)
	return s, &calls
}

func newTestClient(t *testing.T, s *httptest.Server) *Client {
	c, err := NewClient("app1", s.Client()).WithURL(s.URL)
	require.NoError(t, err)
	return c
}

func TestCreateFollowup(t *testing.T) {
	s, calls := newTestServer(t, http.StatusOK, `{"id":"m1","content":"hi"}`)
	c := newTestClient(t, s)

	data := interactions.NormaliseMessageData(&interactions.Message{
		Content: "hi",
		Flags:   []discordgo.MessageFlags{discordgo.MessageFlagsEphemeral},
	})
	m, err := c.CreateFollowup(context.Background(), "tok", data)
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/webhooks/app1/tok", call.path)
	assert.Equal(t, "wait=true", call.query)
	assert.Equal(t, "hi", call.body["content"])
	assert.EqualValues(t, discordgo.MessageFlagsEphemeral, call.body["flags"])
}

func TestCreateFollowupEmpty(t *testing.T) {
	s, calls := newTestServer(t, http.StatusOK, `{}`)
	c := newTestClient(t, s)

	_, err := c.CreateFollowup(context.Background(), "tok", &interactions.MessageData{})
	require.ErrorIs(t, err, utils.ErrInvalid)
	assert.Empty(t, *calls)
}

func TestEditOriginal(t *testing.T) {
	s, calls := newTestServer(t, http.StatusOK, `{"id":"orig","content":"edited"}`)
	c := newTestClient(t, s)

	m, err := c.EditOriginal(context.Background(), "tok", &interactions.MessageData{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", m.Content)

	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPatch, (*calls)[0].method)
	assert.Equal(t, "/webhooks/app1/tok/messages/@original", (*calls)[0].path)
}

func TestCreateInteractionResponse(t *testing.T) {
	s, calls := newTestServer(t, http.StatusNoContent, "")
	c := newTestClient(t, s)

	r := interactions.NewDeferredMessageResponse(discordgo.MessageFlagsEphemeral)
	require.NoError(t, c.CreateInteractionResponse(context.Background(), "i1", "tok", r))
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
	assert.Equal(t, "/interactions/i1/tok/callback", (*calls)[0].path)
	assert.Equal(t, map[string]interface{}{
		"type": float64(discordgo.InteractionResponseDeferredChannelMessageWithSource),
		"data": map[string]interface{}{"flags": float64(discordgo.MessageFlagsEphemeral)},
	}, (*calls)[0].body)

	err := c.CreateInteractionResponse(context.Background(), "", "tok", r)
	assert.ErrorIs(t, err, utils.ErrInvalid)
	err = c.CreateInteractionResponse(context.Background(), "i1", "tok", nil)
	assert.ErrorIs(t, err, utils.ErrInvalid)
	assert.Len(t, *calls, 1)
}

func TestDeleteOriginal(t *testing.T) {
	s, calls := newTestServer(t, http.StatusNoContent, "")
	c := newTestClient(t, s)

	require.NoError(t, c.DeleteOriginal(context.Background(), "tok"))
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
	assert.Nil(t, (*calls)[0].body)
}

func TestClientErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		status   int
		expected error
	}{
		"unknown token": {http.StatusNotFound, utils.ErrNotFound},
		"bad request":   {http.StatusBadRequest, utils.ErrInvalid},
		"unauthorized":  {http.StatusUnauthorized, utils.ErrUnauthorized},
	} {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestServer(t, tc.status, `{"message":"nope"}`)
			c := newTestClient(t, s)

			_, err := c.EditOriginal(context.Background(), "tok", &interactions.MessageData{Content: "x"})
			require.ErrorIs(t, err, tc.expected)
			assert.Contains(t, err.Error(), "failed to edit the original response")
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestWithURL(t *testing.T) {
	c := NewClient("app1", nil)
	assert.Equal(t, DefaultURL, c.URL)
	assert.Equal(t, http.DefaultClient, c.HTTPClient)

	c2, err := c.WithURL("http://localhost:1234/api/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1234/api", c2.URL)
	assert.Equal(t, DefaultURL, c.URL)

	_, err = c.WithURL("ftp://nope")
	require.Error(t, err)
}

type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestBulkOverwriteCommands(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody []map[string]interface{}
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotAuth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"c1","name":"ping","description":"Ping"}]`))
	}))
	defer s.Close()
	target, _ := url.Parse(s.URL)

	c := NewClient("app1", &http.Client{Transport: rewriteTransport{target: target}})
	registered, err := c.BulkOverwriteCommands("bot-token", "g1", []*discordgo.ApplicationCommand{
		{Name: "ping", Description: "Ping"},
	})
	require.NoError(t, err)
	require.Len(t, registered, 1)
	assert.Equal(t, "c1", registered[0].ID)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Contains(t, gotPath, "/applications/app1/guilds/g1/commands")
	assert.Equal(t, "Bot bot-token", gotAuth)
	require.Len(t, gotBody, 1)
	assert.Equal(t, "ping", gotBody[0]["name"])
}

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestBulkOverwriteCommandsWithURL(t *testing.T) {
	var gotPath string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"c1","name":"ping"}]`))
	}))
	defer s.Close()

	calls := 0
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return s.Client().Do(req)
	})
	c, err := NewClient("app1", doer).WithURL(s.URL + "/api/")
	require.NoError(t, err)

	registered, err := c.BulkOverwriteCommands("bot-token", "", nil)
	require.NoError(t, err)
	require.Len(t, registered, 1)
	assert.Equal(t, "/api/applications/app1/commands", gotPath)
	assert.Equal(t, 1, calls)
}

func TestBulkOverwriteCommandsValidation(t *testing.T) {
	_, err := NewClient("app1", nil).BulkOverwriteCommands("", "", nil)
	require.ErrorIs(t, err, utils.ErrInvalid)

	_, err = NewClient("", nil).BulkOverwriteCommands("tok", "", nil)
	require.ErrorIs(t, err, utils.ErrInvalid)
}
