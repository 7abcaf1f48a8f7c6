package botapp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-interactions/utils"
)

// redirect sends all requests to target, regardless of their host.
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestCommandData(t *testing.T) {
	base := t.TempDir()
	writeFiles(t, base, discoveryFiles)

	var calls []string
	app, err := MakeApp("app1", testPublicKey,
		WithLog(utils.NewTestLogger()),
		WithBaseDir(base),
		WithHandlers(discoveryHandlers(&calls)),
		WithCommand(&Command{
			Data:    &discordgo.ApplicationCommand{Name: "ping", Description: "Ping"},
			Handler: replyWith("pong"),
		}),
	)
	require.NoError(t, err)

	type summary struct{ Name, Description string }
	var actual []summary
	for _, c := range app.CommandData() {
		actual = append(actual, summary{c.Name, c.Description})
	}
	expected := []summary{
		{"Profile", ""},
		{"hello", "Say hello"},
		{"ping", "Ping"},
	}
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("command data mismatch (-expected +actual):\n%s", diff)
	}
}

func TestRegisterCommands(t *testing.T) {
	var gotPath, gotAuth string
	var gotNames []string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		var cmds []*discordgo.ApplicationCommand
		_ = json.Unmarshal(body, &cmds)
		for i, c := range cmds {
			gotNames = append(gotNames, c.Name)
			c.ID = "id" + c.Name
			cmds[i] = c
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cmds)
	}))
	defer s.Close()
	target, err := url.Parse(s.URL)
	require.NoError(t, err)

	app := newTestApp(t,
		WithHTTPClient(&http.Client{Transport: redirect{target: target}}),
		WithCommand(
			&Command{Name: "b", Handler: replyWith("b")},
			&Command{Name: "a", Handler: replyWith("a")},
		),
	)

	registered, err := app.RegisterCommands("secret", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, gotNames)
	assert.Contains(t, gotPath, "/applications/app1/commands")
	assert.Equal(t, "Bot secret", gotAuth)
	require.Len(t, registered, 2)
	assert.Equal(t, "ida", registered[0].ID)

	_, err = app.RegisterCommands("secret", "g1")
	require.NoError(t, err)
	assert.Contains(t, gotPath, "/applications/app1/guilds/g1/commands")

	_, err = app.RegisterCommands("", "")
	assert.ErrorIs(t, err, utils.ErrInvalid)
}

func TestRegisterCommandsWithAPIURL(t *testing.T) {
	var gotPath string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer s.Close()

	app := newTestApp(t,
		WithAPIURL(s.URL+"/api/"),
		WithHTTPClient(s.Client()),
		WithCommand(&Command{Name: "a", Handler: replyWith("a")}),
	)
	_, err := app.RegisterCommands("secret", "")
	require.NoError(t, err)
	assert.Equal(t, "/api/applications/app1/commands", gotPath)

	_, err = MakeApp("app1", testPublicKey, WithAPIURL("ftp://nope"))
	assert.ErrorIs(t, err, utils.ErrInvalid)
}
