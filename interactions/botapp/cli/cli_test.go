package cli

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/interactions/botapp"
	"github.com/mattermost/mattermost-interactions/utils"
)

func run(t *testing.T, handlers botapp.HandlerSet, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test", handlers)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	key := hex.EncodeToString(pub)
	body := `{"type":1}`
	sig := interactions.SignEd25519(priv, []byte(body), "123")

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := run(t, nil, "", "verify", "--public-key", key, "--signature", sig, "--timestamp", "123", path)
	require.NoError(t, err)
	assert.Equal(t, "signature is valid\n", out)

	out, err = run(t, nil, body, "verify", "--public-key", key, "--signature", sig, "--timestamp", "123", "-")
	require.NoError(t, err)
	assert.Equal(t, "signature is valid\n", out)

	_, err = run(t, nil, body, "verify", "--public-key", key, "--signature", sig, "--timestamp", "124", "-")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)

	t.Setenv("DISCORD_PUBLIC_KEY", "")
	_, err = run(t, nil, body, "verify", "--signature", sig, "--timestamp", "123", "-")
	assert.ErrorIs(t, err, utils.ErrInvalid)

	_, err = run(t, nil, "", "verify", "--public-key", key, "--signature", sig, "--timestamp", "123", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func setupApp(t *testing.T) botapp.HandlerSet {
	base := t.TempDir()
	files := map[string]string{
		"src/commands/hello.yaml":           "name: hello\ndescription: Say hello\nhandler: hello\n",
		"src/components/vote.json":          `{"vote_button": {"custom_id": "vote", "handler": "vote"}}`,
		"src/components/modals/survey.yaml": "custom_id: survey\nhandler: survey\n",
	}
	for name, content := range files {
		path := filepath.Join(base, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	t.Setenv("DISCORD_APPLICATION_ID", "app1")
	t.Setenv("DISCORD_PUBLIC_KEY", hex.EncodeToString(pub))
	t.Setenv("INTERACTIONS_BASE_DIR", base)
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("STORE_BACKEND", "memory")

	return botapp.HandlerSet{
		"hello": func(req *botapp.CommandRequest) (*interactions.Response, error) {
			return nil, req.Reply(&interactions.Message{Content: "hello"})
		},
		"vote": func(req *botapp.ComponentRequest) (*interactions.Response, error) {
			return nil, req.DeferUpdate()
		},
		"survey": func(req *botapp.ModalRequest) (*interactions.Response, error) {
			return nil, req.Reply(&interactions.Message{Content: "thanks"})
		},
	}
}

func TestList(t *testing.T) {
	handlers := setupApp(t)

	out, err := run(t, handlers, "", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"command", "hello", "Say", "hello"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"component", "vote"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"modal", "survey"}, strings.Fields(lines[2]))
}

func TestRegisterDryRun(t *testing.T) {
	handlers := setupApp(t)

	out, err := run(t, handlers, "", "register", "--dry-run")
	require.NoError(t, err)
	var data []*discordgo.ApplicationCommand
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	require.Len(t, data, 1)
	assert.Equal(t, "hello", data[0].Name)
	assert.Equal(t, "Say hello", data[0].Description)
	assert.Equal(t, discordgo.ChatApplicationCommand, data[0].Type)

	_, err = run(t, handlers, "", "register")
	assert.ErrorIs(t, err, utils.ErrInvalid)
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("DISCORD_APPLICATION_ID", "")
	t.Setenv("DISCORD_PUBLIC_KEY", "")
	for _, args := range [][]string{{"list"}, {"register"}, {"serve"}} {
		_, err := run(t, nil, "", args...)
		assert.ErrorIs(t, err, utils.ErrInvalid, args)
	}
}

func TestSignThenVerify(t *testing.T) {
	seed := strings.Repeat("07", ed25519.SeedSize)
	body := `{"id":"1","type":1}`

	out, err := run(t, nil, body, "sign", "--seed", seed, "--timestamp", "1700000000", "-")
	require.NoError(t, err)
	headers := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.SplitN(line, ": ", 2)
		require.Len(t, parts, 2)
		headers[parts[0]] = parts[1]
	}
	assert.Equal(t, "1700000000", headers[interactions.TimestampHeader])

	out, err = run(t, nil, body, "verify",
		"--public-key", headers["Public key"],
		"--signature", headers[interactions.SignatureHeader],
		"--timestamp", headers[interactions.TimestampHeader],
		"-")
	require.NoError(t, err)
	assert.Equal(t, "signature is valid\n", out)

	_, err = run(t, nil, body, "sign", "--seed", "abcd", "-")
	assert.ErrorIs(t, err, utils.ErrInvalid)
}
