package botapp

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/utils"
)

const testTimestamp = "1700000000"

var (
	testPrivateKey = ed25519.NewKeyFromSeed(bytes.Repeat([]byte{7}, ed25519.SeedSize))
	testPublicKey  = hex.EncodeToString(testPrivateKey.Public().(ed25519.PublicKey))
)

// newTestApp makes an app rooted in an empty temp dir, so that no
// directories are discovered unless the test creates them.
func newTestApp(t *testing.T, opts ...AppOption) *App {
	t.Helper()
	opts = append([]AppOption{
		WithLog(utils.NewTestLogger()),
		WithBaseDir(t.TempDir()),
	}, opts...)
	app, err := MakeApp("app1", testPublicKey, opts...)
	require.NoError(t, err)
	return app
}

func signed(t *testing.T, payload interface{}) RawRequest {
	t.Helper()
	var body []byte
	switch p := payload.(type) {
	case []byte:
		body = p
	case string:
		body = []byte(p)
	default:
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	return RawRequest{
		Body:      body,
		Signature: interactions.SignEd25519(testPrivateKey, body, testTimestamp),
		Timestamp: testTimestamp,
	}
}

func commandPayload(name string, options ...map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"id":   "900000000000000001",
		"name": name,
		"type": 1,
	}
	if len(options) > 0 {
		data["options"] = options
	}
	return map[string]interface{}{
		"id":             "1100000000000000001",
		"application_id": "app1",
		"type":           2,
		"token":          "tok",
		"guild_id":       "g1",
		"member":         map[string]interface{}{"user": map[string]interface{}{"id": "u1", "username": "ann"}},
		"data":           data,
	}
}

func componentPayload(customID string, values []string, resolved map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"custom_id":      customID,
		"component_type": 2,
	}
	if values != nil {
		data["component_type"] = 3
		data["values"] = values
	}
	if resolved != nil {
		data["resolved"] = resolved
	}
	return map[string]interface{}{
		"id":    "1100000000000000002",
		"type":  3,
		"token": "tok",
		"user":  map[string]interface{}{"id": "u1"},
		"data":  data,
	}
}

func modalPayload(customID string, fields map[string]string) map[string]interface{} {
	rows := []interface{}{}
	for id, value := range fields {
		rows = append(rows, map[string]interface{}{
			"type": 1,
			"components": []interface{}{
				map[string]interface{}{"type": 4, "custom_id": id, "value": value},
			},
		})
	}
	return map[string]interface{}{
		"id":    "1100000000000000003",
		"type":  5,
		"token": "tok",
		"data": map[string]interface{}{
			"custom_id":  customID,
			"components": rows,
		},
	}
}

func handle(t *testing.T, app *App, payload interface{}) Result {
	t.Helper()
	return app.HandleRequest(context.Background(), signed(t, payload))
}

// wire returns the JSON encoding of a result body, decoded as a map.
func wire(t *testing.T, r Result) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(r.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func errorOf(t *testing.T, r Result) string {
	t.Helper()
	body, ok := r.Body.(ErrorBody)
	require.True(t, ok, "expected an error body, got %T", r.Body)
	return body.Error
}

func replyWith(content string) CommandHandler {
	return func(req *CommandRequest) (*interactions.Response, error) {
		return nil, req.Reply(&interactions.Message{Content: content})
	}
}
