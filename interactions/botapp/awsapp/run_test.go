package awsapp

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bwmarrin/discordgo"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/interactions/botapp"
	"github.com/mattermost/mattermost-interactions/mocks/mock_appclient"
	"github.com/mattermost/mattermost-interactions/utils"
)

func TestHandler(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	app, err := botapp.MakeApp("app1", hex.EncodeToString(pub),
		botapp.WithLog(utils.NewTestLogger()),
		botapp.WithBaseDir(t.TempDir()),
		botapp.WithCommand(&botapp.Command{Name: "echo", Handler: func(req *botapp.CommandRequest) (*interactions.Response, error) {
			return nil, req.Reply(&interactions.Message{Content: "from lambda"})
		}}),
	)
	require.NoError(t, err)
	h := NewHandler(app)

	body := `{"id":"1","type":2,"token":"tok","data":{"id":"2","name":"echo","type":1}}`
	sig := interactions.SignEd25519(priv, []byte(body), "1700000000")

	for name, req := range map[string]events.APIGatewayProxyRequest{
		"canonical headers": {
			Body:    body,
			Headers: map[string]string{"X-Signature-Ed25519": sig, "X-Signature-Timestamp": "1700000000"},
		},
		"lowercase headers": {
			Body:    body,
			Headers: map[string]string{"x-signature-ed25519": sig, "x-signature-timestamp": "1700000000"},
		},
		"multi-value headers": {
			Body: body,
			MultiValueHeaders: map[string][]string{
				"x-signature-ed25519":   {sig},
				"x-signature-timestamp": {"1700000000"},
			},
		},
		"base64 body": {
			Body:            base64.StdEncoding.EncodeToString([]byte(body)),
			IsBase64Encoded: true,
			Headers:         map[string]string{"x-signature-ed25519": sig, "x-signature-timestamp": "1700000000"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := h(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])
			assert.JSONEq(t, `{"type":4,"data":{"content":"from lambda"}}`, resp.Body)
		})
	}

	t.Run("unsigned", func(t *testing.T) {
		resp, err := h(context.Background(), events.APIGatewayProxyRequest{Body: body})
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		out := botapp.ErrorBody{}
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
		assert.Contains(t, out.Error, "missing request signature")
	})

	t.Run("bad base64", func(t *testing.T) {
		resp, err := h(context.Background(), events.APIGatewayProxyRequest{Body: "%%%", IsBase64Encoded: true})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandlerDeliversFollowUps(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	ctrl := gomock.NewController(t)
	api := mock_appclient.NewMockAPI(ctrl)

	app, err := botapp.MakeApp("app1", hex.EncodeToString(pub),
		botapp.WithLog(utils.NewTestLogger()),
		botapp.WithBaseDir(t.TempDir()),
		botapp.WithAPI(api),
		botapp.WithCommand(&botapp.Command{Name: "slow", Handler: func(req *botapp.CommandRequest) (*interactions.Response, error) {
			if err := req.DeferReply(); err != nil {
				return nil, err
			}
			_, err := req.EditReply(&interactions.Message{Content: "done"})
			return nil, err
		}}),
	)
	require.NoError(t, err)
	h := NewHandler(app)

	body := `{"id":"i1","type":2,"token":"tok","data":{"id":"2","name":"slow","type":1}}`
	req := events.APIGatewayProxyRequest{
		Body: body,
		Headers: map[string]string{
			"X-Signature-Ed25519":   interactions.SignEd25519(priv, []byte(body), "1700000000"),
			"X-Signature-Timestamp": "1700000000",
		},
	}
	deferred := func(r *interactions.Response) bool {
		return r.Type() == discordgo.InteractionResponseDeferredChannelMessageWithSource
	}

	t.Run("sent before returning", func(t *testing.T) {
		gomock.InOrder(
			api.EXPECT().CreateInteractionResponse(gomock.Any(), "i1", "tok", gomock.Any()).
				DoAndReturn(func(_ context.Context, _, _ string, r *interactions.Response) error {
					assert.True(t, deferred(r))
					return nil
				}),
			api.EXPECT().EditOriginal(gomock.Any(), "tok", &interactions.MessageData{Content: "done"}).
				Return(&discordgo.Message{ID: "m1"}, nil),
		)

		resp, err := h(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Empty(t, resp.Body)
	})

	t.Run("callback failure", func(t *testing.T) {
		api.EXPECT().CreateInteractionResponse(gomock.Any(), "i1", "tok", gomock.Any()).
			Return(errors.New("unknown interaction"))

		resp, err := h(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"type":5}`, resp.Body)
	})
}
