// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package botapp

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/utils"
	"github.com/mattermost/mattermost-interactions/utils/httputils"
)

// RawRequest is an inbound delivery, as received by a transport.
type RawRequest struct {
	Body      []byte
	Signature string
	Timestamp string
}

// ErrorBody is the body of all non-200 results.
type ErrorBody struct {
	Error string `json:"error"`
}

// Result is the outcome of HandleRequest: an HTTP status, and either the
// *interactions.Response envelope or an ErrorBody.
type Result struct {
	Status int
	Body   interface{}

	session *session
}

// Deliver must be called once the initial response has been sent to the
// platform. It runs the follow-up operations that handlers issued before
// then, in order, and lets later ones run immediately.
func (r Result) Deliver(ctx context.Context) error {
	if r.session == nil {
		return nil
	}
	return r.session.deliver(ctx)
}

// Callback sends the envelope of a successful result through the interaction
// callback endpoint. A transport that does this replies to the webhook
// request without a body, and can call Deliver before it replies.
func (r Result) Callback(ctx context.Context) error {
	resp := r.Response()
	if r.session == nil || resp == nil {
		return utils.NewInvalidError("only an interaction response can be sent to the callback endpoint")
	}
	return r.session.api.CreateInteractionResponse(ctx, r.session.id, r.session.token, resp)
}

// Pending returns the number of follow-up operations waiting for Deliver.
func (r Result) Pending() int {
	if r.session == nil {
		return 0
	}
	return r.session.pending()
}

// Response returns the envelope of a successful result, or nil.
func (r Result) Response() *interactions.Response {
	resp, _ := r.Body.(*interactions.Response)
	return resp
}

func (r Result) Loggable() []interface{} {
	props := []interface{}{"status", r.Status}
	switch body := r.Body.(type) {
	case *interactions.Response:
		props = append(props, body.Loggable()...)
	case ErrorBody:
		props = append(props, "error", body.Error)
	}
	return props
}

func errorResult(status int, err error) Result {
	return Result{
		Status: status,
		Body:   ErrorBody{Error: err.Error()},
	}
}

func statusResult(err error) Result {
	return errorResult(httputils.ErrorToStatus(err), err)
}

// HandleRequest verifies, parses, and dispatches one interaction. It never
// panics or returns an error: all failures are reported in the Result.
func (app *App) HandleRequest(ctx context.Context, raw RawRequest) Result {
	if raw.Signature == "" || raw.Timestamp == "" {
		return errorResult(http.StatusUnauthorized, utils.NewUnauthorizedError("missing request signature"))
	}
	if !app.verify(raw.Body, raw.Signature, raw.Timestamp, app.PublicKey) {
		return errorResult(http.StatusUnauthorized, utils.NewUnauthorizedError("invalid request signature"))
	}

	i, err := interactions.ParseInteraction(raw.Body)
	if err != nil {
		return errorResult(http.StatusBadRequest, err)
	}
	log := app.Log.With(i)

	switch i.Type {
	case discordgo.InteractionPing:
		return Result{Status: http.StatusOK, Body: interactions.NewPongResponse()}
	case discordgo.InteractionApplicationCommand:
		return app.dispatchCommand(ctx, i, log)
	case discordgo.InteractionApplicationCommandAutocomplete:
		return app.dispatchAutocomplete(ctx, i, log)
	case discordgo.InteractionMessageComponent:
		return app.dispatchComponent(ctx, i, log)
	case discordgo.InteractionModalSubmit:
		return app.dispatchModal(ctx, i, log)
	default:
		return errorResult(http.StatusBadRequest, utils.NewInvalidError("unsupported interaction type %d", i.Type))
	}
}

func (app *App) newBaseRequest(ctx context.Context, i *interactions.Interaction, log utils.Logger) BaseRequest {
	return BaseRequest{
		Interaction: i,
		GoContext:   ctx,
		App:         app,
		Log:         log,
		session:     newSession(app.API, i),
	}
}

func (app *App) dispatchCommand(ctx context.Context, i *interactions.Interaction, log utils.Logger) Result {
	data, err := i.CommandData()
	if err != nil {
		return errorResult(http.StatusBadRequest, err)
	}
	app.ensureLoaded(commandEntry)

	cmd := app.registry.command(data.Name)
	if cmd == nil {
		return statusResult(utils.NewNotFoundError("command %q is not registered", data.Name))
	}

	log = log.With("command", data.Name)
	base := app.newBaseRequest(ctx, i, log)
	subject := fmt.Sprintf("command %q", data.Name)

	switch data.CommandType() {
	case discordgo.ChatApplicationCommand:
		if cmd.Handler == nil {
			return statusResult(utils.NewNotFoundError("%s has no chat input handler", subject))
		}
		req := &CommandRequest{
			BaseRequest: base,
			Command:     data,
			Options:     interactions.NewOptionResolver(data.Options, data.Resolved),
		}
		return app.invoke(&req.BaseRequest, subject, func() (*interactions.Response, error) {
			return cmd.Handler(req)
		})

	case discordgo.UserApplicationCommand:
		if cmd.UserHandler == nil {
			return statusResult(utils.NewNotFoundError("%s has no user command handler", subject))
		}
		req := &UserCommandRequest{
			BaseRequest:  base,
			Command:      data,
			TargetUser:   data.Resolved.User(data.TargetID),
			TargetMember: data.Resolved.Member(data.TargetID),
		}
		return app.invoke(&req.BaseRequest, subject, func() (*interactions.Response, error) {
			return cmd.UserHandler(req)
		})

	case discordgo.MessageApplicationCommand:
		if cmd.MessageHandler == nil {
			return statusResult(utils.NewNotFoundError("%s has no message command handler", subject))
		}
		req := &MessageCommandRequest{
			BaseRequest:   base,
			Command:       data,
			TargetMessage: data.Resolved.Message(data.TargetID),
		}
		return app.invoke(&req.BaseRequest, subject, func() (*interactions.Response, error) {
			return cmd.MessageHandler(req)
		})

	default:
		return errorResult(http.StatusBadRequest, utils.NewInvalidError("unsupported command type %d", data.CommandType()))
	}
}

func (app *App) dispatchAutocomplete(ctx context.Context, i *interactions.Interaction, log utils.Logger) Result {
	data, err := i.CommandData()
	if err != nil {
		return errorResult(http.StatusBadRequest, err)
	}
	app.ensureLoaded(commandEntry)

	cmd := app.registry.command(data.Name)
	if cmd == nil || cmd.Autocomplete == nil {
		return statusResult(utils.NewNotFoundError("no autocomplete handler is registered for command %q", data.Name))
	}

	log = log.With("command", data.Name)
	base := app.newBaseRequest(ctx, i, log)
	options := interactions.NewOptionResolver(data.Options, data.Resolved)
	req := &AutocompleteRequest{
		Interaction: i,
		GoContext:   ctx,
		App:         app,
		Log:         log,
		Command:     data,
		Options:     options,
		Focused:     options.Focused(),
	}
	return app.invoke(&base, fmt.Sprintf("autocomplete of command %q", data.Name), func() (*interactions.Response, error) {
		choices, err := cmd.Autocomplete(req)
		if err != nil {
			return nil, err
		}
		return interactions.NewAutocompleteResponse(choices), nil
	})
}

func (app *App) dispatchComponent(ctx context.Context, i *interactions.Interaction, log utils.Logger) Result {
	data, err := i.ComponentData()
	if err != nil {
		return errorResult(http.StatusBadRequest, err)
	}
	app.ensureLoaded(componentEntry)

	c, state := app.registry.component(data.CustomID)
	if c == nil {
		return statusResult(utils.NewNotFoundError("component %q is not registered", data.CustomID))
	}

	req := &ComponentRequest{
		BaseRequest: app.newBaseRequest(ctx, i, log.With("custom_id", data.CustomID)),
		Component:   data,
		State:       state,
	}
	return app.invoke(&req.BaseRequest, fmt.Sprintf("component %q", data.CustomID), func() (*interactions.Response, error) {
		return c.Handler(req)
	})
}

func (app *App) dispatchModal(ctx context.Context, i *interactions.Interaction, log utils.Logger) Result {
	data, err := i.ModalSubmitData()
	if err != nil {
		return errorResult(http.StatusBadRequest, err)
	}
	app.ensureLoaded(modalEntry)

	m, state := app.registry.modal(data.CustomID)
	if m == nil {
		return statusResult(utils.NewNotFoundError("modal %q is not registered", data.CustomID))
	}

	req := &ModalRequest{
		BaseRequest: app.newBaseRequest(ctx, i, log.With("custom_id", data.CustomID)),
		Submission:  data,
		State:       state,
	}
	return app.invoke(&req.BaseRequest, fmt.Sprintf("modal %q", data.CustomID), func() (*interactions.Response, error) {
		return m.Handler(req)
	})
}

// invoke calls a handler, and reconciles the envelope it returned with the
// one it captured through the response methods. Handler errors and panics
// are 500s.
func (app *App) invoke(base *BaseRequest, subject string, call func() (*interactions.Response, error)) (result Result) {
	defer func() {
		if x := recover(); x != nil {
			base.Log.Errorw("Handler panicked", "panic", fmt.Sprint(x), "stack", string(debug.Stack()))
			result = errorResult(http.StatusInternalServerError, errors.Errorf("handler for %s panicked: %v", subject, x))
		}
	}()

	returned, err := call()
	if err != nil {
		base.Log.WithError(err).Infow("Handler failed")
		return errorResult(http.StatusInternalServerError, errors.Wrapf(err, "handler for %s failed", subject))
	}

	s := base.session
	captured := s.Response()
	switch {
	case returned == nil && captured == nil:
		return errorResult(http.StatusInternalServerError,
			errors.Errorf("handler for %s did not respond: it must reply, defer, update, or show a modal, or return a response", subject))

	case captured == nil:
		if err = s.capture(returned, "respond"); err != nil {
			return errorResult(http.StatusInternalServerError, errors.Wrapf(err, "handler for %s", subject))
		}

	case returned != nil && returned != captured:
		return errorResult(http.StatusInternalServerError,
			errors.Errorf("handler for %s returned a response different from the one it already sent", subject))
	}

	resp := s.Response()
	base.Log.Debugw("Handled interaction", "response_type", int(resp.Type()), "state", s.State().String())
	return Result{
		Status:  http.StatusOK,
		Body:    resp,
		session: s,
	}
}
