// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package botapp

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/utils"
	"github.com/mattermost/mattermost-interactions/utils/httputils"
)

// InteractionsPath is the endpoint URL path to configure with the platform.
// The root path is served as well.
const InteractionsPath = "/interactions"

const DefaultPort = 8080

// ServeInteraction is the HTTP transport of HandleRequest. Follow-ups queued
// by the handler are delivered once the response has been written.
func (app *App) ServeInteraction(w http.ResponseWriter, req *http.Request) {
	log := app.Log.With("delivery_id", uuid.NewString())

	body, err := httputils.LimitReadAll(req.Body, httputils.InLimit)
	if err != nil {
		_ = httputils.WriteJSONStatus(w, http.StatusBadRequest, ErrorBody{Error: err.Error()})
		return
	}

	result := app.HandleRequest(req.Context(), RawRequest{
		Body:      body,
		Signature: req.Header.Get(interactions.SignatureHeader),
		Timestamp: req.Header.Get(interactions.TimestampHeader),
	})

	err = httputils.WriteJSONStatus(w, result.Status, result.Body)
	if err != nil {
		log.WithError(err).Warnw("Failed to write the interaction response")
		return
	}
	log.With(result).Debugw("Interaction:")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	ctx := context.WithoutCancel(req.Context())
	go func() {
		if err := result.Deliver(ctx); err != nil {
			log.WithError(err).Warnw("Failed to deliver follow-ups")
		}
	}()
}

// ListenAndServe serves the app's router on addr until ctx is canceled.
func (app *App) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed to shut down")
		}
		return nil
	}
}

// RunHTTP serves the app on the port set by the PORT environment variable,
// 8080 by default.
func (app *App) RunHTTP() {
	if !app.hasLog {
		app.Log = utils.MustMakeCommandLogger(zapcore.DebugLevel)
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = strconv.Itoa(DefaultPort)
	}

	app.Log.Infof("Application %s started, listening on port %s, interactions endpoint at `%s`; use environment variable PORT to customize.",
		app.ApplicationID, portStr, InteractionsPath)
	panic(app.ListenAndServe(context.Background(), ":"+portStr))
}
