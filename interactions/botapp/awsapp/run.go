// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

// Package awsapp runs a botapp.App as an AWS Lambda function behind API
// Gateway.
package awsapp

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/interactions/botapp"
	"github.com/mattermost/mattermost-interactions/utils"
)

type Handler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewHandler adapts HandleRequest to API Gateway proxy events. Errors are
// reported as responses, never returned to the Lambda runtime.
//
// When a handler leaves follow-ups, the envelope is posted to the
// interaction callback endpoint, the follow-ups are delivered, and the
// request is answered with an empty 202.
func NewHandler(app *botapp.App) Handler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return jsonResponse(http.StatusBadRequest, botapp.ErrorBody{
					Error: utils.NewInvalidError(errors.Wrap(err, "failed to decode the request body")).Error(),
				}), nil
			}
			body = decoded
		}

		result := app.HandleRequest(ctx, botapp.RawRequest{
			Body:      body,
			Signature: header(req, interactions.SignatureHeader),
			Timestamp: header(req, interactions.TimestampHeader),
		})
		app.Log.With(result).Debugw("Interaction:", "request_id", req.RequestContext.RequestID)

		// The function is frozen once it returns, so follow-ups have to be
		// delivered first, after sending the envelope out of band.
		if result.Pending() > 0 {
			err := result.Callback(ctx)
			if err == nil {
				if err = result.Deliver(ctx); err != nil {
					app.Log.WithError(err).Warnw("Failed to deliver follow-ups")
				}
				return events.APIGatewayProxyResponse{StatusCode: http.StatusAccepted}, nil
			}
			app.Log.WithError(err).Warnw("Failed to send the interaction response, follow-ups will not be delivered",
				"pending", result.Pending())
		}

		return jsonResponse(result.Status, result.Body), nil
	}
}

// header looks up a request header regardless of its case, since API
// Gateway passes headers through as sent.
func header(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, vv := range req.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(vv) > 0 {
			return vv[0]
		}
	}
	return ""
}

func jsonResponse(status int, body interface{}) events.APIGatewayProxyResponse {
	data := utils.ToJSON(body)
	if data == "" {
		status = http.StatusInternalServerError
		data = `{"error":"failed to encode the response"}`
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       data,
	}
}

// RunAWSLambda starts the Lambda runtime with NewHandler. It does not
// return.
func RunAWSLambda(app *botapp.App) {
	lambda.Start(NewHandler(app))
}

// RunAWSLambdaProxy starts the Lambda runtime with the app's full HTTP
// router, including the /ping route, proxied from API Gateway.
func RunAWSLambdaProxy(app *botapp.App) {
	lambda.Start(httpadapter.New(app.Router).ProxyWithContext)
}
