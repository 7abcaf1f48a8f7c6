// Copyright (c) 2019-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package httputils

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/utils"
)

func WriteError(w http.ResponseWriter, err error) {
	if err == nil {
		http.Error(w, "invalid (unknown?) error", http.StatusInternalServerError)
		return
	}

	http.Error(w, err.Error(), ErrorToStatus(err))
}

func ErrorToStatus(err error) int {
	switch errors.Cause(err) {
	case utils.ErrForbidden:
		return http.StatusForbidden
	case utils.ErrUnauthorized:
		return http.StatusUnauthorized
	case utils.ErrNotFound:
		return http.StatusNotFound
	case utils.ErrInvalid:
		return http.StatusBadRequest
	case utils.ErrAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSONStatus encodes and writes out an object, with a custom response
// status code. The body is written with an explicit Content-Length so that
// the response is complete once flushed.
func WriteJSONStatus(w http.ResponseWriter, statusCode int, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(statusCode)
	_, err = w.Write(data)
	return err
}

// WriteJSON encodes and writes out an object, with a 200 response status code.
func WriteJSON(w http.ResponseWriter, v interface{}) error {
	return WriteJSONStatus(w, http.StatusOK, v)
}

// DoHandleJSONData returns an http.HandleFunc that serves a JSON-encoded data
// chunk.
func DoHandleJSONData(data []byte) http.HandlerFunc {
	return DoHandleData("application/json", data)
}

// DoHandleData returns an http.HandleFunc that serves a data chunk with a
// specified content-type.
func DoHandleData(ct string, data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", ct)
		_, _ = w.Write(data)
	}
}

const InLimit = 10 * (1 << 20)

func ReadAndClose(in io.ReadCloser) ([]byte, error) {
	defer in.Close()
	return LimitReadAll(in, InLimit)
}

func LimitReadAll(in io.Reader, limit int64) ([]byte, error) {
	if in == nil {
		return []byte{}, nil
	}
	return io.ReadAll(&io.LimitedReader{R: in, N: limit})
}

// CheckResponse returns an error if resp does not have a 2xx status. The body
// is consumed and included in the error text.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bb, _ := ReadAndClose(resp.Body)
	err := errors.Errorf("received status %v: %s", resp.Status, string(bb))
	switch resp.StatusCode {
	case http.StatusNotFound:
		return utils.NewNotFoundError(err)
	case http.StatusUnauthorized:
		return utils.NewUnauthorizedError(err)
	case http.StatusForbidden:
		return utils.NewForbiddenError(err)
	case http.StatusBadRequest:
		return utils.NewInvalidError(err)
	}
	return err
}
