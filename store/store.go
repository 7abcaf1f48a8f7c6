// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

// Package store is the key-value storage collaborator available to
// interaction handlers. Records are JSON objects; every backend stores them
// as JSON.
package store

import (
	"context"
	"strings"

	"github.com/mattermost/mattermost-interactions/utils"
)

// Record is one stored JSON object.
type Record map[string]interface{}

// Store is implemented by all storage backends.
//
// Get returns a nil Record when the key does not exist. Update shallowly
// merges partial into an existing record, and reports false if there is
// none. Delete reports whether the key existed.
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Set(ctx context.Context, key string, r Record) (bool, error)
	Update(ctx context.Context, key string, partial Record) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return utils.NewInvalidError("key must not be empty")
	}
	return nil
}

func merge(current, partial Record) Record {
	out := make(Record, len(current)+len(partial))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}
