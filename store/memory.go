// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package store

import (
	"context"
	"sync"

	"github.com/mattermost/mattermost-interactions/utils"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Record{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Record, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return clone(r)
}

func (s *MemoryStore) Set(_ context.Context, key string, r Record) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	stored, err := clone(r)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = stored
	return true, nil
}

func (s *MemoryStore) Update(_ context.Context, key string, partial Record) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data[key]
	if !ok {
		return false, nil
	}
	updated, err := clone(merge(current, partial))
	if err != nil {
		return false, err
	}
	s.data[key] = updated
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	delete(s.data, key)
	return ok, nil
}

// clone deep-copies a record through JSON, so that stored records have the
// same shape in every backend.
func clone(r Record) (Record, error) {
	if r == nil {
		return Record{}, nil
	}
	out := Record{}
	if err := utils.Remarshal(&out, r); err != nil {
		return nil, utils.NewInvalidError(err)
	}
	return out, nil
}
