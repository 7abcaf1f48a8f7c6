// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/utils"
)

// FileStore keeps all records in a single JSON file, rewritten atomically on
// every change.
type FileStore struct {
	mu   sync.Mutex
	path string
	mem  *MemoryStore
	log  utils.Logger
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string, log utils.Logger) (*FileStore, error) {
	if path == "" {
		return nil, utils.NewInvalidError("file store requires a path")
	}
	if log == nil {
		log = utils.NewNilLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create store directory")
	}

	s := &FileStore{
		path: path,
		mem:  NewMemoryStore(),
		log:  log,
	}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	if len(data) > 0 {
		if err = json.Unmarshal(data, &s.mem.data); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s", path)
		}
		if s.mem.data == nil {
			s.mem.data = map[string]Record{}
		}
	}
	log.Debugf("Loaded %d records from %s", len(s.mem.data), path)
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (Record, error) {
	return s.mem.Get(ctx, key)
}

func (s *FileStore) Set(ctx context.Context, key string, r Record) (bool, error) {
	return s.write(func() (bool, error) { return s.mem.Set(ctx, key, r) })
}

func (s *FileStore) Update(ctx context.Context, key string, partial Record) (bool, error) {
	return s.write(func() (bool, error) { return s.mem.Update(ctx, key, partial) })
}

func (s *FileStore) Delete(ctx context.Context, key string) (bool, error) {
	return s.write(func() (bool, error) { return s.mem.Delete(ctx, key) })
}

func (s *FileStore) write(f func() (bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := f()
	if err != nil || !changed {
		return changed, err
	}
	if err = s.save(); err != nil {
		return false, err
	}
	return true, nil
}

// save writes to a uniquely named temp file and renames it over the store
// file.
func (s *FileStore) save() error {
	s.mem.mu.RLock()
	data, err := json.MarshalIndent(s.mem.data, "", "  ")
	s.mem.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "failed to encode records")
	}

	tmp := s.path + "." + uuid.NewString() + ".tmp"
	if err = os.WriteFile(tmp, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write records")
	}
	if err = os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "failed to replace store file")
	}
	return nil
}
