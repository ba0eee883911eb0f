package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourname/dailywords/internal"
)

// FileStore keeps the AppState in one pretty-printed JSON file.
type FileStore struct {
	path      string
	user1Name string
	user2Name string
	now       func() time.Time
	logger    internal.Logger
}

func NewFileStore(path, user1Name, user2Name string, logger internal.Logger) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data dir: %v", internal.ErrStorage, err)
		}
	}
	return &FileStore{
		path:      path,
		user1Name: user1Name,
		user2Name: user2Name,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Load reads the document, healing the two recoverable failure modes:
// a missing file becomes the persisted default record, and an unparsable
// file is quarantined under a time-suffixed name before the default record
// is recreated. A parse failure never reaches the caller.
func (s *FileStore) Load(ctx context.Context) (*internal.AppState, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.createDefault(ctx)
		}
		return nil, fmt.Errorf("%w: read %s: %v", internal.ErrStorage, s.path, err)
	}

	state := &internal.AppState{}
	if err := json.Unmarshal(raw, state); err != nil {
		quarantine := fmt.Sprintf("%s.corrupted.%d", s.path, s.now().Unix())
		s.logger.Errorf("storage: unparsable state file, quarantining as %s: %v", quarantine, err)
		if renameErr := os.Rename(s.path, quarantine); renameErr != nil {
			return nil, fmt.Errorf("%w: quarantine %s: %v", internal.ErrStorage, s.path, renameErr)
		}
		return s.createDefault(ctx)
	}

	state.Normalize(s.user1Name, s.user2Name, s.now())
	return state, nil
}

func (s *FileStore) createDefault(ctx context.Context) (*internal.AppState, error) {
	state := internal.DefaultState(s.user1Name, s.user2Name, s.now())
	if err := s.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Save replaces the whole document atomically: encode to a temp file in the
// same directory, fsync, rename over the old file.
func (s *FileStore) Save(_ context.Context, state *internal.AppState) error {
	if err := atomicWriteJSON(s.path, state); err != nil {
		return fmt.Errorf("%w: write %s: %v", internal.ErrStorage, s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func atomicWriteJSON(path string, data interface{}) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

var _ StateRepository = (*FileStore)(nil)
