package storage

import (
	"context"

	"github.com/yourname/dailywords/internal"
)

// StateRepository persists the single shared AppState document.
//
// Load never fails on a missing or corrupt document: the file backend
// synthesizes the default record in both cases (quarantining the corrupt
// file first), so only real I/O failures surface as errors.
//
// Save overwrites the whole document. Both mirrored halves of a submission
// travel in one Save, which is what makes the exchange write atomic.
type StateRepository interface {
	Load(ctx context.Context) (*internal.AppState, error)
	Save(ctx context.Context, state *internal.AppState) error
	Close() error
}
