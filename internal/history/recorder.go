package history

import (
	"context"

	"go.uber.org/zap"
)

// Recorder persists generation records and keeps the similar-prompt index
// in step. Index failures are logged and never fail the write.
type Recorder struct {
	store  *Store
	index  *Index
	logger *zap.Logger
}

// NewRecorder creates a Recorder. index may be nil.
func NewRecorder(store *Store, index *Index, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, index: index, logger: logger}
}

// Record stores e and returns its id.
func (r *Recorder) Record(ctx context.Context, e Entry) (string, error) {
	id, err := r.store.Log(ctx, e)
	if err != nil {
		return "", err
	}
	if r.index != nil {
		e.ID = id
		if err := r.index.Add(ctx, e); err != nil {
			r.logger.Warn("indexing prompt failed", zap.String("id", id), zap.Error(err))
		}
	}
	return id, nil
}

// Store returns the underlying store.
func (r *Recorder) Store() *Store { return r.store }

// Index returns the similar-prompt index, or nil when embeddings are off.
func (r *Recorder) Index() *Index { return r.index }
