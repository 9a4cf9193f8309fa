package history

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/saint-community/querybuilder/internal/filter"
	"github.com/saint-community/querybuilder/internal/store"
)

// Recorder is a store.Searcher that writes every search to history.
// History failures are logged and never fail the search.
type Recorder struct {
	next    store.Searcher
	history *Store
	source  string
	logger  *zap.Logger
	builder *filter.Builder
}

// NewRecorder wraps next so searches are recorded under source
func NewRecorder(next store.Searcher, history *Store, source string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		next:    next,
		history: history,
		source:  source,
		logger:  logger,
		builder: filter.NewBuilder(),
	}
}

// Search runs the search and records its outcome
func (r *Recorder) Search(ctx context.Context, req store.Request) (store.Result, error) {
	start := time.Now()
	result, err := r.next.Search(ctx, req)

	entry := Entry{
		Source:   r.source,
		Duration: time.Since(start),
		Rows:     len(result.Members),
		Success:  err == nil,
	}
	if data, merr := json.Marshal(req.Filter); merr == nil {
		entry.Filter = string(data)
	}
	if where, args, berr := r.builder.BuildWhere(req.Filter); berr == nil {
		entry.Where = where
		entry.ArgCount = len(args)
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}

	if _, herr := r.history.Add(entry); herr != nil {
		r.logger.Warn("failed to record search", zap.Error(herr))
	}
	return result, err
}
