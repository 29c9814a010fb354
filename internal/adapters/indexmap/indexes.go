package indexmap

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var (
	_ ports.ContentIndex = (*ContentIndex)(nil)
	_ ports.ResultIndex  = (*ResultIndex)(nil)
	_ ports.HistoryLog   = (*HistoryLog)(nil)
)

// ContentIndex maps logical content paths to blob ids.
type ContentIndex struct {
	*Store[string, domain.ObjectID]
}

// OpenContentIndex opens the content index at path.
func OpenContentIndex(path string, opts Options) (*ContentIndex, error) {
	s, err := Open(path, ContentCodec{}, opts)
	if err != nil {
		return nil, err
	}
	return &ContentIndex{Store: s}, nil
}

// ResultIndex caches command results by fingerprint.
type ResultIndex struct {
	*Store[domain.Fingerprint, *domain.CommandResult]
}

// OpenResultIndex opens the result index at path.
func OpenResultIndex(path string, opts Options) (*ResultIndex, error) {
	s, err := Open(path, ResultCodec{}, opts)
	if err != nil {
		return nil, err
	}
	return &ResultIndex{Store: s}, nil
}

// TryGet returns a copy of the cached result so callers may modify it.
func (r *ResultIndex) TryGet(fp domain.Fingerprint) (*domain.CommandResult, bool, error) {
	res, ok, err := r.Store.TryGet(fp)
	if err != nil || !ok {
		return nil, ok, err
	}
	return res.Clone(), true, nil
}

// Add stores a copy of result.
func (r *ResultIndex) Add(fp domain.Fingerprint, result *domain.CommandResult) error {
	return r.Store.Add(fp, result.Clone())
}

// HistoryLog is the list of finished builds.
type HistoryLog struct {
	store *Store[struct{}, domain.BuildRecord]
}

// OpenHistoryLog opens the history log at path. Every append is flushed
// immediately.
func OpenHistoryLog(path string, opts Options) (*HistoryLog, error) {
	opts.UseTransactions = false
	s, err := OpenList(path, HistoryCodec{}, opts)
	if err != nil {
		return nil, err
	}
	return &HistoryLog{store: s}, nil
}

// Append implements ports.HistoryLog.
func (h *HistoryLog) Append(record domain.BuildRecord) error {
	return h.store.Add(struct{}{}, record)
}

// Records returns every record, oldest first, after reading records appended
// by other processes.
func (h *HistoryLog) Records() ([]domain.BuildRecord, error) {
	if err := h.store.Refresh(); err != nil {
		return nil, err
	}
	return h.store.Values()
}

// Close implements ports.HistoryLog.
func (h *HistoryLog) Close() error {
	return h.store.Close()
}
