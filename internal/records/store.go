// Package records holds the client-side cache of diagnosis records:
// the summary list with its search/severity filtering, on-demand detail
// fetches with a stale-response guard, and the delete-then-resync
// lifecycle manager.
package records

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/internal/model"
)

// RemoteClient is the slice of the API client the records side needs.
type RemoteClient interface {
	History(ctx context.Context) ([]model.RecordSummary, error)
	PatientDetail(ctx context.Context, id string) (*model.DiagnosisRecord, error)
	DeletePatient(ctx context.Context, id string) error
}

// Store owns the cached collection of record summaries. Only Load (and
// the Begin/Finish pair backing it) replaces the cache; filtering
// derives views without mutating it. The store expects to be driven
// from a single event loop.
//
// Every list and detail request carries a sequence number; a response
// is applied only while its sequence is still the newest of its kind,
// so a slow response can never overwrite a newer request's outcome.
type Store struct {
	client RemoteClient
	log    zerolog.Logger

	summaries []model.RecordSummary
	loaded    bool
	loadSeq   uint64

	detail        *model.DiagnosisRecord
	detailErr     error
	detailLoading bool
	detailSeq     uint64
}

// NewStore creates an empty store backed by the given client.
func NewStore(client RemoteClient, log zerolog.Logger) *Store {
	return &Store{client: client, log: log}
}

// Records returns the cached summaries in server order.
func (s *Store) Records() []model.RecordSummary { return s.summaries }

// Loaded reports whether at least one list fetch has completed.
func (s *Store) Loaded() bool { return s.loaded }

// BeginLoad registers a new list fetch and returns its sequence number.
func (s *Store) BeginLoad() uint64 {
	s.loadSeq++
	return s.loadSeq
}

// FinishLoad applies a list fetch outcome. A response superseded by a
// newer BeginLoad is discarded; the cache then still reflects the most
// recent request only. On success the cache is replaced wholesale, in
// server response order.
func (s *Store) FinishLoad(seq uint64, list []model.RecordSummary, err error) bool {
	if seq != s.loadSeq {
		s.log.Debug().Uint64("seq", seq).Uint64("current", s.loadSeq).Msg("discarding stale list response")
		return false
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("list fetch failed")
		return false
	}
	s.summaries = list
	s.loaded = true
	return true
}

// Load fetches the list synchronously, for callers that are already off
// the event loop (the lifecycle manager, tests).
func (s *Store) Load(ctx context.Context) error {
	seq := s.BeginLoad()
	list, err := s.client.History(ctx)
	s.FinishLoad(seq, list, err)
	return err
}

// Filter derives the visible records: searchText matches the name
// case-insensitively or the phone by substring, ANDed with the severity
// filter. An empty search matches everything. The cache is never
// mutated and the server order is preserved.
func (s *Store) Filter(searchText string, severity model.SeverityFilter) []model.RecordSummary {
	needle := strings.ToLower(strings.TrimSpace(searchText))

	out := make([]model.RecordSummary, 0, len(s.summaries))
	for _, r := range s.summaries {
		if needle != "" &&
			!strings.Contains(strings.ToLower(r.Name), needle) &&
			!strings.Contains(r.Phone, needle) {
			continue
		}
		if !severity.Matches(r.Severity) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// BeginDetail registers a detail fetch for one record. Any previous
// detail is dropped immediately so no stale payload is ever shown while
// the new one loads.
func (s *Store) BeginDetail(id string) uint64 {
	s.detailSeq++
	s.detail = nil
	s.detailErr = nil
	s.detailLoading = true
	s.log.Debug().Str("id", id).Uint64("seq", s.detailSeq).Msg("detail fetch started")
	return s.detailSeq
}

// FinishDetail applies a detail outcome, unless the operator has since
// requested a different record's detail (or closed the view).
func (s *Store) FinishDetail(seq uint64, rec *model.DiagnosisRecord, err error) bool {
	if seq != s.detailSeq || !s.detailLoading {
		s.log.Debug().Uint64("seq", seq).Msg("discarding stale detail response")
		return false
	}
	s.detailLoading = false
	s.detail = rec
	s.detailErr = err
	return true
}

// CloseDetail abandons the current detail view. An in-flight response
// for it will be discarded when it arrives.
func (s *Store) CloseDetail() {
	s.detailSeq++
	s.detail = nil
	s.detailErr = nil
	s.detailLoading = false
}

// Detail returns the current detail state: the record when loaded, a
// loading indicator while the fetch is in flight, and the fetch error
// when the detail is unavailable.
func (s *Store) Detail() (rec *model.DiagnosisRecord, loading bool, err error) {
	return s.detail, s.detailLoading, s.detailErr
}

// FetchDetail performs the whole fetch synchronously, for callers off
// the event loop.
func (s *Store) FetchDetail(ctx context.Context, id string) (*model.DiagnosisRecord, error) {
	seq := s.BeginDetail(id)
	rec, err := s.client.PatientDetail(ctx, id)
	s.FinishDetail(seq, rec, err)
	return rec, err
}
