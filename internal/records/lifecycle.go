package records

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/internal/api"
)

// Manager issues delete requests and decides when the cached list must
// be resynchronized with the server. There is no optimistic local
// removal: the list is re-fetched after a successful delete, so a
// delete the server silently dropped can never leave the cache out of
// sync.
type Manager struct {
	client RemoteClient
	store  *Store
	log    zerolog.Logger
}

// NewManager wires a manager to the store it keeps consistent.
func NewManager(client RemoteClient, store *Store, log zerolog.Logger) *Manager {
	return &Manager{client: client, store: store, log: log}
}

// Remove deletes one record remotely and reports whether the caller
// must resynchronize the list: true on success, and also on a 404,
// where the record is already gone server-side so a refresh makes the
// stale entry disappear. The store is never touched here, which makes
// Remove safe to run off the event loop; the caller applies the resync
// through the store's own Begin/Finish path.
func (m *Manager) Remove(ctx context.Context, id string) (resync bool, err error) {
	err = m.client.DeletePatient(ctx, id)
	if err != nil && !api.IsNotFound(err) {
		m.log.Warn().Err(err).Str("id", id).Msg("delete failed")
		return false, err
	}
	return true, err
}

// Delete removes one record and resynchronizes the list in one call,
// for callers that are already off the event loop and own the store.
// On failure the cache is left untouched and the record stays visible;
// a 404 still triggers the refresh and is still surfaced.
func (m *Manager) Delete(ctx context.Context, id string) error {
	resync, err := m.Remove(ctx, id)
	if !resync {
		return err
	}

	if lerr := m.store.Load(ctx); lerr != nil {
		// The delete itself went through; report the resync problem.
		m.log.Warn().Err(lerr).Msg("post-delete reload failed")
		return lerr
	}
	return err
}
