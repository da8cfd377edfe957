package killswitch

import "context"

// Store holds the one state document. Writes are whole-document
// compare-and-swap on the version field; no partial updates exist.
type Store interface {
	// Get returns the current document or sentinel.ErrNotFound when
	// nothing was ever written.
	Get(ctx context.Context) (*State, error)

	// CompareAndSwap replaces the document when the stored version still
	// matches expected. It returns sentinel.ErrConflict otherwise. A
	// first write passes expected zero against an empty store.
	CompareAndSwap(ctx context.Context, expected int64, next *State) error
}
