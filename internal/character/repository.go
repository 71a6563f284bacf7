package character

import "context"

// Repository is the remote document store: get, set-merge and subscribe.
type Repository interface {
	// Load reads the character document with its missions and history.
	// A missing document yields a Snapshot with Found == false and no error.
	Load(ctx context.Context, userID string) (Snapshot, error)
	// Commit writes a change with merge semantics.
	Commit(ctx context.Context, userID string, change Change) error
	// Subscribe calls fn for every stored version of the document until ctx is done.
	// It returns nil when ctx is cancelled.
	Subscribe(ctx context.Context, userID string, fn func(Document)) error
}
