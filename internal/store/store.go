package store

import "context"

// Sessions is the persistence capability: one serialized state blob per chat,
// loaded and saved whole. Implementations own durability; callers keep the
// in-memory state authoritative for the session when a save fails.
type Sessions interface {
	Load(ctx context.Context, chatID int64) (State, bool, error)
	Save(ctx context.Context, chatID int64, s State) error
	Close() error
}
