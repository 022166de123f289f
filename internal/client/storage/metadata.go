package storage

import "context"


// MetadataStorage persists small sync bookkeeping values.
type MetadataStorage interface {
	// SaveCheckpoint stores the delta-sync checkpoint (unix milliseconds).
	SaveCheckpoint(ctx context.Context, timestamp int64) error

	// GetCheckpoint returns the last saved checkpoint, 0 if none.
	GetCheckpoint(ctx context.Context) (int64, error)

	// ClientID returns the stable client identifier, generating and
	// persisting one on first use.
	ClientID(ctx context.Context) (string, error)
}
