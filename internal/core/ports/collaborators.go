package ports

import "context"

// AvatarProcessor resizes and re-encodes an uploaded avatar.
type AvatarProcessor interface {
	Process(data []byte) ([]byte, error)
}

// LoginLimiter throttles failed login attempts per email.
type LoginLimiter interface {
	Allow(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// OrphanSweeper removes tasks left behind by a deleted owner.
type OrphanSweeper interface {
	Enqueue(ownerID string)
}
