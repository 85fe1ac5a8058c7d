package history

import (
	"context"
	"time"
)

// Repository persists scan records. Implementations return records ordered by
// ScannedAt descending and treat deletion of an unknown id as success.
type Repository interface {
	Insert(ctx context.Context, record Record) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	Delete(ctx context.Context, id string) error
	RecentBarcodes(ctx context.Context, limit int) ([]string, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}
