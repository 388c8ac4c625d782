package ports

import (
	"context"
	"time"
)

// Metrics records polling activity.
type Metrics interface {
	RecordCycle(task string)
	RecordFailure(task string)
	RecordRows(table string, n int)
}

// Clock abstracts wall-clock time and waiting so polling loops can be driven in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}
