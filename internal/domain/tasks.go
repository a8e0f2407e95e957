package domain

import "context"

// TaskQueue hands work to a background queue. The caller never waits for the
// task; failures surface through the queue's own logging and retry, never by
// blocking the enqueuing request.
type TaskQueue interface {
	Enqueue(name string, fn func(ctx context.Context) error)
}
