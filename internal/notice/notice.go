// Package notice carries short user-facing messages (toasts) from the
// components that raise them to the page that shows them.
package notice

import "sync"

// Status selects how a notice is presented.
type Status string

const (
	StatusInfo    Status = "info"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Notice is one message shown to the user.
type Notice struct {
	Title       string
	Description string
	Status      Status
}

// Sink receives notices.
type Sink interface {
	Push(Notice)
}

// Queue is a Sink that buffers notices until the page drains them.
type Queue struct {
	mu    sync.Mutex
	items []Notice
}

// Push appends n.
func (q *Queue) Push(n Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
}

// Drain returns the buffered notices in order and empties the queue.
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of buffered notices.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
