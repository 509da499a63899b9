package orchestrator

import "sync"

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a short-lived message shown to the user once.
type Notice struct {
	Level   Level
	Message string
}

func success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }
func failure(msg string) Notice { return Notice{Level: LevelError, Message: msg} }
func info(msg string) Notice    { return Notice{Level: LevelInfo, Message: msg} }

// Notifier receives the notices emitted by the orchestrator.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// defaultQueueSize bounds a NoticeQueue when no size is given.
const defaultQueueSize = 20

// NoticeQueue buffers notices until the next render drains them. When full,
// the oldest notice is dropped.
type NoticeQueue struct {
	mu    sync.Mutex
	items []Notice
	max   int
}

func NewNoticeQueue(max int) *NoticeQueue {
	if max <= 0 {
		max = defaultQueueSize
	}
	return &NoticeQueue{max: max}
}

func (q *NoticeQueue) Notify(n Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.max {
		q.items = q.items[1:]
	}
	q.items = append(q.items, n)
}

// Drain returns the buffered notices in emission order and empties the queue.
func (q *NoticeQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *NoticeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
