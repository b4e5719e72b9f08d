package notify

import (
	"fmt"
	"sync"

	"github.com/drstein77/shopsphere/internal/cart"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a transient toast shown to the user
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

const defaultCapacity = 32

// Queue is a bounded FIFO of notifications; when full the oldest entry is dropped.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = defaultCapacity
	}
	return &Queue{limit: limit}
}

func (q *Queue) Push(level Level, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == q.limit {
		q.items = q.items[1:]
	}
	q.items = append(q.items, Notification{Level: level, Message: message})
}

func (q *Queue) Success(message string) { q.Push(LevelSuccess, message) }
func (q *Queue) Info(message string)    { q.Push(LevelInfo, message) }
func (q *Queue) Error(message string)   { q.Push(LevelError, message) }

// Drain returns the pending notifications and empties the queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	if items == nil {
		return []Notification{}
	}
	return items
}

// CartEvent turns cart transitions into toasts.
func (q *Queue) CartEvent(e cart.Event) {
	switch e.Kind {
	case cart.EventAdded:
		q.Success(fmt.Sprintf("Added %s to cart!", e.ItemName))
	case cart.EventRemoved:
		q.Info("Item removed from cart")
	}
}
