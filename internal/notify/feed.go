package notify

import (
	"context"
	"sync"
)

const DefaultFeedSize = 20

// Feed keeps the most recent notifications for the dashboard to read
type Feed struct {
	mutex sync.RWMutex
	items []Notification
	limit int
}

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = DefaultFeedSize
	}
	return &Feed{
		items: make([]Notification, 0, limit),
		limit: limit,
	}
}

// Consume subscribes to the bus and fills the feed until ctx is done or
// the bus is closed. The returned channel is closed when consuming stops.
func (f *Feed) Consume(ctx context.Context, bus *Bus) (<-chan struct{}, error) {
	messages, err := bus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			n, err := Decode(msg)
			if err != nil {
				log.Errorf("notify feed: %s", err)
				msg.Ack()
				continue
			}
			f.Add(n)
			msg.Ack()
		}
		log.Debugf("notify feed: consumer stopped")
	}()

	return done, nil
}

func (f *Feed) Add(n Notification) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if len(f.items) == f.limit {
		copy(f.items, f.items[1:])
		f.items = f.items[:len(f.items)-1]
	}
	f.items = append(f.items, n)
}

// Recent returns the notifications, newest first
func (f *Feed) Recent() []Notification {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	recent := make([]Notification, len(f.items))
	for i, n := range f.items {
		recent[len(f.items)-1-i] = n
	}
	return recent
}
