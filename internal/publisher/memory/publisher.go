// Package memory contains an in-memory publisher for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

// Publisher records notifications for inspection.
type Publisher struct {
	mu       sync.RWMutex
	messages []pipeline.Notification
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the notification.
func (p *Publisher) Publish(ctx context.Context, n pipeline.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, n)
	return nil
}

// Messages returns the recorded notifications.
func (p *Publisher) Messages() []pipeline.Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]pipeline.Notification, len(p.messages))
	copy(out, p.messages)
	return out
}
