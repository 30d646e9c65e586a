// Package notifytest provides an in-memory notify.Sender for service tests.
package notifytest

import (
	"context"
	"sync"

	"moniftar/internal/notify"
)

// Recorder captures every message handed to Notify.
type Recorder struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *Recorder) Notify(_ context.Context, msgs ...notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msgs...)
}

func (r *Recorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// To returns the bodies sent to one recipient, in order.
func (r *Recorder) To(phone string) []string {
	var out []string
	for _, m := range r.Messages() {
		if m.To == phone {
			out = append(out, m.Body)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
