// Package outbox collects the side effects of one unit of work so they can be
// dispatched after the transaction commits. A rolled-back transaction simply
// drops its Outbox.
package outbox

import (
	"context"
	"log/slog"

	"moniftar/internal/audit"
	"moniftar/internal/notify"
)

type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event) error
}

// Outbox is not safe for concurrent use; it belongs to one request.
type Outbox struct {
	messages []notify.Message
	events   []audit.Event
}

func (o *Outbox) Notify(msgs ...notify.Message) {
	o.messages = append(o.messages, msgs...)
}

func (o *Outbox) Record(events ...audit.Event) {
	o.events = append(o.events, events...)
}

func (o *Outbox) Messages() []notify.Message { return o.messages }

func (o *Outbox) Events() []audit.Event { return o.events }

// Flush emits the audit events, then sends the notifications. Failures are
// logged and never returned: the change they describe is already committed.
func (o *Outbox) Flush(ctx context.Context, sender notify.Sender, publisher AuditPublisher, logger *slog.Logger) {
	if publisher != nil {
		for _, e := range o.events {
			if err := publisher.Emit(ctx, e); err != nil && logger != nil {
				logger.WarnContext(ctx, "audit emit failed", "action", e.Action, "error", err)
			}
		}
	}
	if sender != nil && len(o.messages) > 0 {
		sender.Notify(ctx, o.messages...)
	}
	o.messages = nil
	o.events = nil
}
