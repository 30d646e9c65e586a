// Package notify delivers text and WhatsApp messages to beneficiaries and
// volunteers. Delivery is best-effort: failures are logged and counted, never
// retried, and never surface to the caller.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"moniftar/pkg/requestcontext"
)

//go:generate mockgen -source=notify.go -destination=mocks/mocks.go -package=mocks

// ErrUnavailable is returned by a gateway that refuses to send, e.g. while its
// circuit is open.
var ErrUnavailable = errors.New("notification gateway unavailable")

// Message is one outbound notification. MediaURL is optional.
type Message struct {
	To       string
	Body     string
	MediaURL string
}

// Gateway sends a message and returns the provider's delivery ID.
type Gateway interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Sender is what services depend on.
type Sender interface {
	Notify(ctx context.Context, msgs ...Message)
}

const defaultConcurrency = 8

// Notifier fans messages out to a Gateway with bounded concurrency.
type Notifier struct {
	gateway     Gateway
	logger      *slog.Logger
	metrics     *Metrics
	concurrency int
	timeout     time.Duration
}

type Option func(*Notifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) { n.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(n *Notifier) { n.metrics = m }
}

func WithConcurrency(limit int) Option {
	return func(n *Notifier) {
		if limit > 0 {
			n.concurrency = limit
		}
	}
}

// WithTimeout bounds one whole Notify call.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) { n.timeout = d }
}

func NewNotifier(gateway Gateway, opts ...Option) *Notifier {
	n := &Notifier{
		gateway:     gateway,
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify sends every message and waits for the outcomes. It runs after a
// commit, so it detaches from the caller's cancellation.
func (n *Notifier) Notify(ctx context.Context, msgs ...Message) {
	if len(msgs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(n.concurrency)
	for _, msg := range msgs {
		g.Go(func() error {
			n.send(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()
}

func (n *Notifier) send(ctx context.Context, msg Message) {
	if msg.To == "" {
		n.metrics.observe(outcomeSkipped, 0)
		n.logger.WarnContext(ctx, "notification skipped: no recipient",
			"request_id", requestcontext.RequestID(ctx))
		return
	}
	start := time.Now()
	deliveryID, err := n.gateway.Send(ctx, msg)
	if err != nil {
		outcome := outcomeFailed
		if errors.Is(err, ErrUnavailable) {
			outcome = outcomeDropped
		}
		n.metrics.observe(outcome, time.Since(start))
		n.logger.WarnContext(ctx, "notification failed",
			"to", maskPhone(msg.To),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	n.metrics.observe(outcomeSent, time.Since(start))
	n.logger.InfoContext(ctx, "notification sent",
		"to", maskPhone(msg.To),
		"delivery_id", deliveryID,
		"request_id", requestcontext.RequestID(ctx),
	)
}

// maskPhone keeps the last four digits for log correlation.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
