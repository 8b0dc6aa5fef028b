package notifier

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/diagnosis/pilgrim-quotes/internal/platform/mailer"
	"github.com/diagnosis/pilgrim-quotes/pkg/events"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
)

// QueueGroup spreads deliveries across notify replicas so each event is mailed once.
const QueueGroup = "notify"

const sendTimeout = 15 * time.Second

// Subscriber is the part of events.EventBus the notifier needs.
type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func(msg *events.Message)) error
}

type Stats struct {
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Skipped int64 `json:"skipped"`
}

// Notifier turns marketplace events into emails.
type Notifier struct {
	mail    mailer.Service
	base    context.Context
	sent    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

func New(mail mailer.Service) *Notifier {
	return &Notifier{mail: mail, base: context.Background()}
}

// Start subscribes to the events that produce mail. ctx bounds every delivery started
// from a handler.
func (n *Notifier) Start(ctx context.Context, sub Subscriber) error {
	n.base = ctx
	if err := sub.QueueSubscribe(events.OfferCreated, QueueGroup, n.HandleOfferCreated); err != nil {
		return err
	}
	if err := sub.QueueSubscribe(events.BookingIntentCreated, QueueGroup, n.HandleBookingIntentCreated); err != nil {
		return err
	}
	logger.Info("Notifier subscribed", "subjects", []string{events.OfferCreated, events.BookingIntentCreated}, "queue", QueueGroup)
	return nil
}

func (n *Notifier) HandleOfferCreated(msg *events.Message) {
	var ev events.OfferCreatedEvent
	if err := msg.Decode(&ev); err != nil {
		n.failed.Add(1)
		logger.Error("Dropping malformed event", "subject", msg.Subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(n.base, sendTimeout)
	defer cancel()
	err := n.mail.SendOfferNotification(ctx, mailer.OfferNotice{
		CustomerEmail:  ev.CustomerEmail,
		CustomerName:   ev.CustomerName,
		OperatorName:   ev.OperatorName,
		RequestID:      ev.RequestID,
		OfferID:        ev.OfferID,
		PricePerPerson: ev.PricePerPerson,
		Currency:       ev.Currency,
	})
	n.record(err, msg.Subject, "offer_id", ev.OfferID)
}

func (n *Notifier) HandleBookingIntentCreated(msg *events.Message) {
	var ev events.BookingIntentCreatedEvent
	if err := msg.Decode(&ev); err != nil {
		n.failed.Add(1)
		logger.Error("Dropping malformed event", "subject", msg.Subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(n.base, sendTimeout)
	defer cancel()
	err := n.mail.SendBookingIntentNotification(ctx, mailer.BookingIntentNotice{
		OperatorEmail:   ev.OperatorEmail,
		OperatorName:    ev.OperatorName,
		CustomerName:    ev.CustomerName,
		CustomerEmail:   ev.CustomerEmail,
		OfferID:         ev.OfferID,
		BookingIntentID: ev.BookingIntentID,
		Notes:           ev.Notes,
	})
	n.record(err, msg.Subject, "booking_intent_id", ev.BookingIntentID)
}

func (n *Notifier) record(err error, subject string, attrs ...any) {
	attrs = append([]any{"subject", subject}, attrs...)
	switch {
	case err == nil:
		n.sent.Add(1)
		logger.Info("Notification sent", attrs...)
	case errors.Is(err, mailer.ErrNoRecipient):
		n.skipped.Add(1)
		logger.Warn("Notification skipped, no recipient", attrs...)
	default:
		n.failed.Add(1)
		logger.Error("Notification failed", append(attrs, "error", err)...)
	}
}

func (n *Notifier) Stats() Stats {
	return Stats{Sent: n.sent.Load(), Failed: n.failed.Load(), Skipped: n.skipped.Load()}
}
