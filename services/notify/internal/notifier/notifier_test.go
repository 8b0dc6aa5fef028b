package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/pilgrim-quotes/internal/platform/mailer"
	"github.com/diagnosis/pilgrim-quotes/pkg/events"
)

type fakeMailer struct {
	offers  []mailer.OfferNotice
	intents []mailer.BookingIntentNotice
	err     error
}

func (f *fakeMailer) Send(context.Context, string, string, string, string, string) (string, error) {
	return "", nil
}

func (f *fakeMailer) SendOfferNotification(_ context.Context, n mailer.OfferNotice) error {
	if n.CustomerEmail == "" {
		return mailer.ErrNoRecipient
	}
	f.offers = append(f.offers, n)
	return f.err
}

func (f *fakeMailer) SendBookingIntentNotification(_ context.Context, n mailer.BookingIntentNotice) error {
	if n.OperatorEmail == "" {
		return mailer.ErrNoRecipient
	}
	f.intents = append(f.intents, n)
	return f.err
}

type fakeSubscriber struct {
	handlers map[string]func(*events.Message)
	queues   map[string]string
}

func (s *fakeSubscriber) QueueSubscribe(subject, queue string, h func(*events.Message)) error {
	if s.handlers == nil {
		s.handlers = map[string]func(*events.Message){}
		s.queues = map[string]string{}
	}
	s.handlers[subject] = h
	s.queues[subject] = queue
	return nil
}

func (s *fakeSubscriber) deliver(t *testing.T, subject string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	h, ok := s.handlers[subject]
	require.True(t, ok, "no handler for %s", subject)
	h(&events.Message{Subject: subject, Data: data})
}

func TestNotifierDeliversEvents(t *testing.T) {
	fm := &fakeMailer{}
	sub := &fakeSubscriber{}
	n := New(fm)
	require.NoError(t, n.Start(context.Background(), sub))

	assert.Equal(t, QueueGroup, sub.queues[events.OfferCreated])
	assert.Equal(t, QueueGroup, sub.queues[events.BookingIntentCreated])

	sub.deliver(t, events.OfferCreated, events.OfferCreatedEvent{
		OfferID:        "o-1",
		RequestID:      "r-1",
		CustomerEmail:  "aisha@example.com",
		OperatorName:   "Noor Pilgrimages",
		PricePerPerson: 2000,
		Currency:       "GBP",
	})
	sub.deliver(t, events.BookingIntentCreated, events.BookingIntentCreatedEvent{
		BookingIntentID: "bi-1",
		OfferID:         "o-1",
		OperatorEmail:   "hello@noor.example",
		CustomerName:    "Aisha Rahman",
		Notes:           "two rooms",
	})

	require.Len(t, fm.offers, 1)
	assert.Equal(t, "aisha@example.com", fm.offers[0].CustomerEmail)
	assert.InDelta(t, 2000, fm.offers[0].PricePerPerson, 0.001)

	require.Len(t, fm.intents, 1)
	assert.Equal(t, "bi-1", fm.intents[0].BookingIntentID)
	assert.Equal(t, "two rooms", fm.intents[0].Notes)

	assert.Equal(t, Stats{Sent: 2}, n.Stats())
}

func TestNotifierCountsSkipsAndFailures(t *testing.T) {
	fm := &fakeMailer{}
	sub := &fakeSubscriber{}
	n := New(fm)
	require.NoError(t, n.Start(context.Background(), sub))

	sub.deliver(t, events.OfferCreated, events.OfferCreatedEvent{OfferID: "o-1"})
	sub.handlers[events.BookingIntentCreated](&events.Message{Subject: events.BookingIntentCreated, Data: []byte("{")})

	fm.err = errors.New("smtp down")
	sub.deliver(t, events.OfferCreated, events.OfferCreatedEvent{OfferID: "o-2", CustomerEmail: "a@b.c"})

	assert.Equal(t, Stats{Skipped: 1, Failed: 2}, n.Stats())
}
