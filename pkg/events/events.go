package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Subject, err)
	}
	return nil
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("pilgrim-quotes"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

func toMessage(msg *nats.Msg) *Message {
	now := time.Now()
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: now,
		ID:        fmt.Sprintf("%d", now.UnixNano()),
	}
}

// NopEventBus drops everything. Used when NATS is disabled.
type NopEventBus struct{}

func (NopEventBus) Publish(ctx context.Context, subject string, _ interface{}) error {
	logger.DebugContext(ctx, "Event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NopEventBus) Subscribe(string, func(msg *Message)) error              { return nil }
func (NopEventBus) QueueSubscribe(string, string, func(msg *Message)) error { return nil }
func (NopEventBus) Close() error                                            { return nil }

// Event subjects
const (
	RequestCreated   = "request.created"
	RequestResponded = "request.responded"

	OfferCreated = "offer.created"

	BookingIntentCreated = "booking_intent.created"

	PackageCreated = "package.created"
	PackageUpdated = "package.updated"
	PackageDeleted = "package.deleted"
)

// Event payloads. Contact fields are filled when known so subscribers need no store access.
type RequestCreatedEvent struct {
	RequestID  string    `json:"request_id"`
	CustomerID string    `json:"customer_id"`
	Type       string    `json:"type"`
	Season     string    `json:"season"`
	CreatedAt  time.Time `json:"created_at"`
}

type RequestRespondedEvent struct {
	RequestID  string `json:"request_id"`
	CustomerID string `json:"customer_id"`
	OfferID    string `json:"offer_id"`
}

type OfferCreatedEvent struct {
	OfferID        string    `json:"offer_id"`
	RequestID      string    `json:"request_id"`
	OperatorID     string    `json:"operator_id"`
	CustomerID     string    `json:"customer_id"`
	CustomerEmail  string    `json:"customer_email,omitempty"`
	CustomerName   string    `json:"customer_name,omitempty"`
	OperatorName   string    `json:"operator_name,omitempty"`
	PricePerPerson float64   `json:"price_per_person"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
}

type BookingIntentCreatedEvent struct {
	BookingIntentID string    `json:"booking_intent_id"`
	OfferID         string    `json:"offer_id"`
	CustomerID      string    `json:"customer_id"`
	CustomerName    string    `json:"customer_name,omitempty"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	OperatorID      string    `json:"operator_id"`
	OperatorEmail   string    `json:"operator_email,omitempty"`
	OperatorName    string    `json:"operator_name,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type PackageEvent struct {
	PackageID  string   `json:"package_id"`
	OperatorID string   `json:"operator_id"`
	Slug       string   `json:"slug,omitempty"`
	Status     string   `json:"status,omitempty"`
	Version    int      `json:"version,omitempty"`
	Changes    []string `json:"changes,omitempty"`
}
