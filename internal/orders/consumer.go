package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type eventItem struct {
	ItemID    string  `json:"item_id"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type CheckoutCompletedEvent struct {
	SessionID   string      `json:"session_id"`
	UserID      string      `json:"user_id"`
	Items       []eventItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Currency    string      `json:"currency"`
}

// Consumer turns checkout-completed events into confirmed orders. The outbox
// delivers at least once; the unique session id makes the order insert (and
// the confirmation mail hanging off it) happen exactly once.
type Consumer struct {
	repo   OrderRepository
	reader *kafka.Reader
}

func NewConsumer(repo OrderRepository, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-completed",
		GroupID:  "rentup-orders",
		MaxBytes: 10e6,
	})
	return &Consumer{repo: repo, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("error reading message: %v", err)
			continue
		}
		c.handle(ctx, m.Value)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) handle(ctx context.Context, payload []byte) {
	var event CheckoutCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("error parsing completion event: %v", err)
		return
	}
	if event.SessionID == "" {
		log.Printf("completion event without session id, skipping")
		return
	}

	currency := event.Currency
	if currency == "" {
		currency = "USD"
	}

	order := &Order{
		ID:          uuid.New(),
		SessionID:   event.SessionID,
		UserID:      event.UserID,
		TotalAmount: event.TotalAmount,
		Currency:    currency,
		Status:      OrderStatusConfirmed,
	}

	if err := c.repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			log.Printf("order for session %s already exists, skipping", event.SessionID)
			return
		}
		log.Printf("failed to create order for session %s: %v", event.SessionID, err)
		return
	}

	c.sendConfirmation(order)
}

// sendConfirmation is reached exactly once per session: the order insert
// dedupes redeliveries before we get here.
func (c *Consumer) sendConfirmation(order *Order) {
	log.Printf("confirmation email queued for order %s (session %s, %s)",
		order.ID, order.SessionID, fmt.Sprintf("%.2f %s", order.TotalAmount, order.Currency))
}
