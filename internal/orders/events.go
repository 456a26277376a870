package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventOrderPaid is published once per newly recorded order.
const EventOrderPaid = "order.paid"

// OrderPaidEvent is the payload of EventOrderPaid.
type OrderPaidEvent struct {
	OrderID         uuid.UUID       `json:"order_id"`
	StripeSessionID string          `json:"stripe_session_id"`
	UserID          *uuid.UUID      `json:"user_id,omitempty"`
	CustomerEmail   *string         `json:"customer_email,omitempty"`
	Total           decimal.Decimal `json:"total"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

type publishFunc func(ctx context.Context, data []byte, attrs map[string]string) error

// EventPublisher sends order events to a message topic.
type EventPublisher struct {
	publish publishFunc
	now     func() time.Time
}

// NewPubSubPublisher publishes to the given Pub/Sub topic handle and waits for
// the server acknowledgment.
func NewPubSubPublisher(pub *pubsub.Publisher) (*EventPublisher, error) {
	if pub == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return &EventPublisher{
		publish: func(ctx context.Context, data []byte, attrs map[string]string) error {
			_, err := pub.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
			return err
		},
		now: time.Now,
	}, nil
}

// PublishOrderPaid emits EventOrderPaid for the order.
func (p *EventPublisher) PublishOrderPaid(ctx context.Context, order *models.Order) error {
	if p == nil || order == nil {
		return nil
	}
	payload, err := json.Marshal(OrderPaidEvent{
		OrderID:         order.ID,
		StripeSessionID: order.StripeSessionID,
		UserID:          order.UserID,
		CustomerEmail:   order.CustomerEmail,
		Total:           order.Total,
		OccurredAt:      p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	attrs := map[string]string{
		"event_type": EventOrderPaid,
		"order_id":   order.ID.String(),
	}
	if err := p.publish(ctx, payload, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", EventOrderPaid, err)
	}
	return nil
}
