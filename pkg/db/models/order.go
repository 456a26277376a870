package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is recorded once per completed Stripe checkout session.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StripeSessionID string            `gorm:"column:stripe_session_id;not null;uniqueIndex"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	UserID          *uuid.UUID        `gorm:"column:user_id;type:uuid"`
	CustomerEmail   *string           `gorm:"column:customer_email"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}
