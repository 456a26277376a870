package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
)

type orderRecorder interface {
	CreateIfAbsent(ctx context.Context, order *models.Order) (*models.Order, bool, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
}

type lineItemLister interface {
	ListLineItems(ctx context.Context, sessionID string) ([]pkgstripe.LineItem, error)
}

type orderPublisher interface {
	PublishOrderPaid(ctx context.Context, order *models.Order) error
}

type ServiceParams struct {
	Orders    orderRecorder
	LineItems lineItemLister
	Publisher orderPublisher
	Metrics   *metrics.WebhookMetrics
	Logger    *logger.Logger
}

// Service reconciles completed Stripe checkout sessions into orders.
type Service struct {
	orders    orderRecorder
	lineItems lineItemLister
	publisher orderPublisher
	metrics   *metrics.WebhookMetrics
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order recorder required")
	}
	if params.LineItems == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "line item lister required")
	}
	return &Service{
		orders:    params.Orders,
		lineItems: params.LineItems,
		publisher: params.Publisher,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// HandleEvent acts on checkout.session.completed and acknowledges everything
// else. The only error returned is a failure to record the order itself.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		s.observe("", metrics.ResultIgnored)
		return nil
	}
	eventType := string(event.Type)
	if s.logg != nil {
		ctx = s.logg.WithStripeEvent(ctx, event.ID, eventType)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		s.observe(eventType, metrics.ResultIgnored)
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
		s.observe(eventType, metrics.ResultFailed)
		s.logError(ctx, "decode checkout session", err)
		return nil
	}

	order, created, err := s.orders.CreateIfAbsent(ctx, orderFromSession(&sess))
	if err != nil {
		s.observe(eventType, metrics.ResultFailed)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order")
	}
	if !created {
		s.observe(eventType, metrics.ResultDuplicate)
		s.logInfo(ctx, fmt.Sprintf("order for session %s already recorded", sess.ID))
		return nil
	}

	s.recordItems(ctx, order)
	if s.publisher != nil {
		if err := s.publisher.PublishOrderPaid(ctx, order); err != nil {
			s.logError(ctx, "publish order paid", err)
		}
	}
	s.observe(eventType, metrics.ResultRecorded)
	s.logInfo(ctx, fmt.Sprintf("order %s recorded for session %s", order.ID, sess.ID))
	return nil
}

// recordItems copies the processor line items onto the order. Failures are
// logged; the order stays recorded.
func (s *Service) recordItems(ctx context.Context, order *models.Order) {
	lines, err := s.lineItems.ListLineItems(ctx, order.StripeSessionID)
	if err != nil {
		s.logError(ctx, "list checkout line items", err)
		return
	}
	if len(lines) == 0 {
		return
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, li := range lines {
		items = append(items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: parseProductID(li.ProductID),
			Quantity:  int(li.Quantity),
			Price:     fromMinorUnits(li.AmountTotal),
		})
	}
	if err := s.orders.CreateItems(ctx, items); err != nil {
		s.logError(ctx, "insert order items", err)
	}
}

func orderFromSession(sess *stripe.CheckoutSession) *models.Order {
	return &models.Order{
		StripeSessionID: sess.ID,
		Total:           fromMinorUnits(sess.AmountTotal),
		Status:          enums.OrderStatusPaid,
		UserID:          parseUserID(sess.Metadata),
		CustomerEmail:   customerEmail(sess),
	}
}

func fromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(-2)
}

func parseUserID(metadata map[string]string) *uuid.UUID {
	raw := strings.TrimSpace(metadata[pkgstripe.MetadataUserID])
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}

func parseProductID(raw string) *uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}

func customerEmail(sess *stripe.CheckoutSession) *string {
	email := strings.TrimSpace(sess.CustomerEmail)
	if email == "" && sess.CustomerDetails != nil {
		email = strings.TrimSpace(sess.CustomerDetails.Email)
	}
	if email == "" {
		return nil
	}
	return &email
}

func (s *Service) observe(eventType, result string) {
	s.metrics.Observe(eventType, result)
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}
