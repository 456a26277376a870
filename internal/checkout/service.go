package checkout

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
)

// SessionCreator is the processor call that opens a hosted checkout page.
type SessionCreator interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (string, string, error)
}

type cartReader interface {
	Lines(ctx context.Context, slot string) ([]cart.Line, error)
}

// Session identifies the hosted checkout page for the client redirect.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// StartInput is a checkout started from a cart slot.
type StartInput struct {
	CartSession string
	Customer    Customer
	UserID      *uuid.UUID
	Origin      string
}

type Service struct {
	builder *Builder
	creator SessionCreator
	carts   cartReader
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
}

type ServiceParams struct {
	Builder *Builder
	Creator SessionCreator
	Carts   cartReader
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Builder == nil {
		return nil, fmt.Errorf("checkout builder required")
	}
	if params.Creator == nil {
		return nil, fmt.Errorf("session creator required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	return &Service{
		builder: params.Builder,
		creator: params.Creator,
		carts:   params.Carts,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Start reads the cart slot and opens a checkout session for it.
func (s *Service) Start(ctx context.Context, input StartInput) (*Session, error) {
	lines, err := s.carts.Lines(ctx, input.CartSession)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, Request{
		Lines:    lines,
		Customer: input.Customer,
		UserID:   input.UserID,
		Origin:   input.Origin,
	})
}

// Create builds the session parameters and calls the processor. Processor
// errors are logged in full and returned with the generic public message.
func (s *Service) Create(ctx context.Context, req Request) (*Session, error) {
	params, err := s.builder.Build(req)
	if err != nil {
		s.metrics.IncRejected()
		return nil, err
	}

	id, url, err := s.creator.CreateSession(ctx, params)
	if err != nil {
		s.metrics.IncFailed()
		if s.logg != nil {
			s.logg.Error(ctx, "checkout session creation failed", err)
		}
		return nil, creationFailed(err)
	}

	s.metrics.IncCreated()
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "checkout_session_id", id), "checkout session created")
	}
	return &Session{ID: id, URL: url}, nil
}
