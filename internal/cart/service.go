package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// SlotPersisters hands out a persister bound to one cart slot. Lock serializes
// load, change and save for one slot across requests.
type SlotPersisters interface {
	Slot(slot string) Persister
	Lock(ctx context.Context, slot string) (unlock func(), err error)
}

type productLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// AddItemInput is a request to put a product variant into a cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Size      string
	Color     string
	Quantity  int
}

// View is what the cart endpoints return.
type View struct {
	Lines   []Line  `json:"lines"`
	Summary Summary `json:"summary"`
}

// Service runs cart operations against the slot named by the client.
type Service struct {
	slots    SlotPersisters
	products productLoader
	logg     *logger.Logger
}

func NewService(slots SlotPersisters, products productLoader, logg *logger.Logger) (*Service, error) {
	if slots == nil {
		return nil, fmt.Errorf("cart persisters required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &Service{slots: slots, products: products, logg: logg}, nil
}

// Get returns the lines and display summary of the slot.
func (s *Service) Get(ctx context.Context, slot string, withTax bool) (*View, error) {
	store, err := s.open(ctx, slot)
	if err != nil {
		return nil, err
	}
	return viewOf(store, withTax), nil
}

// Lines returns the raw lines of the slot for checkout.
func (s *Service) Lines(ctx context.Context, slot string) ([]Line, error) {
	store, err := s.open(ctx, slot)
	if err != nil {
		return nil, err
	}
	return store.Lines(), nil
}

// AddItem resolves name and prices from the catalog and merges the line into the slot.
func (s *Service) AddItem(ctx context.Context, slot string, input AddItemInput) (*View, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	product, err := s.products.Get(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkOption("size", input.Size, product.Sizes); err != nil {
		return nil, err
	}
	if err := checkOption("color", input.Color, product.Colors); err != nil {
		return nil, err
	}

	line := Line{
		ProductID:  product.ID,
		VariantKey: VariantKey(input.Size, input.Color),
		Name:       product.Name,
		Image:      product.Image,
		Size:       strings.TrimSpace(input.Size),
		Color:      strings.TrimSpace(input.Color),
		Quantity:   input.Quantity,
		UnitPrice:  product.Price,
		SalePrice:  product.SalePrice,
	}

	return s.mutate(ctx, slot, func(store *Store) error {
		return store.AddItem(ctx, line)
	})
}

// UpdateQuantity sets the quantity of one line.
func (s *Service) UpdateQuantity(ctx context.Context, slot string, productID uuid.UUID, variantKey string, quantity int) (*View, error) {
	return s.mutate(ctx, slot, func(store *Store) error {
		return store.UpdateQuantity(ctx, productID, quantity, variantKey)
	})
}

// RemoveItem deletes one line.
func (s *Service) RemoveItem(ctx context.Context, slot string, productID uuid.UUID, variantKey string) (*View, error) {
	return s.mutate(ctx, slot, func(store *Store) error {
		return store.RemoveItem(ctx, productID, variantKey)
	})
}

// Clear empties the slot.
func (s *Service) Clear(ctx context.Context, slot string) error {
	_, err := s.mutate(ctx, slot, func(store *Store) error {
		return store.ClearCart(ctx)
	})
	return err
}

// mutate runs change against the stored lines while holding the slot lock.
// A slot that cannot be loaded is never written back.
func (s *Service) mutate(ctx context.Context, slot string, change func(*Store) error) (*View, error) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	unlock, err := s.slots.Lock(ctx, slot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
	}
	defer unlock()

	store, err := Open(ctx, s.slots.Slot(slot))
	if err != nil {
		s.logError(ctx, slot, "cart load failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := change(store); err != nil {
		s.logError(ctx, slot, "cart persist failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return viewOf(store, false), nil
}

// open is the read path: a slot that cannot be loaded reads as empty.
func (s *Service) open(ctx context.Context, slot string) (*Store, error) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	store, err := Open(ctx, s.slots.Slot(slot))
	if err != nil {
		s.logError(ctx, slot, "cart load failed; reading as empty", err)
	}
	return store, nil
}

func (s *Service) logError(ctx context.Context, slot, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(s.logg.WithCartSession(ctx, slot), msg, err)
	}
}

func viewOf(store *Store, withTax bool) *View {
	lines := store.Lines()
	return &View{Lines: lines, Summary: Summarize(lines, withTax)}
}

func checkOption(name, value string, allowed []string) error {
	value = strings.TrimSpace(value)
	if value == "" || len(allowed) == 0 {
		return nil
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, value) {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %q is not offered for this product", name, value))
}
