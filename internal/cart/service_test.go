package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProducts struct {
	items map[uuid.UUID]*models.Product
}

func (s *stubProducts) Get(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.items[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func newTestService(t *testing.T) (*Service, *models.Product) {
	t.Helper()
	tee := &models.Product{
		ID:        uuid.New(),
		Name:      "Classic Tee",
		Image:     "https://cdn.example.com/tee.png",
		Price:     price("30"),
		SalePrice: salePrice("24.50"),
		Sizes:     pq.StringArray{"S", "M"},
		Colors:    pq.StringArray{"Black"},
	}
	svc, err := NewService(NewMemoryPersister(), &stubProducts{items: map[uuid.UUID]*models.Product{tee.ID: tee}}, nil)
	require.NoError(t, err)
	return svc, tee
}

func TestServiceAddItemUsesCatalogPrices(t *testing.T) {
	svc, tee := newTestService(t)
	ctx := context.Background()

	view, err := svc.AddItem(ctx, "slot-1", AddItemInput{ProductID: tee.ID, Size: "m", Color: "black", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	line := view.Lines[0]
	assert.Equal(t, "Classic Tee", line.Name)
	assert.Equal(t, "m/black", line.VariantKey)
	assert.True(t, line.UnitPrice.Equal(price("30")))
	assert.True(t, view.Summary.Subtotal.Equal(price("49")))

	other, err := svc.Get(ctx, "slot-2", false)
	require.NoError(t, err)
	assert.Empty(t, other.Lines, "slots must not share lines")
}

func TestServiceAddItemValidation(t *testing.T) {
	svc, tee := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "slot", AddItemInput{ProductID: tee.ID, Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddItem(ctx, "slot", AddItemInput{ProductID: tee.ID, Size: "XXL", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddItem(ctx, "slot", AddItemInput{ProductID: uuid.New(), Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, " ", AddItemInput{ProductID: tee.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceUpdateRemoveClear(t *testing.T) {
	svc, tee := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s", AddItemInput{ProductID: tee.ID, Size: "S", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s", AddItemInput{ProductID: tee.ID, Size: "M", Quantity: 1})
	require.NoError(t, err)

	view, err := svc.UpdateQuantity(ctx, "s", tee.ID, "s/", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Lines[0].Quantity)

	view, err = svc.RemoveItem(ctx, "s", tee.ID, "m/")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	require.NoError(t, svc.Clear(ctx, "s"))
	lines, err := svc.Lines(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestServiceGetWithTax(t *testing.T) {
	svc, tee := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "s", AddItemInput{ProductID: tee.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := svc.Get(ctx, "s", true)
	require.NoError(t, err)
	assert.True(t, view.Summary.Tax.Equal(price("1.72")), "tax %s", view.Summary.Tax)
}

func TestServiceConcurrentAddsOnOneSlot(t *testing.T) {
	svc, tee := newTestService(t)
	ctx := context.Background()

	const adds = 50
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, "shared", AddItemInput{ProductID: tee.ID, Size: "M", Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lines, err := svc.Lines(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, adds, lines[0].Quantity)
}

// flakySlots fails loads on demand while keeping the underlying lines.
type flakySlots struct {
	*MemoryPersister
	failLoad bool
}

func (f *flakySlots) Slot(slot string) Persister {
	return &flakySlot{Persister: f.MemoryPersister.Slot(slot), parent: f}
}

type flakySlot struct {
	Persister
	parent *flakySlots
}

func (f *flakySlot) Load(ctx context.Context) ([]Line, error) {
	if f.parent.failLoad {
		return nil, errors.New("i/o timeout")
	}
	return f.Persister.Load(ctx)
}

func TestServiceLoadFailureDoesNotOverwriteCart(t *testing.T) {
	_, tee := newTestService(t)
	slots := &flakySlots{MemoryPersister: NewMemoryPersister()}
	svc, err := NewService(slots, &stubProducts{items: map[uuid.UUID]*models.Product{tee.ID: tee}}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.AddItem(ctx, "s", AddItemInput{ProductID: tee.ID, Size: "M", Quantity: 6})
	require.NoError(t, err)

	slots.failLoad = true
	_, err = svc.AddItem(ctx, "s", AddItemInput{ProductID: tee.ID, Size: "S", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	_, err = svc.RemoveItem(ctx, "s", tee.ID, "m/")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.True(t, pkgerrors.IsCode(svc.Clear(ctx, "s"), pkgerrors.CodeDependency))

	view, err := svc.Get(ctx, "s", false)
	require.NoError(t, err)
	assert.Empty(t, view.Lines, "reads degrade to an empty cart")

	slots.failLoad = false
	lines, err := svc.Lines(ctx, "s")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "m/", lines[0].VariantKey)
	assert.Equal(t, 6, lines[0].Quantity)
}
