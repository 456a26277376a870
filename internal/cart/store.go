package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Persister loads and saves the lines of one cart slot.
type Persister interface {
	Load(ctx context.Context) ([]Line, error)
	Save(ctx context.Context, lines []Line) error
}

// Store holds the lines of a single cart. Transitions always apply in memory;
// the error returned by a mutation is only ever the persistence error.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	persist Persister
}

// Open loads the slot through the persister. A load failure yields an empty
// cart together with the error so the caller can log it.
func Open(ctx context.Context, p Persister) (*Store, error) {
	s := &Store{persist: p}
	if p == nil {
		return s, nil
	}
	lines, err := p.Load(ctx)
	if err != nil {
		return s, err
	}
	s.lines = lines
	return s, nil
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// AddItem merges into the line with the same product and variant, adding the
// quantity, or appends a new line.
func (s *Store) AddItem(ctx context.Context, line Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].matches(line.ProductID, line.VariantKey) {
			s.lines[i].Quantity += line.Quantity
			return s.save(ctx)
		}
	}
	s.lines = append(s.lines, line)
	return s.save(ctx)
}

// RemoveItem deletes exactly the line matching product and variant.
func (s *Store) RemoveItem(ctx context.Context, productID uuid.UUID, variantKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, l := range s.lines {
		if !l.matches(productID, variantKey) {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	return s.save(ctx)
}

// UpdateQuantity sets the quantity of the matching line as given. No floor is
// applied; checkout rejects non-positive quantities.
func (s *Store) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int, variantKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].matches(productID, variantKey) {
			s.lines[i].Quantity = quantity
		}
	}
	return s.save(ctx)
}

// ClearCart removes every line.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	return s.save(ctx)
}

// TotalAmount sums effective price times quantity over all lines.
func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalOf(s.lines)
}

func (s *Store) snapshot() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) save(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	return s.persist.Save(ctx, s.snapshot())
}

func totalOf(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
