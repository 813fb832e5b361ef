package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newProduct(name string, stock int) *domain.Product {
	return &domain.Product{ID: primitive.NewObjectID(), Name: name, Stock: stock}
}

func item(p *domain.Product, qty int) domain.OrderItem {
	return domain.OrderItem{ProductID: p.ID.Hex(), Name: p.Name, Quantity: qty}
}

// flakyStore fails DecrementStock for selected products and can simulate
// concurrent writers by returning conflicts a fixed number of times.
type flakyStore struct {
	*MemoryStore
	mu        sync.Mutex
	failFor   map[string]error
	conflicts map[string]int
}

func (f *flakyStore) DecrementStock(ctx context.Context, id string, qty int) (*domain.Product, error) {
	f.mu.Lock()
	if err, ok := f.failFor[id]; ok {
		f.mu.Unlock()
		return nil, err
	}
	if f.conflicts[id] > 0 {
		f.conflicts[id]--
		f.mu.Unlock()
		return nil, repository.ErrStockConflict
	}
	f.mu.Unlock()
	return f.MemoryStore.DecrementStock(ctx, id, qty)
}

func TestReserve_DecrementsStock(t *testing.T) {
	rod := newProduct("Rod", 10)
	store := NewMemoryStore(rod)
	adj := NewAdjuster(store, PolicyLenient, zap.NewNop())

	items, adjustments, err := adj.Reserve(context.Background(), []domain.OrderItem{item(rod, 3)})

	require.NoError(t, err)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 7, store.Stock(rod.ID.Hex()))
	require.Len(t, adjustments, 1)
	assert.Equal(t, Adjustment{ProductID: rod.ID.Hex(), ProductName: "Rod", Quantity: 3, Remaining: 7}, adjustments[0])
}

func TestReserve_ClampsToAvailableStock(t *testing.T) {
	rod := newProduct("Rod", 2)
	store := NewMemoryStore(rod)
	adj := NewAdjuster(store, PolicyLenient, zap.NewNop())

	items, _, err := adj.Reserve(context.Background(), []domain.OrderItem{item(rod, 5)})

	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 0, store.Stock(rod.ID.Hex()))
}

func TestReserve_ZeroStockKeepsOneUnit(t *testing.T) {
	rod := newProduct("Rod", 0)
	store := NewMemoryStore(rod)
	adj := NewAdjuster(store, PolicyLenient, zap.NewNop())

	items, adjustments, err := adj.Reserve(context.Background(), []domain.OrderItem{item(rod, 3)})

	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 0, store.Stock(rod.ID.Hex()))
	assert.Empty(t, adjustments)
}

func TestReserve_MissingProductLeftUnchanged(t *testing.T) {
	rod := newProduct("Rod", 5)
	store := NewMemoryStore(rod)
	adj := NewAdjuster(store, PolicyLenient, zap.NewNop())

	ghost := domain.OrderItem{ProductID: primitive.NewObjectID().Hex(), Name: "Ghost", Quantity: 4}
	items, _, err := adj.Reserve(context.Background(), []domain.OrderItem{ghost, item(rod, 1)})

	require.NoError(t, err)
	assert.Equal(t, ghost, items[0])
	assert.Equal(t, 4, store.Stock(rod.ID.Hex()))
}

func TestReserve_DoesNotMutateInput(t *testing.T) {
	rod := newProduct("Rod", 1)
	adj := NewAdjuster(NewMemoryStore(rod), PolicyLenient, zap.NewNop())
	in := []domain.OrderItem{item(rod, 5)}

	_, _, err := adj.Reserve(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, 5, in[0].Quantity)
}

func TestReserve_LenientSwallowsWriteErrors(t *testing.T) {
	broken := newProduct("Broken", 5)
	rod := newProduct("Rod", 5)
	store := &flakyStore{
		MemoryStore: NewMemoryStore(broken, rod),
		failFor:     map[string]error{broken.ID.Hex(): errors.New("write failed")},
	}
	adj := NewAdjuster(store, PolicyLenient, zap.NewNop())

	items, adjustments, err := adj.Reserve(context.Background(), []domain.OrderItem{item(broken, 2), item(rod, 2)})

	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 5, store.Stock(broken.ID.Hex()))
	assert.Equal(t, 3, store.Stock(rod.ID.Hex()))
	require.Len(t, adjustments, 1)
	assert.Equal(t, rod.ID.Hex(), adjustments[0].ProductID)
}

func TestReserve_RetriesOnConflict(t *testing.T) {
	rod := newProduct("Rod", 5)
	store := &flakyStore{
		MemoryStore: NewMemoryStore(rod),
		conflicts:   map[string]int{rod.ID.Hex(): 2},
	}
	adj := NewAdjuster(store, PolicyLenient, zap.NewNop())

	_, adjustments, err := adj.Reserve(context.Background(), []domain.OrderItem{item(rod, 2)})

	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	assert.Equal(t, 3, store.Stock(rod.ID.Hex()))
}

func TestReserve_ContentionIsNotInsufficientStock(t *testing.T) {
	rod := newProduct("Rod", 5)
	reel := newProduct("Reel", 5)
	store := &flakyStore{
		MemoryStore: NewMemoryStore(rod, reel),
		conflicts:   map[string]int{reel.ID.Hex(): maxAttempts},
	}
	adj := NewAdjuster(store, PolicyStrict, zap.NewNop())

	_, _, err := adj.Reserve(context.Background(), []domain.OrderItem{item(rod, 2), item(reel, 2)})

	require.ErrorIs(t, err, ErrStockContention)
	assert.NotErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, store.Stock(rod.ID.Hex()))
	assert.Equal(t, 5, store.Stock(reel.ID.Hex()))
}

func TestReserve_LenientKeepsContendedQuantity(t *testing.T) {
	rod := newProduct("Rod", 1)
	store := &flakyStore{
		MemoryStore: NewMemoryStore(rod),
		conflicts:   map[string]int{rod.ID.Hex(): maxAttempts},
	}
	adj := NewAdjuster(store, PolicyLenient, zap.NewNop())

	items, adjustments, err := adj.Reserve(context.Background(), []domain.OrderItem{item(rod, 4)})

	require.NoError(t, err)
	assert.Empty(t, adjustments)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, 1, store.Stock(rod.ID.Hex()))
}

func TestReserve_StrictRejectsAndReleases(t *testing.T) {
	rod := newProduct("Rod", 5)
	reel := newProduct("Reel", 1)
	store := NewMemoryStore(rod, reel)
	adj := NewAdjuster(store, PolicyStrict, zap.NewNop())

	_, _, err := adj.Reserve(context.Background(), []domain.OrderItem{item(rod, 3), item(reel, 2)})

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, store.Stock(rod.ID.Hex()))
	assert.Equal(t, 1, store.Stock(reel.ID.Hex()))
}

func TestReserve_StrictRejectsUnknownProduct(t *testing.T) {
	adj := NewAdjuster(NewMemoryStore(), PolicyStrict, zap.NewNop())

	_, _, err := adj.Reserve(context.Background(), []domain.OrderItem{{ProductID: "nope", Quantity: 1}})

	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestReserve_ConcurrentOrdersNeverOversell(t *testing.T) {
	rod := newProduct("Rod", 20)
	store := NewMemoryStore(rod)
	adj := NewAdjuster(store, PolicyStrict, zap.NewNop())

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := adj.Reserve(context.Background(), []domain.OrderItem{item(rod, 1)}); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, accepted)
	assert.Equal(t, 0, store.Stock(rod.ID.Hex()))
}

func TestRelease_RestoresStock(t *testing.T) {
	rod := newProduct("Rod", 5)
	store := NewMemoryStore(rod)
	adj := NewAdjuster(store, PolicyLenient, zap.NewNop())

	_, adjustments, err := adj.Reserve(context.Background(), []domain.OrderItem{item(rod, 4)})
	require.NoError(t, err)

	adj.Release(context.Background(), append(adjustments, Adjustment{ProductID: "gone", Quantity: 1}))

	assert.Equal(t, 5, store.Stock(rod.ID.Hex()))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, p)

	p, err = ParsePolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("yolo")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}
