package service

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/mailer"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockOrderStore struct {
	m         sync.RWMutex
	orders    map[string]*domain.Order
	createErr error
	updateErr error
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: map[string]*domain.Order{}}
}

func (m *mockOrderStore) Create(_ context.Context, o *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrderStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderStore) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockOrderStore) Update(_ context.Context, o *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.orders[o.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrderStore) ReferencesProduct(_ context.Context, productID string) (bool, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, o := range m.orders {
		for _, it := range o.Items {
			if it.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockOrderStore) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.orders)
}

type recordingPublisher struct {
	m        sync.Mutex
	statuses []domain.OrderStatusChanged
	alerts   []domain.StockAlert
}

func (r *recordingPublisher) PublishOrderStatusChanged(e domain.OrderStatusChanged) {
	r.m.Lock()
	defer r.m.Unlock()
	r.statuses = append(r.statuses, e)
}

func (r *recordingPublisher) PublishStockAlert(e domain.StockAlert) {
	r.m.Lock()
	defer r.m.Unlock()
	r.alerts = append(r.alerts, e)
}

type recordingMailer struct {
	m    sync.Mutex
	sent []mailer.Message
}

func (r *recordingMailer) SendAsync(msg mailer.Message) {
	r.m.Lock()
	defer r.m.Unlock()
	r.sent = append(r.sent, msg)
}

// mockProductStore keeps products by hex id.
type mockProductStore struct {
	m        sync.RWMutex
	products map[string]*domain.Product
	listArgs repository.ProductFilter
}

func newMockProductStore(products ...*domain.Product) *mockProductStore {
	s := &mockProductStore{products: map[string]*domain.Product{}}
	for _, p := range products {
		cp := *p
		s.products[p.ID.Hex()] = &cp
	}
	return s
}

func (m *mockProductStore) Create(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, existing := range m.products {
		if existing.Name == p.Name {
			return repository.ErrDuplicateProduct
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	m.products[p.ID.Hex()] = &cp
	return nil
}

func (m *mockProductStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductStore) List(_ context.Context, f repository.ProductFilter) ([]*domain.Product, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.listArgs = f
	var out []*domain.Product
	for _, p := range m.products {
		if f.Category == "" || p.Category == f.Category {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockProductStore) ListRelated(_ context.Context, p *domain.Product, limit int) ([]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Product
	for _, other := range m.products {
		if other.ID != p.ID && other.Category == p.Category && len(out) < limit {
			cp := *other
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockProductStore) ListFeatured(_ context.Context, limit int) ([]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Product
	for _, p := range m.products {
		if p.Featured && len(out) < limit {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockProductStore) ListByCategory(_ context.Context, c domain.Category, limit int) ([]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Product
	for _, p := range m.products {
		if p.Category == c && len(out) < limit {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockProductStore) Update(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[p.ID.Hex()]; !ok {
		return repository.ErrProductNotFound
	}
	cp := *p
	m.products[p.ID.Hex()] = &cp
	return nil
}

func (m *mockProductStore) AddReview(_ context.Context, id string, r domain.Review) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if err := p.AddReview(r); err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductStore) Delete(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductStore) DecrementStock(_ context.Context, id string, qty int) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if p.Stock < qty {
		return nil, repository.ErrStockConflict
	}
	p.Stock -= qty
	cp := *p
	return &cp, nil
}

func (m *mockProductStore) IncrementStock(_ context.Context, id string, qty int) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock += qty
	return nil
}

type recordingInvalidator struct {
	m     sync.Mutex
	calls int
}

func (r *recordingInvalidator) InvalidateCatalog() {
	r.m.Lock()
	defer r.m.Unlock()
	r.calls++
}

func (r *recordingInvalidator) count() int {
	r.m.Lock()
	defer r.m.Unlock()
	return r.calls
}

type mockCache[T any] struct {
	m       sync.RWMutex
	entries map[string]*T
	err     error
	deletes int
}

func newMockCache[T any]() *mockCache[T] {
	return &mockCache[T]{entries: map[string]*T{}}
}

func (m *mockCache[T]) Get(_ context.Context, key string) (*T, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache[T]) Set(_ context.Context, key string, v *T) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.entries[key] = v
	return m.err
}

func (m *mockCache[T]) Delete(_ context.Context, keys ...string) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.deletes++
	return m.err
}

func (m *mockCache[T]) has(key string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.entries[key]
	return ok
}
