package inventory

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

// MemoryStore is an in-process StockStore keyed by product id.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewMemoryStore(products ...*domain.Product) *MemoryStore {
	s := &MemoryStore{products: make(map[string]*domain.Product, len(products))}
	for _, p := range products {
		s.Put(p)
	}
	return s
}

// Put stores a copy of p under its hex id.
func (s *MemoryStore) Put(p *domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.products[p.ID.Hex()] = &cp
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) DecrementStock(_ context.Context, id string, quantity int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if p.Stock < quantity {
		return nil, repository.ErrStockConflict
	}
	p.Stock -= quantity
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) IncrementStock(_ context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock += quantity
	return nil
}

// Stock returns the current stock of id, or -1 when unknown.
func (s *MemoryStore) Stock(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[id]; ok {
		return p.Stock
	}
	return -1
}
