package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a Collection kept in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	name     string
	products map[uuid.UUID]Product
	order    []uuid.UUID
	failure  error
	calls    atomic.Int64
	now      func() time.Time
}

// NewInMemoryStore creates an empty collection with the given name.
func NewInMemoryStore(name string) *InMemoryStore {
	if name == "" {
		name = DefaultCollection
	}
	return &InMemoryStore{
		name:     name,
		products: make(map[uuid.UUID]Product),
		now:      time.Now,
	}
}

func (s *InMemoryStore) Name() string {
	return s.name
}

// FailWith makes every following call return err. A nil err restores normal behaviour.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// Calls returns how many operations reached the collection.
func (s *InMemoryStore) Calls() int64 {
	return s.calls.Load()
}

func (s *InMemoryStore) Add(ctx context.Context, p NewProduct) (*Product, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return nil, s.failure
	}
	product := Product{
		ID:          uuid.New(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CreatedAt:   s.now(),
	}
	s.products[product.ID] = product
	s.order = append(s.order, product.ID)
	return &product, nil
}

func (s *InMemoryStore) FindAll(ctx context.Context) ([]Product, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	products := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		products = append(products, s.products[id])
	}
	return products, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	if _, ok := s.products[id]; !ok {
		return nil
	}
	delete(s.products, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
