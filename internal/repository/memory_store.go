package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"

	"github.com/google/uuid"
)

// MemoryStore keeps transactions in process memory. List and FindInRange
// return transactions in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]models.Transaction
	order []uuid.UUID
}

var _ domrepo.TransactionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]models.Transaction)}
}

// Seed replaces the contents of the store.
func (s *MemoryStore) Seed(txs []models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[uuid.UUID]models.Transaction, len(txs))
	s.order = s.order[:0]
	for _, t := range txs {
		if _, ok := s.items[t.ID]; !ok {
			s.order = append(s.order, t.ID)
		}
		s.items[t.ID] = t
	}
}

type memorySnapshot struct {
	items map[uuid.UUID]models.Transaction
	order []uuid.UUID
}

func (s *MemoryStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make(map[uuid.UUID]models.Transaction, len(s.items))
	for id, t := range s.items {
		items[id] = t
	}
	return memorySnapshot{items: items, order: append([]uuid.UUID(nil), s.order...)}
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = snap.items
	s.order = snap.order
}

func (s *MemoryStore) Create(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; ok {
		return fmt.Errorf("create %s: %w", t.ID, domrepo.ErrTransactionExists)
	}
	s.items[t.ID] = *t
	s.order = append(s.order, t.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, domrepo.ErrTransactionNotFound)
	}
	return &t, nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; !ok {
		return fmt.Errorf("update %s: %w", t.ID, domrepo.ErrTransactionNotFound)
	}
	s.items[t.ID] = *t
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, domrepo.ErrTransactionNotFound)
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// FindInRange returns transactions with start <= date <= end.
func (s *MemoryStore) FindInRange(_ context.Context, start, end time.Time) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, 0)
	for _, id := range s.order {
		t := s.items[id]
		if inRange(t.Date, start, end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) Health(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
