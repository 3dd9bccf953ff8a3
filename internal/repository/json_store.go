package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"

	"github.com/google/uuid"
)

// JSONStore is a MemoryStore persisted to a JSON array on disk after every
// mutation. The file is replaced atomically through a temporary sibling.
type JSONStore struct {
	mem  *MemoryStore
	path string
	// serialises mutations together with the file write that follows them
	mu sync.Mutex
}

var _ domrepo.TransactionStore = (*JSONStore)(nil)

// NewJSONStore loads path, creating an empty store when the file does not exist.
func NewJSONStore(path string) (*JSONStore, error) {
	txs, err := ReadTransactionsFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	mem := NewMemoryStore()
	mem.Seed(txs)
	return &JSONStore{mem: mem, path: path}, nil
}

// ReadTransactionsFile decodes a JSON array of transactions.
func ReadTransactionsFile(path string) ([]models.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var raw []models.TransactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	out := make([]models.Transaction, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.Model())
	}
	return out, nil
}

func (s *JSONStore) Create(ctx context.Context, t *models.Transaction) error {
	return s.mutate(func() error { return s.mem.Create(ctx, t) })
}

func (s *JSONStore) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return s.mem.Get(ctx, id)
}

func (s *JSONStore) List(ctx context.Context) ([]models.Transaction, error) {
	return s.mem.List(ctx)
}

func (s *JSONStore) Update(ctx context.Context, t *models.Transaction) error {
	return s.mutate(func() error { return s.mem.Update(ctx, t) })
}

func (s *JSONStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.mutate(func() error { return s.mem.Delete(ctx, id) })
}

func (s *JSONStore) FindInRange(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.mem.FindInRange(ctx, start, end)
}

func (s *JSONStore) Health(context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("json store: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }

// mutate applies a change in memory and persists it. A change that cannot be
// written to disk is rolled back so memory never runs ahead of the file.
func (s *JSONStore) mutate(apply func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.mem.snapshot()
	if err := apply(); err != nil {
		return err
	}
	if err := s.flush(); err != nil {
		s.mem.restore(snap)
		return err
	}
	return nil
}

func (s *JSONStore) flush() error {
	txs, _ := s.mem.List(context.Background())
	raw := make([]models.TransactionJSON, 0, len(txs))
	for _, t := range txs {
		raw = append(raw, models.NewTransactionJSON(t))
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
