package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"fluxo/internal/core"
	"fluxo/internal/store"
)

// Store keeps transactions in memory. It accepts records as delivered,
// including duplicates and malformed fields, so it can stand in for a
// misbehaving upstream.
type Store struct {
	mu     sync.Mutex
	items  []core.Transaction
	nextID int64
}

func New(seed ...core.Transaction) *Store {
	s := &Store{items: append([]core.Transaction(nil), seed...)}
	for _, t := range seed {
		if id, ok := t.IDValue(); ok && id > s.nextID {
			s.nextID = id
		}
	}
	return s
}

// NewFromFile seeds the store from a JSON array of transactions. A missing
// path yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed []core.Transaction
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return New(seed...), nil
}

// Append validates the transaction and assigns the next id.
func (s *Store) Append(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = core.Int64(s.nextID)
	s.items = append(s.items, t)
	return t, nil
}

func (s *Store) ListPage(ctx context.Context, filter core.FilterCriteria, page, limit int) (store.Page, error) {
	all, err := s.ListAll(ctx, filter)
	if err != nil {
		return store.Page{}, err
	}
	return store.Slice(all, page, limit), nil
}

func (s *Store) ListAll(ctx context.Context, filter core.FilterCriteria) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	items := append([]core.Transaction(nil), s.items...)
	s.mu.Unlock()
	return store.Apply(items, filter), nil
}
