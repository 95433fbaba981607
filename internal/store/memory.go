package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryJobStore holds jobs in a map. Safe for concurrent use.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]Job)}
}

// PutJob inserts or replaces a job.
func (s *MemoryJobStore) PutJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *MemoryJobStore) GetJob(ctx context.Context, id string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job, nil
}

// MemoryStockStore holds stock families in a map. Safe for concurrent use.
type MemoryStockStore struct {
	mu    sync.RWMutex
	stock map[string]StockItem
}

func NewMemoryStockStore() *MemoryStockStore {
	return &MemoryStockStore{stock: make(map[string]StockItem)}
}

// PutStock inserts or replaces a stock family.
func (s *MemoryStockStore) PutStock(item StockItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[item.ID] = item
}

// QueryStock returns matching families sorted by id.
func (s *MemoryStockStore) QueryStock(ctx context.Context, q StockQuery) ([]StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var wanted map[string]bool
	if len(q.IDs) > 0 {
		wanted = make(map[string]bool, len(q.IDs))
		for _, id := range q.IDs {
			wanted[id] = true
		}
	}

	var out []StockItem
	for _, item := range s.stock {
		if wanted != nil && !wanted[item.ID] {
			continue
		}
		if q.MaterialTypeID != "" && item.MaterialTypeID != q.MaterialTypeID {
			continue
		}
		if q.Thickness != 0 && item.Thickness != q.Thickness {
			continue
		}
		if q.Geometry != "" && item.Geometry != q.Geometry {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
