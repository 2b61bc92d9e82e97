package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"mmbot/internal/models"
	"sync"
)

// MemoryBackend keeps everything in process. Values still round-trip through
// JSON so it behaves like the persistent backends.
type MemoryBackend struct {
	mu     sync.Mutex
	kv     map[string]map[string][]byte
	orders map[string]map[string]models.Order
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		kv:     make(map[string]map[string][]byte),
		orders: make(map[string]map[string]models.Order),
	}
}

func (b *MemoryBackend) Close() error { return nil }

func (b *MemoryBackend) Worker(name string) Store {
	return &memoryStore{backend: b, worker: name}
}

func (b *MemoryBackend) ClearWorkerData(ctx context.Context, name string) error {
	return b.Worker(name).Clear(ctx)
}

type memoryStore struct {
	backend *MemoryBackend
	worker  string
}

func (s *memoryStore) Get(_ context.Context, key string, out any) (bool, error) {
	s.backend.mu.Lock()
	data, ok := s.backend.kv[s.worker][key]
	s.backend.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if s.backend.kv[s.worker] == nil {
		s.backend.kv[s.worker] = make(map[string][]byte)
	}
	s.backend.kv[s.worker][key] = data
	return nil
}

func (s *memoryStore) Clear(_ context.Context) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	delete(s.backend.kv, s.worker)
	delete(s.backend.orders, s.worker)
	return nil
}

func (s *memoryStore) SaveOrder(_ context.Context, order models.Order) error {
	if order.ID == "" {
		return nil
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if s.backend.orders[s.worker] == nil {
		s.backend.orders[s.worker] = make(map[string]models.Order)
	}
	s.backend.orders[s.worker][order.ID] = order
	return nil
}

func (s *memoryStore) RemoveOrder(_ context.Context, orderID string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	delete(s.backend.orders[s.worker], orderID)
	return nil
}

func (s *memoryStore) FetchOrders(_ context.Context) (map[string]models.Order, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	orders := make(map[string]models.Order, len(s.backend.orders[s.worker]))
	for id, order := range s.backend.orders[s.worker] {
		orders[id] = order
	}
	return orders, nil
}

func (s *memoryStore) ClearOrders(_ context.Context) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	delete(s.backend.orders, s.worker)
	return nil
}
