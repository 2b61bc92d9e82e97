package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mmbot/internal/models"
	"net/url"

	"github.com/cockroachdb/pebble"
)

type PebbleBackend struct {
	db *pebble.DB
}

func NewPebbleBackend(path string) (*PebbleBackend, error) {
	if path == "" {
		path = "data/workers"
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store: %w", err)
	}
	return &PebbleBackend{db: db}, nil
}

func (b *PebbleBackend) Close() error { return b.db.Close() }

func (b *PebbleBackend) Worker(name string) Store {
	return &pebbleStore{db: b.db, worker: name}
}

func (b *PebbleBackend) ClearWorkerData(ctx context.Context, name string) error {
	return b.Worker(name).Clear(ctx)
}

// keys: kv/<worker>/<key>, ord/<worker>/<order id>
// The worker name is path-escaped so "a" never prefixes "a/b".
func kvPrefix(worker string) []byte    { return []byte("kv/" + url.PathEscape(worker) + "/") }
func orderPrefix(worker string) []byte { return []byte("ord/" + url.PathEscape(worker) + "/") }

func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

type pebbleStore struct {
	db     *pebble.DB
	worker string
}

func (s *pebbleStore) Get(_ context.Context, key string, out any) (bool, error) {
	data, closer, err := s.db.Get(append(kvPrefix(s.worker), key...))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer closer.Close()

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *pebbleStore) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.db.Set(append(kvPrefix(s.worker), key...), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *pebbleStore) Clear(ctx context.Context) error {
	if err := s.deletePrefix(kvPrefix(s.worker)); err != nil {
		return err
	}
	return s.ClearOrders(ctx)
}

func (s *pebbleStore) SaveOrder(_ context.Context, order models.Order) error {
	if order.ID == "" {
		return nil
	}
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := s.db.Set(append(orderPrefix(s.worker), order.ID...), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (s *pebbleStore) RemoveOrder(_ context.Context, orderID string) error {
	if err := s.db.Delete(append(orderPrefix(s.worker), orderID...), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

func (s *pebbleStore) FetchOrders(_ context.Context) (map[string]models.Order, error) {
	prefix := orderPrefix(s.worker)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	defer iter.Close()

	orders := make(map[string]models.Order)
	for iter.First(); iter.Valid(); iter.Next() {
		var order models.Order
		if err := json.Unmarshal(iter.Value(), &order); err != nil {
			continue
		}
		orders[order.ID] = order
	}
	return orders, nil
}

func (s *pebbleStore) ClearOrders(_ context.Context) error {
	return s.deletePrefix(orderPrefix(s.worker))
}

func (s *pebbleStore) deletePrefix(prefix []byte) error {
	if err := s.db.DeleteRange(prefix, keyUpperBound(prefix), pebble.Sync); err != nil {
		return fmt.Errorf("failed to clear %s: %w", prefix, err)
	}
	return nil
}
