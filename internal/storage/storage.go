package storage

import (
	"context"
	"errors"
	"fmt"
	"mmbot/internal/models"
	"strings"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// Store is the persisted state of one worker: opaque JSON key/values plus the
// orders the worker placed and has not seen closed yet.
type Store interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Clear(ctx context.Context) error

	SaveOrder(ctx context.Context, order models.Order) error
	RemoveOrder(ctx context.Context, orderID string) error
	FetchOrders(ctx context.Context) (map[string]models.Order, error)
	ClearOrders(ctx context.Context) error
}

type Backend interface {
	Worker(name string) Store
	ClearWorkerData(ctx context.Context, name string) error
	Close() error
}

type Config struct {
	Driver string
	Path   string
	DSN    string
}

func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "pebble":
		return NewPebbleBackend(cfg.Path)
	case "postgres":
		return NewPostgresBackend(ctx, cfg.DSN)
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}
