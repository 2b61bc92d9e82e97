package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"mmbot/internal/models"

	_ "github.com/lib/pq"
)

type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(ctx context.Context, connStr string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	b := &PostgresBackend{db: db}
	if err := b.initTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return b, nil
}

func (b *PostgresBackend) initTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS worker_kv (
			worker VARCHAR(100) NOT NULL,
			key VARCHAR(200) NOT NULL,
			value JSONB NOT NULL,
			updated_at TIMESTAMP DEFAULT NOW(),
			PRIMARY KEY (worker, key)
		)`,

		`CREATE TABLE IF NOT EXISTS worker_orders (
			worker VARCHAR(100) NOT NULL,
			order_id VARCHAR(100) NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT NOW(),
			PRIMARY KEY (worker, order_id)
		)`,
	}

	for _, query := range queries {
		if _, err := b.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func (b *PostgresBackend) Close() error { return b.db.Close() }

func (b *PostgresBackend) Worker(name string) Store {
	return &postgresStore{db: b.db, worker: name}
}

func (b *PostgresBackend) ClearWorkerData(ctx context.Context, name string) error {
	return b.Worker(name).Clear(ctx)
}

type postgresStore struct {
	db     *sql.DB
	worker string
}

func (s *postgresStore) Get(ctx context.Context, key string, out any) (bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM worker_kv WHERE worker = $1 AND key = $2`,
		s.worker, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *postgresStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	query := `
        INSERT INTO worker_kv (worker, key, value, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (worker, key) DO UPDATE SET
            value = EXCLUDED.value,
            updated_at = EXCLUDED.updated_at
    `
	if _, err := s.db.ExecContext(ctx, query, s.worker, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *postgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM worker_kv WHERE worker = $1`, s.worker); err != nil {
		return fmt.Errorf("failed to clear worker state: %w", err)
	}
	return s.ClearOrders(ctx)
}

func (s *postgresStore) SaveOrder(ctx context.Context, order models.Order) error {
	if order.ID == "" {
		return nil
	}
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	query := `
        INSERT INTO worker_orders (worker, order_id, data)
        VALUES ($1, $2, $3)
        ON CONFLICT (worker, order_id) DO UPDATE SET
            data = EXCLUDED.data
    `
	if _, err := s.db.ExecContext(ctx, query, s.worker, order.ID, data); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (s *postgresStore) RemoveOrder(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM worker_orders WHERE worker = $1 AND order_id = $2`,
		s.worker, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

func (s *postgresStore) FetchOrders(ctx context.Context) (map[string]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM worker_orders WHERE worker = $1 ORDER BY created_at ASC`,
		s.worker,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make(map[string]models.Order)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		var order models.Order
		if err := json.Unmarshal(data, &order); err != nil {
			continue
		}
		orders[order.ID] = order
	}
	return orders, rows.Err()
}

func (s *postgresStore) ClearOrders(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM worker_orders WHERE worker = $1`, s.worker); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}
	return nil
}
