// Package database owns the Postgres pool and implements the readiness
// sources on top of it.
package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"readiness-backend/internal/config"
)

// Service exposes the connection pool and its lifecycle.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string

	// Close terminates the pool.
	Close()

	// GetPool returns the pgx pool for sources to query.
	GetPool() *pgxpool.Pool
}

// Querier is the subset of pgx used by the sources. *pgxpool.Pool and
// pgxmock pools both satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type service struct {
	pool *pgxpool.Pool
}

// New opens the pool and verifies connectivity.
func New(ctx context.Context, cfg *config.DBConfig) (Service, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &service{pool: pool}, nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stats := map[string]string{}
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = "database unreachable"
		return stats
	}

	st := s.pool.Stat()
	stats["status"] = "up"
	stats["total_conns"] = strconv.Itoa(int(st.TotalConns()))
	stats["idle_conns"] = strconv.Itoa(int(st.IdleConns()))
	stats["acquired_conns"] = strconv.Itoa(int(st.AcquiredConns()))
	stats["max_conns"] = strconv.Itoa(int(st.MaxConns()))
	return stats
}

func (s *service) Close() {
	s.pool.Close()
}

func (s *service) GetPool() *pgxpool.Pool {
	return s.pool
}

// Store implements every readiness source against Postgres.
type Store struct {
	q Querier
}

// NewStore creates a Store.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

// nullable turns the '' produced by COALESCE(col::text, '') back into nil.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
