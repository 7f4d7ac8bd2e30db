// Package postgres implements the docstore contract on PostgreSQL. Documents
// live in a single jsonb table keyed by (path, id); live subscriptions ride
// LISTEN/NOTIFY on the docstore_changes channel.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/makindu-artifacts/storefront/internal/docstore"
)

const notifyChannel = "docstore_changes"

var ErrDuplicateDocument = errors.New("document already exists")

type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool, applies migrations and returns a ready Store.
func Connect(ctx context.Context, dsn, migrationsPath string) (*Store, error) {
	if err := applyMigrations(dsn, migrationsPath); err != nil {
		return nil, fmt.Errorf("postgres: failed to apply migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL document store")
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Subscribe(ctx context.Context, path string, onSnapshot docstore.SnapshotFunc, onError docstore.ErrorFunc) (func(), error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("postgres: onSnapshot is required")
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to acquire listener connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("postgres: failed to LISTEN: %w", err)
	}

	initial, err := s.snapshot(ctx, path)
	if err != nil {
		conn.Release()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	var once sync.Once
	// Waiting on done keeps callbacks from firing once unsubscribe has
	// returned; unsubscribe must therefore not be called from a callback.
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}

	go func() {
		defer close(done)
		defer conn.Release()

		onSnapshot(initial)
		for {
			n, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() != nil {
					return // unsubscribed
				}
				log.Error().Err(err).Str("path", path).Msg("Document subscription lost")
				if onError != nil {
					onError(fmt.Errorf("postgres: subscription lost: %w", err))
				}
				return
			}
			if n.Payload != path {
				continue
			}
			snapshot, err := s.snapshot(subCtx, path)
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				log.Error().Err(err).Str("path", path).Msg("Failed to refresh document snapshot")
				if onError != nil {
					onError(err)
				}
				return
			}
			onSnapshot(snapshot)
		}
	}()

	return unsubscribe, nil
}

func (s *Store) Insert(ctx context.Context, path string, data map[string]any) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("postgres: failed to generate document id: %w", err)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("postgres: failed to encode document: %w", err)
	}

	query := `INSERT INTO documents (path, id, data) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, query, path, id.String(), payload); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", ErrDuplicateDocument
		}
		return "", fmt.Errorf("postgres: failed to insert document: %w", err)
	}

	s.notify(ctx, path)
	return id.String(), nil
}

func (s *Store) Set(ctx context.Context, path, id string, data map[string]any) error {
	if id == "" {
		return fmt.Errorf("postgres: document id is required")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode document: %w", err)
	}

	query := `
		INSERT INTO documents (path, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (path, id) DO UPDATE SET data = EXCLUDED.data
	`
	if _, err := s.pool.Exec(ctx, query, path, id, payload); err != nil {
		return fmt.Errorf("postgres: failed to set document: %w", err)
	}

	s.notify(ctx, path)
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	query := `DELETE FROM documents WHERE path = $1 AND id = $2`
	if _, err := s.pool.Exec(ctx, query, path, id); err != nil {
		return fmt.Errorf("postgres: failed to delete document: %w", err)
	}

	s.notify(ctx, path)
	return nil
}

func (s *Store) snapshot(ctx context.Context, path string) ([]docstore.Document, error) {
	query := `SELECT id, data FROM documents WHERE path = $1 ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan document: %w", err)
		}
		data := map[string]any{}
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("postgres: failed to decode document %s: %w", id, err)
		}
		docs = append(docs, docstore.Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read documents: %w", err)
	}
	return docs, nil
}

func (s *Store) notify(ctx context.Context, path string) {
	if _, err := s.pool.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, path); err != nil {
		// Subscribers miss one change cycle; the next mutation re-notifies.
		log.Warn().Err(err).Str("path", path).Msg("Failed to notify document change")
	}
}

func applyMigrations(dsn, migrationsPath string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "storefront", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migration instance: %w", err)
	}

	err = m.Up()
	if err == migrate.ErrNoChange {
		log.Info().Msg("No new migrations to apply")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Msg("New migrations applied successfully")
	return nil
}
