package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"skillchain/internal/sentinel"
	"skillchain/internal/state"
)

// Store persists ledger state in PostgreSQL.
// Each committed change set is applied in a single SQL transaction.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed state store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM ledger_state WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify(fmt.Errorf("get state %s: %w", key, err))
	}
	return value, nil
}

func (s *Store) Commit(ctx context.Context, changes state.ChangeSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin state commit: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO ledger_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	for _, w := range changes {
		if _, err := tx.ExecContext(ctx, query, w.Key, w.Value); err != nil {
			return classify(fmt.Errorf("write state %s: %w", w.Key, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit state: %w", err))
	}
	return nil
}

// classify tags connection-class failures (SQLSTATE 08xxx) as unavailable.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}

var _ state.Backend = (*Store)(nil)
