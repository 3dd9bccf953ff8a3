package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	pkgch "FinTrack/pkg/clickhouse"
	applogger "FinTrack/pkg/logger"

	"github.com/google/uuid"
)

//go:embed migrations/clickhouse/transactions.sql
var clickhouseSchema string

// CHTransactionStore keeps transactions in a ReplacingMergeTree table.
// Every mutation inserts a new row version; deletes insert a tombstone.
// Reads use FINAL so only the latest live version of each id is returned.
type CHTransactionStore struct {
	db  *sql.DB
	l   *applogger.Logger
	now func() time.Time
}

var _ domrepo.TransactionStore = (*CHTransactionStore)(nil)

// NewCHTransactionStore creates the table if needed.
func NewCHTransactionStore(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (*CHTransactionStore, error) {
	if err := ch.InitSchema(ctx, []string{clickhouseSchema}); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHTransactionStore{db: ch.DB(), l: l, now: time.Now}, nil
}

const chSelect = `
        SELECT id, amount, date, description, created_at, updated_at
        FROM transactions FINAL
        WHERE is_deleted = 0`

func (s *CHTransactionStore) Create(ctx context.Context, t *models.Transaction) error {
	if _, err := s.Get(ctx, t.ID); err == nil {
		return fmt.Errorf("create %s: %w", t.ID, domrepo.ErrTransactionExists)
	} else if !errors.Is(err, domrepo.ErrTransactionNotFound) {
		return err
	}
	return s.insert(ctx, *t, false)
}

func (s *CHTransactionStore) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	txs, err := s.query(ctx, "get", chSelect+` AND id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("get %s: %w", id, domrepo.ErrTransactionNotFound)
	}
	return &txs[0], nil
}

func (s *CHTransactionStore) List(ctx context.Context) ([]models.Transaction, error) {
	return s.query(ctx, "list", chSelect+` ORDER BY created_at, id`)
}

func (s *CHTransactionStore) Update(ctx context.Context, t *models.Transaction) error {
	if _, err := s.Get(ctx, t.ID); err != nil {
		return err
	}
	return s.insert(ctx, *t, false)
}

func (s *CHTransactionStore) Delete(ctx context.Context, id uuid.UUID) error {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.insert(ctx, *cur, true)
}

func (s *CHTransactionStore) FindInRange(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.query(ctx, "find_in_range",
		chSelect+` AND date >= ? AND date <= ? ORDER BY date, id`,
		start.UTC(), end.UTC())
}

func (s *CHTransactionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the pkg/clickhouse client.
func (s *CHTransactionStore) Close() error { return nil }

func (s *CHTransactionStore) insert(ctx context.Context, t models.Transaction, deleted bool) error {
	const q = `
        INSERT INTO transactions (id, amount, date, description, created_at, updated_at, version, is_deleted)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var flag uint8
	if deleted {
		flag = 1
	}
	_, err := s.db.ExecContext(ctx, q,
		t.ID, t.Amount, t.Date.UTC(), t.Description, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
		uint64(s.now().UnixNano()), flag,
	)
	if err != nil {
		s.l.Error("clickhouse insert error",
			applogger.String("id", t.ID.String()),
			applogger.Bool("tombstone", deleted),
			applogger.Error(err),
		)
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *CHTransactionStore) query(ctx context.Context, op, q string, args ...interface{}) ([]models.Transaction, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query error", applogger.String("op", op), applogger.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Date, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			s.l.Error("clickhouse scan error", applogger.String("op", op), applogger.Error(err))
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse query ok",
		applogger.String("op", op),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}
