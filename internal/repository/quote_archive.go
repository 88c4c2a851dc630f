package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"stockpulse/internal/domain/models"
	drepo "stockpulse/internal/domain/repository"
)

// ClickHouseArchive persists published quote records for later analysis.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchive creates the archive over an existing connection pool.
// table must be database-qualified.
func NewClickHouseArchive(db *sql.DB, table string) drepo.Archive {
	return &ClickHouseArchive{db: db, table: table}
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts DateTime,
		symbol String,
		price Float64,
		change Float64,
		change_percent String,
		high Float64,
		low Float64,
		open Float64,
		previous_close Float64
	) ENGINE=MergeTree ORDER BY (symbol, ts)`, a.table)
	if _, err := a.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("archive schema: %w", err)
	}
	return nil
}

func (a *ClickHouseArchive) StoreBatch(ctx context.Context, records []*models.StockRecord) error {
	if len(records) == 0 {
		return nil
	}

	values := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*9)
	for _, r := range records {
		if r == nil || r.Symbol == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			ts = time.Now().UTC()
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, ts, r.Symbol, r.Price, r.Change, r.ChangePercent, r.High, r.Low, r.Open, r.PreviousClose)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, change, change_percent, high, low, open, previous_close) VALUES %s",
		a.table, strings.Join(values, ","))
	if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("archive insert: %w", err)
	}
	return nil
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // pool lifecycle is owned by pkg/clickhouse
}
