package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/odwyaty/internal/model"
)

// CounterRepo owns the member_counters table.
type CounterRepo struct{ db *sql.DB }

func NewCounterRepo(db *sql.DB) *CounterRepo { return &CounterRepo{db: db} }

// Next increments the counter for prefix and returns the new value in a
// single statement. An absent row is created holding start. LAST_INSERT_ID(expr)
// makes the resulting value come back in the OK packet of the same
// statement, so there is no read-after-write window.
func (r *CounterRepo) Next(ctx context.Context, prefix string, start int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO member_counters (prefix, counter) VALUES (?, LAST_INSERT_ID(?))
		 ON DUPLICATE KEY UPDATE counter = LAST_INSERT_ID(counter + 1)`,
		prefix, start)
	if err != nil {
		return 0, fmt.Errorf("upsert counter %s: %w", prefix, err)
	}
	n, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", prefix, err)
	}
	return n, nil
}

// Get returns the current counter row for prefix.
func (r *CounterRepo) Get(ctx context.Context, prefix string) (model.MemberCounter, error) {
	var c model.MemberCounter
	err := r.db.QueryRowContext(ctx,
		"SELECT prefix, counter FROM member_counters WHERE prefix=? LIMIT 1", prefix).
		Scan(&c.Prefix, &c.Counter)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}
