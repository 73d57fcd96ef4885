package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/odwyaty/internal/catalog"
)

// GovernorateRepo reads and extends the persisted governorate registry.
type GovernorateRepo struct{ db *sql.DB }

func NewGovernorateRepo(db *sql.DB) *GovernorateRepo { return &GovernorateRepo{db: db} }

// List returns the stored registry ordered by position.
func (r *GovernorateRepo) List(ctx context.Context) ([]catalog.Governorate, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT position, name, code FROM governorates ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []catalog.Governorate
	for rows.Next() {
		var g catalog.Governorate
		if err := rows.Scan(&g.Position, &g.Name, &g.Code); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Sync verifies the stored registry against the compiled list and appends
// any compiled entries the table does not have yet. A reordered or edited
// registry is reported as catalog.ErrRegistryMismatch and nothing is written.
func (r *GovernorateRepo) Sync(ctx context.Context) (added int, err error) {
	stored, err := r.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list governorates: %w", err)
	}
	if err := catalog.Verify(stored); err != nil {
		return 0, err
	}
	missing := catalog.Missing(stored)
	if len(missing) == 0 {
		return 0, nil
	}
	ph := make([]string, 0, len(missing))
	args := make([]any, 0, len(missing)*3)
	for _, g := range missing {
		ph = append(ph, "(?,?,?)")
		args = append(args, g.Position, g.Name, g.Code)
	}
	q := "INSERT IGNORE INTO governorates (position, name, code) VALUES " + strings.Join(ph, ",")
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return 0, fmt.Errorf("append governorates: %w", err)
	}
	return len(missing), nil
}
