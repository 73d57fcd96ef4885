package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/odwyaty/internal/model"
)

// EventRepo owns the events table.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `e.id, e.name, e.description, e.category, e.organizing_entity, e.location,
	e.event_date, e.start_time, e.end_time, e.is_active, e.created_by, e.created_at, e.updated_at,
	(SELECT COUNT(*) FROM attendances a WHERE a.event_id = e.id) AS attendance_count`

func scanEvent(s rowScanner) (model.Event, error) {
	var e model.Event
	var desc, end sql.NullString
	err := s.Scan(&e.ID, &e.Name, &desc, &e.Category, &e.OrganizingEntity, &e.Location,
		&e.Date, &e.StartTime, &end, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		&e.AttendanceCount)
	if err != nil {
		return e, err
	}
	e.Description = nullToPtr(desc)
	e.EndTime = nullToPtr(end)
	return e, nil
}

// Create inserts an event.
func (r *EventRepo) Create(ctx context.Context, e model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, name, description, category, organizing_entity, location,
			event_date, start_time, end_time, is_active, created_by, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Name, e.Description, e.Category, e.OrganizingEntity, e.Location,
		e.Date.Format(time.DateOnly), e.StartTime, e.EndTime, e.IsActive, e.CreatedBy, e.CreatedAt, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID fetches an event with its attendance count.
func (r *EventRepo) GetByID(ctx context.Context, id string) (model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events e WHERE e.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

// EventQuery defines filters & pagination for listing events.
type EventQuery struct {
	Search           string // name or location
	Category         string
	OrganizingEntity string
	IsActive         *bool
	Page             int
	Limit            int
}

func (r *EventRepo) List(ctx context.Context, q EventQuery) ([]model.Event, int64, error) {
	where := []string{}
	args := []any{}

	if q.Search != "" {
		where = append(where, "(LOWER(e.name) LIKE ? OR LOWER(e.location) LIKE ?)")
		like := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, like, like)
	}
	if q.Category != "" {
		where = append(where, "e.category = ?")
		args = append(args, q.Category)
	}
	if q.OrganizingEntity != "" {
		where = append(where, "e.organizing_entity = ?")
		args = append(args, q.OrganizingEntity)
	}
	if q.IsActive != nil {
		where = append(where, "e.is_active = ?")
		args = append(args, *q.IsActive)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events e WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageWindow(q.Page, q.Limit)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events e WHERE "+cond+" ORDER BY e.event_date DESC, e.start_time DESC LIMIT ? OFFSET ?",
		append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// EventUpdate is a partial update; nil fields are left unchanged.
type EventUpdate struct {
	Name             *string
	Description      *string
	Category         *string
	OrganizingEntity *string
	Location         *string
	Date             *time.Time
	StartTime        *string
	EndTime          *string
	IsActive         *bool
}

func (r *EventRepo) Update(ctx context.Context, id string, u EventUpdate) (model.Event, error) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", emptyToNull(*u.Description))
	}
	if u.Category != nil {
		add("category", *u.Category)
	}
	if u.OrganizingEntity != nil {
		add("organizing_entity", *u.OrganizingEntity)
	}
	if u.Location != nil {
		add("location", *u.Location)
	}
	if u.Date != nil {
		add("event_date", u.Date.Format(time.DateOnly))
	}
	if u.StartTime != nil {
		add("start_time", *u.StartTime)
	}
	if u.EndTime != nil {
		add("end_time", emptyToNull(*u.EndTime))
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if len(sets) == 0 {
		return model.Event{}, ErrNoChange
	}

	args = append(args, id)
	if _, err := r.db.ExecContext(ctx, "UPDATE events SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes an event and, through the FK cascade, its attendance.
func (r *EventRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
