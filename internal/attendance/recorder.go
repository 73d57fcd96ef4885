// Package attendance records event check-ins, at most one per (event, member).
//
// The existence check before inserting only produces the friendly answer
// early. The unique key on (event_id, member_id) is what guarantees a single
// row: a concurrent scan that loses the insert race re-reads the winner's row
// and reports AlreadyAttended like any other duplicate.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/repository"
)

// Outcome is the result kind of a Record call.
type Outcome int

const (
	Recorded Outcome = iota + 1
	AlreadyAttended
	EventNotFound
	EventInactive
	MemberNotFound
)

func (o Outcome) String() string {
	switch o {
	case Recorded:
		return "RECORDED"
	case AlreadyAttended:
		return "ALREADY_ATTENDED"
	case EventNotFound:
		return "EVENT_NOT_FOUND"
	case EventInactive:
		return "EVENT_INACTIVE"
	case MemberNotFound:
		return "MEMBER_NOT_FOUND"
	}
	return "UNKNOWN"
}

// Result carries what a caller needs to render any outcome without another
// lookup. Member and ScannedAt are set for Recorded and AlreadyAttended;
// for AlreadyAttended ScannedAt is the original scan time.
type Result struct {
	Outcome      Outcome
	Member       model.MemberSnapshot
	EventName    string
	ScannedAt    time.Time
	AttendanceID string
}

// EventReader, MemberReader and Store are the storage operations the
// recorder needs. Missing rows are reported as repository.ErrNotFound and a
// lost insert race as repository.ErrDuplicate.
type EventReader interface {
	GetByID(ctx context.Context, id string) (model.Event, error)
}

type MemberReader interface {
	Snapshot(ctx context.Context, id string) (model.MemberSnapshot, error)
}

type Store interface {
	Find(ctx context.Context, eventID, memberID string) (model.Attendance, error)
	Insert(ctx context.Context, a model.Attendance) error
}

// Recorder implements the scan state machine.
type Recorder struct {
	events  EventReader
	members MemberReader
	store   Store
	log     *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewRecorder(events EventReader, members MemberReader, store Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		events:  events,
		members: members,
		store:   store,
		log:     log,
		tracer:  otel.Tracer("odwyaty/attendance"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record checks memberID in at eventID on behalf of admin scannedBy. The
// returned error is non-nil only for infrastructure failures; every expected
// condition is an Outcome.
func (r *Recorder) Record(ctx context.Context, eventID, memberID, scannedBy string) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "attendance.record", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("member.id", memberID),
	))
	defer span.End()

	res, err := r.record(ctx, eventID, memberID, scannedBy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record attendance failed")
		return Result{}, err
	}
	span.SetAttributes(attribute.String("outcome", res.Outcome.String()))
	return res, nil
}

func (r *Recorder) record(ctx context.Context, eventID, memberID, scannedBy string) (Result, error) {
	ev, err := r.events.GetByID(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return Result{Outcome: EventNotFound}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("load event: %w", err)
	}
	if !ev.IsActive {
		return Result{Outcome: EventInactive, EventName: ev.Name}, nil
	}

	member, err := r.members.Snapshot(ctx, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return Result{Outcome: MemberNotFound, EventName: ev.Name}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("load member: %w", err)
	}

	if prev, err := r.store.Find(ctx, eventID, memberID); err == nil {
		return already(prev, member, ev.Name), nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Result{}, fmt.Errorf("check attendance: %w", err)
	}

	a := model.Attendance{
		ID:        uuid.NewString(),
		EventID:   eventID,
		MemberID:  memberID,
		ScannedBy: scannedBy,
		ScannedAt: r.now().Truncate(time.Millisecond),
	}
	err = r.store.Insert(ctx, a)
	if errors.Is(err, repository.ErrDuplicate) {
		prev, ferr := r.store.Find(ctx, eventID, memberID)
		if ferr != nil {
			return Result{}, fmt.Errorf("re-read attendance after duplicate: %w", ferr)
		}
		r.log.Debug("concurrent scan resolved as duplicate", "event_id", eventID, "member_id", memberID)
		return already(prev, member, ev.Name), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("insert attendance: %w", err)
	}

	return Result{
		Outcome:      Recorded,
		Member:       member,
		EventName:    ev.Name,
		ScannedAt:    a.ScannedAt,
		AttendanceID: a.ID,
	}, nil
}

func already(prev model.Attendance, m model.MemberSnapshot, eventName string) Result {
	return Result{
		Outcome:      AlreadyAttended,
		Member:       m,
		EventName:    eventName,
		ScannedAt:    prev.ScannedAt,
		AttendanceID: prev.ID,
	}
}
