// Package allocator issues member numbers of the form <CODE>-<sequence>.
//
// Every governorate owns the block (position*BlockSize, (position+1)*BlockSize]
// of sequence values. The counter for a governorate lives in a single store
// row and is advanced with one atomic upsert; nothing is cached in process,
// so any number of server instances can allocate concurrently.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/odwyaty/internal/catalog"
)

// BlockSize is the number of sequence values reserved per governorate.
const BlockSize = 5000

// ErrInvalidGovernorate is returned for names not in the registry.
var ErrInvalidGovernorate = errors.New("invalid governorate")

// CounterStore advances a named counter atomically. When the counter does not
// exist it must be created holding start and start returned; otherwise it is
// incremented by one and the new value returned. Implementations must not
// read-then-write.
type CounterStore interface {
	Next(ctx context.Context, prefix string, start int64) (int64, error)
}

// Allocator issues member numbers.
type Allocator struct {
	store    CounterStore
	registry *catalog.Registry
	log      *slog.Logger
	tracer   trace.Tracer
}

// New returns an Allocator. A nil logger uses slog.Default().
func New(store CounterStore, registry *catalog.Registry, log *slog.Logger) *Allocator {
	if log == nil {
		log = slog.Default()
	}
	return &Allocator{
		store:    store,
		registry: registry,
		log:      log,
		tracer:   otel.Tracer("odwyaty/allocator"),
	}
}

// Allocate returns the next member number for governorate.
func (a *Allocator) Allocate(ctx context.Context, governorate string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "allocator.allocate",
		trace.WithAttributes(attribute.String("governorate", governorate)))
	defer span.End()

	g, ok := a.registry.Lookup(governorate)
	if !ok {
		span.SetStatus(codes.Error, ErrInvalidGovernorate.Error())
		return "", ErrInvalidGovernorate
	}
	base := BlockStart(g)
	span.SetAttributes(attribute.String("prefix", g.Code), attribute.Int64("block.start", base))

	n, err := a.store.Next(ctx, g.Code, base+1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "counter upsert failed")
		return "", fmt.Errorf("allocate %s: %w", g.Code, err)
	}
	span.SetAttributes(attribute.Int64("counter", n))

	if end := base + BlockSize; n > end {
		// Still unique within the prefix; the block just no longer sorts
		// below the next governorate's numbers.
		span.AddEvent("block_overflow")
		a.log.Warn("member number block exhausted",
			"governorate", g.Name, "prefix", g.Code, "counter", n, "block_end", end)
	}
	return Format(g.Code, n), nil
}

// BlockStart is the last sequence value before g's block.
func BlockStart(g catalog.Governorate) int64 {
	return int64(g.Position) * BlockSize
}

// Format renders a member number, zero-padding the sequence to 5 digits.
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s-%05d", prefix, n)
}
