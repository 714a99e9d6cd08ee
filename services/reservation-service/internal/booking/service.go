package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/outbox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Request struct {
	TableID        string
	Date           time.Time
	StartMinute    int
	Duration       int
	PartySize      int
	CustomerName   string
	Phone          string
	IdempotencyKey string
}

type Outcome struct {
	Reservation model.Reservation
	// Replayed is set when the result comes from an earlier request with the
	// same idempotency key.
	Replayed bool
}

type Service struct {
	store  Store
	engine *availability.Engine
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewService(store Store, engine *availability.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		engine: engine,
		logger: logger,
		tracer: otel.Tracer("tablereserve/booking"),
		now:    time.Now,
	}
}

// Reserve checks availability and writes the reservation in one transaction.
// The table row stays locked from the check until commit, so two requests for
// the last seat cannot both pass. Business rejections are *availability.Error.
func (s *Service) Reserve(ctx context.Context, req Request) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "booking.reserve", trace.WithAttributes(
		attribute.String("table_id", req.TableID),
		attribute.Bool("idempotent", req.IdempotencyKey != ""),
	))
	defer span.End()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if req.IdempotencyKey != "" {
		rec, exists, err := tx.LockIdempotencyKey(ctx, req.TableID, req.IdempotencyKey)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return Outcome{}, &availability.Error{Kind: availability.KindNotFound, Msg: "Invalid table ID"}
			}
			return Outcome{}, fmt.Errorf("lock idempotency key: %w", err)
		}
		if exists && rec.Done() {
			span.SetAttributes(attribute.Bool("replayed", true))
			return s.replay(ctx, tx, rec)
		}
	}

	table, err := tx.LockTable(ctx, req.TableID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return s.reject(ctx, tx, req, &availability.Error{Kind: availability.KindNotFound, Msg: "Invalid table ID"})
		}
		return Outcome{}, fmt.Errorf("lock table: %w", err)
	}

	res, err := s.engine.WithReader(tx).CheckWindow(ctx, availability.Request{
		TableID:     table.ID,
		Date:        req.Date,
		StartMinute: req.StartMinute,
		PartySize:   req.PartySize,
		Duration:    req.Duration,
	})
	if err != nil {
		var rejected *availability.Error
		if errors.As(err, &rejected) {
			return s.reject(ctx, tx, req, rejected)
		}
		return Outcome{}, err
	}
	if !res.Available {
		return s.reject(ctx, tx, req, &availability.Error{Kind: availability.KindCapacityExceeded, Msg: res.Message})
	}

	r := model.Reservation{
		ID:           uuid.NewString(),
		RestaurantID: table.RestaurantID,
		TableID:      table.ID,
		Date:         req.Date,
		StartMinute:  res.Window.StartMinute,
		EndMinute:    res.Window.EndMinute,
		Duration:     req.Duration,
		PartySize:    req.PartySize,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		CreatedAt:    s.now().UTC(),
	}
	if err := tx.InsertReservation(ctx, r); err != nil {
		return Outcome{}, fmt.Errorf("insert reservation: %w", err)
	}

	evt, err := outbox.ReservationCreated(r)
	if err != nil {
		return Outcome{}, fmt.Errorf("build event: %w", err)
	}
	if err := tx.EnqueueEvent(ctx, evt); err != nil {
		return Outcome{}, fmt.Errorf("enqueue event: %w", err)
	}

	if req.IdempotencyKey != "" {
		if err := tx.FinalizeIdempotency(ctx, IdempotencyRecord{
			TableID:       req.TableID,
			Key:           req.IdempotencyKey,
			ReservationID: r.ID,
		}); err != nil {
			return Outcome{}, fmt.Errorf("finalize idempotency key: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Outcome{}, fmt.Errorf("commit: %w", err)
	}

	s.logger.InfoContext(ctx, "reservation created",
		"reservation_id", r.ID,
		"table_id", r.TableID,
		"date", r.Date.Format(model.DateLayout),
		"slot", res.TimeSlot,
		"party_size", r.PartySize,
	)
	return Outcome{Reservation: r}, nil
}

// reject records a business rejection against the idempotency key, if any,
// so a retry gets the same answer.
func (s *Service) reject(ctx context.Context, tx Tx, req Request, rejected *availability.Error) (Outcome, error) {
	if req.IdempotencyKey == "" {
		return Outcome{}, rejected
	}
	if err := tx.FinalizeIdempotency(ctx, IdempotencyRecord{
		TableID:        req.TableID,
		Key:            req.IdempotencyKey,
		OutcomeKind:    rejected.Kind,
		OutcomeMessage: rejected.Msg,
	}); err != nil {
		return Outcome{}, fmt.Errorf("finalize idempotency key: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Outcome{}, fmt.Errorf("commit: %w", err)
	}
	return Outcome{}, rejected
}

func (s *Service) replay(ctx context.Context, tx Tx, rec IdempotencyRecord) (Outcome, error) {
	if rec.ReservationID == "" {
		return Outcome{}, &availability.Error{Kind: rec.OutcomeKind, Msg: rec.OutcomeMessage}
	}
	r, err := tx.GetReservation(ctx, rec.ReservationID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load replayed reservation: %w", err)
	}
	return Outcome{Reservation: r, Replayed: true}, nil
}
