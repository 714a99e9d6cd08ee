package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Reader is everything the engine needs from persistence. Implementations
// report missing tables or hours as model.ErrNotFound.
type Reader interface {
	HoursSource
	GetTable(ctx context.Context, tableID string) (model.Table, error)
	// ListReservationsOverlapping returns reservations on date whose
	// [start, end) intersects the given window.
	ListReservationsOverlapping(ctx context.Context, tableID string, date time.Time, start, end int) ([]model.Reservation, error)
	ListReservationsOnDate(ctx context.Context, tableID string, date time.Time) ([]model.Reservation, error)
}

type Request struct {
	TableID     string
	Date        time.Time
	StartMinute int
	PartySize   int
	Duration    int
}

type Result struct {
	Table           model.Table
	Window          Window
	Available       bool
	AvailableSeats  int
	TimeSlot        string
	Message         string
	OpenTimeSlots   []SlotResult
	BookedIntervals []Interval
}

// DayView is the full slot grid of one table on one date.
type DayView struct {
	Table           model.Table
	Weekday         model.Weekday
	OpenMinute      int
	CloseMinute     int
	Slots           []SlotResult
	BookedIntervals []Interval
}

type Engine struct {
	reader Reader
	hours  HoursSource
	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Engine)

// WithHoursSource routes business-hours lookups through h, typically a cache
// in front of the reader.
func WithHoursSource(h HoursSource) Option {
	return func(e *Engine) {
		if h != nil {
			e.hours = h
		}
	}
}

func NewEngine(reader Reader, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		reader: reader,
		hours:  reader,
		logger: logger,
		tracer: otel.Tracer("tablereserve/availability"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithReader returns a copy of the engine bound to another reader, such as
// one scoped to a transaction. Hours lookups go to the new reader as well.
func (e *Engine) WithReader(r Reader) *Engine {
	cp := *e
	cp.reader = r
	cp.hours = r
	return &cp
}

// ValidateWindow runs the business-hours checks for a restaurant.
func (e *Engine) ValidateWindow(ctx context.Context, restaurantID string, date time.Time, start, duration int) (Window, error) {
	return ValidateWindow(ctx, e.hours, restaurantID, date, start, duration)
}

// CheckAvailability answers whether req fits its table and lists every slot
// of the day that could still seat the party. It never writes.
func (e *Engine) CheckAvailability(ctx context.Context, req Request) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "availability.check", trace.WithAttributes(
		attribute.String("table_id", req.TableID),
		attribute.String("date", req.Date.Format(model.DateLayout)),
		attribute.Int("party_size", req.PartySize),
	))
	defer span.End()

	res, err := e.checkWindow(ctx, req)
	if err != nil {
		recordError(span, err)
		return Result{}, err
	}

	onDate, err := e.reader.ListReservationsOnDate(ctx, req.TableID, req.Date)
	if err != nil {
		err = fmt.Errorf("list reservations on date: %w", err)
		recordError(span, err)
		return Result{}, err
	}
	booked := BookedIntervals(onDate, res.Table.Capacity)
	grid := GenerateSlots(res.Window.OpenMinute, res.Window.CloseMinute, req.Duration)
	res.OpenTimeSlots = fitting(EvaluateSlots(grid, booked, res.Table.Capacity, req.PartySize))
	res.BookedIntervals = MergeIntervals(booked)

	span.SetAttributes(
		attribute.Bool("available", res.Available),
		attribute.Int("available_seats", res.AvailableSeats),
	)
	return res, nil
}

// CheckWindow is CheckAvailability without the day grid. It is what the
// reservation write path runs under its table lock.
func (e *Engine) CheckWindow(ctx context.Context, req Request) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "availability.check_window", trace.WithAttributes(
		attribute.String("table_id", req.TableID),
	))
	defer span.End()

	res, err := e.checkWindow(ctx, req)
	if err != nil {
		recordError(span, err)
		return Result{}, err
	}
	span.SetAttributes(attribute.Bool("available", res.Available))
	return res, nil
}

func (e *Engine) checkWindow(ctx context.Context, req Request) (Result, error) {
	table, err := e.table(ctx, req.TableID, req.PartySize)
	if err != nil {
		return Result{}, err
	}

	window, err := e.ValidateWindow(ctx, table.RestaurantID, req.Date, req.StartMinute, req.Duration)
	if err != nil {
		return Result{}, err
	}

	overlapping, err := e.reader.ListReservationsOverlapping(ctx, table.ID, req.Date, window.StartMinute, window.EndMinute)
	if err != nil {
		return Result{}, fmt.Errorf("list overlapping reservations: %w", err)
	}
	booked := BookedIntervals(overlapping, table.Capacity)
	seats := SeatsAvailableDuring(window.Interval(), booked, table.Capacity)

	res := Result{
		Table:          table,
		Window:         window,
		AvailableSeats: seats,
		Available:      seats >= req.PartySize,
		TimeSlot:       window.Interval().String(),
	}
	if !res.Available {
		res.Message = unavailableMessage(req.PartySize, seats, res.TimeSlot)
	}

	e.logger.DebugContext(ctx, "availability checked",
		"table_id", table.ID,
		"slot", res.TimeSlot,
		"booked", len(booked),
		"available_seats", seats,
		"available", res.Available,
	)
	return res, nil
}

// DaySlots returns every slot of the day for the table, including the ones
// that can no longer seat the party.
func (e *Engine) DaySlots(ctx context.Context, tableID string, date time.Time, partySize, duration int) (DayView, error) {
	ctx, span := e.tracer.Start(ctx, "availability.day_slots", trace.WithAttributes(
		attribute.String("table_id", tableID),
		attribute.String("date", date.Format(model.DateLayout)),
	))
	defer span.End()

	view, err := e.daySlots(ctx, tableID, date, partySize, duration)
	if err != nil {
		recordError(span, err)
		return DayView{}, err
	}
	span.SetAttributes(attribute.Int("slots", len(view.Slots)))
	return view, nil
}

func (e *Engine) daySlots(ctx context.Context, tableID string, date time.Time, partySize, duration int) (DayView, error) {
	if duration <= 0 || duration > MinutesPerDay {
		return DayView{}, newError(KindInvalidWindow, fmt.Sprintf("Invalid slot duration %d", duration))
	}
	table, err := e.table(ctx, tableID, partySize)
	if err != nil {
		return DayView{}, err
	}

	bh, err := openHours(ctx, e.hours, table.RestaurantID, date)
	if err != nil {
		return DayView{}, err
	}

	onDate, err := e.reader.ListReservationsOnDate(ctx, table.ID, date)
	if err != nil {
		return DayView{}, fmt.Errorf("list reservations on date: %w", err)
	}
	booked := BookedIntervals(onDate, table.Capacity)
	return DayView{
		Table:           table,
		Weekday:         bh.Weekday,
		OpenMinute:      bh.OpenMinute,
		CloseMinute:     bh.CloseMinute,
		Slots:           EvaluateSlots(GenerateSlots(bh.OpenMinute, bh.CloseMinute, duration), booked, table.Capacity, partySize),
		BookedIntervals: MergeIntervals(booked),
	}, nil
}

func (e *Engine) table(ctx context.Context, tableID string, partySize int) (model.Table, error) {
	table, err := e.reader.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Table{}, newError(KindNotFound, "Invalid table ID")
		}
		return model.Table{}, fmt.Errorf("get table: %w", err)
	}
	if partySize > table.Capacity {
		return model.Table{}, newError(KindCapacityExceeded, fmt.Sprintf(
			"Table capacity is %d, which is less than requested capacity of %d", table.Capacity, partySize))
	}
	return table, nil
}

func unavailableMessage(partySize, seats int, slot string) string {
	if seats == 0 {
		return "No seats available for this time slot: " + slot
	}
	return fmt.Sprintf("Party size (%d) exceeds available table capacity (%d) for this time slot: %s", partySize, seats, slot)
}

func recordError(span trace.Span, err error) {
	if _, ok := KindOf(err); ok {
		span.SetAttributes(attribute.String("availability.outcome", err.Error()))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
