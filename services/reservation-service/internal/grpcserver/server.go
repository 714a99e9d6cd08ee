package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/md-rashed-zaman/tablereserve/libs/grpcx"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type server struct {
	engine *availability.Engine
	logger *slog.Logger
}

// New builds a gRPC server with tracing, request ids and access logging,
// serving the availability service.
func New(engine *availability.Engine, logger *slog.Logger) *grpc.Server {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcx.UnaryServerRequestIDInterceptor(),
			grpcx.UnaryServerAccessLog(logger),
		),
	)
	Register(s, engine, logger)
	return s
}

func Register(s grpc.ServiceRegistrar, engine *availability.Engine, logger *slog.Logger) {
	s.RegisterService(&serviceDesc, &server{engine: engine, logger: logger})
}

func (s *server) CheckAvailability(ctx context.Context, req *CheckAvailabilityRequest) (*CheckAvailabilityResponse, error) {
	tableID := strings.TrimSpace(req.TableID)
	if tableID == "" {
		return nil, status.Error(codes.InvalidArgument, "table_id is required")
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "date must be in YYYY-MM-DD format")
	}
	if !clockPattern.MatchString(req.Time) {
		return nil, status.Error(codes.InvalidArgument, "time must be in HH:MM format")
	}
	start, _ := availability.ParseClock(req.Time)
	if err := validateSizes(req.PartySize, req.Duration); err != nil {
		return nil, err
	}

	res, err := s.engine.CheckAvailability(ctx, availability.Request{
		TableID:     tableID,
		Date:        date,
		StartMinute: start,
		PartySize:   req.PartySize,
		Duration:    req.Duration,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &CheckAvailabilityResponse{
		Available:       res.Available,
		AvailableSeats:  res.AvailableSeats,
		TimeSlot:        res.TimeSlot,
		Message:         res.Message,
		OpenTimeSlots:   toSlots(res.OpenTimeSlots),
		BookedIntervals: toBooked(res.BookedIntervals),
	}, nil
}

func (s *server) ListSlots(ctx context.Context, req *ListSlotsRequest) (*ListSlotsResponse, error) {
	tableID := strings.TrimSpace(req.TableID)
	if tableID == "" {
		return nil, status.Error(codes.InvalidArgument, "table_id is required")
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "date must be in YYYY-MM-DD format")
	}
	if err := validateSizes(req.PartySize, req.Duration); err != nil {
		return nil, err
	}

	view, err := s.engine.DaySlots(ctx, tableID, date, req.PartySize, req.Duration)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &ListSlotsResponse{
		TableID:         view.Table.ID,
		Weekday:         string(view.Weekday),
		OpenTime:        availability.FormatClock(view.OpenMinute),
		CloseTime:       availability.FormatClock(view.CloseMinute),
		Slots:           toSlots(view.Slots),
		BookedIntervals: toBooked(view.BookedIntervals),
	}, nil
}

func validateSizes(partySize, duration int) error {
	if partySize < 1 {
		return status.Error(codes.InvalidArgument, "party_size must be at least 1")
	}
	if duration < 1 || duration > availability.MinutesPerDay {
		return status.Error(codes.InvalidArgument, "duration must be between 1 and 1440 minutes")
	}
	return nil
}

func (s *server) toStatus(ctx context.Context, err error) error {
	var rejected *availability.Error
	if !errors.As(err, &rejected) {
		s.logger.ErrorContext(ctx, "availability query failed", "request_id", grpcx.RequestIDFromContext(ctx), "err", err)
		return status.Error(codes.Internal, "internal error")
	}
	switch rejected.Kind {
	case availability.KindNotFound:
		return status.Error(codes.NotFound, rejected.Msg)
	case availability.KindInvalidWindow:
		return status.Error(codes.InvalidArgument, rejected.Msg)
	default:
		return status.Error(codes.FailedPrecondition, rejected.Msg)
	}
}

func toSlots(in []availability.SlotResult) []Slot {
	out := make([]Slot, 0, len(in))
	for _, s := range in {
		out = append(out, Slot{
			StartTime:      availability.FormatClock(s.Start),
			EndTime:        availability.FormatClock(s.End),
			AvailableSeats: s.AvailableSeats,
			CanFitParty:    s.CanFitParty,
		})
	}
	return out
}

func toBooked(in []availability.Interval) []BookedInterval {
	out := make([]BookedInterval, 0, len(in))
	for _, iv := range in {
		out = append(out, BookedInterval{
			StartTime: availability.FormatClock(iv.Start),
			EndTime:   availability.FormatClock(iv.End),
			SeatsLeft: iv.SeatsLeft,
		})
	}
	return out
}
