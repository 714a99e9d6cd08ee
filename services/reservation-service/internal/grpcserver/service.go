package grpcserver

import (
	"context"

	"github.com/md-rashed-zaman/tablereserve/libs/grpcx"
	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service. Messages are plain structs
// carried with the JSON codec from libs/grpcx.
const ServiceName = "tablereserve.availability.v1.AvailabilityService"

const (
	checkAvailabilityMethod = "/" + ServiceName + "/CheckAvailability"
	listSlotsMethod         = "/" + ServiceName + "/ListSlots"
)

type CheckAvailabilityRequest struct {
	TableID   string `json:"table_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"party_size"`
	Duration  int    `json:"duration"`
}

type Slot struct {
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	AvailableSeats int    `json:"available_seats"`
	CanFitParty    bool   `json:"can_fit_party"`
}

type BookedInterval struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	SeatsLeft int    `json:"seats_left"`
}

type CheckAvailabilityResponse struct {
	Available       bool             `json:"available"`
	AvailableSeats  int              `json:"available_seats"`
	TimeSlot        string           `json:"time_slot"`
	Message         string           `json:"message,omitempty"`
	OpenTimeSlots   []Slot           `json:"open_time_slots"`
	BookedIntervals []BookedInterval `json:"booked_intervals"`
}

type ListSlotsRequest struct {
	TableID   string `json:"table_id"`
	Date      string `json:"date"`
	PartySize int    `json:"party_size"`
	Duration  int    `json:"duration"`
}

type ListSlotsResponse struct {
	TableID         string           `json:"table_id"`
	Weekday         string           `json:"weekday"`
	OpenTime        string           `json:"open_time"`
	CloseTime       string           `json:"close_time"`
	Slots           []Slot           `json:"slots"`
	BookedIntervals []BookedInterval `json:"booked_intervals"`
}

type AvailabilityServer interface {
	CheckAvailability(context.Context, *CheckAvailabilityRequest) (*CheckAvailabilityResponse, error)
	ListSlots(context.Context, *ListSlotsRequest) (*ListSlotsResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckAvailability", Handler: checkAvailabilityHandler},
		{MethodName: "ListSlots", Handler: listSlotsHandler},
	},
	Metadata: "tablereserve/availability/v1",
}

func checkAvailabilityHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckAvailabilityRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).CheckAvailability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkAvailabilityMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).CheckAvailability(ctx, req.(*CheckAvailabilityRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listSlotsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListSlotsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).ListSlots(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listSlotsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).ListSlots(ctx, req.(*ListSlotsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the availability service on any connection; the JSON codec
// is requested per call so callers need no dial-time setup.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) CheckAvailability(ctx context.Context, in *CheckAvailabilityRequest, opts ...grpc.CallOption) (*CheckAvailabilityResponse, error) {
	out := new(CheckAvailabilityResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcx.JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, checkAvailabilityMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSlots(ctx context.Context, in *ListSlotsRequest, opts ...grpc.CallOption) (*ListSlotsResponse, error) {
	out := new(ListSlotsResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcx.JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, listSlotsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
