package grpcserver

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/storage/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T) (*Client, string) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.New()
	hours := make([]model.BusinessHours, 0, len(model.Weekdays))
	for _, d := range model.Weekdays {
		hours = append(hours, model.BusinessHours{Weekday: d, IsOpen: d != model.Sunday, OpenMinute: 540, CloseMinute: 1020})
	}
	rest, err := store.CreateRestaurant(ctx, "Taverna", hours)
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	table, err := store.AddTable(ctx, rest.ID, 4)
	if err != nil {
		t.Fatalf("AddTable: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := New(availability.NewEngine(store, logger), logger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn), table.ID
}

func TestCheckAvailability(t *testing.T) {
	client, tableID := startServer(t)
	resp, err := client.CheckAvailability(context.Background(), &CheckAvailabilityRequest{
		TableID: tableID, Date: "2024-01-01", Time: "10:00", PartySize: 4, Duration: 60,
	})
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !resp.Available || resp.AvailableSeats != 4 || resp.TimeSlot != "10:00 - 11:00" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.OpenTimeSlots) != 8 {
		t.Fatalf("expected 8 open slots, got %d", len(resp.OpenTimeSlots))
	}
}

func TestCheckAvailabilityStatusCodes(t *testing.T) {
	client, tableID := startServer(t)
	cases := []struct {
		name string
		req  *CheckAvailabilityRequest
		code codes.Code
		msg  string
	}{
		{name: "bad time", req: &CheckAvailabilityRequest{TableID: tableID, Date: "2024-01-01", Time: "7pm", PartySize: 1, Duration: 60}, code: codes.InvalidArgument},
		{name: "unknown table", req: &CheckAvailabilityRequest{TableID: "nope", Date: "2024-01-01", Time: "10:00", PartySize: 1, Duration: 60}, code: codes.NotFound, msg: "Invalid table ID"},
		{name: "closed", req: &CheckAvailabilityRequest{TableID: tableID, Date: "2024-01-07", Time: "10:00", PartySize: 1, Duration: 60}, code: codes.FailedPrecondition, msg: "Restaurant is closed on sunday"},
		{name: "midnight", req: &CheckAvailabilityRequest{TableID: tableID, Date: "2024-01-01", Time: "23:00", PartySize: 1, Duration: 1000}, code: codes.InvalidArgument, msg: "Invalid request duration. Requested end time is 39:40"},
	}
	for _, tc := range cases {
		_, err := client.CheckAvailability(context.Background(), tc.req)
		st, _ := status.FromError(err)
		if st.Code() != tc.code {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
		if tc.msg != "" && st.Message() != tc.msg {
			t.Fatalf("%s: unexpected message %q", tc.name, st.Message())
		}
	}
}

func TestListSlots(t *testing.T) {
	client, tableID := startServer(t)
	resp, err := client.ListSlots(context.Background(), &ListSlotsRequest{
		TableID: tableID, Date: "2024-01-02", PartySize: 2, Duration: 90,
	})
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if resp.Weekday != "tuesday" || resp.OpenTime != "09:00" || resp.CloseTime != "17:00" {
		t.Fatalf("unexpected day %+v", resp)
	}
	if len(resp.Slots) != 5 {
		t.Fatalf("expected 5 slots, got %d", len(resp.Slots))
	}
	if last := resp.Slots[len(resp.Slots)-1]; last.StartTime != "15:00" || last.EndTime != "16:30" {
		t.Fatalf("unexpected last slot %+v", last)
	}
}
