package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/md-rashed-zaman/tablereserve/libs/grpcx"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/grpcserver"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"
)

type queryFlags struct {
	addr      string
	timeout   time.Duration
	tableID   string
	date      string
	partySize int
	duration  int
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "localhost:9094", "reservation-service gRPC address")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Second, "dial and call timeout")
	cmd.Flags().StringVar(&f.tableID, "table", "", "table id")
	cmd.Flags().StringVar(&f.date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.partySize, "party", 2, "party size")
	cmd.Flags().IntVar(&f.duration, "duration", 60, "reservation length in minutes")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("date")
}

func (f *queryFlags) client(ctx context.Context) (*grpcserver.Client, func(), error) {
	conn, err := grpcx.Dial(ctx, f.addr, grpcx.DialOptions{Timeout: f.timeout})
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", f.addr, err)
	}
	return grpcserver.NewClient(conn), func() { _ = conn.Close() }, nil
}

func newCheckCmd() *cobra.Command {
	var f queryFlags
	var at string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a party fits a table at a given time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
			defer cancel()
			client, closeConn, err := f.client(ctx)
			if err != nil {
				return err
			}
			defer closeConn()

			resp, err := client.CheckAvailability(ctx, &grpcserver.CheckAvailabilityRequest{
				TableID:   f.tableID,
				Date:      f.date,
				Time:      at,
				PartySize: f.partySize,
				Duration:  f.duration,
			})
			if err != nil {
				return rpcError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "slot %s: available=%t seats=%d\n", resp.TimeSlot, resp.Available, resp.AvailableSeats)
			if resp.Message != "" {
				fmt.Fprintln(out, resp.Message)
			}
			fmt.Fprintln(out, "open slots:")
			writeSlots(out, resp.OpenTimeSlots)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&at, "time", "", "start time (HH:MM)")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func newSlotsCmd() *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List every slot of the day for a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
			defer cancel()
			client, closeConn, err := f.client(ctx)
			if err != nil {
				return err
			}
			defer closeConn()

			resp, err := client.ListSlots(ctx, &grpcserver.ListSlotsRequest{
				TableID:   f.tableID,
				Date:      f.date,
				PartySize: f.partySize,
				Duration:  f.duration,
			})
			if err != nil {
				return rpcError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s - %s\n", resp.Weekday, resp.OpenTime, resp.CloseTime)
			writeSlots(out, resp.Slots)
			if len(resp.BookedIntervals) > 0 {
				fmt.Fprintln(out, "booked:")
				for _, b := range resp.BookedIntervals {
					fmt.Fprintf(out, "  %s - %s  seats left %d\n", b.StartTime, b.EndTime, b.SeatsLeft)
				}
			}
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func writeSlots(out io.Writer, slots []grpcserver.Slot) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  START\tEND\tSEATS\tFITS")
	for _, s := range slots {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%t\n", s.StartTime, s.EndTime, s.AvailableSeats, s.CanFitParty)
	}
	_ = tw.Flush()
}

// rpcError drops the gRPC framing so rejections read like the HTTP API's.
func rpcError(err error) error {
	if st, ok := status.FromError(err); ok {
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
	return err
}
