package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/md-rashed-zaman/tablereserve/libs/kafkax"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/outbox"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect events published by the outbox",
	}
	cmd.AddCommand(newEventsTailCmd())
	return cmd
}

func newEventsTailCmd() *cobra.Command {
	var brokers, topic, groupID string
	var limit int
	var fromStart bool

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print events from a topic as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(kafkax.SplitBrokers(brokers)) == 0 {
				return errors.New("--brokers is required")
			}
			otel.SetTextMapPropagator(propagation.TraceContext{})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			startOffset := kafka.LastOffset
			if fromStart {
				startOffset = kafka.FirstOffset
			}
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers:     kafkax.SplitBrokers(brokers),
				GroupID:     groupID,
				Topic:       topic,
				MinBytes:    1,
				MaxBytes:    10e6,
				StartOffset: startOffset,
			})
			defer reader.Close()

			for seen := 0; limit <= 0 || seen < limit; seen++ {
				msg, err := reader.ReadMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("read %s: %w", topic, err)
				}
				printEvent(ctx, cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&brokers, "brokers", "localhost:9092", "comma separated Kafka brokers")
	cmd.Flags().StringVar(&topic, "topic", outbox.TopicReservationCreated, "topic to follow")
	cmd.Flags().StringVar(&groupID, "group", "tablectl", "consumer group id")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many events (0 = follow)")
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "start from the oldest retained event")
	return cmd
}

// printEvent writes one line per event with the trace id the producer's
// request carried, so a reservation can be followed into the tracing backend.
func printEvent(ctx context.Context, out io.Writer, msg kafka.Message) {
	traceID := "-"
	if sc := trace.SpanContextFromContext(kafkax.ExtractTraceContext(ctx, msg)); sc.IsValid() {
		traceID = sc.TraceID().String()
	}
	fmt.Fprintf(out, "%s offset=%d event_id=%s type=%s trace_id=%s key=%s\n  %s\n",
		msg.Time.UTC().Format("2006-01-02T15:04:05Z"),
		msg.Offset,
		kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventID),
		kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventType),
		traceID,
		string(msg.Key),
		string(msg.Value),
	)
}
