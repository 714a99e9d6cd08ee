package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/tablereserve/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"version"}, {"migrate", "up"}, {"migrate", "down"}, {"check"}, {"slots"}, {"events", "tail"}} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd == nil || cmd.Name() != path[len(path)-1] {
			t.Fatalf("command %v not registered: %v", path, err)
		}
	}
}

func TestCheckRequiresFlags(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"check", "--table", "t1"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "required flag") {
		t.Fatalf("expected required flag error, got %v", err)
	}
}

func TestPrintEventShowsTraceID(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	msg := kafka.Message{
		Key:     []byte("table-1"),
		Value:   []byte(`{"party_size":2}`),
		Time:    time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Headers: kafkax.InjectTraceHeaders(ctx, kafkax.EventHeaders("evt-1", "reservation.created.v1")),
	}
	var out bytes.Buffer
	printEvent(context.Background(), &out, msg)

	line := out.String()
	for _, want := range []string{"event_id=evt-1", "type=reservation.created.v1", "trace_id=4bf92f3577b34da6a3ce929d0e0e4736", `{"party_size":2}`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}
