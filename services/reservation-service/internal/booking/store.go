package booking

import (
	"context"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/availability"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/outbox"
)

// IdempotencyRecord is the stored outcome of a reservation attempt. A zero
// OutcomeKind with an empty ReservationID means the attempt is still open.
type IdempotencyRecord struct {
	TableID        string
	Key            string
	ReservationID  string
	OutcomeKind    availability.Kind
	OutcomeMessage string
}

func (r IdempotencyRecord) Done() bool {
	return r.ReservationID != "" || r.OutcomeKind != 0
}

// Tx is one reservation write. Reads go through the same transaction so the
// availability check sees exactly what the insert will be judged against.
type Tx interface {
	availability.Reader
	// LockTable blocks other writers of the table until Commit or Rollback.
	LockTable(ctx context.Context, tableID string) (model.Table, error)
	LockIdempotencyKey(ctx context.Context, tableID, key string) (IdempotencyRecord, bool, error)
	FinalizeIdempotency(ctx context.Context, rec IdempotencyRecord) error
	GetReservation(ctx context.Context, id string) (model.Reservation, error)
	InsertReservation(ctx context.Context, r model.Reservation) error
	EnqueueEvent(ctx context.Context, evt outbox.Event) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Store interface {
	Begin(ctx context.Context) (Tx, error)
}
