package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/model"
)

const (
	TopicReservationCreated = "reservation.created.v1"
	TopicRestaurantCreated  = "restaurant.created.v1"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type reservationCreated struct {
	ReservationID string `json:"reservation_id"`
	RestaurantID  string `json:"restaurant_id"`
	TableID       string `json:"table_id"`
	Date          string `json:"date"`
	StartMinute   int    `json:"start_minute"`
	EndMinute     int    `json:"end_minute"`
	PartySize     int    `json:"party_size"`
	CustomerName  string `json:"customer_name"`
	Phone         string `json:"phone"`
	CreatedAt     string `json:"created_at"`
}

func ReservationCreated(r model.Reservation) (Event, error) {
	payload, err := json.Marshal(reservationCreated{
		ReservationID: r.ID,
		RestaurantID:  r.RestaurantID,
		TableID:       r.TableID,
		Date:          r.Date.Format(model.DateLayout),
		StartMinute:   r.StartMinute,
		EndMinute:     r.EndMinute,
		PartySize:     r.PartySize,
		CustomerName:  r.CustomerName,
		Phone:         r.Phone,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "reservation",
		AggregateID:   r.ID,
		EventType:     TopicReservationCreated,
		Payload:       payload,
	}, nil
}

func RestaurantCreated(r model.Restaurant, hours []model.BusinessHours) (Event, error) {
	openDays := make([]model.Weekday, 0, len(hours))
	for _, bh := range hours {
		if bh.IsOpen {
			openDays = append(openDays, bh.Weekday)
		}
	}
	payload, err := json.Marshal(map[string]any{
		"restaurant_id": r.ID,
		"name":          r.Name,
		"open_days":     openDays,
		"created_at":    r.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "restaurant",
		AggregateID:   r.ID,
		EventType:     TopicRestaurantCreated,
		Payload:       payload,
	}, nil
}
