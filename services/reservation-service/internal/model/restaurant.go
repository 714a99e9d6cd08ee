package model

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

type Restaurant struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Table struct {
	ID           string
	RestaurantID string
	TableNumber  int
	Capacity     int
	CreatedAt    time.Time
}
