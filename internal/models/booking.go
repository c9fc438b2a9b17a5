package models

import "time"

type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	// StatusCanceled is part of the status set but no operation transitions into it.
	StatusCanceled Status = "CANCELED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// Booking is a time-bounded reservation of an item. ItemName, OwnerID and
// BookerName are materialized from the referenced rows on read.
type Booking struct {
	ID         int64
	Start      time.Time
	End        time.Time
	ItemID     int64
	ItemName   string
	OwnerID    int64
	BookerID   int64
	BookerName string
	Status     Status
	Version    int64
}

// Contains reports whether now falls inside [Start, End].
func (b *Booking) Contains(now time.Time) bool {
	return !now.Before(b.Start) && !now.After(b.End)
}

// BookingInput carries the fields a booker supplies on creation.
type BookingInput struct {
	ItemID int64
	Start  time.Time
	End    time.Time
}
