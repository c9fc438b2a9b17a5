package models

import "time"

// Request is an "I need X" post. Items lists the items created in answer to it.
type Request struct {
	ID          int64
	Description string
	RequestorID int64
	Created     time.Time
	Items       []Item
}
