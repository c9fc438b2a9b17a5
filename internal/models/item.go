package models

type Item struct {
	ID          int64
	OwnerID     int64
	Name        string
	Description string
	Available   bool
	RequestID   *int64
}

// ItemDetails is an item with its owner-only booking neighbours and comments.
type ItemDetails struct {
	Item
	LastBooking *Booking
	NextBooking *Booking
	Comments    []Comment
}

type ItemInput struct {
	Name        string
	Description string
	Available   bool
	RequestID   *int64
}

// ItemPatch holds the fields of a partial item update. Unset fields are left
// untouched.
type ItemPatch struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
	Available   Optional[bool]   `json:"available"`
}

func (p ItemPatch) Empty() bool {
	return !p.Name.Set && !p.Description.Set && !p.Available.Set
}

// Apply copies the set fields onto item.
func (p ItemPatch) Apply(item *Item) {
	if v, ok := p.Name.Get(); ok {
		item.Name = v
	}
	if v, ok := p.Description.Get(); ok {
		item.Description = v
	}
	if v, ok := p.Available.Get(); ok {
		item.Available = v
	}
}
