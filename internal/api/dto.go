package api

import "shareit/internal/models"

type refDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BookingDTO struct {
	ID       int64            `json:"id"`
	Start    models.Timestamp `json:"start"`
	End      models.Timestamp `json:"end"`
	Status   models.Status    `json:"status"`
	ItemID   int64            `json:"itemId"`
	BookerID int64            `json:"bookerId"`
	Item     refDTO           `json:"item"`
	Booker   refDTO           `json:"booker"`
}

// ShortBookingDTO is the booking view embedded in an item.
type ShortBookingDTO struct {
	ID       int64            `json:"id"`
	BookerID int64            `json:"bookerId"`
	Start    models.Timestamp `json:"start"`
	End      models.Timestamp `json:"end"`
}

type ItemDTO struct {
	ID          int64  `json:"id"`
	Owner       int64  `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   *int64 `json:"requestId"`
}

// ItemDetailsDTO is an item as its single-item and owner-list reads show it.
// The booking fields are null for everyone but the owner.
type ItemDetailsDTO struct {
	ItemDTO
	LastBooking *ShortBookingDTO `json:"lastBooking"`
	NextBooking *ShortBookingDTO `json:"nextBooking"`
	Comments    []CommentDTO     `json:"comments"`
}

type CommentDTO struct {
	ID         int64            `json:"id"`
	Text       string           `json:"text"`
	ItemID     int64            `json:"itemId"`
	AuthorID   int64            `json:"authorId"`
	AuthorName string           `json:"authorName"`
	Created    models.Timestamp `json:"created"`
}

type RequestDTO struct {
	ID          int64            `json:"id"`
	Description string           `json:"description"`
	Requestor   int64            `json:"requestor"`
	Created     models.Timestamp `json:"created"`
	Items       []ItemDTO        `json:"items"`
}

// Inbound bodies. Pointer fields tell a missing value from a zero one. The
// validate tags are enforced by the gateway.

type BookingBody struct {
	ItemID *int64            `json:"itemId" validate:"required"`
	Start  *models.Timestamp `json:"start" validate:"required,gte"`
	End    *models.Timestamp `json:"end" validate:"required,gt"`
}

type ItemBody struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId" validate:"omitempty,gt=0"`
}

type UserBody struct {
	Name  string `json:"name" validate:"notblank"`
	Email string `json:"email" validate:"notblank,email"`
}

type CommentBody struct {
	Text string `json:"text" validate:"notblank"`
}

type RequestBody struct {
	Description string `json:"description" validate:"notblank"`
}

func toBookingDTO(b *models.Booking) BookingDTO {
	return BookingDTO{
		ID:       b.ID,
		Start:    models.NewTimestamp(b.Start),
		End:      models.NewTimestamp(b.End),
		Status:   b.Status,
		ItemID:   b.ItemID,
		BookerID: b.BookerID,
		Item:     refDTO{ID: b.ItemID, Name: b.ItemName},
		Booker:   refDTO{ID: b.BookerID, Name: b.BookerName},
	}
}

func toBookingDTOs(list []*models.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingDTO(b))
	}
	return out
}

func toShortBookingDTO(b *models.Booking) *ShortBookingDTO {
	if b == nil {
		return nil
	}
	return &ShortBookingDTO{
		ID:       b.ID,
		BookerID: b.BookerID,
		Start:    models.NewTimestamp(b.Start),
		End:      models.NewTimestamp(b.End),
	}
}

func toItemDTO(i *models.Item) ItemDTO {
	return ItemDTO{
		ID:          i.ID,
		Owner:       i.OwnerID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		RequestID:   i.RequestID,
	}
}

func toItemDetailsDTO(d *models.ItemDetails) ItemDetailsDTO {
	dto := ItemDetailsDTO{
		ItemDTO:     toItemDTO(&d.Item),
		LastBooking: toShortBookingDTO(d.LastBooking),
		NextBooking: toShortBookingDTO(d.NextBooking),
		Comments:    make([]CommentDTO, 0, len(d.Comments)),
	}
	for i := range d.Comments {
		dto.Comments = append(dto.Comments, toCommentDTO(&d.Comments[i]))
	}
	return dto
}

func toCommentDTO(c *models.Comment) CommentDTO {
	return CommentDTO{
		ID:         c.ID,
		Text:       c.Text,
		ItemID:     c.ItemID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Created:    models.NewTimestamp(c.Created),
	}
}

func toRequestDTO(r *models.Request) RequestDTO {
	items := make([]ItemDTO, 0, len(r.Items))
	for i := range r.Items {
		items = append(items, toItemDTO(&r.Items[i]))
	}
	return RequestDTO{
		ID:          r.ID,
		Description: r.Description,
		Requestor:   r.RequestorID,
		Created:     models.NewTimestamp(r.Created),
		Items:       items,
	}
}

func toRequestDTOs(list []*models.Request) []RequestDTO {
	out := make([]RequestDTO, 0, len(list))
	for _, r := range list {
		out = append(out, toRequestDTO(r))
	}
	return out
}
