package api

import (
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/models"
)

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, s.logger, err)
}

// Users

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body UserBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.services.Users.Create(r.Context(), body.Name, body.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.services.Users.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.services.Users.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var patch models.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.services.Users.Update(r.Context(), id, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.services.Users.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Items

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body ItemBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Available == nil {
		s.fail(w, r, badRequest("available must not be null"))
		return
	}
	item, err := s.services.Items.Create(r.Context(), userID, models.ItemInput{
		Name:        body.Name,
		Description: body.Description,
		Available:   *body.Available,
		RequestID:   body.RequestID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toItemDTO(item))
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var patch models.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.services.Items.Update(r.Context(), userID, itemID, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toItemDTO(item))
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	details, err := s.services.Items.Get(r.Context(), itemID, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toItemDetailsDTO(details))
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := PageFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.services.Items.ListByOwner(r.Context(), userID, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]ItemDetailsDTO, 0, len(list))
	for _, d := range list {
		out = append(out, toItemDetailsDTO(d))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	page, err := PageFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.services.Items.Search(r.Context(), r.URL.Query().Get("text"), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toItemDTO(item))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body CommentBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	comment, err := s.services.Items.AddComment(r.Context(), itemID, userID, body.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCommentDTO(comment))
}

// Bookings

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body BookingBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := requireID("itemId", body.ItemID); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Start == nil || body.Start.IsZero() || body.End == nil || body.End.IsZero() {
		s.fail(w, r, badRequest("start and end must not be null"))
		return
	}
	booking, err := s.services.Bookings.Create(r.Context(), userID, models.BookingInput{
		ItemID: *body.ItemID,
		Start:  body.Start.Time,
		End:    body.End.Time,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) handleDecideBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("approved"))
	approved, err := strconv.ParseBool(raw)
	if err != nil {
		s.fail(w, r, badRequest("Parameter 'approved' must be true or false, got %q", raw))
		return
	}
	booking, err := s.services.Bookings.Decide(r.Context(), bookingID, approved, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	booking, err := s.services.Bookings.GetByID(r.Context(), bookingID, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, models.RoleBooker)
}

func (s *HTTPServer) handleListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, models.RoleOwner)
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request, role models.Role) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := PageFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	state := r.URL.Query().Get("state")
	if state == "" {
		state = string(models.StateAll)
	}
	list, err := s.services.Bookings.List(r.Context(), userID, role, state, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toBookingDTOs(list))
}

// Requests

func (s *HTTPServer) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body RequestBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	request, err := s.services.Requests.Create(r.Context(), userID, body.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRequestDTO(request))
}

func (s *HTTPServer) handleListMyRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.services.Requests.ListMine(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRequestDTOs(list))
}

func (s *HTTPServer) handleListOtherRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := PageFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.services.Requests.ListOthers(r.Context(), userID, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRequestDTOs(list))
}

func (s *HTTPServer) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromHeader(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	requestID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	request, err := s.services.Requests.Get(r.Context(), requestID, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRequestDTO(request))
}
