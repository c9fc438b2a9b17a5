package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.start_at, b.end_at, b.item_id, COALESCE(i.name, ''), COALESCE(i.owner_id, 0),
       b.booker_id, COALESCE(u.name, ''), b.status, b.version
FROM bookings b
LEFT JOIN items i ON i.id = b.item_id
LEFT JOIN users u ON u.id = b.booker_id`

// BookingFilter selects the bookings of one user seen from one role.
// Now is supplied by the caller so every predicate of a query shares it.
type BookingFilter struct {
	UserID int64
	Role   models.Role
	State  models.State
	Now    time.Time
	Page   models.Page
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		start, end string
		status     string
	)
	err := row.Scan(&b.ID, &start, &end, &b.ItemID, &b.ItemName, &b.OwnerID,
		&b.BookerID, &b.BookerName, &status, &b.Version)
	if err != nil {
		return nil, err
	}
	if b.Start, err = parseTime(start); err != nil {
		return nil, err
	}
	if b.End, err = parseTime(end); err != nil {
		return nil, err
	}
	b.Status = models.Status(status)
	return &b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.Status == "" {
		booking.Status = models.StatusWaiting
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO bookings (start_at, end_at, item_id, booker_id, status, version) VALUES (?, ?, ?, ?, ?, 1)`,
		formatTime(booking.Start), formatTime(booking.End), booking.ItemID, booking.BookerID, string(booking.Status))
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return getBooking(ctx, db, id)
}

func getBooking(ctx context.Context, q queryRower, id int64) (*models.Booking, error) {
	booking, err := scanBooking(q.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// DecideBooking moves a WAITING booking at fromVersion to status inside one
// transaction and returns the stored result. ErrConcurrentModification means
// the booking left WAITING or changed version since it was read.
func (db *DB) DecideBooking(ctx context.Context, id, fromVersion int64, status models.Status) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, version = version + 1 WHERE id = ? AND version = ? AND status = ?`,
		string(status), id, fromVersion, string(models.StatusWaiting))
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrConcurrentModification
	}

	booking, err := getBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking decision: %w", err)
	}
	return booking, nil
}

func (db *DB) ListBookings(ctx context.Context, f BookingFilter) ([]*models.Booking, error) {
	var (
		where []string
		args  []any
	)

	switch f.Role {
	case models.RoleOwner:
		where = append(where, "i.owner_id = ?")
	default:
		where = append(where, "b.booker_id = ?")
	}
	args = append(args, f.UserID)

	now := formatTime(f.Now)
	switch f.State {
	case models.StateCurrent:
		where = append(where, "b.start_at <= ?", "b.end_at >= ?")
		args = append(args, now, now)
	case models.StatePast:
		where = append(where, "b.end_at < ?")
		args = append(args, now)
	case models.StateFuture:
		where = append(where, "b.start_at > ?")
		args = append(args, now)
	case models.StateWaiting:
		where = append(where, "b.status = ?")
		args = append(args, string(models.StatusWaiting))
	case models.StateRejected:
		where = append(where, "b.status = ?")
		args = append(args, string(models.StatusRejected))
	case models.StateAll:
	default:
		return nil, fmt.Errorf("unsupported booking state %q", f.State)
	}

	limit, offset := limitOffset(f.Page.Size, f.Page.From)
	args = append(args, limit, offset)

	query := bookingSelect + ` WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY b.start_at DESC, b.id DESC LIMIT ? OFFSET ?`
	return db.queryBookings(ctx, query, args...)
}

// LastApprovedBooking returns the approved booking of the item with the
// greatest start not after now, or nil.
func (db *DB) LastApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return db.approvedNeighbour(ctx,
		bookingSelect+` WHERE b.item_id = ? AND b.status = ? AND b.start_at <= ? ORDER BY b.start_at DESC, b.id DESC LIMIT 1`,
		itemID, now)
}

// NextApprovedBooking returns the approved booking of the item with the
// smallest start after now, or nil.
func (db *DB) NextApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return db.approvedNeighbour(ctx,
		bookingSelect+` WHERE b.item_id = ? AND b.status = ? AND b.start_at > ? ORDER BY b.start_at ASC, b.id ASC LIMIT 1`,
		itemID, now)
}

func (db *DB) approvedNeighbour(ctx context.Context, query string, itemID int64, now time.Time) (*models.Booking, error) {
	booking, err := scanBooking(db.QueryRowContext(ctx, query, itemID, string(models.StatusApproved), formatTime(now)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approved booking: %w", err)
	}
	return booking, nil
}

// HasFinishedBooking reports whether the user booked the item for a period
// that ended before now, whatever the booking's status.
func (db *DB) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE booker_id = ? AND item_id = ? AND end_at < ?)`,
		bookerID, itemID, formatTime(now)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check finished booking: %w", err)
	}
	return exists, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
