package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shareit/internal/models"
)

const requestColumns = `id, description, requestor_id, created`

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		r       models.Request
		created string
	)
	if err := row.Scan(&r.ID, &r.Description, &r.RequestorID, &created); err != nil {
		return nil, err
	}
	var err error
	if r.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) CreateRequest(ctx context.Context, request *models.Request) error {
	result, err := db.ExecContext(ctx,
		`INSERT INTO requests (description, requestor_id, created) VALUES (?, ?, ?)`,
		request.Description, request.RequestorID, formatTime(request.Created))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	return nil
}

func (db *DB) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	request, err := scanRequest(db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return request, nil
}

// ListRequestsByRequestor returns the user's own requests, newest first.
func (db *DB) ListRequestsByRequestor(ctx context.Context, userID int64) ([]*models.Request, error) {
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requestor_id = ? ORDER BY created DESC, id DESC`, userID)
}

// ListRequestsExcept pages through other users' requests, newest first.
func (db *DB) ListRequestsExcept(ctx context.Context, userID int64, page models.Page) ([]*models.Request, error) {
	limit, offset := limitOffset(page.Size, page.From)
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requestor_id != ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.Request, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
