package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shareit/internal/models"
)

const itemColumns = `id, owner_id, name, description, available, request_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item      models.Item
		requestID sql.NullInt64
	)
	if err := row.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.Available, &requestID); err != nil {
		return nil, err
	}
	if requestID.Valid {
		id := requestID.Int64
		item.RequestID = &id
	}
	return &item, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, name, description, available, request_id) VALUES (?, ?, ?, ?, ?)`,
		item.OwnerID, item.Name, item.Description, item.Available, nullableID(item.RequestID))
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (db *DB) ItemOwnedBy(ctx context.Context, itemID, ownerID int64) (bool, error) {
	var owned bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM items WHERE id = ? AND owner_id = ?)`, itemID, ownerID).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("failed to check item owner: %w", err)
	}
	return owned, nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, available = ? WHERE id = ?`,
		item.Name, item.Description, item.Available, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	limit, offset := limitOffset(page.Size, page.From)
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
}

// SearchItems matches available items whose name or description contains
// text, ignoring case.
func (db *DB) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	limit, offset := limitOffset(page.Size, page.From)
	pattern := likePattern(text)
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items
         WHERE available = 1 AND (lower(name) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\')
         ORDER BY id LIMIT ? OFFSET ?`,
		pattern, pattern, limit, offset)
}

// ListItemsByRequests groups the items answering each of the given requests.
func (db *DB) ListItemsByRequests(ctx context.Context, requestIDs []int64) (map[int64][]models.Item, error) {
	grouped := make(map[int64][]models.Item, len(requestIDs))
	if len(requestIDs) == 0 {
		return grouped, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(requestIDs)), ",")
	args := make([]any, len(requestIDs))
	for i, id := range requestIDs {
		args[i] = id
	}

	items, err := db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE request_id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		grouped[*item.RequestID] = append(grouped[*item.RequestID], *item)
	}
	return grouped, nil
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
