package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"freezer-inventory/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound          = errors.New("item not found")
	ErrItemCodeAlreadyExists = errors.New("item with this code already exists")
)

// ItemRepository defines the interface for item data access
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ItemStatus, removedDate *time.Time, updatedAt time.Time) (*domain.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	FindByCode(ctx context.Context, code string) (*domain.Item, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, error)
	DeleteByStatuses(ctx context.Context, statuses []domain.ItemStatus) (int64, error)
}

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new instance of ItemRepository
func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemSelect = `
	SELECT i.id, i.qr_code, i.upc, i.image_url, i.name, i.source, i.weight, i.weight_unit,
	       i.category_id, c.name, i.added_date, i.expiration_date, i.status, i.removed_date,
	       i.notes, i.added_by_user_id, i.created_at, i.updated_at
	FROM items i
	LEFT JOIN categories c ON c.id = i.category_id
`

func scanItem(row interface{ Scan(...any) error }) (*domain.Item, error) {
	item := &domain.Item{}
	err := row.Scan(
		&item.ID,
		&item.Code,
		&item.ProductCode,
		&item.ImageURL,
		&item.Name,
		&item.Source,
		&item.Weight,
		&item.WeightUnit,
		&item.CategoryID,
		&item.CategoryName,
		&item.AddedDate,
		&item.ExpirationDate,
		&item.Status,
		&item.RemovedDate,
		&item.Notes,
		&item.AddedByUserID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

// Create inserts a new item into the database using parameterized queries
func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (id, qr_code, upc, image_url, name, source, weight, weight_unit, category_id,
		                   added_date, expiration_date, status, removed_date, notes, added_by_user_id,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Code,
		item.ProductCode,
		item.ImageURL,
		item.Name,
		item.Source,
		item.Weight,
		item.WeightUnit,
		item.CategoryID,
		item.AddedDate,
		item.ExpirationDate,
		item.Status,
		item.RemovedDate,
		item.Notes,
		item.AddedByUserID,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "items_qr_code_key") {
			return ErrItemCodeAlreadyExists
		}
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// Update writes every mutable column of item
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query := `
		UPDATE items
		SET qr_code = $2, upc = $3, image_url = $4, name = $5, source = $6, weight = $7,
		    weight_unit = $8, category_id = $9, added_date = $10, expiration_date = $11,
		    status = $12, removed_date = $13, notes = $14, updated_at = $15
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Code,
		item.ProductCode,
		item.ImageURL,
		item.Name,
		item.Source,
		item.Weight,
		item.WeightUnit,
		item.CategoryID,
		item.AddedDate,
		item.ExpirationDate,
		item.Status,
		item.RemovedDate,
		item.Notes,
		item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "items_qr_code_key") {
			return ErrItemCodeAlreadyExists
		}
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// UpdateStatus changes status and removed date in a single statement and
// returns the stored item.
func (r *itemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ItemStatus, removedDate *time.Time, updatedAt time.Time) (*domain.Item, error) {
	query := `
		UPDATE items
		SET status = $2, removed_date = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, removedDate, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update item status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrItemNotFound
	}

	return r.FindByID(ctx, id)
}

// Delete removes an item from the database using parameterized queries
func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// FindByID retrieves an item by ID using parameterized queries
func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, itemSelect+` WHERE i.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}

	return item, nil
}

// FindByCode retrieves an item by its scannable code
func (r *itemRepository) FindByCode(ctx context.Context, code string) (*domain.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, itemSelect+` WHERE i.qr_code = $1`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item by code: %w", err)
	}

	return item, nil
}

// ExistsByCode reports whether an item already uses code
func (r *itemRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE qr_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check item code: %w", err)
	}
	return exists, nil
}

// List retrieves items matching filter. All conditions are ANDed; the search
// term matches name, source or notes case-insensitively.
func (r *itemRepository) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[domain.SortField]string{
		domain.SortByAddedDate:      "i.added_date",
		domain.SortByExpirationDate: "i.expiration_date",
		domain.SortByName:           "i.name",
	}

	sortColumn, ok := validSortFields[filter.SortBy]
	if !ok {
		sortColumn = "i.added_date"
	}

	sortOrder := filter.SortOrder
	if sortOrder != domain.SortOrderAsc && sortOrder != domain.SortOrderDesc {
		sortOrder = domain.SortOrderDesc
	}

	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if term := strings.TrimSpace(filter.Search); term != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(i.name ILIKE $%d OR i.source ILIKE $%d OR i.notes ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+escapeLike(term)+"%")
		argIndex++
	}

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("i.category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.AddedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("i.added_date >= $%d", argIndex))
		args = append(args, *filter.AddedFrom)
		argIndex++
	}

	if filter.AddedTo != nil {
		conditions = append(conditions, fmt.Sprintf("i.added_date <= $%d", argIndex))
		args = append(args, *filter.AddedTo)
		argIndex++
	}

	if filter.RequireExpiring {
		conditions = append(conditions, "i.expiration_date IS NOT NULL")
	}

	if filter.ExpiringBefore != nil {
		conditions = append(conditions, fmt.Sprintf("i.expiration_date <= $%d", argIndex))
		args = append(args, *filter.ExpiringBefore)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("%s %s ORDER BY %s %s NULLS LAST, i.created_at ASC, i.id ASC",
		itemSelect, whereClause, sortColumn, sortOrder)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// DeleteByStatuses permanently removes every item in one of statuses
func (r *itemRepository) DeleteByStatuses(ctx context.Context, statuses []domain.ItemStatus) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE status = ANY($1)`, values)
	if err != nil {
		return 0, fmt.Errorf("failed to delete items by status: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
