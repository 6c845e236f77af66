package menu

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"canteen-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, filter Filter) ([]*Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	Create(ctx context.Context, item *Item) error

	// Update applies a patch under a row lock so a reservation committing
	// between read and write can never be overwritten with stale counts.
	// Returns the updated item and the remaining count it replaced.
	Update(ctx context.Context, id string, patch Patch) (*Item, int, error)

	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const itemColumns = `id, name, description, price, category, total_count,
		remaining_count, image_url, is_available, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var it Item
	err := row.Scan(
		&it.ID, &it.Name, &it.Description, &it.Price, &it.Category,
		&it.TotalCount, &it.RemainingCount, &it.ImageURL, &it.IsAvailable,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]*Item, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "List"))

	query := `SELECT ` + itemColumns + ` FROM food_items WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.Category != nil && *filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, *filter.Category)
		argIndex++
	}
	if filter.Available != nil {
		query += fmt.Sprintf(" AND is_available = $%d", argIndex)
		args = append(args, *filter.Available)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query food items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id string) (*Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM food_items WHERE id = $1`, id)

	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *repository) Create(ctx context.Context, item *Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO food_items (
			id, name, description, price, category, total_count,
			remaining_count, image_url, is_available, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		item.ID, item.Name, item.Description, item.Price, item.Category,
		item.TotalCount, item.RemainingCount, item.ImageURL, item.IsAvailable,
		item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (r *repository) Update(ctx context.Context, id string, patch Patch) (*Item, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM food_items WHERE id = $1 FOR UPDATE`, id)

	current, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, 0, ErrItemNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	updated, err := ApplyPatch(*current, patch)
	if err != nil {
		return nil, 0, err
	}
	updated.UpdatedAt = time.Now()

	if _, err := tx.ExecContext(ctx, `
		UPDATE food_items
		SET name = $2, description = $3, price = $4, category = $5,
			total_count = $6, remaining_count = $7, image_url = $8,
			is_available = $9, updated_at = $10
		WHERE id = $1
	`,
		updated.ID, updated.Name, updated.Description, updated.Price, updated.Category,
		updated.TotalCount, updated.RemainingCount, updated.ImageURL, updated.IsAvailable,
		updated.UpdatedAt,
	); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return &updated, current.RemainingCount, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM food_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM food_items ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
