package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"canteen-be/internal/inventory"
	"canteen-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// CreateOrderTx resolves the requested lines against current menu
	// data, reserves their stock and persists the order, all in one
	// transaction. The order arrives with identity, id, QR code, status
	// and creation time set; lines and total are filled in from the
	// prices read under the reservation's row locks.
	CreateOrderTx(ctx context.Context, o *Order, requested []inventory.Line) ([]inventory.StockDelta, error)

	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)

	// UpdateStatusTx applies one state-machine transition, guarded on the
	// current status, and releases reserved stock when the transition is
	// a cancellation. The returned deltas are non-empty only for
	// cancellations.
	UpdateStatusTx(ctx context.Context, id string, to Status) (*Order, []inventory.StockDelta, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateOrderTx(ctx context.Context, o *Order, requested []inventory.Line) ([]inventory.StockDelta, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	reserved, err := inventory.ReserveTx(ctx, tx, requested)
	if err != nil {
		return nil, err
	}

	o.Items = o.Items[:0]
	o.TotalAmount = 0
	for _, res := range reserved {
		line := Line{
			FoodItemID:   res.ItemID,
			FoodItemName: res.Name,
			Quantity:     res.Quantity,
			Price:        res.Price,
			TotalPrice:   res.Price * res.Quantity,
		}
		o.Items = append(o.Items, line)
		o.TotalAmount += line.TotalPrice
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, user_name, user_email, total_amount,
			status, qr_code, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		o.ID, o.UserID, o.UserName, o.UserEmail, o.TotalAmount,
		o.Status, o.QRCode, o.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, line := range o.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, food_item_id, food_item_name, quantity, price, total_price
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			o.ID, line.FoodItemID, line.FoodItemName, line.Quantity,
			line.Price, line.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		// The transaction either committed fully or not at all; a failed
		// commit leaves no reserved-but-unordered stock behind, but is
		// surfaced loudly for operational follow-up.
		logger.FromCtx(ctx).Error("order transaction commit failed",
			zap.String("order_id", o.ID), zap.Error(err))
		return nil, err
	}

	return inventory.Deltas(reserved), nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	o, err := r.scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, user_name, user_email, total_amount,
			status, qr_code, created_at, fulfilled_at
		FROM orders
		WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "ListOrders"))

	query := `
		SELECT id, user_id, user_name, user_email, total_amount,
			status, qr_code, created_at, fulfilled_at
		FROM orders
		WHERE 1=1
	`
	args := []any{}
	argIndex := 1

	if filter.UserID != nil && *filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}
	if filter.Status != nil && *filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	var ids []string
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		items, err := r.loadItems(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			o.Items = items[o.ID]
		}
	}

	return orders, nil
}

func (r *repository) UpdateStatusTx(ctx context.Context, id string, to Status) (*Order, []inventory.StockDelta, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	o, err := r.scanOrder(tx.QueryRowContext(ctx, `
		SELECT id, user_id, user_name, user_email, total_amount,
			status, qr_code, created_at, fulfilled_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	if !CanTransition(o.Status, to) {
		switch o.Status {
		case StatusFulfilled:
			return nil, nil, ErrAlreadyFulfilled
		case StatusCancelled:
			return nil, nil, ErrAlreadyCancelled
		default:
			return nil, nil, ErrInvalidTransition
		}
	}

	from := o.Status
	now := time.Now()

	var res sql.Result
	if to == StatusFulfilled {
		res, err = tx.ExecContext(ctx, `
			UPDATE orders SET status = $3, fulfilled_at = $4
			WHERE id = $1 AND status = $2
		`, id, from, to, now)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE orders SET status = $3
			WHERE id = $1 AND status = $2
		`, id, from, to)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The status changed underneath the guard.
		return nil, nil, ErrInvalidTransition
	}

	items, err := r.loadItemsTx(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	o.Items = items

	var deltas []inventory.StockDelta
	if to == StatusCancelled {
		lines := make([]inventory.Line, 0, len(items))
		for _, it := range items {
			lines = append(lines, inventory.Line{ItemID: it.FoodItemID, Quantity: it.Quantity})
		}
		deltas, err = inventory.ReleaseTx(ctx, tx, lines)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	o.Status = to
	if to == StatusFulfilled {
		o.FulfilledAt = &now
	}
	return o, deltas, nil
}

func (r *repository) scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var fulfilledAt sql.NullTime
	err := row.Scan(
		&o.ID, &o.UserID, &o.UserName, &o.UserEmail, &o.TotalAmount,
		&o.Status, &o.QRCode, &o.CreatedAt, &fulfilledAt,
	)
	if err != nil {
		return nil, err
	}
	if fulfilledAt.Valid {
		o.FulfilledAt = &fulfilledAt.Time
	}
	return &o, nil
}

func (r *repository) loadItems(ctx context.Context, orderIDs []string) (map[string][]Line, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, food_item_id, food_item_name, quantity, price, total_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]Line)
	for rows.Next() {
		var orderID string
		var line Line
		if err := rows.Scan(&orderID, &line.FoodItemID, &line.FoodItemName,
			&line.Quantity, &line.Price, &line.TotalPrice); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], line)
	}
	return items, rows.Err()
}

func (r *repository) loadItemsTx(ctx context.Context, tx *sql.Tx, orderID string) ([]Line, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT food_item_id, food_item_name, quantity, price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.FoodItemID, &line.FoodItemName,
			&line.Quantity, &line.Price, &line.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, line)
	}
	return items, rows.Err()
}
