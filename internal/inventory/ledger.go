// Package inventory holds the authoritative remaining-stock counts and
// performs atomic multi-item adjustments against the food_items table.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Line is one (item, quantity) pair of a reservation or release batch.
type Line struct {
	ItemID   string
	Quantity int
}

// Reserved is the per-item outcome of a successful reservation. Name and
// Price are read under the same row lock as the decrement so order lines
// can snapshot them without a second lookup.
type Reserved struct {
	ItemID    string
	Name      string
	Price     int
	Quantity  int
	Remaining int
	UpdatedAt time.Time
}

// StockDelta is the observable side effect of a stock mutation, consumed
// by the realtime fan-out.
type StockDelta struct {
	ItemID    string
	Remaining int
}

// Ledger applies reservations and releases in self-contained transactions.
// Callers that need to compose stock mutations with other writes (order
// creation, cancellation) use ReserveTx/ReleaseTx on their own *sql.Tx.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Reserve atomically decrements remaining stock for every line or for
// none. Returns one delta per affected item on success.
func (l *Ledger) Reserve(ctx context.Context, lines []Line) ([]StockDelta, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	reserved, err := ReserveTx(ctx, tx, lines)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return Deltas(reserved), nil
}

// Release atomically restores remaining stock for every line, clamped so
// that remaining never exceeds the item's total count.
func (l *Ledger) Release(ctx context.Context, lines []Line) ([]StockDelta, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	deltas, err := ReleaseTx(ctx, tx, lines)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return deltas, nil
}

// ReserveTx locks every referenced item row (in id order, so concurrent
// batches over overlapping items cannot deadlock), verifies the whole
// batch before writing anything, then decrements each line. Any unknown
// id or shortage leaves every count untouched: the caller must roll the
// transaction back on error.
func ReserveTx(ctx context.Context, tx *sql.Tx, lines []Line) ([]Reserved, error) {
	lines = normalize(lines)

	type locked struct {
		name      string
		price     int
		remaining int
		total     int
	}
	items := make(map[string]locked, len(lines))

	var missing []string
	var short []string

	for _, ln := range lines {
		var it locked
		err := tx.QueryRowContext(ctx, `
			SELECT name, price, remaining_count, total_count
			FROM food_items
			WHERE id = $1
			FOR UPDATE
		`, ln.ItemID).Scan(&it.name, &it.price, &it.remaining, &it.total)
		if err == sql.ErrNoRows {
			missing = append(missing, ln.ItemID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lock food item %s: %w", ln.ItemID, err)
		}

		if it.remaining < ln.Quantity {
			short = append(short, it.name)
		}
		items[ln.ItemID] = it
	}

	if len(missing) > 0 {
		return nil, &ItemsNotFoundError{IDs: missing}
	}
	if len(short) > 0 {
		return nil, &InsufficientStockError{Items: short}
	}

	now := time.Now()
	reserved := make([]Reserved, 0, len(lines))

	for _, ln := range lines {
		it := items[ln.ItemID]
		newRemaining := it.remaining - ln.Quantity

		if _, err := tx.ExecContext(ctx, `
			UPDATE food_items
			SET remaining_count = $2, is_available = $3, updated_at = $4
			WHERE id = $1
		`, ln.ItemID, newRemaining, newRemaining > 0, now); err != nil {
			return nil, fmt.Errorf("reserve food item %s: %w", ln.ItemID, err)
		}

		reserved = append(reserved, Reserved{
			ItemID:    ln.ItemID,
			Name:      it.name,
			Price:     it.price,
			Quantity:  ln.Quantity,
			Remaining: newRemaining,
			UpdatedAt: now,
		})
	}

	return reserved, nil
}

// ReleaseTx restores remaining stock for every line, clamped to the
// item's total count. Items that no longer exist are skipped: a release
// compensates a past reservation and must not fail the surrounding
// cancellation.
func ReleaseTx(ctx context.Context, tx *sql.Tx, lines []Line) ([]StockDelta, error) {
	lines = normalize(lines)

	now := time.Now()
	deltas := make([]StockDelta, 0, len(lines))

	for _, ln := range lines {
		var remaining, total int
		err := tx.QueryRowContext(ctx, `
			SELECT remaining_count, total_count
			FROM food_items
			WHERE id = $1
			FOR UPDATE
		`, ln.ItemID).Scan(&remaining, &total)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lock food item %s: %w", ln.ItemID, err)
		}

		newRemaining := remaining + ln.Quantity
		if newRemaining > total {
			newRemaining = total
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE food_items
			SET remaining_count = $2, is_available = $3, updated_at = $4
			WHERE id = $1
		`, ln.ItemID, newRemaining, newRemaining > 0, now); err != nil {
			return nil, fmt.Errorf("release food item %s: %w", ln.ItemID, err)
		}

		deltas = append(deltas, StockDelta{ItemID: ln.ItemID, Remaining: newRemaining})
	}

	return deltas, nil
}

// Deltas projects reservation outcomes onto stock-delta events.
func Deltas(reserved []Reserved) []StockDelta {
	out := make([]StockDelta, 0, len(reserved))
	for _, r := range reserved {
		out = append(out, StockDelta{ItemID: r.ItemID, Remaining: r.Remaining})
	}
	return out
}

// normalize merges duplicate item ids and orders the batch by id so that
// every transaction acquires row locks in the same order.
func normalize(lines []Line) []Line {
	merged := make(map[string]int, len(lines))
	for _, ln := range lines {
		merged[ln.ItemID] += ln.Quantity
	}

	out := make([]Line, 0, len(merged))
	for id, qty := range merged {
		out = append(out, Line{ItemID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}
