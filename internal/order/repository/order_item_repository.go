package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"seedorders/internal/domain"
)

type MySQLOrderItemRepository struct {
	db *sql.DB
}

func NewMySQLOrderItemRepository(db *sql.DB) *MySQLOrderItemRepository {
	return &MySQLOrderItemRepository{db: db}
}

// InsertBatch writes all items in a single statement, so either every item
// of the batch lands or none does. IDs and timestamps are filled in place.
func (r *MySQLOrderItemRepository) InsertBatch(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	rows := make([]string, len(items))
	args := make([]any, 0, len(items)*6)
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].CreatedAt = now
		rows[i] = "(?, ?, ?, ?, ?, ?)"
		args = append(args, items[i].ID, items[i].OrderID, items[i].Variety, items[i].SeedTreatment, items[i].Quantity, items[i].CreatedAt)
	}

	query := `INSERT INTO order_items (id, order_id, variety, seed_treatment, quantity, created_at) VALUES ` +
		strings.Join(rows, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting order items: %w", err)
	}

	return nil
}
