package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"seedorders/internal/domain"
	"seedorders/internal/errors"
)

const ordersTable = "orders"

// EventPublisher receives a change event for every row this repository
// writes. It stands in for the database's own change stream.
type EventPublisher interface {
	Publish(ev domain.ChangeEvent)
}

type MySQLOrderRepository struct {
	db        *sql.DB
	publisher EventPublisher
}

func NewMySQLOrderRepository(db *sql.DB, publisher EventPublisher) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db, publisher: publisher}
}

const orderColumns = `
	id, operation, account_description, seed_type, variety, seed_treatment,
	notes, status, created_by, viewed_by, view_notified, created_at, updated_at`

func scanOrder(scanner interface{ Scan(dest ...any) error }) (domain.Order, error) {
	var o domain.Order
	err := scanner.Scan(
		&o.ID, &o.Operation, &o.AccountDescription, &o.SeedType, &o.Variety, &o.SeedTreatment,
		&o.Notes, &o.Status, &o.CreatedBy, &o.ViewedBy, &o.ViewNotified, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// Insert persists the top-level order row. ID and timestamps are assigned
// here when empty; items are written separately. Nothing is published
// until PublishCreated, so subscribers never see a row without its items.
func (r *MySQLOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	order.CreatedAt = now
	order.UpdatedAt = now

	query := `
		INSERT INTO orders (id, operation, account_description, seed_type, variety, seed_treatment,
		                    notes, status, created_by, viewed_by, view_notified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.Operation, order.AccountDescription, order.SeedType, order.Variety, order.SeedTreatment,
		order.Notes, order.Status, order.CreatedBy, order.ViewedBy, order.ViewNotified, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

// PublishCreated announces an inserted order once its items are written.
func (r *MySQLOrderRepository) PublishCreated(order domain.Order) {
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	r.publish(domain.ChangeEvent{Type: domain.ChangeInsert, New: &order})
}

// FindByID loads an order together with its items.
func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	items, err := r.itemsByOrderIDs(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return &order, nil
}

// List returns orders newest first with their items. A nil status returns
// every order.
func (r *MySQLOrderRepository) List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryWithItems(ctx, query, args...)
}

// FindStaleUnviewed returns pending orders nobody opened and nobody was
// reminded about, created before the given instant.
func (r *MySQLOrderRepository) FindStaleUnviewed(ctx context.Context, createdBefore time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = ?
		  AND viewed_by IS NULL
		  AND view_notified = 0
		  AND created_at < ?
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, domain.OrderStatusPending, createdBefore.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying stale orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = ? WHERE id = ?`

	if err := r.execSingle(ctx, "updating order status", query, status, id); err != nil {
		return err
	}

	r.publishUpdate(id)
	return nil
}

// MarkViewed records who opened the order and flags that its creator has
// been told. Only the first caller wins; later ones get a ConflictError so
// the creator is notified at most once.
func (r *MySQLOrderRepository) MarkViewed(ctx context.Context, id string, viewerID string) error {
	query := `UPDATE orders SET viewed_by = ?, view_notified = 1 WHERE id = ? AND view_notified = 0`

	result, err := r.db.ExecContext(ctx, query, viewerID, id)
	if err != nil {
		return fmt.Errorf("marking order viewed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var notified bool
		err := r.db.QueryRowContext(ctx, `SELECT view_notified FROM orders WHERE id = ?`, id).Scan(&notified)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
		}
		if err != nil {
			return fmt.Errorf("checking order view state: %w", err)
		}
		return errors.NewConflictError(fmt.Sprintf("order %s creator already notified", id))
	}

	r.publishUpdate(id)
	return nil
}

func (r *MySQLOrderRepository) MarkNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`UPDATE orders SET view_notified = 1 WHERE id IN (%s)`, placeholders)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("marking orders notified: %w", err)
	}

	for _, id := range ids {
		r.publishUpdate(id)
	}
	return nil
}

func (r *MySQLOrderRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM orders WHERE id = ?`

	if err := r.execSingle(ctx, "deleting order", query, id); err != nil {
		return err
	}

	r.publishDelete(id)
	return nil
}

// DeleteMany removes every listed order in one statement. Items go with
// their order through the foreign key cascade.
func (r *MySQLOrderRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`DELETE FROM orders WHERE id IN (%s)`, placeholders)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting orders: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	for _, id := range ids {
		r.publishDelete(id)
	}
	return deleted, nil
}

func (r *MySQLOrderRepository) execSingle(ctx context.Context, op string, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %v not found", args[len(args)-1]))
	}

	return nil
}

func (r *MySQLOrderRepository) queryWithItems(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	items, err := r.itemsByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *MySQLOrderRepository) itemsByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	placeholders, args := inClause(orderIDs)
	query := fmt.Sprintf(`
		SELECT id, order_id, variety, seed_treatment, quantity, created_at
		FROM order_items
		WHERE order_id IN (%s)
		ORDER BY created_at ASC, id ASC`,
		placeholders,
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Variety, &item.SeedTreatment, &item.Quantity, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order item row: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order item rows: %w", err)
	}

	return items, nil
}

func collectOrders(rows *sql.Rows) ([]domain.Order, error) {
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, nil
}

func inClause(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

func (r *MySQLOrderRepository) publishUpdate(id string) {
	r.publish(domain.ChangeEvent{Type: domain.ChangeUpdate, New: &domain.Order{ID: id}})
}

func (r *MySQLOrderRepository) publishDelete(id string) {
	r.publish(domain.ChangeEvent{Type: domain.ChangeDelete, Old: &domain.Order{ID: id}})
}

func (r *MySQLOrderRepository) publish(ev domain.ChangeEvent) {
	if r.publisher == nil {
		return
	}
	ev.Table = ordersTable
	r.publisher.Publish(ev)
}
