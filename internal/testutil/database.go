package testutil

import (
	"database/sql"
	"fmt"
	"sync"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"seedorders/internal/domain"
)

// SetupTestDB opens the integration database. It expects a MySQL server on
// localhost:3306 with a database named 'seedorders_test' and skips the test
// otherwise.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/seedorders_test?parseTime=true&clientFoundRows=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.Ping()
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties every table and closes the connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"order_items", "orders", "push_tokens"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the schema used by the repositories.
func SetupTestTables(t *testing.T, db *sql.DB) {
	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		operation VARCHAR(255) NOT NULL,
		account_description VARCHAR(255) NOT NULL,
		seed_type VARCHAR(100) NOT NULL,
		variety VARCHAR(255) NOT NULL DEFAULT '',
		seed_treatment VARCHAR(255) NULL,
		notes TEXT NOT NULL,
		status ENUM('pending', 'in_progress', 'completed') NOT NULL DEFAULT 'pending',
		created_by CHAR(36) NOT NULL DEFAULT '',
		viewed_by CHAR(36) NULL,
		view_notified TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3)
	)`

	createOrderItemsTable := `
	CREATE TABLE IF NOT EXISTS order_items (
		id CHAR(36) NOT NULL PRIMARY KEY,
		order_id CHAR(36) NOT NULL,
		variety VARCHAR(255) NOT NULL,
		seed_treatment VARCHAR(255) NULL,
		quantity INT NOT NULL DEFAULT 1,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		INDEX idx_order (order_id)
	)`

	createPushTokensTable := `
	CREATE TABLE IF NOT EXISTS push_tokens (
		token VARCHAR(255) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		device_info VARCHAR(255) NOT NULL DEFAULT '',
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		INDEX idx_user (user_id)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"orders", createOrdersTable},
		{"order_items", createOrderItemsTable},
		{"push_tokens", createPushTokensTable},
	}

	for _, tbl := range tables {
		_, err := db.Exec(tbl.query)
		if err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}

// RecordingPublisher collects published change events.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (p *RecordingPublisher) Publish(ev domain.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *RecordingPublisher) Events() []domain.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ChangeEvent(nil), p.events...)
}
