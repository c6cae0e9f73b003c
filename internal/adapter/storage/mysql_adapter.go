package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

const mysqlDuplicateEntry = 1062

// Barcodes compare byte for byte: lookups by update and delete are exact.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id           CHAR(36)      NOT NULL PRIMARY KEY,
		barcode      VARCHAR(128)  CHARACTER SET utf8mb4 COLLATE utf8mb4_0900_bin NOT NULL,
		name         VARCHAR(255)  NOT NULL DEFAULT '',
		category     VARCHAR(128)  NULL,
		supplier     VARCHAR(128)  NULL,
		quantity     INT           NOT NULL DEFAULT 0,
		price        DECIMAL(12,2) NULL,
		cost_price   DECIMAL(12,2) NULL,
		weekly_usage DOUBLE        NULL,
		version      INT           NOT NULL DEFAULT 0,
		created_at   DATETIME(6)   NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at   DATETIME(6)   NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_inventory_items_barcode (barcode),
		KEY idx_inventory_items_quantity (quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_logs (
		id         BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		action     VARCHAR(32)  NOT NULL,
		item_name  VARCHAR(255) NOT NULL,
		created_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_inventory_logs_created (created_at)
	)`,
}

const itemColumns = `id, barcode, name, category, supplier, quantity, price, cost_price,
	weekly_usage, version, created_at, updated_at`

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the tables when they do not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) Close() error {
	return m.db.Close()
}

func (m *MySQLAdapter) FindByBarcode(ctx context.Context, barcode string) (*domain.Item, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE barcode = ?`, barcode)
	return m.scanOne(row)
}

func (m *MySQLAdapter) InsertItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	id := uuid.NewString()

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, barcode, name, category, supplier, quantity, price, cost_price, weekly_usage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, item.Barcode, item.Name, nullString(item.Category), nullString(item.Supplier),
		item.Quantity, item.Price, item.CostPrice, nullFloat(item.WeeklyUsage),
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return nil, port.ErrDuplicateBarcode
		}
		return nil, fmt.Errorf("insert item: %w", err)
	}

	return m.mustGet(ctx, id)
}

func (m *MySQLAdapter) AddQuantity(ctx context.Context, id string, delta, version int) (*domain.Item, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + ?, version = version + 1, updated_at = CURRENT_TIMESTAMP(6)
		WHERE id = ? AND version = ?`,
		delta, id, version,
	)
	if err != nil {
		return nil, fmt.Errorf("add quantity: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := m.mustGet(ctx, id); err != nil {
			return nil, err
		}
		return nil, port.ErrOptimisticLock
	}

	return m.mustGet(ctx, id)
}

func (m *MySQLAdapter) UpdateItem(ctx context.Context, id string, patch domain.ItemPatch) error {
	sets, args := patchAssignments(patch)
	sets = append(sets, "version = version + 1", "updated_at = CURRENT_TIMESTAMP(6)")
	args = append(args, id)

	result, err := m.db.ExecContext(ctx,
		`UPDATE inventory_items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (m *MySQLAdapter) DeleteItem(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (m *MySQLAdapter) ListItems(ctx context.Context) ([]domain.Item, error) {
	return m.queryItems(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY name, barcode`)
}

func (m *MySQLAdapter) ListItemsAtOrBelow(ctx context.Context, threshold int) ([]domain.Item, error) {
	return m.queryItems(ctx, `SELECT `+itemColumns+` FROM inventory_items
		WHERE quantity <= ? ORDER BY quantity, name`, threshold)
}

func (m *MySQLAdapter) AppendLog(ctx context.Context, action domain.LogAction, itemName string) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO inventory_logs (action, item_name) VALUES (?, ?)`, string(action), itemName)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, action, item_name, created_at
		FROM inventory_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	entries := []domain.LogEntry{}
	for rows.Next() {
		var (
			e      domain.LogEntry
			id     int64
			action string
		)
		if err := rows.Scan(&id, &action, &e.ItemName, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		e.Action = domain.LogAction(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (m *MySQLAdapter) mustGet(ctx context.Context, id string) (*domain.Item, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = ?`, id)
	item, err := m.scanOne(row)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, port.ErrNotFound
	}
	return item, nil
}

func (m *MySQLAdapter) scanOne(row *sql.Row) (*domain.Item, error) {
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) queryItems(ctx context.Context, query string, args ...any) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var (
		item               domain.Item
		category, supplier sql.NullString
		usage              sql.NullFloat64
	)
	err := row.Scan(
		&item.ID, &item.Barcode, &item.Name, &category, &supplier, &item.Quantity,
		&item.Price, &item.CostPrice, &usage, &item.Version, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return domain.Item{}, err
	}

	item.Category = category.String
	item.Supplier = supplier.String
	item.WeeklyUsage = usage.Float64
	return item, nil
}

func patchAssignments(patch domain.ItemPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *patch.Name)
	}
	if patch.Category != nil {
		sets, args = append(sets, "category = ?"), append(args, nullString(*patch.Category))
	}
	if patch.Supplier != nil {
		sets, args = append(sets, "supplier = ?"), append(args, nullString(*patch.Supplier))
	}
	if patch.Quantity != nil {
		sets, args = append(sets, "quantity = ?"), append(args, *patch.Quantity)
	}
	if patch.Price != nil {
		sets, args = append(sets, "price = ?"), append(args, *patch.Price)
	}
	if patch.CostPrice != nil {
		sets, args = append(sets, "cost_price = ?"), append(args, *patch.CostPrice)
	}
	if patch.WeeklyUsage != nil {
		sets, args = append(sets, "weekly_usage = ?"), append(args, nullFloat(*patch.WeeklyUsage))
	}
	return sets, args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f > 0}
}
