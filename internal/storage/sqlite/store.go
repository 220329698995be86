// Package sqlite provides the durable implementation of the shopkit
// persistence ports on a single SQLite database.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa. The stock decrement is a conditional UPDATE guarded by the current
// level, so it is atomic with respect to concurrent confirms and can never
// drive stock negative.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	cartdomain "github.com/jcmexdev/shopkit/internal/cart/domain"
	catalogdomain "github.com/jcmexdev/shopkit/internal/catalog/domain"
	orderdomain "github.com/jcmexdev/shopkit/internal/order/domain"
	"github.com/jcmexdev/shopkit/internal/pkg/money"
	stockdomain "github.com/jcmexdev/shopkit/internal/stock/domain"

	// Register the pure-Go SQLite driver.
	// We use modernc.org/sqlite instead of mattn/go-sqlite3 to avoid CGO
	// requirements, making it easier to build and run in Docker (Alpine).
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. Prices are stored as TEXT in
// canonical decimal form; SQLite REAL would reintroduce floating point.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    sku         TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    unit_price  TEXT NOT NULL,
    active      INTEGER NOT NULL DEFAULT 1,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS product_variations (
    id          TEXT PRIMARY KEY,
    product_id  TEXT NOT NULL REFERENCES products(id),
    label       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stocked_items (
    id      TEXT PRIMARY KEY,
    label   TEXT NOT NULL DEFAULT '',
    -- Stock level. The CHECK mirrors the domain invariant: never negative.
    level   INTEGER NOT NULL CHECK (level >= 0)
);

CREATE TABLE IF NOT EXISTS carts (
    id          TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL UNIQUE,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items (
    id            TEXT PRIMARY KEY,
    cart_id       TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
    product_id    TEXT NOT NULL,
    variation_id  TEXT NOT NULL DEFAULT '',
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    added_at      TEXT NOT NULL,
    UNIQUE (cart_id, product_id, variation_id)
);

CREATE TABLE IF NOT EXISTS orders (
    id          TEXT PRIMARY KEY,
    cart_id     TEXT NOT NULL,
    status      TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    id            TEXT PRIMARY KEY,
    order_id      TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id    TEXT NOT NULL,
    variation_id  TEXT NOT NULL DEFAULT '',
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    unit_price    TEXT NOT NULL,
    status        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cart_items_cart_id ON cart_items(cart_id);
CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
`

// Store implements the catalog, stock, cart, and order repository ports on
// one SQLite database, plus the default stock resolver.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
//
//	store, err := sqlite.Open("./data/shop.db")
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3" for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error { return s.db.Close() }

// --- catalog ---

func (s *Store) GetProduct(ctx context.Context, id string) (*catalogdomain.Product, error) {
	const q = `SELECT id, sku, name, unit_price, active, created_at FROM products WHERE id = ?`
	return scanProduct(s.db.QueryRowContext(ctx, q, id))
}

func (s *Store) ListProducts(ctx context.Context) ([]*catalogdomain.Product, error) {
	const q = `SELECT id, sku, name, unit_price, active, created_at FROM products ORDER BY sku`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list products: %w", err)
	}
	defer rows.Close()

	var out []*catalogdomain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SaveProduct(ctx context.Context, p *catalogdomain.Product) error {
	const q = `
		INSERT INTO products (id, sku, name, unit_price, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			sku = excluded.sku, name = excluded.name,
			unit_price = excluded.unit_price, active = excluded.active`

	_, err := s.db.ExecContext(ctx, q,
		p.ID, p.SKU, p.Name, p.UnitPrice.String(), boolToInt(p.Active), formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: save product %q: %w", p.ID, err)
	}
	return nil
}

func (s *Store) GetVariation(ctx context.Context, id string) (*catalogdomain.ProductVariation, error) {
	const q = `SELECT id, product_id, label FROM product_variations WHERE id = ?`
	var v catalogdomain.ProductVariation
	err := s.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.ProductID, &v.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalogdomain.ErrVariationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get variation %q: %w", id, err)
	}
	return &v, nil
}

func (s *Store) SaveVariation(ctx context.Context, v *catalogdomain.ProductVariation) error {
	const q = `
		INSERT INTO product_variations (id, product_id, label)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET product_id = excluded.product_id, label = excluded.label`
	if _, err := s.db.ExecContext(ctx, q, v.ID, v.ProductID, v.Label); err != nil {
		return fmt.Errorf("sqlite: save variation %q: %w", v.ID, err)
	}
	return nil
}

// --- stock ---

func (s *Store) Get(ctx context.Context, id string) (*stockdomain.StockedItem, error) {
	return s.getStocked(ctx, id)
}

func (s *Store) Save(ctx context.Context, item *stockdomain.StockedItem) error {
	const q = `
		INSERT INTO stocked_items (id, label, level)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET label = excluded.label, level = excluded.level`
	if _, err := s.db.ExecContext(ctx, q, item.ID, item.Label, item.Level); err != nil {
		return fmt.Errorf("sqlite: save stocked item %q: %w", item.ID, err)
	}
	return nil
}

// Decrement atomically lowers the stock level. The WHERE guard makes the
// check and the write one statement — concurrent confirms serialize on the
// row and the level can never go below zero.
func (s *Store) Decrement(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return stockdomain.ErrInvalidQuantity
	}

	const q = `UPDATE stocked_items SET level = level - ? WHERE id = ? AND level >= ?`
	res, err := s.db.ExecContext(ctx, q, quantity, id, quantity)
	if err != nil {
		return fmt.Errorf("sqlite: decrement stock %q: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: decrement stock %q: %w", id, err)
	}
	if affected == 0 {
		// Either the row is missing or the guard rejected the decrement.
		item, getErr := s.getStocked(ctx, id)
		if getErr != nil {
			return getErr
		}
		return &stockdomain.UnavailableError{
			ItemID:    item.ID,
			Label:     item.Label,
			Requested: quantity,
			Available: item.Level,
		}
	}
	return nil
}

func (s *Store) Increment(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return stockdomain.ErrInvalidQuantity
	}
	const q = `UPDATE stocked_items SET level = level + ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, quantity, id)
	if err != nil {
		return fmt.Errorf("sqlite: increment stock %q: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return stockdomain.ErrNotFound
	}
	return nil
}

// ResolveStockedItem prefers a stock record kept for the variation and falls
// back to the product's own record.
func (s *Store) ResolveStockedItem(ctx context.Context, productID, variationID string) (*stockdomain.StockedItem, error) {
	if variationID != "" {
		if item, err := s.getStocked(ctx, variationID); err == nil {
			return item, nil
		} else if !errors.Is(err, stockdomain.ErrNotFound) {
			return nil, err
		}
	}
	return s.getStocked(ctx, productID)
}

func (s *Store) getStocked(ctx context.Context, id string) (*stockdomain.StockedItem, error) {
	const q = `SELECT id, label, level FROM stocked_items WHERE id = ?`
	var item stockdomain.StockedItem
	err := s.db.QueryRowContext(ctx, q, id).Scan(&item.ID, &item.Label, &item.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stockdomain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get stocked item %q: %w", id, err)
	}
	return &item, nil
}

// --- cart ---

func (s *Store) GetBySession(ctx context.Context, sessionID string) (*cartdomain.Cart, error) {
	const q = `SELECT id, session_id, created_at, updated_at FROM carts WHERE session_id = ?`
	var cart cartdomain.Cart
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, q, sessionID).Scan(&cart.ID, &cart.SessionID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cartdomain.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get cart for session %q: %w", sessionID, err)
	}
	if cart.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if cart.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Store) SaveCart(ctx context.Context, cart *cartdomain.Cart) error {
	const q = `
		INSERT INTO carts (id, session_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, q,
		cart.ID, cart.SessionID, formatTime(cart.CreatedAt), formatTime(cart.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: save cart %q: %w", cart.ID, err)
	}
	return nil
}

func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	// ON DELETE CASCADE removes the items; foreign_keys is on in the DSN.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, cartID); err != nil {
		return fmt.Errorf("sqlite: delete cart %q: %w", cartID, err)
	}
	return nil
}

func (s *Store) FindOrCreateItem(ctx context.Context, cartID, productID, variationID string) (*cartdomain.CartItem, error) {
	const q = `
		SELECT id, cart_id, product_id, variation_id, quantity, added_at
		FROM cart_items
		WHERE cart_id = ? AND product_id = ? AND variation_id = ?`

	var item cartdomain.CartItem
	var addedAt string
	err := s.db.QueryRowContext(ctx, q, cartID, productID, variationID).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.VariationID, &item.Quantity, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Fresh zero-quantity instance; persisted only when SaveItem is called.
		return &cartdomain.CartItem{
			ID:          uuid.NewString(),
			CartID:      cartID,
			ProductID:   productID,
			VariationID: variationID,
			Quantity:    0,
			AddedAt:     time.Now().UTC(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find cart item: %w", err)
	}
	if item.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveItem(ctx context.Context, item *cartdomain.CartItem) error {
	const q = `
		INSERT INTO cart_items (id, cart_id, product_id, variation_id, quantity, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET quantity = excluded.quantity`
	_, err := s.db.ExecContext(ctx, q,
		item.ID, item.CartID, item.ProductID, item.VariationID, item.Quantity, formatTime(item.AddedAt))
	if err != nil {
		return fmt.Errorf("sqlite: save cart item %q: %w", item.ID, err)
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("sqlite: delete cart item %q: %w", itemID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return cartdomain.ErrItemNotFound
	}
	return nil
}

func (s *Store) ListItems(ctx context.Context, cartID string) ([]*cartdomain.CartItem, error) {
	const q = `
		SELECT id, cart_id, product_id, variation_id, quantity, added_at
		FROM cart_items WHERE cart_id = ? ORDER BY added_at, id`

	rows, err := s.db.QueryContext(ctx, q, cartID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list cart items: %w", err)
	}
	defer rows.Close()

	var out []*cartdomain.CartItem
	for rows.Next() {
		var item cartdomain.CartItem
		var addedAt string
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.VariationID, &item.Quantity, &addedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan cart item: %w", err)
		}
		if item.AddedAt, err = parseTime(addedAt); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

// --- orders ---

// SaveOrder writes the header and all items in one transaction.
func (s *Store) SaveOrder(ctx context.Context, order *orderdomain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin save order: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const qOrder = `
		INSERT INTO orders (id, cart_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`
	_, err = tx.ExecContext(ctx, qOrder,
		order.ID, order.CartID, string(order.Status), formatTime(order.CreatedAt), formatTime(order.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: save order %q: %w", order.ID, err)
	}

	const qItem = `
		INSERT INTO order_items (id, order_id, product_id, variation_id, quantity, unit_price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET quantity = excluded.quantity, status = excluded.status`
	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, qItem,
			item.ID, item.OrderID, item.ProductID, item.VariationID,
			item.Quantity, item.UnitPrice.String(), string(item.Status))
		if err != nil {
			return fmt.Errorf("sqlite: save order item %q: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetOrder(ctx context.Context, id string) (*orderdomain.Order, error) {
	const qOrder = `SELECT id, cart_id, status, created_at, updated_at FROM orders WHERE id = ?`

	var order orderdomain.Order
	var status, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, qOrder, id).Scan(&order.ID, &order.CartID, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %q: %w", id, err)
	}
	order.Status = orderdomain.Status(status)
	if order.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if order.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	const qItems = `
		SELECT id, order_id, product_id, variation_id, quantity, unit_price, status
		FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, qItems, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item orderdomain.Item
		var price, itemStatus string
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariationID,
			&item.Quantity, &price, &itemStatus); err != nil {
			return nil, fmt.Errorf("sqlite: scan order item: %w", err)
		}
		if item.UnitPrice, err = money.NewFromString(price); err != nil {
			return nil, err
		}
		item.Status = orderdomain.ItemStatus(itemStatus)
		order.Items = append(order.Items, &item)
	}
	return &order, rows.Err()
}

func (s *Store) SaveOrderItem(ctx context.Context, item *orderdomain.Item) error {
	const q = `
		INSERT INTO order_items (id, order_id, product_id, variation_id, quantity, unit_price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET quantity = excluded.quantity, status = excluded.status`
	_, err := s.db.ExecContext(ctx, q,
		item.ID, item.OrderID, item.ProductID, item.VariationID,
		item.Quantity, item.UnitPrice.String(), string(item.Status))
	if err != nil {
		return fmt.Errorf("sqlite: save order item %q: %w", item.ID, err)
	}
	return nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*catalogdomain.Product, error) {
	var p catalogdomain.Product
	var price, createdAt string
	var active int
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &price, &active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalogdomain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan product: %w", err)
	}
	if p.UnitPrice, err = money.NewFromString(price); err != nil {
		return nil, err
	}
	p.Active = active != 0
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999999Z")
}

// parseTime parses the timestamp strings stored in SQLite.
// SQLite has no native datetime type; we store RFC3339 TEXT.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
