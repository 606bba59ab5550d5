package repos

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// OpenDB opens the sqlite store, applies the pragmas the reservation protocol
// relies on and makes sure schema and demo data exist.
//
// The pool is capped at a single connection on purpose: every reservation
// decision (availability read + insert, or load + decrement + status write)
// runs in one transaction on that connection, so concurrent decisions
// serialize at the store. Correctness does not depend on any in-process lock.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog data if DB is empty (products/variants)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Products (each row owns the base stock pool)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  active INTEGER NOT NULL DEFAULT 1,
  stock_qty INTEGER NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_title ON products(LOWER(title));

-- Variants (independent stock pools per product)
CREATE TABLE IF NOT EXISTS product_variants(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_variants_product ON product_variants(product_id);

-- Reservations. Holder columns use '' for "not set"; exactly one is set.
-- variant_id '' means the hold draws from the product's base pool.
-- Timestamps are RFC3339 UTC written by the application, so lexicographic
-- comparison equals chronological comparison.
CREATE TABLE IF NOT EXISTS reservations(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  variant_id TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  user_id TEXT NOT NULL DEFAULT '',
  session_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','committed','released','expired')),
  order_id TEXT NOT NULL DEFAULT '',
  expires_at TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  CHECK ((user_id = '') <> (session_id = '')),
  CHECK (status <> 'committed' OR order_id <> '')
);
CREATE INDEX IF NOT EXISTS idx_reservations_pool   ON reservations(product_id, variant_id, status, expires_at);
CREATE INDEX IF NOT EXISTS idx_reservations_expiry ON reservations(status, expires_at);
CREATE INDEX IF NOT EXISTS idx_reservations_holder ON reservations(user_id, session_id);

-- Orders. reservation_id is an audit link by value, not a foreign key, so the
-- retention purge never has to touch order rows.
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  reservation_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  user_id TEXT NOT NULL DEFAULT '',
  session_id TEXT NOT NULL DEFAULT '',
  customer_name TEXT NOT NULL DEFAULT '',
  customer_email TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'PLACED',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_reservation ON orders(reservation_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products/variants")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,title,description,price,stock_qty) VALUES
	  ('tee-classic','Classic Cotton Tee','Heavyweight unisex tee',24.00,0),
	  ('mug-enamel','Enamel Camp Mug','12oz speckled enamel mug',18.50,24),
	  ('tote-canvas','Canvas Tote','Natural canvas tote, reinforced straps',32.00,0),
	  ('desk-walnut','Walnut Desk Organizer','Solid walnut, oil finish',89.00,6)`)

	tx.MustExec(`INSERT INTO product_variants(id,product_id,name,stock_qty) VALUES
	  ('tee-classic-s','tee-classic','Small',10),
	  ('tee-classic-m','tee-classic','Medium',15),
	  ('tee-classic-l','tee-classic','Large',12),
	  ('tote-canvas-nat','tote-canvas','Natural',9),
	  ('tote-canvas-blk','tote-canvas','Black',7)`)

	return tx.Commit()
}
