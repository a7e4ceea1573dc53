package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer; also keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed the catalog if empty (idempotent; safe to run every start)
	if err := seedCatalog(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Catalog
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT,
  price_usd NUMERIC NOT NULL CHECK (price_usd >= 0),
  image TEXT,
  badge TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

-- Carts: one per session; lines carry the product snapshot
CREATE TABLE IF NOT EXISTS carts(
  session_id TEXT PRIMARY KEY,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS cart_lines(
  line_id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES carts(session_id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  price_usd NUMERIC NOT NULL,
  image TEXT NOT NULL DEFAULT '',
  qty INTEGER NOT NULL CHECK (qty >= 1),
  engraving_left TEXT NOT NULL DEFAULT '',
  engraving_right TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cart_lines_session ON cart_lines(session_id, position);

-- Display currency per session
CREATE TABLE IF NOT EXISTS currency_selections(
  session_id TEXT PRIMARY KEY,
  currency TEXT NOT NULL,
  rates_json TEXT NOT NULL,
  exchange_rate NUMERIC NOT NULL,
  updated_at TEXT NOT NULL
);

-- Orders (always USD)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  session_id TEXT,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  customer_name TEXT,
  customer_email TEXT,
  provider TEXT NOT NULL,
  display_currency TEXT NOT NULL DEFAULT 'USD',
  total_usd NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'PLACED',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

CREATE TABLE IF NOT EXISTS order_items(
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  line_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  price_usd NUMERIC NOT NULL,
  qty INTEGER NOT NULL,
  engraving_left TEXT NOT NULL DEFAULT '',
  engraving_right TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (order_id, line_id)
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedCatalog(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('necklaces','Necklaces'),
	  ('keychains','Keychains'),
	  ('bracelets','Bracelets')`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,price_usd,image,badge) VALUES
	  ('twin-hearts-necklace','necklaces','Twin Hearts Necklace','Two interlocking hearts, engravable on both sides',19.99,'products/twin-hearts-necklace.jpg','BESTSELLER'),
	  ('rose-locket','necklaces','Rose Gold Locket','Heart locket with room for two photos',34.50,'products/rose-locket.jpg',''),
	  ('heart-keychain','keychains','Split Heart Keychain','A pair of keychains whose halves form one heart',14.00,'products/heart-keychain.jpg','NEW'),
	  ('charm-bracelet','bracelets','Heart Charm Bracelet','Adjustable bracelet with an engravable heart charm',24.95,'products/charm-bracelet.jpg','')`)

	return tx.Commit()
}

// SeedAdmin ensures an ADMIN user exists for the given credentials (idempotent).
func SeedAdmin(db *sqlx.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,name,password_hash,role)
		VALUES(?,?,?,?,'ADMIN')
		ON CONFLICT(email) DO NOTHING
	`, "u-admin", email, "Admin", string(h))
	return err
}
