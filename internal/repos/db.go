package repos

import (
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Statements are executed one at a time; the MySQL driver rejects
// multi-statement exec by default. {AUTOINC} is swapped per dialect,
// the same trick the column types play by sticking to VARCHAR/BIGINT
// that both engines accept.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS shops(
	  id INTEGER PRIMARY KEY {AUTOINC},
	  owner_id VARCHAR(36) NOT NULL,
	  owner_name VARCHAR(64) NOT NULL,
	  location VARCHAR(255) NOT NULL,
	  name VARCHAR(64) NOT NULL,
	  description VARCHAR(255) NOT NULL,
	  owner_index INTEGER NOT NULL,
	  boost VARCHAR(32) NOT NULL,
	  created_at BIGINT NOT NULL,
	  UNIQUE(owner_id, owner_index)
	)`,
	`CREATE TABLE IF NOT EXISTS listings(
	  id INTEGER PRIMARY KEY {AUTOINC},
	  shop_id INTEGER NOT NULL,
	  item_hash VARCHAR(64) NOT NULL,
	  hash_version INTEGER NOT NULL,
	  item_data TEXT NOT NULL,
	  price VARCHAR(32) NOT NULL,
	  stock INTEGER NOT NULL,
	  created_at BIGINT NOT NULL,
	  FOREIGN KEY(shop_id) REFERENCES shops(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS bulletin_messages(
	  id INTEGER PRIMARY KEY {AUTOINC},
	  owner_id VARCHAR(36) NOT NULL,
	  owner_name VARCHAR(64) NOT NULL,
	  content TEXT NOT NULL,
	  created_at BIGINT NOT NULL,
	  expire_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions(
	  id INTEGER PRIMARY KEY {AUTOINC},
	  buyer_id VARCHAR(36) NOT NULL,
	  seller_id VARCHAR(36) NOT NULL,
	  shop_id INTEGER NOT NULL,
	  item_hash VARCHAR(64) NOT NULL,
	  hash_version INTEGER NOT NULL,
	  amount INTEGER NOT NULL,
	  price VARCHAR(32) NOT NULL,
	  created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications(
	  id INTEGER PRIMARY KEY {AUTOINC},
	  recipient_id VARCHAR(36) NOT NULL,
	  message TEXT NOT NULL,
	  created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS blacklist(
	  item_hash VARCHAR(64) NOT NULL,
	  hash_version INTEGER NOT NULL,
	  item_snapshot TEXT NOT NULL,
	  created_at BIGINT NOT NULL,
	  PRIMARY KEY(item_hash, hash_version)
	)`,
	`CREATE TABLE IF NOT EXISTS fee_overrides(
	  item_hash VARCHAR(64) NOT NULL,
	  hash_version INTEGER NOT NULL,
	  rate VARCHAR(32) NOT NULL,
	  created_at BIGINT NOT NULL,
	  PRIMARY KEY(item_hash, hash_version)
	)`,
	`CREATE TABLE IF NOT EXISTS admin_logs(
	  id INTEGER PRIMARY KEY {AUTOINC},
	  admin_id VARCHAR(36) NOT NULL,
	  admin_name VARCHAR(64) NOT NULL,
	  action VARCHAR(32) NOT NULL,
	  target VARCHAR(255) NOT NULL,
	  details TEXT NOT NULL,
	  created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users(
	  id VARCHAR(36) PRIMARY KEY,
	  email VARCHAR(255) NOT NULL UNIQUE,
	  name VARCHAR(64) NOT NULL,
	  password_hash VARCHAR(100) NOT NULL,
	  role VARCHAR(8) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions(
	  id VARCHAR(64) PRIMARY KEY,
	  user_id VARCHAR(36) NULL,
	  created_at BIGINT NOT NULL
	)`,
}

// OpenDB opens the backing database ("sqlite" or "mysql"), bootstraps the
// schema and seeds baseline users. Safe to run on every start.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = "sqlite"
	}
	if driver != "sqlite" && driver != "mysql" {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		// Every pool connection gets its own in-memory database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return nil, err
		}
	}

	if err := ensureSchema(db, driver); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB, driver string) error {
	autoInc := "AUTOINCREMENT"
	if driver == "mysql" {
		autoInc = "AUTO_INCREMENT"
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(strings.ReplaceAll(stmt, "{AUTOINC}", autoInc)); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Raw string
	}
	users := []u{
		{"u-alice", "alice@bazaar.test", "Alice", "USER", "Passw0rd!"},
		{"u-bob", "bob@bazaar.test", "Bob", "USER", "Passw0rd!"},
		{"u-admin", "admin@bazaar.test", "Admin", "ADMIN", "Passw0rd!"},
	}

	for _, x := range users {
		var n int
		if err := db.Get(&n, `SELECT COUNT(*) FROM users WHERE email = ?`, x.Email); err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		h, err := bcrypt.GenerateFromPassword([]byte(x.Raw), 12)
		if err != nil {
			return err
		}
		if _, err := db.Exec(`INSERT INTO users(id,email,name,password_hash,role) VALUES(?,?,?,?,?)`,
			x.ID, x.Email, x.Name, string(h), x.Role); err != nil {
			return err
		}
		log.Printf("[seed] user %s (%s)", x.Email, x.Role)
	}
	return nil
}
