package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createMerchantTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE merchants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		webhook_secret TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		allow_large_payments BOOLEAN NOT NULL DEFAULT FALSE,
		country TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE customers (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		email TEXT NOT NULL,
		name TEXT,
		phone TEXT,
		description TEXT,
		metadata TEXT DEFAULT '{}',
		default_payment_method TEXT,
		balance INTEGER NOT NULL DEFAULT 0,
		delinquent BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (merchant_id, email)
	);`)
	mustExec(t, db, `CREATE TABLE api_keys (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		prefix TEXT NOT NULL UNIQUE,
		key_hash TEXT NOT NULL,
		permissions TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		expires_at DATETIME,
		last_used_at DATETIME,
		created_at DATETIME
	);`)
}

func createPaymentTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		customer_id TEXT,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		description TEXT,
		metadata TEXT DEFAULT '{}',
		captured_amount INTEGER NOT NULL DEFAULT 0,
		refunded_amount INTEGER NOT NULL DEFAULT 0,
		refund_reason TEXT,
		failure_code TEXT,
		failure_message TEXT,
		crypto_address TEXT,
		crypto_key TEXT,
		captured_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE events (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		type TEXT NOT NULL,
		data TEXT DEFAULT '{}',
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE balance_transactions (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		payment_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount INTEGER NOT NULL,
		fee INTEGER NOT NULL DEFAULT 0,
		net INTEGER NOT NULL,
		currency TEXT NOT NULL,
		description TEXT,
		available_on DATETIME NOT NULL,
		created_at DATETIME
	);`)
}

func createWebhookTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE webhooks (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		url TEXT NOT NULL,
		secret TEXT NOT NULL,
		events TEXT DEFAULT '[]',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE webhook_deliveries (
		id TEXT PRIMARY KEY,
		webhook_id TEXT NOT NULL,
		event_id TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		next_attempt_at DATETIME NOT NULL,
		last_error TEXT,
		delivered_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createAllTables(t *testing.T, db *gorm.DB) {
	createMerchantTables(t, db)
	createPaymentTables(t, db)
	createWebhookTables(t, db)
}
