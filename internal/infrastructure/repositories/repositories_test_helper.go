package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"payportal.backend/internal/domain/entities"
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

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		id_number_hash TEXT NOT NULL,
		id_number_fingerprint TEXT NOT NULL UNIQUE,
		account_number_hash TEXT NOT NULL,
		account_number_fingerprint TEXT NOT NULL UNIQUE,
		role TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createPaymentTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		amount_minor INTEGER NOT NULL,
		currency TEXT NOT NULL,
		service_provider TEXT NOT NULL,
		swift_code TEXT NOT NULL,
		account_holder_name TEXT NOT NULL,
		account_number_hash TEXT NOT NULL,
		branch_code TEXT NOT NULL,
		account_type TEXT NOT NULL,
		status TEXT NOT NULL,
		verified_swift_code TEXT,
		verified_at DATETIME,
		verified_by TEXT,
		submitted_at DATETIME,
		submitted_by TEXT,
		settlement_transaction_id TEXT UNIQUE,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE payment_events (
		id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT NOT NULL,
		metadata TEXT DEFAULT '{}',
		created_at DATETIME
	);`)
}

func newTestUser(username, idFp, accFp string) *entities.User {
	now := time.Now().UTC()
	return &entities.User{
		ID:                       uuid.New(),
		FullName:                 "Jane Doe",
		Username:                 username,
		PasswordHash:             "hash",
		IDNumberHash:             "id-hash",
		IDNumberFingerprint:      idFp,
		AccountNumberHash:        "acc-hash",
		AccountNumberFingerprint: accFp,
		Role:                     entities.RoleCustomer,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

func newTestPayment(customerID uuid.UUID, createdAt time.Time) *entities.Payment {
	return &entities.Payment{
		ID:                uuid.New(),
		CustomerID:        customerID,
		Amount:            entities.Amount(10000),
		Currency:          entities.CurrencyUSD,
		ServiceProvider:   "SWIFT",
		SwiftCode:         "ABCDUS33",
		AccountHolderName: "John Smith",
		AccountNumberHash: "acc-hash",
		BranchCode:        "123456",
		AccountType:       entities.AccountTypeChecking,
		Status:            entities.PaymentStatusPending,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
}
