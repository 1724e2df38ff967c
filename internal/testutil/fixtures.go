package testutil

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"ledgerd/internal/domain"
)

func SeedAccount(t *testing.T, db *sql.DB, userID, kind, currency string) *domain.Account {
	t.Helper()

	a := &domain.Account{
		UserID:   userID,
		Type:     kind,
		Currency: domain.Currency(currency),
		Status:   domain.AccountStatusActive,
	}
	err := db.QueryRow(
		`INSERT INTO accounts (user_id, type, currency, status)
		 VALUES ($1, $2, $3, 'active')
		 RETURNING id`,
		userID, kind, currency,
	).Scan(&a.ID)
	if err != nil {
		t.Fatalf("seed account %s/%s: %v", userID, currency, err)
	}
	return a
}

func SetAccountStatus(t *testing.T, db *sql.DB, accountID int64, status domain.AccountStatus) {
	t.Helper()

	if _, err := db.Exec(`UPDATE accounts SET status = $1 WHERE id = $2`, status, accountID); err != nil {
		t.Fatalf("set account %d status %s: %v", accountID, status, err)
	}
}

// AccountBalance derives the balance the same way the engine does: credits
// minus debits over every entry.
func AccountBalance(t *testing.T, db *sql.DB, accountID int64) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(
		`SELECT COALESCE(SUM(CASE WHEN entry_type = 'credit' THEN amount ELSE -amount END), 0)
		 FROM ledger_entries WHERE account_id = $1`,
		accountID,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("derive balance for account %d: %v", accountID, err)
	}
	return balance
}

func CountEntries(t *testing.T, db *sql.DB, accountID int64) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count entries for account %d: %v", accountID, err)
	}
	return count
}

func CountTransactionEntries(t *testing.T, db *sql.DB, transactionID int64) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE transaction_id = $1`, transactionID).Scan(&count)
	if err != nil {
		t.Fatalf("count entries for transaction %d: %v", transactionID, err)
	}
	return count
}

func CountTransactions(t *testing.T, db *sql.DB, accountID int64) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM transactions
		 WHERE source_account_id = $1 OR destination_account_id = $1`,
		accountID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for account %d: %v", accountID, err)
	}
	return count
}
