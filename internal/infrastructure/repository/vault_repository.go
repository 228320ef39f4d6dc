package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vetolabs/veto-backend/internal/domain/vault"
	"github.com/vetolabs/veto-backend/internal/domain/values"
	vaultsvc "github.com/vetolabs/veto-backend/internal/service/vault"
)

// vaultRepository implements vault.Store using PostgreSQL
type vaultRepository struct {
	db interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}
}

// NewVaultRepository creates a new vault transaction repository
func NewVaultRepository(db *sql.DB) vaultsvc.Store {
	return &vaultRepository{db: db}
}

// NewVaultRepositoryWithTx creates a vault repository bound to a transaction
func NewVaultRepositoryWithTx(tx *sql.Tx) vaultsvc.Store {
	return &vaultRepository{db: tx}
}

// Create inserts a new escrow transaction with its manager-assigned id
func (r *vaultRepository) Create(ctx context.Context, t *vault.Transaction) error {
	query := `
		INSERT INTO vault_transactions (
			id, sender, receiver, amount, token,
			unlock_time, status, reason, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Sender.String(), t.Receiver.String(),
		t.Amount.Amount().String(), t.Amount.Token(),
		t.UnlockTime, t.Status.String(), t.Reason, t.CreatedAt,
	)
	if err != nil {
		if IsDuplicateKeyViolation(err) {
			return fmt.Errorf("vault transaction %d already exists", t.ID)
		}
		return fmt.Errorf("failed to create vault transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an escrow transaction by its id
func (r *vaultRepository) GetByID(ctx context.Context, id int64) (*vault.Transaction, error) {
	query := selectColumns + ` WHERE id = $1`

	t, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, vaultsvc.ErrTxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vault transaction: %w", err)
	}

	return t, nil
}

// UpdateStatus atomically transitions a transaction from one status to
// another. The from-status guard in the WHERE clause makes the row update
// the single point of truth for concurrent recall/release races.
func (r *vaultRepository) UpdateStatus(ctx context.Context, id int64, from, to vault.Status, resolvedAt time.Time) error {
	query := `
		UPDATE vault_transactions
		SET status = $1, resolved_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, to.String(), resolvedAt, id, from.String())
	if err != nil {
		return fmt.Errorf("failed to update vault transaction status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update result: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing row from a lost race
		var exists bool
		checkErr := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM vault_transactions WHERE id = $1)`, id,
		).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("failed to check vault transaction existence: %w", checkErr)
		}
		if !exists {
			return vaultsvc.ErrTxNotFound
		}
		return vaultsvc.ErrStatusConflict
	}

	return nil
}

// ListByAddress returns transactions where the address is sender or
// receiver, ordered by id
func (r *vaultRepository) ListByAddress(ctx context.Context, addr values.Address) ([]*vault.Transaction, error) {
	query := selectColumns + `
		WHERE sender = $1 OR receiver = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, addr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list vault transactions: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListReleasable returns pending transactions whose unlock time has passed
func (r *vaultRepository) ListReleasable(ctx context.Context, asOf time.Time, limit int) ([]*vault.Transaction, error) {
	query := selectColumns + `
		WHERE status = 'pending' AND unlock_time <= $1
		ORDER BY id
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list releasable transactions: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// MaxID returns the highest assigned transaction id, 0 when empty
func (r *vaultRepository) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM vault_transactions`,
	).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("failed to get max transaction id: %w", err)
	}
	return maxID, nil
}

const selectColumns = `
	SELECT
		id, sender, receiver, amount, token,
		unlock_time, status, reason, created_at, resolved_at
	FROM vault_transactions`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *vaultRepository) scanOne(row rowScanner) (*vault.Transaction, error) {
	var (
		t          vault.Transaction
		sender     string
		receiver   string
		amountStr  string
		token      string
		statusStr  string
		resolvedAt sql.NullTime
	)

	err := row.Scan(
		&t.ID, &sender, &receiver, &amountStr, &token,
		&t.UnlockTime, &statusStr, &t.Reason, &t.CreatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.Sender, err = values.NewAddress(sender); err != nil {
		return nil, fmt.Errorf("invalid stored sender address: %w", err)
	}
	if t.Receiver, err = values.NewAddress(receiver); err != nil {
		return nil, fmt.Errorf("invalid stored receiver address: %w", err)
	}
	if t.Amount, err = values.NewMoneyFromString(amountStr, token); err != nil {
		return nil, fmt.Errorf("invalid stored amount: %w", err)
	}
	if t.Status, err = vault.ParseStatus(statusStr); err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		resolved := resolvedAt.Time
		t.ResolvedAt = &resolved
	}

	return &t, nil
}

func (r *vaultRepository) scanAll(rows *sql.Rows) ([]*vault.Transaction, error) {
	var txs []*vault.Transaction
	for rows.Next() {
		t, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vault transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vault transactions: %w", err)
	}
	return txs, nil
}
