// Package repositories provides the data access layer. Repositories expose
// unlocked reads on the pooled connection and locked reads scoped to a storage
// transaction; lock scope and ordering are the caller's responsibility.
package repositories

import (
	"context"
	"errors"

	"github.com/Joaovitor12j/simplified-platform/internal/models"
	"github.com/Joaovitor12j/simplified-platform/internal/money"
	"github.com/Joaovitor12j/simplified-platform/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrUserNotFound   = errors.New("user not found")
)

// WalletRepository reads and mutates wallet rows. The locked variants must be
// called inside a storage transaction; UpdateBalance assumes the caller
// already holds the row lock.
type WalletRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	FindManyByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.Wallet, error)
	FindManyByUserIDsLocked(tx storage.Tx, userIDs []uuid.UUID) ([]models.Wallet, error)
	UpdateBalance(tx storage.Tx, walletID uuid.UUID, balance money.Money) error
}

// UserRepository provides read-only access to users.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TransactionRepository appends immutable ledger entries. Create writes on the
// pooled connection (used for failed records outside a rolled-back
// transaction); CreateInTx writes inside the given storage transaction.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	CreateInTx(tx storage.Tx, txn *models.Transaction) error
}
