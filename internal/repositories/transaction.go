package repositories

import (
	"context"
	"fmt"

	"github.com/Joaovitor12j/simplified-platform/internal/models"
	"github.com/Joaovitor12j/simplified-platform/internal/storage"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a GORM-backed ledger repository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) CreateInTx(tx storage.Tx, txn *models.Transaction) error {
	if err := tx.DB().Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}
