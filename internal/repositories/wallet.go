package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Joaovitor12j/simplified-platform/internal/models"
	"github.com/Joaovitor12j/simplified-platform/internal/money"
	"github.com/Joaovitor12j/simplified-platform/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a GORM-backed wallet repository.
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) FindManyByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", err)
	}
	return wallets, nil
}

// FindManyByUserIDsLocked acquires exclusive row locks. Rows are ordered by
// wallet id so every concurrent transfer locks overlapping wallets in the same
// sequence, preventing deadlock cycles.
func (r *walletRepository) FindManyByUserIDsLocked(tx storage.Tx, userIDs []uuid.UUID) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := tx.DB().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id IN ?", userIDs).
		Order("id").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallets: %w", err)
	}
	return wallets, nil
}

func (r *walletRepository) UpdateBalance(tx storage.Tx, walletID uuid.UUID, balance money.Money) error {
	result := tx.DB().Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", balance.Decimal())
	if result.Error != nil {
		return fmt.Errorf("failed to update balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}
