// Package transfer implements the funds-transfer engine: validation, external
// authorization, locked balance mutation, ledger append and post-commit
// notification.
package transfer

import (
	"context"
	"fmt"

	"github.com/Joaovitor12j/simplified-platform/internal/models"
	"github.com/Joaovitor12j/simplified-platform/internal/money"
	"github.com/Joaovitor12j/simplified-platform/internal/repositories"
	"github.com/Joaovitor12j/simplified-platform/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type service struct {
	wallets      repositories.WalletRepository
	transactions repositories.TransactionRepository
	users        repositories.UserRepository
	authorizer   Authorizer
	notifier     Notifier
	txm          storage.TxManager
	logger       *logrus.Logger
}

// NewService creates a new transfer service instance.
func NewService(
	wallets repositories.WalletRepository,
	transactions repositories.TransactionRepository,
	users repositories.UserRepository,
	authorizer Authorizer,
	notifier Notifier,
	txm storage.TxManager,
	logger *logrus.Logger,
) Service {
	return &service{
		wallets:      wallets,
		transactions: transactions,
		users:        users,
		authorizer:   authorizer,
		notifier:     notifier,
		txm:          txm,
		logger:       logger,
	}
}

// Execute moves amount from the payer's wallet to the payee's wallet.
//
// Both wallet rows are locked in canonical id order; the balance check that
// decides the outcome is the one made while the locks are held. The ledger
// entry commits atomically with the balance mutation, and the notification is
// scheduled only after the commit succeeds.
func (s *service) Execute(ctx context.Context, payerID, payeeID uuid.UUID, amount money.Money) (*models.Transaction, error) {
	if payerID == payeeID {
		return nil, ErrSelfTransfer
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	wallets, err := s.wallets.FindManyByUserIDs(ctx, []uuid.UUID{payerID, payeeID})
	if err != nil {
		return nil, err
	}
	payerWallet := walletForUser(wallets, payerID)
	payeeWallet := walletForUser(wallets, payeeID)
	if payerWallet == nil || payeeWallet == nil {
		return nil, repositories.ErrWalletNotFound
	}

	payer, err := s.users.FindByID(ctx, payerID)
	if err != nil {
		return nil, err
	}
	if !payer.CanTransfer() {
		return nil, ErrMerchantPayer
	}

	// Advisory fast-fail on an unlocked read. The authoritative check is
	// repeated below while the row locks are held.
	payerBalance, err := money.FromDecimal(payerWallet.Balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt payer balance: %w", err)
	}
	if !payerBalance.GreaterThanOrEqual(amount) {
		s.recordFailure(ctx, payerWallet.ID, payeeWallet.ID, amount, ErrInsufficientBalance)
		return nil, ErrInsufficientBalance
	}

	if err := s.authorizer.Authorize(ctx); err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err = s.txm.RunInTransaction(ctx, func(tx storage.Tx) error {
		locked, err := s.wallets.FindManyByUserIDsLocked(tx, []uuid.UUID{payerID, payeeID})
		if err != nil {
			return err
		}
		lockedPayer := walletForUser(locked, payerID)
		lockedPayee := walletForUser(locked, payeeID)
		if lockedPayer == nil || lockedPayee == nil {
			return repositories.ErrWalletNotFound
		}

		lockedBalance, err := money.FromDecimal(lockedPayer.Balance)
		if err != nil {
			return fmt.Errorf("corrupt payer balance: %w", err)
		}
		if !lockedBalance.GreaterThanOrEqual(amount) {
			return ErrInsufficientBalance
		}

		newPayerBalance, err := lockedBalance.Sub(amount)
		if err != nil {
			return ErrInsufficientBalance
		}
		payeeBalance, err := money.FromDecimal(lockedPayee.Balance)
		if err != nil {
			return fmt.Errorf("corrupt payee balance: %w", err)
		}

		if err := s.wallets.UpdateBalance(tx, lockedPayer.ID, newPayerBalance); err != nil {
			return err
		}
		if err := s.wallets.UpdateBalance(tx, lockedPayee.ID, payeeBalance.Add(amount)); err != nil {
			return err
		}

		txn = &models.Transaction{
			PayerWalletID: &lockedPayer.ID,
			PayeeWalletID: &lockedPayee.ID,
			Amount:        amount.Decimal(),
			Status:        models.TransactionStatusCompleted,
		}
		if err := s.transactions.CreateInTx(tx, txn); err != nil {
			return err
		}

		tx.AfterCommit(func() {
			s.notifier.Dispatch(txn)
		})
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, payerWallet.ID, payeeWallet.ID, amount, err)
		return nil, err
	}

	return txn, nil
}

// recordFailure appends a terminal failed ledger entry outside the rolled-back
// transaction. Best effort: a recording error is logged and swallowed so it
// never masks the original failure.
func (s *service) recordFailure(ctx context.Context, payerWalletID, payeeWalletID uuid.UUID, amount money.Money, cause error) {
	reason := cause.Error()
	failed := &models.Transaction{
		PayerWalletID: &payerWalletID,
		PayeeWalletID: &payeeWalletID,
		Amount:        amount.Decimal(),
		Status:        models.TransactionStatusFailed,
		FailureReason: &reason,
	}
	if err := s.transactions.Create(ctx, failed); err != nil {
		s.logger.WithFields(logrus.Fields{
			"payer_wallet_id": payerWalletID,
			"payee_wallet_id": payeeWalletID,
			"error":           err.Error(),
		}).Warn("failed to record failed transaction")
	}
}

func walletForUser(wallets []models.Wallet, userID uuid.UUID) *models.Wallet {
	for i := range wallets {
		if wallets[i].UserID == userID {
			return &wallets[i]
		}
	}
	return nil
}
