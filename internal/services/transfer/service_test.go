package transfer

import (
	"context"
	"testing"

	"github.com/Joaovitor12j/simplified-platform/internal/models"
	"github.com/Joaovitor12j/simplified-platform/internal/money"
	"github.com/Joaovitor12j/simplified-platform/internal/repositories"
	"github.com/Joaovitor12j/simplified-platform/internal/services/authorization"
	"github.com/Joaovitor12j/simplified-platform/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepo) FindManyByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.Wallet, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Wallet), args.Error(1)
}

func (m *MockWalletRepo) FindManyByUserIDsLocked(tx storage.Tx, userIDs []uuid.UUID) ([]models.Wallet, error) {
	args := m.Called(tx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Wallet), args.Error(1)
}

func (m *MockWalletRepo) UpdateBalance(tx storage.Tx, walletID uuid.UUID, balance money.Money) error {
	args := m.Called(tx, walletID, balance)
	return args.Error(0)
}

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepo) CreateInTx(tx storage.Tx, txn *models.Transaction) error {
	args := m.Called(tx, txn)
	return args.Error(0)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Dispatch(txn *models.Transaction) {
	m.Called(txn)
}

// fakeTx collects after-commit hooks like the real gorm-backed transaction.
type fakeTx struct {
	hooks []func()
}

func (t *fakeTx) DB() *gorm.DB          { return nil }
func (t *fakeTx) AfterCommit(fn func()) { t.hooks = append(t.hooks, fn) }

// fakeTxManager runs the closure synchronously and fires hooks only when it
// succeeds, mirroring the commit semantics.
type fakeTxManager struct {
	began bool
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	m.began = true
	tx := &fakeTx{}
	if err := fn(tx); err != nil {
		return err
	}
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&nopWriter{})
	return logger
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

type fixture struct {
	payerID     uuid.UUID
	payeeID     uuid.UUID
	payerWallet models.Wallet
	payeeWallet models.Wallet
	payer       *models.User

	wallets      *MockWalletRepo
	transactions *MockTransactionRepo
	users        *MockUserRepo
	authorizer   *MockAuthorizer
	notifier     *MockNotifier
	txm          *fakeTxManager
	service      Service
}

func newFixture(payerBalance, payeeBalance string) *fixture {
	f := &fixture{
		payerID:      uuid.New(),
		payeeID:      uuid.New(),
		wallets:      new(MockWalletRepo),
		transactions: new(MockTransactionRepo),
		users:        new(MockUserRepo),
		authorizer:   new(MockAuthorizer),
		notifier:     new(MockNotifier),
		txm:          &fakeTxManager{},
	}
	f.payerWallet = models.Wallet{ID: uuid.New(), UserID: f.payerID, Balance: money.MustParse(payerBalance).Decimal()}
	f.payeeWallet = models.Wallet{ID: uuid.New(), UserID: f.payeeID, Balance: money.MustParse(payeeBalance).Decimal()}
	f.payer = &models.User{ID: f.payerID, Type: models.UserTypeCommon}
	f.service = NewService(f.wallets, f.transactions, f.users, f.authorizer, f.notifier, f.txm, testLogger())
	return f
}

func (f *fixture) bothWallets() []models.Wallet {
	return []models.Wallet{f.payerWallet, f.payeeWallet}
}

func TestExecute_Success(t *testing.T) {
	f := newFixture("100.00", "0.00")
	amount := money.MustParse("50.00")

	f.wallets.On("FindManyByUserIDs", mock.Anything, mock.Anything).Return(f.bothWallets(), nil)
	f.users.On("FindByID", mock.Anything, f.payerID).Return(f.payer, nil)
	f.authorizer.On("Authorize", mock.Anything).Return(nil)
	f.wallets.On("FindManyByUserIDsLocked", mock.Anything, mock.Anything).Return(f.bothWallets(), nil)
	f.wallets.On("UpdateBalance", mock.Anything, f.payerWallet.ID, money.MustParse("50.00")).Return(nil)
	f.wallets.On("UpdateBalance", mock.Anything, f.payeeWallet.ID, money.MustParse("50.00")).Return(nil)
	f.transactions.On("CreateInTx", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Dispatch", mock.Anything).Return()

	txn, err := f.service.Execute(context.Background(), f.payerID, f.payeeID, amount)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, f.payerWallet.ID, *txn.PayerWalletID)
	assert.Equal(t, f.payeeWallet.ID, *txn.PayeeWalletID)
	assert.Equal(t, "50.00", money.MustParse(txn.Amount.String()).String())

	f.wallets.AssertExpectations(t)
	f.transactions.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestExecute_InsufficientBalanceAdvisory(t *testing.T) {
	f := newFixture("40.00", "0.00")

	f.wallets.On("FindManyByUserIDs", mock.Anything, mock.Anything).Return(f.bothWallets(), nil)
	f.users.On("FindByID", mock.Anything, f.payerID).Return(f.payer, nil)
	f.transactions.On("Create", mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Status == models.TransactionStatusFailed &&
			txn.FailureReason != nil && *txn.FailureReason == ErrInsufficientBalance.Error()
	})).Return(nil)

	_, err := f.service.Execute(context.Background(), f.payerID, f.payeeID, money.MustParse("50.00"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// fails before the authorization call and before any storage transaction
	f.authorizer.AssertNotCalled(t, "Authorize", mock.Anything)
	assert.False(t, f.txm.began)
	f.transactions.AssertExpectations(t)
}

func TestExecute_InsufficientBalanceUnderLock(t *testing.T) {
	f := newFixture("100.00", "0.00")

	// the advisory read sees enough funds, the locked read does not
	drained := f.payerWallet
	drained.Balance = money.MustParse("40.00").Decimal()

	f.wallets.On("FindManyByUserIDs", mock.Anything, mock.Anything).Return(f.bothWallets(), nil)
	f.users.On("FindByID", mock.Anything, f.payerID).Return(f.payer, nil)
	f.authorizer.On("Authorize", mock.Anything).Return(nil)
	f.wallets.On("FindManyByUserIDsLocked", mock.Anything, mock.Anything).
		Return([]models.Wallet{drained, f.payeeWallet}, nil)
	f.transactions.On("Create", mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Status == models.TransactionStatusFailed
	})).Return(nil)

	_, err := f.service.Execute(context.Background(), f.payerID, f.payeeID, money.MustParse("50.00"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	f.wallets.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Dispatch", mock.Anything)
	f.transactions.AssertExpectations(t)
}

func TestExecute_Unauthorized(t *testing.T) {
	f := newFixture("100.00", "0.00")

	f.wallets.On("FindManyByUserIDs", mock.Anything, mock.Anything).Return(f.bothWallets(), nil)
	f.users.On("FindByID", mock.Anything, f.payerID).Return(f.payer, nil)
	f.authorizer.On("Authorize", mock.Anything).Return(authorization.ErrUnauthorized)

	_, err := f.service.Execute(context.Background(), f.payerID, f.payeeID, money.MustParse("50.00"))
	assert.ErrorIs(t, err, authorization.ErrUnauthorized)

	// denial happens before the storage transaction: no ledger rows at all
	assert.False(t, f.txm.began)
	f.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.transactions.AssertNotCalled(t, "CreateInTx", mock.Anything, mock.Anything)
}

func TestExecute_AuthorizationUnavailable(t *testing.T) {
	f := newFixture("100.00", "0.00")

	f.wallets.On("FindManyByUserIDs", mock.Anything, mock.Anything).Return(f.bothWallets(), nil)
	f.users.On("FindByID", mock.Anything, f.payerID).Return(f.payer, nil)
	f.authorizer.On("Authorize", mock.Anything).Return(authorization.ErrServiceUnavailable)

	_, err := f.service.Execute(context.Background(), f.payerID, f.payeeID, money.MustParse("50.00"))
	assert.ErrorIs(t, err, authorization.ErrServiceUnavailable)
	assert.False(t, f.txm.began)
}

func TestExecute_MerchantPayer(t *testing.T) {
	f := newFixture("100.00", "0.00")
	f.payer.Type = models.UserTypeMerchant

	f.wallets.On("FindManyByUserIDs", mock.Anything, mock.Anything).Return(f.bothWallets(), nil)
	f.users.On("FindByID", mock.Anything, f.payerID).Return(f.payer, nil)

	_, err := f.service.Execute(context.Background(), f.payerID, f.payeeID, money.MustParse("50.00"))
	assert.ErrorIs(t, err, ErrMerchantPayer)

	f.authorizer.AssertNotCalled(t, "Authorize", mock.Anything)
	assert.False(t, f.txm.began)
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture) (uuid.UUID, uuid.UUID, money.Money)
		wantErr error
	}{
		{
			name: "self transfer",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID, money.Money) {
				return f.payerID, f.payerID, money.MustParse("50.00")
			},
			wantErr: ErrSelfTransfer,
		},
		{
			name: "zero amount",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID, money.Money) {
				return f.payerID, f.payeeID, money.Zero()
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "payee wallet missing",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID, money.Money) {
				f.wallets.On("FindManyByUserIDs", mock.Anything, mock.Anything).
					Return([]models.Wallet{f.payerWallet}, nil)
				return f.payerID, f.payeeID, money.MustParse("50.00")
			},
			wantErr: repositories.ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("100.00", "0.00")
			payer, payee, amount := tt.setup(f)

			_, err := f.service.Execute(context.Background(), payer, payee, amount)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, f.txm.began)
		})
	}
}

func TestExecute_RecordFailureErrorIsSwallowed(t *testing.T) {
	f := newFixture("40.00", "0.00")

	f.wallets.On("FindManyByUserIDs", mock.Anything, mock.Anything).Return(f.bothWallets(), nil)
	f.users.On("FindByID", mock.Anything, f.payerID).Return(f.payer, nil)
	f.transactions.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := f.service.Execute(context.Background(), f.payerID, f.payeeID, money.MustParse("50.00"))

	// the original error surfaces even when the failed record cannot be written
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}
