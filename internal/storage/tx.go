package storage

import (
	"context"

	"gorm.io/gorm"
)

// Tx is one storage transaction. AfterCommit hooks run only once the
// transaction has durably committed; they are discarded on rollback.
type Tx interface {
	DB() *gorm.DB
	AfterCommit(fn func())
}

// TxManager runs a function inside a storage transaction.
type TxManager interface {
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
}

type gormTx struct {
	db    *gorm.DB
	hooks []func()
}

func (t *gormTx) DB() *gorm.DB { return t.db }

func (t *gormTx) AfterCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// GormTxManager implements TxManager on a gorm connection.
type GormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) RunInTransaction(ctx context.Context, fn func(tx Tx) error) error {
	var hooks []func()

	err := m.db.WithContext(ctx).Transaction(func(txDB *gorm.DB) error {
		t := &gormTx{db: txDB}
		if err := fn(t); err != nil {
			return err
		}
		hooks = t.hooks
		return nil
	})
	if err != nil {
		return err
	}

	for _, hook := range hooks {
		hook()
	}
	return nil
}
