package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxFunc receives repositories bound to one transaction.
type TxFunc func(ctx context.Context, users UserRepository, credentials CredentialRepository) error

// Transactor runs a TxFunc atomically. A returned error rolls back every write.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn TxFunc) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor on top of gorm transactions.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// WithinTransaction executes fn within a database transaction.
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn TxFunc) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &userRepository{db: tx}, &credentialRepository{db: tx})
	})
}
