package repositories

import "gorm.io/gorm"

// TxRepos bundles the repositories participating in one transaction. Every
// call made through it sees and produces writes scoped to that transaction.
type TxRepos struct {
	Carts  CartRepository
	Orders OrderRepository
}

// TxManager runs a function inside a single atomic unit of work. If fn
// returns an error, every write made through the TxRepos is rolled back.
// Operations whose atomicity matters (cart item upsert, order creation)
// take their repositories from a TxManager so the transaction boundary is
// visible in the call, not implicit in the storage layer.
type TxManager interface {
	WithTransaction(fn func(tx TxRepos) error) error
}

// GORMTxManager is a GORM implementation of TxManager.
type GORMTxManager struct {
	db *gorm.DB
}

// NewGORMTxManager creates a new instance of GORMTxManager.
func NewGORMTxManager(db *gorm.DB) *GORMTxManager {
	return &GORMTxManager{db: db}
}

// WithTransaction wraps fn in a database transaction, handing it repositories
// bound to the transaction connection.
func (m *GORMTxManager) WithTransaction(fn func(tx TxRepos) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(TxRepos{
			Carts:  NewGORMCartRepository(tx),
			Orders: NewGORMOrderRepository(tx),
		})
	})
}
