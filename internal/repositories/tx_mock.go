package repositories

import "sync"

// MockTxManager is an in-memory implementation of TxManager backed by the
// mock repositories. Transactions are serialized under one lock; rollback is
// implemented by snapshotting both stores before fn runs and restoring them
// if fn fails, so tests can observe all-or-nothing behavior.
type MockTxManager struct {
	Carts  *MockCartRepository
	Orders *MockOrderRepository
	mu     sync.Mutex
}

// NewMockTxManager creates a new instance of MockTxManager.
func NewMockTxManager(carts *MockCartRepository, orders *MockOrderRepository) *MockTxManager {
	return &MockTxManager{
		Carts:  carts,
		Orders: orders,
	}
}

// WithTransaction runs fn against the shared mock repositories, undoing all
// of its writes when fn returns an error.
func (m *MockTxManager) WithTransaction(fn func(tx TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cartState := m.Carts.snapshot()
	orderState := m.Orders.snapshot()

	if err := fn(TxRepos{Carts: m.Carts, Orders: m.Orders}); err != nil {
		m.Carts.restore(cartState)
		m.Orders.restore(orderState)
		return err
	}
	return nil
}
