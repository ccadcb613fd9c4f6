package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// MemoryStore is a mutex-guarded map store with the same version
// semantics as the SQLite repository. Used by tests and as a
// throwaway backend for local runs.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	bills        map[string]core.Bill
	goals        map[string]core.Goal
}

var _ services.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
		bills:        make(map[string]core.Bill),
		goals:        make(map[string]core.Goal),
	}
}

func (m *MemoryStore) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return core.Transaction{}, fmt.Errorf("%w: transaction %s", core.ErrNotFound, id)
	}
	return tx, nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, f services.TransactionFilter) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Transaction
	for _, tx := range m.transactions {
		if tx.OwnerID != f.OwnerID {
			continue
		}
		if tx.Deleted && !f.IncludeDeleted {
			continue
		}
		if !f.Start.IsZero() && tx.Date.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && tx.Date.After(f.End) {
			continue
		}
		if f.Category != "" && tx.Category != f.Category {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) ListDueRecurringTransactions(_ context.Context, asOf time.Time) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Transaction
	for _, tx := range m.transactions {
		if tx.Deleted || tx.Recurring == nil {
			continue
		}
		if tx.Recurring.NextDueDate.After(asOf) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SaveTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.transactions[tx.ID]
	if tx.Version == 0 {
		if ok {
			return core.Transaction{}, fmt.Errorf("%w: transaction %s already exists", core.ErrConflict, tx.ID)
		}
		tx.Version = 1
		m.transactions[tx.ID] = tx
		return tx, nil
	}
	if !ok || stored.OwnerID != tx.OwnerID {
		return core.Transaction{}, fmt.Errorf("%w: transaction %s", core.ErrNotFound, tx.ID)
	}
	if stored.Version != tx.Version {
		return core.Transaction{}, fmt.Errorf("%w: transaction %s was modified concurrently", core.ErrConflict, tx.ID)
	}
	tx.Version++
	m.transactions[tx.ID] = tx
	return tx, nil
}

func (m *MemoryStore) GetBudget(_ context.Context, ownerID, id string) (core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.budgets[id]
	if !ok || b.OwnerID != ownerID {
		return core.Budget{}, fmt.Errorf("%w: budget %s", core.ErrNotFound, id)
	}
	return b, nil
}

func (m *MemoryStore) GetBudgetByPeriod(_ context.Context, ownerID string, month, year int) (core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.budgets {
		if b.OwnerID == ownerID && b.Month == month && b.Year == year {
			return b, nil
		}
	}
	return core.Budget{}, fmt.Errorf("%w: budget for %d/%d", core.ErrNotFound, month, year)
}

func (m *MemoryStore) ListBudgets(_ context.Context, ownerID string) ([]core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Budget
	for _, b := range m.budgets {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (m *MemoryStore) SaveBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.budgets[b.ID]
	if b.Version == 0 {
		if ok {
			return core.Budget{}, fmt.Errorf("%w: budget %s already exists", core.ErrConflict, b.ID)
		}
		for _, other := range m.budgets {
			if other.OwnerID == b.OwnerID && other.Month == b.Month && other.Year == b.Year {
				return core.Budget{}, fmt.Errorf("%w: budget for %d/%d already exists", core.ErrConflict, b.Month, b.Year)
			}
		}
		b.Version = 1
		m.budgets[b.ID] = b
		return b, nil
	}
	if !ok || stored.OwnerID != b.OwnerID {
		return core.Budget{}, fmt.Errorf("%w: budget %s", core.ErrNotFound, b.ID)
	}
	if stored.Version != b.Version {
		return core.Budget{}, fmt.Errorf("%w: budget %s was modified concurrently", core.ErrConflict, b.ID)
	}
	b.Version++
	m.budgets[b.ID] = b
	return b, nil
}

func (m *MemoryStore) DeleteBudget(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.OwnerID != ownerID {
		return fmt.Errorf("%w: budget %s", core.ErrNotFound, id)
	}
	delete(m.budgets, id)
	return nil
}

func (m *MemoryStore) GetBill(_ context.Context, ownerID, id string) (core.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bills[id]
	if !ok || b.OwnerID != ownerID {
		return core.Bill{}, fmt.Errorf("%w: bill %s", core.ErrNotFound, id)
	}
	return b, nil
}

func (m *MemoryStore) ListBills(_ context.Context, ownerID string, activeOnly bool) ([]core.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Bill
	for _, b := range m.bills {
		if b.OwnerID != ownerID {
			continue
		}
		if activeOnly && !b.IsActive {
			continue
		}
		out = append(out, b)
	}
	sortBills(out)
	return out, nil
}

func (m *MemoryStore) ListBillsDueBy(_ context.Context, due time.Time) ([]core.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Bill
	for _, b := range m.bills {
		if !b.IsActive || b.IsPaid || b.NextDueDate.After(due) {
			continue
		}
		out = append(out, b)
	}
	sortBills(out)
	return out, nil
}

func sortBills(bills []core.Bill) {
	sort.Slice(bills, func(i, j int) bool {
		if !bills[i].NextDueDate.Equal(bills[j].NextDueDate) {
			return bills[i].NextDueDate.Before(bills[j].NextDueDate)
		}
		return bills[i].ID < bills[j].ID
	})
}

func (m *MemoryStore) SaveBill(_ context.Context, b core.Bill) (core.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bills[b.ID]
	if b.Version == 0 {
		if ok {
			return core.Bill{}, fmt.Errorf("%w: bill %s already exists", core.ErrConflict, b.ID)
		}
		b.Version = 1
		m.bills[b.ID] = b
		return b, nil
	}
	if !ok || stored.OwnerID != b.OwnerID {
		return core.Bill{}, fmt.Errorf("%w: bill %s", core.ErrNotFound, b.ID)
	}
	if stored.Version != b.Version {
		return core.Bill{}, fmt.Errorf("%w: bill %s was modified concurrently", core.ErrConflict, b.ID)
	}
	b.Version++
	m.bills[b.ID] = b
	return b, nil
}

func (m *MemoryStore) DeleteBill(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok || b.OwnerID != ownerID {
		return fmt.Errorf("%w: bill %s", core.ErrNotFound, id)
	}
	delete(m.bills, id)
	return nil
}

func (m *MemoryStore) GetGoal(_ context.Context, ownerID, id string) (core.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[id]
	if !ok || g.OwnerID != ownerID {
		return core.Goal{}, fmt.Errorf("%w: goal %s", core.ErrNotFound, id)
	}
	return g, nil
}

func (m *MemoryStore) ListGoals(_ context.Context, ownerID string, includeArchived bool) ([]core.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Goal
	for _, g := range m.goals {
		if g.OwnerID != ownerID {
			continue
		}
		if g.Archived && !includeArchived {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TargetDate.Equal(out[j].TargetDate) {
			return out[i].TargetDate.Before(out[j].TargetDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) ListDueAutoContributions(_ context.Context, asOf time.Time) ([]core.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Goal
	for _, g := range m.goals {
		if g.Archived || !g.AutoContribute.Enabled {
			continue
		}
		if g.AutoContribute.NextContribution.After(asOf) {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SaveGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.goals[g.ID]
	if g.Version == 0 {
		if ok {
			return core.Goal{}, fmt.Errorf("%w: goal %s already exists", core.ErrConflict, g.ID)
		}
		g.Version = 1
		m.goals[g.ID] = g
		return g, nil
	}
	if !ok || stored.OwnerID != g.OwnerID {
		return core.Goal{}, fmt.Errorf("%w: goal %s", core.ErrNotFound, g.ID)
	}
	if stored.Version != g.Version {
		return core.Goal{}, fmt.Errorf("%w: goal %s was modified concurrently", core.ErrConflict, g.ID)
	}
	g.Version++
	m.goals[g.ID] = g
	return g, nil
}
