package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

// Mock ItemRepository and LogRepository
type mockStore struct {
	mu     sync.Mutex
	items  map[string]*domain.Item
	logs   []domain.LogEntry
	nextID int
	writes int

	findErr   error
	insertErr error
	updateErr error
	listErr   error
	logErr    error

	// called once, outside the lock, before the next write of that kind
	beforeInsert func()
	beforeAdd    func()
}

func newMockStore() *mockStore {
	return &mockStore{items: make(map[string]*domain.Item)}
}

func (m *mockStore) seed(item domain.Item) domain.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	item.ID = fmt.Sprintf("id-%d", m.nextID)
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	m.items[item.ID] = &item
	return item
}

func (m *mockStore) FindByBarcode(ctx context.Context, barcode string) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, item := range m.items {
		if item.Barcode == barcode {
			found := *item
			return &found, nil
		}
	}
	return nil, nil
}

func (m *mockStore) InsertItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if hook := m.takeHook(&m.beforeInsert); hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return nil, m.insertErr
	}
	for _, existing := range m.items {
		if existing.Barcode == item.Barcode {
			return nil, port.ErrDuplicateBarcode
		}
	}

	m.nextID++
	m.writes++
	item.ID = fmt.Sprintf("id-%d", m.nextID)
	item.Version = 0
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	m.items[item.ID] = &item

	created := item
	return &created, nil
}

func (m *mockStore) AddQuantity(ctx context.Context, id string, delta, version int) (*domain.Item, error) {
	if hook := m.takeHook(&m.beforeAdd); hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	if item.Version != version {
		return nil, port.ErrOptimisticLock
	}

	m.writes++
	item.Quantity += delta
	item.Version++
	item.UpdatedAt = time.Now()

	merged := *item
	return &merged, nil
}

func (m *mockStore) UpdateItem(ctx context.Context, id string, patch domain.ItemPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	item, ok := m.items[id]
	if !ok {
		return port.ErrNotFound
	}

	m.writes++
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	item.Version++
	item.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return port.ErrNotFound
	}
	m.writes++
	delete(m.items, id)
	return nil
}

func (m *mockStore) ListItems(ctx context.Context) ([]domain.Item, error) {
	return m.list(func(domain.Item) bool { return true })
}

func (m *mockStore) ListItemsAtOrBelow(ctx context.Context, threshold int) ([]domain.Item, error) {
	return m.list(func(item domain.Item) bool { return item.Quantity <= threshold })
}

func (m *mockStore) list(keep func(domain.Item) bool) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Item
	for _, item := range m.items {
		if keep(*item) {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockStore) AppendLog(ctx context.Context, action domain.LogAction, itemName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logErr != nil {
		return m.logErr
	}
	m.logs = append(m.logs, domain.LogEntry{
		ID:        fmt.Sprintf("log-%d", len(m.logs)+1),
		Action:    action,
		ItemName:  itemName,
		Timestamp: time.Now(),
	})
	return nil
}

func (m *mockStore) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logErr != nil {
		return nil, m.logErr
	}
	var out []domain.LogEntry
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *mockStore) actions() []domain.LogAction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.LogAction, 0, len(m.logs))
	for _, entry := range m.logs {
		out = append(out, entry.Action)
	}
	return out
}

func (m *mockStore) takeHook(slot *func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	hook := *slot
	*slot = nil
	return hook
}
