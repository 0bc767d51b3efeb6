package storage

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RetailPe/retailpe-backend/internal/models"
)

// MemoryStore holds all data in memory. Used for tests and local runs with
// USE_MEMORY_STORE=true; not for production.
type MemoryStore struct {
	users    map[uint]*models.User
	items    map[uint]*models.Item
	sales    map[uint]*models.Sale
	sessions map[uint]*models.WhatsAppSession

	// Mutexes for thread safety. saleMu also guards item quantities during
	// ResolveSale so the check-and-set plus decrement is one atomic step.
	userMu    sync.RWMutex
	itemMu    sync.RWMutex
	saleMu    sync.RWMutex
	sessionMu sync.RWMutex

	// Counters for ID generation
	userCounter    uint
	itemCounter    uint
	saleCounter    uint
	sessionCounter uint
}

// NewMemoryStore creates a new in-memory storage.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]*models.User),
		items:    make(map[uint]*models.Item),
		sales:    make(map[uint]*models.Sale),
		sessions: make(map[uint]*models.WhatsAppSession),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	for _, existing := range m.users {
		if existing.WhatsAppNumber == user.WhatsAppNumber {
			return ErrDuplicateUser
		}
	}

	m.userCounter++
	user.ID = m.userCounter
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MemoryStore) GetUser(id uint) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if user.WhatsAppNumber == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryStore) FindUserForLogin(identifier, phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if idString(user.ID) == identifier || user.WhatsAppNumber == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

// Item operations

func (m *MemoryStore) CreateItem(item *models.Item) error {
	m.itemMu.Lock()
	defer m.itemMu.Unlock()

	for _, existing := range m.items {
		if existing.IsActive && strings.EqualFold(existing.Name, item.Name) {
			return ErrDuplicateItem
		}
	}

	m.itemCounter++
	item.ID = m.itemCounter
	item.IsActive = true
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *MemoryStore) GetItem(id uint) (*models.Item, error) {
	m.itemMu.RLock()
	defer m.itemMu.RUnlock()

	item, exists := m.items[id]
	if !exists {
		return nil, ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *MemoryStore) GetItemByName(name string) (*models.Item, error) {
	m.itemMu.RLock()
	defer m.itemMu.RUnlock()

	item := m.findActiveItem(name)
	if item == nil {
		return nil, ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

// findActiveItem must be called with itemMu held.
func (m *MemoryStore) findActiveItem(name string) *models.Item {
	for _, item := range m.items {
		if item.IsActive && strings.EqualFold(item.Name, name) {
			return item
		}
	}
	return nil
}

func (m *MemoryStore) GetItems(filter ItemFilter) ([]*models.Item, error) {
	m.itemMu.RLock()
	defer m.itemMu.RUnlock()

	var results []*models.Item
	for _, item := range m.items {
		if filter.ActiveOnly && !item.IsActive {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(item.Description), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.OutOfStockOnly && item.Quantity > 0 {
			continue
		}
		if filter.LowStockOnly && (item.Quantity >= models.LowStockThreshold || item.Quantity <= 0) {
			continue
		}
		copied := *item
		results = append(results, &copied)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return paginate(results, filter.Skip, filter.Limit), nil
}

func (m *MemoryStore) UpdateItem(item *models.Item) error {
	m.itemMu.Lock()
	defer m.itemMu.Unlock()

	if _, exists := m.items[item.ID]; !exists {
		return ErrItemNotFound
	}
	item.UpdatedAt = time.Now()
	copied := *item
	m.items[item.ID] = &copied
	return nil
}

// Sale operations

func (m *MemoryStore) CreateSale(sale *models.Sale) error {
	m.saleMu.Lock()
	defer m.saleMu.Unlock()

	m.saleCounter++
	sale.ID = m.saleCounter
	if sale.Status == "" {
		sale.Status = models.SaleStatusPending
	}
	sale.CreatedAt = time.Now()
	sale.UpdatedAt = time.Now()

	copied := *sale
	m.sales[sale.ID] = &copied
	return nil
}

func (m *MemoryStore) GetSale(id uint) (*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	sale, exists := m.sales[id]
	if !exists {
		return nil, ErrSaleNotFound
	}
	copied := *sale
	return &copied, nil
}

func (m *MemoryStore) GetSaleForUser(id, userID uint) (*models.Sale, error) {
	sale, err := m.GetSale(id)
	if err != nil {
		return nil, err
	}
	if sale.UserID != userID {
		return nil, ErrSaleNotFound
	}
	return sale, nil
}

func (m *MemoryStore) GetSales(filter SaleFilter) ([]*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	var results []*models.Sale
	for _, sale := range m.sales {
		if sale.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && sale.Status != filter.Status {
			continue
		}
		if filter.CustomerName != "" &&
			!strings.Contains(strings.ToLower(sale.CustomerName), strings.ToLower(filter.CustomerName)) {
			continue
		}
		copied := *sale
		results = append(results, &copied)
	}

	// Most recent first.
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return paginate(results, filter.Skip, filter.Limit), nil
}

func (m *MemoryStore) GetPendingSaleByPhone(phone string) (*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	var newest *models.Sale
	for _, sale := range m.sales {
		if sale.RetailerPhone != phone || sale.Status != models.SaleStatusPending {
			continue
		}
		if newest == nil || sale.ID > newest.ID {
			newest = sale
		}
	}
	if newest == nil {
		return nil, ErrSaleNotFound
	}
	copied := *newest
	return &copied, nil
}

func (m *MemoryStore) ResolveSale(id uint, to models.SaleStatus) (*models.Sale, error) {
	m.saleMu.Lock()
	defer m.saleMu.Unlock()

	sale, exists := m.sales[id]
	if !exists {
		return nil, ErrSaleNotFound
	}
	if sale.Status != models.SaleStatusPending {
		return nil, ErrSaleNotPending
	}

	sale.Status = to
	sale.UpdatedAt = time.Now()

	if to == models.SaleStatusSuccess {
		lines, err := sale.Lines()
		if err != nil {
			return nil, err
		}
		m.itemMu.Lock()
		for _, line := range lines {
			item := m.findActiveItem(line.ItemName)
			if item == nil {
				log.Printf("⚠️  Sale %d confirmed but item '%s' no longer in catalog", sale.ID, line.ItemName)
				continue
			}
			item.Quantity -= line.Quantity
			if item.Quantity < 0 {
				log.Printf("⚠️  Stock underflow for '%s' on sale %d (short by %d), clamping to zero",
					item.Name, sale.ID, -item.Quantity)
				item.Quantity = 0
			}
			item.UpdatedAt = time.Now()
		}
		m.itemMu.Unlock()
	}

	copied := *sale
	return &copied, nil
}

func (m *MemoryStore) GetSaleStats(userID uint) (*models.SaleStats, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	stats := &models.SaleStats{}
	for _, sale := range m.sales {
		if sale.UserID != userID {
			continue
		}
		stats.TotalSales++
		switch sale.Status {
		case models.SaleStatusPending:
			stats.PendingSales++
		case models.SaleStatusSuccess:
			stats.SuccessfulSales++
			stats.TotalRevenue += sale.TotalAmount
		case models.SaleStatusFailed:
			stats.FailedSales++
		case models.SaleStatusCancelled:
			stats.CancelledSales++
		}
	}
	if stats.TotalSales > 0 {
		stats.SuccessRate = float64(stats.SuccessfulSales) / float64(stats.TotalSales) * 100
	}
	return stats, nil
}

// Session operations

func (m *MemoryStore) ReplaceSession(session *models.WhatsAppSession) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	for _, existing := range m.sessions {
		if existing.WhatsAppNumber == session.WhatsAppNumber && existing.BotType == session.BotType {
			existing.IsActive = false
			existing.UpdatedAt = time.Now()
		}
	}

	m.sessionCounter++
	session.ID = m.sessionCounter
	session.IsActive = true
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *MemoryStore) GetActiveSession(phone string, botType models.BotType) (*models.WhatsAppSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	for _, session := range m.sessions {
		if session.WhatsAppNumber == phone && session.BotType == botType && session.IsValid() {
			copied := *session
			return &copied, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (m *MemoryStore) DeactivateSession(id uint) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}
	session.IsActive = false
	session.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeactivateExpiredSessions() (int64, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	var count int64
	for _, session := range m.sessions {
		if session.IsActive && session.IsExpired() {
			session.IsActive = false
			session.UpdatedAt = time.Now()
			count++
		}
	}
	return count, nil
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// idString is the form users type in "login user_id password".
func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
