package storage

import (
	"errors"

	"github.com/RetailPe/retailpe-backend/internal/models"
)

// Sentinel errors shared by all store implementations. Callers match with
// errors.Is and translate them into user-facing replies at the dispatch
// boundary.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrSaleNotFound    = errors.New("sale not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrDuplicateItem   = errors.New("item with this name already exists")
	ErrDuplicateUser   = errors.New("whatsapp number already registered")
	// ErrSaleNotPending means the sale already reached a terminal state; the
	// requested transition lost the race or arrived twice.
	ErrSaleNotPending = errors.New("sale is not pending")
)

// ItemFilter narrows item listings.
type ItemFilter struct {
	Search         string
	LowStockOnly   bool
	OutOfStockOnly bool
	ActiveOnly     bool
	Skip           int
	Limit          int
}

// SaleFilter narrows sale listings. UserID is required; everything else is
// optional.
type SaleFilter struct {
	UserID       uint
	Status       models.SaleStatus
	CustomerName string
	Skip         int
	Limit        int
}

// Store defines the interface for storage operations.
type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUser(id uint) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)
	// FindUserForLogin resolves a login identity by the supplied identifier,
	// falling back to the sender's phone number.
	FindUserForLogin(identifier, phone string) (*models.User, error)

	// Item operations
	CreateItem(item *models.Item) error
	GetItem(id uint) (*models.Item, error)
	// GetItemByName matches case-insensitively among active items.
	GetItemByName(name string) (*models.Item, error)
	GetItems(filter ItemFilter) ([]*models.Item, error)
	UpdateItem(item *models.Item) error

	// Sale operations
	CreateSale(sale *models.Sale) error
	GetSale(id uint) (*models.Sale, error)
	GetSaleForUser(id, userID uint) (*models.Sale, error)
	GetSales(filter SaleFilter) ([]*models.Sale, error)
	// GetPendingSaleByPhone returns the newest pending sale bound to the
	// phone number, or ErrSaleNotFound.
	GetPendingSaleByPhone(phone string) (*models.Sale, error)
	// ResolveSale moves a pending sale to a terminal status in a single
	// check-and-set step. Of two concurrent calls exactly one wins; the
	// loser gets ErrSaleNotPending. A transition to success decrements the
	// stock of every snapshot line, clamped at zero.
	ResolveSale(id uint, to models.SaleStatus) (*models.Sale, error)
	GetSaleStats(userID uint) (*models.SaleStats, error)

	// Session operations
	// ReplaceSession deactivates every prior session for the same
	// (phone number, bot persona) and inserts the new one.
	ReplaceSession(session *models.WhatsAppSession) error
	// GetActiveSession returns the active, non-expired session or
	// ErrSessionNotFound. An expired-but-active row counts as absent.
	GetActiveSession(phone string, botType models.BotType) (*models.WhatsAppSession, error)
	DeactivateSession(id uint) error
	// DeactivateExpiredSessions flips expired active sessions off and
	// reports how many it touched. Correctness never depends on it.
	DeactivateExpiredSessions() (int64, error)
}
