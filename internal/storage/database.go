package storage

import (
	"errors"
	"log"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RetailPe/retailpe-backend/internal/models"
)

// DatabaseStore is the PostgreSQL-backed Store implementation.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given GORM connection.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// User operations

func (s *DatabaseStore) CreateUser(user *models.User) error {
	var count int64
	s.db.Model(&models.User{}).Where("whatsapp_number = ?", user.WhatsAppNumber).Count(&count)
	if count > 0 {
		return ErrDuplicateUser
	}
	user.IsActive = true
	return s.db.Create(user).Error
}

func (s *DatabaseStore) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("whatsapp_number = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *DatabaseStore) FindUserForLogin(identifier, phone string) (*models.User, error) {
	var user models.User
	query := s.db.Where("whatsapp_number = ?", phone)
	if id, err := strconv.ParseUint(identifier, 10, 64); err == nil {
		query = s.db.Where("id = ? OR whatsapp_number = ?", id, phone)
	}
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Item operations

func (s *DatabaseStore) CreateItem(item *models.Item) error {
	var count int64
	s.db.Model(&models.Item{}).
		Where("LOWER(name) = LOWER(?) AND is_active = ?", item.Name, true).
		Count(&count)
	if count > 0 {
		return ErrDuplicateItem
	}
	item.IsActive = true
	return s.db.Create(item).Error
}

func (s *DatabaseStore) GetItem(id uint) (*models.Item, error) {
	var item models.Item
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *DatabaseStore) GetItemByName(name string) (*models.Item, error) {
	var item models.Item
	err := s.db.Where("LOWER(name) = LOWER(?) AND is_active = ?", name, true).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *DatabaseStore) GetItems(filter ItemFilter) ([]*models.Item, error) {
	query := s.db.Model(&models.Item{}).Order("name")

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filter.OutOfStockOnly {
		query = query.Where("quantity <= 0")
	} else if filter.LowStockOnly {
		query = query.Where("quantity < ? AND quantity > 0", models.LowStockThreshold)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var items []*models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *DatabaseStore) UpdateItem(item *models.Item) error {
	result := s.db.Save(item)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Sale operations

func (s *DatabaseStore) CreateSale(sale *models.Sale) error {
	if sale.Status == "" {
		sale.Status = models.SaleStatusPending
	}
	return s.db.Create(sale).Error
}

func (s *DatabaseStore) GetSale(id uint) (*models.Sale, error) {
	var sale models.Sale
	if err := s.db.First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (s *DatabaseStore) GetSaleForUser(id, userID uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (s *DatabaseStore) GetSales(filter SaleFilter) ([]*models.Sale, error) {
	query := s.db.Model(&models.Sale{}).
		Where("user_id = ?", filter.UserID).
		Order("created_at DESC")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerName != "" {
		query = query.Where("customer_name ILIKE ?", "%"+filter.CustomerName+"%")
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var sales []*models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *DatabaseStore) GetPendingSaleByPhone(phone string) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.Where("retailer_phone = ? AND status = ?", phone, models.SaleStatusPending).
		Order("created_at DESC").
		First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (s *DatabaseStore) ResolveSale(id uint, to models.SaleStatus) (*models.Sale, error) {
	var resolved models.Sale

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Conditional update guarded by the pending predicate: of two
		// concurrent transitions only one sees RowsAffected == 1.
		result := tx.Model(&models.Sale{}).
			Where("id = ? AND status = ?", id, models.SaleStatusPending).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&models.Sale{}, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrSaleNotFound
				}
				return err
			}
			return ErrSaleNotPending
		}

		if err := tx.First(&resolved, id).Error; err != nil {
			return err
		}

		if to != models.SaleStatusSuccess {
			return nil
		}

		// Stock is decremented only here, once, by the winning transition.
		lines, err := resolved.Lines()
		if err != nil {
			return err
		}
		for _, line := range lines {
			var item models.Item
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("LOWER(name) = LOWER(?) AND is_active = ?", line.ItemName, true).
				First(&item).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					log.Printf("⚠️  Sale %d confirmed but item '%s' no longer in catalog", resolved.ID, line.ItemName)
					continue
				}
				return err
			}
			item.Quantity -= line.Quantity
			if item.Quantity < 0 {
				log.Printf("⚠️  Stock underflow for '%s' on sale %d (short by %d), clamping to zero",
					item.Name, resolved.ID, -item.Quantity)
				item.Quantity = 0
			}
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

func (s *DatabaseStore) GetSaleStats(userID uint) (*models.SaleStats, error) {
	stats := &models.SaleStats{}
	base := func() *gorm.DB {
		return s.db.Model(&models.Sale{}).Where("user_id = ?", userID)
	}

	if err := base().Count(&stats.TotalSales).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.SaleStatusPending).Count(&stats.PendingSales).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.SaleStatusSuccess).Count(&stats.SuccessfulSales).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.SaleStatusFailed).Count(&stats.FailedSales).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.SaleStatusCancelled).Count(&stats.CancelledSales).Error; err != nil {
		return nil, err
	}

	var revenue struct{ Total float64 }
	err := base().Where("status = ?", models.SaleStatusSuccess).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue.Total

	if stats.TotalSales > 0 {
		stats.SuccessRate = float64(stats.SuccessfulSales) / float64(stats.TotalSales) * 100
	}
	return stats, nil
}

// Session operations

func (s *DatabaseStore) ReplaceSession(session *models.WhatsAppSession) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.WhatsAppSession{}).
			Where("whatsapp_number = ? AND bot_type = ?", session.WhatsAppNumber, session.BotType).
			Update("is_active", false).Error
		if err != nil {
			return err
		}
		session.IsActive = true
		return tx.Create(session).Error
	})
}

func (s *DatabaseStore) GetActiveSession(phone string, botType models.BotType) (*models.WhatsAppSession, error) {
	var session models.WhatsAppSession
	err := s.db.Where("whatsapp_number = ? AND bot_type = ? AND is_active = ?", phone, botType, true).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	// Lazy expiry: an expired row is treated as absent.
	if session.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *DatabaseStore) DeactivateSession(id uint) error {
	result := s.db.Model(&models.WhatsAppSession{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *DatabaseStore) DeactivateExpiredSessions() (int64, error) {
	result := s.db.Model(&models.WhatsAppSession{}).
		Where("is_active = ? AND expires_at < NOW()", true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
