package models

import (
	"gorm.io/gorm"
)

// LowStockThreshold is the quantity below which an item counts as low stock.
const LowStockThreshold = 10

// Item is a catalog entry. Items are soft-deleted via IsActive; name
// uniqueness is enforced among active items only.
type Item struct {
	gorm.Model
	Name        string  `json:"name" gorm:"size:100;index;not null"`
	Quantity    int     `json:"quantity" gorm:"not null;default:0"`
	Price       float64 `json:"price" gorm:"not null"`
	Description string  `json:"description" gorm:"size:255"`
	IsActive    bool    `json:"is_active" gorm:"default:true"`
}

// IsLowStock reports whether the item is below the low stock threshold.
func (i *Item) IsLowStock() bool {
	return i.Quantity < LowStockThreshold
}

// IsOutOfStock reports whether the item has no stock left.
func (i *Item) IsOutOfStock() bool {
	return i.Quantity <= 0
}
