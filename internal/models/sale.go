package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// SaleStatus is the lifecycle state of a sale. Pending is the only initial
// state; the other three are terminal.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusSuccess   SaleStatus = "success"
	SaleStatusFailed    SaleStatus = "failed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// IsTerminal reports whether no further transition is permitted.
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusSuccess || s == SaleStatusFailed || s == SaleStatusCancelled
}

// SaleLine is one line of the immutable snapshot captured at creation time.
// Prices and names are copied from the catalog, not referenced live.
type SaleLine struct {
	ItemName   string  `json:"item_name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// Sale records one invoice request and its confirmation outcome.
// RetailerPhone links the sale to the phone number whose success/fail reply
// resolves it, so the pending binding survives process restarts.
type Sale struct {
	gorm.Model
	CustomerName  string     `json:"customer_name" gorm:"size:100;not null"`
	ItemsSoldJSON string     `json:"-" gorm:"column:items_sold_json;type:text;not null"`
	TotalAmount   float64    `json:"total_amount" gorm:"not null"`
	RetailerPhone string     `json:"retailer_phone" gorm:"size:20;index"`
	Status        SaleStatus `json:"status" gorm:"size:20;default:pending;index"`
	UserID        uint       `json:"user_id" gorm:"not null"`
	User          User       `json:"-" gorm:"foreignKey:UserID"`
}

// Lines decodes the line-item snapshot.
func (s *Sale) Lines() ([]SaleLine, error) {
	var lines []SaleLine
	if err := json.Unmarshal([]byte(s.ItemsSoldJSON), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetLines encodes the line-item snapshot.
func (s *Sale) SetLines(lines []SaleLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	s.ItemsSoldJSON = string(data)
	return nil
}

// IsPending reports whether the sale still awaits a retailer reply.
func (s *Sale) IsPending() bool {
	return s.Status == SaleStatusPending
}
