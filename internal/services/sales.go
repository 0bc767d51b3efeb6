package services

import (
	"math"

	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/storage"
)

// TotalTolerance is the absolute tolerance for comparing monetary totals.
// Amounts are fixed to two decimal places where a human supplies them.
const TotalTolerance = 0.01

// RequestedLine is one line of a sale request before validation against the
// catalog. Prices always come from the catalog, never from the request.
type RequestedLine struct {
	ItemName string
	Quantity int
}

// SaleService owns the sale state machine: a sale is created pending and
// reaches exactly one terminal state (success, failed, cancelled).
type SaleService struct {
	store storage.Store
}

// NewSaleService creates a sale service on the given store.
func NewSaleService(store storage.Store) *SaleService {
	return &SaleService{store: store}
}

// Quote validates every requested line against the catalog and prices it at
// current catalog prices. No persistence, no stock mutation.
func (s *SaleService) Quote(requested []RequestedLine) ([]models.SaleLine, float64, error) {
	var lines []models.SaleLine
	var total float64

	// Stock checks run against the aggregate per item, so the same item
	// split across lines cannot pass line-by-line while exceeding stock.
	accumulated := make(map[uint]int)

	for _, req := range requested {
		item, err := s.store.GetItemByName(req.ItemName)
		if err != nil {
			return nil, 0, err
		}
		wanted := accumulated[item.ID] + req.Quantity
		if item.Quantity < wanted {
			return nil, 0, &InsufficientStockError{
				ItemName:  item.Name,
				Available: item.Quantity,
				Requested: wanted,
			}
		}
		accumulated[item.ID] = wanted
		lineTotal := item.Price * float64(req.Quantity)
		total += lineTotal
		lines = append(lines, models.SaleLine{
			ItemName:   item.Name,
			Quantity:   req.Quantity,
			UnitPrice:  item.Price,
			TotalPrice: lineTotal,
		})
	}
	return lines, total, nil
}

// Create validates every requested line against the catalog, snapshots the
// lines at current catalog prices and persists the sale as pending. Nothing
// is persisted when any line fails; stock is never touched here.
func (s *SaleService) Create(userID uint, retailerPhone, customerName string, requested []RequestedLine) (*models.Sale, error) {
	lines, total, err := s.Quote(requested)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		CustomerName:  customerName,
		TotalAmount:   total,
		RetailerPhone: retailerPhone,
		Status:        models.SaleStatusPending,
		UserID:        userID,
	}
	if err := sale.SetLines(lines); err != nil {
		return nil, err
	}
	if err := s.store.CreateSale(sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// Confirm transitions a pending sale to success and decrements stock for
// every snapshot line, exactly once. A sale that already reached a terminal
// state yields storage.ErrSaleNotPending.
func (s *SaleService) Confirm(saleID uint) (*models.Sale, error) {
	return s.store.ResolveSale(saleID, models.SaleStatusSuccess)
}

// Reject transitions a pending sale to failed. No stock mutation.
func (s *SaleService) Reject(saleID uint) (*models.Sale, error) {
	return s.store.ResolveSale(saleID, models.SaleStatusFailed)
}

// Cancel transitions a pending sale to cancelled. No stock mutation.
// Distinguished from Reject for reporting.
func (s *SaleService) Cancel(saleID uint) (*models.Sale, error) {
	return s.store.ResolveSale(saleID, models.SaleStatusCancelled)
}

// TotalsMatch compares two monetary totals within the fixed tolerance.
func TotalsMatch(calculated, provided float64) bool {
	return math.Abs(calculated-provided) <= TotalTolerance
}
