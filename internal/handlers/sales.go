package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/RetailPe/retailpe-backend/internal/middleware"
	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/services"
	"github.com/RetailPe/retailpe-backend/internal/storage"
)

// SaleHandler exposes the sale CRUD and lifecycle endpoints. Every route is
// scoped to the authenticated user.
type SaleHandler struct {
	store storage.Store
	sales *services.SaleService
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(store storage.Store, sales *services.SaleService) *SaleHandler {
	return &SaleHandler{store: store, sales: sales}
}

// List returns the user's sales with optional filtering.
func (h *SaleHandler) List(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	filter := storage.SaleFilter{
		UserID:       user.ID,
		Status:       models.SaleStatus(c.Query("status")),
		CustomerName: c.Query("customer_name"),
		Skip:         c.QueryInt("skip", 0),
		Limit:        c.QueryInt("limit", 100),
	}

	sales, err := h.store.GetSales(filter)
	if err != nil {
		return err
	}
	return c.JSON(sales)
}

// Pending lists the user's pending sales.
func (h *SaleHandler) Pending(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	sales, err := h.store.GetSales(storage.SaleFilter{
		UserID: user.ID,
		Status: models.SaleStatusPending,
		Limit:  100,
	})
	if err != nil {
		return err
	}
	return c.JSON(sales)
}

// Stats returns aggregate counts and revenue for the user's sales.
func (h *SaleHandler) Stats(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	stats, err := h.store.GetSaleStats(user.ID)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Get returns one of the user's sales by ID.
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sale id"})
	}

	user := middleware.CurrentUser(c)
	sale, err := h.store.GetSaleForUser(uint(id), user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrSaleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Sale not found"})
		}
		return err
	}
	return c.JSON(sale)
}

type saleLineRequest struct {
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

type createSaleRequest struct {
	CustomerName string            `json:"customer_name"`
	Items        []saleLineRequest `json:"items"`
	TotalAmount  *float64          `json:"total_amount"`
}

// Create records a new pending sale. When the caller supplies a total it must
// match the catalog-priced total within tolerance; prices always come from
// the catalog.
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var req createSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.CustomerName == "" || len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "customer_name and at least one item are required",
		})
	}

	requested := make([]services.RequestedLine, 0, len(req.Items))
	for _, line := range req.Items {
		if line.ItemName == "" || line.Quantity <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "every item needs a name and a positive quantity",
			})
		}
		requested = append(requested, services.RequestedLine{
			ItemName: line.ItemName,
			Quantity: line.Quantity,
		})
	}

	user := middleware.CurrentUser(c)

	if req.TotalAmount != nil {
		_, calculated, err := h.sales.Quote(requested)
		if err != nil {
			return h.quoteError(c, err)
		}
		if !services.TotalsMatch(calculated, *req.TotalAmount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": (&services.TotalMismatchError{
					Calculated: calculated,
					Provided:   *req.TotalAmount,
				}).Error(),
			})
		}
	}

	sale, err := h.sales.Create(user.ID, user.WhatsAppNumber, req.CustomerName, requested)
	if err != nil {
		return h.quoteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}

func (h *SaleHandler) quoteError(c *fiber.Ctx, err error) error {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.Is(err, storage.ErrItemNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Item not found"})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": stockErr.Error()})
	default:
		return err
	}
}

type whatsappSaleRequest struct {
	RetailerPhone string            `json:"retailer_phone"`
	CustomerName  string            `json:"customer_name"`
	Items         []saleLineRequest `json:"items"`
}

// CreateFromWhatsApp records a pending sale on behalf of a retailer phone
// number, the way the invoice bot does. The sale is bound to the phone so a
// later success/fail reply on WhatsApp resolves it.
func (h *SaleHandler) CreateFromWhatsApp(c *fiber.Ctx) error {
	var req whatsappSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.RetailerPhone == "" || req.CustomerName == "" || len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "retailer_phone, customer_name and at least one item are required",
		})
	}

	retailer, err := h.store.GetUserByPhone(req.RetailerPhone)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No retailer registered with this WhatsApp number",
			})
		}
		return err
	}

	requested := make([]services.RequestedLine, 0, len(req.Items))
	for _, line := range req.Items {
		if line.ItemName == "" || line.Quantity <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "every item needs a name and a positive quantity",
			})
		}
		requested = append(requested, services.RequestedLine{
			ItemName: line.ItemName,
			Quantity: line.Quantity,
		})
	}

	sale, err := h.sales.Create(retailer.ID, req.RetailerPhone, req.CustomerName, requested)
	if err != nil {
		return h.quoteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}

type saleStatusRequest struct {
	Status models.SaleStatus `json:"status"`
}

// UpdateStatus moves one of the user's pending sales to a terminal status. A
// sale already resolved yields 409.
func (h *SaleHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sale id"})
	}

	var req saleStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user := middleware.CurrentUser(c)
	if _, err := h.store.GetSaleForUser(uint(id), user.ID); err != nil {
		if errors.Is(err, storage.ErrSaleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Sale not found"})
		}
		return err
	}

	var sale *models.Sale
	switch req.Status {
	case models.SaleStatusSuccess:
		sale, err = h.sales.Confirm(uint(id))
	case models.SaleStatusFailed:
		sale, err = h.sales.Reject(uint(id))
	case models.SaleStatusCancelled:
		sale, err = h.sales.Cancel(uint(id))
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "status must be one of: success, failed, cancelled",
		})
	}
	if err != nil {
		if errors.Is(err, storage.ErrSaleNotPending) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Sale has already been processed",
			})
		}
		return err
	}
	return c.JSON(sale)
}
