package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/storage"
)

// ItemHandler exposes the catalog CRUD endpoints.
type ItemHandler struct {
	store storage.Store
}

// NewItemHandler creates a new item handler.
func NewItemHandler(store storage.Store) *ItemHandler {
	return &ItemHandler{store: store}
}

// List returns items with optional filtering.
func (h *ItemHandler) List(c *fiber.Ctx) error {
	filter := storage.ItemFilter{
		Search:         c.Query("search"),
		LowStockOnly:   c.QueryBool("low_stock_only"),
		OutOfStockOnly: c.QueryBool("out_of_stock_only"),
		ActiveOnly:     c.QueryBool("active_only", true),
		Skip:           c.QueryInt("skip", 0),
		Limit:          c.QueryInt("limit", 100),
	}

	items, err := h.store.GetItems(filter)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Get returns a single item by ID.
func (h *ItemHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	item, err := h.store.GetItem(uint(id))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		return err
	}
	return c.JSON(item)
}

type itemRequest struct {
	Name        string   `json:"name"`
	Quantity    *int     `json:"quantity"`
	Price       *float64 `json:"price"`
	Description string   `json:"description"`
}

// Create adds a new catalog item.
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" || req.Price == nil || *req.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name and a positive price are required",
		})
	}

	item := &models.Item{
		Name:        req.Name,
		Price:       *req.Price,
		Description: req.Description,
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "quantity cannot be negative"})
		}
		item.Quantity = *req.Quantity
	}

	if err := h.store.CreateItem(item); err != nil {
		if errors.Is(err, storage.ErrDuplicateItem) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Item with this name already exists",
			})
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// Update modifies an existing item.
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	item, err := h.store.GetItem(uint(id))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		return err
	}

	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != "" && req.Name != item.Name {
		if existing, err := h.store.GetItemByName(req.Name); err == nil && existing.ID != item.ID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Item with this name already exists",
			})
		}
		item.Name = req.Name
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "quantity cannot be negative"})
		}
		item.Quantity = *req.Quantity
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must be positive"})
		}
		item.Price = *req.Price
	}
	if req.Description != "" {
		item.Description = req.Description
	}

	if err := h.store.UpdateItem(item); err != nil {
		return err
	}
	return c.JSON(item)
}

type stockUpdateRequest struct {
	Operation string `json:"operation"` // "set", "add" or "subtract"
	Quantity  int    `json:"quantity"`
}

// UpdateStock applies a set/add/subtract operation to an item's quantity.
// A subtract below zero is rejected, not clamped: the caller supplied the
// amount and can correct it.
func (h *ItemHandler) UpdateStock(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	item, err := h.store.GetItem(uint(id))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		return err
	}

	var req stockUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Quantity < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "quantity cannot be negative"})
	}

	switch req.Operation {
	case "set":
		item.Quantity = req.Quantity
	case "add":
		item.Quantity += req.Quantity
	case "subtract":
		if item.Quantity-req.Quantity < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Cannot subtract more than available quantity",
			})
		}
		item.Quantity -= req.Quantity
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "operation must be one of: set, add, subtract",
		})
	}

	if err := h.store.UpdateItem(item); err != nil {
		return err
	}
	return c.JSON(item)
}

// Delete soft-deletes an item by clearing its active flag.
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item id"})
	}

	item, err := h.store.GetItem(uint(id))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		return err
	}

	item.IsActive = false
	if err := h.store.UpdateItem(item); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SearchByName finds an active item by exact name, case-insensitively.
func (h *ItemHandler) SearchByName(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item name"})
	}
	item, err := h.store.GetItemByName(name)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		return err
	}
	return c.JSON(item)
}

// LowStock lists active items below the low stock threshold.
func (h *ItemHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.store.GetItems(storage.ItemFilter{ActiveOnly: true, LowStockOnly: true})
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// OutOfStock lists active items with no stock.
func (h *ItemHandler) OutOfStock(c *fiber.Ctx) error {
	items, err := h.store.GetItems(storage.ItemFilter{ActiveOnly: true, OutOfStockOnly: true})
	if err != nil {
		return err
	}
	return c.JSON(items)
}
