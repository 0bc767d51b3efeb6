package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RetailPe/retailpe-backend/internal/handlers"
	"github.com/RetailPe/retailpe-backend/internal/middleware"
	"github.com/RetailPe/retailpe-backend/internal/services"
	"github.com/RetailPe/retailpe-backend/internal/storage"
)

// Deps bundles everything the route tree needs.
type Deps struct {
	Store     storage.Store
	Sales     *services.SaleService
	Webhooks  *handlers.WebhookHandler
	Health    *handlers.HealthHandler
	SecretKey string
	DevMode   bool
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Store, deps.SecretKey)
	itemHandler := handlers.NewItemHandler(deps.Store)
	saleHandler := handlers.NewSaleHandler(deps.Store, deps.Sales)

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to RetailPe Backend!",
			"version": deps.Health.Version,
			"endpoints": fiber.Map{
				"health":            "/health",
				"api":               "/api",
				"webhook_inventory": "/webhook/inventory",
				"webhook_invoice":   "/webhook/invoice",
			},
		})
	})

	app.Get("/health", deps.Health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// Both personas answer the provider's GET verification handshake and
	// receive message deliveries on POST.
	webhooks.Get("/inventory", deps.Webhooks.HandleVerification)
	webhooks.Post("/inventory", deps.Webhooks.HandleInventoryWebhook)
	webhooks.Get("/invoice", deps.Webhooks.HandleVerification)
	webhooks.Post("/invoice", deps.Webhooks.HandleInvoiceWebhook)

	// ========== TEST ROUTES (Development Only) ==========
	if deps.DevMode {
		app.Post("/test/whatsapp", deps.Webhooks.HandleTestWebhook)
	}

	// ========== API ROUTES ==========
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.RequireAuth(deps.SecretKey, deps.Store), authHandler.Me)

	requireAuth := middleware.RequireAuth(deps.SecretKey, deps.Store)

	items := api.Group("/items", requireAuth)
	items.Get("/", itemHandler.List)
	items.Post("/", itemHandler.Create)
	items.Get("/low-stock", itemHandler.LowStock)
	items.Get("/out-of-stock", itemHandler.OutOfStock)
	items.Get("/search/:name", itemHandler.SearchByName)
	items.Get("/:id", itemHandler.Get)
	items.Put("/:id", itemHandler.Update)
	items.Patch("/:id/stock", itemHandler.UpdateStock)
	items.Delete("/:id", itemHandler.Delete)

	sales := api.Group("/sales", requireAuth)
	sales.Get("/", saleHandler.List)
	sales.Post("/", saleHandler.Create)
	sales.Post("/whatsapp", saleHandler.CreateFromWhatsApp)
	sales.Get("/pending", saleHandler.Pending)
	sales.Get("/stats", saleHandler.Stats)
	sales.Get("/:id", saleHandler.Get)
	sales.Patch("/:id/status", saleHandler.UpdateStatus)
}
