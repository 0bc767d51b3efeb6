package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/RetailPe/retailpe-backend/internal/middleware"
	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/storage"
	"github.com/RetailPe/retailpe-backend/internal/utils"
)

const accessTokenTTL = 24 * time.Hour

// AuthHandler handles user registration and API login.
type AuthHandler struct {
	store  storage.Store
	secret string
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(store storage.Store, secret string) *AuthHandler {
	return &AuthHandler{store: store, secret: secret}
}

type registerRequest struct {
	Name           string `json:"name"`
	WhatsAppNumber string `json:"whatsapp_number"`
	Password       string `json:"password"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" || req.WhatsAppNumber == "" || len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name, whatsapp_number and a password of at least 6 characters are required",
		})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:           req.Name,
		WhatsAppNumber: req.WhatsAppNumber,
		PasswordHash:   hash,
	}
	if err := h.store.CreateUser(user); err != nil {
		if err == storage.ErrDuplicateUser {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "WhatsApp number already registered",
			})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

type loginRequest struct {
	WhatsAppNumber string `json:"whatsapp_number"`
	Password       string `json:"password"`
}

// Login authenticates a user and returns a bearer token for the CRUD API.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.store.GetUserByPhone(req.WhatsAppNumber)
	if err != nil || !utils.VerifyPassword(req.Password, user.PasswordHash) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Incorrect WhatsApp number or password",
		})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Inactive user"})
	}

	token, err := utils.CreateAccessToken(h.secret, user.ID, accessTokenTTL)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(accessTokenTTL.Seconds()),
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}
