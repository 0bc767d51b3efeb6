package bots

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/parser"
	"github.com/RetailPe/retailpe-backend/internal/services"
	"github.com/RetailPe/retailpe-backend/internal/storage"
)

// InventoryBot handles catalog management messages: add, update, stock,
// view, lowstock. All dependencies are injected so test instances share no
// global state.
type InventoryBot struct {
	store     storage.Store
	sessions  *services.SessionService
	messenger services.Messenger
}

// NewInventoryBot creates the inventory persona dispatcher.
func NewInventoryBot(store storage.Store, sessions *services.SessionService, messenger services.Messenger) *InventoryBot {
	return &InventoryBot{
		store:     store,
		sessions:  sessions,
		messenger: messenger,
	}
}

// HandleMessage turns one inbound (phone, text) pair into a reply and at
// most one persisted mutation. Every user-correctable failure becomes a
// specific reply, never an error return.
func (b *InventoryBot) HandleMessage(ctx context.Context, phone, text string) error {
	cmd, err := parser.Parse(parser.InventoryGrammar, text)
	if err != nil {
		// Parse errors reply immediately; the session store is never
		// consulted for malformed input.
		return b.reply(ctx, phone, "❌ "+err.Error())
	}

	if login, ok := cmd.(parser.Login); ok {
		return b.handleLogin(ctx, phone, login)
	}

	session, user, err := b.sessions.Current(models.BotInventory, phone)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return b.reply(ctx, phone, loginFirstText)
		}
		return err
	}

	switch cmd := cmd.(type) {
	case parser.Logout:
		if err := b.sessions.Logout(session); err != nil {
			return err
		}
		return b.reply(ctx, phone, formatLogout("Inventory Bot"))

	case parser.AddItem:
		return b.handleAddItem(ctx, phone, user, cmd)

	case parser.UpdateStock:
		return b.handleUpdateStock(ctx, phone, cmd)

	case parser.CheckStock:
		return b.handleCheckStock(ctx, phone, cmd)

	case parser.ViewItems:
		items, err := b.store.GetItems(storage.ItemFilter{ActiveOnly: true})
		if err != nil {
			return err
		}
		return b.reply(ctx, phone, formatItemList(items))

	case parser.LowStock:
		items, err := b.store.GetItems(storage.ItemFilter{ActiveOnly: true, LowStockOnly: true})
		if err != nil {
			return err
		}
		return b.reply(ctx, phone, formatLowStockAlert(items))

	case parser.Help:
		return b.reply(ctx, phone, inventoryHelpText)

	case parser.Unknown:
		return b.reply(ctx, phone, "❌ "+cmd.Hint)
	}

	return nil
}

func (b *InventoryBot) handleLogin(ctx context.Context, phone string, cmd parser.Login) error {
	_, user, err := b.sessions.Login(models.BotInventory, phone, cmd.UserID, cmd.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return b.reply(ctx, phone, invalidCredentialsText)
		}
		return err
	}
	return b.reply(ctx, phone, formatWelcome(user.Name, "Inventory Bot"))
}

func (b *InventoryBot) handleAddItem(ctx context.Context, phone string, user *models.User, cmd parser.AddItem) error {
	if cmd.Quantity < 0 {
		return b.reply(ctx, phone, "❌ Quantity cannot be negative.")
	}
	if cmd.Price <= 0 {
		return b.reply(ctx, phone, "❌ Price must be greater than zero.")
	}

	item := &models.Item{
		Name:        titleCase(cmd.ItemName),
		Quantity:    cmd.Quantity,
		Price:       cmd.Price,
		Description: fmt.Sprintf("Added via WhatsApp by %s", user.Name),
	}
	if err := b.store.CreateItem(item); err != nil {
		if errors.Is(err, storage.ErrDuplicateItem) {
			return b.reply(ctx, phone,
				fmt.Sprintf("❌ Item '%s' already exists. Use 'update' command to modify stock.", cmd.ItemName))
		}
		return err
	}

	return b.reply(ctx, phone,
		fmt.Sprintf("✅ Item added successfully!\n\n📦 *%s*\nStock: %d\nPrice: ₹%.2f",
			item.Name, item.Quantity, item.Price))
}

func (b *InventoryBot) handleUpdateStock(ctx context.Context, phone string, cmd parser.UpdateStock) error {
	if cmd.Quantity < 0 {
		return b.reply(ctx, phone, "❌ Quantity cannot be negative.")
	}

	item, err := b.store.GetItemByName(cmd.ItemName)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return b.reply(ctx, phone,
				fmt.Sprintf("❌ Item '%s' not found. Use 'view' to see available items.", cmd.ItemName))
		}
		return err
	}

	oldQuantity := item.Quantity
	item.Quantity = cmd.Quantity
	if err := b.store.UpdateItem(item); err != nil {
		return err
	}

	return b.reply(ctx, phone,
		fmt.Sprintf("%s Stock updated successfully!\n\n📦 *%s*\nOld Stock: %d\nNew Stock: %d\nPrice: ₹%.2f",
			stockEmoji(item.Quantity), item.Name, oldQuantity, item.Quantity, item.Price))
}

func (b *InventoryBot) handleCheckStock(ctx context.Context, phone string, cmd parser.CheckStock) error {
	item, err := b.store.GetItemByName(cmd.ItemName)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return b.reply(ctx, phone,
				fmt.Sprintf("❌ Item '%s' not found. Use 'view' to see available items.", cmd.ItemName))
		}
		return err
	}

	return b.reply(ctx, phone,
		fmt.Sprintf("%s *%s*\n\nStock: %d\nPrice: ₹%.2f\nStatus: %s",
			stockEmoji(item.Quantity), item.Name, item.Quantity, item.Price, stockStatus(item.Quantity)))
}

// reply sends one outbound text. Delivery failures are logged and swallowed;
// committed state is never rolled back for them.
func (b *InventoryBot) reply(ctx context.Context, phone, message string) error {
	if err := b.messenger.SendText(ctx, phone, message); err != nil {
		log.Printf("❌ Failed to send inventory bot reply to %s: %v", phone, err)
	}
	return nil
}
