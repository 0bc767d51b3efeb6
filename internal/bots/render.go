package bots

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/RetailPe/retailpe-backend/internal/models"
)

const loginFirstText = "🔒 Please login first using: login user_id password"
const invalidCredentialsText = "❌ Invalid credentials. Please check your user ID and password."

const inventoryHelpText = `📦 *Inventory Bot Commands:*

*Stock Management:*
• ` + "`add item_name quantity price`" + ` - Add new item
• ` + "`update item_name quantity`" + ` - Update stock quantity
• ` + "`stock item_name`" + ` - Check specific item stock
• ` + "`view`" + ` - View all items
• ` + "`lowstock`" + ` - View low stock items

*Session:*
• ` + "`login user_id password`" + ` - Login to bot
• ` + "`logout`" + ` - Logout from bot

*Example:*
` + "`add Natraj Pencils 100 5.0`" + `
` + "`update Natraj Pencils 50`" + `
` + "`stock Natraj Pencils`"

const invoiceHelpText = `🧾 *Invoice Bot Commands:*

*Create Invoice:*
• ` + "`customer_name: item_name: quantity`" + ` - Generate invoice

*Retailer Response:*
• ` + "`success`" + ` - Confirm sale (stock will be deducted)
• ` + "`fail`" + ` - Reject sale (no stock change)

*Session:*
• ` + "`login user_id password`" + ` - Login to bot
• ` + "`logout`" + ` - Logout from bot

*Example:*
` + "`Raghav: Natraj Pencils: 2`" + `
Then respond with ` + "`success`" + ` or ` + "`fail`"

// titleCase capitalizes item and customer names the way they are stored.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// stockEmoji grades a quantity: stocked, low, or out.
func stockEmoji(quantity int) string {
	switch {
	case quantity >= models.LowStockThreshold:
		return "✅"
	case quantity > 0:
		return "⚠️"
	default:
		return "❌"
	}
}

func stockStatus(quantity int) string {
	switch {
	case quantity >= models.LowStockThreshold:
		return "Well Stocked"
	case quantity > 0:
		return "Low Stock"
	default:
		return "Out of Stock"
	}
}

func formatWelcome(userName, botName string) string {
	return fmt.Sprintf("✅ Welcome %s! You are now logged in to the %s.\nType 'help' for available commands.", userName, botName)
}

func formatLogout(botName string) string {
	return fmt.Sprintf("👋 You have been logged out from the %s.", botName)
}

func formatItemList(items []*models.Item) string {
	if len(items) == 0 {
		return "No items found."
	}

	var b strings.Builder
	b.WriteString("📦 *Current Inventory:*\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s *%s*\n", stockEmoji(item.Quantity), item.Name)
		fmt.Fprintf(&b, "   Stock: %d\n", item.Quantity)
		fmt.Fprintf(&b, "   Price: ₹%.2f\n\n", item.Price)
	}
	return b.String()
}

func formatLowStockAlert(items []*models.Item) string {
	if len(items) == 0 {
		return "✅ All items are well stocked!"
	}

	var b strings.Builder
	b.WriteString("⚠️ *Low Stock Alert:*\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "• *%s*: %d left\n", item.Name, item.Quantity)
	}
	return b.String()
}

func formatInvoice(sale *models.Sale) string {
	var b strings.Builder
	b.WriteString("🧾 *INVOICE GENERATED*\n\n")
	fmt.Fprintf(&b, "📋 *Sale ID:* %d\n", sale.ID)
	fmt.Fprintf(&b, "👤 *Customer:* %s\n", sale.CustomerName)

	lines, err := sale.Lines()
	if err == nil {
		for _, line := range lines {
			fmt.Fprintf(&b, "📦 *Item:* %s\n", line.ItemName)
			fmt.Fprintf(&b, "🔢 *Quantity:* %d\n", line.Quantity)
			fmt.Fprintf(&b, "💰 *Unit Price:* ₹%.2f\n", line.UnitPrice)
		}
	}

	fmt.Fprintf(&b, "💵 *Total Amount:* ₹%.2f\n\n", sale.TotalAmount)
	b.WriteString("⏳ *Status:* Pending Confirmation\n\n")
	b.WriteString("Please reply with:\n")
	b.WriteString("• `success` - to confirm sale and update stock\n")
	b.WriteString("• `fail` - to cancel sale")
	return b.String()
}

func formatSaleConfirmed(sale *models.Sale) string {
	return fmt.Sprintf("✅ *SALE CONFIRMED*\n\n📋 Sale ID: %d\n👤 Customer: %s\n💵 Amount: ₹%.2f\n\n📦 Stock has been updated automatically.",
		sale.ID, sale.CustomerName, sale.TotalAmount)
}

func formatSaleRejected(sale *models.Sale) string {
	return fmt.Sprintf("❌ *SALE CANCELLED*\n\n📋 Sale ID: %d\n👤 Customer: %s\n💵 Amount: ₹%.2f\n\n📦 No stock changes made.",
		sale.ID, sale.CustomerName, sale.TotalAmount)
}
