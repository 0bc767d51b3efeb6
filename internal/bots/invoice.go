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

// InvoiceBot handles the sale-confirmation protocol: an invoice request
// creates a pending sale, and the retailer's out-of-band success/fail reply
// resolves it. Dependencies are injected; no shared globals.
type InvoiceBot struct {
	sessions  *services.SessionService
	sales     *services.SaleService
	pending   *services.PendingTracker
	messenger services.Messenger
}

// NewInvoiceBot creates the invoice persona dispatcher.
func NewInvoiceBot(sessions *services.SessionService, sales *services.SaleService, pending *services.PendingTracker, messenger services.Messenger) *InvoiceBot {
	return &InvoiceBot{
		sessions:  sessions,
		sales:     sales,
		pending:   pending,
		messenger: messenger,
	}
}

// HandleMessage turns one inbound (phone, text) pair into a reply plus at
// most one sale-lifecycle transition.
func (b *InvoiceBot) HandleMessage(ctx context.Context, phone, text string) error {
	cmd, err := parser.Parse(parser.InvoiceGrammar, text)
	if err != nil {
		return b.reply(ctx, phone, "❌ "+err.Error())
	}

	if login, ok := cmd.(parser.Login); ok {
		return b.handleLogin(ctx, phone, login)
	}

	session, user, err := b.sessions.Current(models.BotInvoice, phone)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return b.reply(ctx, phone, loginFirstText)
		}
		return err
	}

	switch cmd := cmd.(type) {
	case parser.Logout:
		return b.handleLogout(ctx, phone, session)

	case parser.InvoiceRequest:
		return b.handleInvoiceRequest(ctx, phone, user, cmd)

	case parser.Confirm:
		return b.handleRetailerReply(ctx, phone, user, true)

	case parser.Reject:
		return b.handleRetailerReply(ctx, phone, user, false)

	case parser.Help:
		return b.reply(ctx, phone, invoiceHelpText)

	case parser.Unknown:
		return b.reply(ctx, phone, "❌ "+cmd.Hint)
	}

	return nil
}

func (b *InvoiceBot) handleLogin(ctx context.Context, phone string, cmd parser.Login) error {
	_, user, err := b.sessions.Login(models.BotInvoice, phone, cmd.UserID, cmd.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return b.reply(ctx, phone, invalidCredentialsText)
		}
		return err
	}
	return b.reply(ctx, phone, formatWelcome(user.Name, "Invoice Bot"))
}

func (b *InvoiceBot) handleLogout(ctx context.Context, phone string, session *models.WhatsAppSession) error {
	unlock := b.pending.Lock(phone)
	// Logging out abandons any outstanding confirmation.
	if _, err := b.pending.Clear(phone); err != nil {
		unlock()
		return err
	}
	unlock()

	if err := b.sessions.Logout(session); err != nil {
		return err
	}
	return b.reply(ctx, phone, formatLogout("Invoice Bot"))
}

func (b *InvoiceBot) handleInvoiceRequest(ctx context.Context, phone string, user *models.User, cmd parser.InvoiceRequest) error {
	unlock := b.pending.Lock(phone)

	prior, err := b.pending.Resolve(phone)
	if err != nil {
		unlock()
		return err
	}

	sale, err := b.sales.Create(user.ID, phone, titleCase(cmd.CustomerName), []services.RequestedLine{
		{ItemName: cmd.ItemName, Quantity: cmd.Quantity},
	})
	if err != nil {
		unlock()
		// A rejected request leaves the prior pending sale untouched; it is
		// still awaiting the retailer's reply.
		if errors.Is(err, storage.ErrItemNotFound) {
			return b.reply(ctx, phone,
				fmt.Sprintf("❌ Item '%s' not found in inventory.", cmd.ItemName))
		}
		var stockErr *services.InsufficientStockError
		if errors.As(err, &stockErr) {
			return b.reply(ctx, phone,
				fmt.Sprintf("❌ Insufficient stock for '%s'.\nAvailable: %d\nRequested: %d",
					stockErr.ItemName, stockErr.Available, stockErr.Requested))
		}
		return err
	}

	// Only now that the replacement exists is the superseded sale cancelled,
	// so a failed request never strands the retailer with nothing pending.
	var superseded *models.Sale
	if prior != nil {
		superseded, err = b.sales.Cancel(prior.ID)
		if err != nil && !errors.Is(err, storage.ErrSaleNotPending) {
			unlock()
			return err
		}
	}
	unlock()

	message := formatInvoice(sale)
	if superseded != nil {
		message = fmt.Sprintf("ℹ️ Previous pending sale %d was cancelled.\n\n%s", superseded.ID, message)
	}
	return b.reply(ctx, phone, message)
}

// handleRetailerReply resolves the outstanding pending sale with the
// retailer's verdict. Exactly one of two racing replies wins the transition;
// the loser is told the sale was already processed.
func (b *InvoiceBot) handleRetailerReply(ctx context.Context, phone string, user *models.User, confirmed bool) error {
	unlock := b.pending.Lock(phone)

	sale, err := b.pending.Resolve(phone)
	if err != nil {
		unlock()
		return err
	}
	if sale == nil || sale.UserID != user.ID {
		unlock()
		return b.reply(ctx, phone, "❌ No pending invoice found. Please create an invoice first.")
	}

	var resolved *models.Sale
	if confirmed {
		resolved, err = b.sales.Confirm(sale.ID)
	} else {
		resolved, err = b.sales.Reject(sale.ID)
	}
	unlock()

	if err != nil {
		if errors.Is(err, storage.ErrSaleNotPending) || errors.Is(err, storage.ErrSaleNotFound) {
			return b.reply(ctx, phone, "❌ Invalid or already processed sale.")
		}
		return err
	}

	if confirmed {
		return b.reply(ctx, phone, formatSaleConfirmed(resolved))
	}
	return b.reply(ctx, phone, formatSaleRejected(resolved))
}

// reply sends one outbound text. Delivery failures are logged and swallowed.
func (b *InvoiceBot) reply(ctx context.Context, phone, message string) error {
	if err := b.messenger.SendText(ctx, phone, message); err != nil {
		log.Printf("❌ Failed to send invoice bot reply to %s: %v", phone, err)
	}
	return nil
}
