// Package parser turns raw WhatsApp message text into typed bot commands.
// Parsing is pure: no I/O, no side effects, every outcome is a value.
package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Grammar selects which bot persona's command set to parse against.
type Grammar int

const (
	InventoryGrammar Grammar = iota
	InvoiceGrammar
)

// Command is the parsed form of one inbound message. Exactly one concrete
// type below is returned per message; dispatch switches over them.
type Command interface {
	isCommand()
}

// Login carries the credentials from "login user_id password".
type Login struct {
	UserID   string
	Password string
}

// Logout ends the current session.
type Logout struct{}

// Help requests the persona's help text.
type Help struct{}

// AddItem creates a new catalog item (inventory persona).
type AddItem struct {
	ItemName string
	Quantity int
	Price    float64
}

// UpdateStock sets an item's quantity (inventory persona).
type UpdateStock struct {
	ItemName string
	Quantity int
}

// CheckStock asks for one item's stock level (inventory persona).
type CheckStock struct {
	ItemName string
}

// ViewItems lists the whole catalog (inventory persona).
type ViewItems struct{}

// LowStock lists items below the low stock threshold (inventory persona).
type LowStock struct{}

// InvoiceRequest carries a "customer : item : quantity" sale request
// (invoice persona).
type InvoiceRequest struct {
	CustomerName string
	ItemName     string
	Quantity     int
}

// Confirm is the bare "success" reply resolving a pending sale.
type Confirm struct{}

// Reject is the bare "fail"/"failed" reply resolving a pending sale.
type Reject struct{}

// Unknown is returned for an unrecognized leading token. Hint is a generic
// pointer to the help command, suitable for sending back verbatim.
type Unknown struct {
	Hint string
}

func (Login) isCommand()          {}
func (Logout) isCommand()         {}
func (Help) isCommand()           {}
func (AddItem) isCommand()        {}
func (UpdateStock) isCommand()    {}
func (CheckStock) isCommand()     {}
func (ViewItems) isCommand()      {}
func (LowStock) isCommand()       {}
func (InvoiceRequest) isCommand() {}
func (Confirm) isCommand()        {}
func (Reject) isCommand()         {}
func (Unknown) isCommand()        {}

// FormatError reports a recognized command with the wrong shape. Usage names
// the exact expected format so the reply is actionable.
type FormatError struct {
	Usage string
}

func (e *FormatError) Error() string {
	return "Invalid format. Use: " + e.Usage
}

// NumberError reports an argument that failed numeric conversion, distinct
// from a missing argument.
type NumberError struct {
	Field string
	Value string
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("Invalid %s: '%s'", e.Field, e.Value)
}

const unknownHint = "Unknown command. Type 'help' for available commands."

// Parse parses one raw message line under the given persona grammar.
func Parse(g Grammar, text string) (Command, error) {
	switch g {
	case InvoiceGrammar:
		return parseInvoice(text)
	default:
		return parseInventory(text)
	}
}

// parseInventory handles the space-delimited inventory grammar. Only the
// leading command word is lower-cased; argument text keeps its case and is
// re-titled by the handler, not here.
func parseInventory(text string) (Command, error) {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) == 0 {
		return Unknown{Hint: unknownHint}, nil
	}

	switch strings.ToLower(parts[0]) {
	case "login":
		if len(parts) != 3 {
			return nil, &FormatError{Usage: "login user_id password"}
		}
		return Login{UserID: parts[1], Password: parts[2]}, nil

	case "logout":
		return Logout{}, nil

	case "help":
		return Help{}, nil

	case "view":
		return ViewItems{}, nil

	case "lowstock":
		return LowStock{}, nil

	case "add":
		// add item_name quantity price; the name is every token except the
		// last two.
		if len(parts) < 4 {
			return nil, &FormatError{Usage: "add item_name quantity price"}
		}
		quantity, err := strconv.Atoi(parts[len(parts)-2])
		if err != nil {
			return nil, &NumberError{Field: "quantity", Value: parts[len(parts)-2]}
		}
		price, err := strconv.ParseFloat(parts[len(parts)-1], 64)
		if err != nil {
			return nil, &NumberError{Field: "price", Value: parts[len(parts)-1]}
		}
		return AddItem{
			ItemName: strings.Join(parts[1:len(parts)-2], " "),
			Quantity: quantity,
			Price:    price,
		}, nil

	case "update":
		if len(parts) < 3 {
			return nil, &FormatError{Usage: "update item_name quantity"}
		}
		quantity, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			return nil, &NumberError{Field: "quantity", Value: parts[len(parts)-1]}
		}
		return UpdateStock{
			ItemName: strings.Join(parts[1:len(parts)-1], " "),
			Quantity: quantity,
		}, nil

	case "stock":
		if len(parts) < 2 {
			return nil, &FormatError{Usage: "stock item_name"}
		}
		return CheckStock{ItemName: strings.Join(parts[1:], " ")}, nil
	}

	return Unknown{Hint: unknownHint}, nil
}

// parseInvoice handles the invoice grammar. A fixed set of bare keywords is
// checked before the colon-delimited request format, regardless of spacing.
func parseInvoice(text string) (Command, error) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	switch lower {
	case "":
		return Unknown{Hint: unknownHint}, nil
	case "success":
		return Confirm{}, nil
	case "fail", "failed":
		return Reject{}, nil
	case "logout":
		return Logout{}, nil
	case "help":
		return Help{}, nil
	}

	if lower == "login" || strings.HasPrefix(lower, "login ") {
		parts := strings.Fields(trimmed)
		if len(parts) != 3 {
			return nil, &FormatError{Usage: "login user_id password"}
		}
		return Login{UserID: parts[1], Password: parts[2]}, nil
	}

	if !strings.Contains(trimmed, ":") {
		return nil, &FormatError{Usage: "customer_name: item_name: quantity"}
	}

	segments := strings.Split(trimmed, ":")
	if len(segments) != 3 {
		return nil, &FormatError{Usage: "customer_name: item_name: quantity"}
	}
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}

	quantity, err := strconv.Atoi(segments[2])
	if err != nil || quantity <= 0 {
		return nil, &NumberError{Field: "quantity", Value: segments[2]}
	}

	return InvoiceRequest{
		CustomerName: segments[0],
		ItemName:     segments[1],
		Quantity:     quantity,
	}, nil
}
