package notifications

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/kq-050/ArtmarketPlace/pkg/db/models"
	"github.com/kq-050/ArtmarketPlace/pkg/logger"
)

// ArtistSale is the slice of an order belonging to one artist.
type ArtistSale struct {
	ArtistID    uuid.UUID
	Email       string
	Name        string
	Items       []models.OrderItem
	PayoutCents int64
}

// DispatchInput carries everything needed to notify all parties of a sale.
type DispatchInput struct {
	Order       *models.Order
	BuyerEmail  string
	BuyerName   string
	ArtistSales []ArtistSale
	InvoicePDF  []byte
}

// Dispatcher fans out the post-settlement emails: buyer confirmation with the
// invoice attached, an operator alert, and one sold notice per artist. Each
// recipient is independent; one failed delivery never blocks the others, and
// the caller treats the aggregated error as diagnostic only.
type Dispatcher struct {
	mailer        Mailer
	log           *logger.Logger
	operatorEmail string
	operatorName  string
}

func NewDispatcher(mailer Mailer, log *logger.Logger, operatorEmail, operatorName string) *Dispatcher {
	return &Dispatcher{
		mailer:        mailer,
		log:           log,
		operatorEmail: operatorEmail,
		operatorName:  operatorName,
	}
}

// Dispatch sends every notification for a settled order and returns the
// combined delivery errors, if any.
func (d *Dispatcher) Dispatch(ctx context.Context, input DispatchInput) error {
	messages := d.buildMessages(input)

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, msg := range messages {
		wg.Add(1)
		go func(msg Message) {
			defer wg.Done()
			if err := d.mailer.Send(ctx, msg); err != nil {
				d.log.Error(d.log.WithField(ctx, "recipient", msg.ToEmail), "notification delivery failed", err)
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("notify %s: %w", msg.ToEmail, err))
				mu.Unlock()
			}
		}(msg)
	}
	wg.Wait()
	return errs
}

func (d *Dispatcher) buildMessages(input DispatchInput) []Message {
	var messages []Message
	order := input.Order

	if input.BuyerEmail != "" {
		msg := Message{
			ToEmail:   input.BuyerEmail,
			ToName:    input.BuyerName,
			Subject:   fmt.Sprintf("Your %s order is confirmed", d.operatorName),
			PlainBody: buyerBody(order, input.BuyerName),
		}
		if len(input.InvoicePDF) > 0 {
			msg.Attachments = []Attachment{{
				Filename:    fmt.Sprintf("invoice-%s.pdf", order.ID),
				ContentType: "application/pdf",
				Data:        input.InvoicePDF,
			}}
		}
		messages = append(messages, msg)
	}

	if d.operatorEmail != "" {
		messages = append(messages, Message{
			ToEmail:   d.operatorEmail,
			ToName:    d.operatorName,
			Subject:   fmt.Sprintf("New sale: order %s", order.ID),
			PlainBody: operatorBody(order),
		})
	}

	for _, sale := range input.ArtistSales {
		if sale.Email == "" {
			continue
		}
		messages = append(messages, Message{
			ToEmail:   sale.Email,
			ToName:    sale.Name,
			Subject:   "Your artwork sold!",
			PlainBody: artistBody(sale),
		})
	}
	return messages
}

func buyerBody(order *models.Order, buyerName string) string {
	var b strings.Builder
	if buyerName != "" {
		fmt.Fprintf(&b, "Hi %s,\n\n", buyerName)
	}
	b.WriteString("Thank you for your purchase. Your order is confirmed.\n\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %s - %s\n", item.Title, dollars(item.PriceCents))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", dollars(order.TotalCents))
	fmt.Fprintf(&b, "Payment reference: %s\n", order.PaymentID)
	b.WriteString("\nYour invoice is attached.\n")
	return b.String()
}

func operatorBody(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s settled.\n\n", order.ID)
	fmt.Fprintf(&b, "Total:      %s\n", dollars(order.TotalCents))
	fmt.Fprintf(&b, "Commission: %s\n", dollars(order.CommissionCents))
	fmt.Fprintf(&b, "Payout:     %s\n", dollars(order.PayoutCents))
	fmt.Fprintf(&b, "Items:      %d\n", len(order.Items))
	return b.String()
}

func artistBody(sale ArtistSale) string {
	var b strings.Builder
	if sale.Name != "" {
		fmt.Fprintf(&b, "Hi %s,\n\n", sale.Name)
	}
	b.WriteString("Good news: your artwork just sold.\n\n")
	for _, item := range sale.Items {
		fmt.Fprintf(&b, "  %s - %s\n", item.Title, dollars(item.PriceCents))
	}
	fmt.Fprintf(&b, "\nYour payout for this sale: %s\n", dollars(sale.PayoutCents))
	return b.String()
}

func dollars(cents int64) string {
	return "$" + decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
