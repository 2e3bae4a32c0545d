package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/pizza-shop/internal/domain/order"
	"github.com/example/pizza-shop/internal/email"
	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/example/pizza-shop/internal/pricing"
)

// Handler processes events for sending notifications
type Handler struct {
	emailService *email.Service
}

func NewHandler(emailSvc *email.Service) *Handler {
	return &Handler{emailService: emailSvc}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}
	return h.Notify(ctx, event)
}

// Notify reacts to one stored event. Only OrderPlaced sends mail.
func (h *Handler) Notify(ctx context.Context, event store.Event) error {
	if event.EventType != order.EventOrderPlaced {
		return nil
	}

	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}
	log.Printf("[Notifier] Processing OrderPlaced event for order %s", e.OrderID)

	if e.Contact.Email == "" {
		log.Printf("[Notifier] Order %s has no e-mail address, skipping", e.OrderID)
		return nil
	}

	if err := h.emailService.SendOrderConfirmation(ctx, e.Contact.Email, confirmation(e)); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", e.Contact.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", e.Contact.Email, e.OrderID)
	return nil
}

func confirmation(e order.OrderPlaced) email.Confirmation {
	c := email.Confirmation{
		OrderID:      e.OrderID,
		CustomerName: e.Contact.FirstName + " " + e.Contact.LastName,
		Address:      e.Contact.Address,
		Lines:        make([]email.Line, 0, len(e.Items)),
		ItemsTotal:   e.ItemsTotal,
		DeliveryFee:  e.DeliveryFee,
		Total:        e.Total,
	}
	for _, item := range e.Items {
		line := email.Line{Name: item.Name, Quantity: item.Quantity}
		for _, ing := range item.Ingredients {
			line.Ingredients = append(line.Ingredients, ing.Name)
		}
		// Placed orders were priced at checkout.
		if unit, err := pricing.UnitPrice(item.Line()); err == nil {
			line.UnitPrice = unit
		}
		if total, err := pricing.CartLineTotal(item.Line()); err == nil {
			line.LineTotal = total
		}
		c.Lines = append(c.Lines, line)
	}
	return c
}
