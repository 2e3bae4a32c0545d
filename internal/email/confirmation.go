package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/example/pizza-shop/internal/money"
	"github.com/shopspring/decimal"
)

// Line is one ordered row as shown in the e-mail.
type Line struct {
	Name        string
	Ingredients []string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Confirmation is everything the order confirmation e-mail shows.
type Confirmation struct {
	OrderID      string
	CustomerName string
	Address      string
	Lines        []Line
	ItemsTotal   decimal.Decimal
	DeliveryFee  decimal.Decimal
	Total        decimal.Decimal
}

// ShortID is the order number printed in the subject.
func (c Confirmation) ShortID() string {
	if len(c.OrderID) > 8 {
		return c.OrderID[:8]
	}
	return c.OrderID
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"money": money.Format,
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 24px;">Thank you for your order, {{.CustomerName}}!</h1>
	<p>Order <strong style="font-family: monospace;">{{.OrderID}}</strong> will be delivered to {{.Address}}.</p>
	<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
		<thead>
			<tr style="background: #f8f9fa;">
				<th style="padding: 8px; text-align: left;">Item</th>
				<th style="padding: 8px; text-align: center;">Qty</th>
				<th style="padding: 8px; text-align: right;">Price</th>
				<th style="padding: 8px; text-align: right;">Subtotal</th>
			</tr>
		</thead>
		<tbody>
		{{- range .Lines}}
			<tr>
				<td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Name}}{{if .Ingredients}}<br><small>+ {{range $i, $n := .Ingredients}}{{if $i}}, {{end}}{{$n}}{{end}}</small>{{end}}</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">{{money .UnitPrice}}</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">{{money .LineTotal}}</td>
			</tr>
		{{- end}}
		</tbody>
	</table>
	<p style="text-align: right;">Items: {{money .ItemsTotal}}<br>Delivery: {{money .DeliveryFee}}<br><strong>Total: {{money .Total}}</strong></p>
	<p style="font-size: 12px; color: #999;">This is an automated message. Please do not reply.</p>
</body>
</html>
`))

// BuildConfirmationBody renders the HTML body. Customer input is escaped.
func BuildConfirmationBody(c Confirmation) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}

// Service sends customer e-mails through a Sender.
type Service struct {
	sender Sender
}

func NewService(sender Sender) *Service {
	return &Service{sender: sender}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(ctx context.Context, to string, c Confirmation) error {
	body, err := BuildConfirmationBody(c)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Your pizza order %s is confirmed", c.ShortID())
	return s.sender.Send(ctx, to, subject, body)
}
