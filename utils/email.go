// utils/email.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"bioshop/config"
	"bioshop/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Tag     string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns the mailer selected by cfg.Provider.
func NewMailer(cfg config.MailConfig, log *zap.Logger) (Mailer, error) {
	switch cfg.Provider {
	case config.MailPostmark:
		return NewPostmarkMailer(cfg.PostmarkToken, cfg.Sender), nil
	case config.MailSendGrid:
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.Sender), nil
	case config.MailLog, "":
		return &LogMailer{log: log}, nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
}

// PostmarkMailer handles sending emails using Postmark
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	return &PostmarkMailer{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}
}

func (m *PostmarkMailer) Send(_ context.Context, msg Message) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTML,
		TextBody: msg.Text,
		Tag:      msg.Tag,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("", from),
	}
}

func (m *SendGridMailer) Send(_ context.Context, msg Message) error {
	message := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail("", msg.To), msg.Text, msg.HTML)
	if msg.Tag != "" {
		message.AddCategories(msg.Tag)
	}
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer only logs what would have been sent. Used in development.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("email not sent (log mailer)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("tag", msg.Tag))
	return nil
}

var templateFuncs = map[string]any{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("02 Jan 2006") },
}

const orderConfirmationText = `Dear {{.Customer.Name}},

Thank you for your order {{.OrderNumber}} placed on {{date .CreatedAt}}.

{{range .Items}}{{.ProductName}} ({{.ProductCode}}) x{{.Quantity}} @ {{money .UnitPrice}} = {{money .TotalPrice}}
{{end}}
Subtotal: {{money .Subtotal}}
Tax:      {{money .Tax}}
Shipping: {{money .Shipping}}
Total:    {{money .Total}} {{.Currency}}

We will ship to:
{{.ShippingAddress.Street}}
{{.ShippingAddress.City}} {{.ShippingAddress.ZipCode}}
{{.ShippingAddress.Country}}

Payment status: {{.PaymentStatus}}

Thank you for choosing compostable packaging.
`

const orderConfirmationHTML = `<p>Dear {{.Customer.Name}},</p>
<p>Thank you for your order <strong>{{.OrderNumber}}</strong> placed on {{date .CreatedAt}}.</p>
<table>
{{range .Items}}<tr><td>{{.ProductName}} ({{.ProductCode}})</td><td>{{.Quantity}}</td><td>{{money .UnitPrice}}</td><td>{{money .TotalPrice}}</td></tr>
{{end}}</table>
<p>Subtotal: {{money .Subtotal}}<br>Tax: {{money .Tax}}<br>Shipping: {{money .Shipping}}<br><strong>Total: {{money .Total}} {{.Currency}}</strong></p>
<p>Thank you for choosing compostable packaging.</p>
`

var (
	confirmationText = texttemplate.Must(texttemplate.New("confirmation.txt").Funcs(templateFuncs).Parse(orderConfirmationText))
	confirmationHTML = htmltemplate.Must(htmltemplate.New("confirmation.html").Funcs(templateFuncs).Parse(orderConfirmationHTML))
)

// OrderConfirmation renders the email sent to the customer after checkout.
func OrderConfirmation(order *models.Order) (Message, error) {
	var text, html bytes.Buffer
	if err := confirmationText.Execute(&text, order); err != nil {
		return Message{}, fmt.Errorf("render confirmation text: %w", err)
	}
	if err := confirmationHTML.Execute(&html, order); err != nil {
		return Message{}, fmt.Errorf("render confirmation html: %w", err)
	}
	return Message{
		To:      order.Customer.Email,
		Subject: fmt.Sprintf("Order Confirmation - %s", order.OrderNumber),
		Text:    text.String(),
		HTML:    html.String(),
		Tag:     "order-confirmation",
	}, nil
}

// OrderStatusChanged renders the notice sent when an admin updates an order.
func OrderStatusChanged(order *models.Order) Message {
	text := fmt.Sprintf("Dear %s,\n\nYour order %s is now %s (payment: %s, fulfillment: %s).\n\nThank you for shopping with us!\n",
		order.Customer.Name, order.OrderNumber, order.Status, order.PaymentStatus, order.FulfillmentStatus)
	return Message{
		To:      order.Customer.Email,
		Subject: fmt.Sprintf("Order %s updated", order.OrderNumber),
		Text:    text,
		HTML:    "<pre>" + htmltemplate.HTMLEscapeString(text) + "</pre>",
		Tag:     "order-status",
	}
}
