package notifications

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/logger"
)

// Mailer sends transactional storefront email.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers mail over authenticated SMTP.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	bank config.BankTransferConfig
	logg *logger.Logger
	send sendFunc
}

// NewSMTPMailer builds a mailer from the SMTP configuration. The bank
// details are embedded into confirmations for unpaid transfer orders.
func NewSMTPMailer(cfg config.SMTPConfig, bank config.BankTransferConfig, logg *logger.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &SMTPMailer{cfg: cfg, bank: bank, logg: logg, send: smtp.SendMail}, nil
}

// SendOrderConfirmation renders and delivers the confirmation email for
// a freshly placed order.
func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order required")
	}
	to := recipient(order)
	if to == "" {
		return fmt.Errorf("order %s has no customer email", order.OrderNumber)
	}

	body, err := renderOrderConfirmation(order, m.bank)
	if err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}
	subject := fmt.Sprintf("Order confirmation %s", order.OrderNumber)
	msg := m.buildMessage(to, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	m.logg.Info(m.logg.WithOrderNumber(ctx, order.OrderNumber), "order confirmation sent")
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, htmlBody string) []byte {
	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.cfg.FromName), m.cfg.From)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func recipient(order *models.Order) string {
	if order.Customer == nil {
		return ""
	}
	return order.Customer.Email
}
