package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/utils"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Notifier delivers a short notice to a user
type Notifier interface {
	Notify(ctx context.Context, to models.User, subject, body string) error
}

// MailNotifier sends notices by SMTP
type MailNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailNotifier creates a notifier from the SMTP settings
func NewMailNotifier(cfg *config.Config) *MailNotifier {
	return &MailNotifier{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

// Notify emails the user; users without an email address are skipped
func (n *MailNotifier) Notify(ctx context.Context, to models.User, subject, body string) error {
	if to.Email == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to.Email, err)
	}
	return nil
}

// NoopNotifier drops every notice
type NoopNotifier struct{}

// Notify does nothing
func (NoopNotifier) Notify(ctx context.Context, to models.User, subject, body string) error {
	return nil
}

var notifierInstance Notifier = NoopNotifier{}

// GetNotifier returns the notifier instance
func GetNotifier() Notifier {
	return notifierInstance
}

// SetNotifier sets the notifier instance; nil restores the no-op notifier
func SetNotifier(notifier Notifier) {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	notifierInstance = notifier
}

// SentNotice is a notice captured by MockNotifier
type SentNotice struct {
	UserID  uint
	Subject string
	Body    string
}

// MockNotifier records notices for assertions
type MockNotifier struct {
	mu      sync.Mutex
	notices []SentNotice
}

// NewMockNotifier creates an empty mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify records the notice
func (m *MockNotifier) Notify(ctx context.Context, to models.User, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, SentNotice{UserID: to.ID, Subject: subject, Body: body})
	return nil
}

// Notices returns a copy of the recorded notices
func (m *MockNotifier) Notices() []SentNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentNotice(nil), m.notices...)
}

// notify sends through the global notifier and only logs failures
func notify(ctx context.Context, to models.User, subject, body string) {
	if err := GetNotifier().Notify(ctx, to, subject, body); err != nil {
		log.Warn().Err(err).Uint("user_id", to.ID).Str("subject", subject).Msg("notification failed")
	}
}

func notifyOrderDecision(ctx context.Context, order *models.Order) {
	switch order.Status {
	case models.OrderApproved:
		notify(ctx, order.Customer,
			fmt.Sprintf("Order %s approved", order.OrderNo),
			fmt.Sprintf("Your order %s was approved at %s. Please transfer the amount with reference %s and upload the receipt.",
				order.OrderNo, utils.FormatVND(order.Price), order.ShortOrderNo()))
	case models.OrderCancelled:
		notify(ctx, order.Customer,
			fmt.Sprintf("Order %s declined", order.OrderNo),
			fmt.Sprintf("Your order %s was declined. %s", order.OrderNo, order.AdminNote))
	}
}

func notifyStatusChange(ctx context.Context, order *models.Order) {
	notify(ctx, order.Customer,
		fmt.Sprintf("Order %s is now %s", order.OrderNo, order.Status),
		fmt.Sprintf("The status of your order %s changed to %s. %s", order.OrderNo, order.Status, order.AdminNote))
}

func notifyPaymentDecision(ctx context.Context, order *models.Order, payment *models.Payment) {
	notify(ctx, order.Customer,
		fmt.Sprintf("Payment for %s %s", order.OrderNo, payment.Status),
		fmt.Sprintf("Your payment of %s for order %s was %s. %s",
			utils.FormatVND(payment.Amount), order.OrderNo, payment.Status, payment.AdminNote))
}
