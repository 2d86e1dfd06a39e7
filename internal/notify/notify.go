// Package notify formats order summaries and delivers them to the merchant.
package notify

import (
	"context"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"go.uber.org/zap"
)

// Notification is an order summary plus the deep links a client can open to send it.
type Notification struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	PaymentMode string    `json:"payment_mode"`
	Total       string    `json:"total"`
	Summary     string    `json:"summary"`
	WhatsAppURL string    `json:"whatsapp_url,omitempty"`
	MailtoURL   string    `json:"mailto_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Messenger delivers a notification through some channel.
type Messenger interface {
	Send(ctx context.Context, n Notification) error
}

type Service struct {
	merchantWhatsApp string
	merchantEmail    string
	messenger        Messenger
	timeout          time.Duration
	log              *zap.Logger
}

func NewService(merchantWhatsApp, merchantEmail string, messenger Messenger, log *zap.Logger) *Service {
	return &Service{
		merchantWhatsApp: merchantWhatsApp,
		merchantEmail:    merchantEmail,
		messenger:        messenger,
		timeout:          5 * time.Second,
		log:              logger.OrNop(log),
	}
}

func (s *Service) Compose(o *domain.Order) Notification {
	summary := Summary(o)
	n := Notification{
		OrderID:     o.ID.String(),
		UserID:      o.UserID,
		PaymentMode: o.PaymentMode.String(),
		Total:       o.TotalAmount.StringFixed(2),
		Summary:     summary,
		CreatedAt:   time.Now().UTC(),
	}
	if s.merchantWhatsApp != "" {
		n.WhatsAppURL = WhatsAppLink(s.merchantWhatsApp, summary)
	}
	if s.merchantEmail != "" {
		n.MailtoURL = MailtoLink(s.merchantEmail, "New Order "+n.OrderID, summary)
	}
	return n
}

// SendOrderSummary is fire-and-forget: delivery failures are logged and the
// composed notification is returned either way.
func (s *Service) SendOrderSummary(ctx context.Context, o *domain.Order) Notification {
	n := s.Compose(o)
	if s.messenger == nil {
		return n
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.messenger.Send(ctx, n); err != nil {
		s.log.Warn("order summary delivery failed", zap.String("order_id", n.OrderID), zap.Error(err))
	}
	return n
}

// LogMessenger writes notifications to the log. Used when no broker is configured.
type LogMessenger struct {
	log *zap.Logger
}

func NewLogMessenger(log *zap.Logger) *LogMessenger {
	return &LogMessenger{log: logger.OrNop(log)}
}

func (m *LogMessenger) Send(_ context.Context, n Notification) error {
	m.log.Info("order summary",
		zap.String("order_id", n.OrderID),
		zap.String("payment_mode", n.PaymentMode),
		zap.String("total", n.Total),
		zap.String("whatsapp_url", n.WhatsAppURL))
	return nil
}
