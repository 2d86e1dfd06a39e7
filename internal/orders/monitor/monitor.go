// Package monitor reports orders that need manual reconciliation. It never mutates orders.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/repository"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/service"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	KindStaleAwaiting = "stale_awaiting"
	KindUnreconciled  = "unreconciled_payment"
)

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// UnreconciledSource lists charged payments whose orders are not marked paid.
type UnreconciledSource interface {
	Unreconciled() []service.UnreconciledPayment
}

type Notice struct {
	Kind        string    `json:"kind"`
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	PaymentMode string    `json:"payment_mode,omitempty"`
	PaymentRef  string    `json:"payment_ref,omitempty"`
	Amount      string    `json:"amount"`
	Since       time.Time `json:"since"`
	Detail      string    `json:"detail,omitempty"`
}

type Monitor struct {
	repo       repository.OrderRepository
	source     UnreconciledSource
	writer     MessageWriter
	staleAfter time.Duration
	tick       time.Duration
	timeout    time.Duration
	batch      int
	log        *zap.Logger
	now        func() time.Time

	// reported avoids re-publishing the same order on every tick.
	reported map[string]struct{}
}

func NewMonitor(repo repository.OrderRepository, source UnreconciledSource, writer MessageWriter, staleAfter time.Duration, log *zap.Logger) *Monitor {
	return &Monitor{
		repo:       repo,
		source:     source,
		writer:     writer,
		staleAfter: staleAfter,
		tick:       time.Minute,
		timeout:    5 * time.Second,
		batch:      100,
		log:        logger.OrNop(log),
		now:        time.Now,
		reported:   make(map[string]struct{}),
	}
}

func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Scan(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Scan publishes one notice per newly detected order and returns how many were published.
func (m *Monitor) Scan(ctx context.Context) int {
	return m.scanAwaiting(ctx) + m.scanUnreconciled(ctx)
}

func (m *Monitor) scanAwaiting(ctx context.Context) int {
	dbCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	orders, err := m.repo.ListAwaitingOlderThan(dbCtx, m.now().Add(-m.staleAfter), m.batch)
	if err != nil {
		m.log.Warn("failed to list awaiting orders", zap.Error(err))
		return 0
	}

	published := 0
	for _, o := range orders {
		if m.publish(ctx, staleNotice(o)) {
			published++
		}
	}
	return published
}

func (m *Monitor) scanUnreconciled(ctx context.Context) int {
	if m.source == nil {
		return 0
	}
	published := 0
	for _, u := range m.source.Unreconciled() {
		if m.publish(ctx, unreconciledNotice(u)) {
			published++
		}
	}
	return published
}

func (m *Monitor) publish(ctx context.Context, n Notice) bool {
	key := n.Kind + ":" + n.OrderID
	if _, done := m.reported[key]; done {
		return false
	}

	msg, err := buildMessage(n)
	if err != nil {
		m.log.Error("failed to build reconciliation notice", zap.String("order_id", n.OrderID), zap.Error(err))
		return false
	}

	pubCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.writer.WriteMessages(pubCtx, msg); err != nil {
		m.log.Warn("failed to publish reconciliation notice",
			zap.String("order_id", n.OrderID),
			zap.String("kind", n.Kind),
			zap.Error(err))
		return false
	}

	m.reported[key] = struct{}{}
	m.log.Info("reconciliation notice published", zap.String("order_id", n.OrderID), zap.String("kind", n.Kind))
	return true
}

func staleNotice(o *domain.Order) Notice {
	return Notice{
		Kind:        KindStaleAwaiting,
		OrderID:     o.ID.String(),
		UserID:      o.UserID,
		PaymentMode: o.PaymentMode.String(),
		Amount:      o.TotalAmount.StringFixed(2),
		Since:       o.CreatedAt,
	}
}

func unreconciledNotice(u service.UnreconciledPayment) Notice {
	return Notice{
		Kind:        KindUnreconciled,
		OrderID:     u.OrderID.String(),
		UserID:      u.UserID,
		PaymentMode: domain.PaymentModeOnlineAwaiting.String(),
		PaymentRef:  u.PaymentRef,
		Amount:      u.Amount,
		Since:       u.FailedAt,
		Detail:      u.LastError,
	}
}

func buildMessage(n Notice) (kafka.Message, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal notice: %w", err)
	}
	return kafka.Message{
		Key:   []byte(n.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order." + n.Kind)},
		},
	}, nil
}

// LogWriter stands in for Kafka when no brokers are configured.
type LogWriter struct {
	log *zap.Logger
}

func NewLogWriter(log *zap.Logger) *LogWriter {
	return &LogWriter{log: logger.OrNop(log)}
}

func (w *LogWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		w.log.Warn("reconciliation notice", zap.ByteString("order_id", m.Key), zap.ByteString("payload", m.Value))
	}
	return nil
}
