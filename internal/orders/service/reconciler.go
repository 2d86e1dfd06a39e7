package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	cart "github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
	checkout "github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/money"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/notify"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/repository"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/payment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is the shopping session an order is submitted from.
type Session interface {
	ID() string
	Lines() []cart.Line
	// SubmitDraft validates the checkout draft for submission and returns the
	// snapshot that passed.
	SubmitDraft() (checkout.Draft, error)
	// Complete empties the cart and resets the checkout draft.
	Complete(ctx context.Context)
}

type Notifier interface {
	SendOrderSummary(ctx context.Context, o *domain.Order) notify.Notification
}

type PaymentMode string

const (
	PaymentOnline         PaymentMode = "ONLINE"
	PaymentCashOnDelivery PaymentMode = "CASH_ON_DELIVERY"
)

func (m PaymentMode) IsValid() bool {
	return m == PaymentOnline || m == PaymentCashOnDelivery
}

type Status string

const (
	StatusCompleted        Status = "COMPLETED"
	StatusPaymentPending   Status = "PAYMENT_PENDING"
	StatusPaymentAbandoned Status = "PAYMENT_ABANDONED"
)

type Result struct {
	Status       Status               `json:"status"`
	Order        *domain.Order        `json:"order,omitempty"`
	Intent       *payment.Intent      `json:"payment_intent,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// UnreconciledPayment is a charged payment whose order could not be marked paid.
type UnreconciledPayment struct {
	OrderID    uuid.UUID `json:"order_id"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	PaymentRef string    `json:"payment_ref"`
	Amount     string    `json:"amount"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error"`
	FailedAt   time.Time `json:"failed_at"`
}

type pendingPayment struct {
	// mu serialises outcomes for this order.
	mu      sync.Mutex
	order   *domain.Order
	intent  *payment.Intent
	session Session
	// detached entries belong to a session that already completed another order;
	// a late success still marks the order paid but leaves the session alone.
	detached bool
}

type Options struct {
	PersistTimeout time.Duration
	GatewayTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		PersistTimeout: 5 * time.Second,
		GatewayTimeout: 10 * time.Second,
	}
}

// Reconciler turns a validated cart and draft into exactly one persisted order
// and pairs online orders with their payment outcome.
type Reconciler struct {
	repo     repository.OrderRepository
	gateway  payment.Gateway
	notifier Notifier
	signer   *payment.Signer
	opts     Options
	log      *zap.Logger
	now      func() time.Time

	mu           sync.Mutex
	inFlight     map[string]struct{}
	pending      map[uuid.UUID]*pendingPayment
	unreconciled map[uuid.UUID]*UnreconciledPayment
}

func NewReconciler(
	repo repository.OrderRepository,
	gateway payment.Gateway,
	notifier Notifier,
	signer *payment.Signer,
	opts Options,
	log *zap.Logger,
) *Reconciler {
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultOptions().PersistTimeout
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = DefaultOptions().GatewayTimeout
	}
	return &Reconciler{
		repo:         repo,
		gateway:      gateway,
		notifier:     notifier,
		signer:       signer,
		opts:         opts,
		log:          logger.OrNop(log),
		now:          time.Now,
		inFlight:     make(map[string]struct{}),
		pending:      make(map[uuid.UUID]*pendingPayment),
		unreconciled: make(map[uuid.UUID]*UnreconciledPayment),
	}
}

// Submit persists one order for the session's cart. The order carries the draft
// snapshot that passed address-stage validation.
func (r *Reconciler) Submit(ctx context.Context, sess Session, user *auth.User, mode PaymentMode) (*Result, error) {
	if user == nil || user.ID == "" {
		return nil, checkout.ErrAuthRequired
	}
	if !mode.IsValid() {
		return nil, checkout.ErrInvalidPaymentMode
	}

	if !r.begin(sess.ID()) {
		return nil, checkout.ErrSubmissionInProgress
	}
	defer r.end(sess.ID())

	lines := sess.Lines()
	if len(lines) == 0 {
		return nil, checkout.ErrEmptyCart
	}
	draft, err := sess.SubmitDraft()
	if err != nil {
		return nil, err
	}

	if mode == PaymentCashOnDelivery {
		return r.submitCashOnDelivery(ctx, sess, user, lines, draft)
	}
	return r.submitOnline(ctx, sess, user, lines, draft)
}

func (r *Reconciler) submitCashOnDelivery(ctx context.Context, sess Session, user *auth.User, lines []cart.Line, draft checkout.Draft) (*Result, error) {
	order := domain.NewOrder(user.ID, lines, draft, domain.PaymentModeCashOnDelivery, r.now().UTC())

	if err := r.insert(ctx, order); err != nil {
		return nil, err
	}

	n := r.notifier.SendOrderSummary(ctx, order)
	sess.Complete(ctx)

	r.log.Info("cash on delivery order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", user.ID),
		zap.String("total", order.TotalAmount.String()))

	return &Result{Status: StatusCompleted, Order: order, Notification: &n}, nil
}

func (r *Reconciler) submitOnline(ctx context.Context, sess Session, user *auth.User, lines []cart.Line, draft checkout.Draft) (*Result, error) {
	order := domain.NewOrder(user.ID, lines, draft, domain.PaymentModeOnlineAwaiting, r.now().UTC())

	// the placeholder row must exist before the gateway sees the payment
	if err := r.insert(ctx, order); err != nil {
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, r.opts.GatewayTimeout)
	defer cancel()
	intent, err := r.gateway.Open(gwCtx, payment.Request{
		OrderID:     order.ID.String(),
		AmountMinor: money.ToMinorUnits(order.TotalAmount),
		Currency:    order.Currency,
		Description: fmt.Sprintf("Order %s", order.ID),
		Prefill: payment.Prefill{
			Name:  draft.Address.FullName,
			Email: draft.Contact.Email,
			Phone: draft.Contact.Phone,
		},
	})
	if err != nil {
		r.log.Warn("payment gateway open failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	r.mu.Lock()
	r.pending[order.ID] = &pendingPayment{order: order, intent: intent, session: sess}
	r.mu.Unlock()

	r.log.Info("online order awaiting payment",
		zap.String("order_id", order.ID.String()),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_minor", intent.AmountMinor))

	return &Result{Status: StatusPaymentPending, Order: order.Clone(), Intent: intent}, nil
}

// ResolvePayment applies the gateway's outcome to a placeholder order.
// Dismissal leaves the order, cart and draft untouched.
func (r *Reconciler) ResolvePayment(ctx context.Context, orderID uuid.UUID, outcome payment.Outcome) (*Result, error) {
	if !outcome.Status.IsValid() {
		return nil, ErrInvalidOutcome
	}

	p, ok := r.lookupPending(orderID)
	if !ok {
		return r.resolveUnknown(ctx, orderID)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	// a concurrent outcome may have settled the order while we waited
	if _, ok := r.lookupPending(orderID); !ok {
		return r.resolveUnknown(ctx, orderID)
	}

	if outcome.Status == payment.StatusDismissed {
		r.log.Info("payment dismissed", zap.String("order_id", orderID.String()))
		return &Result{Status: StatusPaymentAbandoned, Order: p.order.Clone()}, nil
	}

	if outcome.PaymentRef == "" {
		return nil, checkout.ErrMissingPaymentRef
	}
	if err := r.signer.Verify(p.intent.ID, outcome.PaymentRef, outcome.Signature); err != nil {
		r.log.Warn("payment signature rejected", zap.String("order_id", orderID.String()))
		return nil, err
	}

	if err := r.markPaid(ctx, p, outcome.PaymentRef); err != nil {
		return nil, err
	}

	order := p.order.Clone()
	order.PaymentMode = domain.PaymentModeOnlinePaid
	order.PaymentRef = outcome.PaymentRef
	order.UpdatedAt = r.now().UTC()

	r.mu.Lock()
	delete(r.pending, orderID)
	delete(r.unreconciled, orderID)
	detached := p.detached
	if !detached {
		for _, other := range r.pending {
			if other.session.ID() == p.session.ID() {
				other.detached = true
			}
		}
	}
	r.mu.Unlock()

	n := r.notifier.SendOrderSummary(ctx, order)
	if !detached {
		p.session.Complete(ctx)
	}

	r.log.Info("online order paid",
		zap.String("order_id", orderID.String()),
		zap.String("payment_ref", outcome.PaymentRef))

	return &Result{Status: StatusCompleted, Order: order, Notification: &n}, nil
}

func (r *Reconciler) markPaid(ctx context.Context, p *pendingPayment, ref string) error {
	id := p.order.ID
	dbCtx, cancel := context.WithTimeout(ctx, r.opts.PersistTimeout)
	defer cancel()

	err := r.repo.UpdateOrderStatus(dbCtx, id, domain.PaymentModeOnlinePaid, ref)
	if err == nil {
		return nil
	}

	// a previous attempt may have committed before its response was lost
	if errors.Is(err, repository.ErrIllegalTransition) {
		if existing, getErr := r.repo.GetOrderByID(dbCtx, id); getErr == nil &&
			existing.PaymentMode == domain.PaymentModeOnlinePaid && existing.PaymentRef == ref {
			return nil
		}
	}

	r.log.Error("payment captured but order not marked paid",
		zap.String("order_id", id.String()),
		zap.String("payment_ref", ref),
		zap.String("user_id", p.order.UserID),
		zap.String("amount", p.order.TotalAmount.String()),
		zap.Error(err))

	r.mu.Lock()
	u, ok := r.unreconciled[id]
	if !ok {
		u = &UnreconciledPayment{
			OrderID:   id,
			UserID:    p.order.UserID,
			SessionID: p.session.ID(),
			Amount:    p.order.TotalAmount.String(),
		}
		r.unreconciled[id] = u
	}
	u.PaymentRef = ref
	u.Attempts++
	u.LastError = err.Error()
	u.FailedAt = r.now().UTC()
	r.mu.Unlock()

	return &checkout.PersistenceError{
		Phase:      checkout.AfterPayment,
		OrderID:    id.String(),
		PaymentRef: ref,
		Err:        err,
	}
}

// resolveUnknown answers outcomes for orders with no pending payment in this process.
func (r *Reconciler) resolveUnknown(ctx context.Context, orderID uuid.UUID) (*Result, error) {
	dbCtx, cancel := context.WithTimeout(ctx, r.opts.PersistTimeout)
	defer cancel()

	existing, err := r.repo.GetOrderByID(dbCtx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, checkout.ErrUnknownPayment
	}
	if err != nil {
		return nil, &checkout.PersistenceError{Phase: checkout.BeforePayment, OrderID: orderID.String(), Err: err}
	}
	if existing.PaymentMode == domain.PaymentModeOnlinePaid {
		return &Result{Status: StatusCompleted, Order: existing}, nil
	}
	return nil, checkout.ErrUnknownPayment
}

func (r *Reconciler) insert(ctx context.Context, order *domain.Order) error {
	dbCtx, cancel := context.WithTimeout(ctx, r.opts.PersistTimeout)
	defer cancel()

	if err := r.repo.InsertOrder(dbCtx, order); err != nil {
		r.log.Warn("order insert failed",
			zap.String("order_id", order.ID.String()),
			zap.String("payment_mode", order.PaymentMode.String()),
			zap.Error(err))
		return &checkout.PersistenceError{Phase: checkout.BeforePayment, OrderID: order.ID.String(), Err: err}
	}
	return nil
}

// Unreconciled lists charged payments whose orders are not yet marked paid, oldest first.
func (r *Reconciler) Unreconciled() []UnreconciledPayment {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]UnreconciledPayment, 0, len(r.unreconciled))
	for _, u := range r.unreconciled {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FailedAt.Before(out[j].FailedAt) })
	return out
}

// PendingIntent returns the open payment intent for an order, if any.
func (r *Reconciler) PendingIntent(orderID uuid.UUID) (*payment.Intent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[orderID]
	if !ok {
		return nil, false
	}
	return p.intent, true
}

func (r *Reconciler) begin(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[sessionID]; busy {
		return false
	}
	r.inFlight[sessionID] = struct{}{}
	return true
}

func (r *Reconciler) end(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, sessionID)
}

func (r *Reconciler) lookupPending(id uuid.UUID) (*pendingPayment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	return p, ok
}
