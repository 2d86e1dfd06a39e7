package service

import (
	"context"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	cart "github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
	catalog "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/money"
	orders "github.com/Hariskhan09400/x-one-boutique-1/internal/orders/service"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Catalog interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type Reconciler interface {
	Submit(ctx context.Context, sess orders.Session, user *auth.User, mode orders.PaymentMode) (*orders.Result, error)
	ResolvePayment(ctx context.Context, orderID uuid.UUID, outcome payment.Outcome) (*orders.Result, error)
}

type CartView struct {
	Lines     []cart.Line     `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
}

func viewOf(c *cart.Cart) CartView {
	return CartView{
		Lines:     c.Lines(),
		ItemCount: c.ItemCount(),
		Total:     c.Total(),
		Currency:  money.Currency,
	}
}

// Service is the storefront's entry point for cart and checkout operations,
// addressed by shopping session key.
type Service struct {
	registry   *Registry
	catalog    Catalog
	reconciler Reconciler
	users      auth.Provider
	log        *zap.Logger
}

func NewService(registry *Registry, catalog Catalog, reconciler Reconciler, users auth.Provider, log *zap.Logger) *Service {
	return &Service{
		registry:   registry,
		catalog:    catalog,
		reconciler: reconciler,
		users:      users,
		log:        logger.OrNop(log),
	}
}

func (s *Service) Cart(ctx context.Context, key string) (CartView, error) {
	sess, err := s.registry.Get(ctx, key)
	if err != nil {
		return CartView{}, err
	}
	return viewOf(sess.Cart()), nil
}

func (s *Service) AddItem(ctx context.Context, key, productID string) (CartView, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	sess, err := s.registry.Get(ctx, key)
	if err != nil {
		return CartView{}, err
	}

	sess.mutate(ctx, func(c *cart.Cart) { c.AddItem(*p) })
	return viewOf(sess.Cart()), nil
}

func (s *Service) ChangeQuantity(ctx context.Context, key, productID string, delta int) (CartView, error) {
	sess, err := s.registry.Get(ctx, key)
	if err != nil {
		return CartView{}, err
	}
	sess.mutate(ctx, func(c *cart.Cart) { c.SetQuantity(productID, delta) })
	return viewOf(sess.Cart()), nil
}

func (s *Service) RemoveItem(ctx context.Context, key, productID string) (CartView, error) {
	sess, err := s.registry.Get(ctx, key)
	if err != nil {
		return CartView{}, err
	}
	sess.mutate(ctx, func(c *cart.Cart) { c.RemoveItem(productID) })
	return viewOf(sess.Cart()), nil
}

func (s *Service) ClearCart(ctx context.Context, key string) (CartView, error) {
	sess, err := s.registry.Get(ctx, key)
	if err != nil {
		return CartView{}, err
	}
	sess.mutate(ctx, func(c *cart.Cart) { c.Clear() })
	return viewOf(sess.Cart()), nil
}

func (s *Service) Checkout(ctx context.Context, key string) (domain.Draft, error) {
	sess, err := s.registry.Get(ctx, key)
	if err != nil {
		return domain.Draft{}, err
	}
	return sess.Draft(), nil
}

func (s *Service) Open(ctx context.Context, key string) (domain.Draft, error) {
	return s.withMachine(ctx, key, func(m *Machine) error { m.Open(); return nil })
}

func (s *Service) Close(ctx context.Context, key string) (domain.Draft, error) {
	return s.withMachine(ctx, key, func(m *Machine) error { m.Close(); return nil })
}

func (s *Service) UpdateContact(ctx context.Context, key string, c domain.Contact) (domain.Draft, error) {
	return s.withMachine(ctx, key, func(m *Machine) error { m.SetContact(c); return nil })
}

func (s *Service) UpdateAddress(ctx context.Context, key string, a domain.Address) (domain.Draft, error) {
	return s.withMachine(ctx, key, func(m *Machine) error { m.SetAddress(a); return nil })
}

func (s *Service) Advance(ctx context.Context, key string) (domain.Draft, error) {
	return s.withMachine(ctx, key, func(m *Machine) error {
		_, err := m.Advance(ctx)
		if v, ok := domain.AsValidation(err); ok {
			s.log.Debug("checkout advance rejected", zap.String("field", string(v.Field)), zap.String("reason", string(v.Reason)))
		}
		return err
	})
}

func (s *Service) Back(ctx context.Context, key string) (domain.Draft, error) {
	return s.withMachine(ctx, key, func(m *Machine) error { m.Back(); return nil })
}

// Submit places the order from the address stage with the chosen payment mode.
func (s *Service) Submit(ctx context.Context, key string, mode orders.PaymentMode) (*orders.Result, error) {
	sess, err := s.registry.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	user, ok := s.users.CurrentUser(ctx)
	if !ok {
		return nil, domain.ErrAuthRequired
	}

	// held before submitting so eviction cannot race the pending result
	sess.hold()
	res, err := s.reconciler.Submit(ctx, sess, user, mode)
	if err != nil || res.Status != orders.StatusPaymentPending {
		sess.release()
	}
	return res, err
}

func (s *Service) ResolvePayment(ctx context.Context, orderID uuid.UUID, outcome payment.Outcome) (*orders.Result, error) {
	return s.reconciler.ResolvePayment(ctx, orderID, outcome)
}

func (s *Service) withMachine(ctx context.Context, key string, fn func(m *Machine) error) (domain.Draft, error) {
	sess, err := s.registry.Get(ctx, key)
	if err != nil {
		return domain.Draft{}, err
	}
	err = fn(sess.Machine())
	return sess.Draft(), err
}
