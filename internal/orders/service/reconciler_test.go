package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	cart "github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
	catalog "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/domain"
	checkout "github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/notify"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/repository"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSession struct {
	mu        sync.Mutex
	id        string
	cart      *cart.Cart
	draft     checkout.Draft
	completed int
	block     chan struct{}
	draftErr  error
	// afterValidate runs once the draft snapshot has been taken.
	afterValidate func(s *testSession)
}

func newTestSession(id string) *testSession {
	c := cart.NewCart()
	tee := catalog.Product{ID: "tee", Name: "Tee", Price: decimal.NewFromInt(600)}
	c.AddItem(tee)
	c.AddItem(tee)
	c.AddItem(catalog.Product{ID: "jeans", Name: "Jeans", Price: decimal.NewFromInt(1300)})

	return &testSession{
		id:   id,
		cart: c,
		draft: checkout.Draft{
			Stage:   checkout.StageAddress,
			Contact: checkout.Contact{Phone: "9876543210", Email: "asha@example.com"},
			Address: checkout.Address{
				FullName: "Asha Verma", Pincode: "560001", City: "Bengaluru",
				AddressLine: "12 MG Road", Landmark: "Metro",
			},
		},
	}
}

func (s *testSession) ID() string { return s.id }

func (s *testSession) Lines() []cart.Line {
	if s.block != nil {
		<-s.block
	}
	return s.cart.Lines()
}

func (s *testSession) Draft() checkout.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *testSession) SubmitDraft() (checkout.Draft, error) {
	s.mu.Lock()
	d, err := s.draft, s.draftErr
	s.mu.Unlock()
	if s.afterValidate != nil {
		s.afterValidate(s)
	}
	return d, err
}

func (s *testSession) Complete(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	s.draft = checkout.NewDraft()
	s.completed++
}

func (s *testSession) completions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*domain.Order
}

func (n *recordingNotifier) SendOrderSummary(_ context.Context, o *domain.Order) notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, o)
	return notify.Notification{OrderID: o.ID.String(), Summary: "summary"}
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// flakyRepository wraps the memory store and fails selected calls.
type flakyRepository struct {
	*repository.MemoryRepository
	insertErr error
	updateErr error
	updates   int
}

func (f *flakyRepository) InsertOrder(ctx context.Context, o *domain.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.MemoryRepository.InsertOrder(ctx, o)
}

func (f *flakyRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, mode domain.PaymentMode, ref string) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.MemoryRepository.UpdateOrderStatus(ctx, id, mode, ref)
}

type failingGateway struct{}

func (failingGateway) Open(context.Context, payment.Request) (*payment.Intent, error) {
	return nil, errors.New("gateway 503")
}

var shopper = &auth.User{ID: "u1", Email: "asha@example.com"}

func newReconciler(t *testing.T, repo repository.OrderRepository, gw payment.Gateway, secret string) (*Reconciler, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	if gw == nil {
		gw = payment.NewSimulatedGateway()
	}
	return NewReconciler(repo, gw, n, payment.NewSigner(secret), DefaultOptions(), nil), n
}

func TestSubmit_CashOnDelivery_PersistsExactlyOnceAndClearsCart(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, n := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")

	res, err := r.Submit(context.Background(), sess, shopper, PaymentCashOnDelivery)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, domain.PaymentModeCashOnDelivery, res.Order.PaymentMode)
	assert.Equal(t, "2500", res.Order.TotalAmount.String())
	assert.Equal(t, 1, repo.Count())
	assert.Equal(t, 1, n.count())
	assert.True(t, sess.cart.IsEmpty())
	assert.Equal(t, checkout.StageCart, sess.Draft().Stage)
	require.NotNil(t, res.Notification)

	stored, err := repo.GetOrderByID(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
	assert.Len(t, stored.Lines, 2)
}

func TestSubmit_CashOnDelivery_InsertFailureKeepsCartAndSkipsNotify(t *testing.T) {
	repo := &flakyRepository{MemoryRepository: repository.NewMemoryRepository(), insertErr: errors.New("db down")}
	r, n := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")

	res, err := r.Submit(context.Background(), sess, shopper, PaymentCashOnDelivery)
	assert.Nil(t, res)

	p, ok := checkout.AsPersistence(err)
	require.True(t, ok)
	assert.Equal(t, checkout.BeforePayment, p.Phase)
	assert.False(t, p.IsEscalation())

	assert.Equal(t, 0, n.count())
	assert.Equal(t, 0, sess.completions())
	assert.Equal(t, 3, sess.cart.ItemCount())

	// retry succeeds without re-entering anything
	repo.insertErr = nil
	res, err = r.Submit(context.Background(), sess, shopper, PaymentCashOnDelivery)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 1, repo.Count())
}

func TestSubmit_Preconditions(t *testing.T) {
	r, _ := newReconciler(t, repository.NewMemoryRepository(), nil, "")

	_, err := r.Submit(context.Background(), newTestSession("s1"), nil, PaymentCashOnDelivery)
	assert.ErrorIs(t, err, checkout.ErrAuthRequired)

	_, err = r.Submit(context.Background(), newTestSession("s1"), shopper, PaymentMode("UPI"))
	assert.ErrorIs(t, err, checkout.ErrInvalidPaymentMode)

	empty := newTestSession("s2")
	empty.cart.Clear()
	_, err = r.Submit(context.Background(), empty, shopper, PaymentCashOnDelivery)
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestSubmit_ConcurrentSubmissionIsRejected(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, _ := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")
	sess.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := r.Submit(context.Background(), sess, shopper, PaymentCashOnDelivery)
		done <- err
	}()

	assert.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		_, busy := r.inFlight["s1"]
		return busy
	}, time.Second, 5*time.Millisecond)

	_, err := r.Submit(context.Background(), sess, shopper, PaymentCashOnDelivery)
	assert.ErrorIs(t, err, checkout.ErrSubmissionInProgress)

	close(sess.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, repo.Count())
}

func TestSubmit_Online_SuccessUpdatesSameRow(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, n := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")
	ctx := context.Background()

	res, err := r.Submit(ctx, sess, shopper, PaymentOnline)
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentPending, res.Status)
	assert.Equal(t, domain.PaymentModeOnlineAwaiting, res.Order.PaymentMode)
	require.NotNil(t, res.Intent)
	assert.Equal(t, int64(250000), res.Intent.AmountMinor)
	assert.Equal(t, "INR", res.Intent.Currency)
	assert.Equal(t, "9876543210", res.Intent.Prefill.Phone)
	assert.Equal(t, 1, repo.Count())

	// nothing is cleared until the payment is confirmed
	assert.Equal(t, 3, sess.cart.ItemCount())
	assert.Equal(t, 0, n.count())

	paid, err := r.ResolvePayment(ctx, res.Order.ID, payment.Succeeded("pay_123"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, paid.Status)
	assert.Equal(t, res.Order.ID, paid.Order.ID)
	assert.Equal(t, domain.PaymentModeOnlinePaid, paid.Order.PaymentMode)

	assert.Equal(t, 1, repo.Count(), "payment success must update, never insert")
	stored, err := repo.GetOrderByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentModeOnlinePaid, stored.PaymentMode)
	assert.Equal(t, "pay_123", stored.PaymentRef)

	assert.True(t, sess.cart.IsEmpty())
	assert.Equal(t, 1, sess.completions())
	assert.Equal(t, 1, n.count())
}

func TestSubmit_Online_DismissalLeavesEverythingUnchanged(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, n := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")
	ctx := context.Background()
	before := sess.cart.Lines()

	res, err := r.Submit(ctx, sess, shopper, PaymentOnline)
	require.NoError(t, err)

	abandoned, err := r.ResolvePayment(ctx, res.Order.ID, payment.Dismissed())
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentAbandoned, abandoned.Status)

	assert.Equal(t, 1, repo.Count())
	stored, err := repo.GetOrderByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentModeOnlineAwaiting, stored.PaymentMode)

	assert.Equal(t, before, sess.cart.Lines())
	assert.Equal(t, checkout.StageAddress, sess.Draft().Stage)
	assert.Equal(t, 0, sess.completions())
	assert.Equal(t, 0, n.count())
}

func TestSubmit_Online_LateSuccessAfterDismissalStillRecorded(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, _ := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")
	ctx := context.Background()

	res, err := r.Submit(ctx, sess, shopper, PaymentOnline)
	require.NoError(t, err)
	_, err = r.ResolvePayment(ctx, res.Order.ID, payment.Dismissed())
	require.NoError(t, err)

	paid, err := r.ResolvePayment(ctx, res.Order.ID, payment.Succeeded("pay_late"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, paid.Status)
}

func TestSubmit_Online_RetryAfterDismissalCreatesNewPlaceholder(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, _ := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")
	ctx := context.Background()

	first, err := r.Submit(ctx, sess, shopper, PaymentOnline)
	require.NoError(t, err)
	_, err = r.ResolvePayment(ctx, first.Order.ID, payment.Dismissed())
	require.NoError(t, err)

	second, err := r.Submit(ctx, sess, shopper, PaymentOnline)
	require.NoError(t, err)
	assert.NotEqual(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 2, repo.Count())

	_, err = r.ResolvePayment(ctx, second.Order.ID, payment.Succeeded("pay_2"))
	require.NoError(t, err)
	assert.Equal(t, 1, sess.completions())

	// the abandoned attempt can still be paid late, without touching the session again
	sess.cart.AddItem(catalog.Product{ID: "cap", Price: decimal.NewFromInt(300)})
	_, err = r.ResolvePayment(ctx, first.Order.ID, payment.Succeeded("pay_1"))
	require.NoError(t, err)
	assert.Equal(t, 1, sess.completions())
	assert.Equal(t, 1, sess.cart.ItemCount())
}

func TestSubmit_Online_InsertFailureNeverOpensGateway(t *testing.T) {
	repo := &flakyRepository{MemoryRepository: repository.NewMemoryRepository(), insertErr: errors.New("db down")}
	r, _ := newReconciler(t, repo, failingGateway{}, "")

	_, err := r.Submit(context.Background(), newTestSession("s1"), shopper, PaymentOnline)

	p, ok := checkout.AsPersistence(err)
	require.True(t, ok, "insert failure must surface before the gateway is touched")
	assert.Equal(t, checkout.BeforePayment, p.Phase)
}

func TestSubmit_Online_GatewayFailureKeepsPlaceholder(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, _ := newReconciler(t, repo, failingGateway{}, "")
	sess := newTestSession("s1")

	_, err := r.Submit(context.Background(), sess, shopper, PaymentOnline)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Equal(t, 1, repo.Count())
	assert.Equal(t, 3, sess.cart.ItemCount())
}

func TestResolvePayment_UpdateFailureEscalatesAndStaysRetryable(t *testing.T) {
	repo := &flakyRepository{MemoryRepository: repository.NewMemoryRepository()}
	r, n := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")
	ctx := context.Background()

	res, err := r.Submit(ctx, sess, shopper, PaymentOnline)
	require.NoError(t, err)

	repo.updateErr = errors.New("connection reset")
	_, err = r.ResolvePayment(ctx, res.Order.ID, payment.Succeeded("pay_9"))

	p, ok := checkout.AsPersistence(err)
	require.True(t, ok)
	assert.Equal(t, checkout.AfterPayment, p.Phase)
	assert.True(t, p.IsEscalation())
	assert.Equal(t, "pay_9", p.PaymentRef)

	// charged but not marked paid: the cart stays, the failure is tracked
	assert.Equal(t, 3, sess.cart.ItemCount())
	assert.Equal(t, 0, n.count())
	unreconciled := r.Unreconciled()
	require.Len(t, unreconciled, 1)
	assert.Equal(t, res.Order.ID, unreconciled[0].OrderID)
	assert.Equal(t, "pay_9", unreconciled[0].PaymentRef)
	assert.Equal(t, 1, unreconciled[0].Attempts)

	repo.updateErr = nil
	paid, err := r.ResolvePayment(ctx, res.Order.ID, payment.Succeeded("pay_9"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, paid.Status)
	assert.Empty(t, r.Unreconciled())
	assert.True(t, sess.cart.IsEmpty())
	assert.Equal(t, 1, repo.Count())
}

func TestResolvePayment_Idempotent(t *testing.T) {
	repo := &flakyRepository{MemoryRepository: repository.NewMemoryRepository()}
	r, n := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")
	ctx := context.Background()

	res, err := r.Submit(ctx, sess, shopper, PaymentOnline)
	require.NoError(t, err)
	_, err = r.ResolvePayment(ctx, res.Order.ID, payment.Succeeded("pay_1"))
	require.NoError(t, err)

	again, err := r.ResolvePayment(ctx, res.Order.ID, payment.Succeeded("pay_1"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, again.Status)
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, 1, sess.completions())
	assert.Equal(t, 1, n.count())
}

func TestResolvePayment_Rejections(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, _ := newReconciler(t, repo, nil, "")
	ctx := context.Background()

	_, err := r.ResolvePayment(ctx, uuid.New(), payment.Succeeded("pay_x"))
	assert.ErrorIs(t, err, checkout.ErrUnknownPayment)

	_, err = r.ResolvePayment(ctx, uuid.New(), payment.Outcome{Status: "MAYBE"})
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	res, err := r.Submit(ctx, newTestSession("s1"), shopper, PaymentOnline)
	require.NoError(t, err)
	_, err = r.ResolvePayment(ctx, res.Order.ID, payment.Outcome{Status: payment.StatusSucceeded})
	assert.ErrorIs(t, err, checkout.ErrMissingPaymentRef)

	cod, err := r.Submit(ctx, newTestSession("s2"), shopper, PaymentCashOnDelivery)
	require.NoError(t, err)
	_, err = r.ResolvePayment(ctx, cod.Order.ID, payment.Succeeded("pay_y"))
	assert.ErrorIs(t, err, checkout.ErrUnknownPayment)
}

func TestResolvePayment_Signature(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, _ := newReconciler(t, repo, nil, "s3cret")
	sess := newTestSession("s1")
	ctx := context.Background()

	res, err := r.Submit(ctx, sess, shopper, PaymentOnline)
	require.NoError(t, err)

	forged := payment.Outcome{Status: payment.StatusSucceeded, PaymentRef: "pay_1", Signature: "deadbeef"}
	_, err = r.ResolvePayment(ctx, res.Order.ID, forged)
	assert.ErrorIs(t, err, payment.ErrSignatureMismatch)
	assert.Equal(t, 3, sess.cart.ItemCount())

	signed := payment.Outcome{
		Status:     payment.StatusSucceeded,
		PaymentRef: "pay_1",
		Signature:  payment.NewSigner("s3cret").Sign(res.Intent.ID, "pay_1"),
	}
	paid, err := r.ResolvePayment(ctx, res.Order.ID, signed)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, paid.Status)
}

func TestPendingIntent(t *testing.T) {
	r, _ := newReconciler(t, repository.NewMemoryRepository(), nil, "")
	res, err := r.Submit(context.Background(), newTestSession("s1"), shopper, PaymentOnline)
	require.NoError(t, err)

	intent, ok := r.PendingIntent(res.Order.ID)
	require.True(t, ok)
	assert.Equal(t, res.Intent.ID, intent.ID)

	_, ok = r.PendingIntent(uuid.New())
	assert.False(t, ok)
}

func TestSubmit_InvalidDraftPersistsNothing(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, n := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")
	sess.draftErr = &checkout.ValidationError{Field: checkout.FieldPincode, Reason: checkout.ReasonMalformed}

	_, err := r.Submit(context.Background(), sess, shopper, PaymentCashOnDelivery)
	v, ok := checkout.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, checkout.FieldPincode, v.Field)
	assert.Equal(t, 0, repo.Count())
	assert.Equal(t, 0, n.count())
}

func TestSubmit_OrderUsesValidatedDraft(t *testing.T) {
	for _, mode := range []PaymentMode{PaymentCashOnDelivery, PaymentOnline} {
		t.Run(string(mode), func(t *testing.T) {
			repo := repository.NewMemoryRepository()
			r, _ := newReconciler(t, repo, nil, "")
			sess := newTestSession("s1")
			sess.afterValidate = func(s *testSession) {
				s.mu.Lock()
				defer s.mu.Unlock()
				s.draft.Address.City = ""
				s.draft.Contact.Phone = "1"
			}

			res, err := r.Submit(context.Background(), sess, shopper, mode)
			require.NoError(t, err)

			stored, err := repo.GetOrderByID(context.Background(), res.Order.ID)
			require.NoError(t, err)
			assert.Equal(t, "Bengaluru", stored.Address.City)
			assert.Equal(t, "9876543210", stored.Contact.Phone)
		})
	}
}

func TestResolvePayment_SettledOrdersLeaveNoState(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, _ := newReconciler(t, repo, nil, "")
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := r.ResolvePayment(ctx, uuid.New(), payment.Succeeded("pay_x"))
		assert.ErrorIs(t, err, checkout.ErrUnknownPayment)
	}

	res, err := r.Submit(ctx, newTestSession("s1"), shopper, PaymentOnline)
	require.NoError(t, err)
	_, err = r.ResolvePayment(ctx, res.Order.ID, payment.Succeeded("pay_1"))
	require.NoError(t, err)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.pending)
}

func TestResolvePayment_ConcurrentSuccessCompletesOnce(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r, n := newReconciler(t, repo, nil, "")
	sess := newTestSession("s1")
	ctx := context.Background()

	res, err := r.Submit(ctx, sess, shopper, PaymentOnline)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.ResolvePayment(ctx, res.Order.ID, payment.Succeeded("pay_1"))
			if assert.NoError(t, err) {
				assert.Equal(t, StatusCompleted, out.Status)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, sess.completions())
	assert.Equal(t, 1, n.count())
}
