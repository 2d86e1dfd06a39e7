package service

import (
	"context"
	"strings"
	"sync"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
)

// CartState is what the machine needs to know about the cart.
type CartState interface {
	IsEmpty() bool
}

// Machine drives the checkout stages over one draft. Forward moves are
// re-validated on every attempt; backward moves are always allowed.
type Machine struct {
	mu      sync.Mutex
	draft   domain.Draft
	cart    CartState
	users   auth.Provider
	cityMax int
}

func NewMachine(cart CartState, users auth.Provider, cityMax int) *Machine {
	return &Machine{
		draft:   domain.NewDraft(),
		cart:    cart,
		users:   users,
		cityMax: cityMax,
	}
}

func (m *Machine) CurrentStage() domain.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft.Stage
}

func (m *Machine) Draft() domain.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Open starts the flow at the cart stage, keeping entered values.
func (m *Machine) Open() {
	m.setStage(domain.StageCart)
}

// Close abandons the flow; reopening starts from the cart stage again.
func (m *Machine) Close() {
	m.setStage(domain.StageCart)
}

// Reset discards the draft entirely.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = domain.NewDraft()
}

func (m *Machine) setStage(s domain.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Stage = s
}

// SetPhone stores the phone with every non-digit removed.
func (m *Machine) SetPhone(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Contact.Phone = domain.DigitsOnly(raw)
}

func (m *Machine) SetEmail(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Contact.Email = strings.TrimSpace(email)
}

func (m *Machine) SetContact(c domain.Contact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Contact = domain.Contact{
		Phone: domain.DigitsOnly(c.Phone),
		Email: strings.TrimSpace(c.Email),
	}
}

func (m *Machine) SetAddress(a domain.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Address = a
}

// Advance moves one stage forward if the current stage's guard passes.
// On failure the stage is unchanged.
func (m *Machine) Advance(ctx context.Context) (domain.Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := m.draft.Stage.Next()
	if !ok {
		return m.draft.Stage, domain.ErrNoNextStage
	}

	switch m.draft.Stage {
	case domain.StageCart:
		if m.cart.IsEmpty() {
			return m.draft.Stage, domain.ErrEmptyCart
		}
		if _, ok := m.users.CurrentUser(ctx); !ok {
			return m.draft.Stage, domain.ErrAuthRequired
		}
	case domain.StageContact:
		if err := m.draft.Contact.Validate(); err != nil {
			return m.draft.Stage, err
		}
	}

	m.draft.Stage = next
	return next, nil
}

// Back moves one stage backward without validation.
func (m *Machine) Back() domain.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Stage = m.draft.Stage.Prev()
	return m.draft.Stage
}

// ReadyToSubmit guards the terminal action from the address stage. Contact is
// checked again because it may have been edited after the contact stage passed.
func (m *Machine) ReadyToSubmit() (domain.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft.Stage != domain.StageAddress {
		return m.draft, domain.ErrStageNotReady
	}
	if err := m.draft.Contact.Validate(); err != nil {
		return m.draft, err
	}
	if err := m.draft.Address.Validate(m.cityMax); err != nil {
		return m.draft, err
	}
	return m.draft, nil
}
