package domain

// Stage is a step of the checkout flow. Payment method selection happens
// on submit from StageAddress, so it has no stage of its own.
type Stage string

const (
	StageCart    Stage = "CART"
	StageContact Stage = "CONTACT"
	StageAddress Stage = "ADDRESS"
)

var nextStage = map[Stage]Stage{
	StageCart:    StageContact,
	StageContact: StageAddress,
}

var prevStage = map[Stage]Stage{
	StageAddress: StageContact,
	StageContact: StageCart,
}

// Next returns the stage after s; false when s is the last stage.
func (s Stage) Next() (Stage, bool) {
	n, ok := nextStage[s]
	return n, ok
}

// Prev returns the stage before s. StageCart stays at StageCart.
func (s Stage) Prev() Stage {
	if p, ok := prevStage[s]; ok {
		return p
	}
	return StageCart
}

func (s Stage) IsValid() bool {
	return s == StageCart || s == StageContact || s == StageAddress
}

// String representation (for logging)
func (s Stage) String() string {
	return string(s)
}
