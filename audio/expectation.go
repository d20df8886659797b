package audio

// Outcome is the result of matching a server report against an
// [Expectation].
type Outcome int

const (
	// Foreign means the report was not predicted: show it in full.
	Foreign Outcome = iota

	// Confirmed means the report repeats the predicted volume: only its
	// mute state is news.
	Confirmed
)

func (o Outcome) String() string {
	if o == Confirmed {
		return "confirmed"
	}
	return "foreign"
}

// Expectation is the pending predicted volume of one endpoint. It is either
// idle or pending a value.
//
// A coincidental external change to the predicted value is indistinguishable
// from a confirmation; there is no request correlation.
type Expectation struct {
	value   uint32
	pending bool
}

// Expect records that volume was requested locally.
func (e *Expectation) Expect(volume uint32) {
	e.value = volume
	e.pending = true
}

// Pending returns the predicted volume, if any.
func (e *Expectation) Pending() (uint32, bool) {
	return e.value, e.pending
}

// Observe matches a reported volume against the prediction and returns the
// slot to idle.
func (e *Expectation) Observe(volume uint32) Outcome {
	outcome := Foreign
	if e.pending && e.value == volume {
		outcome = Confirmed
	}

	e.Clear()

	return outcome
}

// Clear returns the slot to idle.
func (e *Expectation) Clear() {
	e.value = 0
	e.pending = false
}
