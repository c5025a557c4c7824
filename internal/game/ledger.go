// internal/game/ledger.go
//
// Turn/hint ledger. Turns and hints are fixed-length ordered sequences of
// availability flags; consuming one always retires the LAST available entry
// so the rightmost indicator in the UI goes out first.

package game

const (
	TurnsPerGame = 3
	HintsPerGame = 2
)

// Slot is one turn or hint indicator.
type Slot struct {
	Available bool `json:"available"`
}

// NewTurns returns a full set of turns.
func NewTurns() []Slot { return fullSlots(TurnsPerGame) }

// NewHints returns a full set of hints.
func NewHints() []Slot { return fullSlots(HintsPerGame) }

func fullSlots(n int) []Slot {
	out := make([]Slot, n)
	for i := range out {
		out[i].Available = true
	}
	return out
}

// Consume flips the highest-index available entry to unavailable and returns
// the updated copy. The input is left untouched.
func Consume(slots []Slot) ([]Slot, error) {
	return consume(slots, "")
}

func consume(slots []Slot, resource string) ([]Slot, error) {
	for i := len(slots) - 1; i >= 0; i-- {
		if slots[i].Available {
			out := append([]Slot(nil), slots...)
			out[i].Available = false
			return out, nil
		}
	}
	return slots, &ExhaustedError{Resource: resource}
}

// CountAvailable returns the number of available entries.
func CountAvailable(slots []Slot) int {
	n := 0
	for _, s := range slots {
		if s.Available {
			n++
		}
	}
	return n
}
