package game

import (
	"fmt"
	"strings"
)

// ShareText renders a spoiler-free summary for the native share sheet.
// One row per round: a filled square for each solved round, an empty one otherwise.
func ShareText(s Snapshot) string {
	var b strings.Builder
	b.WriteString("Triads")
	if s.Score != nil {
		fmt.Fprintf(&b, " %d/%d", *s.Score, TierPerfect)
	}
	b.WriteString("\n")
	for i := 0; i < 4; i++ {
		if i < len(s.Solved) {
			b.WriteString("🟩")
		} else {
			b.WriteString("⬜")
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Turns %s  Hints %s", pips(s.Turns), pips(s.Hints))
	return b.String()
}

func pips(slots []Slot) string {
	var b strings.Builder
	for _, sl := range slots {
		if sl.Available {
			b.WriteString("●")
		} else {
			b.WriteString("○")
		}
	}
	return b.String()
}
