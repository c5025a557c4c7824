// internal/game/types.go
//
// Core type definitions for the Triads game engine.
// Defines:
//   - Cue / CueGroup: the words shown to the player and their hidden grouping.
//   - SolvedTriad: a completed round as returned by the content API.
//   - State / Phase: the session state machine and round-phase marker.
//   - HintFlavor / HintContent: hint choices and the content backing them.

package game

// Cue is a single word shown to the player.
type Cue struct {
	ID   int    `json:"id"`
	Word string `json:"word"`
}

// CueGroup is one triad: three cues sharing a hidden keyword.
// CommonWord is the answer key and is never serialized to players.
type CueGroup struct {
	ID         int    `json:"id"`
	SetID      int    `json:"setId"` // puzzle set the group belongs to
	CommonWord string `json:"-"`
	Cues       [3]Cue `json:"cues"`
}

// SolvedTriad is appended to the session's solved list as rounds complete.
type SolvedTriad struct {
	ID          int       `json:"id"`
	Keyword     string    `json:"keyword"`
	Cues        [3]string `json:"cues"`
	FullPhrases [3]string `json:"fullPhrases"`
}

// State is the session state machine value.
type State string

const (
	StatePlaying       State = "PLAYING"
	StateAcceptAnswer  State = "ACCEPT_ANSWER"
	StateWrongTriad    State = "WRONG_TRIAD"
	StateWrongAnswer   State = "WRONG_ANSWER"
	StateCorrectAnswer State = "CORRECT_ANSWER"
	StateWon           State = "WON"
	StateLost          State = "LOST"
)

// Terminal reports whether no further play is accepted.
func (s State) Terminal() bool {
	return s == StateWon || s == StateLost
}

// Phase marks whether the session is in the three initial rounds or the bonus round.
type Phase string

const (
	PhaseInitial Phase = "INITIAL"
	PhaseFinal   Phase = "FINAL"
)

// HintFlavor selects what a hint reveals.
//   - "":               default hint, reveals (selects) the triad only.
//   - "KEYWORD_LENGTH": also reveals the keyword's length.
//   - "FIRST_LETTER":   also prefills the answer with the keyword's first letter.
type HintFlavor string

const (
	HintDefault       HintFlavor = ""
	HintKeywordLength HintFlavor = "KEYWORD_LENGTH"
	HintFirstLetter   HintFlavor = "FIRST_LETTER"
)

// Valid reports whether f is one of the known flavors.
func (f HintFlavor) Valid() bool {
	switch f {
	case HintDefault, HintKeywordLength, HintFirstLetter:
		return true
	}
	return false
}

// HintContent is what the content API knows about a group's keyword
// without revealing it.
type HintContent struct {
	KeywordLength int    `json:"keywordLength"`
	FirstLetter   string `json:"firstLetter"`
}

// HintReveal is the hint side effect currently visible to the player.
type HintReveal struct {
	GroupID       int    `json:"groupId"`
	KeywordLength int    `json:"keywordLength,omitempty"`
	Prefill       string `json:"prefill,omitempty"`
	FocusAnswer   bool   `json:"focusAnswer,omitempty"`
}
