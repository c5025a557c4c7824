// internal/game/hint.go
//
// Hint allocation policy.
//   - The default hint reveals a triad: its cues become the selection and the
//     triad check runs straight away.
//   - When exactly one hint is left, exactly one group is visible, or an answer
//     is already being accepted, the player must pick KEYWORD_LENGTH or
//     FIRST_LETTER instead. Otherwise any requested flavor applies as the
//     default hint.
//   - Every hint costs a hint, plus a turn while more than one turn remains.
//   - A hint grants one free wrong answer for the round.

package game

import "context"

// RequestHint applies a hint. Each call consumes resources; it is not idempotent.
func (s *Session) RequestHint(ctx context.Context, flavor HintFlavor) error {
	if !flavor.Valid() {
		return ErrInvalidFlavor
	}

	s.mu.Lock()
	if err := s.playableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	state := s.state
	if state != StatePlaying && state != StateAcceptAnswer {
		s.mu.Unlock()
		return ErrNotAccepting
	}
	if CountAvailable(s.hints) == 0 {
		s.mu.Unlock()
		err := &ExhaustedError{Resource: "hint"}
		s.notify(NoticeError, "No hints left.")
		return err
	}
	target, ok := s.hintTargetLocked()
	if !ok {
		s.mu.Unlock()
		return ErrNotAccepting
	}
	required := s.flavorRequiredLocked()
	if flavor == HintDefault && required {
		s.hintChoice = true
		s.mu.Unlock()
		s.publish()
		return ErrHintFlavorRequired
	}
	if !required {
		flavor = HintDefault
	}
	gen := s.gen
	s.mu.Unlock()

	var content HintContent
	if flavor != HintDefault {
		var err error
		content, err = s.opts.Puzzle.FetchHint(ctx, target.Cues[:])
		if err != nil {
			s.notify(NoticeError, "Could not load a hint. Try again.")
			return netErr("fetch hint", err)
		}
	}

	s.mu.Lock()
	if !s.currentLocked(gen, state) || s.groupOfLocked(target.Cues[:]) != target.ID {
		s.mu.Unlock()
		return nil
	}
	hints, err := consume(s.hints, "hint")
	if err != nil {
		s.mu.Unlock()
		s.notify(NoticeError, "No hints left.")
		return err
	}
	s.hints = hints
	if CountAvailable(s.turns) > 1 {
		s.turns, _ = consume(s.turns, "turn")
	}
	s.hintUsed = true
	s.hintChoice = false

	reveal := &HintReveal{GroupID: target.ID}
	switch flavor {
	case HintKeywordLength:
		reveal.KeywordLength = content.KeywordLength
	case HintFirstLetter:
		reveal.Prefill = content.FirstLetter
		reveal.FocusAnswer = true
	}
	s.reveal = reveal

	var check []Cue
	if state == StatePlaying {
		s.selected = append([]Cue(nil), target.Cues[:]...)
		check = append([]Cue(nil), s.selected...)
	}
	s.mu.Unlock()

	s.log.Debug().Str("flavor", string(flavor)).Int("group", target.ID).Msg("hint used")
	s.publish()
	if check != nil {
		return s.checkTriad(ctx, gen, check)
	}
	return nil
}

// flavorRequiredLocked reports whether the player must choose a hint flavor.
func (s *Session) flavorRequiredLocked() bool {
	return CountAvailable(s.hints) == 1 || len(s.groups) == 1 || s.state == StateAcceptAnswer
}

// hintTargetLocked picks the group a hint is about: the selected triad while
// an answer is being accepted, otherwise the first group still in play.
func (s *Session) hintTargetLocked() (CueGroup, bool) {
	if s.state == StateAcceptAnswer {
		for _, g := range s.groups {
			if sameCues(g.Cues[:], s.selected) {
				return g, true
			}
		}
		return CueGroup{}, false
	}
	if len(s.groups) == 0 {
		return CueGroup{}, false
	}
	return s.groups[0], true
}
