package game

// Snapshot is a value copy of the session state handed to observers.
type Snapshot struct {
	ID         string        `json:"id"`
	Version    uint64        `json:"version"`
	Generation int           `json:"generation"`
	Started    bool          `json:"started"`
	State      State         `json:"state"`
	Phase      Phase         `json:"phase"`
	Groups     []CueGroup    `json:"groups"`
	Selected   []Cue         `json:"selected"`
	Turns      []Slot        `json:"turns"`
	Hints      []Slot        `json:"hints"`
	Solved     []SolvedTriad `json:"solved"`
	Hint       *HintReveal   `json:"hint,omitempty"`
	HintChoice bool          `json:"hintChoice"`
	Score      *int          `json:"score,omitempty"`
	Solutions  []SolvedTriad `json:"solutions,omitempty"`
}

// ActiveCues flattens the groups still in play.
func (s Snapshot) ActiveCues() []Cue {
	var out []Cue
	for _, g := range s.Groups {
		out = append(out, g.Cues[:]...)
	}
	return out
}

// Subscribe registers fn for every state change. The returned func unsubscribes.
// fn is called without the session lock held and may call back into the session.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// State returns the current state machine value.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Phase returns the round-phase marker.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Turns returns a copy of the turn indicators.
func (s *Session) Turns() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Slot(nil), s.turns...)
}

// Hints returns a copy of the hint indicators.
func (s *Session) Hints() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Slot(nil), s.hints...)
}

// Selected returns a copy of the selected cues.
func (s *Session) Selected() []Cue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Cue(nil), s.selected...)
}

// Solved returns a copy of the solved triads in solve order.
func (s *Session) Solved() []SolvedTriad {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SolvedTriad(nil), s.solved...)
}

// Score returns the final tier once the game is over.
func (s *Session) Score() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.score == nil {
		return 0, false
	}
	return *s.score, true
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.opts.ID,
		Version:    s.version,
		Generation: s.gen,
		Started:    s.started,
		State:      s.state,
		Phase:      s.phase,
		Selected:   append([]Cue(nil), s.selected...),
		Turns:      append([]Slot(nil), s.turns...),
		Hints:      append([]Slot(nil), s.hints...),
		Solved:     append([]SolvedTriad(nil), s.solved...),
		HintChoice: s.hintChoice,
		Solutions:  append([]SolvedTriad(nil), s.solutions...),
	}
	for _, g := range s.groups {
		g.CommonWord = ""
		snap.Groups = append(snap.Groups, g)
	}
	if s.reveal != nil {
		r := *s.reveal
		snap.Hint = &r
	}
	if s.score != nil {
		v := *s.score
		snap.Score = &v
	}
	return snap
}

// publish bumps the version and hands a snapshot to every subscriber.
func (s *Session) publish() {
	s.mu.Lock()
	s.version++
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
