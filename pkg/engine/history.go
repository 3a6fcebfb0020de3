package engine

import "github.com/mattsolo1/grove-gallery/pkg/director"

// history keeps the most recent rounds for the director, oldest first.
type history struct {
	rounds []director.Round
	max    int
}

func newHistory(max int) *history {
	return &history{max: max}
}

func (h *history) add(r director.Round) {
	h.rounds = append(h.rounds, r)
	if len(h.rounds) > h.max {
		h.rounds = append([]director.Round(nil), h.rounds[len(h.rounds)-h.max:]...)
	}
}

func (h *history) snapshot() []director.Round {
	out := make([]director.Round, len(h.rounds))
	copy(out, h.rounds)
	return out
}
