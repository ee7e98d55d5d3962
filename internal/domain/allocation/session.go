package allocation

import "sync/atomic"

// SnapshotSession guards against stale snapshot responses: a fetch that was
// in flight when the stock state moved on (a committed reallocation, a new
// line item taking over the dialog) must not have its result treated as
// current. Each Begin bumps the generation; a result is only current when
// its generation matches the latest Begin.
type SnapshotSession struct {
	generation atomic.Uint64
}

// Begin starts a new request generation and returns its token.
func (s *SnapshotSession) Begin() uint64 {
	return s.generation.Add(1)
}

// Generation returns the token of the current generation without starting a
// new one. Fetches tag themselves with it so their results can be checked
// for staleness on completion.
func (s *SnapshotSession) Generation() uint64 {
	return s.generation.Load()
}

// Current reports whether the given generation token is still the latest.
// Results carrying a stale token must be discarded without touching state.
func (s *SnapshotSession) Current(gen uint64) bool {
	return s.generation.Load() == gen
}
