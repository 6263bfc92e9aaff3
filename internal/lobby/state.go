package lobby

import (
	"sync"

	"github.com/vytor/arenalobby/internal/models"
)

// View names one of the lobby's independently loaded snapshots.
type View int

const (
	ViewProfile View = iota
	ViewMatches
	ViewLeaderboard
	ViewMessages
	ViewTournament
	numViews
)

// AllViews lists every view in load order.
var AllViews = []View{ViewProfile, ViewMatches, ViewLeaderboard, ViewMessages, ViewTournament}

func (v View) String() string {
	switch v {
	case ViewProfile:
		return "profile"
	case ViewMatches:
		return "matches"
	case ViewLeaderboard:
		return "leaderboard"
	case ViewMessages:
		return "messages"
	case ViewTournament:
		return "tournament"
	default:
		return "unknown"
	}
}

// ParseView is the inverse of View.String.
func ParseView(s string) (View, bool) {
	for _, v := range AllViews {
		if v.String() == s {
			return v, true
		}
	}
	return 0, false
}

// Snapshot is the set of view results a session last applied. Slices are
// replaced wholesale on every reload and never mutated afterwards.
type Snapshot struct {
	Version     uint64               `json:"version"`
	Profile     *models.Profile      `json:"profile"`
	Matches     []models.Match       `json:"matches"`
	Leaderboard []models.Profile     `json:"leaderboard"`
	Messages    []models.ChatMessage `json:"messages"`
	Tournament  *models.Tournament   `json:"tournament"`
}

// Match finds a match in the matches view.
func (s Snapshot) Match(id string) (models.Match, bool) {
	for _, m := range s.Matches {
		if m.ID == id {
			return m, true
		}
	}
	return models.Match{}, false
}

// State guards a session's snapshot. Every load takes a per-view sequence
// number up front and its result is applied only if no newer load of the same
// view has been issued since.
type State struct {
	mu       sync.RWMutex
	snap     Snapshot
	issued   [numViews]uint64
	watchers map[uint64]chan Snapshot
	nextID   uint64
	closed   bool
}

func NewState() *State {
	return &State{
		snap: Snapshot{
			Matches:     []models.Match{},
			Leaderboard: []models.Profile{},
			Messages:    []models.ChatMessage{},
		},
		watchers: make(map[uint64]chan Snapshot),
	}
}

// Begin issues the next sequence number for v.
func (s *State) Begin(v View) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[v]++
	return s.issued[v]
}

// Apply runs set against the snapshot if seq is still the latest issued for v.
func (s *State) Apply(v View, seq uint64, set func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issued[v] {
		return false
	}
	set(&s.snap)
	s.snap.Version++
	s.broadcast()
	return true
}

// Snapshot returns the current snapshot.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Watch delivers the snapshot after every applied change. A slow reader only
// sees the latest one. The returned func stops delivery and closes the channel.
// After CloseWatchers the channel yields the final snapshot and is closed.
func (s *State) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	if s.closed {
		ch <- s.snap
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.nextID++
	id := s.nextID
	s.watchers[id] = ch
	ch <- s.snap
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
	}
}

// CloseWatchers ends every watch, including ones opened later.
func (s *State) CloseWatchers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.watchers {
		close(ch)
		delete(s.watchers, id)
	}
}

func (s *State) broadcast() {
	for _, ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.snap:
		default:
		}
	}
}
