package goSession

import (
	"sync"
	"time"

	"github.com/MrEthical07/goSession/internal/events"
)

const stateChangedTopic = "session:state"

// State is the single session record shared by the Manager, the route guard and the
// transport. Reads always observe the latest completed write.
//
// Invariant: Authenticated implies a non-empty credential and identity.
type State struct {
	mu sync.RWMutex

	authenticated bool
	loading       bool
	credential    string
	identity      Identity
	expiresAt     time.Time

	// epoch advances on every credential change so late results can be discarded.
	epoch uint64

	changes *events.Topic[Snapshot]
}

func newState() *State {
	return &State{changes: events.NewTopic[Snapshot](stateChangedTopic)}
}

// Snapshot returns a consistent copy of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Authenticated: s.authenticated,
		Loading:       s.loading,
		Credential:    s.credential,
		Identity:      s.identity,
		ExpiresAt:     s.expiresAt,
	}
}

// Credential returns the active credential, or "" when there is none. It satisfies
// transport.CredentialProvider.
func (s *State) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Authenticated reports whether a validated session is active.
func (s *State) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Epoch returns the current credential epoch.
func (s *State) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Subscribe registers fn to receive a snapshot after every state change. fn runs
// synchronously and may change the session, for example by logging out; the resulting
// snapshot is delivered to every subscriber after the current one. fn must not call
// Subscribe. The returned function stops delivery.
func (s *State) Subscribe(fn func(Snapshot)) (func(), error) {
	return s.changes.Subscribe(fn)
}

func (s *State) publish() {
	s.changes.Publish(s.Snapshot())
}

// establish installs an authenticated credential and returns its epoch.
func (s *State) establish(credential string, identity Identity) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.authenticated = true
	s.loading = false
	s.credential = credential
	s.identity = identity
	s.expiresAt = time.Time{}
	return s.epoch
}

// beginRestore optimistically installs a stored credential pending validation.
func (s *State) beginRestore(credential string, identity Identity) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.authenticated = false
	s.loading = true
	s.credential = credential
	s.identity = identity
	s.expiresAt = time.Time{}
	return s.epoch
}

// commitRestore marks a restored credential as validated when epoch is still current.
func (s *State) commitRestore(epoch uint64, identity Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.authenticated = true
	s.loading = false
	s.identity = identity
	return true
}

// replace swaps in a refreshed credential when epoch is still current and returns the
// new epoch.
func (s *State) replace(epoch uint64, credential string, identity Identity) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.credential == "" {
		return s.epoch, false
	}
	s.epoch++
	s.authenticated = true
	s.loading = false
	s.credential = credential
	s.identity = identity
	s.expiresAt = time.Time{}
	return s.epoch, true
}

func (s *State) setExpiry(epoch uint64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.expiresAt = at
	}
}

// clear empties the state and returns what it held.
func (s *State) clear() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.snapshotLocked()
	s.epoch++
	s.authenticated = false
	s.loading = false
	s.credential = ""
	s.identity = Identity{}
	s.expiresAt = time.Time{}
	return prev
}

// current returns a snapshot together with the epoch it belongs to.
func (s *State) current() (Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), s.epoch
}
