// Package session owns the in-memory session store. Sessions are
// created on first join, deleted when their last participant leaves,
// and never shared across session ids.
package session

import (
	"sync"

	"github.com/repsquad/repsquad/internal/challenge"
	"github.com/repsquad/repsquad/internal/workout"
)

// Participant is one connected user. ID is the transport connection id;
// participants are ephemeral and exist only while connected.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is an immutable-at-a-point-in-time view of a session, shaped
// for the session-update broadcast. Every call builds a fresh value so
// consumers relying on reference-identity change detection observe each
// update.
type Snapshot struct {
	Participants []Participant        `json:"participants"`
	ChallengeID  string               `json:"challengeId,omitempty"`
	Challenge    *challenge.Challenge `json:"challenge,omitempty"`
	Workout      *workout.State       `json:"workoutState,omitempty"`
}

type record struct {
	participants []Participant
	challengeID  string
	challenge    *challenge.Challenge
	workout      *workout.State
}

// Registry maps session ids to live session records. It is the sole
// owner of those records; all mutation goes through its methods.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*record
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*record)}
}

// Join appends p to the session, creating the session if the id is
// unknown. The participant is host iff the list was empty before the
// append. Duplicate display names are allowed.
func (r *Registry) Join(sessionID string, p Participant) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[sessionID]
	if !ok {
		rec = &record{}
		r.sessions[sessionID] = rec
	}
	isHost := len(rec.participants) == 0
	rec.participants = append(rec.participants, p)
	return rec.snapshot(), isHost
}

// Leave removes the participant with the given connection id. When the
// session empties it is deleted entirely; deleted reports that case.
// ok is false for an unknown session id.
func (r *Registry) Leave(sessionID, participantID string) (snap Snapshot, deleted, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, found := r.sessions[sessionID]
	if !found {
		return Snapshot{}, false, false
	}
	kept := rec.participants[:0]
	for _, p := range rec.participants {
		if p.ID != participantID {
			kept = append(kept, p)
		}
	}
	rec.participants = kept

	if len(rec.participants) == 0 {
		delete(r.sessions, sessionID)
		return Snapshot{}, true, true
	}
	return rec.snapshot(), false, true
}

// SetChallenge replaces the session's challenge and clears any prior
// workout state; selecting a challenge always resets progress.
func (r *Registry) SetChallenge(sessionID, challengeID string, ch *challenge.Challenge) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[sessionID]
	if !ok {
		return Snapshot{}, false
	}
	rec.challengeID = challengeID
	rec.challenge = ch
	rec.workout = nil
	return rec.snapshot(), true
}

// SetWorkout replaces the session's workout state wholesale.
func (r *Registry) SetWorkout(sessionID string, st workout.State) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[sessionID]
	if !ok {
		return Snapshot{}, false
	}
	rec.workout = &st
	return rec.snapshot(), true
}

// Get returns a snapshot of the session, if it exists.
func (r *Registry) Get(sessionID string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.sessions[sessionID]
	if !ok {
		return Snapshot{}, false
	}
	return rec.snapshot(), true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// snapshot deep-copies the mutable parts of the record. The challenge
// pointer is shared: challenges are catalog-owned and immutable.
func (rec *record) snapshot() Snapshot {
	snap := Snapshot{
		Participants: make([]Participant, len(rec.participants)),
		ChallengeID:  rec.challengeID,
		Challenge:    rec.challenge,
	}
	copy(snap.Participants, rec.participants)
	if rec.workout != nil {
		st := *rec.workout
		snap.Workout = &st
	}
	return snap
}
