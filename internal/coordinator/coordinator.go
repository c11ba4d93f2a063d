// Package coordinator bridges realtime transport commands to the
// session registry and the workout state machine, and drives the
// timer-based phase transitions that keep every participant's clock in
// agreement.
package coordinator

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/repsquad/repsquad/internal/challenge"
	"github.com/repsquad/repsquad/internal/session"
	"github.com/repsquad/repsquad/internal/workout"
)

// Server→client event types.
const (
	EventSessionJoined = "session-joined"
	EventSessionUpdate = "session-update"
)

// Broadcaster is the transport surface the coordinator emits through.
// Implemented by the gateway hub.
type Broadcaster interface {
	// AddToSession binds a connection to a session so later broadcasts
	// for that session reach it.
	AddToSession(connID, sessionID string)
	// SendToConnection sends an event to a single connection.
	SendToConnection(connID, eventType string, payload any)
	// BroadcastToSession sends an event to every connection bound to
	// the session.
	BroadcastToSession(sessionID, eventType string, payload any)
}

// JoinedAck is the session-joined payload sent to the joiner only.
type JoinedAck struct {
	SessionID string `json:"sessionId"`
	IsHost    bool   `json:"isHost"`
}

// Coordinator serializes all session mutation behind a single mutex:
// command handlers and timer fires never interleave, so no session
// record is ever read-modified-written concurrently.
type Coordinator struct {
	registry  *session.Registry
	catalog   *challenge.Catalog
	transport Broadcaster
	clock     clockwork.Clock

	mu     sync.Mutex
	conns  map[string]string // connection id → joined session id
	timers map[string]clockwork.Timer
	gens   map[string]uint64 // per-session schedule generation

	done      chan struct{}
	closeOnce sync.Once
}

func New(registry *session.Registry, catalog *challenge.Catalog, transport Broadcaster, clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		registry:  registry,
		catalog:   catalog,
		transport: transport,
		clock:     clock,
		conns:     make(map[string]string),
		timers:    make(map[string]clockwork.Timer),
		gens:      make(map[string]uint64),
		done:      make(chan struct{}),
	}
}

// Close stops all pending advance timers. Safe to call more than once.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		defer c.mu.Unlock()
		for id, timer := range c.timers {
			stopAndDrainTimer(timer)
			delete(c.timers, id)
		}
	})
}

// Join registers the connection as a participant of sessionID, creating
// the session on first join. The joiner alone receives its host role;
// everyone in the session receives the updated snapshot.
func (c *Coordinator) Join(connID, sessionID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, isHost := c.registry.Join(sessionID, session.Participant{ID: connID, Name: name})
	c.conns[connID] = sessionID
	c.transport.AddToSession(connID, sessionID)

	log.Info().
		Str("session_id", sessionID).
		Str("connection_id", connID).
		Str("name", name).
		Bool("is_host", isHost).
		Msg("participant joined session")

	c.transport.SendToConnection(connID, EventSessionJoined, JoinedAck{SessionID: sessionID, IsHost: isHost})
	c.transport.BroadcastToSession(sessionID, EventSessionUpdate, snap)
}

// SelectChallenge stores the catalog challenge on the session and
// resets any workout in progress. Unknown session or challenge ids are
// silent no-ops.
func (c *Coordinator) SelectChallenge(sessionID, challengeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.catalog.ChallengeByID(challengeID)
	if !ok {
		log.Warn().Str("session_id", sessionID).Str("challenge_id", challengeID).Msg("unknown challenge selected")
		return
	}
	snap, ok := c.registry.SetChallenge(sessionID, challengeID, ch)
	if !ok {
		log.Warn().Str("session_id", sessionID).Msg("select-challenge for unknown session")
		return
	}

	// The previous workout run, if any, is void now.
	c.gens[sessionID]++
	c.cancelTimer(sessionID)

	log.Info().Str("session_id", sessionID).Str("challenge_id", challengeID).Msg("challenge selected")
	c.transport.BroadcastToSession(sessionID, EventSessionUpdate, snap)
}

// StartWorkout begins the timed sequence: a preparation countdown, then
// the challenge's series in order. No-op unless the session has a
// challenge with at least one series in its first day.
func (c *Coordinator) StartWorkout(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.registry.Get(sessionID)
	if !ok {
		log.Warn().Str("session_id", sessionID).Msg("start-workout for unknown session")
		return
	}
	if snap.Challenge == nil {
		log.Warn().Str("session_id", sessionID).Msg("start-workout without a selected challenge")
		return
	}

	st, err := workout.Start(snap.Challenge, c.clock.Now())
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("workout cannot start")
		return
	}
	updated, ok := c.registry.SetWorkout(sessionID, st)
	if !ok {
		return
	}

	c.gens[sessionID]++

	log.Info().
		Str("session_id", sessionID).
		Str("challenge_id", snap.ChallengeID).
		Int("duration_sec", st.Duration).
		Msg("workout started")

	c.transport.BroadcastToSession(sessionID, EventSessionUpdate, updated)
	c.schedule(sessionID, st.Duration)
}

// Disconnect removes the connection's participant from whichever
// session it had joined. An empty session is deleted and its pending
// timer cancelled; otherwise the remaining participants get the updated
// snapshot.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessionID, ok := c.conns[connID]
	if !ok {
		return
	}
	delete(c.conns, connID)

	snap, deleted, ok := c.registry.Leave(sessionID, connID)
	if !ok {
		return
	}
	if deleted {
		c.gens[sessionID]++
		c.cancelTimer(sessionID)
		delete(c.gens, sessionID)
		log.Info().Str("session_id", sessionID).Msg("session empty, deleted")
		return
	}

	log.Info().
		Str("session_id", sessionID).
		Str("connection_id", connID).
		Int("remaining", len(snap.Participants)).
		Msg("participant left session")
	c.transport.BroadcastToSession(sessionID, EventSessionUpdate, snap)
}
