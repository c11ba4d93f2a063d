package coordinator

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/repsquad/repsquad/internal/workout"
)

// schedule registers a one-shot timer for the just-entered phase.
// Caller holds c.mu. The captured generation lets a fire detect that
// the session's timeline was superseded (new challenge, new start,
// session deleted) between scheduling and firing.
func (c *Coordinator) schedule(sessionID string, seconds int) {
	gen := c.gens[sessionID]
	timer := c.clock.NewTimer(time.Duration(seconds) * time.Second)
	c.replaceTimer(sessionID, timer)

	go func() {
		select {
		case <-timer.Chan():
			c.advance(sessionID, gen)
		case <-c.done:
			stopAndDrainTimer(timer)
		}
	}()

	log.Debug().
		Str("session_id", sessionID).
		Int("duration_sec", seconds).
		Msg("scheduled advance timer")
}

// advance is the timer-driven transition. It re-reads the session's
// live state at fire time; a session that died or changed timelines
// while the timer was pending is absorbed as a silent no-op.
func (c *Coordinator) advance(sessionID string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[sessionID] != gen {
		log.Debug().Str("session_id", sessionID).Msg("stale advance timer, ignoring")
		return
	}
	delete(c.timers, sessionID)

	snap, ok := c.registry.Get(sessionID)
	if !ok || snap.Challenge == nil || snap.Workout == nil {
		log.Debug().Str("session_id", sessionID).Msg("advance fired for vanished session state")
		return
	}

	next := workout.Advance(snap.Challenge, *snap.Workout, c.clock.Now())
	updated, ok := c.registry.SetWorkout(sessionID, next)
	if !ok {
		return
	}

	log.Info().
		Str("session_id", sessionID).
		Str("phase", string(next.Phase)).
		Int("day_index", next.DayIndex).
		Int("series_index", next.SeriesIndex).
		Int("duration_sec", next.Duration).
		Msg("workout advanced")

	c.transport.BroadcastToSession(sessionID, EventSessionUpdate, updated)

	if next.Phase != workout.PhaseFinished {
		c.schedule(sessionID, next.Duration)
	}
}

// replaceTimer installs a new timer for the session, cancelling any
// timer still pending. Caller holds c.mu.
func (c *Coordinator) replaceTimer(sessionID string, timer clockwork.Timer) {
	if existing, ok := c.timers[sessionID]; ok {
		stopAndDrainTimer(existing)
	}
	c.timers[sessionID] = timer
}

// cancelTimer stops and removes the session's pending timer, if any.
// Caller holds c.mu.
func (c *Coordinator) cancelTimer(sessionID string) {
	if timer, ok := c.timers[sessionID]; ok {
		stopAndDrainTimer(timer)
		delete(c.timers, sessionID)
		log.Debug().Str("session_id", sessionID).Msg("cancelled advance timer")
	}
}

// stopAndDrainTimer stops a timer and drains its channel so the waiting
// goroutine does not leak, per the time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
