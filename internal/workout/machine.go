// Package workout holds the pure phase-transition logic for a session's
// workout timeline. It does no I/O and owns no timers; the coordinator
// drives it and schedules the next transition from the durations it
// returns.
package workout

import (
	"errors"
	"time"

	"github.com/repsquad/repsquad/internal/challenge"
)

// Durations in seconds.
const (
	PreparationSeconds     = 3
	DefaultExerciseSeconds = 30
	DefaultRestSeconds     = 3
)

// Phase is the current timer state of a session's workout.
type Phase string

const (
	PhasePreparation Phase = "preparation"
	PhaseRunning     Phase = "running"
	PhaseRest        Phase = "rest"
	PhasePaused      Phase = "paused"
	PhaseFinished    Phase = "finished"
)

// ErrEmptyChallenge is returned by Start when the challenge has no
// runnable first series.
var ErrEmptyChallenge = errors.New("challenge has no series to run")

// State describes where a session currently is in its challenge. It is
// a value type and is replaced wholesale on every transition, so a
// snapshot taken at any point stays internally consistent.
//
// StartedAt is epoch milliseconds; StartedAt + Duration*1000 is the
// authoritative instant at which the phase auto-advances. Clients
// derive remaining time from that instant rather than from a local
// countdown.
type State struct {
	DayIndex    int   `json:"currentDayIndex"`
	SeriesIndex int   `json:"currentSeriesIndex"`
	Phase       Phase `json:"timerState"`
	StartedAt   int64 `json:"timerStartTime"`
	Duration    int   `json:"timerDuration"`
}

// Start produces the initial state for a challenge: a preparation
// countdown before day 0, series 0.
func Start(ch *challenge.Challenge, now time.Time) (State, error) {
	if _, ok := ch.FirstSeries(); !ok {
		return State{}, ErrEmptyChallenge
	}
	return State{
		DayIndex:    0,
		SeriesIndex: 0,
		Phase:       PhasePreparation,
		StartedAt:   now.UnixMilli(),
		Duration:    PreparationSeconds,
	}, nil
}

// Advance computes the state that follows st once its timer has
// elapsed. PhaseFinished is absorbing: advancing a finished state
// returns it unchanged.
func Advance(ch *challenge.Challenge, st State, now time.Time) State {
	switch st.Phase {
	case PhasePreparation:
		first, ok := ch.FirstSeries()
		if !ok {
			return finished(st, now)
		}
		return enterSeries(st, 0, 0, first, now)

	case PhaseRunning, PhaseRest:
		if st.DayIndex >= len(ch.Data) {
			return finished(st, now)
		}
		day := ch.Data[st.DayIndex]

		next := st.SeriesIndex + 1
		if next < len(day.Series) {
			return enterSeries(st, st.DayIndex, next, day.Series[next], now)
		}

		// Day exhausted; move to the next day's first series.
		nextDay := st.DayIndex + 1
		if nextDay >= len(ch.Data) {
			return finished(st, now)
		}
		if len(ch.Data[nextDay].Series) == 0 {
			return finished(st, now)
		}
		return enterSeries(st, nextDay, 0, ch.Data[nextDay].Series[0], now)

	default:
		return st
	}
}

// enterSeries applies the series-phase rule: a rest-kind entry yields a
// rest phase with its explicit duration or the rest default; exercise
// and max entries yield a running phase with their explicit duration or
// the exercise default. Max entries auto-advance like exercises here;
// open-ended max-effort timing is a single-player client concept only.
func enterSeries(st State, dayIndex, seriesIndex int, entry challenge.SeriesEntry, now time.Time) State {
	phase := PhaseRunning
	duration := entry.Time
	if entry.Type == challenge.SeriesRest {
		phase = PhaseRest
		if duration == 0 {
			duration = DefaultRestSeconds
		}
	} else if duration == 0 {
		duration = DefaultExerciseSeconds
	}
	return State{
		DayIndex:    dayIndex,
		SeriesIndex: seriesIndex,
		Phase:       phase,
		StartedAt:   now.UnixMilli(),
		Duration:    duration,
	}
}

func finished(st State, now time.Time) State {
	return State{
		DayIndex:    st.DayIndex,
		SeriesIndex: st.SeriesIndex,
		Phase:       PhaseFinished,
		StartedAt:   now.UnixMilli(),
		Duration:    0,
	}
}
