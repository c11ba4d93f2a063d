package session

import (
	"testing"

	"github.com/repsquad/repsquad/internal/challenge"
	"github.com/repsquad/repsquad/internal/workout"
)

func testChallenge() *challenge.Challenge {
	return &challenge.Challenge{
		ID:   "test",
		Name: "Test",
		Data: []challenge.Day{
			{Day: 1, Series: []challenge.SeriesEntry{
				{Name: "Pompes", Type: challenge.SeriesExercise, Time: 30},
			}},
		},
	}
}

func TestJoinFirstIsHost(t *testing.T) {
	r := NewRegistry()

	snap, isHost := r.Join("room", Participant{ID: "c1", Name: "Alice"})
	if !isHost {
		t.Error("first joiner should be host")
	}
	if len(snap.Participants) != 1 {
		t.Fatalf("participants = %d, want 1", len(snap.Participants))
	}

	snap, isHost = r.Join("room", Participant{ID: "c2", Name: "Bob"})
	if isHost {
		t.Error("second joiner must not be host")
	}
	if len(snap.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(snap.Participants))
	}
	if snap.Participants[0].Name != "Alice" || snap.Participants[1].Name != "Bob" {
		t.Errorf("participant order = %v, want arrival order", snap.Participants)
	}
}

func TestJoinAllowsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	r.Join("room", Participant{ID: "c1", Name: "Alice"})
	snap, _ := r.Join("room", Participant{ID: "c2", Name: "Alice"})
	if len(snap.Participants) != 2 {
		t.Errorf("participants = %d, want 2", len(snap.Participants))
	}
}

func TestLeaveDeletesEmptySession(t *testing.T) {
	r := NewRegistry()
	r.Join("room", Participant{ID: "c1", Name: "Alice"})

	_, deleted, ok := r.Leave("room", "c1")
	if !ok || !deleted {
		t.Fatalf("deleted = %v, ok = %v, want both true", deleted, ok)
	}
	if _, found := r.Get("room"); found {
		t.Error("session should be gone after last leave")
	}
	if r.Len() != 0 {
		t.Errorf("len = %d, want 0", r.Len())
	}
}

func TestLeaveKeepsPopulatedSession(t *testing.T) {
	r := NewRegistry()
	r.Join("room", Participant{ID: "c1", Name: "Alice"})
	r.Join("room", Participant{ID: "c2", Name: "Bob"})

	snap, deleted, ok := r.Leave("room", "c1")
	if !ok || deleted {
		t.Fatalf("deleted = %v, ok = %v, want false/true", deleted, ok)
	}
	if len(snap.Participants) != 1 || snap.Participants[0].ID != "c2" {
		t.Errorf("participants = %v, want [c2]", snap.Participants)
	}
}

func TestLeaveUnknownSession(t *testing.T) {
	r := NewRegistry()
	if _, _, ok := r.Leave("ghost", "c1"); ok {
		t.Error("leave on unknown session should report not found")
	}
}

func TestSetChallengeClearsWorkout(t *testing.T) {
	r := NewRegistry()
	r.Join("room", Participant{ID: "c1", Name: "Alice"})
	r.SetChallenge("room", "test", testChallenge())
	r.SetWorkout("room", workout.State{Phase: workout.PhaseRunning, Duration: 30})

	snap, ok := r.SetChallenge("room", "test", testChallenge())
	if !ok {
		t.Fatal("set challenge on live session failed")
	}
	if snap.Workout != nil {
		t.Error("selecting a challenge must reset workout state")
	}
	if snap.ChallengeID != "test" || snap.Challenge == nil {
		t.Errorf("challenge not stored: id=%q", snap.ChallengeID)
	}
}

func TestSetOnUnknownSession(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.SetChallenge("ghost", "test", testChallenge()); ok {
		t.Error("SetChallenge on unknown session should report not found")
	}
	if _, ok := r.SetWorkout("ghost", workout.State{}); ok {
		t.Error("SetWorkout on unknown session should report not found")
	}
}

// Snapshots must be structurally new values: mutating one must not leak
// into the registry or into other snapshots.
func TestSnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	r.Join("room", Participant{ID: "c1", Name: "Alice"})
	r.SetChallenge("room", "test", testChallenge())
	first, _ := r.SetWorkout("room", workout.State{Phase: workout.PhaseRunning, Duration: 30})

	first.Participants[0].Name = "Mallory"
	first.Workout.Phase = workout.PhaseFinished

	second, _ := r.Get("room")
	if second.Participants[0].Name != "Alice" {
		t.Error("participant mutation leaked into registry")
	}
	if second.Workout.Phase != workout.PhaseRunning {
		t.Error("workout mutation leaked into registry")
	}
	if first.Workout == second.Workout {
		t.Error("snapshots share workout state pointer")
	}
}
