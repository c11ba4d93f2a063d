package gateway

import "encoding/json"

// Event is the wire envelope for both directions of the realtime
// surface. Data carries the event-specific JSON payload.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client→server event types. Server→client types live in the
// coordinator package, which produces them.
const (
	EventJoinSession     = "join-session"
	EventSelectChallenge = "select-challenge"
	EventStartWorkout    = "start-workout"
)

// JoinSessionPayload joins (or creates) a session.
type JoinSessionPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

// SelectChallengePayload picks a program for the session.
type SelectChallengePayload struct {
	SessionID   string `json:"sessionId"`
	ChallengeID string `json:"challengeId"`
}

// StartWorkoutPayload starts the session's timed sequence.
type StartWorkoutPayload struct {
	SessionID string `json:"sessionId"`
}

// marshalEvent builds the envelope bytes for an outbound event.
func marshalEvent(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: eventType, Data: data})
}
