package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/repsquad/repsquad/internal/challenge"
	"github.com/repsquad/repsquad/internal/coordinator"
	"github.com/repsquad/repsquad/internal/session"
	"github.com/repsquad/repsquad/internal/workout"
)

// startTestServer wires the real hub + coordinator behind an httptest
// server, the same topology cmd/server builds.
func startTestServer(t *testing.T) (*httptest.Server, *clockwork.FakeClock) {
	t.Helper()

	cat := challenge.NewCatalog(&challenge.Challenge{
		ID:   "plank",
		Name: "Plank",
		Data: []challenge.Day{
			{Day: 1, Series: []challenge.SeriesEntry{
				{Name: "Plank", Type: challenge.SeriesExercise, Time: 20},
			}},
		},
	})

	clock := clockwork.NewFakeClock()
	hub := NewHub(DefaultConfig())
	coord := coordinator.New(session.NewRegistry(), cat, hub, clock)
	t.Cleanup(coord.Close)
	hub.SetHandler(coord)

	mux := http.NewServeMux()
	NewHandler(hub, cat).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, clock
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(Event{Type: eventType, Data: data}); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read: %v", err)
	}
	return evt
}

// readUntil skips events until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) Event {
	t.Helper()
	for i := 0; i < 10; i++ {
		evt := readEvent(t, conn)
		if evt.Type == eventType {
			return evt
		}
	}
	t.Fatalf("no %s event received", eventType)
	return Event{}
}

func TestWebSocketSessionFlow(t *testing.T) {
	srv, _ := startTestServer(t)

	host := dialWS(t, srv)
	send(t, host, EventJoinSession, JoinSessionPayload{SessionID: "room", Name: "Alice"})

	joined := readEvent(t, host)
	if joined.Type != coordinator.EventSessionJoined {
		t.Fatalf("first event = %q, want session-joined", joined.Type)
	}
	var ack coordinator.JoinedAck
	if err := json.Unmarshal(joined.Data, &ack); err != nil {
		t.Fatal(err)
	}
	if !ack.IsHost || ack.SessionID != "room" {
		t.Errorf("ack = %+v, want host of room", ack)
	}

	update := readEvent(t, host)
	if update.Type != coordinator.EventSessionUpdate {
		t.Fatalf("second event = %q, want session-update", update.Type)
	}

	// Second participant: not host, and both sides see two participants.
	guest := dialWS(t, srv)
	send(t, guest, EventJoinSession, JoinSessionPayload{SessionID: "room", Name: "Bob"})

	joined = readUntil(t, guest, coordinator.EventSessionJoined)
	if err := json.Unmarshal(joined.Data, &ack); err != nil {
		t.Fatal(err)
	}
	if ack.IsHost {
		t.Error("second joiner must not be host")
	}

	var snap session.Snapshot
	update = readUntil(t, host, coordinator.EventSessionUpdate)
	if err := json.Unmarshal(update.Data, &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(snap.Participants))
	}

	// Host picks the challenge and starts: everyone gets the snapshot
	// with the preparation countdown.
	send(t, host, EventSelectChallenge, SelectChallengePayload{SessionID: "room", ChallengeID: "plank"})
	send(t, host, EventStartWorkout, StartWorkoutPayload{SessionID: "room"})

	for _, conn := range []*websocket.Conn{host, guest} {
		for {
			update = readUntil(t, conn, coordinator.EventSessionUpdate)
			if err := json.Unmarshal(update.Data, &snap); err != nil {
				t.Fatal(err)
			}
			if snap.Workout != nil {
				break
			}
		}
		if snap.Workout.Phase != workout.PhasePreparation {
			t.Errorf("phase = %q, want preparation", snap.Workout.Phase)
		}
		if snap.Workout.Duration != workout.PreparationSeconds {
			t.Errorf("duration = %d, want %d", snap.Workout.Duration, workout.PreparationSeconds)
		}
	}
}

func TestWebSocketDisconnectCleansUp(t *testing.T) {
	srv, _ := startTestServer(t)

	host := dialWS(t, srv)
	send(t, host, EventJoinSession, JoinSessionPayload{SessionID: "room", Name: "Alice"})
	readUntil(t, host, coordinator.EventSessionJoined)

	guest := dialWS(t, srv)
	send(t, guest, EventJoinSession, JoinSessionPayload{SessionID: "room", Name: "Bob"})
	readUntil(t, guest, coordinator.EventSessionJoined)
	guest.Close()

	// The remaining participant observes the departure.
	deadline := time.Now().Add(2 * time.Second)
	for {
		update := readUntil(t, host, coordinator.EventSessionUpdate)
		var snap session.Snapshot
		if err := json.Unmarshal(update.Data, &snap); err != nil {
			t.Fatal(err)
		}
		if len(snap.Participants) == 1 {
			if snap.Participants[0].Name != "Alice" {
				t.Errorf("remaining participant = %q, want Alice", snap.Participants[0].Name)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("never saw the single-participant snapshot")
		}
	}
}
