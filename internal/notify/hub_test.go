package notify

import (
	"encoding/json"
	"testing"
	"time"
)

func connect(t *testing.T, hub *Hub, userID uint) *Client {
	t.Helper()
	client := &Client{hub: hub, UserID: userID, send: make(chan []byte, 8)}
	hub.register <- client
	return client
}

func TestSendToUserRoutesByUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := connect(t, hub, 1)
	bob := connect(t, hub, 2)

	if !hub.SendToUser(1, map[string]string{"type": "notification"}) {
		t.Fatal("expected delivery to a connected user")
	}

	select {
	case msg := <-alice.send:
		var decoded map[string]string
		if err := json.Unmarshal(msg, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if decoded["type"] != "notification" {
			t.Errorf("type = %q, want notification", decoded["type"])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for push")
	}

	select {
	case <-bob.send:
		t.Fatal("bob must not receive alice's notification")
	default:
	}

	if hub.SendToUser(99, "x") {
		t.Error("delivery to a user with no connection should report false")
	}
}

func TestSendToUserFansOutToAllConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := connect(t, hub, 7)
	second := connect(t, hub, 7)

	if !hub.SendToUser(7, "hello") {
		t.Fatal("expected delivery")
	}
	for i, c := range []*Client{first, second} {
		select {
		case <-c.send:
		case <-time.After(time.Second):
			t.Fatalf("connection %d did not receive the push", i)
		}
	}

	hub.unregister <- second
	// Give the hub loop time to process the unregister
	time.Sleep(10 * time.Millisecond)
	if !hub.SendToUser(7, "again") {
		t.Error("remaining connection should still receive pushes")
	}
}
