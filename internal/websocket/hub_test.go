package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testClient(hub *Hub, householdID int64) *Client {
	c := NewClient(hub, nil, householdID)
	hub.Register(c)
	return c
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("completion", "created", 42, map[string]any{"task_id": 7})
	if msg.Type != "completion_created" {
		t.Errorf("type = %q, want completion_created", msg.Type)
	}
	if msg.ID != 42 {
		t.Errorf("id = %d, want 42", msg.ID)
	}
}

func TestBroadcastScopedToHousehold(t *testing.T) {
	hub := testHub()
	a := testClient(hub, 1)
	b := testClient(hub, 2)

	hub.Broadcast(1, NewMessage("completion", "created", 5, nil))

	select {
	case data := <-a.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "completion_created" || msg.ID != 5 {
			t.Errorf("got %+v", msg)
		}
	default:
		t.Fatal("household 1 client received nothing")
	}

	select {
	case <-b.send:
		t.Fatal("household 2 client should not receive household 1 events")
	default:
	}
}

func TestUnregister(t *testing.T) {
	hub := testHub()
	c := testClient(hub, 1)

	if hub.ClientCount(1) != 1 {
		t.Fatalf("count = %d, want 1", hub.ClientCount(1))
	}

	hub.Unregister(c)
	if hub.ClientCount(1) != 0 {
		t.Errorf("count after unregister = %d, want 0", hub.ClientCount(1))
	}

	// Send channel is closed.
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}

	// Double unregister is safe.
	hub.Unregister(c)
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := testHub()
	c := testClient(hub, 1)

	for i := 0; i < sendBufferSize+10; i++ {
		hub.Broadcast(1, NewMessage("task", "updated", int64(i), nil))
	}

	if len(c.send) != sendBufferSize {
		t.Errorf("buffered = %d, want %d (overflow dropped)", len(c.send), sendBufferSize)
	}
}
