package ws

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/letterdash/go-server/internal/coordinator"
)

// testClient builds a client that is never pumped; messages land on its send
// channel where the test can read them back.
func testClient(hub *Hub) *Client {
	c := NewClient(nil, hub, "")
	hub.Register(c)
	return c
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestSendToQueuesForOneClient(t *testing.T) {
	hub := NewHub()
	a := testClient(hub)
	b := testClient(hub)

	hub.SendTo(a.ID, coordinator.NewEvent("connected", map[string]string{"message": "hi"}))

	got := drain(a)
	if len(got) != 1 {
		t.Fatalf("client a got %d messages, want 1", len(got))
	}
	var evt coordinator.Event
	if err := json.Unmarshal(got[0], &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if evt.Name != "connected" {
		t.Errorf("event = %q", evt.Name)
	}
	if msgs := drain(b); len(msgs) != 0 {
		t.Errorf("client b got %d messages, want 0", len(msgs))
	}
}

func TestSendToUnknownConnectionIsNoop(t *testing.T) {
	hub := NewHub()
	hub.SendTo("nobody", coordinator.NewEvent("connected", nil))
}

func TestBroadcastReachesGroupMembersOnly(t *testing.T) {
	hub := NewHub()
	host := testClient(hub)
	player := testClient(hub)
	outsider := testClient(hub)

	hub.JoinGroup("12345", host.ID)
	hub.JoinGroup("12345", player.ID)
	if n := hub.GroupSize("12345"); n != 2 {
		t.Fatalf("group size = %d, want 2", n)
	}

	hub.Broadcast("12345", coordinator.NewEvent("beginNewGame", nil))

	for _, c := range []*Client{host, player} {
		if msgs := drain(c); len(msgs) != 1 {
			t.Errorf("member got %d messages, want 1", len(msgs))
		}
	}
	if msgs := drain(outsider); len(msgs) != 0 {
		t.Errorf("outsider got %d messages, want 0", len(msgs))
	}
}

func TestJoinGroupUnknownConnection(t *testing.T) {
	hub := NewHub()
	hub.JoinGroup("12345", "nobody")
	if n := hub.GroupSize("12345"); n != 0 {
		t.Errorf("group size = %d, want 0", n)
	}
}

func TestDisbandGroup(t *testing.T) {
	hub := NewHub()
	c := testClient(hub)
	hub.JoinGroup("12345", c.ID)

	hub.DisbandGroup("12345")
	if n := hub.GroupSize("12345"); n != 0 {
		t.Fatalf("group size = %d after disband", n)
	}
	hub.Broadcast("12345", coordinator.NewEvent("gameOver", nil))
	if msgs := drain(c); len(msgs) != 0 {
		t.Errorf("got %d messages after disband, want 0", len(msgs))
	}
}

func TestUnregisterClearsGroupMembership(t *testing.T) {
	hub := NewHub()
	a := testClient(hub)
	b := testClient(hub)
	hub.JoinGroup("12345", a.ID)
	hub.JoinGroup("12345", b.ID)

	hub.Unregister(a)
	if n := hub.GroupSize("12345"); n != 1 {
		t.Errorf("group size = %d, want 1", n)
	}
	hub.SendTo(a.ID, coordinator.NewEvent("connected", nil))
	if msgs := drain(a); len(msgs) != 0 {
		t.Errorf("unregistered client got %d messages", len(msgs))
	}
}

func TestEnqueueAfterCloseDoesNotPanic(t *testing.T) {
	hub := NewHub()
	c := testClient(hub)
	hub.JoinGroup("12345", c.ID)

	// Simulate the read pump's shutdown sequence racing a broadcast.
	hub.Unregister(c)
	c.closeSend()
	hub.Broadcast("12345", coordinator.NewEvent("checkAnswer", nil))
	c.enqueue([]byte("late"))
}

func TestSlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	c := testClient(hub)

	msg := []byte(strings.Repeat("x", 8))
	for i := 0; i < sendBuffer+10; i++ {
		c.enqueue(msg)
	}
	if got := len(drain(c)); got != sendBuffer {
		t.Errorf("buffered %d messages, want exactly %d", got, sendBuffer)
	}
}
