package hub

import (
	"testing"
	"time"
)

// join registers a connectionless client, enough to observe the fan-out.
func join(t *testing.T, h *Hub, buf int) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan Message, buf)}
	select {
	case h.register <- c:
	case <-time.After(time.Second):
		t.Fatal("register timed out")
	}
	return c
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case m, ok := <-c.send:
		return m, ok
	case <-time.After(time.Second):
		t.Fatal("receive timed out")
	}
	return Message{}, false
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBroadcast(t *testing.T) {
	h := New("test", false)
	go h.Run()
	defer h.Stop()

	a, b := join(t, h, 4), join(t, h, 4)
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	h.BroadcastBinary([]byte{1, 2, 3})
	for _, c := range []*Client{a, b} {
		m, ok := receive(t, c)
		if !ok || m.Type != BinaryMessage || len(m.Data) != 3 {
			t.Errorf("got %+v, %v", m, ok)
		}
	}
}

func TestReplayLatest(t *testing.T) {
	h := New("frames", true)
	go h.Run()
	defer h.Stop()

	first := join(t, h, 4)
	h.BroadcastJSON(map[string]int{"frame": 1})
	h.BroadcastJSON(map[string]int{"frame": 2})
	receive(t, first)
	receive(t, first)

	late := join(t, h, 4)
	m, ok := receive(t, late)
	if !ok || string(m.Data) != `{"frame":2}` {
		t.Errorf("replayed %q, want latest frame", m.Data)
	}
}

func TestNoReplay(t *testing.T) {
	h := New("status", false)
	go h.Run()
	defer h.Stop()

	h.BroadcastBinary([]byte{9})
	waitFor(t, func() bool { return len(h.broadcast) == 0 })
	c := join(t, h, 4)
	select {
	case m := <-c.send:
		t.Errorf("unexpected message %+v", m)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := New("slow", false)
	go h.Run()
	defer h.Stop()

	c := join(t, h, 1)
	h.BroadcastBinary([]byte{1})
	h.BroadcastBinary([]byte{2})
	waitFor(t, func() bool { return h.ClientCount() == 0 })

	if _, ok := receive(t, c); !ok {
		t.Fatal("first message lost")
	}
	if _, ok := receive(t, c); ok {
		t.Error("send channel should be closed")
	}
}

func TestStop(t *testing.T) {
	h := New("stop", false)
	go h.Run()
	waitFor(t, h.IsRunning)

	c := join(t, h, 1)
	h.Stop()
	h.Stop()
	if _, ok := receive(t, c); ok {
		t.Error("client channel should close on Stop")
	}
	waitFor(t, func() bool { return !h.IsRunning() })

	if NewClient(h, nil) != nil {
		t.Error("NewClient on a stopped hub should return nil")
	}
}
