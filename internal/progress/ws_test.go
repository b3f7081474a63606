package progress

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNotifier_SendDeliversToConnectedClient(t *testing.T) {
	n := NewNotifier()
	srv := httptest.NewServer(n)
	defer srv.Close()
	defer n.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// give the server a moment to register the client before sending.
	time.Sleep(20 * time.Millisecond)
	n.Send(map[string]string{"event": "hello"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading message: %v", err)
	}
	if !strings.Contains(string(msg), "hello") {
		t.Fatalf("expected event payload, got %q", msg)
	}
}

func TestNotifier_SendWithNoClientsIsANoop(t *testing.T) {
	n := NewNotifier()
	n.Send(map[string]string{"event": "unheard"})
}

func TestNotifier_SendDoesNotBlockOnFullBuffer(t *testing.T) {
	n := NewNotifier()
	c := &client{ch: make(chan []byte, 2)}
	n.clients[c] = struct{}{}

	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBufferSize*2; i++ {
			n.Send(map[string]int{"i": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Send blocked on a full client buffer")
	}
}
