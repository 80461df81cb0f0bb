package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/xelth-com/eckscan/internal/realtime"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()
	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *gws.Conn, v interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func waitTerminals(t *testing.T, hub *Hub, want ...string) {
	t.Helper()
	sort.Strings(want)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got := hub.Terminals()
		sort.Strings(got)
		if strings.Join(got, ",") == strings.Join(want, ",") {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("terminals = %v, want %v", hub.Terminals(), want)
}

func TestHubIdentifyAndPublish(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	if err := conn.WriteJSON(BaseMessage{Type: "TERMINAL_IDENTIFY", TerminalID: "T1", MsgID: "m1"}); err != nil {
		t.Fatal(err)
	}
	var ack map[string]string
	readJSON(t, conn, &ack)
	if ack["type"] != "ACK" || ack["msgId"] != "m1" {
		t.Errorf("ack = %v", ack)
	}
	waitTerminals(t, hub, "T1")

	if !hub.SendToTerminal("T1", map[string]string{"type": "PING"}) {
		t.Error("SendToTerminal should reach T1")
	}
	var ping map[string]string
	readJSON(t, conn, &ping)

	hub.Publish(realtime.Change{Table: "packet", Action: "outwarded", OrderID: "O", PacketCode: "PKT-0001"})
	var ev Event
	readJSON(t, conn, &ev)
	if ev.Type != "packet_outwarded" || ev.ID != "PKT-0001" || ev.OrderID != "O" {
		t.Errorf("event = %+v", ev)
	}
}

func TestHubForwardsBrokerChanges(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	deadline := time.Now().Add(2 * time.Second)
	for len(hub.Terminals()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	broker := realtime.NewBroker()
	changes, stop := broker.Subscribe(8)
	defer stop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Forward(ctx, changes)

	broker.Publish(realtime.Change{Table: "bin", Action: "binned", BinCode: "A1"})

	var raw json.RawMessage
	readJSON(t, conn, &raw)
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "bin_binned" || ev.BinCode != "A1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestHubReconnectReplacesTerminal(t *testing.T) {
	hub, srv := startHub(t)
	first := dial(t, srv)
	second := dial(t, srv)

	for _, c := range []*gws.Conn{first, second} {
		if err := c.WriteJSON(BaseMessage{Type: "TERMINAL_IDENTIFY", TerminalID: "T1"}); err != nil {
			t.Fatal(err)
		}
		var ack map[string]string
		readJSON(t, c, &ack)
	}
	waitTerminals(t, hub, "T1")
}

func TestHubIgnoresIdentifyFromReplacedClient(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ack := []byte(`{"type":"ACK"}`)
	first := &Client{hub: hub, send: make(chan []byte, 4), terminalID: "anon_1"}
	second := &Client{hub: hub, send: make(chan []byte, 4), terminalID: "anon_2"}
	enqueue(hub, hub.register, first)
	enqueue(hub, hub.register, second)
	enqueue(hub, hub.identify, identify{client: first, id: "T1", ack: ack})
	enqueue(hub, hub.identify, identify{client: second, id: "T1", ack: ack})

	// first lost T1 to second; a late identify must not bring it back
	enqueue(hub, hub.identify, identify{client: first, id: "T2", ack: ack})
	waitTerminals(t, hub, "T1")
	if !hub.SendToTerminal("T1", map[string]string{"type": "PING"}) {
		t.Error("T1 should reach the new connection")
	}

	enqueue(hub, hub.unregister, second)
	waitTerminals(t, hub)

	if got := <-first.send; string(got) != string(ack) {
		t.Errorf("first ack = %s", got)
	}
	if _, ok := <-first.send; ok {
		t.Error("replaced client should have its send channel closed")
	}
	if got := <-second.send; string(got) != string(ack) {
		t.Errorf("second ack = %s", got)
	}
}
