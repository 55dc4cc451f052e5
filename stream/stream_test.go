package stream

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine"
)

func TestFrameRoundTrip(t *testing.T) {
	v := engine.View{Step: 42, RenderScale: 1 << 25, PhysicsScale: 1 << 20, Gravity: core.Vec2{Y: -128 * 64}}
	ps := []core.Particle{
		{Position: core.Vec2{X: -7, Y: 9}, PrevPosition: core.Vec2{X: -7, Y: 9}},
		{Position: core.Vec2{X: 1 << 24, Y: -(1 << 24)}, PrevPosition: core.Vec2{X: 1 << 24, Y: -(1 << 24) + 64}},
	}
	b := EncodeFrame(nil, v, ps)
	if len(b) != FrameHeaderSize+2*FrameRecordSize {
		t.Fatalf("frame length = %d", len(b))
	}

	f, err := DecodeFrame(b)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if f.Step != 42 || f.RenderScale != v.RenderScale {
		t.Errorf("header = step %d scale %d", f.Step, f.RenderScale)
	}
	for i, p := range ps {
		if f.Positions[i] != p.Position {
			t.Errorf("position %d = %+v, want %+v", i, f.Positions[i], p.Position)
		}
	}
	if f.Speeds[0] != 0 || f.Speeds[1] != 255 {
		t.Errorf("speeds = %v, want [0 255]", f.Speeds)
	}
}

func TestDecodeFrameRejects(t *testing.T) {
	good := EncodeFrame(nil, engine.View{RenderScale: 1, PhysicsScale: 128}, make([]core.Particle, 3))
	bad := append([]byte{}, good...)
	bad[0] ^= 0xff

	for name, b := range map[string][]byte{
		"short":     good[:FrameHeaderSize-1],
		"truncated": good[:len(good)-1],
		"magic":     bad,
	} {
		if _, err := DecodeFrame(b); !errors.Is(err, ErrBadFrame) {
			t.Errorf("%s: err = %v, want ErrBadFrame", name, err)
		}
	}
}

func newTestServer(t *testing.T, maxClients int) (*Server, *httptest.Server) {
	t.Helper()
	g := engine.NewFixtureGlobals(-10)
	ps, err := engine.Place(engine.PlaceGrid, 50, g, 0)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	sim, reg, err := engine.NewFixtureSimulation(ps, -10, 2)
	if err != nil {
		t.Fatalf("NewFixtureSimulation: %v", err)
	}
	sched, err := engine.NewScheduler(sim, reg)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	t.Cleanup(sched.Stop)

	srv := NewServer(sched, maxClients)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func waitClients(t *testing.T, srv *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for srv.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", srv.Clients(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	mt, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", mt)
	}
	f, err := DecodeFrame(msg)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	return f
}

func command(t *testing.T, conn *websocket.Conn, line string) string {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	mt, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Fatalf("reply type = %d, want text", mt)
	}
	return string(msg)
}

func TestServerStreamsFrames(t *testing.T) {
	srv, ts := newTestServer(t, 0)
	if srv.Broadcast() {
		t.Error("Broadcast with no clients sent a frame")
	}

	conn := dial(t, ts)
	waitClients(t, srv, 1)

	if !srv.Broadcast() {
		t.Fatal("first Broadcast sent nothing")
	}
	f := readFrame(t, conn)
	if f.Step != 0 || len(f.Positions) != 50 {
		t.Errorf("frame = step %d, %d particles", f.Step, len(f.Positions))
	}
	if srv.Broadcast() {
		t.Error("Broadcast repeated an unchanged step")
	}

	if got := command(t, conn, "step"); got != "ok Stopped 1" {
		t.Errorf("step reply = %q", got)
	}
	if !srv.Broadcast() {
		t.Fatal("Broadcast after step sent nothing")
	}
	f = readFrame(t, conn)
	if f.Step != 1 {
		t.Errorf("frame step = %d, want 1", f.Step)
	}

	conn.Close()
	waitClients(t, srv, 0)
}

func TestServerCommands(t *testing.T) {
	srv, ts := newTestServer(t, 0)
	conn := dial(t, ts)
	waitClients(t, srv, 1)

	tests := []struct {
		line, prefix string
	}{
		{"speed 250", "ok Stopped"},
		{"speed 0", "error: speed out of range"},
		{"speed fast", "error:"},
		{"speed", "error: usage"},
		{"jump", `error: unknown command "jump"`},
		{"  ", "error: empty command"},
		{"START", "ok Running"},
		{"step", "error: scheduler is running"},
		{"stop", "ok Stopped"},
	}
	for _, tt := range tests {
		if got := command(t, conn, tt.line); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("%q -> %q, want prefix %q", tt.line, got, tt.prefix)
		}
	}
	if srv.sched.Speed() != 250 {
		t.Errorf("speed = %d, want 250", srv.sched.Speed())
	}
}

func TestServerRefusesBeyondMaxClients(t *testing.T) {
	srv, ts := newTestServer(t, 1)
	dial(t, ts)
	waitClients(t, srv, 1)

	extra := dial(t, ts)
	_, _, err := extra.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		t.Errorf("extra client err = %v, want close 1013", err)
	}
	if srv.Clients() != 1 {
		t.Errorf("clients = %d, want 1", srv.Clients())
	}
}
