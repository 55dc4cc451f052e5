package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine"
)

// ErrTooManyClients is logged when a connection is refused at MaxClients
var ErrTooManyClients = errors.New("max clients reached")

const (
	// DefaultMaxClients bounds concurrent viewers
	DefaultMaxClients = 16
	writeTimeout      = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   64 * 1024,
	EnableCompression: true,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type message struct {
	kind int // websocket.BinaryMessage or websocket.TextMessage
	data []byte
}

type client struct {
	conn *websocket.Conn
	send chan message
}

// Server streams binary snapshot frames to websocket clients
// Text messages from a client are scheduler commands: start, stop, step, speed N
type Server struct {
	sched      *engine.Scheduler
	maxClients int

	mu       sync.Mutex
	clients  map[*client]struct{}
	lastStep uint64
	sent     bool

	buf []core.Particle
}

// NewServer creates a server over sched
// maxClients <= 0 selects DefaultMaxClients
func NewServer(sched *engine.Scheduler, maxClients int) *Server {
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	return &Server{
		sched:      sched,
		maxClients: maxClients,
		clients:    make(map[*client]struct{}),
	}
}

// Clients returns the number of connected viewers
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ServeHTTP upgrades the request and serves the connection until it closes
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan message, 1)}
	s.mu.Lock()
	if len(s.clients) >= s.maxClients {
		s.mu.Unlock()
		log.Printf("stream: refusing %s: %v", r.RemoteAddr, ErrTooManyClients)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, ErrTooManyClients.Error()),
			time.Now().Add(writeTimeout))
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	log.Printf("stream: client %s connected", r.RemoteAddr)

	writerDone := make(chan struct{})
	core.Go(func() {
		defer close(writerDone)
		s.writeLoop(c)
	})

	s.readLoop(c)

	s.mu.Lock()
	delete(s.clients, c)
	close(c.send)
	s.mu.Unlock()
	<-writerDone
	conn.Close()
	log.Printf("stream: client %s disconnected", r.RemoteAddr)
}

// writeLoop owns every write to the connection, frames and command replies alike
func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
			log.Printf("stream: write failed: %v", err)
			c.conn.Close()
			// Drain until ServeHTTP closes send
			for range c.send {
			}
			return
		}
	}
}

func (s *Server) readLoop(c *client) {
	for {
		mt, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("stream: read failed: %v", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		// Replies are never dropped; block until the writer has room
		c.send <- message{kind: websocket.TextMessage, data: []byte(s.command(string(msg)))}
	}
}

// command executes one text command and returns the reply line
func (s *Server) command(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "error: empty command"
	}

	var err error
	switch strings.ToLower(fields[0]) {
	case "start":
		err = s.sched.Start()
	case "stop":
		s.sched.Stop()
	case "step":
		err = s.sched.SingleStep()
	case "speed":
		if len(fields) != 2 {
			return "error: usage: speed N"
		}
		var pct int
		if pct, err = strconv.Atoi(fields[1]); err == nil {
			err = s.sched.SetSpeed(pct)
		}
	default:
		return fmt.Sprintf("error: unknown command %q", fields[0])
	}
	if err != nil {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("ok %s %d", s.sched.State(), s.sched.Simulation().Step())
}

// Broadcast encodes the current snapshot and queues it for every client
// Returns false without encoding when the step has not advanced since the last frame
// A client still sending the previous frame has the new one dropped
func (s *Server) Broadcast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sim := s.sched.Simulation()
	if len(s.clients) == 0 || (s.sent && sim.Step() == s.lastStep) {
		return false
	}

	var view engine.View
	s.buf, view = sim.Frame(s.buf)
	frame := message{
		kind: websocket.BinaryMessage,
		data: EncodeFrame(make([]byte, 0, FrameHeaderSize+len(s.buf)*FrameRecordSize), view, s.buf),
	}

	for c := range s.clients {
		select {
		case c.send <- frame:
		default:
		}
	}
	s.lastStep, s.sent = view.Step, true
	return true
}

// Run broadcasts every interval until ctx is done
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Broadcast()
		}
	}
}
