package target

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/normanking/cortexrig/internal/bus"
	"github.com/rs/zerolog"
)

const (
	wsWriteTimeout = 2 * time.Second
	wsSendBuffer   = 8
)

// WSFrameMessage carries one composed frame to renderer clients.
type WSFrameMessage struct {
	Type   string             `json:"type"`
	Seq    int64              `json:"seq"`
	Params map[string]float64 `json:"params"`
}

// WSInboundMessage is anything a renderer client may send.
type WSInboundMessage struct {
	Type    string   `json:"type"` // hello, trigger, pointer, mouth
	Params  []string `json:"params,omitempty"`
	Emotion string   `json:"emotion,omitempty"`
	X       float64  `json:"x,omitempty"`
	Y       float64  `json:"y,omitempty"`
	Level   float64  `json:"level,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WSServer is a Target that broadcasts frames to browser renderers (for
// example a Cubism web SDK page) and forwards their input onto the bus.
type WSServer struct {
	upgrader websocket.Upgrader
	bus      *bus.EventBus
	logger   zerolog.Logger

	onConnect    func()
	onDisconnect func()

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	known   map[string]bool
	pending map[string]float64
	seq     int64
}

func NewWSServer(eventBus *bus.EventBus, logger zerolog.Logger) *WSServer {
	return &WSServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		bus:     eventBus,
		logger:  logger.With().Str("component", "ws-target").Logger(),
		clients: make(map[*wsClient]struct{}),
		pending: make(map[string]float64),
	}
}

// SetConnectionCallbacks installs hooks for the first client connecting and
// the last one leaving.
func (s *WSServer) SetConnectionCallbacks(onConnect, onDisconnect func()) {
	s.onConnect = onConnect
	s.onDisconnect = onDisconnect
}

func (s *WSServer) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *WSServer) SetParameter(id string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return ErrNotConnected
	}
	if s.known != nil && !s.known[id] {
		return ErrUnknownParameter
	}
	s.pending[id] = value
	return nil
}

// Commit broadcasts the pending frame. Clients that cannot keep up skip
// frames; the next frame carries the full pose anyway. Sends happen under
// s.mu, which is also what unregister holds when it closes a send channel.
func (s *WSServer) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return ErrNotConnected
	}
	s.seq++
	msg := WSFrameMessage{Type: "frame", Seq: s.seq, Params: s.pending}
	s.pending = make(map[string]float64, len(msg.Params))

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Debug().Int64("seq", msg.Seq).Msg("Client behind, skipping frame")
		}
	}
	return nil
}

// ServeHTTP upgrades the connection and serves one renderer client.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	s.register(c)
	defer s.unregister(c)

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *WSServer) register(c *wsClient) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	first := len(s.clients) == 1
	s.mu.Unlock()

	s.logger.Info().Str("remote", c.conn.RemoteAddr().String()).Msg("Renderer connected")
	if first && s.onConnect != nil {
		s.onConnect()
	}
}

func (s *WSServer) unregister(c *wsClient) {
	s.mu.Lock()
	if _, ok := s.clients[c]; !ok {
		s.mu.Unlock()
		return
	}
	// Commit only sends to clients still in the map, under the same lock.
	delete(s.clients, c)
	close(c.send)
	last := len(s.clients) == 0
	if last {
		s.known = nil
		s.pending = make(map[string]float64)
	}
	s.mu.Unlock()

	c.conn.Close()
	s.logger.Info().Str("remote", c.conn.RemoteAddr().String()).Msg("Renderer disconnected")
	if last && s.onDisconnect != nil {
		s.onDisconnect()
	}
}

func (s *WSServer) writeLoop(c *wsClient) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug().Err(err).Msg("Write failed")
			c.conn.Close()
			return
		}
	}
}

func (s *WSServer) readLoop(c *wsClient) {
	for {
		var msg WSInboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Renderer connection lost")
			}
			return
		}
		s.handleInbound(msg)
	}
}

func (s *WSServer) handleInbound(msg WSInboundMessage) {
	switch msg.Type {
	case "hello":
		s.mu.Lock()
		s.known = make(map[string]bool, len(msg.Params))
		for _, id := range msg.Params {
			s.known[id] = true
		}
		s.mu.Unlock()
		s.logger.Info().Int("params", len(msg.Params)).Msg("Renderer announced parameters")

	case "trigger":
		s.bus.PublishSync(bus.Event{
			Type: bus.EventTypeEmotionTriggered,
			Data: map[string]any{"emotion": msg.Emotion},
		})

	case "pointer":
		s.bus.PublishSync(bus.Event{
			Type: bus.EventTypePointerMoved,
			Data: map[string]any{"x": msg.X, "y": msg.Y},
		})

	case "mouth":
		s.bus.PublishSync(bus.Event{
			Type: bus.EventTypeMouthOverride,
			Data: map[string]any{"level": msg.Level},
		})

	default:
		s.logger.Debug().Str("type", msg.Type).Msg("Ignoring unknown message")
	}
}
