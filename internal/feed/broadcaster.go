package feed

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/signalcore/signalcore/internal/model"
)

// SignalBroadcaster fans accepted blueprints out to WebSocket clients —
// the optional outbound signal_sink (§6), adapted from the teacher's
// internal/broadcast.Hub: same register/unregister-channel client
// bookkeeping and non-blocking per-client fan-out, MsgPack wire format
// instead of full Snapshot frames.
type SignalBroadcaster struct {
	log        zerolog.Logger
	input      chan signalMsg
	register   chan *wsClient
	unregister chan *wsClient
	clients    map[*wsClient]bool

	upgrader websocket.Upgrader
}

type signalMsg struct {
	blueprint  model.Blueprint
	decisionID string
}

// NewSignalBroadcaster constructs a broadcaster; call Run in its own
// goroutine and Handler to mount the /ws endpoint.
func NewSignalBroadcaster(log zerolog.Logger) *SignalBroadcaster {
	return &SignalBroadcaster{
		log:        log.With().Str("component", "signal_broadcaster").Logger(),
		input:      make(chan signalMsg, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		clients:    make(map[*wsClient]bool),
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Publish fans an accepted blueprint out, non-blocking — a slow or absent
// consumer never stalls the coordinator.
func (b *SignalBroadcaster) Publish(bp model.Blueprint, decisionID string) {
	select {
	case b.input <- signalMsg{blueprint: bp, decisionID: decisionID}:
	default:
		b.log.Warn().Str("symbol", string(bp.Symbol)).Msg("signal broadcaster backed up, dropping")
	}
}

// Run drives the hub loop until input is closed.
func (b *SignalBroadcaster) Run() {
	for {
		select {
		case client, ok := <-b.register:
			if !ok {
				return
			}
			b.clients[client] = true
		case client := <-b.unregister:
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.send)
			}
		case msg, ok := <-b.input:
			if !ok {
				return
			}
			wire := AppendSignalMsgPack(make([]byte, 0, 128), msg.blueprint, msg.decisionID)
			for client := range b.clients {
				select {
				case client.send <- wire:
				default:
				}
			}
		}
	}
}

type wsClient struct {
	hub  *SignalBroadcaster
	conn *websocket.Conn
	send chan []byte
}

// Handler returns the WebSocket upgrade handler for the caller to mount
// (cmd/signalcore mounts it at /ws).
func (b *SignalBroadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		client := &wsClient{hub: b, conn: conn, send: make(chan []byte, 256)}
		b.register <- client
		go client.writePump()
		go client.readPump()
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for {
		msg, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		w, err := c.conn.NextWriter(websocket.BinaryMessage)
		if err != nil {
			return
		}
		w.Write(msg)
		if err := w.Close(); err != nil {
			return
		}
	}
}
