package transport

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"hush/internal/audio"
	"hush/internal/log"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 250 * time.Millisecond
	wsQueueSize    = 64
	wsReadLimit    = 1024
)

// Command is an inbound control message. Only strength is accepted.
type Command struct {
	Strength *float32 `json:"strength"`
}

// WebSocketTransport broadcasts frames as JSON to every client connected on
// /ws and applies strength commands clients send back.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	setter    StrengthSetter
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
	listener  net.Listener
	wg        sync.WaitGroup
}

// NewWebSocketTransport creates the transport and starts its broadcast
// loop. setter may be nil to make the feed read-only. Call ListenAndServe
// to accept connections, or mount Handler on an existing server.
func NewWebSocketTransport(setter StrengthSetter) *WebSocketTransport {
	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // local monitoring tool
			},
		},
		setter:    setter,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, wsQueueSize),
		done:      make(chan struct{}),
	}

	wst.wg.Add(1)
	go wst.handleBroadcasts()
	return wst
}

// Handler returns the HTTP handler serving /ws.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	return mux
}

// ListenAndServe binds addr and serves in the background. The bind error, if
// any, is returned synchronously.
func (wst *WebSocketTransport) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	wst.listener = ln
	wst.server = &http.Server{
		Handler:           wst.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Component("websocket").Infof("serving on ws://%s/ws", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("websocket: server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before ListenAndServe.
func (wst *WebSocketTransport) Addr() net.Addr {
	if wst.listener == nil {
		return nil
	}
	return wst.listener.Addr()
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket: upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	log.Debugf("websocket: client %s connected, total: %d", conn.RemoteAddr(), total)

	go wst.readLoop(conn)
}

// readLoop applies inbound commands until the client goes away.
func (wst *WebSocketTransport) readLoop(conn *websocket.Conn) {
	defer wst.drop(conn)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil || cmd.Strength == nil {
			log.Debugf("websocket: ignoring message %q", msg)
			continue
		}
		if wst.setter != nil {
			wst.setter.SetStrength(audio.ClampStrength(*cmd.Strength))
		}
	}
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	conn.Close()
	if ok {
		log.Debugf("websocket: client disconnected, total: %d", total)
	}
}

// handleBroadcasts sends queued messages to all connected clients.
func (wst *WebSocketTransport) handleBroadcasts() {
	defer wst.wg.Done()
	for {
		select {
		case data := <-wst.broadcast:
			payload, err := json.Marshal(data)
			if err != nil {
				log.Errorf("websocket: marshal %T: %v", data, err)
				continue
			}
			wst.clientsMu.Lock()
			for client := range wst.clients {
				client.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
					log.Debugf("websocket: error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Send queues data for broadcast. When the queue is full the message is
// dropped; observers only care about the latest frame.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return errors.New("websocket: transport closed")
	default:
	}
	select {
	case wst.broadcast <- data:
	default:
	}
	return nil
}

// Close shuts down the server and disconnects every client.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		close(wst.done)
		wst.wg.Wait()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
