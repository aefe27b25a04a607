package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/models"
	"traffic_supervisor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	maxMsgSize  = 1 << 12 // 4 KB
	maxInterval = 10 * time.Second

	// defaultHeartbeat resends the current state when nothing changed.
	defaultHeartbeat = 1 * time.Second
)

// wsEnvelope wraps every frame on /ws.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The stream is read-only, so any origin may subscribe.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateStream writes supervisor states to one websocket client. Changes are
// pushed as they are published; the heartbeat covers quiet periods and
// monitoring backends that cannot push.
type stateStream struct {
	conn *websocket.Conn
	mon  service.Monitoring
	log  *logger.Logger

	changes chan models.SupervisorState

	mu   sync.Mutex
	sent uint64 // version of the last frame written
}

func newStateStream(conn *websocket.Conn, mon service.Monitoring, log *logger.Logger) *stateStream {
	return &stateStream{
		conn:    conn,
		mon:     mon,
		log:     logger.OrNop(log),
		changes: make(chan models.SupervisorState, 1),
	}
}

// offer is the state listener. It never blocks the tracker: a state still
// waiting to be written is replaced by the newer one.
func (s *stateStream) offer(st models.SupervisorState) {
	for {
		select {
		case s.changes <- st:
			return
		default:
		}
		select {
		case <-s.changes:
		default:
		}
	}
}

// write sends st unless a newer version already went out.
func (s *stateStream) write(st models.SupervisorState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Version != 0 && st.Version < s.sent {
		return nil
	}
	s.sent = st.Version
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(wsEnvelope{Type: "state", Data: st})
}

func (s *stateStream) writeCurrent(ctx context.Context) error {
	st, err := s.mon.GetState(ctx)
	if err != nil {
		s.log.Errorw("ws_get_state_failed", "err", err)
		return err
	}
	return s.write(st)
}

func (s *stateStream) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// run writes frames until the client goes away or ctx ends.
func (s *stateStream) run(ctx context.Context, heartbeat time.Duration, closed <-chan struct{}) {
	if feed, ok := s.mon.(service.StateFeed); ok {
		unsubscribe := feed.Subscribe(s.offer)
		defer unsubscribe()
	}

	if err := s.writeCurrent(ctx); err != nil {
		s.log.Infow("ws_write_failed_initial", "err", err)
		return
	}

	beat := time.NewTicker(heartbeat)
	defer beat.Stop()
	keepalive := time.NewTicker(pingPeriod)
	defer keepalive.Stop()

	for {
		var err error
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case st := <-s.changes:
			err = s.write(st)
		case <-beat.C:
			err = s.writeCurrent(ctx)
		case <-keepalive.C:
			err = s.ping()
		}
		if err != nil {
			s.log.Infow("ws_write_failed", "err", err)
			return
		}
	}
}

func (h *Handler) wsConnect(c *gin.Context) {
	heartbeat := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go h.drain(conn, closed)

	newStateStream(conn, h.services.Monitoring, h.log).run(c.Request.Context(), heartbeat, closed)
}

// parseInterval reads the heartbeat from ?interval=2s or ?interval_ms=2000.
// Out of range or malformed values fall back to the default.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= int(maxInterval/time.Millisecond) {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultHeartbeat
}

// drain reads until the client disconnects so control frames get handled.
func (h *Handler) drain(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Debugw("ws_read_closed", "err", err)
			return
		}
	}
}
