// Package server exposes the assistant over a websocket endpoint.
package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datachat-cli/internal/agent"
	"github.com/KaramelBytes/datachat-cli/internal/display"
	"github.com/KaramelBytes/datachat-cli/internal/frame"
	"github.com/KaramelBytes/datachat-cli/internal/logging"
	"github.com/KaramelBytes/datachat-cli/internal/orchestrator"
	"github.com/KaramelBytes/datachat-cli/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	defaultMaxUpload = 32 << 20
)

// Message types.
const (
	TypeUpload   = "upload"
	TypeMessage  = "message"
	TypeInsights = "insights"
	TypeSession  = "session"
	TypeDataset  = "dataset"
	TypeDone     = "done"
	TypeError    = "error"
)

// Turner runs one conversational turn.
type Turner interface {
	Turn(ctx context.Context, s *session.Session, utterance string) orchestrator.Reply
}

// ClientMessage is sent by the browser. Data is base64 file content.
type ClientMessage struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Data string `json:"data,omitempty"`
	Text string `json:"text,omitempty"`
}

// ServerMessage is one frame sent to the browser.
type ServerMessage struct {
	Type     string            `json:"type"`
	Session  string            `json:"session,omitempty"`
	Role     string            `json:"role,omitempty"`
	Text     string            `json:"text,omitempty"`
	Intent   agent.Intent      `json:"intent,omitempty"`
	Artifact *display.Artifact `json:"artifact,omitempty"`
	Insights []string          `json:"insights,omitempty"`
}

type Options struct {
	// SessionTTL expires idle sessions; 0 keeps them for the process lifetime.
	SessionTTL time.Duration
	// MaxUpload bounds a decoded upload in bytes.
	MaxUpload    int
	FrameOptions frame.Options
	Logger       *zap.Logger
}

// entry serialises turns on one session across connections.
type entry struct {
	mu sync.Mutex
	s  *session.Session
}

type Server struct {
	turner   Turner
	opt      Options
	store    *cache.Cache
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func New(turner Turner, opt Options) *Server {
	if opt.MaxUpload <= 0 {
		opt.MaxUpload = defaultMaxUpload
	}
	ttl := opt.SessionTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Server{
		turner: turner,
		opt:    opt,
		store:  cache.New(ttl, 10*time.Minute),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logging.OrNop(opt.Logger).Named("server"),
	}
}

// Handler routes /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "sessions": s.store.ItemCount()})
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func (s *Server) session(id string) *entry {
	if id != "" {
		if v, ok := s.store.Get(id); ok {
			e := v.(*entry)
			s.store.SetDefault(id, e)
			return e
		}
	}
	e := &entry{s: session.New()}
	s.store.SetDefault(e.s.ID, e)
	return e
}

// conn wraps a websocket with a write lock shared by the ping loop.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(m ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(m)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	e := s.session(r.URL.Query().Get("session"))
	log := s.log.With(zap.String("session", e.s.ID))
	log.Info("client connected", zap.String("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.keepAlive(ctx, c)

	ws.SetReadLimit(int64(s.opt.MaxUpload)*4/3 + 4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	if err := c.send(ServerMessage{Type: TypeSession, Session: e.s.ID}); err != nil {
		return
	}
	for {
		var msg ClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("read failed", zap.Error(err))
			}
			return
		}
		if err := s.handle(ctx, c, e, msg); err != nil {
			log.Warn("write failed", zap.Error(err))
			return
		}
		// a long turn must not eat into the next read's pong window
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (s *Server) keepAlive(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func (s *Server) handle(ctx context.Context, c *conn, e *entry, msg ClientMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch msg.Type {
	case TypeUpload:
		return s.upload(c, e.s, msg)
	case TypeMessage:
		if msg.Text == "" {
			return c.send(ServerMessage{Type: TypeError, Text: "mensagem vazia"})
		}
		reply := s.turner.Turn(ctx, e.s, msg.Text)
		for _, ev := range reply.Events {
			if err := c.send(ServerMessage{Type: string(ev.Kind), Role: ev.Role, Text: ev.Text, Artifact: ev.Artifact}); err != nil {
				return err
			}
		}
		return c.send(ServerMessage{Type: TypeDone, Intent: reply.Intent, Insights: reply.Insights})
	case TypeInsights:
		return c.send(ServerMessage{Type: TypeInsights, Insights: e.s.Insights(), Text: orchestrator.MemoryReply(e.s.Insights())})
	}
	return c.send(ServerMessage{Type: TypeError, Text: fmt.Sprintf("tipo de mensagem desconhecido: %q", msg.Type)})
}

func (s *Server) upload(c *conn, sess *session.Session, msg ClientMessage) error {
	data, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return c.send(ServerMessage{Type: TypeError, Text: fmt.Sprintf("Falha ao ler CSV: %v", err)})
	}
	if len(data) > s.opt.MaxUpload {
		return c.send(ServerMessage{Type: TypeError, Text: fmt.Sprintf("Falha ao ler CSV: arquivo maior que %d bytes", s.opt.MaxUpload)})
	}
	replaced, err := sess.Load(msg.Name, int64(len(data)), bytes.NewReader(data), s.opt.FrameOptions)
	if err != nil {
		return c.send(ServerMessage{Type: TypeError, Text: fmt.Sprintf("Falha ao ler CSV: %v", err)})
	}
	ds := sess.Data()
	text := fmt.Sprintf("%s %s", msg.Name, ds.Shape())
	if ds.Truncated() {
		text += fmt.Sprintf(" (truncado em %d linhas)", ds.Len())
		s.log.Warn("dataset truncated", zap.String("session", sess.ID), zap.String("name", msg.Name), zap.Int("rows", ds.Len()))
	}
	if err := c.send(ServerMessage{Type: TypeDataset, Text: text}); err != nil {
		return err
	}
	if !replaced {
		return nil
	}
	s.log.Info("dataset loaded", zap.String("session", sess.ID), zap.String("name", msg.Name), zap.Stringer("shape", ds.Shape()))
	return c.send(ServerMessage{Type: TypeMessage, Role: session.RoleAssistant, Text: session.Welcome})
}
