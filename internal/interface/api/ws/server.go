// Package ws sirve la consola local del bot: un feed WebSocket con lo que va
// pasando (chat, incrementos, hitos, respuestas) y una API JSON mínima para
// consultar contadores y comandos. Los frames de texto entrantes se tratan
// como mensajes de la plataforma "web", así que desde la consola se puede
// manejar /cnt sin pasar por Twitch ni Kick.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cntBot/internal/domain"
	"cntBot/internal/infrastructure/logger"
	"cntBot/internal/usecase/commands"
)

// CounterLister es la vista de solo lectura que necesita /api/counters.
type CounterLister interface {
	List() []*domain.Counter
}

type Config struct {
	Addr     string
	Counters CounterLister
	Log      *logger.Logger
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

// Envelope es el sobre que viaja por el feed: un tipo y su payload.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type Server struct {
	addr     string
	counters CounterLister
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	handler MessageHandler
	httpSrv *http.Server
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func NewServer(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &Server{
		addr:     addr,
		counters: cfg.Counters,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*wsClient]struct{}),
	}
}

func (s *Server) SetHandler(h MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Start levanta el HTTP server y se bloquea hasta que el contexto se cancela.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/feed", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})
	mux.HandleFunc("/api/counters", s.withCORS(s.handleCounters))
	mux.HandleFunc("/api/commands", s.withCORS(s.handleCommands))

	srv := &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("ws: shutdown", "error", err)
		}
	}()

	s.log.Info("ws: consola escuchando", "addr", s.addr)

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("ws: upgrade", "error", err)
		return
	}

	client := &wsClient{conn: conn}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	clientCount := len(s.clients)
	s.mu.Unlock()

	s.log.Info("ws: nueva conexión", "remote", r.RemoteAddr, "clients", clientCount)

	go s.handleClient(ctx, client)
}

func (s *Server) handleClient(ctx context.Context, client *wsClient) {
	defer func() {
		client.conn.Close()

		s.mu.Lock()
		delete(s.clients, client)
		clientCount := len(s.clients)
		s.mu.Unlock()

		s.log.Info("ws: conexión cerrada", "clients", clientCount)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgType, data, err := client.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("ws: read", "error", err)
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		if err := s.dispatchIncoming(ctx, data); err != nil {
			s.log.Warn("ws: dispatch entrante", "error", err)
		}
	}
}

type incomingPayload struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

// dispatchIncoming convierte un frame de texto en un mensaje de la plataforma
// web. La consola es local: quien la tiene abierta tiene el proceso en su
// máquina, así que el mensaje entra como privado y con permisos de admin.
func (s *Server) dispatchIncoming(ctx context.Context, data []byte) error {
	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		return nil
	}

	payload := incomingPayload{}
	if err := json.Unmarshal(data, &payload); err != nil {
		payload.Text = string(data)
	}
	payload.Text = strings.TrimSpace(payload.Text)
	if payload.Text == "" {
		return errors.New("ws: frame entrante vacío")
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" {
		username = "console"
	}

	msg := domain.Message{
		Platform:  domain.PlatformWeb,
		ChannelID: "console",
		UserID:    "web",
		Username:  username,
		Text:      payload.Text,

		IsPrivate:       true,
		IsPlatformOwner: true,
		IsPlatformAdmin: true,
		IsPlatformMod:   true,
	}

	return handler(ctx, msg)
}

// Broadcast envía un sobre {type, data} a todos los clientes conectados. Los
// clientes que fallan al escribir se descartan.
func (s *Server) Broadcast(envelopeType string, data any) {
	envelope := Envelope{Type: envelopeType, Data: data}

	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(envelope); err != nil {
			s.log.Warn("ws: cliente descartado por error de escritura", "error", err)
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
			c.conn.Close()
		}
	}
}

type replyPayload struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// SendMessage hace de sender de la plataforma web: las respuestas del bot a
// la consola se retransmiten por el feed como sobres "reply".
func (s *Server) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if platform != domain.PlatformWeb {
		return errors.New("ws: este sender solo atiende la plataforma web")
	}

	s.Broadcast("reply", replyPayload{
		ChannelID: channelID,
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	return nil
}

type counterPayload struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Aliases []string `json:"aliases"`
}

// handleCounters devuelve la lista actual, en el mismo orden que /cnt list.
func (s *Server) handleCounters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.counters == nil {
		writeJSON(w, []counterPayload{})
		return
	}

	list := s.counters.List()
	payload := make([]counterPayload, 0, len(list))
	for _, c := range list {
		aliases := c.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		payload = append(payload, counterPayload{
			Name:    c.Name,
			Count:   c.Count,
			Aliases: aliases,
		})
	}
	writeJSON(w, payload)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, commands.BuiltinCommandCatalog())
}

func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

var _ domain.OutgoingMessagePort = (*Server)(nil)
