package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"teahouse.bot/internal/protocol"
	"teahouse.bot/internal/teahouse/commands"
)

// Dispatcher answers one chat message. handled is false when the text is
// not a command.
type Dispatcher interface {
	Handle(ctx context.Context, req commands.Request) (reply string, handled bool)
}

type Config struct {
	BotName  string
	Catalogs protocol.CatalogDigests
	// Verifier is nil when hosts may connect without a token.
	Verifier *TokenVerifier
	// CommandTimeout bounds one Dispatcher.Handle call.
	CommandTimeout time.Duration
	// DedupWindow is how long a message id is remembered per host.
	DedupWindow time.Duration
}

type Server struct {
	d   Dispatcher
	cfg Config
	log zerolog.Logger

	upgrader websocket.Upgrader
	dedup    *dedup

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewServer(d Dispatcher, cfg Config, logger zerolog.Logger) *Server {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 10 * time.Second
	}
	return &Server{
		d:   d,
		cfg: cfg,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // hosts are not browsers
		},
		dedup: newDedup(cfg.DedupWindow),
		conns: map[*websocket.Conn]struct{}{},
	}
}

// session is one accepted host connection.
type session struct {
	id      string
	subject string
	ack     bool
	out     chan []byte
	log     zerolog.Logger
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.track(conn, true)
		defer s.track(conn, false)

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		sess.log.Info().Str("subject", sess.subject).Msg("host connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.handleFrame(ctx, sess, raw)
		}
		sess.log.Info().Msg("host disconnected")
	}
}

// CloseAll drops every open connection; used on shutdown since hijacked
// connections are not closed by http.Server.Shutdown.
func (s *Server) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		_ = c.Close()
	}
}

func (s *Server) track(c *websocket.Conn, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

func (s *Server) handleFrame(ctx context.Context, sess *session, raw []byte) {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		s.send(ctx, sess, nack("", protocol.ErrProtoBadRequest, "invalid json"))
		return
	}
	if base.Type != protocol.TypeMessage {
		s.send(ctx, sess, nack("", protocol.ErrUnsupported, "unsupported type "+base.Type))
		return
	}
	var msg protocol.MessageMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.send(ctx, sess, nack("", protocol.ErrProtoBadRequest, "invalid MESSAGE"))
		return
	}
	if msg.ProtocolVersion != protocol.Version {
		s.send(ctx, sess, nack(msg.MessageID, protocol.ErrProtoVersion, "bad protocol_version"))
		return
	}
	if msg.MessageID == "" || strings.TrimSpace(msg.UserID) == "" {
		s.send(ctx, sess, nack(msg.MessageID, protocol.ErrBadRequest, "message_id and user_id are required"))
		return
	}
	if !s.dedup.first(sess.subject, msg.MessageID, time.Now()) {
		sess.log.Debug().Str("message_id", msg.MessageID).Msg("duplicate message dropped")
		s.send(ctx, sess, nack(msg.MessageID, protocol.ErrDuplicate, "duplicate message_id"))
		return
	}
	if sess.ack {
		s.send(ctx, sess, protocol.AckMsg{
			Type: protocol.TypeAck, ProtocolVersion: protocol.Version, AckFor: msg.MessageID, Accepted: true,
		})
	}

	name := msg.UserName
	if name == "" {
		name = msg.UserID
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	reply, handled := s.d.Handle(cctx, commands.Request{UserID: msg.UserID, UserName: name, Text: msg.PlainText()})
	cancel()
	if !handled {
		return
	}
	sess.log.Debug().Str("message_id", msg.MessageID).Str("user_id", msg.UserID).Msg("reply")
	s.send(ctx, sess, protocol.ReplyMsg{
		Type:            protocol.TypeReply,
		ProtocolVersion: protocol.Version,
		InReplyTo:       msg.MessageID,
		UserID:          msg.UserID,
		GroupID:         msg.GroupID,
		Text:            reply,
	})
}

func nack(id, code, message string) protocol.AckMsg {
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          id,
		Code:            code,
		Message:         message,
	}
}

func (s *Server) send(ctx context.Context, sess *session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		sess.log.Error().Err(err).Msg("marshal outbound message")
		return
	}
	select {
	case sess.out <- b:
	case <-ctx.Done():
	}
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, websocket.ClosePolicyViolation, "expected HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "bad HELLO")
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, websocket.ClosePolicyViolation, "bad protocol_version")
		return nil
	}

	subject := strings.TrimSpace(hello.BotName)
	if subject == "" {
		subject = "host"
	}
	if s.cfg.Verifier != nil {
		token := ""
		if hello.Auth != nil {
			token = strings.TrimSpace(hello.Auth.Token)
		}
		sub, err := s.cfg.Verifier.Verify(token)
		if err != nil {
			s.log.Warn().Err(err).Msg("host auth failed")
			_ = writeJSON(conn, nack("", protocol.ErrAuth, "authentication failed"))
			closeWith(conn, websocket.ClosePolicyViolation, "auth failed")
			return nil
		}
		subject = sub
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}

	id, err := uuid.NewV7()
	if err != nil {
		closeWith(conn, websocket.CloseInternalServerErr, "session id")
		return nil
	}
	sess := &session{
		id:      id.String(),
		subject: subject,
		ack:     hello.Capabilities.AckRequired,
		out:     make(chan []byte, maxQ),
		log:     s.log.With().Str("session_id", id.String()).Logger(),
	}

	welcome := protocol.WelcomeMsg{
		Type:               protocol.TypeWelcome,
		ProtocolVersion:    protocol.Version,
		SessionID:          sess.id,
		BotName:            s.cfg.BotName,
		Subject:            subject,
		ServerCapabilities: protocol.ServerCapabilities{Ack: true},
		Catalogs:           s.cfg.Catalogs,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}
	return sess
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
