package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"onepersonleft.ai/internal/protocol"
	"onepersonleft.ai/internal/session"
	"onepersonleft.ai/internal/share"
	"onepersonleft.ai/internal/sim/actions"
	"onepersonleft.ai/internal/sim/engine"
	"onepersonleft.ai/internal/sim/model"
)

const (
	helloTimeout = 5 * time.Second
	idleTimeout  = 5 * time.Minute
	writeTimeout = 5 * time.Second

	// A LOAD carries a whole token.
	readLimit = share.MaxTokenLen + 64<<10
)

// Metrics are process-wide counters for /metrics.
type Metrics struct {
	OpenSessions  int64
	TotalSessions int64
	TicksServed   int64
}

type Server struct {
	engine *engine.Engine
	log    *log.Logger

	upgrader websocket.Upgrader

	open  atomic.Int64
	total atomic.Int64
	ticks atomic.Int64
}

// NewServer serves games run by e. allowedOrigin restricts browser clients to
// one origin; empty or "*" accepts any.
func NewServer(e *engine.Engine, logger *log.Logger, allowedOrigin string) *Server {
	allowedOrigin = strings.TrimSpace(allowedOrigin)
	s := &Server{
		engine: e,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				return origin == "" || strings.EqualFold(origin, allowedOrigin)
			},
		},
	}
	return s
}

func (s *Server) Metrics() Metrics {
	return Metrics{
		OpenSessions:  s.open.Load(),
		TotalSessions: s.total.Load(),
		TicksServed:   s.ticks.Load(),
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(readLimit)

		id, sess := s.handshake(conn)
		if sess == nil {
			return
		}
		s.open.Add(1)
		s.total.Add(1)
		defer s.open.Add(-1)
		s.log.Printf("session %s open remote=%s seed=%q tick=%d", id, r.RemoteAddr, sess.Origin().Seed, sess.Origin().Tick)

		// One reply per message, in arrival order.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if err := writeJSON(conn, s.handle(id, sess, msg)); err != nil {
				break
			}
		}

		st := sess.State()
		s.log.Printf("session %s closed tick=%d ending=%s", id, st.Tick, endingOf(st))
	}
}

func (s *Server) handshake(conn *websocket.Conn) (string, *session.Session) {
	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		reject(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		reject(conn, protocol.ErrProtoBadRequest, "bad HELLO")
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		reject(conn, protocol.ErrProtoVersion, "bad protocol_version")
		return "", nil
	}

	id := uuid.NewString()
	sess := session.New(s.engine, hello.Seed)
	notice := ""
	if tok := strings.TrimSpace(hello.Token); tok != "" {
		if _, err := sess.LoadOrFresh(tok, hello.Seed); err != nil {
			s.log.Printf("session %s: token not loaded: %v", id, err)
			notice = "token not loaded, started a new game: " + err.Error()
		}
	}

	st := sess.State()
	token, err := share.Encode(st)
	if err != nil {
		reject(conn, protocol.ErrInternal, err.Error())
		return "", nil
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       id,
		State:           st,
		Token:           token,
		Notice:          notice,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}
	return id, sess
}

func (s *Server) handle(id string, sess *session.Session, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError(protocol.ErrProtoBadRequest, "bad json")
	}
	if base.ProtocolVersion != protocol.Version {
		return protocol.NewError(protocol.ErrProtoVersion, "bad protocol_version")
	}

	switch base.Type {
	case protocol.TypeAct:
		var m protocol.ActMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError(protocol.ErrProtoBadRequest, "bad ACT")
		}
		a, err := m.Action.ToAction()
		if err != nil {
			return protocol.NewError(protocol.ErrBadAction, err.Error())
		}
		st := sess.Apply(a)
		if _, ok := a.(actions.AdvanceTickAction); ok {
			s.ticks.Add(1)
		}
		applied := protocol.ActionReqOf(a)
		return stateMsg(st, &applied)

	case protocol.TypeTick:
		var m protocol.TickMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError(protocol.ErrProtoBadRequest, "bad TICK")
		}
		n := m.Count
		if n == 0 {
			n = 1
		}
		if n < 0 || n > protocol.MaxTickCount {
			return protocol.NewError(protocol.ErrProtoBadRequest, fmt.Sprintf("count must be in 1..%d", protocol.MaxTickCount))
		}
		st := sess.AdvanceN(n)
		s.ticks.Add(int64(n))
		return stateMsg(st, nil)

	case protocol.TypeReset:
		var m protocol.ResetMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError(protocol.ErrProtoBadRequest, "bad RESET")
		}
		return stateMsg(sess.Reset(m.Seed), nil)

	case protocol.TypeLoad:
		var m protocol.LoadMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError(protocol.ErrProtoBadRequest, "bad LOAD")
		}
		if err := sess.Load(m.Token); err != nil {
			s.log.Printf("session %s: load: %v", id, err)
			return protocol.NewError(protocol.ErrBadToken, err.Error())
		}
		return stateMsg(sess.State(), nil)

	case protocol.TypeShare:
		return stateMsg(sess.State(), nil)
	}
	return protocol.NewError(protocol.ErrProtoBadRequest, fmt.Sprintf("unknown type %q", base.Type))
}

func stateMsg(st model.State, applied *protocol.ActionReq) any {
	token, err := share.Encode(st)
	if err != nil {
		return protocol.NewError(protocol.ErrInternal, err.Error())
	}
	return protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		State:           st,
		Token:           token,
		Applied:         applied,
	}
}

func endingOf(st model.State) string {
	if st.Ending == nil {
		return "none"
	}
	return string(st.Ending.Type)
}

// reject answers a failed handshake with ERROR and a policy close.
func reject(conn *websocket.Conn, code, message string) {
	_ = writeJSON(conn, protocol.NewError(code, message))
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("ws write: %w", err)
	}
	return nil
}
