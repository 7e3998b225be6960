package server

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readTimeout  = 60 * time.Second
	pingPeriod   = 54 * time.Second
	writeTimeout = 10 * time.Second
	maxFrameSize = 64 << 10
)

// isValidOrigin checks if the origin is allowed to connect
func (sc *ServerContext) isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No origin header - could be a non-browser client
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		sc.Log.Warn().Str("origin", origin).Msg("Invalid origin URL")
		return false
	}

	// Allow same-origin connections
	if r.Host == originURL.Host {
		return true
	}

	// Allow localhost connections for development
	if strings.HasPrefix(originURL.Host, "localhost:") ||
		strings.HasPrefix(originURL.Host, "127.0.0.1:") ||
		originURL.Host == "localhost" ||
		originURL.Host == "127.0.0.1" {
		return true
	}

	if slices.Contains(sc.Config.Net.AllowedOrigins, origin) {
		return true
	}

	sc.Log.Warn().Str("origin", origin).Msg("Rejected WebSocket connection")
	return false
}

// HandleWebSocket upgrades the connection and hands the session to the
// manager loop
func (sc *ServerContext) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := sc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sc.Log.Debug().Err(err).Msg("WebSocket upgrade error")
		return
	}

	s := newSession(sc, conn)
	m := sc.Manager

	select {
	case m.register <- s:
	case <-m.done:
		conn.Close()
		return
	}

	go s.writePump()
	go s.readPump(m)
}

// readPump forwards inbound packets to the manager loop
func (s *Session) readPump(m *GameManager) {
	defer func() {
		select {
		case m.unregister <- s:
		case <-m.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg ClientMessage
		err := s.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Debug().Err(err).Msg("WebSocket error")
			}
			return
		}

		if !s.limiter.Allow() {
			s.log.Debug().Str("type", string(msg.Type)).Msg("Rate limited, dropping packet")
			continue
		}

		select {
		case m.inbox <- inbound{session: s, msg: msg}:
		case <-m.done:
			return
		}
	}
}

// writePump sends messages to the client
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
