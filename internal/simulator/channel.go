package simulator

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/protocol"
)

// channel is one upgraded /cgi/state connection.
type channel struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	stop    chan struct{}
	once    sync.Once
}

func (c *channel) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *channel) close() {
	c.once.Do(func() {
		close(c.stop)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.conn.Close()
	})
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Failed to upgrade", "err", err)
		return
	}
	c := &channel{conn: conn, stop: make(chan struct{})}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	s.log.Info("State channel connected")

	go s.push(c)
	go s.serve(c)
}

// push sends the current telemetry on every tick. The first push waits one
// interval so the identity check reply is the first frame a console sees.
func (s *Server) push(c *channel) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.release(c)

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
		if err := c.writeJSON(s.states.appInfo()); err != nil {
			s.log.Debug("Push failed", "err", err)
			return
		}
	}
}

// serve answers identity checks until the console goes away.
func (s *Server) serve(c *channel) {
	defer s.release(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			MessageType string `json:"messageType"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("Bad channel message", "err", err)
			continue
		}
		if msg.MessageType == consts.MessageCheckSessionKey {
			reply := protocol.CheckSessionKeyReply{
				MessageType:       consts.MessageCheckSessionKey,
				CurrentSessionKey: s.states.SessionKey(),
			}
			if err := c.writeJSON(reply); err != nil {
				return
			}
		}
	}
}

func (s *Server) release(c *channel) {
	c.close()
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) dropChannels() {
	s.mu.Lock()
	conns := make([]*channel, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		s.release(c)
	}
}

// Connections returns the number of open state channels.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Personal.AI order the ending
