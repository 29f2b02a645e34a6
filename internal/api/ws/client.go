package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/Alijeyrad/internhub_backend/internal/presence"
	"github.com/Alijeyrad/internhub_backend/internal/repo"
	"github.com/Alijeyrad/internhub_backend/internal/service/relay"
	"github.com/Alijeyrad/internhub_backend/pkg/apperr"
)

// Client events.
const (
	eventJoin        = "join"
	eventSendMessage = "send_message"
	eventTypingStart = "typing_start"
	eventTypingStop  = "typing_stop"
)

// Server replies.
const (
	EventJoined           = "joined"
	EventMessageDelivered = "message_delivered"
	EventMessageError     = "message_error"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinData struct {
	UserID int64 `json:"userId"`
}

type sendData struct {
	SenderID    int64   `json:"senderId"`
	ReceiverID  int64   `json:"receiverId"`
	MessageType string  `json:"messageType"`
	Text        *string `json:"text"`
	FileURL     string  `json:"fileUrl"`
	FileName    string  `json:"fileName"`
	FileType    string  `json:"fileType"`
	FileSize    int64   `json:"fileSize"`
}

type typingData struct {
	SenderID   int64 `json:"senderId"`
	ReceiverID int64 `json:"receiverId"`
}

type errorData struct {
	Error string `json:"error"`
}

type client struct {
	id   string
	srv  *Server
	conn *websocket.Conn

	send      chan presence.Event
	done      chan struct{}
	closeOnce sync.Once

	// userID is zero until the connection joins.
	userID atomic.Int64
}

func (c *client) ID() string { return c.id }

// Send queues ev without blocking. A full queue means the peer is not
// keeping up; the connection is dropped and the client resyncs from history.
func (c *client) Send(ev presence.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- ev:
		return true
	case <-c.done:
		return false
	default:
		slog.Warn("ws: send queue full, dropping connection", "conn_id", c.id, "user_id", c.userID.Load())
		c.close()
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *client) run() {
	var g errgroup.Group
	g.Go(func() error {
		defer c.close()
		c.readPump()
		return nil
	})
	g.Go(func() error {
		defer c.close()
		c.writePump()
		return nil
	})
	g.Go(func() error {
		<-c.done
		c.srv.reg.Leave(c)
		return c.conn.Close()
	})
	_ = g.Wait()
}

func (c *client) readPump() {
	opts := c.srv.opts
	pongWait := 2 * opts.PingInterval

	c.conn.SetReadLimit(opts.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws: read failed", "conn_id", c.id, "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.fail("malformed frame")
			continue
		}
		c.dispatch(f)
	}
}

func (c *client) writePump() {
	opts := c.srv.opts
	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(opts.WriteTimeout)); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(opts.WriteTimeout))
			return
		}
	}
}

func (c *client) dispatch(f frame) {
	ctx, cancel := context.WithTimeout(c.srv.ctx, c.srv.opts.WriteTimeout)
	defer cancel()

	switch f.Event {
	case eventJoin:
		var d joinData
		if err := json.Unmarshal(f.Data, &d); err != nil || d.UserID <= 0 {
			c.fail("userId is required")
			return
		}
		c.userID.Store(d.UserID)
		c.srv.reg.Join(d.UserID, c)
		c.Send(presence.Event{Name: EventJoined, Data: d})

	case eventSendMessage:
		userID, ok := c.joined()
		if !ok {
			return
		}
		var d sendData
		if err := json.Unmarshal(f.Data, &d); err != nil {
			c.fail("malformed send_message payload")
			return
		}
		if d.SenderID != 0 && d.SenderID != userID {
			c.fail("senderId does not match the joined user")
			return
		}

		req := relay.SendRequest{
			SenderID:    userID,
			ReceiverID:  d.ReceiverID,
			MessageType: d.MessageType,
			Text:        d.Text,
		}
		if strings.TrimSpace(d.FileURL) != "" {
			req.File = &repo.FileMeta{URL: d.FileURL, Name: d.FileName, MimeType: d.FileType, Size: d.FileSize}
		}

		m, err := c.srv.relay.Send(ctx, req)
		if err != nil {
			c.fail(apperr.Message(err))
			return
		}
		c.Send(presence.Event{Name: EventMessageDelivered, Data: m})

	case eventTypingStart, eventTypingStop:
		userID, ok := c.joined()
		if !ok {
			return
		}
		var d typingData
		if err := json.Unmarshal(f.Data, &d); err != nil || d.ReceiverID <= 0 {
			c.fail("receiverId is required")
			return
		}
		if err := c.srv.relay.Typing(ctx, userID, d.ReceiverID, f.Event == eventTypingStart); err != nil {
			c.fail(apperr.Message(err))
		}

	default:
		c.fail("unknown event " + f.Event)
	}
}

func (c *client) joined() (int64, bool) {
	id := c.userID.Load()
	if id == 0 {
		c.fail("join before sending events")
		return 0, false
	}
	return id, true
}

func (c *client) fail(msg string) {
	c.Send(presence.Event{Name: EventMessageError, Data: errorData{Error: msg}})
}
