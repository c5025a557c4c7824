// internal/httpserver/ws.go
//
// GET /game/{id}/ws streams table events (state, frame, notice) as JSON
// text messages. The same connection accepts player actions:
//
//	{"type":"click","cueId":12}
//	{"type":"answer","answer":"fire"}
//	{"type":"hint","flavor":"FIRST_LETTER"}
//	{"type":"resize","width":390,"height":640}
//	{"type":"restart"}
//
// Action failures come back as {"type":"error","error":"..."}; successes
// show up as the state events they cause.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/internal/bubbles"
	"github.com/robalobadob/triads/internal/game"
	"github.com/robalobadob/triads/internal/play"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1024

	// Frames arrive at frame rate; a slow reader drops them rather than
	// stalling the loop.
	sendBufferSize = 256

	actionTimeout = 10 * time.Second
)

type clientMsg struct {
	Type   string          `json:"type"`
	CueID  int             `json:"cueId"`
	Answer string          `json:"answer"`
	Flavor game.HintFlavor `json:"flavor"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
}

type errorMsg struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// streamClient is one websocket subscriber of a table.
type streamClient struct {
	conn   *websocket.Conn
	table  *play.Table
	send   chan []byte
	done   chan struct{}
	log    zerolog.Logger
	mu     sync.Mutex
	closed bool
}

func (s *Server) upgrader() websocket.Upgrader {
	origin := s.cfg.Server.ClientOrigin
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == origin
		},
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	t, err := s.tables.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("table", t.ID()).Msg("websocket upgrade failed")
		return
	}

	c := &streamClient{
		conn:  conn,
		table: t,
		send:  make(chan []byte, sendBufferSize),
		done:  make(chan struct{}),
		log:   log.With().Str("table", t.ID()).Logger(),
	}
	unsub := t.Subscribe(c.push)
	defer unsub()

	// Current state first so the client can render before the next change.
	snap := t.View()
	c.push(play.Event{Type: play.EventState, State: &snap.Game})
	c.push(play.Event{Type: play.EventFrame, Frame: &snap.Board})

	c.log.Debug().Msg("stream connected")
	go c.writePump()
	c.readPump()
	c.log.Debug().Msg("stream disconnected")
}

// push queues an event without blocking the publisher.
func (c *streamClient) push(e play.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		c.log.Warn().Err(err).Msg("encode event")
		return
	}
	c.enqueue(data)
}

func (c *streamClient) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Debug().Msg("send buffer full, message dropped")
	}
}

func (c *streamClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.conn.Close()
}

func (c *streamClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		c.handleMessage(data)
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *streamClient) handleMessage(data []byte) {
	var msg clientMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("bad_json")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case "click":
		err = c.table.Click(ctx, msg.CueID)
	case "select":
		err = c.table.Select(ctx, msg.CueID)
	case "deselect":
		err = c.table.Deselect(msg.CueID)
	case "answer":
		err = c.table.SubmitAnswer(ctx, msg.Answer)
	case "hint":
		err = c.table.RequestHint(ctx, msg.Flavor)
	case "bonus":
		err = c.table.LoadBonus(ctx)
	case "restart":
		err = c.table.Restart(ctx)
	case "resize":
		if msg.Width <= 0 || msg.Height <= 0 {
			c.sendError("bad_size")
			return
		}
		c.table.Resize(bubbles.Bounds{Width: msg.Width, Height: msg.Height})
	default:
		c.sendError("unknown_type")
		return
	}
	if err != nil {
		c.sendError(errorCode(err))
	}
}

func (c *streamClient) sendError(code string) {
	data, _ := json.Marshal(errorMsg{Type: "error", Error: code})
	c.enqueue(data)
}
