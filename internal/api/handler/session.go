package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kiranshivaraju/solverwatch/internal/monitor"
)

const (
	opErrorLog = "error_log"
	opSelect   = "select"
	opSnapshot = "snapshot"
	opError    = "error"

	pingInterval  = 10 * time.Second
	writeTimeout  = 10 * time.Second
	maxClientMsg  = 4 << 10
	sendQueueSize = 8
)

var upgrader = websocket.Upgrader{
	// The viewer is served from its own origin.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type clientMessage struct {
	Op    string `json:"op"`
	JobID *int64 `json:"job_id"`
}

type snapshotFrame struct {
	Op string `json:"op"`
	*monitor.Snapshot
}

type errorFrame struct {
	Op      string `json:"op"`
	JobID   *int64 `json:"job_id,omitempty"`
	Message string `json:"message"`
}

type frame struct {
	kind int
	data []byte
}

// NewSessionHandler returns an http.HandlerFunc for GET /api/v1/ws. Each
// connection owns a Monitor: "select" messages drive it and every committed
// snapshot is pushed as a JSON text frame. "error_log" messages are answered
// with one binary frame holding the msgpack payload.
func NewSessionHandler(svc ErrorLogs, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		s := newSession(conn, svc, logger)
		s.run(r.Context())
	}
}

type session struct {
	conn   *websocket.Conn
	svc    ErrorLogs
	logger *slog.Logger

	mon     *monitor.Monitor
	updated chan struct{}
	out     chan frame
	wg      sync.WaitGroup
}

func newSession(conn *websocket.Conn, svc ErrorLogs, logger *slog.Logger) *session {
	s := &session{
		conn:    conn,
		svc:     svc,
		logger:  logger,
		updated: make(chan struct{}, 1),
		out:     make(chan frame, sendQueueSize),
	}
	// Commits only flag the writer, which then sends the latest snapshot.
	s.mon = monitor.New(svc, monitor.WithLogger(logger), monitor.WithOnCommit(func(*monitor.Snapshot) {
		select {
		case s.updated <- struct{}{}:
		default:
		}
	}))
	return s
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx)
	}()

	s.readLoop(ctx)

	cancel()
	s.mon.Close()
	s.wg.Wait()
	<-writerDone
	s.conn.Close()
}

func (s *session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxClientMsg)
	s.conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
	})

	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			s.sendError(ctx, nil, "expected a text frame")
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(ctx, nil, "invalid JSON message")
			continue
		}
		s.dispatch(ctx, msg)
	}
}

func (s *session) dispatch(ctx context.Context, msg clientMessage) {
	switch msg.Op {
	case opSelect:
		if msg.JobID == nil {
			s.mon.Clear()
			return
		}
		id := *msg.JobID
		// Begin on the read loop so frames win in the order they arrived.
		sel := s.mon.Begin(ctx, id)
		s.spawn(func() {
			err := sel.Run()
			if err != nil && !errors.Is(err, monitor.ErrSuperseded) && ctx.Err() == nil {
				s.sendError(ctx, &id, err.Error())
			}
		})
	case opErrorLog:
		if msg.JobID == nil {
			s.sendError(ctx, nil, "job_id is required")
			return
		}
		id := *msg.JobID
		s.spawn(func() {
			b, err := s.svc.Payload(ctx, id)
			if err != nil {
				if ctx.Err() == nil {
					s.sendError(ctx, &id, err.Error())
				}
				return
			}
			s.send(ctx, frame{kind: websocket.BinaryMessage, data: b})
		})
	default:
		s.sendError(ctx, nil, "unknown op "+msg.Op)
	}
}

func (s *session) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *session) send(ctx context.Context, f frame) {
	select {
	case s.out <- f:
	case <-ctx.Done():
	}
}

func (s *session) sendError(ctx context.Context, jobID *int64, message string) {
	b, err := json.Marshal(errorFrame{Op: opError, JobID: jobID, Message: message})
	if err != nil {
		return
	}
	s.send(ctx, frame{kind: websocket.TextMessage, data: b})
}

// writeLoop is the only goroutine writing to the connection.
func (s *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		var f frame
		select {
		case <-ctx.Done():
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		case <-ticker.C:
			f = frame{kind: websocket.PingMessage}
		case <-s.updated:
			b, err := json.Marshal(snapshotFrame{Op: opSnapshot, Snapshot: s.mon.Current()})
			if err != nil {
				s.logger.Error("encode snapshot", "error", err)
				continue
			}
			f = frame{kind: websocket.TextMessage, data: b}
		case f = <-s.out:
		}

		s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(f.kind, f.data); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			// Unblock the reader so the session shuts down.
			s.conn.Close()
			return
		}
	}
}
