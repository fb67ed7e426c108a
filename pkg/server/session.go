package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/vango-dev/bind/internal/errors"
	"github.com/vango-dev/bind/pkg/dom"
	"github.com/vango-dev/bind/pkg/loop"
)

// Session is one live connection and the document it drives.
// All document and graph access happens on the session loop.
type Session struct {
	ID string

	server *Server
	conn   *websocket.Conn
	view   *view
	loop   *loop.Loop
	logger *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *Server) newSession(conn *websocket.Conn) (*Session, error) {
	id := uuid.NewString()
	logger := s.logger.With("session", id)

	v, err := s.mountView(logger, true)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:     id,
		server: s,
		conn:   conn,
		view:   v,
		loop: loop.New(
			loop.WithLogger(logger),
			loop.WithQueueSize(s.cfg.Server.EventQueue),
		),
		logger: logger,
	}, nil
}

// Serve sends the initial markup, then reads client messages until the
// connection closes or ctx is cancelled.
func (ss *Session) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer ss.Close()

	go func() {
		_ = ss.loop.Run(ctx)
	}()
	stopSweep := ss.loop.Every(ss.server.cfg.Render.SweepInterval.D(), func() {
		ss.view.router.Sweep()
	})
	defer stopSweep()

	var body string
	if err := ss.loop.Do(ctx, func() { body = ss.view.doc.BodyHTML() }); err != nil {
		return
	}
	if err := ss.send(InitMessage{T: MsgInit, Session: ss.ID, HTML: body}); err != nil {
		return
	}

	ss.readLoop(ctx)
}

// readLoop reads messages until the connection fails. Events are queued on
// the session loop; decode failures are answered without closing.
func (ss *Session) readLoop(ctx context.Context) {
	cfg := ss.server.cfg.Server
	ss.conn.SetReadLimit(cfg.MaxMessageSize)

	for {
		_ = ss.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout.D()))

		_, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				ss.logger.Error("read error", "error", err)
				ss.server.metrics.RecordWebSocketError("read")
			}
			return
		}

		msg, err := decodeMessage(data)
		if err != nil {
			ss.logger.Warn("malformed message", "error", err)
			ss.server.metrics.RecordWebSocketError("decode")
			_ = ss.send(errorMessage(err))
			continue
		}

		switch msg.T {
		case MsgPing:
			_ = ss.send(pongMessage{T: MsgPong})
		case MsgEvent:
			if err := ss.loop.Post(ctx, func() { ss.handleEvent(ctx, msg) }); err != nil {
				return
			}
		}
	}
}

// handleEvent runs on the session loop.
func (ss *Session) handleEvent(ctx context.Context, msg *ClientMessage) {
	_, span := ss.server.tracer.Start(ctx, "bind.event",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("bind.session_id", ss.ID),
			attribute.String("bind.event_type", msg.Type),
		),
	)
	defer span.End()

	target := dom.Resolve(ss.view.doc.Body(), msg.Path)
	if target == nil || target.Type != html.ElementNode {
		err := errors.New("P002").WithDetailf("no element at path %v", msg.Path)
		span.SetStatus(codes.Error, err.Error())
		_ = ss.send(errorMessage(err))
		return
	}

	allowed, err := ss.dispatch(msg.Type, target, msg.Data)
	ops := ss.view.doc.TakeOps()
	ss.server.metrics.RecordMutations(len(ops))
	span.SetAttributes(attribute.Int("bind.op_count", len(ops)))

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		_ = ss.send(errorMessage(err))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	if ops == nil {
		ops = []dom.Op{}
	}
	_ = ss.send(OpsMessage{T: MsgOps, Ops: ops, Prevented: !allowed})
}

// dispatch routes one event, turning a handler panic into an error so the
// mutations made before it are still flushed.
func (ss *Session) dispatch(typ string, target *html.Node, data map[string]string) (allowed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ss.logger.Error("event handler panic",
				"type", typ,
				"panic", r,
				"stack", string(debug.Stack()))
			if e, ok := errors.FromRecovered(r); ok {
				err = e
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
			allowed = true
		}
	}()
	return ss.view.router.Dispatch(typ, target, data), nil
}

func (ss *Session) send(v any) error {
	ss.writeMu.Lock()
	defer ss.writeMu.Unlock()

	_ = ss.conn.SetWriteDeadline(time.Now().Add(ss.server.cfg.Server.WriteTimeout.D()))
	if err := ss.conn.WriteJSON(v); err != nil {
		ss.logger.Warn("write error", "error", err)
		ss.server.metrics.RecordWebSocketError("write")
		return err
	}
	return nil
}

// Close stops the session loop and closes the connection. It is safe to
// call more than once.
func (ss *Session) Close() {
	ss.closeOnce.Do(func() {
		ss.loop.Close()

		ss.writeMu.Lock()
		_ = ss.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ss.writeMu.Unlock()

		_ = ss.conn.Close()
	})
}
