package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/gorilla/websocket"
)

// ClientMessage is a message sent by a websocket client.
type ClientMessage struct {
	Type string `json:"type"` // "input" or "finish"
	Text string `json:"text,omitempty"`
}

const writeWait = 5 * time.Second

// Stream handles GET /ws. The connection becomes the relay's consumer: every
// step is pushed as it is published, with the output and errors drained since
// the previous frame. Clients may send input and finish messages.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	if !s.consumer.TryLock() {
		http.Error(w, "another consumer is attached", http.StatusConflict)
		return
	}
	defer s.consumer.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reader: client commands. A read error means the client left.
	go func() {
		defer cancel()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m ClientMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				s.logger.Debug("websocket: ignoring malformed message", "error", err)
				continue
			}
			switch m.Type {
			case "input":
				if err := s.supply(m.Text); err != nil {
					s.logger.Debug("websocket: input rejected", "error", err)
				}
			case "finish":
				s.source.SignalFinished()
			}
		}
	}()

	if err := s.pump(ctx, conn); err != nil {
		s.logger.Debug("websocket stream ended", "error", err)
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "finished"),
		time.Now().Add(time.Second))
}

// pump takes steps and writes frames until the relay finished (nil) or the
// client went away. Each input request is announced once; the pump then
// sleeps until the request is answered or abandoned.
func (s *Server) pump(ctx context.Context, conn *websocket.Conn) error {
	for {
		snap, err := s.source.AwaitStep(ctx)
		switch {
		case err == nil:
			f := s.frame(FrameStep, &snap)
			s.streams.BroadcastFrame(f)
			if err := s.write(conn, f); err != nil {
				return err
			}
		case errors.Is(err, domain.ErrFinished):
			return s.write(conn, s.frame(FrameFinished, nil))
		case errors.Is(err, domain.ErrInputRequested):
			if err := s.write(conn, s.frame(FrameAwaitingInput, nil)); err != nil {
				return err
			}
			if err := s.awaitAnswer(ctx); err != nil {
				return err
			}
		default:
			return err
		}
	}
}

// awaitAnswer blocks while the producer still waits for input.
func (s *Server) awaitAnswer(ctx context.Context) error {
	awaiting, changed := s.source.InputState()
	if !awaiting {
		return nil
	}
	select {
	case <-changed:
		return nil
	case <-s.source.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) frame(typ string, snap *domain.Snapshot) Frame {
	f := Frame{
		Type:     typ,
		Snapshot: snap,
		Outputs:  drain(s.source.DrainOutput),
		Errors:   drain(s.source.DrainError),
		Finished: s.source.IsFinished(),
	}
	f.AwaitingInput = typ == FrameAwaitingInput || s.source.AwaitingInput()
	return f
}

func (s *Server) write(conn *websocket.Conn, f Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}
