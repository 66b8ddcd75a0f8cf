package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
	"github.com/eduai/tutor/backend/internal/render"
	chatservice "github.com/eduai/tutor/backend/internal/service/chat"
	tutorservice "github.com/eduai/tutor/backend/internal/service/tutor"
)

const (
	defaultReadTimeout = 60 * time.Second
	writeTimeout       = 10 * time.Second

	// maxMessageBytes leaves room for a base64 encoded image.
	maxMessageBytes = tutorservice.MaxImageBytes*4/3 + 64<<10
)

// Handler runs a chat session over a WebSocket. Each inbound message is one
// input event; the rendered snapshot is pushed back after it completes.
type Handler struct {
	chatSvc    *chatservice.Service
	controller *tutorservice.Controller
	log        *logger.Logger
	upgrader   websocket.Upgrader

	// readTimeout bounds the wait for the next client frame or pong. It is
	// not running while an event is being processed.
	readTimeout time.Duration
}

// New creates the WebSocket handler.
func New(chatSvc *chatservice.Service, controller *tutorservice.Controller, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		chatSvc:    chatSvc,
		controller: controller,
		log:        log.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout: defaultReadTimeout,
	}
}

func (h *Handler) pingInterval() time.Duration {
	return h.readTimeout * 9 / 10
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// InboundMessage is a client event.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage carries typed input.
type TextMessage struct {
	Text string `json:"text"`
}

// FeedbackMessage carries the label of a clicked feedback button.
type FeedbackMessage struct {
	Label string `json:"label"`
}

// ImageMessage carries an uploaded image; Data is base64 in JSON.
type ImageMessage struct {
	Caption  string `json:"caption"`
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// OutgoingMessage is a server event.
type OutgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn serialises writes; gorilla allows one concurrent writer.
type conn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (c *conn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.WriteJSON(v)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "session", sessionID, "error", err)
		return
	}
	c := &conn{Conn: raw}
	defer c.Close()

	h.log.Info("connection opened", "session", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c.SetReadLimit(maxMessageBytes)
	_ = c.SetReadDeadline(time.Now().Add(h.readTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go h.pingLoop(ctx, c)

	h.sendSnapshot(c, h.controller.Snapshot(session))

	for {
		var msg InboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn("read error", "session", sessionID, "error", err)
			}
			h.log.Info("connection closed", "session", sessionID)
			return
		}
		// Pongs are not read while the model call blocks this loop.
		_ = c.SetReadDeadline(time.Time{})
		h.handleMessage(ctx, c, session, &msg)
		_ = c.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *conn, session *chatservice.Session, msg *InboundMessage) {
	var (
		snap tutorservice.Snapshot
		err  error
	)

	switch msg.Type {
	case "text":
		var text TextMessage
		if json.Unmarshal(msg.Data, &text) != nil {
			h.sendError(c, session.ID(), "invalid text payload")
			return
		}
		h.sendInfo(c, session.ID(), "processing")
		snap, err = h.controller.SubmitText(ctx, session, text.Text)
	case "feedback":
		var feedback FeedbackMessage
		if json.Unmarshal(msg.Data, &feedback) != nil {
			h.sendError(c, session.ID(), "invalid feedback payload")
			return
		}
		h.sendInfo(c, session.ID(), "processing")
		snap, err = h.controller.SubmitFeedback(ctx, session, feedback.Label)
	case "image":
		var image ImageMessage
		if json.Unmarshal(msg.Data, &image) != nil {
			h.sendError(c, session.ID(), "invalid image payload")
			return
		}
		h.sendInfo(c, session.ID(), "processing")
		snap, err = h.controller.SubmitImage(ctx, session, image.Caption, chat.Attachment{
			Name:     image.Name,
			MIMEType: image.MIMEType,
			Data:     image.Data,
		})
	default:
		h.sendError(c, session.ID(), "unsupported message type: "+msg.Type)
		return
	}

	if err != nil && !errors.Is(err, tutorservice.ErrEmptyInput) {
		h.sendError(c, session.ID(), err.Error())
		return
	}
	h.sendSnapshot(c, snap)
}

func (h *Handler) sendSnapshot(c *conn, snap tutorservice.Snapshot) {
	h.write(c, OutgoingMessage{
		Type:      "snapshot",
		SessionID: snap.SessionID,
		Data:      render.Snapshot(snap),
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) sendInfo(c *conn, sessionID, status string) {
	h.write(c, OutgoingMessage{
		Type:      "info",
		SessionID: sessionID,
		Data:      map[string]string{"status": status},
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) sendError(c *conn, sessionID, message string) {
	h.write(c, OutgoingMessage{
		Type:      "error",
		SessionID: sessionID,
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) write(c *conn, msg OutgoingMessage) {
	if err := c.writeJSON(msg); err != nil {
		h.log.Warn("write failed", "type", msg.Type, "error", err)
	}
}

func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(h.pingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
