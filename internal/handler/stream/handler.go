package stream

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eduai/tutor/backend/internal/model/tutor"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
	"github.com/eduai/tutor/backend/internal/render"
	chatService "github.com/eduai/tutor/backend/internal/service/chat"
	tutorService "github.com/eduai/tutor/backend/internal/service/tutor"
	"github.com/eduai/tutor/backend/pkg/utils"
)

// Handler answers one student message over Server-Sent Events. The model call
// is a single blocking round trip, so the stream carries lifecycle events
// around one complete reply.
type Handler struct {
	chatSvc    *chatService.Service
	controller *tutorService.Controller
	log        *logger.Logger

	// keepAlive is the interval of comment lines written while the model
	// call is in flight, so proxies do not drop an idle stream.
	keepAlive time.Duration
}

const defaultKeepAlive = 15 * time.Second

// New creates the stream handler.
func New(chatSvc *chatService.Service, controller *tutorService.Controller, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		chatSvc:    chatSvc,
		controller: controller,
		log:        log.With("component", "stream"),
		keepAlive:  defaultKeepAlive,
	}
}

// RegisterRoutes registers the stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StartEvent opens the stream.
type StartEvent struct {
	SessionID string `json:"sessionId"`
}

// FeedbackEvent lists the checkpoint buttons to show.
type FeedbackEvent struct {
	Prompt  string                 `json:"prompt"`
	Options []tutor.FeedbackOption `json:"options"`
}

// EndEvent closes the stream with the full snapshot.
type EndEvent struct {
	Finished bool                `json:"finished"`
	Snapshot render.SnapshotView `json:"snapshot"`
}

// ErrorEvent reports a request that could not be processed.
type ErrorEvent struct {
	Error string `json:"error"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	message := r.URL.Query().Get("message")
	if strings.TrimSpace(message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, "start", StartEvent{SessionID: sessionID}); err != nil {
		return
	}

	res, ok := h.awaitReply(r.Context(), w, flusher, session, message)
	if !ok {
		// The turn is kept in the session even though nobody is listening.
		h.log.Debug("client left before the reply was delivered", "session", sessionID)
		return
	}
	if res.err != nil {
		h.log.Warn("stream request failed", "session", sessionID, "error", res.err)
		_ = utils.SendSSEEvent(w, flusher, "error", ErrorEvent{Error: res.err.Error()})
		return
	}
	snap := res.snap

	if reply, ok := snap.LastAssistant(); ok {
		_ = utils.SendSSEEvent(w, flusher, "message", render.Turn(reply))
	}
	if snap.AwaitingFeedback {
		_ = utils.SendSSEEvent(w, flusher, "feedback", FeedbackEvent{
			Prompt:  snap.FeedbackPrompt,
			Options: snap.FeedbackOptions,
		})
	}
	_ = utils.SendSSEEvent(w, flusher, "end", EndEvent{Finished: true, Snapshot: render.Snapshot(snap)})

	h.log.Debug("stream completed", "session", sessionID, "awaiting_feedback", snap.AwaitingFeedback)
}

type submitResult struct {
	snap tutorService.Snapshot
	err  error
}

// awaitReply runs the submission and writes keep-alive comments until it
// finishes. ok is false when the client went away first.
func (h *Handler) awaitReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, session *chatService.Session, message string) (submitResult, bool) {
	done := make(chan submitResult, 1)
	go func() {
		snap, err := h.controller.SubmitText(ctx, session, message)
		done <- submitResult{snap: snap, err: err}
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case res := <-done:
			return res, ctx.Err() == nil
		case <-ctx.Done():
			return submitResult{}, false
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				h.log.Debug("keep-alive failed", "session", session.ID(), "error", err)
			}
		}
	}
}
