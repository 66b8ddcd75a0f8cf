package chat

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
	"github.com/eduai/tutor/backend/internal/render"
	chatService "github.com/eduai/tutor/backend/internal/service/chat"
	tutorService "github.com/eduai/tutor/backend/internal/service/tutor"
	"github.com/eduai/tutor/backend/pkg/utils"
)

// multipartOverhead leaves room for the caption and part headers on top of
// the image itself.
const multipartOverhead = 1 << 20

// Handler serves the session lifecycle and the three input events.
type Handler struct {
	chatSvc    *chatService.Service
	controller *tutorService.Controller
	log        *logger.Logger
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, controller *tutorService.Controller, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		chatSvc:    chatSvc,
		controller: controller,
		log:        log,
	}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleEndSession)
		r.Post("/messages", h.handleSubmitText)
		r.Post("/feedback", h.handleSubmitFeedback)
		r.Post("/images", h.handleSubmitImage)
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TutorID string `json:"tutorId"`
	}

	// An empty body selects the default tutor.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.TutorID)
	if err != nil {
		if errors.Is(err, chatService.ErrTutorNotFound) {
			utils.RespondError(w, http.StatusBadRequest, "tutor not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info("session started", "session", session.ID(), "tutor", session.Meta().TutorID)
	utils.RespondJSON(w, http.StatusCreated, render.Snapshot(h.controller.Snapshot(session)))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, render.Snapshot(h.controller.Snapshot(session)))
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.chatSvc.EndSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	h.log.Info("session ended", "session", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmitText(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.controller.SubmitText(r.Context(), session, payload.Text)
	RespondSnapshot(w, snap, err)
}

func (h *Handler) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.controller.SubmitFeedback(r.Context(), session, payload.Label)
	RespondSnapshot(w, snap, err)
}

func (h *Handler) handleSubmitImage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, tutorService.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(tutorService.MaxImageBytes + multipartOverhead); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "image field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, tutorService.MaxImageBytes+1))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	attachment := chat.Attachment{
		Name:     filepath.Base(header.Filename),
		MIMEType: DetectImageType(header.Header.Get("Content-Type"), header.Filename, data),
		Data:     data,
	}

	snap, err := h.controller.SubmitImage(r.Context(), session, r.FormValue("caption"), attachment)
	RespondSnapshot(w, snap, err)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*chatService.Session, bool) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return session, true
}

// RespondSnapshot writes the rendered snapshot, mapping controller errors to
// status codes. Empty input is not an error for the client: the unchanged
// snapshot is returned.
func RespondSnapshot(w http.ResponseWriter, snap tutorService.Snapshot, err error) {
	switch {
	case err == nil, errors.Is(err, tutorService.ErrEmptyInput):
		utils.RespondJSON(w, http.StatusOK, render.Snapshot(snap))
	case errors.Is(err, tutorService.ErrFeedbackNotExpected):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, tutorService.ErrUnknownFeedbackOption), errors.Is(err, tutorService.ErrInvalidAttachment):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatService.ErrTutorNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}

// DetectImageType picks the attachment MIME type from the part header, the
// file extension and finally the content itself.
func DetectImageType(declared, filename string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); strings.HasPrefix(byExt, "image/") {
		mediaType, _, _ := mime.ParseMediaType(byExt)
		return mediaType
	}
	return http.DetectContentType(data)
}
