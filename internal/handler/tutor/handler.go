package tutor

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eduai/tutor/backend/internal/model/tutor"
	"github.com/eduai/tutor/backend/pkg/utils"
)

// Handler serves the tutor catalogue.
type Handler struct {
	tutors tutor.Store
}

// New creates the tutor handler.
func New(tutors tutor.Store) *Handler {
	return &Handler{
		tutors: tutors,
	}
}

// RegisterRoutes registers the tutor routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tutors", h.handleListTutors)
	r.Get("/tutors/{tutorID}", h.handleGetTutor)
}

func (h *Handler) handleListTutors(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.tutors.List())
}

func (h *Handler) handleGetTutor(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.tutors.FindByID(chi.URLParam(r, "tutorID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "tutor not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}
