package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/eduai/tutor/backend/internal/handler/chat"
	"github.com/eduai/tutor/backend/internal/handler/page"
	"github.com/eduai/tutor/backend/internal/handler/stream"
	tutorHandler "github.com/eduai/tutor/backend/internal/handler/tutor"
	"github.com/eduai/tutor/backend/internal/handler/ws"
	middlewarePkg "github.com/eduai/tutor/backend/internal/middleware"
	tutorModel "github.com/eduai/tutor/backend/internal/model/tutor"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
	chatService "github.com/eduai/tutor/backend/internal/service/chat"
	tutorService "github.com/eduai/tutor/backend/internal/service/tutor"
	"github.com/eduai/tutor/backend/pkg/utils"
)

// Dependencies groups what the HTTP layer needs.
type Dependencies struct {
	Tutors     tutorModel.Store
	Chat       *chatService.Service
	Controller *tutorService.Controller
	Logger     *logger.Logger
	// Tracer defaults to the global provider when nil.
	Tracer trace.Tracer
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Trace(deps.Tracer))
	r.Use(middlewarePkg.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	page.New().RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": deps.Chat.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		tutorHandler.New(deps.Tutors).RegisterRoutes(api)
		chat.New(deps.Chat, deps.Controller, deps.Logger).RegisterRoutes(api)
		stream.New(deps.Chat, deps.Controller, deps.Logger).RegisterRoutes(api)
		ws.New(deps.Chat, deps.Controller, deps.Logger).RegisterRoutes(api)
	})

	return r
}
