package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/studybrain/internal/api/handlers"
	"github.com/nikhilbhutani/studybrain/internal/api/middleware"
	"github.com/nikhilbhutani/studybrain/internal/audit"
	"github.com/nikhilbhutani/studybrain/internal/auth"
	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/guardrails"
	"github.com/nikhilbhutani/studybrain/internal/rag"
	"github.com/nikhilbhutani/studybrain/internal/speech"
	"github.com/nikhilbhutani/studybrain/internal/tutor"
)

// Deps are the services the HTTP surface is built over. Queue is nil when
// ingestion runs inline and Checks feeds /readyz. A nil Guard screens
// nothing; nil Usage or Narrator leaves their routes unregistered.
type Deps struct {
	Documents *document.Service
	Ingester  *rag.Ingester
	Linker    *rag.Linker
	Chat      *rag.ChatService
	Tutor     *tutor.Service
	Guard     *guardrails.Pipeline
	Usage     audit.Recorder
	Narrator  *speech.Narrator
	Queue     handlers.Enqueuer
	Checks    map[string]handlers.Pinger
}

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
}

type Router struct {
	mux  *chi.Mux
	cfg  RouterConfig
	deps Deps
	jwt  *auth.JWTMiddleware
	rl   *middleware.RateLimiter
}

func NewRouter(cfg RouterConfig, deps Deps) *Router {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
		jwt:  auth.NewJWTMiddleware(cfg.JWTSecret),
		rl:   middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
	}
}

// RateLimiter exposes the limiter so the caller can run its sweeper.
func (rt *Router) RateLimiter() *middleware.RateLimiter {
	return rt.rl
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.AllowedOrigins))
	if rt.cfg.RateLimit > 0 {
		r.Use(rt.rl.Limit)
	}

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.deps.Checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	docH := handlers.NewDocumentHandler(rt.deps.Documents, rt.deps.Ingester, rt.deps.Linker, rt.deps.Queue)
	chatH := handlers.NewChatHandler(rt.deps.Chat, rt.deps.Guard)
	tutorH := handlers.NewTutorHandler(rt.deps.Tutor, rt.deps.Guard)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		if rt.deps.Usage != nil {
			r.Get("/usage", handlers.NewUsageHandler(rt.deps.Usage).Summary)
		}

		var audioH *handlers.AudioHandler
		if rt.deps.Narrator != nil {
			audioH = handlers.NewAudioHandler(rt.deps.Narrator)
			r.Get("/audios", audioH.List)
		}

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", docH.Upload)
			r.Get("/", docH.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", docH.Get)
				r.Delete("/", docH.Delete)
				r.Post("/reindex", docH.Reindex)
				r.Get("/related", docH.Related)

				if audioH != nil {
					r.Post("/audio", audioH.Narrate)
					r.Get("/audio", audioH.Play)
				}

				r.Post("/chat", chatH.Ask)
				r.Get("/chat", chatH.History)

				r.Route("/tutor", func(r chi.Router) {
					r.Get("/", tutorH.Session)
					r.Delete("/", tutorH.Reset)
					r.Post("/start", tutorH.Start)
					r.Post("/answer", tutorH.Answer)
				})
			})
		})
	})

	return r
}
