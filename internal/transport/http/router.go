package http

import (
	"net/http"
	"time"

	"quizdeck/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterConfig carries the transport settings taken from the service config.
type RouterConfig struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// NewRouter wires the REST API and the websocket endpoint onto a chi router.
func NewRouter(service *app.QuizService, cfg RouterConfig, log zerolog.Logger) http.Handler {
	api := NewAPIHandler(service, cfg.MaxUploadBytes, log)
	ws := NewWSHandler(service, cfg.AllowedOrigins, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger(log))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	r.Get("/ws", ws.ServeWS)

	r.Route("/api/quizzes", func(qr chi.Router) {
		qr.Post("/", api.Upload)
		qr.Get("/", api.ListQuizzes)
		qr.Route("/{quizID}", func(ir chi.Router) {
			ir.Get("/", api.GetQuiz)
			ir.Post("/sessions", api.StartSession)
			ir.Post("/submissions", api.Submit)
			ir.Get("/submissions/{sessionID}", api.Result)
		})
	})
	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
