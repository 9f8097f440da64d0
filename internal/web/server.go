package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/AlekseyZapadovnikov/review-assigner/conf"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type Server struct {
	Address string
	server  *http.Server

	router          *chi.Mux
	prService       PullRequestService
	userTeamService UserTeamService
}

// New конструирует HTTP-сервер на базе chi и регистрирует все маршруты.
func New(cfg conf.HttpServConf, pr PullRequestService, user UserTeamService) *Server {
	servAdres := cfg.GetAddress()
	mux := chi.NewMux()
	srv := &Server{
		Address:         servAdres,
		router:          mux,
		prService:       pr,
		userTeamService: user,
	}
	srv.server = &http.Server{
		Addr:              servAdres,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	srv.setupRoutes()

	return srv
}

// Handler возвращает корневой обработчик со всеми маршрутами и middleware.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start запускает HTTP-сервер и блокирует поток до остановки.
func (s *Server) Start() error {
	slog.Info("server starting", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

// setupRoutes настраивает middleware и HTTP-маршруты.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	// Простейший health-check.
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Маршруты управления командами.
	s.router.Post("/team/add", s.handleTeamAdd)
	s.router.Get("/team/get", s.handleTeamGet)
	s.router.Post("/team/deactivateUsers", s.handleTeamDeactivate)

	// Маршруты управления пользователями.
	s.router.Post("/users/setIsActive", s.handleSetUserActivity)
	s.router.Get("/users/getReview", s.handleGetUserReviews)

	// Маршруты для Pull Request.
	s.router.Post("/pullRequest/create", s.handlePRCreate)
	s.router.Post("/pullRequest/merge", s.handlePRMerge)
	s.router.Post("/pullRequest/reassign", s.handlePRReassign)

	// Маршрут статистики.
	s.router.Get("/stats/assignments", s.handleAssignmentStats)
}

// Shutdown останавливает HTTP-сервер с таймаутом на корректное завершение.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// ---------- утилитарные функции ----------

// writeJSON сериализует структуру в JSON-ответ с нужным статусом.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
