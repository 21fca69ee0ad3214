// Package api exposes the inference service over HTTP.
// Package api 通过 HTTP 暴露推理服务。
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/livp123/firesense/internal/app"
	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/metrics"
	"github.com/livp123/firesense/internal/normalizer"
	"github.com/livp123/firesense/internal/report"
	"github.com/livp123/firesense/internal/utils/logger"
	"go.uber.org/zap"
)

// Service is what the API needs from the running application.
// Service 是 API 对运行中应用的依赖。
type Service interface {
	Cycle(ctx context.Context, label string, raw normalizer.FeatureVector) (*report.Report, error)
	Status() app.Status
}

type Server struct {
	svc    Service
	token  string
	server *http.Server
}

// NewServer creates an API server. An empty token disables authentication.
// NewServer 创建 API 服务器，令牌为空时不鉴权。
func NewServer(svc Service, cfg config.WebConfig) *Server {
	s := &Server{
		svc:   svc,
		token: cfg.Token,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the routes without middleware.
// Router 返回不带中间件的路由。
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/login", s.handleLogin).Methods(http.MethodPost)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.withAuth)
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/infer", s.handleInfer).Methods(http.MethodPost)

	return r
}

// Handler returns the router wrapped with access logging and panic recovery.
// Handler 返回带访问日志和 panic 恢复的路由。
func (s *Server) Handler() http.Handler {
	accessLog := zap.NewStdLog(logger.Get(nil).Desugar()).Writer()
	h := handlers.CombinedLoggingHandler(accessLog, s.Router())
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
}

// Start serves until Shutdown is called. After Shutdown it returns nil
// immediately, whichever of the two ran first.
// Start 持续提供服务直到调用 Shutdown。
func (s *Server) Start() error {
	logger.Get(nil).Infof("🚀 API listening on http://localhost%s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
