package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"tgrelay/pkg/config"
	"tgrelay/pkg/logger"
	"tgrelay/pkg/relay"
)

const (
	// secretTokenHeader carries the secret Telegram was told to echo back
	// on every webhook delivery.
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

	shutdownTimeout = 5 * time.Second
)

type Server struct {
	config *config.Config
	engine *relay.Engine
}

func NewServer(cfg *config.Config, engine *relay.Engine) *Server {
	return &Server{
		config: cfg,
		engine: engine,
	}
}

// Handler builds the route table. Registration order is match priority:
// install, then uninstall, then webhook delivery.
func (s *Server) Handler() http.Handler {
	prefix := "/" + s.config.Relay.Prefix

	r := mux.NewRouter()
	r.HandleFunc(prefix+"/install/{owner}/{credential}", s.handleInstall)
	r.HandleFunc(prefix+"/uninstall/{credential}", s.handleUninstall)
	r.HandleFunc(prefix+"/webhook/{owner}/{credential}", s.handleWebhook)
	r.HandleFunc("/health", s.handleHealth)

	return s.withRequestLog(r)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	logger.InfoCF("server", "Starting HTTP server", map[string]interface{}{
		"addr":   addr,
		"prefix": s.config.Relay.Prefix,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.InfoC("server", "Stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res := s.engine.Install(r.Context(), requestOrigin(r), vars["owner"], vars["credential"])
	writeResult(w, res)
}

func (s *Server) handleUninstall(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res := s.engine.Uninstall(r.Context(), vars["credential"])
	writeResult(w, res)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.ErrorCF("server", "Failed to read delivery body", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		writeText(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	res := s.engine.Deliver(r.Context(), vars["owner"], vars["credential"], r.Header.Get(secretTokenHeader), body)
	writeText(w, res.Status, res.Body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeResult(w http.ResponseWriter, res relay.Result) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(res.Status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": res.Success,
		"message": res.Message,
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// requestOrigin rebuilds the scheme+host the caller reached us on. A TLS
// terminator in front is expected to set X-Forwarded-Proto.
func requestOrigin(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	return scheme + "://" + r.Host
}
