package server

import (
	"AgroAssistant/internal/config"
	"AgroAssistant/internal/service/state"
	"AgroAssistant/internal/service/tts"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	EndPointHealth       = "/health"
	EndPointMetrics      = "/metrics"
	EndPointProcessImage = "/process-image"
	EndPointAsk          = "/ask"
	EndPointSpeak        = "/speak"
	EndPointWS           = "/ws"
)

// Server — HTTP API ассистента: загрузка картинки, вопросы, озвучка и websocket.
type Server struct {
	cfg      *config.Config
	sessions *state.Manager
	tts      tts.Synthesizer
	logger   *zap.SugaredLogger

	origins  []string
	upgrader websocket.Upgrader
	engine   *gin.Engine
	srv      *http.Server
	running  atomic.Bool
	done     chan struct{} // закрывается, когда ListenAndServe вернулся
}

// New собирает роутер. synth может быть nil — тогда /speak отвечает 503.
func New(cfg *config.Config, sessions *state.Manager, synth tts.Synthesizer, logger *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		tts:      synth,
		logger:   logger,
		origins:  splitOrigins(cfg.AllowedOrigins),
		done:     make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), s.cors())

	router.GET(EndPointHealth, s.handleHealth)
	router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))
	router.POST(EndPointProcessImage, s.handleProcessImage)
	router.POST(EndPointAsk, s.handleAsk)
	router.POST(EndPointSpeak, s.handleSpeak)
	router.GET(EndPointWS, s.handleWS)
	s.engine = router

	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,                       // тело с картинкой
		WriteTimeout:      cfg.GenerationTimeout + 30*time.Second, // ждём ответ модели и перевод
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler — роутер целиком, для httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// Start запускает сервер в отдельной горутине и немедленно возвращается.
// Остановка — только через Stop; после неё сервер повторно не запускается.
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	go func() {
		defer close(s.done)
		s.logger.Infow("HTTP server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("HTTP server stopped with error", "error", err)
		} else {
			s.logger.Infow("HTTP server stopped")
		}
	}()
	return nil
}

// Stop дожидается завершения активных запросов (не дольше 5s) и остановки цикла сервера.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("http server shutdown timeout"))
	defer cancel()

	err := s.srv.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		err = s.srv.Close()
	}
	<-s.done
	return err
}

func (s *Server) Addr() string { return s.srv.Addr }

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
