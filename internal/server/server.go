package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grocer-core-poc/server/internal/agent/model"
	"github.com/grocer-core-poc/server/internal/core"
	errx "github.com/grocer-core-poc/server/internal/core/error"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// SSE event names.
const (
	EventChunk = "chunk"
	EventDone  = "done"
)

// Chatter runs conversation turns.
type Chatter interface {
	Chat(ctx context.Context, req model.ChatRequest) (*schema.StreamReader[string], error)
}

// InvocationResponse is the non-streaming reply.
type InvocationResponse struct {
	ID      string   `json:"id"`
	Chunks  []string `json:"chunks"`
	Content string   `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the conversation entry point over HTTP.
type Server struct {
	cfg    model.ServerConfig
	chat   Chatter
	engine *gin.Engine
}

func New(cfg model.ServerConfig, chat Chatter, env core.Environment) *Server {
	if env.IsProduction() || env == core.Testing {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{cfg: cfg, chat: chat, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.engine.GET("/healthz", s.health)
	s.engine.POST("/invocations", s.invoke)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logx.Info().Msg("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) invoke(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errx.WrapBadRequest(err))
		return
	}

	chunks, err := s.chat.Chat(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	defer chunks.Close()

	id := "inv-" + uuid.NewString()
	if req.Stream {
		s.stream(c, id, chunks)
		return
	}

	var all []string
	for {
		chunk, err := chunks.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeError(c, err)
			return
		}
		all = append(all, chunk)
	}
	c.JSON(http.StatusOK, InvocationResponse{
		ID:      id,
		Chunks:  all,
		Content: strings.Join(all, ""),
	})
}

func (s *Server) stream(c *gin.Context, id string, chunks *schema.StreamReader[string]) {
	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	n := 0
	for {
		if ctx.Err() != nil {
			logx.Warn().Str("id", id).Msg("Client went away")
			return
		}
		chunk, err := chunks.Recv()
		if errors.Is(err, io.EOF) {
			_ = sse.Encode(c.Writer, sse.Event{Event: EventDone, Id: id, Data: gin.H{"chunks": n}})
			c.Writer.Flush()
			return
		}
		if err != nil {
			logx.Error().Str("id", id).Err(err).Msg("Stream failed")
			_ = sse.Encode(c.Writer, sse.Event{Event: EventChunk, Id: id, Data: gin.H{"content": "Error: " + err.Error()}})
			c.Writer.Flush()
			return
		}
		n++
		if err := sse.Encode(c.Writer, sse.Event{Event: EventChunk, Id: id, Data: gin.H{"content": chunk}}); err != nil {
			logx.Warn().Str("id", id).Err(err).Msg("Failed to write SSE chunk")
			return
		}
		c.Writer.Flush()
	}
}

func writeError(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("Request failed")
		var appErr *errx.AppError
		if errors.As(err, &appErr) {
			msg = appErr.Message
		} else {
			msg = errx.SystemErrorMessage
		}
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logx.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	}
}
